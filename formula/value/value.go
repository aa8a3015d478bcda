// Package value implements the tagged value sort that flows through every
// stage of formula evaluation: literals in the AST, operands in the IR, and
// the results sinks surface per tick.
package value

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies which variant of Value is populated.
type Kind int

const (
	KindNone Kind = iota
	KindNumber
	KindString
	KindTimeStep
	KindCollection
	KindFunctionHandle
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "None"
	case KindNumber:
		return "Number"
	case KindString:
		return "String"
	case KindTimeStep:
		return "TimeStep"
	case KindCollection:
		return "Collection"
	case KindFunctionHandle:
		return "FunctionHandle"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// TimeStep is a single sample of a time series: a price observed at a point
// in time. Both fields are plain float64s, matching the rest of the value
// sort's numeric representation.
type TimeStep struct {
	Price float64
	Time  float64
}

// Collection is an immutable, cheaply-copied sequence of TimeStep. Copies
// share the same backing array; nothing in this package ever mutates a
// backing array after NewCollection returns, so sharing is always safe.
type Collection struct {
	backing []TimeStep
}

// NewCollection builds a Collection over a copy of steps, so later mutation
// of the caller's slice can never be observed through the Collection.
func NewCollection(steps []TimeStep) Collection {
	backing := make([]TimeStep, len(steps))
	copy(backing, steps)
	return Collection{backing: backing}
}

// Len returns the number of steps in the collection.
func (c Collection) Len() int {
	return len(c.backing)
}

// At returns the step at index i. Panics if i is out of range, same as slice
// indexing.
func (c Collection) At(i int) TimeStep {
	return c.backing[i]
}

// Append returns a new Collection with step appended; c is left unchanged.
func (c Collection) Append(step TimeStep) Collection {
	backing := make([]TimeStep, len(c.backing)+1)
	copy(backing, c.backing)
	backing[len(c.backing)] = step
	return Collection{backing: backing}
}

// Slice returns a new Collection over c.backing[lo:hi]. Follows Go slice
// semantics for bounds.
func (c Collection) Slice(lo, hi int) Collection {
	backing := make([]TimeStep, hi-lo)
	copy(backing, c.backing[lo:hi])
	return Collection{backing: backing}
}

func (c Collection) equal(o Collection) bool {
	if len(c.backing) != len(o.backing) {
		return false
	}
	for i := range c.backing {
		if c.backing[i] != o.backing[i] {
			return false
		}
	}
	return true
}

func (c Collection) String() string {
	parts := make([]string, len(c.backing))
	for i, step := range c.backing {
		parts[i] = fmt.Sprintf("{%s@%s}", formatNumber(step.Price), formatNumber(step.Time))
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Value is the tagged union threaded through the AST, IR, and evaluator:
// Number, String, TimeStep, Collection, FunctionHandle, or None. Only the
// fields relevant to kind are meaningful; zero Value is None.
type Value struct {
	kind   Kind
	num    float64
	str    string
	ts     TimeStep
	coll   Collection
	handle string
}

// None is the absent value: the result of a call that has not yet produced
// output (e.g. a windowed function still filling its window).
var None = Value{kind: KindNone}

// Number constructs a Value holding a numeric scalar.
func Number(n float64) Value {
	return Value{kind: KindNumber, num: n}
}

// String constructs a Value holding a string scalar.
func String(s string) Value {
	return Value{kind: KindString, str: s}
}

// NewTimeStep constructs a Value holding a single time series sample.
func NewTimeStep(price, time float64) Value {
	return Value{kind: KindTimeStep, ts: TimeStep{Price: price, Time: time}}
}

// FromCollection constructs a Value wrapping an existing Collection.
func FromCollection(c Collection) Value {
	return Value{kind: KindCollection, coll: c}
}

// FunctionHandle constructs a Value that names a callable by ID, for
// callables that accept or produce references to other callables.
func FunctionHandle(id string) Value {
	return Value{kind: KindFunctionHandle, handle: id}
}

// Kind reports which variant is populated.
func (v Value) Kind() Kind {
	return v.kind
}

// IsNone reports whether v is the absent value.
func (v Value) IsNone() bool {
	return v.kind == KindNone
}

// Number returns the numeric scalar and true if v holds a Number, else
// (0, false). Unlike Coerce, this performs no conversion.
func (v Value) AsNumber() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	return v.num, true
}

// AsString returns the string scalar and true if v holds a String.
func (v Value) AsString() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.str, true
}

// AsTimeStep returns the TimeStep and true if v holds one.
func (v Value) AsTimeStep() (TimeStep, bool) {
	if v.kind != KindTimeStep {
		return TimeStep{}, false
	}
	return v.ts, true
}

// AsCollection returns the Collection and true if v holds one.
func (v Value) AsCollection() (Collection, bool) {
	if v.kind != KindCollection {
		return Collection{}, false
	}
	return v.coll, true
}

// AsFunctionHandle returns the callable ID and true if v holds one.
func (v Value) AsFunctionHandle() (string, bool) {
	if v.kind != KindFunctionHandle {
		return "", false
	}
	return v.handle, true
}

// Coerce projects v to a plain float64 for use in an Operation. Only Number
// coerces; every other kind fails, matching §4.10's "coercion to number uses
// the Number projection of Value; other variants cause a runtime type error".
func (v Value) Coerce() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	return v.num, true
}

// Equal reports structural equality: same kind and same payload. No
// coercion is performed across kinds.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNone:
		return true
	case KindNumber:
		return v.num == o.num
	case KindString:
		return v.str == o.str
	case KindTimeStep:
		return v.ts == o.ts
	case KindCollection:
		return v.coll.equal(o.coll)
	case KindFunctionHandle:
		return v.handle == o.handle
	default:
		return false
	}
}

func formatNumber(n float64) string {
	return strconv.FormatFloat(n, 'g', -1, 64)
}

// String renders v for diagnostics and pretty-printed IR/AST dumps.
func (v Value) String() string {
	switch v.kind {
	case KindNone:
		return "None"
	case KindNumber:
		return formatNumber(v.num)
	case KindString:
		return v.str
	case KindTimeStep:
		return fmt.Sprintf("{%s@%s}", formatNumber(v.ts.Price), formatNumber(v.ts.Time))
	case KindCollection:
		return v.coll.String()
	case KindFunctionHandle:
		return "@" + v.handle
	default:
		return "<invalid value>"
	}
}

// Package registry holds the Callable contract and the Context that binds
// formula source against a set of host-provided functions and constants.
// Context is mutated only at build time; once an Interpreter is built from
// it, the core never calls back into registry's mutators.
package registry

import (
	"fmt"

	"github.com/dekarrin/express/formula/value"
)

// Purity classifies how aggressively the lowerer and constant-folding pass
// may reduce a Call at build time (§4.2, §4.7).
type Purity int

const (
	// Pure callables are deterministic and stateless: given the same
	// arguments they always return the same result, so a Call to one may be
	// reduced at lower time if every argument is already a value.
	Pure Purity = iota
	// Const callables must be evaluated at build time; like Pure they are
	// reduced eagerly, but the reduction is required rather than optional.
	Const
	// Stateful callables may retain memory across ticks and are never
	// folded; they become Call nodes in the IR and participate in CSE
	// hoisting (§4.6).
	Stateful
)

func (p Purity) String() string {
	switch p {
	case Pure:
		return "pure"
	case Const:
		return "const"
	case Stateful:
		return "stateful"
	default:
		return "unknown"
	}
}

// Callable is a host-supplied function the expression language can invoke
// by name. Implementations are registered into a Context with
// RegisterFunction.
type Callable interface {
	// Name is the identifier callers use to invoke this callable.
	Name() string
	// Argcnt is the exact number of arguments this callable accepts.
	Argcnt() int
	// Purity classifies optimization behavior; see the Purity constants.
	Purity() Purity
	// Call invokes the callable with its (already-evaluated) arguments.
	// Returning value.None signals that no output is available yet (e.g. an
	// insufficient window), not an error.
	Call(args []value.Value) value.Value
}

// Initializable is implemented by stateful callables that need a one-time,
// build-time setup pass (§4.11) with their lowered, not-yet-evaluated
// argument list and a read-only view of the Context. Pure and Const
// callables never receive this call.
type Initializable interface {
	Init(args []value.Value, ctx *Context) error
}

// Context is the host registry a Formula set is bound against: a mapping of
// name to Callable plus a mapping of name to constant Number. It is mutated
// only while formulas are being built; after Interpreter construction it is
// read-only.
type Context struct {
	functions map[string]Callable
	constants map[string]float64
}

// New returns an empty Context.
func New() *Context {
	return &Context{
		functions: make(map[string]Callable),
		constants: make(map[string]float64),
	}
}

// RegisterFunction adds c to the registry under c.Name(). Registering a
// second callable under the same name replaces the first.
func (c *Context) RegisterFunction(callable Callable) {
	c.functions[callable.Name()] = callable
}

// RegisterConstant adds a named numeric constant to the registry.
func (c *Context) RegisterConstant(name string, n float64) {
	c.constants[name] = n
}

// FindFunction looks up a callable by name.
func (c *Context) FindFunction(name string) (Callable, bool) {
	callable, ok := c.functions[name]
	return callable, ok
}

// FindConstant looks up a constant by name.
func (c *Context) FindConstant(name string) (float64, bool) {
	n, ok := c.constants[name]
	return n, ok
}

// CheckArity validates that argc matches callable's declared arity,
// returning a descriptive error if not (used by the lowerer to produce
// ferr.ArityMismatch).
func (c *Context) CheckArity(callable Callable, argc int) error {
	if callable.Argcnt() != argc {
		return fmt.Errorf("%s expects %d argument(s), got %d", callable.Name(), callable.Argcnt(), argc)
	}
	return nil
}

package graph

import (
	"github.com/dekarrin/express/formula/ferr"
	"github.com/dekarrin/express/formula/ir"
	"github.com/dekarrin/express/formula/lang"
	"github.com/dekarrin/express/formula/registry"
	"github.com/dekarrin/express/formula/value"
	"github.com/dustin/go-humanize"
)

// Definition is one named formula's source text, the host's unit of input
// to New (§4.3, §6).
type Definition struct {
	Name   string
	Source string
}

// Interpreter owns a fully built formula graph: every Ref resolved, the
// graph checked acyclic, repeated stateful calls hoisted into shared
// anonymous formulas, constants folded, roots selected, and stateful Init
// hooks run. Once New returns successfully, ComputePass drives ticks; the
// build pipeline never runs again.
type Interpreter struct {
	formulas []*Formula
	byName   map[string]*Formula
	roots    []*Formula

	parentCount map[*Formula]int

	ticks int
	done  bool
}

// New runs the whole build pipeline against defs: parse, lower, bind
// references, check acyclicity, hoist stateful CSE, fold constants, select
// roots, and run stateful Init hooks, in that order (§4.3-§4.11, §6). The
// first error at any stage aborts construction.
func New(defs []Definition, ctx *registry.Context) (*Interpreter, error) {
	byName := make(map[string]*Formula, len(defs))
	ordered := make([]*Formula, 0, len(defs))

	for _, def := range defs {
		expr, err := lang.Parse(def.Source)
		if err != nil {
			return nil, err
		}
		node, err := ir.Lower(expr, ctx)
		if err != nil {
			return nil, err
		}
		f := newFormula(def.Name, node)
		byName[def.Name] = f
		ordered = append(ordered, f)
	}

	for _, f := range ordered {
		if err := bindRefs(f, byName); err != nil {
			return nil, err
		}
	}

	if err := checkAcyclic(ordered); err != nil {
		return nil, err
	}

	ordered = hoistCSE(ordered)
	foldConstants(ordered)

	var roots []*Formula
	for _, f := range ordered {
		if f.IsRoot() {
			roots = append(roots, f)
		}
	}
	if len(ordered) > 0 && len(roots) == 0 {
		return nil, ferr.New(ferr.StageGraph, ferr.EmptyRootSet, "formula set produced no root formulas")
	}

	parentCount := make(map[*Formula]int, len(ordered))
	for _, f := range ordered {
		parentCount[f] = len(f.parents)
	}

	interp := &Interpreter{
		formulas:    ordered,
		byName:      byName,
		roots:       roots,
		parentCount: parentCount,
	}
	if err := interp.initStateful(ctx); err != nil {
		return nil, err
	}
	return interp, nil
}

// initStateful runs the build-time Init hook (§4.11) of every stateful
// callable that implements registry.Initializable, evaluating its (already
// folded, where possible) argument IR once. Pure and Const callables are
// never CallNodes by this point and so never reach here.
func (interp *Interpreter) initStateful(ctx *registry.Context) error {
	for _, f := range interp.formulas {
		if f.node.Kind() != ir.KindCall {
			continue
		}
		call := f.node.AsCall()
		if call.Callable.Purity() != registry.Stateful {
			continue
		}
		initable, ok := call.Callable.(registry.Initializable)
		if !ok {
			continue
		}
		args := make([]value.Value, len(call.Args))
		for i, a := range call.Args {
			args[i] = evalNode(a)
		}
		if err := initable.Init(args, ctx); err != nil {
			return ferr.Wrap(ferr.StageGraph, ferr.InitFailed,
				"initializing stateful callable "+call.Callable.Name()+" for formula \""+f.Name+"\"", err)
		}
	}
	return nil
}

// ComputePass runs one tick (§4.9): a topological sweep that evaluates
// every formula at most once, in an order that never evaluates a formula
// before all of its parents (the formulas its IR references) have been
// evaluated this tick. It returns the current result of every sink formula
// (a formula no other formula references), excluding anonymous formulas
// synthesized by CSE hoisting.
func (interp *Interpreter) ComputePass() map[string]value.Value {
	remaining := make(map[*Formula]int, len(interp.parentCount))
	for f, n := range interp.parentCount {
		remaining[f] = n
	}

	queue := make([]*Formula, len(interp.roots))
	copy(queue, interp.roots)
	evaluated := make(map[*Formula]bool, len(interp.formulas))

	for len(queue) > 0 {
		f := queue[0]
		queue = queue[1:]
		if evaluated[f] {
			continue
		}
		evaluated[f] = true
		if f.pendingInput != nil {
			f.result = *f.pendingInput
			f.pendingInput = nil
		} else {
			f.result = evalNode(f.node)
		}

		for _, child := range f.children {
			remaining[child]--
			if remaining[child] == 0 {
				queue = append(queue, child)
			}
		}
	}

	out := make(map[string]value.Value, len(interp.formulas))
	allNone := true
	for _, f := range interp.formulas {
		if !f.IsSink() || f.anonymous {
			continue
		}
		out[f.Name] = f.result
		if !f.result.IsNone() {
			allNone = false
		}
	}

	interp.ticks++
	if allNone {
		interp.done = true
	}
	return out
}

// Done reports whether every sink returned None on the most recent tick;
// once true, further ComputePass calls keep producing all-None maps and the
// host should stop driving ticks (§4.9's termination rule, §8 iterator
// protocol).
func (interp *Interpreter) Done() bool {
	return interp.done
}

// Lookup returns the formula named name, if any -- mainly for diagnostics
// and tests that want to inspect a specific formula's current result or IR
// without going through a tick's sink map.
func (interp *Interpreter) Lookup(name string) (*Formula, bool) {
	f, ok := interp.byName[name]
	return f, ok
}

// SetInput queues v as the result formula name will report on the next
// ComputePass, bypassing evaluation of its IR for that tick. This is how a
// host (an hostio.TickSource transport, the tick server's HTTP handler)
// feeds one named sample at a time into a formula that represents a live
// input rather than a derived value. Returns false if no formula by that
// name exists.
func (interp *Interpreter) SetInput(name string, v value.Value) bool {
	f, ok := interp.byName[name]
	if !ok {
		return false
	}
	f.setPendingInput(v)
	return true
}

// Stats is a small build/runtime diagnostic summary, grounded on the
// teacher's habit of humanizing counters in debug output rather than
// printing raw integers.
type Stats struct {
	FormulaCount     int
	SynthesizedCount int
	RootCount        int
	TicksRun         int
}

func (interp *Interpreter) Stats() Stats {
	synth := 0
	for _, f := range interp.formulas {
		if f.anonymous {
			synth++
		}
	}
	return Stats{
		FormulaCount:     len(interp.formulas),
		SynthesizedCount: synth,
		RootCount:        len(interp.roots),
		TicksRun:         interp.ticks,
	}
}

// String renders a human-readable one-line summary of s, e.g.
// "7 formulas (2 synthesized), 3 roots, 41 ticks run".
func (s Stats) String() string {
	return humanize.Comma(int64(s.FormulaCount)) + " formulas (" +
		humanize.Comma(int64(s.SynthesizedCount)) + " synthesized), " +
		humanize.Comma(int64(s.RootCount)) + " roots, " +
		humanize.Comma(int64(s.TicksRun)) + " ticks run"
}

// evalNode evaluates a single IR node against its operands' *current*
// values, per §4.10. Ref reads the target formula's result slot directly
// rather than recursing into its IR -- the slot already holds this tick's
// value because ComputePass only evaluates a formula after all its parents.
func evalNode(node ir.Node) value.Value {
	switch node.Kind() {
	case ir.KindValue:
		return node.AsValue().V
	case ir.KindRef:
		target, ok := node.AsRef().Link.Target().(*Formula)
		if !ok {
			return value.None
		}
		return target.Result()
	case ir.KindCall:
		call := node.AsCall()
		args := make([]value.Value, len(call.Args))
		for i, a := range call.Args {
			v := evalNode(a)
			if v.IsNone() {
				return value.None
			}
			args[i] = v
		}
		return call.Callable.Call(args)
	case ir.KindBinOp:
		bin := node.AsBinOp()
		a, ok := evalNode(bin.Left).Coerce()
		if !ok {
			return value.None
		}
		b, ok := evalNode(bin.Right).Coerce()
		if !ok {
			return value.None
		}
		return value.Number(bin.Op.Eval(a, b))
	case ir.KindUnOp:
		un := node.AsUnOp()
		x, ok := evalNode(un.Right).Coerce()
		if !ok {
			return value.None
		}
		result, ok := un.Op.UnaryEval(x)
		if !ok {
			return value.None
		}
		return value.Number(result)
	default:
		return value.None
	}
}

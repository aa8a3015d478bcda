// Package graph owns the formula dependency graph: binding Ref nodes to
// their targets, hoisting shared stateful calls, folding constants,
// choosing roots, and driving the per-tick evaluator (§4.3-§4.11).
package graph

import (
	"github.com/dekarrin/express/formula/ir"
	"github.com/dekarrin/express/formula/value"
)

// Formula is a named IR tree with a last-computed result slot and two
// adjacency lists: parents it depends on, children that depend on it.
// Formulas are always referenced through a *Formula so that the many Refs,
// parent lists, and child lists pointing at one instance all observe the
// same result slot.
type Formula struct {
	Name string

	node ir.Node

	parents  []*Formula
	children []*Formula

	result value.Value

	// anonymous formulas are synthesized by CSE hoisting (§4.6); they are
	// not surfaced in the per-tick sink map even if they happen to have no
	// children.
	anonymous bool

	// refCount tracks how many live Refs target this formula, independent
	// of how many distinct formulas appear in `children` (one formula can
	// Ref the same target more than once). CSE inlining (§4.6 step 4)
	// reads this to decide whether a synthesized formula is still in use.
	refCount int

	// pendingInput, if non-nil, is consumed by the next ComputePass in
	// place of evaluating node: a host feeding live samples in through
	// Interpreter.SetInput rather than defining the formula in terms of
	// others.
	pendingInput *value.Value
}

func newFormula(name string, node ir.Node) *Formula {
	return &Formula{Name: name, node: node, result: value.None}
}

// IR returns the formula's current IR tree. Mutated in place by the build
// pipeline (binding, CSE, folding); stable once New returns.
func (f *Formula) IR() ir.Node {
	return f.node
}

// Result returns the most recently computed value for this formula: the
// output of the last successful call/fold, or value.None if it has not been
// evaluated yet this tick (or a call returned None). Implements
// ir.FormulaTarget so Ref nodes can read it without importing this package.
func (f *Formula) Result() value.Value {
	return f.result
}

// setPendingInput queues v to be used as this formula's result on the next
// ComputePass instead of evaluating its IR. Used to seed formulas with a
// live sample ahead of a tick (§6's TickSource feeds one Value per named
// formula per tick).
func (f *Formula) setPendingInput(v value.Value) {
	f.pendingInput = &v
}

// Parents returns the formulas this one depends on (i.e. that it
// references).
func (f *Formula) Parents() []*Formula {
	return f.parents
}

// Children returns the formulas that depend on this one.
func (f *Formula) Children() []*Formula {
	return f.children
}

// IsSink reports whether no other formula references this one.
func (f *Formula) IsSink() bool {
	return len(f.children) == 0
}

// IsRoot reports whether this formula references no other formula.
func (f *Formula) IsRoot() bool {
	return len(f.parents) == 0
}

func addEdge(parent, child *Formula) {
	child.parents = append(child.parents, parent)
	parent.children = append(parent.children, child)
}

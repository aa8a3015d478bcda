// Package ir implements the lowering pass that turns a lang.Expression AST
// into an IR whose nodes hold resolved Callable objects and inline
// constants, per §4.2. Ref nodes hold a FormulaLink that the graph package
// resolves once every formula in a build is known.
package ir

import (
	"fmt"
	"strings"

	"github.com/dekarrin/express/formula/registry"
	"github.com/dekarrin/express/formula/value"
	"github.com/dekarrin/rosed"
)

// Kind identifies which concrete Node variant a node is.
type Kind int

const (
	KindValue Kind = iota
	KindRef
	KindCall
	KindBinOp
	KindUnOp
)

func (k Kind) String() string {
	switch k {
	case KindValue:
		return "VALUE"
	case KindRef:
		return "REF"
	case KindCall:
		return "CALL"
	case KindBinOp:
		return "BINOP"
	case KindUnOp:
		return "UNOP"
	default:
		return "UNKNOWN"
	}
}

// FormulaTarget is the read-only view of a Formula that ir needs: just
// enough to read its most recent tick result. Defined here, rather than
// importing the graph package, to avoid the import cycle a Formula field
// of IRNode would otherwise create; graph.Formula implements this
// interface.
type FormulaTarget interface {
	Result() value.Value
}

// FormulaLink is a named handle to a formula, resolved during graph binding
// (§4.4) into a shared reference. Unresolved links have a nil target.
type FormulaLink struct {
	Name   string
	target FormulaTarget
}

// NewFormulaLink creates an unresolved link to the formula named name.
func NewFormulaLink(name string) *FormulaLink {
	return &FormulaLink{Name: name}
}

// LinkWith binds the link to its resolved target.
func (l *FormulaLink) LinkWith(target FormulaTarget) {
	l.target = target
}

// Target returns the resolved target, or nil if binding has not happened
// yet.
func (l *FormulaLink) Target() FormulaTarget {
	return l.target
}

// Resolved reports whether LinkWith has been called.
func (l *FormulaLink) Resolved() bool {
	return l.target != nil
}

// Node is an IR tree node: Value(Value) | Ref(FormulaLink) |
// Call(callable,[Node]) | BinOp(lhs,rhs,Operation) | UnOp(rhs,Operation).
type Node interface {
	Kind() Kind
	String() string

	AsValue() ValueNode
	AsRef() RefNode
	AsCall() CallNode
	AsBinOp() BinOpNode
	AsUnOp() UnOpNode
}

// ValueNode is an inlined constant.
type ValueNode struct {
	V value.Value
}

func (n ValueNode) Kind() Kind           { return KindValue }
func (n ValueNode) String() string       { return n.V.String() }
func (n ValueNode) AsValue() ValueNode   { return n }
func (n ValueNode) AsRef() RefNode       { panic("not a RefNode") }
func (n ValueNode) AsCall() CallNode     { panic("not a CallNode") }
func (n ValueNode) AsBinOp() BinOpNode   { panic("not a BinOpNode") }
func (n ValueNode) AsUnOp() UnOpNode     { panic("not a UnOpNode") }

// RefNode reads another formula's current-tick result.
type RefNode struct {
	Link *FormulaLink
}

func (n RefNode) Kind() Kind         { return KindRef }
func (n RefNode) String() string     { return "&" + n.Link.Name }
func (n RefNode) AsValue() ValueNode { panic("not a ValueNode") }
func (n RefNode) AsRef() RefNode     { return n }
func (n RefNode) AsCall() CallNode   { panic("not a CallNode") }
func (n RefNode) AsBinOp() BinOpNode { panic("not a BinOpNode") }
func (n RefNode) AsUnOp() UnOpNode   { panic("not a UnOpNode") }

// CallNode invokes a resolved Callable with already-lowered argument IR.
type CallNode struct {
	Callable registry.Callable
	Args     []Node
}

func (n CallNode) Kind() Kind         { return KindCall }
func (n CallNode) AsValue() ValueNode { panic("not a ValueNode") }
func (n CallNode) AsRef() RefNode     { panic("not a RefNode") }
func (n CallNode) AsCall() CallNode   { return n }
func (n CallNode) AsBinOp() BinOpNode { panic("not a BinOpNode") }
func (n CallNode) AsUnOp() UnOpNode   { panic("not a UnOpNode") }
func (n CallNode) String() string {
	parts := make([]string, len(n.Args))
	for i, a := range n.Args {
		parts[i] = a.String()
	}
	return n.Callable.Name() + "(" + strings.Join(parts, ", ") + ")"
}

// BinOpNode is a binary arithmetic operation over two IR subtrees.
type BinOpNode struct {
	Left  Node
	Right Node
	Op    value.Operation
}

func (n BinOpNode) Kind() Kind         { return KindBinOp }
func (n BinOpNode) AsValue() ValueNode { panic("not a ValueNode") }
func (n BinOpNode) AsRef() RefNode     { panic("not a RefNode") }
func (n BinOpNode) AsCall() CallNode   { panic("not a CallNode") }
func (n BinOpNode) AsBinOp() BinOpNode { return n }
func (n BinOpNode) AsUnOp() UnOpNode   { panic("not a UnOpNode") }
func (n BinOpNode) String() string {
	return fmt.Sprintf("(%s %s %s)", n.Left.String(), n.Op, n.Right.String())
}

// UnOpNode is a unary arithmetic operation over one IR subtree.
type UnOpNode struct {
	Right Node
	Op    value.Operation
}

func (n UnOpNode) Kind() Kind         { return KindUnOp }
func (n UnOpNode) AsValue() ValueNode { panic("not a ValueNode") }
func (n UnOpNode) AsRef() RefNode     { panic("not a RefNode") }
func (n UnOpNode) AsCall() CallNode   { panic("not a CallNode") }
func (n UnOpNode) AsBinOp() BinOpNode { panic("not a BinOpNode") }
func (n UnOpNode) AsUnOp() UnOpNode   { return n }
func (n UnOpNode) String() string {
	return fmt.Sprintf("(%s%s)", n.Op, n.Right.String())
}

// Pretty returns a wrapped, indented rendering of n for diagnostic dumps.
func Pretty(n Node, width int) string {
	return rosed.Edit(n.String()).Wrap(width).String()
}

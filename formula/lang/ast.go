package lang

import (
	"fmt"
	"strings"

	"github.com/dekarrin/express/formula/value"
	"github.com/dekarrin/rosed"
)

// NodeKind identifies which concrete Expression variant a node is.
type NodeKind int

const (
	NodeConst NodeKind = iota
	NodeFunction
	NodeBinOp
	NodeUnOp
)

func (k NodeKind) String() string {
	switch k {
	case NodeConst:
		return "CONST"
	case NodeFunction:
		return "FUNCTION"
	case NodeBinOp:
		return "BINOP"
	case NodeUnOp:
		return "UNOP"
	default:
		return "UNKNOWN"
	}
}

// LiteralKind identifies which form a Literal takes: a number, a bare
// identifier (constant-or-unknown), or a &-prefixed formula reference.
type LiteralKind int

const (
	LiteralNumber LiteralKind = iota
	LiteralIdent
	LiteralRef
)

// Literal is the payload of a Const node: Number(f64) | Ident(str) |
// Ref(str), per §3.
type Literal struct {
	Kind LiteralKind
	Num  float64
	Name string
}

func (lit Literal) String() string {
	switch lit.Kind {
	case LiteralNumber:
		return formatNumber(lit.Num)
	case LiteralIdent:
		return lit.Name
	case LiteralRef:
		return "&" + lit.Name
	default:
		return "<invalid literal>"
	}
}

func formatNumber(n float64) string {
	return value.Number(n).String()
}

// Expression is the AST produced by Parse: Const(Literal) |
// Function{name,args} | BinOp(lhs,rhs,op) | UnOp(op,rhs), per §3.
//
// Every concrete node panics when an AsX accessor that does not match its
// Kind is called, mirroring how a closed sum type's downcast would behave;
// callers should always switch on Kind first.
type Expression interface {
	Kind() NodeKind
	Source() Token
	String() string

	AsConst() ConstNode
	AsFunction() FunctionNode
	AsBinOp() BinOpNode
	AsUnOp() UnOpNode
}

// ConstNode holds a literal value in operand position.
type ConstNode struct {
	Literal Literal
	src     Token
}

func NewConst(lit Literal, src Token) ConstNode { return ConstNode{Literal: lit, src: src} }

func (n ConstNode) Kind() NodeKind      { return NodeConst }
func (n ConstNode) Source() Token       { return n.src }
func (n ConstNode) String() string      { return n.Literal.String() }
func (n ConstNode) AsConst() ConstNode  { return n }
func (n ConstNode) AsFunction() FunctionNode {
	panic("not a FunctionNode")
}
func (n ConstNode) AsBinOp() BinOpNode { panic("not a BinOpNode") }
func (n ConstNode) AsUnOp() UnOpNode   { panic("not a UnOpNode") }

// FunctionNode is a call ident(args...).
type FunctionNode struct {
	FuncName string
	Args     []Expression
	src      Token
}

func NewFunction(name string, args []Expression, src Token) FunctionNode {
	return FunctionNode{FuncName: name, Args: args, src: src}
}

func (n FunctionNode) Kind() NodeKind     { return NodeFunction }
func (n FunctionNode) Source() Token      { return n.src }
func (n FunctionNode) AsConst() ConstNode { panic("not a ConstNode") }
func (n FunctionNode) AsFunction() FunctionNode { return n }
func (n FunctionNode) AsBinOp() BinOpNode { panic("not a BinOpNode") }
func (n FunctionNode) AsUnOp() UnOpNode   { panic("not a UnOpNode") }
func (n FunctionNode) String() string {
	parts := make([]string, len(n.Args))
	for i, a := range n.Args {
		parts[i] = a.String()
	}
	return n.FuncName + "(" + strings.Join(parts, ", ") + ")"
}

// BinOpNode is lhs OP rhs.
type BinOpNode struct {
	Left  Expression
	Right Expression
	Op    value.Operation
	src   Token
}

func NewBinOp(left, right Expression, op value.Operation, src Token) BinOpNode {
	return BinOpNode{Left: left, Right: right, Op: op, src: src}
}

func (n BinOpNode) Kind() NodeKind         { return NodeBinOp }
func (n BinOpNode) Source() Token          { return n.src }
func (n BinOpNode) AsConst() ConstNode     { panic("not a ConstNode") }
func (n BinOpNode) AsFunction() FunctionNode { panic("not a FunctionNode") }
func (n BinOpNode) AsBinOp() BinOpNode     { return n }
func (n BinOpNode) AsUnOp() UnOpNode       { panic("not a UnOpNode") }
func (n BinOpNode) String() string {
	return fmt.Sprintf("(%s %s %s)", n.Left.String(), n.Op, n.Right.String())
}

// UnOpNode is OP rhs (always prefix, per §4.1).
type UnOpNode struct {
	Right Expression
	Op    value.Operation
	src   Token
}

func NewUnOp(op value.Operation, right Expression, src Token) UnOpNode {
	return UnOpNode{Right: right, Op: op, src: src}
}

func (n UnOpNode) Kind() NodeKind         { return NodeUnOp }
func (n UnOpNode) Source() Token          { return n.src }
func (n UnOpNode) AsConst() ConstNode     { panic("not a ConstNode") }
func (n UnOpNode) AsFunction() FunctionNode { panic("not a FunctionNode") }
func (n UnOpNode) AsBinOp() BinOpNode     { panic("not a BinOpNode") }
func (n UnOpNode) AsUnOp() UnOpNode       { return n }
func (n UnOpNode) String() string {
	return fmt.Sprintf("(%s%s)", n.Op, n.Right.String())
}

// Pretty returns a wrapped, indented rendering of expr suitable for
// multi-line diagnostic dumps (graph/IR pretty-printers lean on the same
// rosed wrapping convention).
func Pretty(expr Expression, width int) string {
	return rosed.Edit(expr.String()).Wrap(width).String()
}

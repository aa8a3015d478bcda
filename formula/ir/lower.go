package ir

import (
	"github.com/dekarrin/express/formula/ferr"
	"github.com/dekarrin/express/formula/lang"
	"github.com/dekarrin/express/formula/registry"
	"github.com/dekarrin/express/formula/value"
)

// Lower walks expr against ctx producing an IR tree (§4.2): callables are
// bound by identity, known constants and pure/const calls are inlined, and
// Ref nodes are emitted with an unresolved FormulaLink for the graph
// package to bind later.
func Lower(expr lang.Expression, ctx *registry.Context) (Node, error) {
	switch expr.Kind() {
	case lang.NodeConst:
		return lowerConst(expr.AsConst(), ctx)
	case lang.NodeFunction:
		return lowerFunction(expr.AsFunction(), ctx)
	case lang.NodeBinOp:
		return lowerBinOp(expr.AsBinOp(), ctx)
	case lang.NodeUnOp:
		return lowerUnOp(expr.AsUnOp(), ctx)
	default:
		return nil, ferr.NewAt(ferr.StageBind, ferr.TypeMismatch, expr.Source().Pos.toFerr(),
			"unrecognized expression node")
	}
}

func lowerConst(n lang.ConstNode, ctx *registry.Context) (Node, error) {
	switch n.Literal.Kind {
	case lang.LiteralNumber:
		return ValueNode{V: value.Number(n.Literal.Num)}, nil
	case lang.LiteralIdent:
		if v, ok := ctx.FindConstant(n.Literal.Name); ok {
			return ValueNode{V: value.Number(v)}, nil
		}
		// Unknown identifier at operand position lowers permissively to a
		// string, per DESIGN.md open-question 3.
		return ValueNode{V: value.String(n.Literal.Name)}, nil
	case lang.LiteralRef:
		return RefNode{Link: NewFormulaLink(n.Literal.Name)}, nil
	default:
		return nil, ferr.NewAt(ferr.StageBind, ferr.TypeMismatch, n.Source().Pos.toFerr(),
			"unrecognized literal kind")
	}
}

func lowerFunction(n lang.FunctionNode, ctx *registry.Context) (Node, error) {
	args := make([]Node, len(n.Args))
	for i, a := range n.Args {
		lowered, err := Lower(a, ctx)
		if err != nil {
			return nil, err
		}
		args[i] = lowered
	}

	callable, ok := ctx.FindFunction(n.FuncName)
	if !ok {
		return nil, ferr.NewAt(ferr.StageBind, ferr.UnknownFunction, n.Source().Pos.toFerr(),
			"unknown function "+n.FuncName)
	}
	if err := ctx.CheckArity(callable, len(args)); err != nil {
		return nil, ferr.WrapAt(ferr.StageBind, ferr.ArityMismatch, n.Source().Pos.toFerr(),
			"call to "+n.FuncName, err)
	}

	argValues, allValues := valuesOf(args)

	switch callable.Purity() {
	case registry.Pure:
		if allValues {
			result := callable.Call(argValues)
			if result.IsNone() {
				return nil, ferr.NewAt(ferr.StageBind, ferr.PureReturnedNone, n.Source().Pos.toFerr(),
					"pure function "+n.FuncName+" returned no value for constant arguments")
			}
			return ValueNode{V: result}, nil
		}
		return CallNode{Callable: callable, Args: args}, nil
	case registry.Const:
		if !allValues {
			return nil, ferr.NewAt(ferr.StageBind, ferr.TypeMismatch, n.Source().Pos.toFerr(),
				"const function "+n.FuncName+" requires all arguments to be resolvable at build time")
		}
		result := callable.Call(argValues)
		if result.IsNone() {
			return nil, ferr.NewAt(ferr.StageBind, ferr.PureReturnedNone, n.Source().Pos.toFerr(),
				"const function "+n.FuncName+" returned no value")
		}
		return ValueNode{V: result}, nil
	default: // registry.Stateful
		return CallNode{Callable: callable, Args: args}, nil
	}
}

func lowerBinOp(n lang.BinOpNode, ctx *registry.Context) (Node, error) {
	left, err := Lower(n.Left, ctx)
	if err != nil {
		return nil, err
	}
	right, err := Lower(n.Right, ctx)
	if err != nil {
		return nil, err
	}

	if a, ok := asNumber(left); ok {
		if b, ok := asNumber(right); ok {
			return ValueNode{V: value.Number(n.Op.Eval(a, b))}, nil
		}
	}

	return BinOpNode{Left: left, Right: right, Op: n.Op}, nil
}

func lowerUnOp(n lang.UnOpNode, ctx *registry.Context) (Node, error) {
	right, err := Lower(n.Right, ctx)
	if err != nil {
		return nil, err
	}

	if x, ok := asNumber(right); ok {
		if result, ok := n.Op.UnaryEval(x); ok {
			return ValueNode{V: value.Number(result)}, nil
		}
		// UnaryEval failing (e.g. factorial of a negative or non-integer)
		// is left unfolded; the evaluator will retry and collapse to None
		// at every tick rather than erroring at build time (§7).
	}

	return UnOpNode{Right: right, Op: n.Op}, nil
}

func asNumber(n Node) (float64, bool) {
	if n.Kind() != KindValue {
		return 0, false
	}
	return n.AsValue().V.Coerce()
}

func valuesOf(args []Node) ([]value.Value, bool) {
	out := make([]value.Value, len(args))
	for i, a := range args {
		if a.Kind() != KindValue {
			return nil, false
		}
		out[i] = a.AsValue().V
	}
	return out, true
}

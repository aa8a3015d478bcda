package graph

import (
	"github.com/dekarrin/express/formula/ir"
	"github.com/dekarrin/express/formula/registry"
	"github.com/dekarrin/express/formula/value"
)

// foldConstants reduces every formula's IR bottom-up (§4.7): a Ref whose
// target is itself already a Value folds to that value, a Pure or Const
// call whose folded arguments are all Values folds to its result, and a
// BinOp/UnOp whose folded operands coerce to numbers folds arithmetically.
// Stateful calls never fold, only their arguments do.
//
// Binding order means a formula can be processed before a formula it
// references has itself finished folding, so one pass isn't always enough
// -- a Ref target might still look like a Call on first pass and have
// become a Value by the time its own dependents get folded. Run fold twice;
// the second pass is a fixed-point check that picks up anything the first
// pass's ordering missed.
func foldConstants(formulas []*Formula) {
	for pass := 0; pass < 2; pass++ {
		for _, f := range formulas {
			f.node = fold(f.node, f)
		}
	}
}

// fold reduces node, which belongs to owner's tree. A Ref that folds away
// because its target has already reduced to a Value is replaced by that
// Value for evaluation purposes, but the parent/child edge recorded at
// bind time is left alone: the adjacency lists describe the dependency
// the source text expressed, which stays a true fact about the graph even
// after an optimization pass inlines it away.
func fold(node ir.Node, owner *Formula) ir.Node {
	switch node.Kind() {
	case ir.KindValue:
		return node
	case ir.KindRef:
		ref := node.AsRef()
		if target, ok := ref.Link.Target().(*Formula); ok {
			if target.node != nil && target.node.Kind() == ir.KindValue {
				return target.node
			}
		}
		return node
	case ir.KindCall:
		call := node.AsCall()
		folded := make([]ir.Node, len(call.Args))
		for i, arg := range call.Args {
			folded[i] = fold(arg, owner)
		}
		if call.Callable.Purity() == registry.Stateful {
			return ir.CallNode{Callable: call.Callable, Args: folded}
		}
		values, allValues := valuesOf(folded)
		if allValues {
			result := call.Callable.Call(values)
			if !result.IsNone() {
				return ir.ValueNode{V: result}
			}
		}
		return ir.CallNode{Callable: call.Callable, Args: folded}
	case ir.KindBinOp:
		bin := node.AsBinOp()
		left := fold(bin.Left, owner)
		right := fold(bin.Right, owner)
		if a, ok := asNumber(left); ok {
			if b, ok := asNumber(right); ok {
				return ir.ValueNode{V: numberValue(bin.Op.Eval(a, b))}
			}
		}
		return ir.BinOpNode{Left: left, Right: right, Op: bin.Op}
	case ir.KindUnOp:
		un := node.AsUnOp()
		right := fold(un.Right, owner)
		if x, ok := asNumber(right); ok {
			if result, ok := un.Op.UnaryEval(x); ok {
				return ir.ValueNode{V: numberValue(result)}
			}
		}
		return ir.UnOpNode{Right: right, Op: un.Op}
	default:
		return node
	}
}


func asNumber(n ir.Node) (float64, bool) {
	if n.Kind() != ir.KindValue {
		return 0, false
	}
	return n.AsValue().V.Coerce()
}

func valuesOf(nodes []ir.Node) ([]value.Value, bool) {
	out := make([]value.Value, len(nodes))
	for i, n := range nodes {
		if n.Kind() != ir.KindValue {
			return nil, false
		}
		out[i] = n.AsValue().V
	}
	return out, true
}

func numberValue(n float64) value.Value {
	return value.Number(n)
}

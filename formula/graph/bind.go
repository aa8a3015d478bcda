package graph

import (
	"github.com/dekarrin/express/formula/ferr"
	"github.com/dekarrin/express/formula/ir"
)

// bindRefs walks f's IR looking for ir.RefNode; for each one, it resolves
// the link against nodes and records the parent/child edge (§4.4). Runs
// once per formula in insertion order, as formulas are constructed, so by
// the time every formula has been bound, every Ref in the whole graph is
// resolved (or the first UnresolvedRef has already aborted the build).
func bindRefs(f *Formula, nodes map[string]*Formula) error {
	resolved, err := resolveNode(f, f.node, nodes)
	if err != nil {
		return err
	}
	f.node = resolved
	return nil
}

// resolveNode recurses through node looking for RefNodes to resolve; it
// never rewrites the tree (that's CSE and folding's job), only mutates
// FormulaLinks and the parent/child adjacency lists in place.
func resolveNode(owner *Formula, node ir.Node, nodes map[string]*Formula) (ir.Node, error) {
	switch node.Kind() {
	case ir.KindValue:
		return node, nil
	case ir.KindRef:
		refNode := node.AsRef()
		target, ok := nodes[refNode.Link.Name]
		if !ok {
			return nil, ferr.New(ferr.StageBind, ferr.UnresolvedRef,
				"formula \""+owner.Name+"\" references unknown formula \""+refNode.Link.Name+"\"")
		}
		refNode.Link.LinkWith(target)
		addEdge(target, owner)
		target.refCount++
		return refNode, nil
	case ir.KindCall:
		callNode := node.AsCall()
		for i, arg := range callNode.Args {
			resolved, err := resolveNode(owner, arg, nodes)
			if err != nil {
				return nil, err
			}
			callNode.Args[i] = resolved
		}
		return callNode, nil
	case ir.KindBinOp:
		binNode := node.AsBinOp()
		left, err := resolveNode(owner, binNode.Left, nodes)
		if err != nil {
			return nil, err
		}
		right, err := resolveNode(owner, binNode.Right, nodes)
		if err != nil {
			return nil, err
		}
		binNode.Left, binNode.Right = left, right
		return binNode, nil
	case ir.KindUnOp:
		unNode := node.AsUnOp()
		right, err := resolveNode(owner, unNode.Right, nodes)
		if err != nil {
			return nil, err
		}
		unNode.Right = right
		return unNode, nil
	default:
		return node, nil
	}
}

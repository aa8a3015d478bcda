package graph

import (
	"github.com/dekarrin/express/formula/ir"
	"github.com/dekarrin/express/formula/registry"
	"github.com/dekarrin/express/formula/value"
	"github.com/google/uuid"
)

// hoistCSE finds Stateful calls that occur, structurally identically, more
// than once across the whole formula set and hoists each repeated call out
// into its own anonymous formula, replacing every occurrence with a Ref to
// it (§4.6). A Stateful call that only ever appears once is left inline --
// equivalent to step 4's "inline formulas with refCount 1", but applied
// before the hoist rather than undone after it, since a call's occurrence
// count over the *original* tree is known up front and doesn't depend on
// rewrite order.
//
// Fingerprints are taken from the original, unrewritten subtree's String():
// two syntactically identical Stateful calls produce identical fingerprints
// regardless of what hoisting happens to their arguments, so counting and
// rewriting can both work from the same untouched trees without needing a
// second "did this get hoisted" pass.
func hoistCSE(formulas []*Formula) []*Formula {
	counts := make(map[string]int)
	for _, f := range formulas {
		countStateful(f.node, counts)
	}

	synthesized := make(map[string]*Formula)
	for _, f := range formulas {
		f.node = rewriteStateful(f.node, f, counts, synthesized, &formulas)
	}
	return formulas
}

func countStateful(node ir.Node, counts map[string]int) {
	switch node.Kind() {
	case ir.KindCall:
		call := node.AsCall()
		if call.Callable.Purity() == registry.Stateful {
			counts[node.String()]++
		}
		for _, arg := range call.Args {
			countStateful(arg, counts)
		}
	case ir.KindBinOp:
		bin := node.AsBinOp()
		countStateful(bin.Left, counts)
		countStateful(bin.Right, counts)
	case ir.KindUnOp:
		countStateful(node.AsUnOp().Right, counts)
	}
}

func rewriteStateful(node ir.Node, owner *Formula, counts map[string]int, synthesized map[string]*Formula, formulas *[]*Formula) ir.Node {
	switch node.Kind() {
	case ir.KindCall:
		call := node.AsCall()
		if call.Callable.Purity() == registry.Stateful {
			fingerprint := node.String()
			if counts[fingerprint] >= 2 {
				if existing, ok := synthesized[fingerprint]; ok {
					addEdge(existing, owner)
					existing.refCount++
					return ir.RefNode{Link: resolvedLink(existing)}
				}
				name := mangleFingerprint(fingerprint)
				newF := &Formula{
					Name:      name,
					result:    value.None,
					anonymous: true,
				}
				rewritten := make([]ir.Node, len(call.Args))
				for i, arg := range call.Args {
					rewritten[i] = rewriteStateful(arg, newF, counts, synthesized, formulas)
				}
				newF.node = ir.CallNode{Callable: call.Callable, Args: rewritten}
				*formulas = append(*formulas, newF)
				synthesized[fingerprint] = newF
				addEdge(newF, owner)
				newF.refCount++
				return ir.RefNode{Link: resolvedLink(newF)}
			}
		}
		rewritten := make([]ir.Node, len(call.Args))
		for i, arg := range call.Args {
			rewritten[i] = rewriteStateful(arg, owner, counts, synthesized, formulas)
		}
		return ir.CallNode{Callable: call.Callable, Args: rewritten}
	case ir.KindBinOp:
		bin := node.AsBinOp()
		left := rewriteStateful(bin.Left, owner, counts, synthesized, formulas)
		right := rewriteStateful(bin.Right, owner, counts, synthesized, formulas)
		return ir.BinOpNode{Left: left, Right: right, Op: bin.Op}
	case ir.KindUnOp:
		un := node.AsUnOp()
		right := rewriteStateful(un.Right, owner, counts, synthesized, formulas)
		return ir.UnOpNode{Right: right, Op: un.Op}
	default:
		return node
	}
}

func resolvedLink(target *Formula) *ir.FormulaLink {
	link := ir.NewFormulaLink(target.Name)
	link.LinkWith(target)
	return link
}

// mangleFingerprint names a synthesized formula from the stateful call's
// structural fingerprint plus a UUID suffix: the fingerprint documents in
// diagnostics which call got hoisted, the UUID keeps the name unique even
// if two distinct fingerprints happened to share a prefix after truncation.
func mangleFingerprint(fingerprint string) string {
	const maxPrefix = 24
	prefix := fingerprint
	if len(prefix) > maxPrefix {
		prefix = prefix[:maxPrefix]
	}
	return "~cse_" + prefix + "_" + uuid.NewString()
}

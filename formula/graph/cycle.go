package graph

import "github.com/dekarrin/express/formula/ferr"

// checkAcyclic runs a depth-first traversal from every formula in formulas
// across children edges, maintaining a visited set and a current-path set
// (§4.5). A child reappearing in the current path, including a formula
// whose own children list contains itself, fails with CyclicReference.
func checkAcyclic(formulas []*Formula) error {
	visited := make(map[*Formula]bool, len(formulas))
	onPath := make(map[*Formula]bool, len(formulas))

	var visit func(f *Formula) error
	visit = func(f *Formula) error {
		if onPath[f] {
			return ferr.New(ferr.StageGraph, ferr.CyclicReference,
				"formula \""+f.Name+"\" participates in a reference cycle")
		}
		if visited[f] {
			return nil
		}
		visited[f] = true
		onPath[f] = true
		for _, child := range f.children {
			if err := visit(child); err != nil {
				return err
			}
		}
		onPath[f] = false
		return nil
	}

	for _, f := range formulas {
		if err := visit(f); err != nil {
			return err
		}
	}
	return nil
}

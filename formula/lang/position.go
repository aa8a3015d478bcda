package lang

import "github.com/dekarrin/express/formula/ferr"

// Position locates a token within source text: a byte offset plus the
// 1-indexed line/column a human would use to find it.
type Position struct {
	Offset int
	Line   int
	Column int
}

func (p Position) toFerr() ferr.Position {
	return ferr.Position{Offset: p.Offset, Line: p.Line, Column: p.Column}
}

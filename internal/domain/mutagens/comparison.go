package mutagens

import (
	"go/ast"
	"go/token"

	m "gooze.dev/pkg/gomutants/internal/model"
)

var comparisonComplements = map[token.Token]token.Token{
	token.EQL: token.NEQ,
	token.NEQ: token.EQL,
	token.LSS: token.GEQ,
	token.GEQ: token.LSS,
	token.GTR: token.LEQ,
	token.LEQ: token.GTR,
}

// ProcessComparisonMutations replaces a comparison with its complement.
func ProcessComparisonMutations(n ast.Node, src Source) []Site {
	bin, ok := n.(*ast.BinaryExpr)
	if !ok {
		return nil
	}

	to, ok := comparisonComplements[bin.Op]
	if !ok {
		return nil
	}

	site, ok := tokenSite(src, m.GenreComparisonOperatorSwap, bin.OpPos, bin.Op, to)
	if !ok {
		return nil
	}

	return []Site{site}
}

package mutagens

import (
	"go/ast"
	"go/token"

	m "gooze.dev/pkg/gomutants/internal/model"
)

// ProcessLogicalMutations swaps && and ||.
func ProcessLogicalMutations(n ast.Node, src Source) []Site {
	bin, ok := n.(*ast.BinaryExpr)
	if !ok {
		return nil
	}

	var to token.Token

	switch bin.Op { //nolint:exhaustive
	case token.LAND:
		to = token.LOR
	case token.LOR:
		to = token.LAND
	default:
		return nil
	}

	site, ok := tokenSite(src, m.GenreLogicalOperatorSwap, bin.OpPos, bin.Op, to)
	if !ok {
		return nil
	}

	return []Site{site}
}

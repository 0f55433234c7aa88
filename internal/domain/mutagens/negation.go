package mutagens

import (
	"go/ast"
	"go/token"

	m "gooze.dev/pkg/gomutants/internal/model"
)

// ProcessNegationMutations deletes a logical not.
func ProcessNegationMutations(n ast.Node, src Source) []Site {
	unary, ok := n.(*ast.UnaryExpr)
	if !ok || unary.Op != token.NOT {
		return nil
	}

	start, ok := offsetForPos(src.Fset, unary.OpPos)
	if !ok || start >= len(src.Content) || src.Content[start] != '!' {
		return nil
	}

	return []Site{{
		Genre:       m.GenreNegationRemoval,
		Start:       start,
		End:         start + 1,
		Original:    "!",
		Replacement: "",
		Description: "delete !" + inFunction(src),
	}}
}

package mutagens

import (
	"go/ast"

	m "gooze.dev/pkg/gomutants/internal/model"
)

// ProcessBooleanMutations swaps the true and false identifiers.
func ProcessBooleanMutations(n ast.Node, src Source) []Site {
	ident, ok := n.(*ast.Ident)
	if !ok {
		return nil
	}

	var replacement string

	switch ident.Name {
	case "true":
		replacement = "false"
	case "false":
		replacement = "true"
	default:
		return nil
	}

	start, ok := offsetForPos(src.Fset, ident.Pos())
	if !ok {
		return nil
	}

	return []Site{{
		Genre:       m.GenreBooleanLiteralSwap,
		Start:       start,
		End:         start + len(ident.Name),
		Original:    ident.Name,
		Replacement: replacement,
		Description: "replace " + ident.Name + " with " + replacement + inFunction(src),
	}}
}

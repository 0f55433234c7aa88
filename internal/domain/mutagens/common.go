// Package mutagens provides helpers for generating code mutations.
package mutagens

import (
	"go/ast"
	"go/token"

	m "gooze.dev/pkg/gomutants/internal/model"
)

// Site is one textual substitution proposed for a node. Offsets are byte
// offsets into the file content, End exclusive.
type Site struct {
	Genre       m.Genre
	Start       int
	End         int
	Original    string
	Replacement string
	Description string
}

// Source is the parsed file a mutagen works on.
type Source struct {
	Fset    *token.FileSet
	File    *ast.File
	Content []byte
	// Function is the display name of the enclosing declaration.
	Function string
}

// ExprMutagen proposes sites for a single node of a function body.
type ExprMutagen func(n ast.Node, src Source) []Site

// ExprMutagens is the ordered set of expression level mutagens.
func ExprMutagens() []ExprMutagen {
	return []ExprMutagen{
		ProcessBooleanMutations,
		ProcessNumericMutations,
		ProcessStringMutations,
		ProcessComparisonMutations,
		ProcessLogicalMutations,
		ProcessArithmeticMutations,
		ProcessNegationMutations,
	}
}

func offsetForPos(fset *token.FileSet, pos token.Pos) (int, bool) {
	file := fset.File(pos)
	if file == nil {
		return 0, false
	}

	return file.Offset(pos), true
}

// text returns the source between two positions.
func (s Source) text(start, end token.Pos) string {
	from, ok := offsetForPos(s.Fset, start)
	if !ok {
		return ""
	}

	to, ok := offsetForPos(s.Fset, end)
	if !ok || to < from || to > len(s.Content) {
		return ""
	}

	return string(s.Content[from:to])
}

// tokenSite builds a site replacing the operator token at pos.
func tokenSite(src Source, genre m.Genre, pos token.Pos, from, to token.Token) (Site, bool) {
	start, ok := offsetForPos(src.Fset, pos)
	if !ok {
		return Site{}, false
	}

	original := from.String()
	end := start + len(original)

	if end > len(src.Content) || string(src.Content[start:end]) != original {
		return Site{}, false
	}

	return Site{
		Genre:       genre,
		Start:       start,
		End:         end,
		Original:    original,
		Replacement: to.String(),
		Description: "replace " + original + " with " + to.String() + inFunction(src),
	}, true
}

func inFunction(src Source) string {
	if src.Function == "" {
		return ""
	}

	return " in " + src.Function
}

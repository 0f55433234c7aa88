package mutagens

import (
	"go/ast"
	"go/token"
	"strconv"

	m "gooze.dev/pkg/gomutants/internal/model"
)

// ProcessStringMutations blanks string literals or replaces them with the
// placeholder.
func ProcessStringMutations(n ast.Node, src Source) []Site {
	lit, ok := n.(*ast.BasicLit)
	if !ok || lit.Kind != token.STRING {
		return nil
	}

	value, err := strconv.Unquote(lit.Value)
	if err != nil {
		return nil
	}

	start, ok := offsetForPos(src.Fset, lit.Pos())
	if !ok {
		return nil
	}

	end := start + len(lit.Value)

	var sites []Site

	if value != "" {
		sites = append(sites, Site{
			Genre:       m.GenreStringLiteralEmpty,
			Start:       start,
			End:         end,
			Original:    lit.Value,
			Replacement: `""`,
			Description: "replace " + abbreviate(lit.Value) + ` with ""` + inFunction(src),
		})
	}

	if value != PlaceholderString {
		placeholder := strconv.Quote(PlaceholderString)
		sites = append(sites, Site{
			Genre:       m.GenreStringLiteralPlaceholder,
			Start:       start,
			End:         end,
			Original:    lit.Value,
			Replacement: placeholder,
			Description: "replace " + abbreviate(lit.Value) + " with " + placeholder + inFunction(src),
		})
	}

	return sites
}

const maxDescribedLiteral = 40

func abbreviate(s string) string {
	r := []rune(s)
	if len(r) <= maxDescribedLiteral {
		return s
	}

	return string(r[:maxDescribedLiteral-3]) + "..."
}

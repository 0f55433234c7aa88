package mutagens

import (
	"go/ast"
	"go/constant"
	"go/token"

	m "gooze.dev/pkg/gomutants/internal/model"
)

// ProcessNumericMutations moves integer literals by one in each direction.
// Zero is never decremented.
func ProcessNumericMutations(n ast.Node, src Source) []Site {
	lit, ok := n.(*ast.BasicLit)
	if !ok || lit.Kind != token.INT {
		return nil
	}

	value := constant.MakeFromLiteral(lit.Value, token.INT, 0)
	if value.Kind() != constant.Int {
		return nil
	}

	start, ok := offsetForPos(src.Fset, lit.Pos())
	if !ok {
		return nil
	}

	end := start + len(lit.Value)
	one := constant.MakeInt64(1)

	site := func(genre m.Genre, v constant.Value) Site {
		replacement := v.ExactString()
		return Site{
			Genre:       genre,
			Start:       start,
			End:         end,
			Original:    lit.Value,
			Replacement: replacement,
			Description: "replace " + lit.Value + " with " + replacement + inFunction(src),
		}
	}

	sites := []Site{site(m.GenreNumericLiteralIncrement, constant.BinaryOp(value, token.ADD, one))}

	if constant.Sign(value) > 0 {
		sites = append(sites, site(m.GenreNumericLiteralDecrement, constant.BinaryOp(value, token.SUB, one)))
	}

	return sites
}

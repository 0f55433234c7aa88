package mutagens

import (
	"go/ast"
	"go/parser"
	"go/token"
	"testing"

	"github.com/stretchr/testify/require"
)

func parseSource(t *testing.T, code string) Source {
	t.Helper()

	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "test.go", code, parser.ParseComments)
	require.NoError(t, err)

	return Source{Fset: fset, File: file, Content: []byte(code), Function: "f"}
}

func collect(t *testing.T, code string, mutagen ExprMutagen) ([]Site, Source) {
	t.Helper()

	src := parseSource(t, code)

	var sites []Site

	ast.Inspect(src.File, func(n ast.Node) bool {
		if n == nil {
			return false
		}

		sites = append(sites, mutagen(n, src)...)

		return true
	})

	return sites, src
}

func apply(src Source, site Site) string {
	out := string(src.Content[:site.Start]) + site.Replacement + string(src.Content[site.End:])
	return out
}

func firstFunc(t *testing.T, src Source) *ast.FuncDecl {
	t.Helper()

	for _, decl := range src.File.Decls {
		if fn, ok := decl.(*ast.FuncDecl); ok {
			return fn
		}
	}

	t.Fatal("no function declaration")

	return nil
}

package mutagens

import (
	"go/ast"
	"go/parser"
	"go/token"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "gooze.dev/pkg/gomutants/internal/model"
)

func TestProcessReturnMutations(t *testing.T) {
	tests := []struct {
		name       string
		code       string
		exclusive  bool
		returnType string
		genres     []m.Genre
		stmts      []string
	}{
		{
			name:       "bool yields exactly true and false",
			code:       "package p\nfunc f(a, b bool) bool { return a && !b }",
			exclusive:  true,
			returnType: "bool",
			genres:     []m.Genre{m.GenreReturnTrue, m.GenreReturnFalse},
			stmts:      []string{"return true;", "return false;"},
		},
		{
			name:       "string yields empty and placeholder",
			code:       "package p\nfunc f() string { return \"a\" + \"b\" }",
			exclusive:  true,
			returnType: "string",
			genres:     []m.Genre{m.GenreReturnEmptyString, m.GenreReturnPlaceholderString},
			stmts:      []string{`return "";`, `return "xyzzy";`},
		},
		{
			name:       "value and error returns zero and nil",
			code:       "package p\nfunc f() (*int, error) { return nil, nil }",
			returnType: "(*int, error)",
			genres:     []m.Genre{m.GenreReturnDefaultSuccess},
			stmts:      []string{"return nil, nil;"},
		},
		{
			name:       "bare error returns nil",
			code:       "package p\nfunc f() error { return nil }",
			returnType: "error",
			genres:     []m.Genre{m.GenreReturnDefaultSuccess},
			stmts:      []string{"return nil;"},
		},
		{
			name:       "named results expand",
			code:       "package p\nfunc f() (a, b int, err error) { return }",
			returnType: "(a, b int, err error)",
			genres:     []m.Genre{m.GenreReturnDefaultSuccess},
			stmts:      []string{"return 0, 0, nil;"},
		},
		{
			name:       "void returns early",
			code:       "package p\nfunc f() { println() }",
			genres:     []m.Genre{m.GenreReturnEarly},
			stmts:      []string{"return;"},
		},
		{
			name:       "other types return zero values",
			code:       "package p\nimport \"time\"\nfunc f() (time.Duration, []int, [2]int, map[string]int) { return 0, nil, [2]int{}, nil }",
			returnType: "(time.Duration, []int, [2]int, map[string]int)",
			genres:     []m.Genre{m.GenreReturnZero},
			stmts:      []string{"return *new(time.Duration), nil, [2]int{}, nil;"},
		},
		{
			name:       "generic result uses new",
			code:       "package p\nfunc f[T any](v T) T { return v }",
			returnType: "T",
			genres:     []m.Genre{m.GenreReturnZero},
			stmts:      []string{"return *new(T);"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := parseSource(t, tt.code)
			fn := firstFunc(t, src)

			plan := ProcessReturnMutations(fn, src)
			assert.Equal(t, tt.exclusive, plan.Exclusive)
			assert.Equal(t, tt.returnType, plan.ReturnType)
			require.Len(t, plan.Sites, len(tt.genres))

			for i, site := range plan.Sites {
				assert.Equal(t, tt.genres[i], site.Genre)
				assert.Equal(t, site.Start, site.End, "function mutants are insertions")
				assert.Equal(t, "\n\t"+tt.stmts[i], site.Replacement)

				_, err := parser.ParseFile(token.NewFileSet(), "mutant.go", apply(src, site), 0)
				assert.NoError(t, err, "mutant must stay parseable")
			}
		})
	}
}

func TestProcessReturnMutations_Description(t *testing.T) {
	src := parseSource(t, "package p\nfunc f() bool { return true }")
	src.Function = "(*Server).Ready"

	plan := ProcessReturnMutations(firstFunc(t, src), src)
	require.Len(t, plan.Sites, 2)
	assert.Equal(t, "replace (*Server).Ready -> bool with true", plan.Sites[0].Description)

	src = parseSource(t, "package p\nfunc f() { println() }")
	src.Function = "Close"

	plan = ProcessReturnMutations(firstFunc(t, src), src)
	require.Len(t, plan.Sites, 1)
	assert.Equal(t, "replace Close with return", plan.Sites[0].Description)
}

func TestFunctionName(t *testing.T) {
	code := `package p
type S struct{}
type G[K comparable] struct{}
func Free() {}
func (S) Value() {}
func (s *S) Pointer() {}
func (g *G[K]) Generic() {}
`
	src := parseSource(t, code)

	var names []string

	for _, decl := range src.File.Decls {
		if fn, ok := decl.(*ast.FuncDecl); ok {
			names = append(names, FunctionName(fn))
		}
	}

	assert.Equal(t, []string{"Free", "S.Value", "(*S).Pointer", "(*G).Generic"}, names)
}

package domain

import (
	"go/ast"
	"go/parser"
	"go/token"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "gooze.dev/pkg/gomutants/internal/model"
)

func TestParseSkipDirective(t *testing.T) {
	t.Run("bare directive skips everything", func(t *testing.T) {
		r, ok := parseSkipDirective("//mutants:skip")
		require.True(t, ok)
		assert.True(t, r.all)
		assert.Nil(t, r.families)
	})

	t.Run("families are parsed case-insensitively", func(t *testing.T) {
		r, ok := parseSkipDirective("//mutants:skip Arithmetic, comparison ")
		require.True(t, ok)
		assert.False(t, r.all)
		assert.True(t, r.skips(m.FamilyArithmetic))
		assert.True(t, r.skips(m.FamilyComparison))
		assert.False(t, r.skips(m.FamilyReturn))
	})

	t.Run("block comment", func(t *testing.T) {
		r, ok := parseSkipDirective("/* mutants:skip numeric */")
		require.True(t, ok)
		assert.True(t, r.skips(m.FamilyNumeric))
	})

	t.Run("unknown families only fall back to all", func(t *testing.T) {
		r, ok := parseSkipDirective("//mutants:skip nonsense")
		require.True(t, ok)
		assert.True(t, r.all)
	})

	t.Run("other comments are not directives", func(t *testing.T) {
		_, ok := parseSkipDirective("// mutants:skipped later")
		assert.False(t, ok)

		_, ok = parseSkipDirective("// regular comment")
		assert.False(t, ok)
	})
}

func TestBuildSkipIndex_FileFuncLineScopes(t *testing.T) {
	const src = "//mutants:skip arithmetic\n" +
		"package p\n\n" +
		"//mutants:skip\n" +
		"func skipped() {\n" +
		"\t_ = 1 + 2\n" +
		"}\n\n" +
		"func f() {\n" +
		"\t//mutants:skip numeric\n" +
		"\t_ = 1 + 2\n" +
		"\t_ = 1 + 2 //mutants:skip comparison\n" +
		"}\n"

	content := []byte(src)
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "test.go", content, parser.ParseComments)
	require.NoError(t, err)

	idx := buildSkipIndex(file, fset, content)

	assert.True(t, idx.file.skips(m.FamilyArithmetic))
	assert.False(t, idx.file.skips(m.FamilyNumeric))

	skipped := file.Decls[0].(*ast.FuncDecl)
	f := file.Decls[1].(*ast.FuncDecl)

	assert.True(t, idx.skips(skipped, 6, m.FamilyReturn))
	assert.False(t, idx.skips(f, 9, m.FamilyReturn))
	assert.True(t, idx.skips(f, 11, m.FamilyNumeric), "leading comment applies to the next line")
	assert.False(t, idx.skips(f, 10, m.FamilyComparison))
	assert.True(t, idx.skips(f, 12, m.FamilyComparison), "trailing comment applies to its own line")
}

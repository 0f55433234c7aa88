package adapter

import (
	"context"
	"go/ast"
	"go/parser"
	"go/token"
)

// GoFileAdapter encapsulates Go-specific parsing so the domain layer can focus
// on mutation rules while delegating syntax details to an infrastructure
// component.
type GoFileAdapter interface {
	// Parse builds an AST, with comments, using the provided file set and source bytes.
	Parse(ctx context.Context, fileSet *token.FileSet, filename string, src []byte) (*ast.File, error)

	// IsGenerated reports whether the file carries a "Code generated ... DO NOT EDIT." header.
	IsGenerated(file *ast.File) bool
}

// LocalGoFileAdapter provides a concrete GoFileAdapter backed by go/parser.
type LocalGoFileAdapter struct{}

// NewLocalGoFileAdapter constructs a LocalGoFileAdapter.
func NewLocalGoFileAdapter() *LocalGoFileAdapter {
	return &LocalGoFileAdapter{}
}

// Parse builds an AST for the provided filename/source pair.
func (a *LocalGoFileAdapter) Parse(ctx context.Context, fileSet *token.FileSet, filename string, src []byte) (*ast.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return parser.ParseFile(fileSet, filename, src, parser.ParseComments|parser.SkipObjectResolution)
}

// IsGenerated reports whether the file is generated code.
func (a *LocalGoFileAdapter) IsGenerated(file *ast.File) bool {
	return ast.IsGenerated(file)
}

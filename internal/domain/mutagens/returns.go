package mutagens

import (
	"go/ast"
	"strings"

	m "gooze.dev/pkg/gomutants/internal/model"
)

// PlaceholderString is the replacement used for string results and literals.
const PlaceholderString = "xyzzy"

// ReturnPlan is the function level treatment chosen from a signature.
type ReturnPlan struct {
	Sites []Site
	// Exclusive is set when the signature alone defines the mutants, so the
	// body must not be mutated further.
	Exclusive  bool
	ReturnType string
}

// ProcessReturnMutations proposes the mutants that short-circuit fn with a
// type-appropriate return. The site is the zero-width point just inside the
// opening brace, so the original body stays in place and keeps every import
// and local referenced.
func ProcessReturnMutations(fn *ast.FuncDecl, src Source) ReturnPlan {
	if fn.Body == nil {
		return ReturnPlan{}
	}

	lbrace, ok := offsetForPos(src.Fset, fn.Body.Lbrace)
	if !ok {
		return ReturnPlan{}
	}

	at := lbrace + 1
	results := resultTypes(fn.Type)
	plan := ReturnPlan{ReturnType: renderResults(fn.Type, src)}
	name := src.Function

	site := func(genre m.Genre, values string) Site {
		desc := "replace " + name + " -> " + plan.ReturnType + " with " + values
		if plan.ReturnType == "" {
			desc = "replace " + name + " with return"
		}

		stmt := "return"
		if values != "" {
			stmt += " " + values
		}

		return Site{
			Genre:       genre,
			Start:       at,
			End:         at,
			Replacement: "\n\t" + stmt + ";",
			Description: desc,
		}
	}

	switch {
	case len(results) == 0:
		plan.Sites = []Site{site(m.GenreReturnEarly, "")}
	case len(results) == 1 && isIdent(results[0], "bool"):
		plan.Exclusive = true
		plan.Sites = []Site{
			site(m.GenreReturnTrue, "true"),
			site(m.GenreReturnFalse, "false"),
		}
	case len(results) == 1 && isIdent(results[0], "string"):
		plan.Exclusive = true
		plan.Sites = []Site{
			site(m.GenreReturnEmptyString, `""`),
			site(m.GenreReturnPlaceholderString, `"`+PlaceholderString+`"`),
		}
	case isIdent(results[len(results)-1], "error"):
		values := make([]string, 0, len(results))
		for _, r := range results[:len(results)-1] {
			values = append(values, zeroValue(r, src))
		}

		values = append(values, "nil")
		plan.Sites = []Site{site(m.GenreReturnDefaultSuccess, strings.Join(values, ", "))}
	default:
		values := make([]string, 0, len(results))
		for _, r := range results {
			values = append(values, zeroValue(r, src))
		}

		plan.Sites = []Site{site(m.GenreReturnZero, strings.Join(values, ", "))}
	}

	return plan
}

// FunctionName renders the display name of a declaration, e.g. Parse,
// Config.Validate or (*Server).Close.
func FunctionName(fn *ast.FuncDecl) string {
	if fn.Recv == nil || len(fn.Recv.List) == 0 {
		return fn.Name.Name
	}

	recv := fn.Recv.List[0].Type
	pointer := false

	if star, ok := recv.(*ast.StarExpr); ok {
		pointer = true
		recv = star.X
	}

	typeName := receiverTypeName(recv)
	if pointer {
		return "(*" + typeName + ")." + fn.Name.Name
	}

	return typeName + "." + fn.Name.Name
}

func receiverTypeName(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.IndexExpr:
		return receiverTypeName(t.X)
	case *ast.IndexListExpr:
		return receiverTypeName(t.X)
	case *ast.ParenExpr:
		return receiverTypeName(t.X)
	}

	return "?"
}

// resultTypes expands the result list so that (a, b int) yields two entries.
func resultTypes(ft *ast.FuncType) []ast.Expr {
	if ft.Results == nil {
		return nil
	}

	var out []ast.Expr

	for _, field := range ft.Results.List {
		n := len(field.Names)
		if n == 0 {
			n = 1
		}

		for range n {
			out = append(out, field.Type)
		}
	}

	return out
}

func renderResults(ft *ast.FuncType, src Source) string {
	if ft.Results == nil || len(ft.Results.List) == 0 {
		return ""
	}

	if ft.Results.Opening.IsValid() {
		return src.text(ft.Results.Opening, ft.Results.Closing+1)
	}

	typ := ft.Results.List[0].Type

	return src.text(typ.Pos(), typ.End())
}

func isIdent(expr ast.Expr, name string) bool {
	id, ok := expr.(*ast.Ident)
	return ok && id.Name == name
}

var numericTypes = map[string]struct{}{
	"int": {}, "int8": {}, "int16": {}, "int32": {}, "int64": {},
	"uint": {}, "uint8": {}, "uint16": {}, "uint32": {}, "uint64": {}, "uintptr": {},
	"float32": {}, "float64": {}, "complex64": {}, "complex128": {},
	"byte": {}, "rune": {},
}

// zeroValue renders an expression that evaluates to the zero value of the
// type expr. *new(T) is valid for every type and covers named and generic
// types whose underlying kind is unknown without type checking.
func zeroValue(expr ast.Expr, src Source) string {
	switch t := expr.(type) {
	case *ast.Ident:
		if _, ok := numericTypes[t.Name]; ok {
			return "0"
		}

		switch t.Name {
		case "bool":
			return "false"
		case "string":
			return `""`
		case "error", "any":
			return "nil"
		}
	case *ast.ParenExpr:
		return zeroValue(t.X, src)
	case *ast.StarExpr, *ast.MapType, *ast.ChanType, *ast.FuncType, *ast.InterfaceType:
		return "nil"
	case *ast.ArrayType:
		if t.Len == nil {
			return "nil"
		}

		return src.text(t.Pos(), t.End()) + "{}"
	case *ast.StructType:
		return src.text(t.Pos(), t.End()) + "{}"
	}

	return "*new(" + src.text(expr.Pos(), expr.End()) + ")"
}

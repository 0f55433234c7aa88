package mutagens

import (
	"go/ast"
	"go/token"

	m "gooze.dev/pkg/gomutants/internal/model"
)

var arithmeticSwaps = map[token.Token]token.Token{
	token.ADD: token.SUB,
	token.SUB: token.ADD,
	token.MUL: token.QUO,
	token.QUO: token.MUL,
	token.REM: token.MUL,

	token.ADD_ASSIGN: token.SUB_ASSIGN,
	token.SUB_ASSIGN: token.ADD_ASSIGN,
	token.MUL_ASSIGN: token.QUO_ASSIGN,
	token.QUO_ASSIGN: token.MUL_ASSIGN,
}

// ProcessArithmeticMutations swaps arithmetic operators in binary
// expressions and compound assignments. Additions with a string literal
// operand are concatenations and are left alone.
func ProcessArithmeticMutations(n ast.Node, src Source) []Site {
	var (
		op    token.Token
		pos   token.Pos
		exprs []ast.Expr
	)

	switch node := n.(type) {
	case *ast.BinaryExpr:
		op, pos, exprs = node.Op, node.OpPos, []ast.Expr{node.X, node.Y}
	case *ast.AssignStmt:
		op, pos, exprs = node.Tok, node.TokPos, node.Rhs
	default:
		return nil
	}

	to, ok := arithmeticSwaps[op]
	if !ok {
		return nil
	}

	if (op == token.ADD || op == token.ADD_ASSIGN) && anyStringLiteral(exprs) {
		return nil
	}

	site, ok := tokenSite(src, m.GenreArithmeticOperatorSwap, pos, op, to)
	if !ok {
		return nil
	}

	return []Site{site}
}

func anyStringLiteral(exprs []ast.Expr) bool {
	for _, expr := range exprs {
		if lit, ok := ast.Unparen(expr).(*ast.BasicLit); ok && lit.Kind == token.STRING {
			return true
		}
	}

	return false
}

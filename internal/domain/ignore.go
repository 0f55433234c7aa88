package domain

import (
	"go/ast"
	"go/token"
	"strings"
	"unicode"

	m "gooze.dev/pkg/gomutants/internal/model"
)

// skipDirective marks code that must not be mutated. It may be followed by
// a comma separated list of families.
const skipDirective = "mutants:skip"

type skipRule struct {
	all      bool
	families map[m.Family]struct{}
}

func (r skipRule) skips(family m.Family) bool {
	if r.all {
		return true
	}

	_, ok := r.families[family]

	return ok
}

func (r skipRule) empty() bool {
	return !r.all && len(r.families) == 0
}

func mergeSkipRule(dst *skipRule, src skipRule) {
	if src.all {
		dst.all = true
		dst.families = nil

		return
	}

	if dst.all || len(src.families) == 0 {
		return
	}

	if dst.families == nil {
		dst.families = make(map[m.Family]struct{}, len(src.families))
	}

	for family := range src.families {
		dst.families[family] = struct{}{}
	}
}

func parseSkipDirective(commentText string) (skipRule, bool) {
	s := strings.TrimSpace(commentText)
	if strings.HasPrefix(s, "//") {
		s = strings.TrimSpace(strings.TrimPrefix(s, "//"))
	} else if strings.HasPrefix(s, "/*") {
		s = strings.TrimSpace(strings.TrimPrefix(s, "/*"))
		s = strings.TrimSpace(strings.TrimSuffix(s, "*/"))
	}

	if !strings.HasPrefix(s, skipDirective) {
		return skipRule{}, false
	}

	rest := strings.TrimPrefix(s, skipDirective)
	if rest != "" && !unicode.IsSpace(rune(rest[0])) {
		return skipRule{}, false
	}

	rest = strings.TrimSpace(rest)
	if rest == "" {
		return skipRule{all: true}, true
	}

	rule := skipRule{families: make(map[m.Family]struct{})}

	for _, part := range strings.Split(rest, ",") {
		family, err := m.ParseFamily(part)
		if err != nil {
			continue
		}

		rule.families[family] = struct{}{}
	}

	if len(rule.families) == 0 {
		rule.all = true
		rule.families = nil
	}

	return rule, true
}

// skipIndex holds the annotations of one file.
type skipIndex struct {
	file      skipRule
	funcByPos map[token.Pos]skipRule
	line      map[int]skipRule
}

func (idx skipIndex) skips(fn *ast.FuncDecl, line int, family m.Family) bool {
	if idx.file.skips(family) {
		return true
	}

	if fn != nil && idx.funcByPos[fn.Pos()].skips(family) {
		return true
	}

	return idx.line[line].skips(family)
}

func buildSkipIndex(file *ast.File, fset *token.FileSet, content []byte) skipIndex {
	funcByPos, funcDocGroups := buildFuncSkipRules(file)
	fileRule := buildFileSkipRule(file)
	lineRules := buildLineSkipRules(file, fset, content, funcDocGroups)

	return skipIndex{file: fileRule, funcByPos: funcByPos, line: lineRules}
}

func buildFuncSkipRules(file *ast.File) (map[token.Pos]skipRule, map[*ast.CommentGroup]struct{}) {
	funcByPos := make(map[token.Pos]skipRule)
	funcDocGroups := map[*ast.CommentGroup]struct{}{}

	for _, decl := range file.Decls {
		fd, ok := decl.(*ast.FuncDecl)
		if !ok || fd.Doc == nil {
			continue
		}

		funcDocGroups[fd.Doc] = struct{}{}

		var rule skipRule

		for _, c := range fd.Doc.List {
			r, ok := parseSkipDirective(c.Text)
			if !ok {
				continue
			}

			mergeSkipRule(&rule, r)
		}

		if !rule.empty() {
			funcByPos[fd.Pos()] = rule
		}
	}

	return funcByPos, funcDocGroups
}

func buildFileSkipRule(file *ast.File) skipRule {
	var rule skipRule

	for _, group := range file.Comments {
		if group.End() >= file.Package {
			continue
		}

		for _, c := range group.List {
			r, ok := parseSkipDirective(c.Text)
			if !ok {
				continue
			}

			mergeSkipRule(&rule, r)
		}
	}

	return rule
}

func buildLineSkipRules(
	file *ast.File,
	fset *token.FileSet,
	content []byte,
	funcDocGroups map[*ast.CommentGroup]struct{},
) map[int]skipRule {
	lineRules := make(map[int]skipRule)
	lineStarts := computeLineStarts(content)

	for _, group := range file.Comments {
		if group.End() < file.Package {
			continue
		}

		if _, ok := funcDocGroups[group]; ok {
			continue
		}

		for _, c := range group.List {
			r, ok := parseSkipDirective(c.Text)
			if !ok {
				continue
			}

			pos := fset.PositionFor(c.Slash, true)
			if pos.Line <= 0 {
				continue
			}

			// A comment alone on its line applies to the next one.
			targetLine := pos.Line
			if isLeadingComment(pos.Line, pos.Offset, lineStarts, content) {
				targetLine = pos.Line + 1
			}

			current := lineRules[targetLine]
			mergeSkipRule(&current, r)
			lineRules[targetLine] = current
		}
	}

	return lineRules
}

func computeLineStarts(content []byte) []int {
	starts := []int{0}

	for i, b := range content {
		if b == '\n' {
			starts = append(starts, i+1)
		}
	}

	return starts
}

func isLeadingComment(line int, slashOffset int, lineStarts []int, content []byte) bool {
	if line <= 0 || line > len(lineStarts) {
		return false
	}

	start := lineStarts[line-1]
	if slashOffset < start || slashOffset > len(content) {
		return false
	}

	for _, b := range content[start:slashOffset] {
		if !unicode.IsSpace(rune(b)) {
			return false
		}
	}

	return true
}

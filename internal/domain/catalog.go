package domain

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"go/ast"
	"go/token"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"runtime"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"

	"gooze.dev/pkg/gomutants/internal/adapter"
	"gooze.dev/pkg/gomutants/internal/domain/mutagens"
	m "gooze.dev/pkg/gomutants/internal/model"
)

// Filters narrows the catalog. Path rules apply to the slash-separated path
// relative to the module root, name rules to Candidate.Name.
type Filters struct {
	ExcludePaths []*regexp.Regexp
	ExamineGlobs []string
	ExcludeGlobs []string
	ExamineNames []*regexp.Regexp
	ExcludeNames []*regexp.Regexp
	// Enable restricts the catalog to these families when non-empty.
	Enable  []m.Family
	Disable []m.Family
}

// CatalogArgs describes what to catalog.
type CatalogArgs struct {
	// Paths are file or directory paths, a trailing /... walks recursively.
	// Empty means ./...
	Paths []m.Path
	// SkipDirs are absolute directories never walked, such as the output
	// directory.
	SkipDirs []m.Path
	Filters  Filters
}

// Catalog is the ordered set of candidates for one source tree.
type Catalog struct {
	Root       m.Path
	Files      []m.SourceFile
	Candidates []m.Candidate
	FileErrors []m.FileError
}

// File returns the cataloged file with the given relative path.
func (c Catalog) File(rel m.Path) (m.SourceFile, bool) {
	for _, f := range c.Files {
		if f.RelPath == rel {
			return f, true
		}
	}

	return m.SourceFile{}, false
}

// Listing renders the catalog for display, with diffs when requested.
func (c Catalog) Listing(withDiffs bool) (m.Listing, error) {
	listing := m.Listing{
		Candidates: c.Candidates,
		FileErrors: c.FileErrors,
		Counts:     make(map[m.Family]int),
	}

	for _, f := range c.Files {
		listing.Files = append(listing.Files, f.RelPath)
	}

	for _, cand := range c.Candidates {
		listing.Counts[cand.Family]++
	}

	if !withDiffs {
		return listing, nil
	}

	listing.Diffs = make(map[int]string, len(c.Candidates))

	for _, cand := range c.Candidates {
		file, ok := c.File(cand.File)
		if !ok {
			return m.Listing{}, fmt.Errorf("candidate %d refers to unknown file %s", cand.Index, cand.File)
		}

		diff, err := cand.Diff(file.Content)
		if err != nil {
			return m.Listing{}, fmt.Errorf("failed to render diff for %s: %w", cand.Location(), err)
		}

		listing.Diffs[cand.Index] = diff
	}

	return listing, nil
}

// CatalogBuilder discovers source files and proposes mutants for them.
type CatalogBuilder interface {
	Build(ctx context.Context, args CatalogArgs) (Catalog, error)
}

type catalogBuilder struct {
	adapter.SourceFSAdapter
	adapter.GoFileAdapter
	threads int
}

// NewCatalogBuilder creates a CatalogBuilder parsing up to threads files at
// once. Zero means one per CPU.
func NewCatalogBuilder(fsAdapter adapter.SourceFSAdapter, goFileAdapter adapter.GoFileAdapter, threads int) CatalogBuilder {
	if threads <= 0 {
		threads = runtime.NumCPU()
	}

	return &catalogBuilder{
		SourceFSAdapter: fsAdapter,
		GoFileAdapter:   goFileAdapter,
		threads:         threads,
	}
}

type fileCatalog struct {
	file       m.SourceFile
	candidates []m.Candidate
	err        *m.FileError
}

func (b *catalogBuilder) Build(ctx context.Context, args CatalogArgs) (Catalog, error) {
	paths := args.Paths
	if len(paths) == 0 {
		paths = []m.Path{"./..."}
	}

	root, err := b.FindProjectRoot(ctx, rootSearchDir(paths[0]))
	if err != nil {
		slog.Error("Failed to find module root", "path", paths[0], "error", err)
		return Catalog{}, fmt.Errorf("failed to find module root: %w", err)
	}

	files, err := b.discover(ctx, root, paths, args)
	if err != nil {
		return Catalog{}, err
	}

	slog.Debug("Discovered source files", "root", root, "count", len(files))

	results := make([]fileCatalog, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.threads)

	for i, file := range files {
		g.Go(func() error {
			res, err := b.catalogFile(gctx, root, file, args.Filters)
			if err != nil {
				return err
			}

			results[i] = res

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return Catalog{}, err
	}

	catalog := Catalog{Root: root}

	for _, res := range results {
		if res.err != nil {
			catalog.FileErrors = append(catalog.FileErrors, *res.err)
			continue
		}

		catalog.Files = append(catalog.Files, res.file)

		for _, cand := range res.candidates {
			cand.Index = len(catalog.Candidates)
			catalog.Candidates = append(catalog.Candidates, cand)
		}
	}

	if len(files) > 0 && len(catalog.Files) == 0 {
		return catalog, ErrNoParsableFiles
	}

	slog.Info("Built catalog", "files", len(catalog.Files), "candidates", len(catalog.Candidates),
		"file_errors", len(catalog.FileErrors))

	return catalog, nil
}

func rootSearchDir(p m.Path) m.Path {
	dir, _ := splitRecursive(p)
	if strings.HasSuffix(string(dir), ".go") {
		return m.Path(filepath.Dir(string(dir)))
	}

	return dir
}

func splitRecursive(p m.Path) (m.Path, bool) {
	s := filepath.ToSlash(string(p))
	if s == "..." {
		return ".", true
	}

	if strings.HasSuffix(s, "/...") {
		trimmed := strings.TrimSuffix(s, "/...")
		if trimmed == "" {
			trimmed = "/"
		}

		return m.Path(filepath.FromSlash(trimmed)), true
	}

	return p, false
}

// discover returns the absolute paths of the files to catalog, sorted by
// relative path.
func (b *catalogBuilder) discover(ctx context.Context, root m.Path, paths []m.Path, args CatalogArgs) ([]m.Path, error) {
	seen := make(map[m.Path]struct{})
	var found []m.Path

	add := func(abs m.Path) error {
		rel, err := b.relSlash(ctx, root, abs)
		if err != nil {
			return err
		}

		if !isCatalogFile(rel) || !args.Filters.allowsFile(rel) {
			return nil
		}

		if _, ok := seen[abs]; ok {
			return nil
		}

		seen[abs] = struct{}{}
		found = append(found, abs)

		return nil
	}

	skipDirs := make(map[string]struct{}, len(args.SkipDirs))
	for _, d := range args.SkipDirs {
		if abs, err := filepath.Abs(string(d)); err == nil {
			skipDirs[abs] = struct{}{}
		}
	}

	for _, p := range paths {
		dir, recursive := splitRecursive(p)

		abs, err := filepath.Abs(string(dir))
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", p, err)
		}

		if !withinRoot(root, abs) {
			return nil, fmt.Errorf("path %s is outside module root %s", p, root)
		}

		info, err := b.FileInfo(ctx, m.Path(abs))
		if err != nil {
			slog.Error("Failed to stat path", "path", abs, "error", err)
			return nil, fmt.Errorf("failed to stat %s: %w", p, err)
		}

		if !info.IsDir() {
			if err := add(m.Path(abs)); err != nil {
				return nil, err
			}

			continue
		}

		err = b.Walk(ctx, m.Path(abs), recursive, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}

			if info.IsDir() {
				if path != abs && b.skipDir(ctx, path, skipDirs) {
					return filepath.SkipDir
				}

				return nil
			}

			return add(m.Path(path))
		})
		if err != nil {
			slog.Error("Failed to walk path", "path", abs, "error", err)
			return nil, fmt.Errorf("failed to walk %s: %w", p, err)
		}
	}

	slices.SortFunc(found, func(a, b m.Path) int {
		return strings.Compare(filepath.ToSlash(string(a)), filepath.ToSlash(string(b)))
	})

	return found, nil
}

func (b *catalogBuilder) skipDir(ctx context.Context, dir string, skipDirs map[string]struct{}) bool {
	name := filepath.Base(dir)
	if name == "testdata" || name == "vendor" || strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") {
		return true
	}

	if _, ok := skipDirs[dir]; ok {
		return true
	}

	// Nested modules are cataloged from their own root.
	if _, err := b.FileInfo(ctx, b.JoinPath(ctx, dir, "go.mod")); err == nil {
		return true
	}

	return false
}

func withinRoot(root m.Path, abs string) bool {
	rel, err := filepath.Rel(string(root), abs)
	if err != nil {
		return false
	}

	return rel == "." || (!strings.HasPrefix(rel, "..") && !filepath.IsAbs(rel))
}

func (b *catalogBuilder) relSlash(ctx context.Context, root, abs m.Path) (m.Path, error) {
	rel, err := b.RelPath(ctx, root, abs)
	if err != nil {
		return "", fmt.Errorf("failed to relativize %s: %w", abs, err)
	}

	return m.Path(filepath.ToSlash(string(rel))), nil
}

func isCatalogFile(rel m.Path) bool {
	s := string(rel)

	return strings.HasSuffix(s, ".go") && !strings.HasSuffix(s, "_test.go")
}

func (f Filters) allowsFile(rel m.Path) bool {
	s := string(rel)

	for _, re := range f.ExcludePaths {
		if re.MatchString(s) {
			return false
		}
	}

	for _, g := range f.ExcludeGlobs {
		if globMatch(g, s) {
			return false
		}
	}

	if len(f.ExamineGlobs) == 0 {
		return true
	}

	for _, g := range f.ExamineGlobs {
		if globMatch(g, s) {
			return true
		}
	}

	return false
}

// globMatch matches a slash path. A pattern without a slash matches at any
// depth and a directory pattern matches everything beneath it.
func globMatch(pattern, rel string) bool {
	pattern = strings.TrimPrefix(filepath.ToSlash(pattern), "./")

	candidates := []string{pattern, strings.TrimSuffix(pattern, "/") + "/**"}
	if !strings.Contains(pattern, "/") {
		candidates = append(candidates, "**/"+pattern, "**/"+pattern+"/**")
	}

	for _, p := range candidates {
		if ok, err := doublestar.Match(p, rel); err == nil && ok {
			return true
		}
	}

	return false
}

func (f Filters) allowsFamily(family m.Family) bool {
	if len(f.Enable) > 0 && !slices.Contains(f.Enable, family) {
		return false
	}

	return !slices.Contains(f.Disable, family)
}

func (f Filters) allowsName(name string) bool {
	for _, re := range f.ExcludeNames {
		if re.MatchString(name) {
			return false
		}
	}

	if len(f.ExamineNames) == 0 {
		return true
	}

	for _, re := range f.ExamineNames {
		if re.MatchString(name) {
			return true
		}
	}

	return false
}

func (b *catalogBuilder) catalogFile(ctx context.Context, root, abs m.Path, filters Filters) (fileCatalog, error) {
	rel, err := b.relSlash(ctx, root, abs)
	if err != nil {
		return fileCatalog{}, err
	}

	content, err := b.ReadFile(ctx, abs)
	if err != nil {
		if ctx.Err() != nil {
			return fileCatalog{}, ctx.Err()
		}

		slog.Warn("Failed to read source file", "file", rel, "error", err)

		return fileCatalog{err: &m.FileError{File: rel, Message: err.Error()}}, nil
	}

	fset := token.NewFileSet()

	file, err := b.Parse(ctx, fset, string(rel), content)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return fileCatalog{}, err
		}

		slog.Warn("Failed to parse source file", "file", rel, "error", err)

		return fileCatalog{err: &m.FileError{File: rel, Message: err.Error()}}, nil
	}

	res := fileCatalog{file: m.SourceFile{
		Path:    abs,
		RelPath: rel,
		Package: file.Name.Name,
		Hash:    hashContent(content),
		Content: content,
	}}

	if b.IsGenerated(file) {
		slog.Debug("Skipping generated file", "file", rel)
		return res, nil
	}

	skips := buildSkipIndex(file, fset, content)
	if skips.file.all {
		slog.Debug("Skipping annotated file", "file", rel)
		return res, nil
	}

	tokFile := fset.File(file.Pos())
	fc := fileCandidates{file: rel, pkg: file.Name.Name, tokFile: tokFile, skips: skips, filters: filters}

	for _, decl := range file.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok || fn.Body == nil || len(fn.Body.List) == 0 || isTestOnly(fn) {
			continue
		}

		if skips.funcByPos[fn.Pos()].all {
			continue
		}

		src := mutagens.Source{Fset: fset, File: file, Content: content, Function: mutagens.FunctionName(fn)}
		plan := mutagens.ProcessReturnMutations(fn, src)
		fc.add(fn, src, plan.ReturnType, plan.Sites)

		if plan.Exclusive {
			continue
		}

		fc.add(fn, src, plan.ReturnType, exprSites(fn, src))
	}

	res.candidates = fc.ordered()

	return res, nil
}

func exprSites(fn *ast.FuncDecl, src mutagens.Source) []mutagens.Site {
	var sites []mutagens.Site

	tags := make(map[ast.Node]struct{})
	mutators := mutagens.ExprMutagens()

	ast.Inspect(fn.Body, func(n ast.Node) bool {
		switch node := n.(type) {
		case nil:
			return false
		case *ast.Field:
			if node.Tag != nil {
				tags[node.Tag] = struct{}{}
			}
		case *ast.BasicLit:
			if _, ok := tags[node]; ok {
				return false
			}
		}

		for _, mutate := range mutators {
			sites = append(sites, mutate(n, src)...)
		}

		return true
	})

	return sites
}

type fileCandidates struct {
	file    m.Path
	pkg     string
	tokFile *token.File
	skips   skipIndex
	filters Filters
	out     []m.Candidate
}

func (fc *fileCandidates) add(fn *ast.FuncDecl, src mutagens.Source, returnType string, sites []mutagens.Site) {
	for _, site := range sites {
		family := site.Genre.Family()
		if !fc.filters.allowsFamily(family) {
			continue
		}

		span := fc.span(site.Start, site.End)
		if fc.skips.skips(fn, span.StartLine, family) {
			continue
		}

		cand := m.Candidate{
			File:        fc.file,
			Package:     fc.pkg,
			Function:    src.Function,
			ReturnType:  returnType,
			Span:        span,
			Genre:       site.Genre,
			Family:      family,
			Original:    site.Original,
			Replacement: site.Replacement,
			Description: site.Description,
		}

		if !fc.filters.allowsName(cand.Name()) {
			continue
		}

		cand.ID = cand.StableID()
		fc.out = append(fc.out, cand)
	}
}

func (fc *fileCandidates) span(start, end int) m.Span {
	from := fc.tokFile.PositionFor(fc.tokFile.Pos(start), false)
	to := fc.tokFile.PositionFor(fc.tokFile.Pos(end), false)

	return m.Span{
		Start:       start,
		End:         end,
		StartLine:   from.Line,
		StartColumn: from.Column,
		EndLine:     to.Line,
		EndColumn:   to.Column,
	}
}

// ordered sorts by span then genre and drops duplicate identities.
func (fc *fileCandidates) ordered() []m.Candidate {
	slices.SortStableFunc(fc.out, func(a, b m.Candidate) int {
		switch {
		case a.Span.Start != b.Span.Start:
			return a.Span.Start - b.Span.Start
		case a.Span.End != b.Span.End:
			return a.Span.End - b.Span.End
		}

		return int(a.Genre) - int(b.Genre)
	})

	seen := make(map[m.Key]struct{}, len(fc.out))
	out := fc.out[:0]

	for _, c := range fc.out {
		if _, ok := seen[c.Key()]; ok {
			continue
		}

		seen[c.Key()] = struct{}{}
		out = append(out, c)
	}

	return out
}

// isTestOnly reports whether fn is a test, benchmark, fuzz target or
// example recognized by go test.
func isTestOnly(fn *ast.FuncDecl) bool {
	if fn.Recv != nil {
		return false
	}

	name := fn.Name.Name

	for prefix, param := range map[string]string{"Test": "T", "Benchmark": "B", "Fuzz": "F", "Example": ""} {
		if !isTestName(name, prefix) {
			continue
		}

		params := fn.Type.Params.List
		if param == "" {
			return len(params) == 0
		}

		if name == "TestMain" {
			param = "M"
		}

		return len(params) == 1 && len(params[0].Names) <= 1 && isTestingPointer(params[0].Type, param)
	}

	return false
}

func isTestName(name, prefix string) bool {
	if !strings.HasPrefix(name, prefix) {
		return false
	}

	if len(name) == len(prefix) {
		return true
	}

	r, _ := utf8.DecodeRuneInString(name[len(prefix):])

	return !unicode.IsLower(r)
}

func isTestingPointer(expr ast.Expr, typeName string) bool {
	star, ok := expr.(*ast.StarExpr)
	if !ok {
		return false
	}

	sel, ok := star.X.(*ast.SelectorExpr)
	if !ok {
		return false
	}

	pkg, ok := sel.X.(*ast.Ident)

	return ok && pkg.Name == "testing" && sel.Sel.Name == typeName
}

func hashContent(content []byte) string {
	return fmt.Sprintf("%x", sha256.Sum256(content))
}

// CompilePatterns compiles regular expressions from configuration.
func CompilePatterns(patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))

	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", p, err)
		}

		out = append(out, re)
	}

	return out, nil
}

// packageDir returns the slash directory of a relative file path.
func packageDir(rel m.Path) string {
	dir := path.Dir(string(rel))
	if dir == "." {
		return "."
	}

	return "./" + dir
}

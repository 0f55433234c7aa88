// Package model defines the data structures for mutation testing.
package model

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// ErrSpanMismatch is returned when a candidate no longer matches the file it targets.
var ErrSpanMismatch = errors.New("span does not match candidate")

// Family groups genres for selection toggles and skip annotations.
type Family string

// Available families.
const (
	FamilyReturn     Family = "return"
	FamilyBoolean    Family = "boolean"
	FamilyNumeric    Family = "numeric"
	FamilyString     Family = "string"
	FamilyComparison Family = "comparison"
	FamilyLogical    Family = "logical"
	FamilyArithmetic Family = "arithmetic"
	FamilyNegation   Family = "negation"
)

// Families lists every family in declaration order.
func Families() []Family {
	return []Family{
		FamilyReturn,
		FamilyBoolean,
		FamilyNumeric,
		FamilyString,
		FamilyComparison,
		FamilyLogical,
		FamilyArithmetic,
		FamilyNegation,
	}
}

// ParseFamily resolves a family name, case-insensitively.
func ParseFamily(name string) (Family, error) {
	n := Family(strings.ToLower(strings.TrimSpace(name)))
	for _, f := range Families() {
		if f == n {
			return f, nil
		}
	}

	return "", fmt.Errorf("unknown mutation family %q", name)
}

// Genre is the closed set of mutation kinds. The ordinal value is the
// tiebreaker when two candidates share a span.
type Genre int

// Function level genres replace the whole body with a return.
const (
	GenreReturnTrue Genre = iota
	GenreReturnFalse
	GenreReturnEmptyString
	GenreReturnPlaceholderString
	GenreReturnDefaultSuccess
	GenreReturnZero
	GenreReturnEarly
)

// Expression level genres.
const (
	GenreBooleanLiteralSwap Genre = iota + GenreReturnEarly + 1
	GenreNumericLiteralIncrement
	GenreNumericLiteralDecrement
	GenreStringLiteralEmpty
	GenreStringLiteralPlaceholder
	GenreComparisonOperatorSwap
	GenreLogicalOperatorSwap
	GenreArithmeticOperatorSwap
	GenreNegationRemoval
)

var genreNames = map[Genre]string{
	GenreReturnTrue:               "return-true",
	GenreReturnFalse:              "return-false",
	GenreReturnEmptyString:        "return-empty-string",
	GenreReturnPlaceholderString:  "return-placeholder-string",
	GenreReturnDefaultSuccess:     "return-default-success",
	GenreReturnZero:               "return-zero",
	GenreReturnEarly:              "return-early",
	GenreBooleanLiteralSwap:       "boolean-literal-swap",
	GenreNumericLiteralIncrement:  "numeric-literal-increment",
	GenreNumericLiteralDecrement:  "numeric-literal-decrement",
	GenreStringLiteralEmpty:       "string-literal-empty",
	GenreStringLiteralPlaceholder: "string-literal-placeholder",
	GenreComparisonOperatorSwap:   "comparison-operator-swap",
	GenreLogicalOperatorSwap:      "logical-operator-swap",
	GenreArithmeticOperatorSwap:   "arithmetic-operator-swap",
	GenreNegationRemoval:          "negation-removal",
}

// String returns the stable name of the genre.
func (g Genre) String() string {
	if name, ok := genreNames[g]; ok {
		return name
	}

	return fmt.Sprintf("genre(%d)", int(g))
}

// Family returns the family the genre belongs to.
func (g Genre) Family() Family {
	switch g {
	case GenreReturnTrue, GenreReturnFalse, GenreReturnEmptyString, GenreReturnPlaceholderString,
		GenreReturnDefaultSuccess, GenreReturnZero, GenreReturnEarly:
		return FamilyReturn
	case GenreBooleanLiteralSwap:
		return FamilyBoolean
	case GenreNumericLiteralIncrement, GenreNumericLiteralDecrement:
		return FamilyNumeric
	case GenreStringLiteralEmpty, GenreStringLiteralPlaceholder:
		return FamilyString
	case GenreComparisonOperatorSwap:
		return FamilyComparison
	case GenreLogicalOperatorSwap:
		return FamilyLogical
	case GenreArithmeticOperatorSwap:
		return FamilyArithmetic
	case GenreNegationRemoval:
		return FamilyNegation
	}

	return ""
}

// MarshalText implements encoding.TextMarshaler.
func (g Genre) MarshalText() ([]byte, error) {
	if _, ok := genreNames[g]; !ok {
		return nil, fmt.Errorf("unknown genre %d", int(g))
	}

	return []byte(g.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (g *Genre) UnmarshalText(text []byte) error {
	for genre, name := range genreNames {
		if name == string(text) {
			*g = genre
			return nil
		}
	}

	return fmt.Errorf("unknown genre %q", string(text))
}

// Span is a half-open byte range within a file plus its 1-based positions.
type Span struct {
	Start       int `json:"start" yaml:"start"`
	End         int `json:"end" yaml:"end"`
	StartLine   int `json:"line" yaml:"line"`
	StartColumn int `json:"column" yaml:"column"`
	EndLine     int `json:"end_line" yaml:"end_line"`
	EndColumn   int `json:"end_column" yaml:"end_column"`
}

// Candidate is one proposed mutant.
type Candidate struct {
	Index       int    `json:"index" yaml:"index"`
	ID          string `json:"id" yaml:"id"`
	File        Path   `json:"file" yaml:"file"`
	Package     string `json:"package" yaml:"package"`
	Function    string `json:"function" yaml:"function"`
	ReturnType  string `json:"return_type,omitempty" yaml:"return_type,omitempty"`
	Span        Span   `json:"span" yaml:"span"`
	Genre       Genre  `json:"genre" yaml:"genre"`
	Family      Family `json:"family" yaml:"family"`
	Original    string `json:"original" yaml:"original"`
	Replacement string `json:"replacement" yaml:"replacement"`
	Description string `json:"description" yaml:"description"`
}

// Key identifies a candidate within a catalog.
type Key struct {
	File  Path
	Start int
	End   int
	Genre Genre
}

// Key returns the identity of the candidate.
func (c Candidate) Key() Key {
	return Key{File: c.File, Start: c.Span.Start, End: c.Span.End, Genre: c.Genre}
}

// StableID derives a short identifier from the candidate identity.
func (c Candidate) StableID() string {
	sum := sha256.Sum256(fmt.Appendf(nil, "%s:%d:%d:%s", c.File, c.Span.Start, c.Span.End, c.Genre))
	return hex.EncodeToString(sum[:6])
}

// Location renders file:line:column.
func (c Candidate) Location() string {
	return fmt.Sprintf("%s:%d:%d", c.File, c.Span.StartLine, c.Span.StartColumn)
}

// Name renders the candidate as shown in listings and text reports.
func (c Candidate) Name() string {
	return c.Location() + ": " + c.Description
}

// Mutate returns content with the candidate applied.
func (c Candidate) Mutate(content []byte) ([]byte, error) {
	if c.Span.Start < 0 || c.Span.End > len(content) || c.Span.Start > c.Span.End {
		return nil, fmt.Errorf("%w: span %d-%d out of range for %s (%d bytes)", ErrSpanMismatch, c.Span.Start, c.Span.End, c.File, len(content))
	}

	if got := string(content[c.Span.Start:c.Span.End]); got != c.Original {
		return nil, fmt.Errorf("%w: span %d-%d of %s holds %q, expected %q", ErrSpanMismatch, c.Span.Start, c.Span.End, c.File, got, c.Original)
	}

	out := make([]byte, 0, len(content)-len(c.Original)+len(c.Replacement))
	out = append(out, content[:c.Span.Start]...)
	out = append(out, c.Replacement...)
	out = append(out, content[c.Span.End:]...)

	return out, nil
}

// Diff renders a unified diff between content and the mutated content.
func (c Candidate) Diff(content []byte) (string, error) {
	mutated, err := c.Mutate(content)
	if err != nil {
		return "", err
	}

	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(content)),
		B:        difflib.SplitLines(string(mutated)),
		FromFile: "a/" + string(c.File),
		ToFile:   "b/" + string(c.File),
		Context:  3,
	})
}

// Listing is the catalog as presented by the list command.
type Listing struct {
	Candidates []Candidate    `json:"candidates" yaml:"candidates"`
	Diffs      map[int]string `json:"diffs,omitempty" yaml:"diffs,omitempty"`
	Files      []Path         `json:"files,omitempty" yaml:"files,omitempty"`
	FileErrors []FileError    `json:"file_errors,omitempty" yaml:"file_errors,omitempty"`
	Counts     map[Family]int `json:"counts" yaml:"counts"`
}

package controller

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/olekukonko/tablewriter"

	m "gooze.dev/pkg/gomutants/internal/model"
)

// SimpleUI implements UI with plain line oriented output.
type SimpleUI struct {
	mu   sync.Mutex
	out  io.Writer
	opts Options
}

// NewSimpleUI creates a new SimpleUI.
func NewSimpleUI(out io.Writer, opts Options) *SimpleUI {
	return &SimpleUI{out: out, opts: opts}
}

// Start initializes the UI.
func (s *SimpleUI) Start(ctx context.Context, _ ...StartOption) error {
	return ctx.Err()
}

// Close finalizes the UI.
func (s *SimpleUI) Close(context.Context) {}

// DisplayListing prints the catalog.
func (s *SimpleUI) DisplayListing(ctx context.Context, listing m.Listing, opts ListOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if opts.Files {
		for _, f := range listing.Files {
			s.printf("%s\n", f)
		}

		return nil
	}

	for _, c := range listing.Candidates {
		s.printf("%s\n", c.Name())

		if opts.Diffs {
			s.printf("%s\n", listing.Diffs[c.Index])
		}
	}

	for _, fe := range listing.FileErrors {
		s.printf("warning: %s: %s\n", fe.File, fe.Message)
	}

	s.printf("\n%s", renderListingTable(listing))

	return nil
}

func buildFileStats(candidates []m.Candidate) []fileStat {
	counts := make(map[m.Path]int)
	for _, c := range candidates {
		counts[c.File]++
	}

	stats := make([]fileStat, 0, len(counts))
	for path, n := range counts {
		stats = append(stats, fileStat{path: string(path), count: n})
	}

	sort.Slice(stats, func(i, j int) bool {
		return stats[i].path < stats[j].path
	})

	return stats
}

type fileStat struct {
	path  string
	count int
}

func renderListingTable(listing m.Listing) string {
	var buf bytes.Buffer

	stats := buildFileStats(listing.Candidates)

	table := tablewriter.NewWriter(&buf)
	table.SetHeader([]string{"Path", "Mutants"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_CENTER})

	for _, stat := range stats {
		table.Append([]string{stat.path, fmt.Sprintf("%d", stat.count)})
	}

	table.SetFooter([]string{
		fmt.Sprintf("Total Files %d", len(stats)),
		fmt.Sprintf("%d", len(listing.Candidates)),
	})

	table.Render()

	return buf.String()
}

// DisplayRunInfo prints the run parameters.
func (s *SimpleUI) DisplayRunInfo(ctx context.Context, info RunInfo) {
	if ctx.Err() != nil {
		return
	}

	shard := ""
	if info.ShardCount > 1 {
		shard = fmt.Sprintf(" (shard %d/%d)", info.ShardIndex, info.ShardCount)
	}

	s.printf("Found %d mutants to test with %d worker(s)%s\n", info.Mutants, info.Workers, shard)
}

// DisplayBaseline prints the outcome of the unmutated run.
func (s *SimpleUI) DisplayBaseline(ctx context.Context, outcome m.Outcome) {
	if ctx.Err() != nil {
		return
	}

	s.printf("%s\n", outcomeLine(outcome, s.opts.NoTimes))

	if baselineLabel(outcome) != "ok" && len(outcome.Output) > 0 {
		s.printf("%s\n", outcome.Output)
	}
}

// DisplayStartingMutant is silent: only finished mutants are printed.
func (s *SimpleUI) DisplayStartingMutant(context.Context, m.Candidate, int) {}

// DisplayCompletedMutant prints one line per finished mutant.
func (s *SimpleUI) DisplayCompletedMutant(ctx context.Context, outcome m.Outcome) {
	if ctx.Err() != nil {
		return
	}

	s.printf("%s\n", outcomeLine(outcome, s.opts.NoTimes))
}

// DisplaySummary prints the totals of a report.
func (s *SimpleUI) DisplaySummary(_ context.Context, doc m.ReportDocument) {
	s.printf("\n%s", renderSummaryTable(doc.Summary))

	line := doc.Summary.String()
	if !s.opts.NoTimes {
		line += " in " + (time.Duration(doc.DurationMS) * time.Millisecond).Round(time.Millisecond).String()
	}

	s.printf("%s\n", line)

	if doc.Interrupted {
		s.printf("Run interrupted: the report is partial\n")
	}
}

func renderSummaryTable(summary m.Summary) string {
	var buf bytes.Buffer

	table := tablewriter.NewWriter(&buf)
	table.SetHeader([]string{"Outcome", "Mutants"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT})

	for _, c := range m.Classifications() {
		table.Append([]string{c.Label(), fmt.Sprintf("%d", summary.Count(c))})
	}

	table.SetFooter([]string{"Score", fmt.Sprintf("%.2f%%", summary.Score)})
	table.Render()

	return buf.String()
}

func (s *SimpleUI) printf(format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, _ = fmt.Fprintf(s.out, format, args...)
}

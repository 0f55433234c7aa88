package domain

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"gooze.dev/pkg/gomutants/internal/adapter"
	m "gooze.dev/pkg/gomutants/internal/model"
	pkg "gooze.dev/pkg/gomutants/pkg"
)

// listedClassifications get a <classification>.txt file.
var listedClassifications = []m.Classification{m.Caught, m.Missed, m.Timeout, m.Unviable}

// Reporter writes the artifacts of one run into its output directory.
type Reporter interface {
	// Begin clears the directory and writes the catalog.
	Begin(ctx context.Context, catalog Catalog) error
	// RecordBaseline writes the baseline log.
	RecordBaseline(ctx context.Context, outcome m.Outcome) error
	// Record appends one finished mutant with its diff and log.
	Record(ctx context.Context, outcome m.Outcome) error
	// Finish writes the full report and the per classification lists.
	Finish(ctx context.Context, report m.Report) (m.ReportDocument, error)
}

type reporter struct {
	store        adapter.ReportStore
	dir          m.Path
	retainOutput bool

	mu      sync.Mutex
	files   map[m.Path][]byte
	records pkg.FileSpill[m.OutcomeRecord]
}

// NewReporter creates a Reporter writing into dir. Toolchain output is kept in
// the JSON records only when retainOutput is set; log files always get it.
func NewReporter(store adapter.ReportStore, dir m.Path, retainOutput bool) Reporter {
	return &reporter{store: store, dir: dir, retainOutput: retainOutput}
}

func (r *reporter) path(elem ...string) m.Path {
	return m.Path(filepath.Join(append([]string{string(r.dir)}, elem...)...))
}

func (r *reporter) Begin(ctx context.Context, catalog Catalog) error {
	if err := r.store.Reset(ctx, r.dir); err != nil {
		slog.Error("Failed to prepare output directory", "dir", r.dir, "error", err)
		return fmt.Errorf("failed to prepare %s: %w", r.dir, err)
	}

	candidates := catalog.Candidates
	if candidates == nil {
		candidates = []m.Candidate{}
	}

	if err := r.store.WriteJSON(ctx, r.path(adapter.CatalogFileName), candidates); err != nil {
		slog.Error("Failed to write catalog", "error", err)
		return fmt.Errorf("failed to write catalog: %w", err)
	}

	records, err := r.store.CreateOutcomes(ctx, r.path(adapter.OutcomesLogName))
	if err != nil {
		slog.Error("Failed to create outcome log", "error", err)
		return fmt.Errorf("failed to create outcome log: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.records = records
	r.files = make(map[m.Path][]byte, len(catalog.Files))

	for _, f := range catalog.Files {
		r.files[f.RelPath] = f.Content
	}

	return nil
}

func (r *reporter) RecordBaseline(ctx context.Context, outcome m.Outcome) error {
	return r.store.WriteFile(ctx, r.path(adapter.LogDirName, "baseline.log"), outcome.Output)
}

func (r *reporter) Record(ctx context.Context, outcome m.Outcome) error {
	rec := m.NewOutcomeRecord(outcome, r.retainOutput)
	name := strconv.Itoa(outcome.Index)

	r.mu.Lock()
	records := r.records
	content, ok := r.files[fileOf(outcome)]
	r.mu.Unlock()

	if records == nil {
		return errors.New("reporter has not begun")
	}

	if outcome.Candidate != nil && ok && outcome.Classification != m.Skipped {
		diff, err := outcome.Candidate.Diff(content)
		if err != nil {
			slog.Warn("Failed to render diff", "mutant", outcome.Name(), "error", err)
		} else if err := r.store.WriteFile(ctx, r.path(adapter.DiffDirName, name+".diff"), []byte(diff)); err != nil {
			return fmt.Errorf("failed to write diff for %s: %w", outcome.Name(), err)
		}
	}

	if len(outcome.Output) > 0 {
		if err := r.store.WriteFile(ctx, r.path(adapter.LogDirName, name+".log"), outcome.Output); err != nil {
			return fmt.Errorf("failed to write log for %s: %w", outcome.Name(), err)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := records.Append(rec); err != nil {
		slog.Error("Failed to append outcome", "index", outcome.Index, "error", err)
		return fmt.Errorf("failed to append outcome %d: %w", outcome.Index, err)
	}

	return nil
}

func fileOf(o m.Outcome) m.Path {
	if o.Candidate == nil {
		return ""
	}

	return o.Candidate.File
}

func (r *reporter) Finish(ctx context.Context, report m.Report) (m.ReportDocument, error) {
	doc := m.NewReportDocument(report, r.retainOutput)

	r.mu.Lock()
	records := r.records
	r.records = nil
	r.mu.Unlock()

	var errs []error

	if records != nil {
		if err := records.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close outcome log: %w", err))
		}
	}

	if err := writeReport(ctx, r.store, r.dir, doc); err != nil {
		errs = append(errs, err)
	}

	if err := errors.Join(errs...); err != nil {
		slog.Error("Failed to finish report", "dir", r.dir, "error", err)
		return doc, err
	}

	return doc, nil
}

// writeReport writes outcomes.json and the per classification lists.
func writeReport(ctx context.Context, store adapter.ReportStore, dir m.Path, doc m.ReportDocument) error {
	if err := store.WriteJSON(ctx, m.Path(filepath.Join(string(dir), adapter.OutcomesFileName)), doc); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	lists := make(map[m.Classification][]string, len(listedClassifications))
	for _, rec := range doc.Outcomes {
		lists[rec.Classification] = append(lists[rec.Classification], recordName(rec))
	}

	for _, c := range listedClassifications {
		var b strings.Builder
		for _, line := range lists[c] {
			b.WriteString(line)
			b.WriteString("\n")
		}

		path := m.Path(filepath.Join(string(dir), string(c)+".txt"))
		if err := store.WriteFile(ctx, path, []byte(b.String())); err != nil {
			return fmt.Errorf("failed to write %s list: %w", c, err)
		}
	}

	return nil
}

func recordName(rec m.OutcomeRecord) string {
	if rec.File == "" {
		return rec.Description
	}

	return fmt.Sprintf("%s:%d:%d: %s", rec.File, rec.Line, rec.Column, rec.Description)
}

// LoadReport reads the report in dir. A directory left by an interrupted run
// has no outcomes.json; its outcome log is read instead and the report is
// flagged as interrupted.
func LoadReport(ctx context.Context, store adapter.ReportStore, dir m.Path) (m.ReportDocument, error) {
	var doc m.ReportDocument

	err := store.ReadJSON(ctx, m.Path(filepath.Join(string(dir), adapter.OutcomesFileName)), &doc)
	if err == nil {
		return doc, nil
	}

	if !errors.Is(err, fs.ErrNotExist) {
		slog.Error("Failed to read report", "dir", dir, "error", err)
		return m.ReportDocument{}, err
	}

	logPath := m.Path(filepath.Join(string(dir), adapter.OutcomesLogName))

	ok, err := store.Exists(ctx, logPath)
	if err != nil {
		return m.ReportDocument{}, err
	}

	if !ok {
		return m.ReportDocument{}, fmt.Errorf("%w in %s", ErrNoReport, dir)
	}

	records, err := store.OpenOutcomes(ctx, logPath)
	if err != nil {
		slog.Error("Failed to open outcome log", "path", logPath, "error", err)
		return m.ReportDocument{}, fmt.Errorf("failed to open outcome log: %w", err)
	}
	defer records.Close()

	return documentFromRecords(records, true)
}

func documentFromRecords(records pkg.FileSpill[m.OutcomeRecord], interrupted bool) (m.ReportDocument, error) {
	summary, err := summaryFromRecords(records)
	if err != nil {
		return m.ReportDocument{}, fmt.Errorf("failed to summarize outcomes: %w", err)
	}

	doc := m.ReportDocument{
		ShardCount:  1,
		Interrupted: interrupted,
		Summary:     summary,
		Outcomes:    make([]m.OutcomeRecord, 0, records.Len()),
	}

	err = records.Range(func(_ uint64, rec m.OutcomeRecord) error {
		doc.Outcomes = append(doc.Outcomes, rec)
		return nil
	})
	if err != nil {
		return m.ReportDocument{}, err
	}

	sort.SliceStable(doc.Outcomes, func(i, j int) bool { return doc.Outcomes[i].Index < doc.Outcomes[j].Index })

	return doc, nil
}

// MergeReports combines the shard_* reports under dir into one report in
// dir. Outcomes are ordered by catalog index; a mutant reported by several
// shards is kept once.
func MergeReports(ctx context.Context, store adapter.ReportStore, dir m.Path) (m.ReportDocument, error) {
	shards, err := store.ShardDirs(ctx, dir)
	if err != nil {
		slog.Error("Failed to list shard reports", "dir", dir, "error", err)
		return m.ReportDocument{}, fmt.Errorf("failed to list shard reports: %w", err)
	}

	if len(shards) == 0 {
		return m.ReportDocument{}, fmt.Errorf("%w: no %s* directories in %s", ErrNoReport, adapter.ShardDirPrefix, dir)
	}

	merged := m.ReportDocument{}
	byIndex := make(map[int]m.OutcomeRecord)

	for _, shard := range shards {
		doc, err := LoadReport(ctx, store, shard)
		if err != nil {
			return m.ReportDocument{}, fmt.Errorf("failed to load %s: %w", shard, err)
		}

		if merged.RunID == "" {
			merged.RunID = doc.RunID
			merged.StartedAt = doc.StartedAt
		}

		if merged.Baseline == nil {
			merged.Baseline = doc.Baseline
		}

		merged.DurationMS = max(merged.DurationMS, doc.DurationMS)
		merged.ShardCount = max(merged.ShardCount, doc.ShardCount)
		merged.Interrupted = merged.Interrupted || doc.Interrupted

		for _, rec := range doc.Outcomes {
			if _, dup := byIndex[rec.Index]; !dup {
				byIndex[rec.Index] = rec
			}
		}
	}

	outcomes := make([]m.OutcomeRecord, 0, len(byIndex))
	for _, rec := range byIndex {
		outcomes = append(outcomes, rec)
	}

	sort.Slice(outcomes, func(i, j int) bool { return outcomes[i].Index < outcomes[j].Index })

	if err := store.Reset(ctx, dir); err != nil {
		return m.ReportDocument{}, fmt.Errorf("failed to prepare %s: %w", dir, err)
	}

	records, err := store.CreateOutcomes(ctx, m.Path(filepath.Join(string(dir), adapter.OutcomesLogName)))
	if err != nil {
		return m.ReportDocument{}, fmt.Errorf("failed to create outcome log: %w", err)
	}
	defer records.Close()

	if err := records.AppendBatch(outcomes); err != nil {
		return m.ReportDocument{}, fmt.Errorf("failed to write merged outcomes: %w", err)
	}

	summary, err := summaryFromRecords(records)
	if err != nil {
		return m.ReportDocument{}, fmt.Errorf("failed to summarize outcomes: %w", err)
	}

	merged.Summary = summary
	merged.Outcomes = outcomes

	if err := writeReport(ctx, store, dir, merged); err != nil {
		return m.ReportDocument{}, err
	}

	slog.Info("Merged shard reports", "shards", len(shards), "mutants", len(outcomes))

	return merged, nil
}

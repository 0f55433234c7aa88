package domain

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"gooze.dev/pkg/gomutants/internal/adapter"
	"gooze.dev/pkg/gomutants/internal/controller"
	m "gooze.dev/pkg/gomutants/internal/model"
)

// RunArgs contains the arguments for a mutation testing run.
type RunArgs struct {
	CatalogArgs

	RunID        string
	Output       m.Path
	RetainOutput bool
	Toolchain    Toolchain
	Scope        TestScope
	Scheduler    SchedulerConfig
}

// ListArgs contains the arguments for listing the catalog.
type ListArgs struct {
	CatalogArgs

	Diffs bool
}

// Workflow wires the pipeline stages behind the CLI commands.
type Workflow interface {
	// Run catalogs, tests and reports every selected mutant.
	Run(ctx context.Context, args RunArgs) (m.Report, error)
	// List returns the catalog without testing it.
	List(ctx context.Context, args ListArgs) (m.Listing, error)
	// View loads the report in output, complete or partial.
	View(ctx context.Context, output m.Path) (m.ReportDocument, error)
	// Merge combines the shard reports under output.
	Merge(ctx context.Context, output m.Path) (m.ReportDocument, error)
}

type workflow struct {
	fs         adapter.SourceFSAdapter
	store      adapter.ReportStore
	ui         controller.UI
	catalog    CatalogBuilder
	supervisor Supervisor
}

// NewWorkflow creates a Workflow with the provided dependencies.
func NewWorkflow(
	fsAdapter adapter.SourceFSAdapter,
	reportStore adapter.ReportStore,
	ui controller.UI,
	catalog CatalogBuilder,
	supervisor Supervisor,
) Workflow {
	return &workflow{
		fs:         fsAdapter,
		store:      reportStore,
		ui:         ui,
		catalog:    catalog,
		supervisor: supervisor,
	}
}

func (w *workflow) buildCatalog(ctx context.Context, args CatalogArgs) (Catalog, error) {
	catalog, err := w.catalog.Build(ctx, args)
	if err != nil {
		slog.Error("Failed to build catalog", "error", err)
		return Catalog{}, fmt.Errorf("failed to build catalog: %w", err)
	}

	for _, fe := range catalog.FileErrors {
		slog.Warn("Skipped unparsable file", "file", fe.File, "error", fe.Message)
	}

	slog.Info("Built catalog", "root", catalog.Root, "files", len(catalog.Files), "mutants", len(catalog.Candidates))

	return catalog, nil
}

func (w *workflow) List(ctx context.Context, args ListArgs) (m.Listing, error) {
	catalog, err := w.buildCatalog(ctx, args.CatalogArgs)
	if err != nil {
		return m.Listing{}, err
	}

	listing, err := catalog.Listing(args.Diffs)
	if err != nil {
		slog.Error("Failed to render listing", "error", err)
		return m.Listing{}, fmt.Errorf("failed to render listing: %w", err)
	}

	return listing, nil
}

func (w *workflow) Run(ctx context.Context, args RunArgs) (m.Report, error) {
	catalog, err := w.buildCatalog(ctx, args.CatalogArgs)
	if err != nil {
		return m.Report{}, err
	}

	state := NewRunState(args.RunID)
	slog.Info("Starting run", "run_id", state.ID, "output", args.Output)

	reporter := NewReporter(w.store, args.Output, args.RetainOutput)
	if err := reporter.Begin(ctx, catalog); err != nil {
		return m.Report{}, err
	}

	if err := w.ui.Start(ctx, controller.WithRunMode()); err != nil {
		slog.Error("Failed to start workflow UI", "error", err)
		return m.Report{}, fmt.Errorf("failed to start UI: %w", err)
	}

	selected := len(args.Scheduler.Shard.Select(catalog.Candidates))
	w.ui.DisplayRunInfo(ctx, controller.RunInfo{
		RunID:      state.ID,
		Mutants:    selected,
		Workers:    args.Scheduler.Workers(selected),
		ShardIndex: args.Scheduler.Shard.Index,
		ShardCount: max(args.Scheduler.Shard.Count, 1),
	})

	workspaces := NewWorkspaceManager(w.fs, catalog.Root, w.workspaceSkip(ctx, catalog.Root, args.Output))
	defer workspaces.Close()

	scheduler := NewScheduler(workspaces, NewOrchestrator(w.supervisor, args.Toolchain, args.Scope), args.Scheduler)

	// Outcomes that finish while the run is being cancelled are still
	// written out.
	sinkCtx := context.WithoutCancel(ctx)
	report, runErr := scheduler.Run(ctx, catalog, state, &runSink{ctx: sinkCtx, reporter: reporter, ui: w.ui})

	w.ui.Close(sinkCtx)

	doc, err := reporter.Finish(sinkCtx, report)
	if err != nil && runErr == nil {
		runErr = err
	}

	w.ui.DisplaySummary(sinkCtx, doc)

	slog.Info("Finished run", "run_id", state.ID, "summary", report.Summary.String(),
		"score", report.Summary.Score, "interrupted", report.Interrupted)

	return report, runErr
}

// workspaceSkip keeps the output directory out of workspace copies when it
// lives inside the source tree.
func (w *workflow) workspaceSkip(ctx context.Context, root, output m.Path) []string {
	abs, err := filepath.Abs(string(output))
	if err != nil {
		return nil
	}

	rel, err := w.fs.RelPath(ctx, root, m.Path(abs))
	if err != nil {
		return nil
	}

	slashed := filepath.ToSlash(string(rel))
	if slashed == "." || slashed == ".." || strings.HasPrefix(slashed, "../") {
		return nil
	}

	return []string{slashed}
}

func (w *workflow) View(ctx context.Context, output m.Path) (m.ReportDocument, error) {
	doc, err := LoadReport(ctx, w.store, output)
	if err != nil {
		return m.ReportDocument{}, err
	}

	w.ui.DisplaySummary(ctx, doc)

	return doc, nil
}

func (w *workflow) Merge(ctx context.Context, output m.Path) (m.ReportDocument, error) {
	doc, err := MergeReports(ctx, w.store, output)
	if err != nil {
		slog.Error("Failed to merge reports", "dir", output, "error", err)
		return m.ReportDocument{}, err
	}

	w.ui.DisplaySummary(ctx, doc)

	return doc, nil
}

// runSink feeds scheduler progress to the reporter and the UI.
type runSink struct {
	ctx      context.Context
	reporter Reporter
	ui       controller.UI
}

func (s *runSink) BaselineFinished(outcome m.Outcome) {
	if err := s.reporter.RecordBaseline(s.ctx, outcome); err != nil {
		slog.Warn("Failed to write baseline log", "error", err)
	}

	s.ui.DisplayBaseline(s.ctx, outcome)
}

func (s *runSink) MutantStarted(worker int, c m.Candidate) {
	s.ui.DisplayStartingMutant(s.ctx, c, worker)
}

func (s *runSink) MutantFinished(outcome m.Outcome) error {
	if err := s.reporter.Record(s.ctx, outcome); err != nil {
		return err
	}

	s.ui.DisplayCompletedMutant(s.ctx, outcome)

	return nil
}

package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	m "gooze.dev/pkg/gomutants/internal/model"
)

// Shard selects the candidates with Index%Count == Index. The zero value
// selects everything.
type Shard struct {
	Index int
	Count int
}

// ParseShard parses INDEX/TOTAL.
func ParseShard(s string) (Shard, error) {
	if s == "" {
		return Shard{}, nil
	}

	idx, total, ok := strings.Cut(s, "/")
	if !ok {
		return Shard{}, fmt.Errorf("invalid shard %q: expected INDEX/TOTAL", s)
	}

	index, err := strconv.Atoi(idx)
	if err != nil {
		return Shard{}, fmt.Errorf("invalid shard index %q: %w", idx, err)
	}

	count, err := strconv.Atoi(total)
	if err != nil {
		return Shard{}, fmt.Errorf("invalid shard total %q: %w", total, err)
	}

	if count <= 0 || index < 0 || index >= count {
		return Shard{}, fmt.Errorf("invalid shard %q: index must be in [0, total)", s)
	}

	return Shard{Index: index, Count: count}, nil
}

// Includes reports whether the candidate at catalog index i belongs to the
// shard.
func (s Shard) Includes(i int) bool {
	return s.Count <= 1 || i%s.Count == s.Index
}

// Select returns the candidates of the shard in catalog order.
func (s Shard) Select(candidates []m.Candidate) []m.Candidate {
	selected := make([]m.Candidate, 0, len(candidates))

	for _, c := range candidates {
		if s.Includes(c.Index) {
			selected = append(selected, c)
		}
	}

	return selected
}

// String renders the shard as INDEX/TOTAL.
func (s Shard) String() string {
	if s.Count == 0 {
		return "0/1"
	}

	return fmt.Sprintf("%d/%d", s.Index, s.Count)
}

// SchedulerConfig tunes a run.
type SchedulerConfig struct {
	// Parallel is the number of workers, zero means one per CPU.
	Parallel          int
	SkipBaseline      bool
	DryRun            bool
	Timeout           time.Duration
	MinimumTimeout    time.Duration
	TimeoutMultiplier float64
	Shard             Shard
}

// BaselineTimeouts bounds the baseline phases by the explicit timeout. With
// none set the baseline runs unbounded so it can be measured.
func (c SchedulerConfig) BaselineTimeouts() Timeouts {
	if c.Timeout <= 0 {
		return Timeouts{}
	}

	return Timeouts{Build: c.Timeout, Test: c.Timeout}
}

// Workers returns the number of workers used for n mutants.
func (c SchedulerConfig) Workers(n int) int {
	parallel := c.Parallel
	if parallel <= 0 {
		parallel = runtime.NumCPU()
	}

	return min(parallel, n)
}

// Sink receives progress as the run advances. Calls may come from several
// workers at once.
type Sink interface {
	BaselineFinished(outcome m.Outcome)
	MutantStarted(worker int, c m.Candidate)
	MutantFinished(outcome m.Outcome) error
}

// Scheduler tests every selected candidate of a catalog with a pool of
// workers, each owning a workspace.
type Scheduler interface {
	Run(ctx context.Context, catalog Catalog, state *RunState, sink Sink) (m.Report, error)
}

type scheduler struct {
	workspaces   WorkspaceManager
	orchestrator Orchestrator
	cfg          SchedulerConfig
}

// NewScheduler creates a Scheduler.
func NewScheduler(workspaces WorkspaceManager, orchestrator Orchestrator, cfg SchedulerConfig) Scheduler {
	if cfg.Parallel <= 0 {
		cfg.Parallel = runtime.NumCPU()
	}

	if cfg.MinimumTimeout <= 0 {
		cfg.MinimumTimeout = DefaultMinimumTimeout
	}

	if cfg.TimeoutMultiplier <= 0 {
		cfg.TimeoutMultiplier = DefaultTimeoutMultiplier
	}

	return &scheduler{workspaces: workspaces, orchestrator: orchestrator, cfg: cfg}
}

func (s *scheduler) Run(ctx context.Context, catalog Catalog, state *RunState, sink Sink) (m.Report, error) {
	selected := s.cfg.Shard.Select(catalog.Candidates)
	state.SetTotal(len(selected))

	report := m.Report{
		RunID:      state.ID,
		StartedAt:  state.StartedAt,
		Shard:      s.cfg.Shard.Index,
		ShardCount: max(s.cfg.Shard.Count, 1),
	}

	finish := func(outcomes []m.Outcome, err error) (m.Report, error) {
		report.Outcomes = outcomes
		report.Summary = Summarize(outcomes)
		report.Duration = time.Since(state.StartedAt)

		if errors.Is(err, ErrInterrupted) {
			report.Interrupted = true
			state.MarkInterrupted()
		}

		return report, err
	}

	if s.cfg.DryRun {
		outcomes := make([]m.Outcome, 0, len(selected))

		for _, c := range selected {
			cand := c
			outcome := m.Outcome{Index: c.Index, Candidate: &cand, Classification: m.Skipped}
			outcomes = append(outcomes, outcome)

			state.Started()
			state.Record(m.Skipped)

			if err := sink.MutantFinished(outcome); err != nil {
				return finish(outcomes, err)
			}
		}

		return finish(outcomes, nil)
	}

	first, err := s.workspaces.Acquire(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return finish(nil, ErrInterrupted)
		}

		return finish(nil, err)
	}

	var baseline *m.Outcome

	if !s.cfg.SkipBaseline {
		outcome, err := s.orchestrator.TestBaseline(ctx, first, s.cfg.BaselineTimeouts())
		report.Baseline = &outcome
		baseline = &outcome

		sink.BaselineFinished(outcome)

		if err != nil {
			slog.Error("Baseline failed", "error", err)
			return finish(nil, err)
		}
	}

	timeouts := DeriveTimeouts(s.cfg.Timeout, s.cfg.MinimumTimeout, s.cfg.TimeoutMultiplier, baseline)
	slog.Info("Testing mutants", "count", len(selected), "workers", s.cfg.Workers(len(selected)),
		"build_timeout", timeouts.Build, "test_timeout", timeouts.Test)

	outcomes, err := s.runWorkers(ctx, first, selected, timeouts, state, sink)
	if err == nil && ctx.Err() != nil {
		err = ErrInterrupted
	}

	return finish(outcomes, err)
}

// runWorkers drains a closed channel of indices into selected. Outcomes are
// stored by index so the result is in catalog order whatever the completion
// order.
func (s *scheduler) runWorkers(
	ctx context.Context,
	first *Workspace,
	selected []m.Candidate,
	timeouts Timeouts,
	state *RunState,
	sink Sink,
) ([]m.Outcome, error) {
	indices := make(chan int, len(selected))
	for i := range selected {
		indices <- i
	}

	close(indices)

	results := make([]m.Outcome, len(selected))
	recorded := make([]bool, len(selected))

	workers := s.cfg.Workers(len(selected))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))

	for w := range workers {
		g.Go(func() error {
			ws := first
			if w > 0 {
				var err error

				ws, err = s.workspaces.Acquire(gctx)
				if err != nil {
					if gctx.Err() == nil {
						// Worker 0 holds the first workspace and drains the queue.
						slog.Warn("Running with fewer workers", "worker", w, "error", err)
					}

					return nil
				}
			}

			for i := range indices {
				if gctx.Err() != nil {
					return nil
				}

				outcome, ok, next, err := s.testOne(gctx, w, ws, selected[i], timeouts, state, sink)
				ws = next

				if err != nil {
					return err
				}

				if !ok {
					return nil
				}

				results[i] = outcome
				recorded[i] = true

				if err := sink.MutantFinished(outcome); err != nil {
					return err
				}
			}

			return nil
		})
	}

	err := g.Wait()

	outcomes := make([]m.Outcome, 0, len(selected))
	for i, ok := range recorded {
		if ok {
			outcomes = append(outcomes, results[i])
		}
	}

	return outcomes, err
}

// testOne returns the outcome of c, whether it should be recorded, and the
// workspace to use next.
func (s *scheduler) testOne(
	ctx context.Context,
	worker int,
	ws *Workspace,
	c m.Candidate,
	timeouts Timeouts,
	state *RunState,
	sink Sink,
) (m.Outcome, bool, *Workspace, error) {
	state.Started()
	sink.MutantStarted(worker, c)

	outcome, err := s.orchestrator.TestMutation(ctx, ws, c, timeouts)

	switch {
	case err == nil:
	case errors.Is(err, ErrInterrupted):
		state.Abandoned()
		return outcome, false, ws, nil
	case errors.Is(err, ErrWorkspacePoisoned):
		slog.Warn("Replacing poisoned workspace", "workspace", ws.ID(), "mutant", c.Name())
		s.workspaces.Discard(ws)

		fresh, acquireErr := s.workspaces.Acquire(ctx)
		if acquireErr != nil {
			state.Abandoned()

			if ctx.Err() != nil {
				return outcome, false, nil, nil
			}

			return outcome, false, nil, fmt.Errorf("failed to replace poisoned workspace: %w", acquireErr)
		}

		ws = fresh

		if outcome.Classification == "" {
			// The workspace was unusable before the mutant ran.
			outcome, err = s.orchestrator.TestMutation(ctx, ws, c, timeouts)
			if err != nil {
				state.Abandoned()

				if errors.Is(err, ErrInterrupted) {
					return outcome, false, ws, nil
				}

				return outcome, false, ws, err
			}
		}
	default:
		state.Abandoned()
		return outcome, false, ws, err
	}

	state.Record(outcome.Classification)

	return outcome, true, ws, nil
}

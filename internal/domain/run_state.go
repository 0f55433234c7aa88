package domain

import (
	"sync"
	"sync/atomic"
	"time"

	m "gooze.dev/pkg/gomutants/internal/model"
)

// RunState is the mutable progress of one run, shared by the scheduler, the
// reporter and the UI.
type RunState struct {
	ID        string
	StartedAt time.Time

	total  atomic.Int64
	done   atomic.Int64
	active atomic.Int64

	mu          sync.Mutex
	summary     m.Summary
	interrupted bool
}

// RunSnapshot is a consistent copy of the progress counters.
type RunSnapshot struct {
	Total       int
	Done        int
	Active      int
	Summary     m.Summary
	Elapsed     time.Duration
	Interrupted bool
}

// NewRunState creates the state of run id starting now.
func NewRunState(id string) *RunState {
	return &RunState{ID: id, StartedAt: time.Now()}
}

// SetTotal records how many mutants will be tested.
func (s *RunState) SetTotal(n int) {
	s.total.Store(int64(n))
}

// Started marks a mutant as in flight.
func (s *RunState) Started() {
	s.active.Add(1)
}

// Abandoned marks an in flight mutant that will not be recorded.
func (s *RunState) Abandoned() {
	s.active.Add(-1)
}

// Record counts a finished mutant.
func (s *RunState) Record(c m.Classification) {
	s.mu.Lock()
	s.summary.Add(c)
	s.mu.Unlock()

	s.active.Add(-1)
	s.done.Add(1)
}

// MarkInterrupted flags the run as cancelled by the operator.
func (s *RunState) MarkInterrupted() {
	s.mu.Lock()
	s.interrupted = true
	s.mu.Unlock()
}

// Snapshot returns the current progress.
func (s *RunState) Snapshot() RunSnapshot {
	s.mu.Lock()
	summary := s.summary
	interrupted := s.interrupted
	s.mu.Unlock()

	summary.Score = MutationScore(summary)

	return RunSnapshot{
		Total:       int(s.total.Load()),
		Done:        int(s.done.Load()),
		Active:      int(s.active.Load()),
		Summary:     summary,
		Elapsed:     time.Since(s.StartedAt),
		Interrupted: interrupted,
	}
}

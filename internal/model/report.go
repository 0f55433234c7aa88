package model

import (
	"fmt"
	"time"
)

// Classification is the verdict for a single mutant.
type Classification string

// Available classifications.
const (
	Caught   Classification = "caught"
	Missed   Classification = "missed"
	Unviable Classification = "unviable"
	Timeout  Classification = "timeout"
	Skipped  Classification = "skipped"
)

// Classifications lists every classification in report order.
func Classifications() []Classification {
	return []Classification{Caught, Missed, Timeout, Unviable, Skipped}
}

// Label renders the classification the way the console shows it.
func (c Classification) Label() string {
	switch c {
	case Caught:
		return "caught"
	case Missed:
		return "NOT CAUGHT"
	case Unviable:
		return "unviable"
	case Timeout:
		return "TIMEOUT"
	case Skipped:
		return "skipped"
	}

	return string(c)
}

// Phase is one step of the toolchain run against a workspace.
type Phase string

// Available phases, in execution order.
const (
	PhaseCheck Phase = "check"
	PhaseBuild Phase = "build"
	PhaseTest  Phase = "test"
)

// PhaseStatus is how a phase process ended.
type PhaseStatus string

// Available phase statuses.
const (
	PhaseSuccess     PhaseStatus = "success"
	PhaseFailure     PhaseStatus = "failure"
	PhaseTimeout     PhaseStatus = "timeout"
	PhaseInterrupted PhaseStatus = "interrupted"
)

// PhaseResult describes one finished phase.
type PhaseResult struct {
	Phase    Phase         `json:"phase"`
	Argv     []string      `json:"argv"`
	ExitCode int           `json:"exit_code"`
	Status   PhaseStatus   `json:"status"`
	Duration time.Duration `json:"-"`
	Output   []byte        `json:"-"`
}

// Outcome is the immutable result for one mutant, or for the baseline when
// Candidate is nil.
type Outcome struct {
	Index          int
	Candidate      *Candidate
	Classification Classification
	Phases         []PhaseResult
	Duration       time.Duration
	Output         []byte
	Error          string
}

// Name renders the outcome subject.
func (o Outcome) Name() string {
	if o.Candidate == nil {
		return "baseline"
	}

	return o.Candidate.Name()
}

// PhaseDuration returns the time spent in the given phase, or zero.
func (o Outcome) PhaseDuration(phase Phase) time.Duration {
	for _, p := range o.Phases {
		if p.Phase == phase {
			return p.Duration
		}
	}

	return 0
}

// Summary holds the per-classification totals of a run.
type Summary struct {
	Total    int     `json:"total" yaml:"total"`
	Caught   int     `json:"caught" yaml:"caught"`
	Missed   int     `json:"missed" yaml:"missed"`
	Timeout  int     `json:"timeout" yaml:"timeout"`
	Unviable int     `json:"unviable" yaml:"unviable"`
	Skipped  int     `json:"skipped" yaml:"skipped"`
	Score    float64 `json:"score" yaml:"score"`
}

// Add counts one classification.
func (s *Summary) Add(c Classification) {
	s.Total++

	switch c {
	case Caught:
		s.Caught++
	case Missed:
		s.Missed++
	case Timeout:
		s.Timeout++
	case Unviable:
		s.Unviable++
	case Skipped:
		s.Skipped++
	}
}

// Count returns the number of outcomes with classification c.
func (s Summary) Count(c Classification) int {
	switch c {
	case Caught:
		return s.Caught
	case Missed:
		return s.Missed
	case Timeout:
		return s.Timeout
	case Unviable:
		return s.Unviable
	case Skipped:
		return s.Skipped
	}

	return 0
}

// String renders a one-line summary.
func (s Summary) String() string {
	return fmt.Sprintf("%d mutants tested: %d missed, %d caught, %d unviable, %d timeouts",
		s.Total-s.Skipped, s.Missed, s.Caught, s.Unviable, s.Timeout)
}

// Report is the aggregate result of a run.
type Report struct {
	RunID       string
	StartedAt   time.Time
	Duration    time.Duration
	Shard       int
	ShardCount  int
	Baseline    *Outcome
	Outcomes    []Outcome
	Summary     Summary
	Interrupted bool
}

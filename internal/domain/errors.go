package domain

import (
	"errors"

	m "gooze.dev/pkg/gomutants/internal/model"
)

// Sentinel errors shared by the pipeline.
var (
	// ErrNoParsableFiles is returned when every discovered source file failed to parse.
	ErrNoParsableFiles = errors.New("no source file could be parsed")
	// ErrBaselineFailed is returned when the unmutated tree does not build and pass its tests.
	ErrBaselineFailed = errors.New("baseline build or test failed on the unmutated tree")
	// ErrMutationActive is returned when a workspace already holds an applied mutant.
	ErrMutationActive = errors.New("workspace already has an active mutation")
	// ErrWorkspacePoisoned is returned when a workspace could not be restored.
	ErrWorkspacePoisoned = errors.New("workspace could not be restored")
	// ErrSpanMismatch is returned when the text at a candidate span differs from the catalog.
	ErrSpanMismatch = m.ErrSpanMismatch
	// ErrInterrupted is returned when the run was cancelled by the operator.
	ErrInterrupted = errors.New("run interrupted")
	// ErrNoWorkspace is returned when no workspace could be prepared.
	ErrNoWorkspace = errors.New("no workspace available")
	// ErrNoReport is returned when an output directory holds no report.
	ErrNoReport = errors.New("no report found")
)

// Process exit codes.
const (
	ExitClean          = 0
	ExitUsage          = 1
	ExitMissed         = 2
	ExitBaselineFailed = 4
	ExitInterrupted    = 130
)

// ExitCode maps the result of a run to the process exit code. Baseline
// failure takes precedence over interruption, which takes precedence over
// missed mutants.
func ExitCode(report m.Report, err error) int {
	switch {
	case errors.Is(err, ErrBaselineFailed):
		return ExitBaselineFailed
	case errors.Is(err, ErrInterrupted) || report.Interrupted:
		return ExitInterrupted
	case err != nil:
		return ExitUsage
	case report.Summary.Missed > 0:
		return ExitMissed
	}

	return ExitClean
}

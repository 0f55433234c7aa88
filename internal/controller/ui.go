// Package controller provides output adapters for displaying mutation testing results.
package controller

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	m "gooze.dev/pkg/gomutants/internal/model"
)

// StartMode defines the mode of operation for the UI.
type StartMode int

// Available StartMode values.
const (
	ModeList StartMode = iota
	ModeRun
)

// StartOption is a functional option for Start method.
type StartOption func(*StartConfig)

// StartConfig holds configuration for starting the UI.
type StartConfig struct {
	mode StartMode
}

// WithListMode sets the UI to catalog listing mode.
func WithListMode() StartOption {
	return func(c *StartConfig) {
		c.mode = ModeList
	}
}

// WithRunMode sets the UI to test execution mode.
func WithRunMode() StartOption {
	return func(c *StartConfig) {
		c.mode = ModeRun
	}
}

func startConfig(options []StartOption) StartConfig {
	cfg := StartConfig{mode: ModeRun}
	for _, opt := range options {
		opt(&cfg)
	}

	return cfg
}

// Options tunes what the UI prints.
type Options struct {
	// NoTimes hides durations so output is reproducible.
	NoTimes bool
}

// RunInfo describes a run about to start.
type RunInfo struct {
	RunID      string
	Mutants    int
	Workers    int
	ShardIndex int
	ShardCount int
}

// ListOptions selects what a listing shows.
type ListOptions struct {
	Diffs bool
	Files bool
}

// UI defines the interface for displaying catalogs, progress and reports.
// Implementations can use different output methods (simple text, TUI, etc).
type UI interface {
	Start(ctx context.Context, options ...StartOption) error
	Close(ctx context.Context)
	DisplayListing(ctx context.Context, listing m.Listing, opts ListOptions) error
	DisplayRunInfo(ctx context.Context, info RunInfo)
	DisplayBaseline(ctx context.Context, outcome m.Outcome)
	DisplayStartingMutant(ctx context.Context, c m.Candidate, worker int)
	DisplayCompletedMutant(ctx context.Context, outcome m.Outcome)
	DisplaySummary(ctx context.Context, doc m.ReportDocument)
}

// NewUI returns a TUI when useTTY is set and a SimpleUI otherwise.
func NewUI(cmd *cobra.Command, useTTY bool, opts Options) UI {
	if useTTY {
		return NewTUI(cmd.OutOrStdout(), opts)
	}

	return NewSimpleUI(cmd.OutOrStdout(), opts)
}

// IsTTY reports whether w is an interactive terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}

	return term.IsTerminal(int(f.Fd()))
}

// outcomeLine renders one finished mutant.
func outcomeLine(o m.Outcome, noTimes bool) string {
	line := fmt.Sprintf("%s ... %s", o.Name(), o.Classification.Label())
	if o.Candidate == nil {
		line = fmt.Sprintf("Unmutated baseline ... %s", baselineLabel(o))
	}

	if !noTimes {
		line += " in " + formatDuration(o.Duration)
	}

	return line
}

func baselineLabel(o m.Outcome) string {
	for _, p := range o.Phases {
		if p.Status != m.PhaseSuccess {
			return "FAILED"
		}
	}

	return "ok"
}

func formatDuration(d time.Duration) string {
	return fmt.Sprintf("%.3fs", d.Seconds())
}

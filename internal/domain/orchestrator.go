package domain

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	m "gooze.dev/pkg/gomutants/internal/model"
)

// TestScope selects which packages are tested for a mutant.
type TestScope string

// Available test scopes.
const (
	// ScopeModule tests every package of the module.
	ScopeModule TestScope = "module"
	// ScopePackage tests only the package of the mutated file.
	ScopePackage TestScope = "package"
)

// ParseTestScope validates a configured scope name.
func ParseTestScope(name string) (TestScope, error) {
	switch TestScope(name) {
	case ScopeModule, "":
		return ScopeModule, nil
	case ScopePackage:
		return ScopePackage, nil
	}

	return "", fmt.Errorf("unknown test scope %q (want module or package)", name)
}

// Orchestrator applies one mutant to a workspace, runs the toolchain phases
// against it and reverts it.
type Orchestrator interface {
	// TestBaseline runs every phase on the unmutated workspace. Zero
	// timeouts leave the phases unbounded.
	TestBaseline(ctx context.Context, ws *Workspace, timeouts Timeouts) (m.Outcome, error)
	// TestMutation returns the outcome for c. The workspace is always
	// reverted; a revert failure is returned as ErrWorkspacePoisoned along
	// with the outcome.
	TestMutation(ctx context.Context, ws *Workspace, c m.Candidate, timeouts Timeouts) (m.Outcome, error)
}

type orchestrator struct {
	supervisor Supervisor
	toolchain  Toolchain
	scope      TestScope
}

// NewOrchestrator constructs an Orchestrator using supervisor to run the
// commands of toolchain.
func NewOrchestrator(supervisor Supervisor, toolchain Toolchain, scope TestScope) Orchestrator {
	return &orchestrator{
		supervisor: supervisor,
		toolchain:  toolchain,
		scope:      scope,
	}
}

func (o *orchestrator) TestBaseline(ctx context.Context, ws *Workspace, timeouts Timeouts) (m.Outcome, error) {
	start := time.Now()

	phases, err := o.supervisor.Run(ctx, ws.Root(), o.toolchain.Phases("./..."), timeouts)
	outcome := m.Outcome{
		Index:    -1,
		Phases:   phases,
		Duration: time.Since(start),
		Output:   joinOutput(phases),
	}

	if err != nil {
		return outcome, err
	}

	slog.Info("Baseline finished", "duration", outcome.Duration, "phases", len(phases))

	return outcome, CheckBaseline(outcome)
}

func (o *orchestrator) TestMutation(ctx context.Context, ws *Workspace, c m.Candidate, timeouts Timeouts) (outcome m.Outcome, err error) {
	start := time.Now()
	cand := c
	outcome = m.Outcome{Index: c.Index, Candidate: &cand}

	handle, err := ws.Apply(ctx, c)
	if err != nil {
		if errors.Is(err, ErrMutationActive) || errors.Is(err, ErrWorkspacePoisoned) {
			return outcome, err
		}

		slog.Warn("Failed to apply mutant", "mutant", c.Name(), "workspace", ws.ID(), "error", err)

		outcome.Classification = m.Unviable
		outcome.Error = err.Error()
		outcome.Duration = time.Since(start)

		return outcome, nil
	}

	defer func() {
		if releaseErr := handle.Release(); releaseErr != nil && err == nil {
			err = releaseErr
		}
	}()

	phases, runErr := o.supervisor.Run(ctx, ws.Root(), o.toolchain.Phases(o.packages(c)), timeouts)
	outcome.Phases = phases
	outcome.Output = joinOutput(phases)
	outcome.Duration = time.Since(start)

	if runErr != nil {
		if !errors.Is(runErr, ErrInterrupted) {
			slog.Error("Failed to run phases", "mutant", c.Name(), "workspace", ws.ID(), "error", runErr)
		}

		return outcome, runErr
	}

	outcome.Classification = Classify(phases)
	slog.Debug("Mutant finished", "mutant", c.Name(), "classification", outcome.Classification,
		"duration", outcome.Duration)

	return outcome, nil
}

func (o *orchestrator) packages(c m.Candidate) string {
	if o.scope == ScopePackage {
		return packageDir(c.File)
	}

	return "./..."
}

// joinOutput concatenates phase outputs, each preceded by its command line.
func joinOutput(phases []m.PhaseResult) []byte {
	var buf bytes.Buffer

	for _, p := range phases {
		fmt.Fprintf(&buf, "$ %s\n", strings.Join(p.Argv, " "))
		buf.Write(p.Output)

		if len(p.Output) > 0 && !bytes.HasSuffix(p.Output, []byte("\n")) {
			buf.WriteByte('\n')
		}

		fmt.Fprintf(&buf, "# %s %s in %s\n", p.Phase, p.Status, p.Duration.Round(time.Millisecond))
	}

	return buf.Bytes()
}

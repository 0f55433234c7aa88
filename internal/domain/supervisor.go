package domain

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gooze.dev/pkg/gomutants/internal/adapter"
	m "gooze.dev/pkg/gomutants/internal/model"
)

// Timing defaults.
const (
	// DefaultGracePeriod is how long a terminated process tree may take to
	// exit before it is killed.
	DefaultGracePeriod = 2 * time.Second
	// DefaultMutationTimeout applies when no baseline was measured.
	DefaultMutationTimeout = 2 * time.Minute
	// DefaultMinimumTimeout is the lower bound of a derived timeout.
	DefaultMinimumTimeout = 20 * time.Second
	// DefaultTimeoutMultiplier scales the baseline duration.
	DefaultTimeoutMultiplier = 5.0
)

// PhaseSpec is one toolchain invocation.
type PhaseSpec struct {
	Phase m.Phase
	Argv  []string
}

// Timeouts bound each phase. Zero means unbounded.
type Timeouts struct {
	Build time.Duration
	Test  time.Duration
}

func (t Timeouts) forPhase(phase m.Phase) time.Duration {
	if phase == m.PhaseTest {
		return t.Test
	}

	return t.Build
}

// Toolchain configures the go commands run for every phase.
type Toolchain struct {
	// GoBinary defaults to go.
	GoBinary string
	GoArgs   []string
	TestArgs []string
	// Env is added to the inherited environment of every phase.
	Env []string
}

// Phases returns the check, build and test invocations for packages.
func (tc Toolchain) Phases(packages string) []PhaseSpec {
	goBin := tc.GoBinary
	if goBin == "" {
		goBin = "go"
	}

	argv := func(parts ...[]string) []string {
		var out []string
		for _, p := range parts {
			out = append(out, p...)
		}

		return out
	}

	return []PhaseSpec{
		{Phase: m.PhaseCheck, Argv: argv([]string{goBin, "build"}, tc.GoArgs, []string{packages})},
		{Phase: m.PhaseBuild, Argv: argv([]string{goBin, "test", "-count=1", "-run=^$"}, tc.GoArgs, []string{packages})},
		{Phase: m.PhaseTest, Argv: argv([]string{goBin, "test", "-count=1"}, tc.GoArgs, tc.TestArgs, []string{packages})},
	}
}

// Supervisor runs toolchain phases in a workspace and stops hung or
// cancelled process trees.
type Supervisor interface {
	// Run executes phases in order until one does not succeed. It returns
	// ErrInterrupted with the partial results when ctx is cancelled.
	Run(ctx context.Context, dir m.Path, phases []PhaseSpec, timeouts Timeouts) ([]m.PhaseResult, error)
}

type supervisor struct {
	adapter.ProcessAdapter
	grace time.Duration
	env   []string
}

// NewSupervisor creates a Supervisor starting processes through proc.
func NewSupervisor(proc adapter.ProcessAdapter, grace time.Duration, env []string) Supervisor {
	if grace <= 0 {
		grace = DefaultGracePeriod
	}

	return &supervisor{ProcessAdapter: proc, grace: grace, env: env}
}

func (s *supervisor) Run(ctx context.Context, dir m.Path, phases []PhaseSpec, timeouts Timeouts) ([]m.PhaseResult, error) {
	results := make([]m.PhaseResult, 0, len(phases))

	for _, phase := range phases {
		if ctx.Err() != nil {
			return results, ErrInterrupted
		}

		result, err := s.runPhase(ctx, dir, phase, timeouts.forPhase(phase.Phase))
		if err != nil {
			return results, err
		}

		results = append(results, result)

		switch result.Status {
		case m.PhaseSuccess:
			continue
		case m.PhaseInterrupted:
			return results, ErrInterrupted
		default:
			return results, nil
		}
	}

	return results, nil
}

type waitResult struct {
	result adapter.ProcessResult
	err    error
}

func (s *supervisor) runPhase(ctx context.Context, dir m.Path, phase PhaseSpec, timeout time.Duration) (m.PhaseResult, error) {
	start := time.Now()

	proc, err := s.Start(ctx, adapter.ProcessSpec{Dir: dir, Argv: phase.Argv, Env: s.env})
	if err != nil {
		if ctx.Err() != nil {
			return m.PhaseResult{Phase: phase.Phase, Argv: phase.Argv, Status: m.PhaseInterrupted}, nil
		}

		slog.Error("Failed to start phase", "phase", phase.Phase, "argv", strings.Join(phase.Argv, " "), "error", err)

		return m.PhaseResult{}, fmt.Errorf("failed to start %s phase: %w", phase.Phase, err)
	}

	waitCh := make(chan waitResult, 1)
	go func() {
		res, err := proc.Wait()
		waitCh <- waitResult{result: res, err: err}
	}()

	var timer <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		timer = t.C
	}

	var (
		done   waitResult
		status m.PhaseStatus
	)

	select {
	case done = <-waitCh:
		status = m.PhaseSuccess
		if done.err != nil || done.result.ExitCode != 0 {
			status = m.PhaseFailure
		}
	case <-timer:
		slog.Warn("Phase timed out", "phase", phase.Phase, "dir", dir, "timeout", timeout)
		done = s.stop(proc, waitCh)
		status = m.PhaseTimeout
	case <-ctx.Done():
		slog.Debug("Phase interrupted", "phase", phase.Phase, "dir", dir)
		done = s.stop(proc, waitCh)
		status = m.PhaseInterrupted
	}

	output := done.result.Output
	if done.err != nil {
		output = append(output, []byte("\n"+done.err.Error()+"\n")...)
	}

	return m.PhaseResult{
		Phase:    phase.Phase,
		Argv:     phase.Argv,
		ExitCode: done.result.ExitCode,
		Status:   status,
		Duration: time.Since(start),
		Output:   output,
	}, nil
}

// stop terminates the tree, escalates to a kill after the grace period and
// waits for the process to be reaped.
func (s *supervisor) stop(proc adapter.Process, waitCh <-chan waitResult) waitResult {
	if err := proc.Terminate(); err != nil {
		slog.Warn("Failed to terminate process tree", "error", err)
	}

	grace := time.NewTimer(s.grace)
	defer grace.Stop()

	select {
	case done := <-waitCh:
		return done
	case <-grace.C:
	}

	if err := proc.Kill(); err != nil {
		slog.Error("Failed to kill process tree", "error", err)
	}

	return <-waitCh
}

// DeriveTimeouts computes the per mutant limits from the baseline. An
// explicit timeout wins, then multiplier times the baseline test duration
// bounded below by minimum, then DefaultMutationTimeout.
func DeriveTimeouts(explicit, minimum time.Duration, multiplier float64, baseline *m.Outcome) Timeouts {
	if explicit > 0 {
		return Timeouts{Build: explicit, Test: explicit}
	}

	if baseline == nil {
		return Timeouts{Build: DefaultMutationTimeout, Test: DefaultMutationTimeout}
	}

	scale := func(d time.Duration) time.Duration {
		return max(minimum, time.Duration(float64(d)*multiplier))
	}

	return Timeouts{
		Build: scale(baseline.PhaseDuration(m.PhaseCheck) + baseline.PhaseDuration(m.PhaseBuild)),
		Test:  scale(baseline.PhaseDuration(m.PhaseTest)),
	}
}

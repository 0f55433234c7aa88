package adapter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"

	m "gooze.dev/pkg/gomutants/internal/model"
)

// pipeWaitDelay bounds how long Wait keeps reading output after the child
// exited while a descendant still holds the pipes.
const pipeWaitDelay = 5 * time.Second

// ProcessSpec describes a child process.
type ProcessSpec struct {
	Dir  m.Path
	Argv []string
	// Env is appended to the inherited environment.
	Env []string
}

// ProcessResult is the state of an exited process.
type ProcessResult struct {
	// ExitCode is -1 when the process was ended by a signal.
	ExitCode int
	// Output holds stdout and stderr interleaved.
	Output []byte
}

// Process is a running child and its descendants.
type Process interface {
	// Wait blocks until the process exits. It may be called once.
	Wait() (ProcessResult, error)
	// Terminate asks the whole process tree to stop.
	Terminate() error
	// Kill forcibly stops the whole process tree.
	Kill() error
}

// ProcessAdapter starts child processes in their own process group so the
// tree can be stopped as a unit.
type ProcessAdapter interface {
	Start(ctx context.Context, spec ProcessSpec) (Process, error)
}

// LocalProcessAdapter is the os/exec backed ProcessAdapter.
type LocalProcessAdapter struct{}

// NewLocalProcessAdapter constructs a LocalProcessAdapter.
func NewLocalProcessAdapter() *LocalProcessAdapter {
	return &LocalProcessAdapter{}
}

// Start launches spec. Cancelling ctx does not stop the process; callers
// stop it with Terminate and Kill.
func (a *LocalProcessAdapter) Start(ctx context.Context, spec ProcessSpec) (Process, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if len(spec.Argv) == 0 {
		return nil, errors.New("empty command line")
	}

	// #nosec G204 - argv is assembled from configuration, not remote input
	cmd := exec.Command(spec.Argv[0], spec.Argv[1:]...)
	cmd.Dir = string(spec.Dir)
	cmd.Env = append(os.Environ(), spec.Env...)
	cmd.WaitDelay = pipeWaitDelay

	p := &localProcess{cmd: cmd}
	cmd.Stdout = &p.output
	cmd.Stderr = &p.output

	configureProcessGroup(cmd)

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", spec.Argv[0], err)
	}

	return p, nil
}

type localProcess struct {
	cmd    *exec.Cmd
	output bytes.Buffer

	mu     sync.Mutex
	exited bool
}

func (p *localProcess) Wait() (ProcessResult, error) {
	err := p.cmd.Wait()

	p.mu.Lock()
	p.exited = true
	p.mu.Unlock()

	result := ProcessResult{Output: p.output.Bytes()}

	if err == nil {
		return result, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		result.ExitCode = exitErr.ExitCode()
		return result, nil
	}

	if errors.Is(err, exec.ErrWaitDelay) {
		result.ExitCode = p.cmd.ProcessState.ExitCode()
		return result, nil
	}

	return result, fmt.Errorf("failed to wait for %s: %w", p.cmd.Path, err)
}

func (p *localProcess) Terminate() error {
	if p.done() {
		return nil
	}

	return terminateTree(p.cmd.Process.Pid)
}

func (p *localProcess) Kill() error {
	if p.done() {
		return nil
	}

	if err := killTree(p.cmd.Process.Pid); err != nil {
		return p.cmd.Process.Kill()
	}

	return nil
}

func (p *localProcess) done() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.exited
}

package domain

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gooze.dev/pkg/gomutants/internal/adapter"
	m "gooze.dev/pkg/gomutants/internal/model"
)

const workspaceSource = "package p\n\nfunc Add(a, b int) int {\n\treturn a + b\n}\n"

func newSourceTree(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "go.mod"), []byte("module p\n\ngo 1.21\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "add.go"), []byte(workspaceSource), 0o600))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".git"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".git", "HEAD"), []byte("ref"), 0o600))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "mutants.out"), 0o750))

	return dir
}

func addCandidate() m.Candidate {
	start := len("package p\n\nfunc Add(a, b int) int {\n\treturn a ")

	return m.Candidate{
		File:        "add.go",
		Span:        m.Span{Start: start, End: start + 1},
		Genre:       m.GenreArithmeticOperatorSwap,
		Original:    "+",
		Replacement: "-",
		Description: "replace + with - in Add",
	}
}

func TestWorkspaceManager_AcquireCopiesTree(t *testing.T) {
	src := newSourceTree(t)
	wm := NewWorkspaceManager(adapter.NewLocalSourceFSAdapter(), m.Path(src), []string{"mutants.out"})
	defer wm.Close()

	ws, err := wm.Acquire(context.Background())
	require.NoError(t, err)

	content, err := os.ReadFile(filepath.Join(string(ws.Root()), "add.go"))
	require.NoError(t, err)
	assert.Equal(t, workspaceSource, string(content))

	assert.NoDirExists(t, filepath.Join(string(ws.Root()), ".git"))
	assert.NoDirExists(t, filepath.Join(string(ws.Root()), "mutants.out"))

	other, err := wm.Acquire(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, ws.ID(), other.ID())
	assert.NotEqual(t, ws.Root(), other.Root())
}

func TestWorkspace_ApplyRelease(t *testing.T) {
	src := newSourceTree(t)
	wm := NewWorkspaceManager(adapter.NewLocalSourceFSAdapter(), m.Path(src), nil)
	defer wm.Close()

	ws, err := wm.Acquire(context.Background())
	require.NoError(t, err)

	path := filepath.Join(string(ws.Root()), "add.go")

	handle, err := ws.Apply(context.Background(), addCandidate())
	require.NoError(t, err)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "return a - b")

	_, err = ws.Apply(context.Background(), addCandidate())
	require.ErrorIs(t, err, ErrMutationActive)

	require.NoError(t, handle.Release())
	require.NoError(t, handle.Release(), "release is idempotent")

	content, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, workspaceSource, string(content))

	source, err := os.ReadFile(filepath.Join(src, "add.go"))
	require.NoError(t, err)
	assert.Equal(t, workspaceSource, string(source), "source tree is never written")

	handle, err = ws.Apply(context.Background(), addCandidate())
	require.NoError(t, err, "workspace is reusable after release")
	require.NoError(t, handle.Release())
}

func TestWorkspace_ApplySpanMismatch(t *testing.T) {
	src := newSourceTree(t)
	wm := NewWorkspaceManager(adapter.NewLocalSourceFSAdapter(), m.Path(src), nil)
	defer wm.Close()

	ws, err := wm.Acquire(context.Background())
	require.NoError(t, err)

	cand := addCandidate()
	cand.Original = "*"

	_, err = ws.Apply(context.Background(), cand)
	require.ErrorIs(t, err, ErrSpanMismatch)
	assert.False(t, ws.Poisoned())
}

func TestWorkspace_ExternalModificationPoisons(t *testing.T) {
	src := newSourceTree(t)
	wm := NewWorkspaceManager(adapter.NewLocalSourceFSAdapter(), m.Path(src), nil)
	defer wm.Close()

	ws, err := wm.Acquire(context.Background())
	require.NoError(t, err)

	handle, err := ws.Apply(context.Background(), addCandidate())
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(string(ws.Root()), "add.go"), []byte("package p\n"), 0o600))

	require.ErrorIs(t, handle.Release(), ErrWorkspacePoisoned)
	assert.True(t, ws.Poisoned())

	_, err = ws.Apply(context.Background(), addCandidate())
	require.ErrorIs(t, err, ErrWorkspacePoisoned)
}

func TestWorkspaceManager_DiscardAndClose(t *testing.T) {
	src := newSourceTree(t)
	wm := NewWorkspaceManager(adapter.NewLocalSourceFSAdapter(), m.Path(src), nil)

	first, err := wm.Acquire(context.Background())
	require.NoError(t, err)
	second, err := wm.Acquire(context.Background())
	require.NoError(t, err)

	wm.Discard(first)
	assert.NoDirExists(t, string(first.Root()))
	assert.DirExists(t, string(second.Root()))

	wm.Discard(first)
	wm.Close()
	assert.NoDirExists(t, string(second.Root()))
}

func TestWorkspaceManager_AcquireFailsForMissingSource(t *testing.T) {
	wm := NewWorkspaceManager(adapter.NewLocalSourceFSAdapter(), m.Path(filepath.Join(t.TempDir(), "missing")), nil)
	defer wm.Close()

	_, err := wm.Acquire(context.Background())
	require.ErrorIs(t, err, ErrNoWorkspace)
}

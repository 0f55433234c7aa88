package domain

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"gooze.dev/pkg/gomutants/internal/adapter"
	m "gooze.dev/pkg/gomutants/internal/model"
)

// WorkspaceManager hands out disposable copies of the source tree.
type WorkspaceManager interface {
	// Acquire copies the source tree into a fresh workspace.
	Acquire(ctx context.Context) (*Workspace, error)
	// Discard removes a workspace that is no longer usable.
	Discard(ws *Workspace)
	// Close removes every workspace still alive.
	Close()
}

type workspaceManager struct {
	fs     adapter.SourceFSAdapter
	source m.Path
	skip   []string

	mu   sync.Mutex
	next int
	live map[int]*Workspace
}

// NewWorkspaceManager creates a manager copying source. Entries named in
// skip, such as .git or the output directory, are not copied.
func NewWorkspaceManager(fs adapter.SourceFSAdapter, source m.Path, skip []string) WorkspaceManager {
	return &workspaceManager{
		fs:     fs,
		source: source,
		skip:   append([]string{".git"}, skip...),
		live:   make(map[int]*Workspace),
	}
}

func (wm *workspaceManager) Acquire(ctx context.Context) (*Workspace, error) {
	tmpDir, err := wm.fs.CreateTempDir(ctx, "gomutants-ws-*")
	if err != nil {
		slog.Error("Failed to create workspace dir", "error", err)
		return nil, fmt.Errorf("%w: failed to create temp dir: %w", ErrNoWorkspace, err)
	}

	if err := wm.fs.CopyDir(ctx, wm.source, tmpDir, wm.skip); err != nil {
		slog.Error("Failed to copy source tree", "source", wm.source, "dest", tmpDir, "error", err)
		_ = wm.fs.RemoveAll(context.Background(), tmpDir)

		return nil, fmt.Errorf("%w: failed to copy %s: %w", ErrNoWorkspace, wm.source, err)
	}

	wm.mu.Lock()
	ws := &Workspace{id: wm.next, root: tmpDir, fs: wm.fs}
	wm.live[ws.id] = ws
	wm.next++
	wm.mu.Unlock()

	slog.Debug("Acquired workspace", "workspace", ws.id, "root", tmpDir)

	return ws, nil
}

func (wm *workspaceManager) Discard(ws *Workspace) {
	if ws == nil {
		return
	}

	wm.mu.Lock()
	_, ok := wm.live[ws.id]
	delete(wm.live, ws.id)
	wm.mu.Unlock()

	if !ok {
		return
	}

	if err := wm.fs.RemoveAll(context.Background(), ws.root); err != nil {
		slog.Warn("Failed to remove workspace", "workspace", ws.id, "root", ws.root, "error", err)
		return
	}

	slog.Debug("Discarded workspace", "workspace", ws.id)
}

func (wm *workspaceManager) Close() {
	wm.mu.Lock()
	ids := make([]int, 0, len(wm.live))
	for id := range wm.live {
		ids = append(ids, id)
	}
	wm.mu.Unlock()

	sort.Ints(ids)

	for _, id := range ids {
		wm.mu.Lock()
		ws := wm.live[id]
		wm.mu.Unlock()

		wm.Discard(ws)
	}
}

// Workspace is a private copy of the source tree owned by one worker. It
// holds at most one applied mutant.
type Workspace struct {
	id   int
	root m.Path
	fs   adapter.SourceFSAdapter

	mu       sync.Mutex
	active   *MutationHandle
	poisoned bool
}

// ID returns the workspace number, unique per manager.
func (ws *Workspace) ID() int { return ws.id }

// Root returns the directory holding the copy.
func (ws *Workspace) Root() m.Path { return ws.root }

// Poisoned reports whether a mutant could not be reverted.
func (ws *Workspace) Poisoned() bool {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	return ws.poisoned
}

// Apply writes the mutated file into the workspace. The returned handle
// must be released before the next Apply.
func (ws *Workspace) Apply(ctx context.Context, c m.Candidate) (*MutationHandle, error) {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	if ws.poisoned {
		return nil, ErrWorkspacePoisoned
	}

	if ws.active != nil {
		return nil, fmt.Errorf("%w: %s", ErrMutationActive, ws.active.candidate.Name())
	}

	path := ws.fs.JoinPath(ctx, string(ws.root), filepath.FromSlash(string(c.File)))

	info, err := ws.fs.FileInfo(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", c.File, err)
	}

	original, err := ws.fs.ReadFile(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", c.File, err)
	}

	mutated, err := c.Mutate(original)
	if err != nil {
		return nil, err
	}

	if err := ws.fs.WriteFile(ctx, path, mutated, info.Mode().Perm()); err != nil {
		// A partial write may have left the file altered.
		if restoreErr := ws.fs.WriteFile(context.Background(), path, original, info.Mode().Perm()); restoreErr != nil {
			ws.poisoned = true
		}

		return nil, fmt.Errorf("failed to write mutant to %s: %w", c.File, err)
	}

	ws.active = &MutationHandle{
		ws:          ws,
		candidate:   c,
		path:        path,
		perm:        info.Mode().Perm(),
		original:    original,
		mutatedHash: hashContent(mutated),
	}

	return ws.active, nil
}

// MutationHandle restores the file changed by Apply.
type MutationHandle struct {
	ws          *Workspace
	candidate   m.Candidate
	path        m.Path
	perm        os.FileMode
	original    []byte
	mutatedHash string

	once sync.Once
	err  error
}

// Release restores the original bytes. It is safe to call more than once
// and ignores cancellation.
func (h *MutationHandle) Release() error {
	h.once.Do(func() {
		h.err = h.restore()
	})

	return h.err
}

func (h *MutationHandle) restore() error {
	ctx := context.Background()

	h.ws.mu.Lock()
	defer h.ws.mu.Unlock()

	if h.ws.active == h {
		h.ws.active = nil
	}

	current, err := h.ws.fs.HashFile(ctx, h.path)
	if err != nil || current != h.mutatedHash {
		h.ws.poisoned = true
		slog.Error("Mutated file changed under the workspace", "workspace", h.ws.id, "file", h.candidate.File, "error", err)

		return fmt.Errorf("%w: %s no longer holds the applied mutant", ErrWorkspacePoisoned, h.candidate.File)
	}

	if err := h.ws.fs.WriteFile(ctx, h.path, h.original, h.perm); err != nil {
		h.ws.poisoned = true
		slog.Error("Failed to restore mutated file", "workspace", h.ws.id, "file", h.candidate.File, "error", err)

		return fmt.Errorf("%w: failed to restore %s: %w", ErrWorkspacePoisoned, h.candidate.File, err)
	}

	return nil
}

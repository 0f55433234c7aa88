package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	m "gooze.dev/pkg/gomutants/internal/model"
	pkg "gooze.dev/pkg/gomutants/pkg"
)

// Report layout inside the output directory.
const (
	CatalogFileName  = "mutants.json"
	OutcomesLogName  = "outcomes.jsonl"
	OutcomesFileName = "outcomes.json"
	DiffDirName      = "diff"
	LogDirName       = "log"
	ShardDirPrefix   = "shard_"
)

// reportEntries are the generated entries removed when a directory is reset.
// Anything else, such as the rotating debug log, is left alone.
var reportEntries = []string{
	CatalogFileName,
	OutcomesLogName,
	OutcomesFileName,
	DiffDirName,
	LogDirName,
	"caught.txt",
	"missed.txt",
	"timeout.txt",
	"unviable.txt",
}

// ReportStore persists report artifacts under an output directory.
type ReportStore interface {
	// Reset removes the artifacts of a previous run from dir and recreates
	// the directory skeleton.
	Reset(ctx context.Context, dir m.Path) error
	// WriteFile atomically replaces path with data.
	WriteFile(ctx context.Context, path m.Path, data []byte) error
	// WriteJSON atomically writes v as indented JSON.
	WriteJSON(ctx context.Context, path m.Path, v any) error
	// ReadJSON decodes the JSON document at path into v.
	ReadJSON(ctx context.Context, path m.Path, v any) error
	// Exists reports whether path exists.
	Exists(ctx context.Context, path m.Path) (bool, error)
	// CreateOutcomes truncates and opens the append-only outcome log.
	CreateOutcomes(ctx context.Context, path m.Path) (pkg.FileSpill[m.OutcomeRecord], error)
	// OpenOutcomes opens an existing outcome log read-only.
	OpenOutcomes(ctx context.Context, path m.Path) (pkg.FileSpill[m.OutcomeRecord], error)
	// ShardDirs lists the shard report directories under dir, sorted.
	ShardDirs(ctx context.Context, dir m.Path) ([]m.Path, error)
}

// LocalReportStore is the os backed ReportStore.
type LocalReportStore struct{}

// NewReportStore creates a LocalReportStore.
func NewReportStore() *LocalReportStore {
	return &LocalReportStore{}
}

// Reset implements ReportStore.
func (s *LocalReportStore) Reset(ctx context.Context, dir m.Path) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	root := string(dir)

	for _, name := range reportEntries {
		if err := os.RemoveAll(filepath.Join(root, name)); err != nil {
			return fmt.Errorf("failed to remove %s: %w", name, err)
		}
	}

	for _, sub := range []string{DiffDirName, LogDirName} {
		if err := os.MkdirAll(filepath.Join(root, sub), 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", sub, err)
		}
	}

	return nil
}

// WriteFile implements ReportStore.
func (s *LocalReportStore) WriteFile(ctx context.Context, path m.Path, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	target := string(path)

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", target, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), "."+filepath.Base(target)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", target, err)
	}

	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)

		return fmt.Errorf("failed to write %s: %w", target, err)
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close %s: %w", target, err)
	}

	if err := os.Chmod(tmpName, 0o644); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to chmod %s: %w", target, err)
	}

	if err := os.Rename(tmpName, target); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to replace %s: %w", target, err)
	}

	return nil
}

// WriteJSON implements ReportStore.
func (s *LocalReportStore) WriteJSON(ctx context.Context, path m.Path, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}

	return s.WriteFile(ctx, path, append(data, '\n'))
}

// ReadJSON implements ReportStore.
func (s *LocalReportStore) ReadJSON(ctx context.Context, path m.Path, v any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := os.ReadFile(string(path))
	if err != nil {
		return err
	}

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}

	return nil
}

// Exists implements ReportStore.
func (s *LocalReportStore) Exists(ctx context.Context, path m.Path) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	_, err := os.Stat(string(path))
	if err == nil {
		return true, nil
	}

	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}

	return false, err
}

// CreateOutcomes implements ReportStore.
func (s *LocalReportStore) CreateOutcomes(ctx context.Context, path m.Path) (pkg.FileSpill[m.OutcomeRecord], error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return pkg.NewFileSpill[m.OutcomeRecord](string(path))
}

// OpenOutcomes implements ReportStore.
func (s *LocalReportStore) OpenOutcomes(ctx context.Context, path m.Path) (pkg.FileSpill[m.OutcomeRecord], error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return pkg.OpenFileSpill[m.OutcomeRecord](string(path))
}

// ShardDirs implements ReportStore.
func (s *LocalReportStore) ShardDirs(ctx context.Context, dir m.Path) ([]m.Path, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(string(dir))
	if err != nil {
		return nil, err
	}

	var dirs []m.Path

	for _, e := range entries {
		if e.IsDir() && strings.HasPrefix(e.Name(), ShardDirPrefix) {
			dirs = append(dirs, m.Path(filepath.Join(string(dir), e.Name())))
		}
	}

	sort.Slice(dirs, func(i, j int) bool { return dirs[i] < dirs[j] })

	return dirs, nil
}

// Package pkg provides utilities shared by the gomutants packages.
package pkg

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// ErrReadOnly is returned when appending to a spill opened for reading.
var ErrReadOnly = errors.New("filespill is read-only")

// FileSpill is an append-only sequence of items of type T stored as JSON
// lines. Every Append reaches the file before it returns, so a reader sees
// every complete line even if the writer dies.
type FileSpill[T any] interface {
	Len() uint64
	Path() string
	Append(item T) error
	AppendBatch(items []T) error
	Get(index uint64) (T, error)
	Range(f func(index uint64, item T) error) error
	Close() error
}

type fileSpillImpl[T any] struct {
	path   string
	file   *os.File
	mu     sync.Mutex
	length uint64
}

// Append implements FileSpill.
func (f *fileSpillImpl[T]) Append(item T) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.file == nil {
		return ErrReadOnly
	}

	line, err := json.Marshal(item)
	if err != nil {
		slog.Error("failed to encode item", "path", f.path, "index", f.length, "error", err)
		return fmt.Errorf("failed to encode item: %w", err)
	}

	if _, err := f.file.Write(append(line, '\n')); err != nil {
		slog.Error("failed to write item", "path", f.path, "index", f.length, "error", err)
		return fmt.Errorf("failed to write item: %w", err)
	}

	f.length++

	return nil
}

// Path implements FileSpill.
func (f *fileSpillImpl[T]) Path() string {
	return f.path
}

// AppendBatch implements FileSpill.
func (f *fileSpillImpl[T]) AppendBatch(items []T) error {
	for _, item := range items {
		if err := f.Append(item); err != nil {
			return err
		}
	}

	return nil
}

// Close implements FileSpill.
func (f *fileSpillImpl[T]) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.file == nil {
		return nil
	}

	if err := f.file.Close(); err != nil {
		slog.Error("failed to close file", "path", f.path, "error", err)
		return err
	}

	f.file = nil
	slog.Debug("closed filespill", "path", f.path, "length", f.length)

	return nil
}

// Get implements FileSpill.
func (f *fileSpillImpl[T]) Get(index uint64) (T, error) {
	var (
		found T
		ok    bool
	)

	errStop := errors.New("stop")

	err := f.Range(func(i uint64, item T) error {
		if i == index {
			found, ok = item, true
			return errStop
		}

		return nil
	})
	if err != nil && !errors.Is(err, errStop) {
		var zero T
		return zero, err
	}

	if !ok {
		var zero T

		slog.Warn("get index out of bounds", "path", f.path, "index", index, "length", f.Len())

		return zero, fmt.Errorf("index %d out of bounds (length %d)", index, f.Len())
	}

	return found, nil
}

// Len implements FileSpill.
func (f *fileSpillImpl[T]) Len() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.length
}

// Range implements FileSpill.
func (f *fileSpillImpl[T]) Range(fn func(index uint64, item T) error) error {
	f.mu.Lock()
	length := f.length
	f.mu.Unlock()

	file, err := os.Open(f.path)
	if err != nil {
		slog.Error("failed to open file for range", "path", f.path, "error", err)
		return fmt.Errorf("failed to open file: %w", err)
	}

	defer func() {
		if err := file.Close(); err != nil {
			slog.Error("failed to close file", "path", f.path, "error", err)
		}
	}()

	reader := bufio.NewReader(file)

	for i := range length {
		line, err := reader.ReadBytes('\n')
		if err != nil {
			slog.Error("failed to read item during range", "path", f.path, "index", i, "error", err)
			return fmt.Errorf("failed to read item at index %d: %w", i, err)
		}

		var item T
		if err := json.Unmarshal(line, &item); err != nil {
			slog.Error("failed to decode item during range", "path", f.path, "index", i, "error", err)
			return fmt.Errorf("failed to decode item at index %d: %w", i, err)
		}

		if err := fn(i, item); err != nil {
			return err
		}
	}

	return nil
}

// NewFileSpill creates or truncates the spill file at path.
func NewFileSpill[T any](path string) (FileSpill[T], error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		slog.Error("failed to create spill directory", "path", path, "error", err)
		return nil, fmt.Errorf("failed to create spill directory: %w", err)
	}

	// #nosec G304 - path is the configured output location
	file, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		slog.Error("failed to create spill file", "path", path, "error", err)
		return nil, fmt.Errorf("failed to create spill file: %w", err)
	}

	slog.Debug("created filespill", "path", path)

	return &fileSpillImpl[T]{path: path, file: file}, nil
}

// OpenFileSpill opens an existing spill for reading. A trailing line that
// was cut short by a crashed writer is ignored.
func OpenFileSpill[T any](path string) (FileSpill[T], error) {
	// #nosec G304 - path is the configured output location
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open spill file: %w", err)
	}

	defer func() { _ = file.Close() }()

	reader := bufio.NewReader(file)

	var length uint64

	for {
		line, err := reader.ReadBytes('\n')
		if errors.Is(err, io.EOF) {
			if len(bytes.TrimSpace(line)) > 0 {
				slog.Warn("ignoring truncated spill line", "path", path, "index", length)
			}

			break
		}

		if err != nil {
			return nil, fmt.Errorf("failed to read spill file: %w", err)
		}

		if !json.Valid(line) {
			slog.Warn("ignoring invalid spill line", "path", path, "index", length)
			break
		}

		length++
	}

	return &fileSpillImpl[T]{path: path, length: length}, nil
}

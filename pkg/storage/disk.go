package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// partialMarker tags temporary files so Sweep can find abandoned ones.
const partialMarker = ".partial-"

// DiskBackend stores artifacts on the local filesystem.
type DiskBackend struct {
	dirMode  os.FileMode
	fileMode os.FileMode
	logger   *slog.Logger
}

// DiskOption configures a DiskBackend.
type DiskOption func(*DiskBackend)

// WithDirMode sets the mode used when creating destination directories.
func WithDirMode(mode os.FileMode) DiskOption {
	return func(b *DiskBackend) {
		b.dirMode = mode
	}
}

// WithFileMode sets the mode of committed files.
func WithFileMode(mode os.FileMode) DiskOption {
	return func(b *DiskBackend) {
		b.fileMode = mode
	}
}

// WithDiskLogger sets the logger. Defaults to slog.Default().
func WithDiskLogger(logger *slog.Logger) DiskOption {
	return func(b *DiskBackend) {
		b.logger = logger
	}
}

// NewDiskBackend creates a new DiskBackend.
func NewDiskBackend(opts ...DiskOption) *DiskBackend {
	b := &DiskBackend{
		dirMode:  0755,
		fileMode: 0644,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// EnsureDir creates dir if it does not exist. It is idempotent.
func (b *DiskBackend) EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, b.dirMode); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}
	return nil
}

// Create opens a temporary file in the target directory.
func (b *DiskBackend) Create(ctx context.Context, t Target, contentType string) (Writer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if t.Name == "" || strings.ContainsAny(t.Name, `/\`) {
		return nil, fmt.Errorf("invalid file name %q", t.Name)
	}
	if err := b.EnsureDir(t.Dir); err != nil {
		return nil, err
	}

	f, err := os.CreateTemp(t.Dir, "."+t.Name+partialMarker+"*")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}

	return &diskWriter{
		f:      f,
		final:  t.Path(),
		mode:   b.fileMode,
		logger: b.logger,
	}, nil
}

// Remove deletes a committed artifact.
func (b *DiskBackend) Remove(_ context.Context, t Target) error {
	if err := os.Remove(t.Path()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove %s: %w", t.Path(), err)
	}
	return nil
}

// Sweep removes temporary files older than maxAge from dirs.
// Committed artifacts and subdirectories are left alone.
func (b *DiskBackend) Sweep(dirs []string, maxAge time.Duration) (int, error) {
	cutoff := time.Now().Add(-maxAge)
	removed := 0

	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return removed, fmt.Errorf("read directory %s: %w", dir, err)
		}

		for _, entry := range entries {
			if entry.IsDir() || !isPartial(entry.Name()) {
				continue
			}

			info, err := entry.Info()
			if err != nil {
				continue
			}

			if info.ModTime().Before(cutoff) {
				p := filepath.Join(dir, entry.Name())
				if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
					b.logger.Warn("failed to remove stale temp file", "path", p, "error", err)
					continue
				}
				removed++
			}
		}
	}

	return removed, nil
}

func isPartial(name string) bool {
	return strings.HasPrefix(name, ".") && strings.Contains(name, partialMarker)
}

type diskWriter struct {
	f      *os.File
	final  string
	mode   os.FileMode
	logger *slog.Logger

	done error
}

func (w *diskWriter) Write(p []byte) (int, error) {
	if w.done != nil {
		return 0, w.done
	}
	return w.f.Write(p)
}

func (w *diskWriter) Commit() error {
	if w.done != nil {
		return w.done
	}

	tmp := w.f.Name()
	err := w.f.Sync()
	if cerr := w.f.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Chmod(tmp, w.mode)
	}
	if err == nil {
		err = os.Rename(tmp, w.final)
	}
	if err != nil {
		os.Remove(tmp)
		w.done = ErrAborted
		return fmt.Errorf("commit %s: %w", w.final, err)
	}

	w.done = ErrCommitted
	return nil
}

func (w *diskWriter) Abort() error {
	if w.done != nil {
		return nil
	}
	w.done = ErrAborted

	tmp := w.f.Name()
	w.f.Close()
	if err := os.Remove(tmp); err != nil && !os.IsNotExist(err) {
		w.logger.Warn("failed to remove temp file", "path", tmp, "error", err)
		return err
	}
	return nil
}

package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"path/filepath"
	"strings"
)

// ErrAborted is returned by Writer methods called after Abort.
var ErrAborted = errors.New("storage: writer aborted")

// ErrCommitted is returned by Writer methods called after a successful Commit.
var ErrCommitted = errors.New("storage: writer already committed")

// Target is the resolved location of one accepted part.
type Target struct {
	// Dir is the category base directory (a key prefix for object stores).
	Dir string `json:"dir"`

	// Name is the generated file name.
	Name string `json:"name"`
}

// Path returns the filesystem path of the target.
func (t Target) Path() string {
	return filepath.Join(t.Dir, t.Name)
}

// Key returns the object key of the target, always slash separated.
func (t Target) Key() string {
	dir := strings.Trim(path.Clean(filepath.ToSlash(t.Dir)), "/")
	if dir == "" || dir == "." {
		return t.Name
	}
	return dir + "/" + t.Name
}

// Backend is the interface for artifact storage.
// Implementations must not expose an artifact under its final name
// until Commit has returned successfully.
type Backend interface {
	// Create opens a writer for the target. Bytes written to it stay
	// invisible to readers until Commit.
	Create(ctx context.Context, t Target, contentType string) (Writer, error)

	// Remove deletes a committed artifact. Removing a missing artifact is not an error.
	Remove(ctx context.Context, t Target) error
}

// Writer receives the payload of one part.
type Writer interface {
	io.Writer

	// Commit makes the artifact visible under its final name.
	// A failed Commit leaves nothing behind.
	Commit() error

	// Abort discards everything written so far. Abort after Commit is a no-op.
	Abort() error
}

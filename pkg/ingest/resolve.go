package ingest

import (
	"errors"
	"path/filepath"
)

// ErrUnsupportedDestination is returned for a category without a directory.
var ErrUnsupportedDestination = errors.New("ingest: no destination for category")

// DefaultDirectories returns the built-in base directory per category.
func DefaultDirectories() map[Category]string {
	return map[Category]string{
		ProfileImage: filepath.Join("storage", "images", "profile"),
		TeamImage:    filepath.Join("storage", "images", "teams"),
		Video:        filepath.Join("storage", "videos"),
	}
}

// Resolver maps a destination category to its base directory.
type Resolver struct {
	dirs map[Category]string
}

// NewResolver creates a Resolver. Entries with an empty directory are dropped.
func NewResolver(dirs map[Category]string) *Resolver {
	r := &Resolver{dirs: make(map[Category]string, len(dirs))}
	for c, dir := range dirs {
		if dir != "" {
			r.dirs[c] = dir
		}
	}
	return r
}

// Resolve returns the base directory for c.
func (r *Resolver) Resolve(c Category) (string, error) {
	dir, ok := r.dirs[c]
	if !ok {
		return "", ErrUnsupportedDestination
	}
	return dir, nil
}

// Dirs returns all configured directories.
func (r *Resolver) Dirs() []string {
	out := make([]string, 0, len(r.dirs))
	for _, c := range []Category{ProfileImage, TeamImage, Video} {
		if dir, ok := r.dirs[c]; ok {
			out = append(out, dir)
		}
	}
	return out
}

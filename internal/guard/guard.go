// Package guard resolves working directories to canonical paths and decides
// whether they fall inside the configured allow-list.
//
// Containment is judged on canonical paths (absolute, symlinks resolved,
// "." and ".." removed) and compared segment by segment, so /tmp/project-x is
// never treated as inside /tmp/project.
package guard

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrNotFound is returned by Resolve when the target does not exist.
	ErrNotFound = errors.New("directory does not exist")
	// ErrNotDirectory is returned by Check when the target is not a directory.
	ErrNotDirectory = errors.New("path is not a directory")
	// ErrNotAllowed is returned by Authorize when the target is outside every allowed root.
	ErrNotAllowed = errors.New("directory not in allowed list")
)

// Guard authorizes directories against an ordered allow-list. An empty
// allow-list permits every directory.
type Guard struct {
	allowed []string
}

// New creates a Guard for the given allowed roots. The slice is copied.
func New(allowedDirs []string) *Guard {
	allowed := make([]string, len(allowedDirs))
	copy(allowed, allowedDirs)
	return &Guard{allowed: allowed}
}

// AllowAll reports whether the guard permits every directory.
func (g *Guard) AllowAll() bool {
	return len(g.allowed) == 0
}

// Resolve returns the canonical form of path. A path that does not exist
// yields an error wrapping ErrNotFound.
func (g *Guard) Resolve(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", path, err)
	}

	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return "", fmt.Errorf("resolve %s: %w", path, err)
	}
	return filepath.Clean(resolved), nil
}

// Authorize reports whether path (expected to exist) is equal to or below
// one of the allowed roots. Roots are tried in configured order.
func (g *Guard) Authorize(path string) error {
	if g.AllowAll() {
		return nil
	}

	target := canonical(path)
	for _, root := range g.allowed {
		if within(target, canonical(root)) {
			return nil
		}
	}

	return fmt.Errorf("%w: %s", ErrNotAllowed, path)
}

// Check runs the full directory pipeline in order: resolve (existence),
// directory check, then authorization. The first failing stage wins; on
// success the canonical path is returned.
func (g *Guard) Check(path string) (string, error) {
	resolved, err := g.Resolve(path)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrNotDirectory, path)
	}

	if err := g.Authorize(resolved); err != nil {
		return "", err
	}
	return resolved, nil
}

// canonical resolves symlinks when the path exists and falls back to the
// cleaned absolute path otherwise.
func canonical(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = filepath.Clean(path)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return filepath.Clean(resolved)
	}
	return abs
}

func within(path, root string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

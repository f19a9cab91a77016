package fs

import (
	iofs "io/fs"
	"iter"
	"path/filepath"
	"slices"

	"github.com/bmatcuk/doublestar/v4"
	"go.trai.ch/stencil/internal/core/ports"
)

// skippedDirs are never descended into.
var skippedDirs = []string{".git", ".jj"}

// Walker walks a workspace tree, honoring doublestar ignore patterns relative to the root.
type Walker struct {
	fs ports.FileSystem
}

// NewWalker creates a new Walker over fsys.
func NewWalker(fsys ports.FileSystem) *Walker {
	return &Walker{fs: fsys}
}

// WalkFiles yields every file under root that is not ignored.
// Unreadable subtrees are skipped.
func (w *Walker) WalkFiles(root string, ignores []string) iter.Seq[string] {
	return func(yield func(string) bool) {
		_ = w.fs.WalkDir(root, func(path string, d iofs.DirEntry, err error) error {
			if err != nil {
				if d != nil && d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			if d.IsDir() {
				return w.shouldSkip(root, path, d, ignores)
			}
			if Ignored(root, path, ignores) {
				return nil
			}

			if !yield(path) {
				return filepath.SkipAll
			}
			return nil
		})
	}
}

// FindDirs yields every directory under root whose base name is one of names,
// in walk order. Matched directories are still descended into.
func (w *Walker) FindDirs(root string, ignores []string, names ...string) iter.Seq[string] {
	return func(yield func(string) bool) {
		_ = w.fs.WalkDir(root, func(path string, d iofs.DirEntry, err error) error {
			if err != nil {
				if d != nil && d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if !d.IsDir() {
				return nil
			}
			if skip := w.shouldSkip(root, path, d, ignores); skip != nil {
				return skip
			}
			if path != root && slices.Contains(names, d.Name()) {
				if !yield(path) {
					return filepath.SkipAll
				}
			}
			return nil
		})
	}
}

// shouldSkip returns filepath.SkipDir for directories that must not be descended into.
func (w *Walker) shouldSkip(root, path string, d iofs.DirEntry, ignores []string) error {
	if !d.IsDir() || path == root {
		return nil
	}
	if slices.Contains(skippedDirs, d.Name()) {
		return filepath.SkipDir
	}
	if Ignored(root, path, ignores) {
		return filepath.SkipDir
	}
	return nil
}

// Ignored reports whether path, taken relative to root, matches one of the ignore patterns.
// Invalid patterns never match.
func Ignored(root, path string, ignores []string) bool {
	if len(ignores) == 0 {
		return false
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	for _, pattern := range ignores {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

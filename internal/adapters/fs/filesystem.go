// Package fs provides file system adapters for probing, walking and fingerprinting files.
package fs

import (
	iofs "io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.trai.ch/stencil/internal/core/ports"
)

var (
	_ ports.FileSystem = (*OSFS)(nil)
	_ ports.FileSystem = (*MapFSAdapter)(nil)
)

// OSFS implements ports.FileSystem using the standard library.
type OSFS struct{}

// NewOSFS creates a new OSFS instance.
func NewOSFS() *OSFS {
	return &OSFS{}
}

// Stat returns file info for the given path.
func (o *OSFS) Stat(path string) (iofs.FileInfo, error) {
	return os.Stat(path)
}

// ReadFile reads the entire file at path.
func (o *OSFS) ReadFile(path string) ([]byte, error) {
	// #nosec G304 -- paths come from the workspace walk or configured roots
	return os.ReadFile(path)
}

// WalkDir walks the tree rooted at root.
func (o *OSFS) WalkDir(root string, fn iofs.WalkDirFunc) error {
	return filepath.WalkDir(root, fn)
}

// MapFSAdapter adapts an fs.FS such as fstest.MapFS to ports.FileSystem for testing.
// Absolute paths under Root are mapped onto the FS.
type MapFSAdapter struct {
	FS   iofs.FS
	Root string // simulated root path
}

// NewMapFSAdapter creates a new MapFSAdapter with the given root path and filesystem.
func NewMapFSAdapter(root string, fsys iofs.FS) *MapFSAdapter {
	return &MapFSAdapter{
		FS:   fsys,
		Root: filepath.Clean(root),
	}
}

// Stat returns file info for the given path.
func (m *MapFSAdapter) Stat(path string) (iofs.FileInfo, error) {
	return iofs.Stat(m.FS, m.toRelPath(path))
}

// ReadFile reads the entire file at path.
func (m *MapFSAdapter) ReadFile(path string) ([]byte, error) {
	return iofs.ReadFile(m.FS, m.toRelPath(path))
}

// WalkDir walks the tree rooted at root, reporting absolute paths.
func (m *MapFSAdapter) WalkDir(root string, fn iofs.WalkDirFunc) error {
	return iofs.WalkDir(m.FS, m.toRelPath(root), func(p string, d iofs.DirEntry, err error) error {
		return fn(m.toAbsPath(p), d, err)
	})
}

// toRelPath converts an absolute path to a relative path within the filesystem.
// Paths outside the root are returned unchanged, which makes fs operations fail
// with a not-exist or invalid-path error.
func (m *MapFSAdapter) toRelPath(absPath string) string {
	if !filepath.IsAbs(absPath) {
		return filepath.ToSlash(absPath)
	}

	absPath = filepath.Clean(absPath)
	if absPath == m.Root {
		return "."
	}

	prefix := m.Root + string(filepath.Separator)
	if m.Root == string(filepath.Separator) {
		prefix = m.Root
	}
	if !strings.HasPrefix(absPath, prefix) {
		return absPath
	}

	return filepath.ToSlash(strings.TrimPrefix(absPath, prefix))
}

func (m *MapFSAdapter) toAbsPath(rel string) string {
	if rel == "." {
		return m.Root
	}
	return filepath.Join(m.Root, filepath.FromSlash(rel))
}

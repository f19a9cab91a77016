package ports

import "io/fs"

// FileSystem abstracts the filesystem operations the index needs.
// Probes use Stat only; ReadFile is reserved for scanning markers.
//
//go:generate mockgen -source=filesystem.go -destination=mocks/mock_filesystem.go -package=mocks
type FileSystem interface {
	// Stat returns file info for the given path.
	Stat(path string) (fs.FileInfo, error)
	// ReadFile reads the entire file at path.
	ReadFile(path string) ([]byte, error)
	// WalkDir walks the tree rooted at root, calling fn for each file or directory.
	// Paths passed to fn are absolute.
	WalkDir(root string, fn fs.WalkDirFunc) error
}

// Package loader reads configuration layers into generic maps: TOML files
// and LISTVIEW_ environment variables. The config package merges the layers
// and decodes the result.
package loader

import (
	"io/fs"
	"os"
)

// Loader is implemented by every configuration layer source.
type Loader interface {
	// Load returns the layer, or nil, nil when the source does not exist.
	Load() (map[string]any, error)
}

// FileSystem abstracts file reads so tests can use in-memory files.
type FileSystem interface {
	ReadFile(path string) ([]byte, error)
}

// OSFS reads from the real file system.
type OSFS struct{}

// ReadFile implements FileSystem.
func (OSFS) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// FSAdapter adapts an io/fs file system.
type FSAdapter struct {
	FS fs.FS
}

// ReadFile implements FileSystem.
func (a FSAdapter) ReadFile(path string) ([]byte, error) {
	return fs.ReadFile(a.FS, path)
}

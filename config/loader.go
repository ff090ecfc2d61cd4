// Package config loads declarative dispatcher configuration: predeclared
// event templates and per-event default priorities. Configuration files
// are TOML or YAML; loading follows the Loader/FileSystem split so tests
// can feed in-memory files.
package config

import (
	"io"
	"io/fs"
	"os"
)

// Loader is the interface for configuration loaders.
type Loader interface {
	// Load reads configuration from the source.
	// Returns nil, nil if the source doesn't exist (not an error).
	Load() (*Config, error)
}

// ReaderLoader is implemented by loaders that can read from an io.Reader.
type ReaderLoader interface {
	// LoadFromReader reads configuration from a reader.
	LoadFromReader(r io.Reader) (*Config, error)
}

// FileSystem abstracts file access so loaders can be tested against an
// in-memory file system.
type FileSystem interface {
	fs.FS
	// ReadFile reads the entire file at path.
	ReadFile(path string) ([]byte, error)
}

// OSFS implements FileSystem using the real OS file system.
type OSFS struct{}

// Open implements fs.FS.
func (OSFS) Open(name string) (fs.File, error) {
	return os.Open(name)
}

// ReadFile implements FileSystem.
func (OSFS) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// DefaultFS returns the OS-backed file system.
func DefaultFS() FileSystem {
	return OSFS{}
}

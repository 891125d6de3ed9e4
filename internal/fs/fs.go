package fs

import (
	"io"
	"os"
)

// File is an open file as the local blob store uses it.
type File interface {
	io.ReadWriteCloser
	Sync() error
	Name() string
}

// FileSystem is the set of file operations behind the local blob store:
// stage a blob in a temp file, publish it by rename, read it back, list and
// remove it.
type FileSystem interface {
	// CreateTemp creates a new file in dir whose name starts with prefix
	// and ends in a random suffix. It never opens an existing file.
	CreateTemp(dir, prefix string) (File, error)
	// Open opens name read-only.
	Open(name string) (File, error)
	Remove(name string) error
	Rename(oldpath, newpath string) error
	MkdirAll(path string, perm os.FileMode) error
	ReadDir(name string) ([]os.DirEntry, error)
}

type osFS struct{}

func (osFS) CreateTemp(dir, prefix string) (File, error) {
	return os.CreateTemp(dir, prefix+"*")
}

func (osFS) Open(name string) (File, error) {
	return os.Open(name) //nolint:gosec // the blob store confines paths to its root
}

func (osFS) Remove(name string) error                     { return os.Remove(name) }
func (osFS) Rename(oldpath, newpath string) error         { return os.Rename(oldpath, newpath) }
func (osFS) MkdirAll(path string, perm os.FileMode) error { return os.MkdirAll(path, perm) }
func (osFS) ReadDir(name string) ([]os.DirEntry, error)   { return os.ReadDir(name) }

// Default is the operating system's file system.
var Default FileSystem = osFS{}

package artifact

import (
	"io"
	"os"
)

// tempFile is the subset of *os.File used while writing an artifact.
type tempFile interface {
	io.Writer
	Name() string
	Close() error
}

// fileSystem abstracts temp file creation and removal for testing.
type fileSystem interface {
	CreateTemp(dir, pattern string) (tempFile, error)
	Remove(name string) error
}

// --- Default implementation using real OS functions ---

type osFileSystem struct{}

func (osFileSystem) CreateTemp(dir, pattern string) (tempFile, error) {
	f, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (osFileSystem) Remove(name string) error {
	return os.Remove(name)
}

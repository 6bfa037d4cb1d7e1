// Package artifact manages the temporary audio files a synthesized reply
// lives in while it is played.
//
// Each reply gets its own uniquely named file. The file exists only between
// Acquire and Release; Release is idempotent and never fails the caller.
package artifact

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sync"

	"github.com/alnah/poddy/internal/log"
)

// Format is the container of an audio artifact.
type Format string

// Supported formats.
const (
	FormatMP3 Format = "mp3"
	FormatWAV Format = "wav"
	FormatPCM Format = "pcm"
)

// Ext returns the file extension including the dot.
func (f Format) Ext() string {
	if f == "" {
		return ".bin"
	}
	return "." + string(f)
}

// Artifact is a temporary audio file owned by the caller until released.
type Artifact struct {
	path   string
	size   int64
	format Format

	mu       sync.Mutex
	released bool
}

// Path returns the file path. Valid only until Release.
func (a *Artifact) Path() string { return a.path }

// Size returns the number of bytes written.
func (a *Artifact) Size() int64 { return a.size }

// Format returns the audio container.
func (a *Artifact) Format() Format { return a.format }

// WarnFunc receives cleanup failures that must not fail the caller.
type WarnFunc func(path string, err error)

// Store creates and releases artifacts.
type Store struct {
	dir    string
	fs     fileSystem
	warn   WarnFunc
	logger *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithDir sets the directory for artifacts. Empty means os.TempDir().
func WithDir(dir string) Option {
	return func(s *Store) { s.dir = dir }
}

// WithWarnFunc sets the cleanup warning callback.
func WithWarnFunc(fn WarnFunc) Option {
	return func(s *Store) {
		if fn != nil {
			s.warn = fn
		}
	}
}

// WithFileSystem sets the file system (for testing).
func WithFileSystem(fsys fileSystem) Option {
	return func(s *Store) { s.fs = fsys }
}

// WithLogger sets the diagnostics logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// NewStore creates a Store. Cleanup failures are logged at warn level
// unless a WarnFunc is provided.
func NewStore(opts ...Option) *Store {
	s := &Store{fs: osFileSystem{}, logger: log.For("artifact")}
	for _, opt := range opts {
		opt(s)
	}
	if s.warn == nil {
		s.warn = func(path string, err error) {
			s.logger.Warn("artifact cleanup failed", "path", path, "error", err)
		}
	}
	return s
}

// Acquire writes data to a new uniquely named file and returns it.
// On write failure the partial file is removed and no artifact is returned.
func (s *Store) Acquire(data []byte, f Format) (*Artifact, error) {
	if len(data) == 0 {
		return nil, ErrEmptyData
	}

	file, err := s.fs.CreateTemp(s.dir, "poddy-*"+f.Ext())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	path := file.Name()

	n, writeErr := file.Write(data)
	closeErr := file.Close()
	if writeErr == nil && n < len(data) {
		writeErr = fmt.Errorf("short write: %d of %d bytes", n, len(data))
	}
	if err := errors.Join(writeErr, closeErr); err != nil {
		if rmErr := s.fs.Remove(path); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			s.warn(path, rmErr)
		}
		return nil, fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}

	s.logger.Debug("artifact acquired", "path", path, "bytes", n, "format", string(f))
	return &Artifact{path: path, size: int64(n), format: f}, nil
}

// Release deletes the artifact's file. It is safe to call more than once
// and on nil. A file that is already gone counts as released; any other
// removal error is reported to the WarnFunc.
func (s *Store) Release(a *Artifact) {
	if a == nil {
		return
	}
	a.mu.Lock()
	if a.released {
		a.mu.Unlock()
		return
	}
	a.released = true
	a.mu.Unlock()

	if err := s.fs.Remove(a.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.warn(a.path, err)
		return
	}
	s.logger.Debug("artifact released", "path", a.path)
}

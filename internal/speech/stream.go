package speech

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"
)

// ChunkStream yields audio bytes in arrival order. It can be consumed once:
// after Next has returned io.EOF or an error, or after Close, every further
// Next returns ErrStreamConsumed.
type ChunkStream interface {
	Next() ([]byte, error)
	Close() error
}

// Drain reads every chunk of s in order, concatenates them, and closes s.
func Drain(s ChunkStream) ([]byte, error) {
	var buf bytes.Buffer
	readErr := func() error {
		for {
			chunk, err := s.Next()
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return err
			}
			buf.Write(chunk)
		}
	}()
	closeErr := s.Close()

	if readErr != nil {
		return nil, readErr
	}
	if closeErr != nil {
		return nil, fmt.Errorf("%w: close stream: %v", ErrTransport, closeErr)
	}
	return buf.Bytes(), nil
}

// onceStream enforces single-pass semantics over a raw chunk source.
type onceStream struct {
	next  func() ([]byte, error)
	close func() error

	mu       sync.Mutex
	consumed bool
	closed   bool
}

func newOnceStream(next func() ([]byte, error), closeFn func() error) *onceStream {
	return &onceStream{next: next, close: closeFn}
}

func (s *onceStream) Next() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.consumed || s.closed {
		return nil, ErrStreamConsumed
	}
	chunk, err := s.next()
	if err != nil {
		s.consumed = true
		return nil, err
	}
	return chunk, nil
}

func (s *onceStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.close == nil {
		return nil
	}
	return s.close()
}

// readerChunkSize bounds one chunk read from an HTTP body.
const readerChunkSize = 4096

// newReaderStream streams an HTTP response body. Read errors are reported
// as ErrTransport.
func newReaderStream(body io.ReadCloser) ChunkStream {
	buf := make([]byte, readerChunkSize)
	return newOnceStream(func() ([]byte, error) {
		for {
			n, err := body.Read(buf)
			if n > 0 {
				chunk := make([]byte, n)
				copy(chunk, buf[:n])
				return chunk, nil
			}
			if errors.Is(err, io.EOF) {
				return nil, io.EOF
			}
			if err != nil {
				return nil, fmt.Errorf("%w: read body: %v", ErrTransport, err)
			}
		}
	}, body.Close)
}

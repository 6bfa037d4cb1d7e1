package speech

import (
	"context"
	"io"
	"time"
)

// Export internal functions for testing.
// This file is only compiled during tests (suffix _test.go).

var WithSleep = withSleep

type (
	HTTPDoer      = httpDoer
	ArtifactStore = artifactStore
)

// NewSliceStream returns a single-pass stream over fixed chunks.
func NewSliceStream(chunks ...[]byte) ChunkStream {
	i := 0
	return newOnceStream(func() ([]byte, error) {
		if i >= len(chunks) {
			return nil, io.EOF
		}
		c := chunks[i]
		i++
		return c, nil
	}, nil)
}

// NewReaderStream exports newReaderStream for testing.
func NewReaderStream(body io.ReadCloser) ChunkStream { return newReaderStream(body) }

// NoSleep skips the settle delay and records requested durations.
func NoSleep(got *[]time.Duration) Option {
	return withSleep(func(_ context.Context, d time.Duration) { *got = append(*got, d) })
}

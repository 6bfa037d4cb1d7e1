package audio_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"time"

	"github.com/alnah/poddy/internal/audio"
)

var (
	_ audio.FFmpegRunner   = (*mockFFmpegRunner)(nil)
	_ audio.PactlRunner    = (*mockPactlRunner)(nil)
	_ audio.CaptureProcess = (*fakeProcess)(nil)
	_ audio.TempDirCreator = (*mockTempDir)(nil)
	_ audio.FileStore      = (*mockFileStore)(nil)
)

type mockFFmpegRunner struct {
	mu     sync.Mutex
	output string
	err    error
	calls  [][]string
	// block, when set, waits for ctx before returning.
	block bool
}

func (m *mockFFmpegRunner) RunOutput(ctx context.Context, _ string, args []string) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, args)
	m.mu.Unlock()
	if m.block {
		<-ctx.Done()
		return "", errors.New("signal: killed")
	}
	return m.output, m.err
}

func (m *mockFFmpegRunner) lastArgs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return nil
	}
	return m.calls[len(m.calls)-1]
}

type mockPactlRunner struct {
	output string
	err    error
}

func (m *mockPactlRunner) ListSources(context.Context) (string, error) {
	return m.output, m.err
}

// fakeProcess replays stderr lines. The channel stays open unless closeAfter
// is set, so tests decide whether the stream ends on its own.
type fakeProcess struct {
	lines   chan string
	waitErr error
	stopErr error

	mu      sync.Mutex
	stopped bool
}

func newFakeProcess(closeAfter bool, lines ...string) *fakeProcess {
	ch := make(chan string, len(lines))
	for _, l := range lines {
		ch <- l
	}
	if closeAfter {
		close(ch)
	}
	return &fakeProcess{lines: ch}
}

func (p *fakeProcess) Lines() <-chan string { return p.lines }

func (p *fakeProcess) Stop(time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopped = true
	return p.stopErr
}

func (p *fakeProcess) Wait() error { return p.waitErr }

func (p *fakeProcess) wasStopped() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stopped
}

type mockTempDir struct {
	dir string
	err error
}

func (m *mockTempDir) MkdirTemp(string, string) (string, error) {
	return m.dir, m.err
}

type mockFileStore struct {
	mu      sync.Mutex
	files   map[string][]byte
	read    []string
	removed []string
}

func (m *mockFileStore) ReadFile(name string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.read = append(m.read, name)
	data, ok := m.files[name]
	if !ok {
		return nil, os.ErrNotExist
	}
	return data, nil
}

func (m *mockFileStore) RemoveAll(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removed = append(m.removed, path)
	return nil
}

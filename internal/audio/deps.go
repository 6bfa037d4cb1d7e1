package audio

import (
	"context"
	"os"
	"os/exec"
	"time"

	"github.com/alnah/poddy/internal/ffmpeg"
)

// ffmpegRunner runs a binary to completion and returns its stderr.
type ffmpegRunner interface {
	RunOutput(ctx context.Context, path string, args []string) (string, error)
}

// pactlRunner runs pactl for PulseAudio device discovery.
type pactlRunner interface {
	ListSources(ctx context.Context) (string, error)
}

// captureProcess is a running capture whose stderr is streamed.
// *ffmpeg.Process implements it.
type captureProcess interface {
	Lines() <-chan string
	Stop(timeout time.Duration) error
	Wait() error
}

// processStarter launches a capture process.
type processStarter func(path string, args []string) (captureProcess, error)

// tempDirCreator creates temporary directories.
type tempDirCreator interface {
	MkdirTemp(dir, pattern string) (string, error)
}

// fileStore reads and removes capture output.
type fileStore interface {
	ReadFile(name string) ([]byte, error)
	RemoveAll(path string) error
}

var (
	_ captureProcess = (*ffmpeg.Process)(nil)
	_ ffmpegRunner   = (*ffmpeg.Executor)(nil)
)

// --- Default implementations using real OS functions ---

func startFFmpeg(path string, args []string) (captureProcess, error) {
	p, err := ffmpeg.Start(path, args)
	if err != nil {
		return nil, err
	}
	return p, nil
}

type defaultFFmpegRunner struct{}

func (defaultFFmpegRunner) RunOutput(ctx context.Context, path string, args []string) (string, error) {
	return ffmpeg.RunOutput(ctx, path, args)
}

type defaultPactlRunner struct{}

func (defaultPactlRunner) ListSources(ctx context.Context) (string, error) {
	out, err := exec.CommandContext(ctx, "pactl", "list", "sources", "short").Output()
	if err != nil {
		return "", err
	}
	return string(out), nil
}

type osTempDirCreator struct{}

func (osTempDirCreator) MkdirTemp(dir, pattern string) (string, error) {
	return os.MkdirTemp(dir, pattern)
}

type osFileStore struct{}

func (osFileStore) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(name) // #nosec G304 -- path is inside our own temp dir
}

func (osFileStore) RemoveAll(path string) error {
	return os.RemoveAll(path)
}

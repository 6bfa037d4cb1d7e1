package ffmpeg

import (
	"bytes"
	"context"
	"os/exec"
	"sync"
)

// ---------------------------------------------------------------------------
// Executor - testable one-shot execution with dependency injection
// ---------------------------------------------------------------------------

// runOutputFn runs a command to completion and returns its stderr.
type runOutputFn func(ctx context.Context, path string, args []string) (string, error)

// Executor runs ffmpeg-family binaries (ffmpeg, ffplay) to completion.
type Executor struct {
	runOutput runOutputFn
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithRunOutput sets a custom runOutput function (for testing).
func WithRunOutput(fn runOutputFn) ExecutorOption {
	return func(e *Executor) { e.runOutput = fn }
}

// NewExecutor creates an Executor with the given options.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{runOutput: defaultRunOutput}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RunOutput executes the binary and captures its stderr.
// The process is killed when ctx is done.
func (e *Executor) RunOutput(ctx context.Context, path string, args []string) (string, error) {
	return e.runOutput(ctx, path, args)
}

// defaultRunOutput returns stderr even when the command fails: ffmpeg exits
// non-zero for -list_devices and ffplay reports decode errors there.
func defaultRunOutput(ctx context.Context, path string, args []string) (string, error) {
	cmd := exec.CommandContext(ctx, path, args...) // #nosec G204 -- path comes from Resolver

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stderr.String(), err
}

var (
	defaultExecutor     *Executor
	defaultExecutorOnce sync.Once
)

func getDefaultExecutor() *Executor {
	defaultExecutorOnce.Do(func() {
		defaultExecutor = NewExecutor()
	})
	return defaultExecutor
}

// RunOutput executes a binary with the default executor.
func RunOutput(ctx context.Context, path string, args []string) (string, error) {
	return getDefaultExecutor().RunOutput(ctx, path, args)
}

package audio

import (
	"context"
	"fmt"
	"strings"

	"github.com/alnah/poddy/internal/ffmpeg"
)

// Player plays an audio file to completion.
type Player interface {
	Play(ctx context.Context, path string) error
}

var _ Player = (*FFplayPlayer)(nil)

// FFplayPlayer plays files with ffplay, without a window.
type FFplayPlayer struct {
	ffplayPath string
	runner     ffmpegRunner
}

// PlayerOption configures an FFplayPlayer.
type PlayerOption func(*FFplayPlayer)

// WithPlayerRunner sets the runner used to invoke ffplay.
func WithPlayerRunner(r ffmpegRunner) PlayerOption {
	return func(p *FFplayPlayer) { p.runner = r }
}

// NewFFplayPlayer creates a player. ffplayPath must point to ffplay.
func NewFFplayPlayer(ffplayPath string, opts ...PlayerOption) (*FFplayPlayer, error) {
	if ffplayPath == "" {
		return nil, fmt.Errorf("ffplayPath cannot be empty: %w", ffmpeg.ErrNotFound)
	}
	p := &FFplayPlayer{ffplayPath: ffplayPath, runner: defaultFFmpegRunner{}}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Play blocks until playback finishes. Cancelling ctx stops playback and
// returns ctx.Err().
func (p *FFplayPlayer) Play(ctx context.Context, path string) error {
	args := []string{"-nodisp", "-autoexit", "-hide_banner", "-loglevel", "error", path}
	stderr, err := p.runner.RunOutput(ctx, p.ffplayPath, args)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if err != nil {
		if msg := strings.TrimSpace(stderr); msg != "" {
			return fmt.Errorf("%w: %v: %s", ErrPlayback, err, msg)
		}
		return fmt.Errorf("%w: %v", ErrPlayback, err)
	}
	return nil
}

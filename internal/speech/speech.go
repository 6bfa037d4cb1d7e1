// Package speech turns reply text into audible speech: it streams synthesized
// audio from ElevenLabs, stores it in a temporary artifact, and plays it.
//
// Speak never returns an error. Every failure is reported as an Outcome so
// the conversation loop can continue; the artifact is released on every path.
package speech

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/alnah/poddy/internal/artifact"
	"github.com/alnah/poddy/internal/audio"
	"github.com/alnah/poddy/internal/log"
)

// DefaultSettleDelay is the pause after playback before the file is
// deleted. Some players return before releasing their handle on the file.
const DefaultSettleDelay = 200 * time.Millisecond

// reasonEmptyPayload is the fixed Failed reason for zero-byte audio.
const reasonEmptyPayload = "empty audio payload"

// Voice selects the speaker and synthesis model.
type Voice struct {
	ID    string
	Model string // empty means DefaultModel
}

func (v Voice) model() string {
	if v.Model == "" {
		return DefaultModel
	}
	return v.Model
}

// Kind classifies a Speak outcome.
type Kind int

// Outcome kinds.
const (
	Done Kind = iota
	Skipped
	Failed
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case Done:
		return "done"
	case Skipped:
		return "skipped"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Outcome reports how Speak ended. Reason is a short human description;
// Err carries the classified error for Failed outcomes.
type Outcome struct {
	Kind   Kind
	Reason string
	Err    error
}

// StreamSource synthesizes text into a stream of audio chunks.
type StreamSource interface {
	Stream(ctx context.Context, text string, voice Voice) (ChunkStream, error)
	Format() artifact.Format
}

// artifactStore is implemented by *artifact.Store.
type artifactStore interface {
	Acquire(data []byte, f artifact.Format) (*artifact.Artifact, error)
	Release(a *artifact.Artifact)
}

var _ artifactStore = (*artifact.Store)(nil)

// Stage identifies a progress event.
type Stage int

// Progress stages.
const (
	StageSynthesizing Stage = iota
	StagePlaying
)

// ProgressFunc receives stage changes. size is the audio size in bytes for
// StagePlaying and zero otherwise.
type ProgressFunc func(stage Stage, size int64)

// Synthesizer speaks text aloud.
type Synthesizer struct {
	source   StreamSource
	store    artifactStore
	player   audio.Player
	settle   time.Duration
	sleep    func(ctx context.Context, d time.Duration)
	progress ProgressFunc
	logger   *slog.Logger
}

// Option configures a Synthesizer.
type Option func(*Synthesizer)

// WithSettleDelay overrides DefaultSettleDelay. Zero disables the pause.
func WithSettleDelay(d time.Duration) Option {
	return func(s *Synthesizer) {
		if d >= 0 {
			s.settle = d
		}
	}
}

// WithProgress sets the progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(s *Synthesizer) { s.progress = fn }
}

// WithSynthesizerLogger sets the diagnostics logger.
func WithSynthesizerLogger(l *slog.Logger) Option {
	return func(s *Synthesizer) { s.logger = l }
}

// withSleep overrides the settle sleep (for testing).
func withSleep(fn func(ctx context.Context, d time.Duration)) Option {
	return func(s *Synthesizer) { s.sleep = fn }
}

// NewSynthesizer creates a Synthesizer. store is usually *artifact.Store.
func NewSynthesizer(source StreamSource, store artifactStore, player audio.Player, opts ...Option) *Synthesizer {
	s := &Synthesizer{
		source:   source,
		store:    store,
		player:   player,
		settle:   DefaultSettleDelay,
		sleep:    sleepCtx,
		progress: func(Stage, int64) {},
		logger:   log.For("speech"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Speak synthesizes text and plays it to completion.
//
// Empty text is Skipped without any network or file activity. Zero audio
// bytes is Failed with reason "empty audio payload" and nothing is written
// or played. Transport, write, and playback errors are Failed. A panic in a
// collaborator is recovered and reported as Failed.
func (s *Synthesizer) Speak(ctx context.Context, text string, voice Voice) (out Outcome) {
	if strings.TrimSpace(text) == "" {
		return Outcome{Kind: Skipped, Reason: "no text to speak"}
	}

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("%w: panic: %v", ErrTransport, r)
			s.logger.Error("synthesis panicked", "panic", r)
			out = failed(err.Error(), err)
		}
	}()

	start := time.Now()
	s.progress(StageSynthesizing, 0)

	stream, err := s.source.Stream(ctx, text, voice)
	if err != nil {
		return failed(err.Error(), transportErr(err))
	}
	data, err := Drain(stream)
	if err != nil {
		return failed(err.Error(), transportErr(err))
	}
	if len(data) == 0 {
		return failed(reasonEmptyPayload, ErrEmptyPayload)
	}

	format := s.source.Format()
	attrs := []any{"bytes", len(data), "latency_ms", time.Since(start).Milliseconds()}
	if format == artifact.FormatMP3 {
		if d, err := EstimateDuration(data); err == nil {
			attrs = append(attrs, "duration", d.Round(time.Millisecond))
		}
	}
	s.logger.Debug("synthesized", attrs...)

	art, err := s.store.Acquire(data, format)
	if err != nil {
		return failed(err.Error(), err)
	}
	defer s.store.Release(art)

	s.progress(StagePlaying, art.Size())
	playErr := s.player.Play(ctx, art.Path())
	if ctx.Err() == nil {
		s.sleep(ctx, s.settle)
	}
	if playErr != nil {
		err := fmt.Errorf("%w: %w", ErrPlayback, playErr)
		return failed(err.Error(), err)
	}
	return Outcome{Kind: Done}
}

func failed(reason string, err error) Outcome {
	return Outcome{Kind: Failed, Reason: reason, Err: err}
}

// transportErr ensures err wraps ErrTransport.
func transportErr(err error) error {
	if errors.Is(err, ErrTransport) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrTransport, err)
}

func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

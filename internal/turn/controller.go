// Package turn runs the spoken conversation loop.
//
// Each turn moves through Listening, Transcribing, Responding and
// Synthesizing, then back to Listening. Stage failures are absorbed: a turn
// always ends with an Outcome and never an error, so only an exit phrase or
// an interrupt ends the loop.
package turn

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/alnah/poddy/internal/audio"
	"github.com/alnah/poddy/internal/lang"
	"github.com/alnah/poddy/internal/log"
	"github.com/alnah/poddy/internal/respond"
	"github.com/alnah/poddy/internal/speech"
	"github.com/alnah/poddy/internal/transcribe"
)

// Spoken lines.
const (
	DefaultGreeting = "Merhaba, ben sizin sesli asistanınızım. Nasıl yardımcı olabilirim?"
	DefaultFarewell = "Görüşmek üzere, kendinize iyi bakın!"
	DefaultMishear  = "Üzgünüm, anlayamadım."
)

// DefaultExitPhrases end the conversation when heard anywhere in a transcript.
var DefaultExitPhrases = []string{"güle güle", "hoşça kal", "kapat", "çıkış", "bitir"}

// DefaultLanguage is the recognition and case-folding locale.
var DefaultLanguage = lang.MustParse("tr-TR")

// Responder produces the reply for a transcript. It must not fail.
type Responder interface {
	Respond(ctx context.Context, prompt string) string
}

// Speaker synthesizes and plays text.
type Speaker interface {
	Speak(ctx context.Context, text string, voice speech.Voice) speech.Outcome
}

// Compile-time interface compliance checks.
var (
	_ Responder = (*respond.Responder)(nil)
	_ Speaker   = (*speech.Synthesizer)(nil)
)

// Controller owns the conversation state. It is not safe for concurrent use;
// turns are strictly sequential.
type Controller struct {
	capturer    audio.Capturer
	transcriber transcribe.Transcriber
	responder   Responder
	speaker     Speaker

	language    lang.Language
	voice       speech.Voice
	exitPhrases []string // folded with language
	policy      MishearPolicy
	capture     audio.CaptureOptions
	greeting    string
	farewell    string
	mishear     string

	state         State
	onState       func(State)
	stopRequested func() bool
	out           io.Writer
	logger        *slog.Logger
	newID         func() string
}

// Option configures a Controller.
type Option func(*Controller)

// WithLanguage sets the recognition locale. It also decides how transcripts
// and exit phrases are case-folded.
func WithLanguage(l lang.Language) Option {
	return func(c *Controller) {
		if !l.IsZero() {
			c.language = l
		}
	}
}

// WithVoice sets the synthesis voice.
func WithVoice(v speech.Voice) Option {
	return func(c *Controller) { c.voice = v }
}

// WithExitPhrases replaces the exit phrase list. Blank entries are ignored.
func WithExitPhrases(phrases []string) Option {
	return func(c *Controller) {
		if len(phrases) > 0 {
			c.exitPhrases = phrases
		}
	}
}

// WithMishearPolicy sets what happens when nothing usable was heard.
func WithMishearPolicy(p MishearPolicy) Option {
	return func(c *Controller) { c.policy = p }
}

// WithCaptureOptions sets the listen timeout and maximum phrase length.
func WithCaptureOptions(o audio.CaptureOptions) Option {
	return func(c *Controller) { c.capture = o }
}

// WithGreeting sets the line spoken once before the first turn.
// An empty greeting is skipped.
func WithGreeting(s string) Option {
	return func(c *Controller) { c.greeting = s }
}

// WithFarewell sets the line spoken when an exit phrase is heard.
func WithFarewell(s string) Option {
	return func(c *Controller) { c.farewell = s }
}

// WithMishearLine sets the line spoken under MishearAnnounce.
func WithMishearLine(s string) Option {
	return func(c *Controller) {
		if s != "" {
			c.mishear = s
		}
	}
}

// WithStopRequested installs a check made between turns. When it reports
// true, Run returns context.Canceled without a farewell.
func WithStopRequested(fn func() bool) Option {
	return func(c *Controller) { c.stopRequested = fn }
}

// WithStateObserver receives every state change.
func WithStateObserver(fn func(State)) Option {
	return func(c *Controller) { c.onState = fn }
}

// WithOutput sets the writer for console status lines.
func WithOutput(w io.Writer) Option {
	return func(c *Controller) { c.out = w }
}

// WithLogger sets the diagnostics logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// withIDs overrides turn ID generation (for testing).
func withIDs(fn func() string) Option {
	return func(c *Controller) { c.newID = fn }
}

// NewController creates a Controller in the Listening state.
func NewController(capt audio.Capturer, tr transcribe.Transcriber, resp Responder, sp Speaker, opts ...Option) (*Controller, error) {
	if capt == nil || tr == nil || resp == nil || sp == nil {
		return nil, ErrMissingCollaborator
	}

	c := &Controller{
		capturer:    capt,
		transcriber: tr,
		responder:   resp,
		speaker:     sp,
		language:    DefaultLanguage,
		exitPhrases: DefaultExitPhrases,
		policy:      MishearSilent,
		greeting:    DefaultGreeting,
		farewell:    DefaultFarewell,
		mishear:     DefaultMishear,
		state:       Listening,
		out:         os.Stderr,
		logger:      log.For("turn"),
		newID:       uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.exitPhrases = foldPhrases(c.language, c.exitPhrases)
	return c, nil
}

// State returns the current state.
func (c *Controller) State() State { return c.state }

// ExitPhrases returns the folded exit phrases.
func (c *Controller) ExitPhrases() []string {
	return append([]string(nil), c.exitPhrases...)
}

// Run greets the user, then runs turns until an exit phrase is heard (nil)
// or the loop is interrupted (ctx.Err() or context.Canceled).
func (c *Controller) Run(ctx context.Context) error {
	c.logger.Info("conversation started", "language", c.language.String(), "voice", c.voice.ID)

	if c.greeting != "" {
		c.speak(ctx, c.logger, c.greeting)
	}

	for {
		if err := c.interrupted(ctx); err != nil {
			c.setState(Stopped)
			c.logger.Info("conversation interrupted")
			return err
		}
		if c.Turn(ctx) == OutcomeExit {
			c.logger.Info("conversation ended")
			return nil
		}
	}
}

func (c *Controller) interrupted(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.stopRequested != nil && c.stopRequested() {
		return context.Canceled
	}
	return nil
}

// Turn runs one listen-to-playback cycle. It never panics and never fails;
// every stage problem is reported through the returned Outcome.
func (c *Controller) Turn(ctx context.Context) Outcome {
	logger := c.logger.With("turn", c.newID())

	c.setState(Listening)
	fmt.Fprintln(c.out, "Listening...")
	utt, err := c.listen(ctx)
	if errors.Is(err, audio.ErrCaptureTimeout) {
		fmt.Fprintln(c.out, "Timed out: no speech detected.")
		logger.Debug("listen timeout")
		return OutcomeTimeout
	}
	if err != nil {
		if ctx.Err() == nil {
			fmt.Fprintf(c.out, "Warning: could not capture audio: %v\n", err)
		}
		logger.Warn("capture failed", "error", err)
		return OutcomeCaptureFailed
	}

	c.setState(Transcribing)
	fmt.Fprintln(c.out, "Transcribing...")
	res := c.transcribe(ctx, utt)
	if res.Kind != transcribe.KindText {
		logger.Debug("misheard", "kind", res.Kind.String(), "detail", res.Detail)
		c.misheard(ctx, logger, res)
		c.setState(Listening)
		return OutcomeMisheard
	}
	fmt.Fprintf(c.out, "You: %s\n", res.Text)

	if phrase, ok := c.matchExit(res.Text); ok {
		logger.Info("exit phrase heard", "phrase", phrase)
		c.setState(Terminating)
		if c.farewell != "" {
			c.speak(ctx, logger, c.farewell)
		}
		c.setState(Stopped)
		return OutcomeExit
	}

	c.setState(Responding)
	fmt.Fprintln(c.out, "Thinking...")
	reply := c.respond(ctx, res.Text)
	fmt.Fprintf(c.out, "Assistant: %s\n", reply)

	c.setState(Synthesizing)
	c.speak(ctx, logger, reply)

	c.setState(Listening)
	return OutcomeAnswered
}

// listen wraps Capture so a panicking capturer counts as a capture failure.
func (c *Controller) listen(ctx context.Context) (utt audio.Utterance, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", audio.ErrCaptureFailed, r)
		}
	}()
	return c.capturer.Capture(ctx, c.capture)
}

func (c *Controller) transcribe(ctx context.Context, utt audio.Utterance) (res transcribe.Result) {
	defer func() {
		if r := recover(); r != nil {
			res = transcribe.Result{
				Kind:   transcribe.KindServiceFailure,
				Detail: fmt.Sprintf("transcriber panic: %v", r),
				Err:    fmt.Errorf("panic: %v", r),
			}
		}
	}()
	return c.transcriber.Transcribe(ctx, utt, c.language)
}

func (c *Controller) respond(ctx context.Context, prompt string) (reply string) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("responder panicked", "panic", r)
			reply = respond.FallbackServiceError
		}
	}()
	reply = c.responder.Respond(ctx, prompt)
	if strings.TrimSpace(reply) == "" {
		reply = respond.FallbackNoContent
	}
	return reply
}

// speak plays text and reports a failure as a warning line.
func (c *Controller) speak(ctx context.Context, logger *slog.Logger, text string) {
	out := c.safeSpeak(ctx, text)
	switch out.Kind {
	case speech.Failed:
		if ctx.Err() == nil {
			fmt.Fprintf(c.out, "Warning: could not play reply: %s\n", out.Reason)
		}
		logger.Warn("speech failed", "reason", out.Reason, "error", out.Err)
	case speech.Skipped:
		logger.Debug("speech skipped", "reason", out.Reason)
	}
}

func (c *Controller) safeSpeak(ctx context.Context, text string) (out speech.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = speech.Outcome{Kind: speech.Failed, Reason: fmt.Sprintf("speaker panic: %v", r)}
		}
	}()
	return c.speaker.Speak(ctx, text, c.voice)
}

func (c *Controller) misheard(ctx context.Context, logger *slog.Logger, res transcribe.Result) {
	switch res.Kind {
	case transcribe.KindServiceFailure:
		if ctx.Err() == nil {
			fmt.Fprintf(c.out, "Warning: transcription failed: %s\n", res.Detail)
		}
	case transcribe.KindSilence, transcribe.KindUnintelligible:
		fmt.Fprintln(c.out, "Could not understand audio.")
	}
	if c.policy == MishearAnnounce && ctx.Err() == nil {
		c.speak(ctx, logger, c.mishear)
	}
}

// matchExit reports the first exit phrase contained in the folded transcript.
func (c *Controller) matchExit(folded string) (string, bool) {
	for _, p := range c.exitPhrases {
		if strings.Contains(folded, p) {
			return p, true
		}
	}
	return "", false
}

func (c *Controller) setState(s State) {
	if c.state == s {
		return
	}
	c.state = s
	if c.onState != nil {
		c.onState(s)
	}
}

// foldPhrases folds each phrase with l and drops blanks.
func foldPhrases(l lang.Language, phrases []string) []string {
	out := make([]string, 0, len(phrases))
	for _, p := range phrases {
		if f := l.Fold(p); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// Package respond turns a user's transcript into a reply to speak.
//
// A Responder never fails: service errors and empty or blocked generations
// are replaced by fixed fallback lines so the conversation can continue.
package respond

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/alnah/poddy/internal/log"
)

// Fallback replies spoken when no generated text is usable.
const (
	// FallbackNoContent is used when the model answered with nothing or was blocked.
	FallbackNoContent = "Üzgünüm, buna uygun bir yanıt oluşturamadım."
	// FallbackServiceError is used when the model could not be reached.
	FallbackServiceError = "Üzgünüm, yapay zeka ile konuşurken bir sorun oluştu."
)

// Generation is the raw outcome of one model call.
type Generation struct {
	Text    string
	Blocked bool   // the provider withheld content (safety, blocklist)
	Reason  string // provider reason when Blocked, e.g. "SAFETY"
}

// Generator produces text for a prompt with a single model call.
type Generator interface {
	Generate(ctx context.Context, prompt string) (Generation, error)
}

// Responder wraps a Generator with fallback handling.
type Responder struct {
	gen    Generator
	logger *slog.Logger
}

// Option configures a Responder.
type Option func(*Responder)

// WithLogger sets the diagnostics logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Responder) { r.logger = l }
}

// NewResponder creates a Responder backed by gen.
func NewResponder(gen Generator, opts ...Option) *Responder {
	r := &Responder{gen: gen, logger: log.For("respond")}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Respond returns the reply for prompt. The result is never empty.
func (r *Responder) Respond(ctx context.Context, prompt string) (reply string) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("generator panicked", "panic", p)
			reply = FallbackServiceError
		}
	}()

	gen, err := r.gen.Generate(ctx, prompt)
	if err != nil {
		r.logger.Warn("generation failed", "error", err)
		return FallbackServiceError
	}
	if gen.Blocked {
		r.logger.Info("generation blocked", "reason", gen.Reason)
		return FallbackNoContent
	}

	text := strings.TrimSpace(gen.Text)
	if text == "" {
		r.logger.Info("generation empty")
		return FallbackNoContent
	}
	return text
}

// Instruction returns a system instruction asking the model to answer
// briefly in the named language, suitable for reading aloud.
func Instruction(languageName string) string {
	return fmt.Sprintf("You are a friendly voice assistant. Answer in %s, in a few short spoken sentences without markdown or lists.", languageName)
}

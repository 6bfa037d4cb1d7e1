// Package transcribe converts one captured utterance into text.
//
// Transcribe never returns an error. Every collaborator outcome is folded
// into a Result whose Kind tells the conversation loop what to do next.
package transcribe

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	openai "github.com/sashabaranov/go-openai"

	"github.com/alnah/poddy/internal/apierr"
	"github.com/alnah/poddy/internal/audio"
	"github.com/alnah/poddy/internal/lang"
	"github.com/alnah/poddy/internal/log"
)

// ModelGPT4oMiniTranscribe is the default transcription model.
// Not yet a constant in go-openai.
const ModelGPT4oMiniTranscribe = "gpt-4o-mini-transcribe"

// Kind classifies a transcription result.
type Kind int

// Result kinds.
const (
	// KindText means words were recognized; Result.Text holds them.
	KindText Kind = iota
	// KindSilence means there was no audio to send.
	KindSilence
	// KindUnintelligible means audio was sent but no words came back.
	KindUnintelligible
	// KindServiceFailure means the service or transport failed.
	KindServiceFailure
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindSilence:
		return "silence"
	case KindUnintelligible:
		return "unintelligible"
	case KindServiceFailure:
		return "service-failure"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Result is the outcome of one transcription.
type Result struct {
	Kind   Kind
	Text   string // case-folded transcript, set for KindText
	Detail string // human-readable failure description
	Err    error  // classified error, set for KindServiceFailure
}

// Transcriber converts an utterance to text.
type Transcriber interface {
	// Transcribe sends one utterance. hint selects the recognition language
	// and the case folding applied to the transcript.
	Transcribe(ctx context.Context, utt audio.Utterance, hint lang.Language) Result
}

// openaiClient is the subset of *openai.Client used here.
// This allows injecting mocks in tests.
type openaiClient interface {
	CreateTranscription(ctx context.Context, req openai.AudioRequest) (openai.AudioResponse, error)
	GetModel(ctx context.Context, modelID string) (openai.Model, error)
}

// Compile-time interface compliance checks.
var (
	_ Transcriber  = (*OpenAITranscriber)(nil)
	_ openaiClient = (*openai.Client)(nil)
)

// OpenAITranscriber transcribes with OpenAI's audio API. Each call is a
// single attempt; the conversation loop moves on after a failure.
type OpenAITranscriber struct {
	client openaiClient
	model  string
	prompt string
	logger *slog.Logger
}

// TranscriberOption configures an OpenAITranscriber.
type TranscriberOption func(*OpenAITranscriber)

// WithModel sets the transcription model, e.g. openai.Whisper1.
func WithModel(model string) TranscriberOption {
	return func(t *OpenAITranscriber) {
		if model != "" {
			t.model = model
		}
	}
}

// WithPrompt gives the model context such as expected vocabulary.
func WithPrompt(prompt string) TranscriberOption {
	return func(t *OpenAITranscriber) { t.prompt = prompt }
}

// WithLogger sets the diagnostics logger.
func WithLogger(l *slog.Logger) TranscriberOption {
	return func(t *OpenAITranscriber) { t.logger = l }
}

// NewOpenAITranscriber creates a transcriber backed by client.
func NewOpenAITranscriber(client *openai.Client, opts ...TranscriberOption) *OpenAITranscriber {
	return newOpenAITranscriber(client, opts...)
}

func newOpenAITranscriber(client openaiClient, opts ...TranscriberOption) *OpenAITranscriber {
	t := &OpenAITranscriber{
		client: client,
		model:  ModelGPT4oMiniTranscribe,
		logger: log.For("transcribe"),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Transcribe sends the utterance in memory; nothing is written to disk.
func (t *OpenAITranscriber) Transcribe(ctx context.Context, utt audio.Utterance, hint lang.Language) (res Result) {
	if utt.IsEmpty() {
		return Result{Kind: KindSilence, Detail: "no audio captured"}
	}

	defer func() {
		if r := recover(); r != nil {
			t.logger.Error("transcription panicked", "panic", r)
			res = Result{Kind: KindServiceFailure, Detail: fmt.Sprintf("transcriber panic: %v", r), Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	format := utt.Format
	if format == "" {
		format = "ogg"
	}
	req := openai.AudioRequest{
		Model:    t.model,
		FilePath: "utterance." + format, // names the upload; contents come from Reader
		Reader:   bytes.NewReader(utt.Audio),
		Format:   openai.AudioResponseFormatJSON,
		Prompt:   t.prompt,
		Language: hint.BaseCode(), // OpenAI only accepts ISO 639-1 base codes
	}

	resp, err := t.client.CreateTranscription(ctx, req)
	if err != nil {
		classified := apierr.FromOpenAI(err)
		t.logger.Debug("transcription failed", "error", classified)
		return Result{Kind: KindServiceFailure, Detail: classified.Error(), Err: classified}
	}

	text := strings.TrimSpace(resp.Text)
	if !hasWords(text) {
		return Result{Kind: KindUnintelligible, Detail: "no words recognized", Err: ErrUnintelligible}
	}

	t.logger.Debug("transcribed", "chars", len(text), "audio_bytes", len(utt.Audio), "speech", utt.Duration)
	return Result{Kind: KindText, Text: hint.Fold(text)}
}

// Health checks that the key is valid and the model is available.
func (t *OpenAITranscriber) Health(ctx context.Context) error {
	if _, err := t.client.GetModel(ctx, t.model); err != nil {
		return fmt.Errorf("openai transcription model %s: %w", t.model, apierr.FromOpenAI(err))
	}
	return nil
}

// hasWords reports whether s contains at least one letter or digit.
// Recognizers answer pure noise with punctuation such as "..." or "-".
func hasWords(s string) bool {
	return strings.IndexFunc(s, func(r rune) bool {
		return unicode.IsLetter(r) || unicode.IsDigit(r)
	}) >= 0
}

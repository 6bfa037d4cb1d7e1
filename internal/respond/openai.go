package respond

import (
	"context"
	"fmt"
	"log/slog"

	openai "github.com/sashabaranov/go-openai"

	"github.com/alnah/poddy/internal/apierr"
	"github.com/alnah/poddy/internal/log"
)

// chatCompleter is the subset of *openai.Client used for replies.
// This allows injecting mocks in tests.
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
	GetModel(ctx context.Context, modelID string) (openai.Model, error)
}

// Compile-time interface compliance checks.
var (
	_ Generator     = (*OpenAIGenerator)(nil)
	_ chatCompleter = (*openai.Client)(nil)
)

// OpenAIGenerator generates replies with OpenAI chat completions.
type OpenAIGenerator struct {
	client      chatCompleter
	model       string
	instruction string
	logger      *slog.Logger
}

// OpenAIOption configures an OpenAIGenerator.
type OpenAIOption func(*OpenAIGenerator)

// WithOpenAIModel sets the chat model.
func WithOpenAIModel(model string) OpenAIOption {
	return func(g *OpenAIGenerator) {
		if model != "" {
			g.model = model
		}
	}
}

// WithOpenAIInstruction sets the system message sent with every prompt.
func WithOpenAIInstruction(s string) OpenAIOption {
	return func(g *OpenAIGenerator) { g.instruction = s }
}

// WithOpenAILogger sets the diagnostics logger.
func WithOpenAILogger(l *slog.Logger) OpenAIOption {
	return func(g *OpenAIGenerator) { g.logger = l }
}

// NewOpenAIGenerator creates a generator backed by client.
func NewOpenAIGenerator(client *openai.Client, opts ...OpenAIOption) *OpenAIGenerator {
	return newOpenAIGenerator(client, opts...)
}

func newOpenAIGenerator(client chatCompleter, opts ...OpenAIOption) *OpenAIGenerator {
	g := &OpenAIGenerator{
		client: client,
		model:  openai.GPT4oMini,
		logger: log.For("openai"),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Model returns the configured model name.
func (g *OpenAIGenerator) Model() string { return g.model }

// Generate sends prompt as a single user message.
func (g *OpenAIGenerator) Generate(ctx context.Context, prompt string) (Generation, error) {
	var msgs []openai.ChatCompletionMessage
	if g.instruction != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: g.instruction})
	}
	msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: prompt})

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    g.model,
		Messages: msgs,
	})
	if err != nil {
		return Generation{}, apierr.FromOpenAI(err)
	}
	if len(resp.Choices) == 0 {
		return Generation{}, ErrNoCandidates
	}

	choice := resp.Choices[0]
	if choice.FinishReason == openai.FinishReasonContentFilter {
		return Generation{Text: choice.Message.Content, Blocked: true, Reason: string(choice.FinishReason)}, nil
	}
	if choice.Message.Refusal != "" {
		return Generation{Blocked: true, Reason: "refusal"}, nil
	}
	return Generation{Text: choice.Message.Content}, nil
}

// Health checks that the key is valid and the model is available.
func (g *OpenAIGenerator) Health(ctx context.Context) error {
	if _, err := g.client.GetModel(ctx, g.model); err != nil {
		return fmt.Errorf("openai chat model %s: %w", g.model, apierr.FromOpenAI(err))
	}
	return nil
}

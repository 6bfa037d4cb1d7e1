package respond

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/alnah/poddy/internal/apierr"
	"github.com/alnah/poddy/internal/log"
)

// Gemini API configuration.
const (
	defaultGeminiBaseURL     = "https://generativelanguage.googleapis.com/v1beta"
	defaultGeminiModel       = "gemini-1.5-flash"
	defaultGeminiHTTPTimeout = 60 * time.Second

	// Response size limit to prevent OOM from malformed responses (1MB)
	maxResponseSize = 1 << 20
)

// httpDoer abstracts HTTP client for testing.
type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Compile-time interface compliance check.
var _ Generator = (*GeminiGenerator)(nil)

// GeminiGenerator generates replies with Google's generateContent REST API.
type GeminiGenerator struct {
	apiKey      string
	baseURL     string
	model       string
	instruction string
	httpClient  httpDoer
	logger      *slog.Logger
}

// GeminiOption configures a GeminiGenerator.
type GeminiOption func(*GeminiGenerator)

// WithGeminiModel sets the model, e.g. "gemini-1.5-flash".
func WithGeminiModel(model string) GeminiOption {
	return func(g *GeminiGenerator) {
		if model != "" {
			g.model = model
		}
	}
}

// WithGeminiBaseURL sets a custom base URL (for testing or proxies).
func WithGeminiBaseURL(u string) GeminiOption {
	return func(g *GeminiGenerator) { g.baseURL = strings.TrimSuffix(u, "/") }
}

// WithGeminiInstruction sets the system instruction sent with every prompt.
func WithGeminiInstruction(s string) GeminiOption {
	return func(g *GeminiGenerator) { g.instruction = s }
}

// WithGeminiLogger sets the diagnostics logger.
func WithGeminiLogger(l *slog.Logger) GeminiOption {
	return func(g *GeminiGenerator) { g.logger = l }
}

// withGeminiHTTPClient sets a custom HTTP client (for testing).
func withGeminiHTTPClient(c httpDoer) GeminiOption {
	return func(g *GeminiGenerator) { g.httpClient = c }
}

// NewGeminiGenerator creates a GeminiGenerator.
// Returns ErrEmptyAPIKey if apiKey is empty.
func NewGeminiGenerator(apiKey string, opts ...GeminiOption) (*GeminiGenerator, error) {
	if apiKey == "" {
		return nil, ErrEmptyAPIKey
	}
	g := &GeminiGenerator{
		apiKey:  apiKey,
		baseURL: defaultGeminiBaseURL,
		model:   defaultGeminiModel,
		logger:  log.For("gemini"),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.httpClient == nil {
		g.httpClient = &http.Client{Timeout: defaultGeminiHTTPTimeout}
	}
	return g, nil
}

// Model returns the configured model name.
func (g *GeminiGenerator) Model() string { return g.model }

// geminiPart is one piece of content; only text is used.
type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents          []geminiContent `json:"contents"`
	SystemInstruction *geminiContent  `json:"systemInstruction,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

type geminiErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Generate sends prompt as a single user turn.
func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (Generation, error) {
	req := geminiRequest{
		Contents: []geminiContent{{Role: "user", Parts: []geminiPart{{Text: prompt}}}},
	}
	if g.instruction != "" {
		req.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: g.instruction}}}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return Generation{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	var resp geminiResponse
	endpoint := g.baseURL + "/models/" + url.PathEscape(g.model) + ":generateContent"
	if err := g.do(ctx, http.MethodPost, endpoint, bytes.NewReader(body), &resp); err != nil {
		return Generation{}, err
	}
	return interpretGemini(resp)
}

// interpretGemini folds a response into a Generation. Safety stops and
// prompt blocks are content outcomes, not errors.
func interpretGemini(resp geminiResponse) (Generation, error) {
	if reason := resp.PromptFeedback.BlockReason; reason != "" {
		return Generation{Blocked: true, Reason: reason}, nil
	}
	if len(resp.Candidates) == 0 {
		return Generation{}, ErrNoCandidates
	}

	c := resp.Candidates[0]
	var sb strings.Builder
	for _, p := range c.Content.Parts {
		sb.WriteString(p.Text)
	}

	switch c.FinishReason {
	case "SAFETY", "BLOCKLIST", "PROHIBITED_CONTENT", "SPII", "RECITATION":
		return Generation{Text: sb.String(), Blocked: true, Reason: c.FinishReason}, nil
	}
	return Generation{Text: sb.String()}, nil
}

// Health checks that the key is valid and the model exists.
func (g *GeminiGenerator) Health(ctx context.Context) error {
	endpoint := g.baseURL + "/models/" + url.PathEscape(g.model)
	if err := g.do(ctx, http.MethodGet, endpoint, nil, nil); err != nil {
		return fmt.Errorf("gemini model %s: %w", g.model, err)
	}
	return nil
}

// do performs one request and decodes a 200 body into out when non-nil.
func (g *GeminiGenerator) do(ctx context.Context, method, endpoint string, body io.Reader, out any) (err error) {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return apierr.ClassifyTransport(err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close response body: %w", closeErr)
		}
	}()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", apierr.ClassifyTransport(err))
	}

	if resp.StatusCode != http.StatusOK {
		return parseGeminiError(resp.StatusCode, respBody)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// parseGeminiError extracts the provider message and classifies the status.
func parseGeminiError(status int, body []byte) error {
	var e geminiErrorResponse
	msg := ""
	if json.Unmarshal(body, &e) == nil && e.Error.Message != "" {
		msg = e.Error.Message
		if e.Error.Status == "RESOURCE_EXHAUSTED" && !strings.Contains(strings.ToLower(msg), "quota") {
			// Gemini uses 429 RESOURCE_EXHAUSTED for both rate and quota limits.
			msg += " (" + e.Error.Status + ")"
		}
	}
	return apierr.ClassifyStatus(status, msg)
}

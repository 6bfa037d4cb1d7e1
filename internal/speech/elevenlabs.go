package speech

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
	"github.com/alnah/poddy/internal/artifact"
	"github.com/alnah/poddy/internal/log"
)

// ElevenLabs defaults.
const (
	elevenLabsBaseURL   = "https://api.elevenlabs.io/v1"
	elevenLabsWSBaseURL = "wss://api.elevenlabs.io/v1"

	// DefaultModel handles Turkish well.
	DefaultModel = "eleven_multilingual_v2"

	// DefaultOutputFormat is 44.1kHz MP3 at 128kbps, playable as-is.
	DefaultOutputFormat = "mp3_44100_128"

	defaultRequestTimeout = 60 * time.Second
	healthTimeout         = 10 * time.Second
)

// httpDoer executes HTTP requests. *http.Client implements it.
type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// VoiceSettings tunes the ElevenLabs voice.
type VoiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style,omitempty"`
	SpeakerBoost    bool    `json:"use_speaker_boost,omitempty"`
}

// DefaultVoiceSettings are ElevenLabs' recommended values.
var DefaultVoiceSettings = VoiceSettings{Stability: 0.5, SimilarityBoost: 0.75}

// elevenLabsConfig is shared by the HTTP and WebSocket sources.
type elevenLabsConfig struct {
	apiKey       string
	baseURL      string
	wsBaseURL    string
	outputFormat string
	settings     VoiceSettings
	client       httpDoer
	logger       *slog.Logger
}

// ElevenLabsOption configures an ElevenLabs source.
type ElevenLabsOption func(*elevenLabsConfig)

// WithBaseURL sets the REST base URL (for testing or proxies).
func WithBaseURL(u string) ElevenLabsOption {
	return func(c *elevenLabsConfig) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithWebSocketURL sets the WebSocket base URL.
func WithWebSocketURL(u string) ElevenLabsOption {
	return func(c *elevenLabsConfig) { c.wsBaseURL = strings.TrimRight(u, "/") }
}

// WithOutputFormat selects an MP3 output format, e.g. "mp3_22050_32".
// Other encodings would need transcoding before playback and are ignored.
func WithOutputFormat(f string) ElevenLabsOption {
	return func(c *elevenLabsConfig) {
		if strings.HasPrefix(f, "mp3_") {
			c.outputFormat = f
		}
	}
}

// WithVoiceSettings sets voice tuning parameters.
func WithVoiceSettings(s VoiceSettings) ElevenLabsOption {
	return func(c *elevenLabsConfig) { c.settings = s }
}

// WithHTTPClient sets the HTTP client for REST calls.
func WithHTTPClient(d httpDoer) ElevenLabsOption {
	return func(c *elevenLabsConfig) { c.client = d }
}

// WithLogger sets the diagnostics logger.
func WithLogger(l *slog.Logger) ElevenLabsOption {
	return func(c *elevenLabsConfig) { c.logger = l }
}

func newElevenLabsConfig(apiKey, component string, opts []ElevenLabsOption) elevenLabsConfig {
	c := elevenLabsConfig{
		apiKey:       apiKey,
		baseURL:      elevenLabsBaseURL,
		wsBaseURL:    elevenLabsWSBaseURL,
		outputFormat: DefaultOutputFormat,
		settings:     DefaultVoiceSettings,
		client:       &http.Client{Timeout: defaultRequestTimeout},
		logger:       log.For(component),
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// health checks connectivity and key validity with GET /user.
func (c *elevenLabsConfig) health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/user", nil)
	if err != nil {
		return fmt.Errorf("elevenlabs: %w", err)
	}
	req.Header.Set("xi-api-key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("elevenlabs health check: %w", apierr.ClassifyTransport(err))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("elevenlabs health check: %w", parseElevenLabsError(resp))
	}
	return nil
}

// parseElevenLabsError reads {"detail":{"message":..,"status":..}} bodies.
// Some errors carry "detail" as a plain string.
func parseElevenLabsError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	message := strings.TrimSpace(string(body))
	var structured struct {
		Detail struct {
			Message string `json:"message"`
			Status  string `json:"status"`
		} `json:"detail"`
	}
	var plain struct {
		Detail string `json:"detail"`
	}
	switch {
	case json.Unmarshal(body, &structured) == nil && structured.Detail.Message != "":
		message = structured.Detail.Message
		if structured.Detail.Status == "quota_exceeded" && !strings.Contains(strings.ToLower(message), "quota") {
			message += " (quota exceeded)"
		}
	case json.Unmarshal(body, &plain) == nil && plain.Detail != "":
		message = plain.Detail
	}
	return apierr.ClassifyStatus(resp.StatusCode, message)
}

var _ StreamSource = (*ElevenLabsHTTP)(nil)

// ElevenLabsHTTP streams synthesized speech over HTTP chunked transfer.
type ElevenLabsHTTP struct {
	cfg elevenLabsConfig
}

// NewElevenLabsHTTP creates the HTTP streaming source.
func NewElevenLabsHTTP(apiKey string, opts ...ElevenLabsOption) *ElevenLabsHTTP {
	return &ElevenLabsHTTP{cfg: newElevenLabsConfig(apiKey, "speech.elevenlabs", opts)}
}

type ttsRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings VoiceSettings `json:"voice_settings"`
}

// Stream starts synthesis and returns the response body as a ChunkStream.
// Status errors are classified with apierr and wrapped in ErrTransport.
func (e *ElevenLabsHTTP) Stream(ctx context.Context, text string, voice Voice) (ChunkStream, error) {
	if voice.ID == "" {
		return nil, ErrNoVoice
	}
	body, err := json.Marshal(ttsRequest{Text: text, ModelID: voice.model(), VoiceSettings: e.cfg.settings})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/text-to-speech/%s/stream?output_format=%s",
		e.cfg.baseURL, url.PathEscape(voice.ID), url.QueryEscape(e.cfg.outputFormat))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("xi-api-key", e.cfg.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")

	resp, err := e.cfg.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, apierr.ClassifyTransport(err))
	}
	if resp.StatusCode != http.StatusOK {
		defer func() { _ = resp.Body.Close() }()
		return nil, fmt.Errorf("%w: %w", ErrTransport, parseElevenLabsError(resp))
	}

	e.cfg.logger.Debug("stream opened", "voice", voice.ID, "model", voice.model(), "chars", len(text))
	return newReaderStream(resp.Body), nil
}

// Format reports the container of the streamed audio.
func (e *ElevenLabsHTTP) Format() artifact.Format { return artifact.FormatMP3 }

// Health checks API connectivity and key validity.
func (e *ElevenLabsHTTP) Health(ctx context.Context) error { return e.cfg.health(ctx) }

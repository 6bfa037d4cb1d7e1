package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	openai "github.com/sashabaranov/go-openai"

	"github.com/alnah/poddy/internal/audio"
	"github.com/alnah/poddy/internal/config"
	"github.com/alnah/poddy/internal/ffmpeg"
	"github.com/alnah/poddy/internal/respond"
	"github.com/alnah/poddy/internal/speech"
	"github.com/alnah/poddy/internal/transcribe"
)

// Env holds injectable dependencies for CLI commands.
// This is the central injection point for testing CLI commands in isolation.
//
// Env must not be nil when passed to command functions. Use DefaultEnv()
// or NewEnv() to create a valid instance.
type Env struct {
	// I/O and environment
	Stderr io.Writer
	Stdout io.Writer
	Getenv func(string) string

	// Factories for domain objects
	ToolResolver       ToolResolver
	ConfigLoader       ConfigLoader
	AudioFactory       AudioFactory
	TranscriberFactory TranscriberFactory
	GeneratorFactory   GeneratorFactory
	SpeechFactory      SpeechFactory
}

// HealthChecker is a remote service that can be probed before the loop starts.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Transcriber is a probeable transcriber.
type Transcriber interface {
	transcribe.Transcriber
	HealthChecker
}

// Generator is a probeable reply generator.
type Generator interface {
	respond.Generator
	HealthChecker
}

// SpeechSource is a probeable synthesis backend.
type SpeechSource interface {
	speech.StreamSource
	HealthChecker
}

// ToolResolver locates ffmpeg and ffplay.
type ToolResolver interface {
	Resolve(tool ffmpeg.Tool) (string, error)
	CheckVersion(ctx context.Context, ffmpegPath string)
}

// ConfigLoader reads the settings snapshot.
type ConfigLoader interface {
	Load(getenv func(string) string) (config.Settings, error)
}

// AudioFactory creates microphone and speaker adapters.
type AudioFactory interface {
	NewCapturer(ffmpegPath, device string) (audio.Capturer, error)
	NewDeviceLister(ffmpegPath string) (audio.DeviceLister, error)
	NewPlayer(ffplayPath string) (audio.Player, error)
}

// TranscriberFactory creates speech-to-text clients.
type TranscriberFactory interface {
	NewTranscriber(apiKey string) Transcriber
}

// GeneratorFactory creates reply generators.
type GeneratorFactory interface {
	NewGenerator(p Provider, apiKey string, opts GeneratorOptions) (Generator, error)
}

// GeneratorOptions configures a generator independent of its provider.
type GeneratorOptions struct {
	Model       string // empty: provider default
	Instruction string // system instruction
}

// SpeechFactory creates synthesis backends.
type SpeechFactory interface {
	NewSource(transport, apiKey string) (SpeechSource, error)
}

// EnvOption configures an Env.
type EnvOption func(*Env)

// WithStderr sets the stderr writer.
func WithStderr(w io.Writer) EnvOption {
	return func(e *Env) { e.Stderr = w }
}

// WithStdout sets the stdout writer.
func WithStdout(w io.Writer) EnvOption {
	return func(e *Env) { e.Stdout = w }
}

// WithGetenv sets the environment variable getter.
func WithGetenv(fn func(string) string) EnvOption {
	return func(e *Env) { e.Getenv = fn }
}

// WithToolResolver sets the ffmpeg/ffplay resolver.
func WithToolResolver(r ToolResolver) EnvOption {
	return func(e *Env) { e.ToolResolver = r }
}

// WithConfigLoader sets the config loader.
func WithConfigLoader(l ConfigLoader) EnvOption {
	return func(e *Env) { e.ConfigLoader = l }
}

// WithAudioFactory sets the audio factory.
func WithAudioFactory(f AudioFactory) EnvOption {
	return func(e *Env) { e.AudioFactory = f }
}

// WithTranscriberFactory sets the transcriber factory.
func WithTranscriberFactory(f TranscriberFactory) EnvOption {
	return func(e *Env) { e.TranscriberFactory = f }
}

// WithGeneratorFactory sets the generator factory.
func WithGeneratorFactory(f GeneratorFactory) EnvOption {
	return func(e *Env) { e.GeneratorFactory = f }
}

// WithSpeechFactory sets the speech factory.
func WithSpeechFactory(f SpeechFactory) EnvOption {
	return func(e *Env) { e.SpeechFactory = f }
}

// DefaultEnv returns an Env with production defaults.
func DefaultEnv() *Env {
	return &Env{
		Stderr:             os.Stderr,
		Stdout:             os.Stdout,
		Getenv:             os.Getenv,
		ToolResolver:       &defaultToolResolver{},
		ConfigLoader:       &defaultConfigLoader{},
		AudioFactory:       &defaultAudioFactory{},
		TranscriberFactory: &defaultTranscriberFactory{},
		GeneratorFactory:   &defaultGeneratorFactory{},
		SpeechFactory:      &defaultSpeechFactory{},
	}
}

// NewEnv creates an Env with the given options applied to defaults.
func NewEnv(opts ...EnvOption) *Env {
	env := DefaultEnv()
	for _, opt := range opts {
		opt(env)
	}
	return env
}

// ---------------------------------------------------------------------------
// Default implementations - delegate to real packages
// ---------------------------------------------------------------------------

type defaultToolResolver struct{}

func (defaultToolResolver) Resolve(tool ffmpeg.Tool) (string, error) {
	return ffmpeg.Resolve(tool)
}

func (defaultToolResolver) CheckVersion(ctx context.Context, ffmpegPath string) {
	ffmpeg.NewVersionChecker().Check(ctx, ffmpegPath)
}

type defaultConfigLoader struct{}

func (defaultConfigLoader) Load(getenv func(string) string) (config.Settings, error) {
	return config.Load(getenv)
}

type defaultAudioFactory struct{}

func (defaultAudioFactory) NewCapturer(ffmpegPath, device string) (audio.Capturer, error) {
	return audio.NewFFmpegCapturer(ffmpegPath, audio.WithDevice(device))
}

func (defaultAudioFactory) NewDeviceLister(ffmpegPath string) (audio.DeviceLister, error) {
	return audio.NewFFmpegCapturer(ffmpegPath)
}

func (defaultAudioFactory) NewPlayer(ffplayPath string) (audio.Player, error) {
	return audio.NewFFplayPlayer(ffplayPath)
}

type defaultTranscriberFactory struct{}

func (defaultTranscriberFactory) NewTranscriber(apiKey string) Transcriber {
	return transcribe.NewOpenAITranscriber(openai.NewClient(apiKey))
}

type defaultGeneratorFactory struct{}

func (defaultGeneratorFactory) NewGenerator(p Provider, apiKey string, opts GeneratorOptions) (Generator, error) {
	if p.OrDefault().IsOpenAI() {
		return respond.NewOpenAIGenerator(openai.NewClient(apiKey),
			respond.WithOpenAIModel(opts.Model),
			respond.WithOpenAIInstruction(opts.Instruction)), nil
	}
	g, err := respond.NewGeminiGenerator(apiKey,
		respond.WithGeminiModel(opts.Model),
		respond.WithGeminiInstruction(opts.Instruction))
	if err != nil {
		return nil, err
	}
	return g, nil
}

type defaultSpeechFactory struct{}

func (defaultSpeechFactory) NewSource(transport, apiKey string) (SpeechSource, error) {
	switch transport {
	case config.TransportWebSocket:
		return speech.NewElevenLabsWS(apiKey), nil
	case config.TransportHTTP, "":
		return speech.NewElevenLabsHTTP(apiKey), nil
	default:
		return nil, fmt.Errorf("tts transport %q (use %s or %s): %w",
			transport, config.TransportHTTP, config.TransportWebSocket, config.ErrInvalidValue)
	}
}

// Compile-time interface verification.
var (
	_ ToolResolver       = (*defaultToolResolver)(nil)
	_ ConfigLoader       = (*defaultConfigLoader)(nil)
	_ AudioFactory       = (*defaultAudioFactory)(nil)
	_ TranscriberFactory = (*defaultTranscriberFactory)(nil)
	_ GeneratorFactory   = (*defaultGeneratorFactory)(nil)
	_ SpeechFactory      = (*defaultSpeechFactory)(nil)

	_ Transcriber  = (*transcribe.OpenAITranscriber)(nil)
	_ Generator    = (*respond.GeminiGenerator)(nil)
	_ Generator    = (*respond.OpenAIGenerator)(nil)
	_ SpeechSource = (*speech.ElevenLabsHTTP)(nil)
	_ SpeechSource = (*speech.ElevenLabsWS)(nil)
)

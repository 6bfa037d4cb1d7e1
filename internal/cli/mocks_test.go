package cli

import (
	"context"
	"io"
	"sync"
	"sync/atomic"

	"github.com/alnah/poddy/internal/artifact"
	"github.com/alnah/poddy/internal/audio"
	"github.com/alnah/poddy/internal/config"
	"github.com/alnah/poddy/internal/ffmpeg"
	"github.com/alnah/poddy/internal/lang"
	"github.com/alnah/poddy/internal/respond"
	"github.com/alnah/poddy/internal/speech"
	"github.com/alnah/poddy/internal/transcribe"
)

// ---------------------------------------------------------------------------
// mockToolResolver
// ---------------------------------------------------------------------------

type mockToolResolver struct {
	ResolveFunc func(tool ffmpeg.Tool) (string, error)

	mu            sync.Mutex
	resolved      []string
	versionChecks []string
}

func (m *mockToolResolver) Resolve(tool ffmpeg.Tool) (string, error) {
	m.mu.Lock()
	m.resolved = append(m.resolved, tool.Name)
	m.mu.Unlock()
	if m.ResolveFunc != nil {
		return m.ResolveFunc(tool)
	}
	return "/usr/bin/" + tool.Name, nil
}

func (m *mockToolResolver) CheckVersion(_ context.Context, ffmpegPath string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.versionChecks = append(m.versionChecks, ffmpegPath)
}

func (m *mockToolResolver) Resolved() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.resolved...)
}

func (m *mockToolResolver) VersionChecks() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.versionChecks...)
}

// ---------------------------------------------------------------------------
// mockConfigLoader
// ---------------------------------------------------------------------------

type mockConfigLoader struct {
	LoadFunc func(getenv func(string) string) (config.Settings, error)
}

func (m *mockConfigLoader) Load(getenv func(string) string) (config.Settings, error) {
	if m.LoadFunc != nil {
		return m.LoadFunc(getenv)
	}
	return testSettings(), nil
}

// ---------------------------------------------------------------------------
// mockAudioFactory
// ---------------------------------------------------------------------------

type mockAudioFactory struct {
	NewCapturerFunc     func(ffmpegPath, device string) (audio.Capturer, error)
	NewDeviceListerFunc func(ffmpegPath string) (audio.DeviceLister, error)
	NewPlayerFunc       func(ffplayPath string) (audio.Player, error)

	capturer *mockCapturer
	lister   *mockDeviceLister
	player   *mockPlayer

	mu      sync.Mutex
	devices []string
}

func newMockAudioFactory() *mockAudioFactory {
	return &mockAudioFactory{
		capturer: &mockCapturer{},
		lister:   &mockDeviceLister{},
		player:   &mockPlayer{},
	}
}

func (m *mockAudioFactory) NewCapturer(ffmpegPath, device string) (audio.Capturer, error) {
	m.mu.Lock()
	m.devices = append(m.devices, device)
	m.mu.Unlock()
	if m.NewCapturerFunc != nil {
		return m.NewCapturerFunc(ffmpegPath, device)
	}
	return m.capturer, nil
}

func (m *mockAudioFactory) NewDeviceLister(ffmpegPath string) (audio.DeviceLister, error) {
	if m.NewDeviceListerFunc != nil {
		return m.NewDeviceListerFunc(ffmpegPath)
	}
	return m.lister, nil
}

func (m *mockAudioFactory) NewPlayer(ffplayPath string) (audio.Player, error) {
	if m.NewPlayerFunc != nil {
		return m.NewPlayerFunc(ffplayPath)
	}
	return m.player, nil
}

func (m *mockAudioFactory) Devices() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.devices...)
}

// ---------------------------------------------------------------------------
// mockCapturer - returns one short utterance per call by default
// ---------------------------------------------------------------------------

type mockCapturer struct {
	CaptureFunc func(ctx context.Context, opts audio.CaptureOptions) (audio.Utterance, error)

	mu    sync.Mutex
	calls []audio.CaptureOptions
}

func (m *mockCapturer) Capture(ctx context.Context, opts audio.CaptureOptions) (audio.Utterance, error) {
	m.mu.Lock()
	m.calls = append(m.calls, opts)
	m.mu.Unlock()
	if m.CaptureFunc != nil {
		return m.CaptureFunc(ctx, opts)
	}
	return audio.Utterance{Audio: []byte("speech"), Format: "ogg"}, nil
}

func (m *mockCapturer) Calls() []audio.CaptureOptions {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]audio.CaptureOptions(nil), m.calls...)
}

// ---------------------------------------------------------------------------
// mockDeviceLister
// ---------------------------------------------------------------------------

type mockDeviceLister struct {
	ListDevicesFunc func(ctx context.Context) ([]audio.Device, error)
}

func (m *mockDeviceLister) ListDevices(ctx context.Context) ([]audio.Device, error) {
	if m.ListDevicesFunc != nil {
		return m.ListDevicesFunc(ctx)
	}
	return nil, nil
}

// ---------------------------------------------------------------------------
// mockPlayer - records the paths it was asked to play
// ---------------------------------------------------------------------------

type mockPlayer struct {
	PlayFunc func(ctx context.Context, path string) error

	mu    sync.Mutex
	paths []string
}

func (m *mockPlayer) Play(ctx context.Context, path string) error {
	m.mu.Lock()
	m.paths = append(m.paths, path)
	m.mu.Unlock()
	if m.PlayFunc != nil {
		return m.PlayFunc(ctx, path)
	}
	return nil
}

func (m *mockPlayer) Paths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.paths...)
}

// ---------------------------------------------------------------------------
// mockTranscriberFactory / mockTranscriber
// ---------------------------------------------------------------------------

type mockTranscriberFactory struct {
	transcriber *mockTranscriber

	mu   sync.Mutex
	keys []string
}

func (m *mockTranscriberFactory) NewTranscriber(apiKey string) Transcriber {
	m.mu.Lock()
	m.keys = append(m.keys, apiKey)
	m.mu.Unlock()
	if m.transcriber == nil {
		m.transcriber = &mockTranscriber{}
	}
	return m.transcriber
}

func (m *mockTranscriberFactory) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.keys...)
}

// mockTranscriber hears the first default exit phrase unless told otherwise.
type mockTranscriber struct {
	TranscribeFunc func(ctx context.Context, utt audio.Utterance, hint lang.Language) transcribe.Result
	HealthFunc     func(ctx context.Context) error

	calls       atomic.Int32
	healthCalls atomic.Int32
}

func (m *mockTranscriber) Transcribe(ctx context.Context, utt audio.Utterance, hint lang.Language) transcribe.Result {
	m.calls.Add(1)
	if m.TranscribeFunc != nil {
		return m.TranscribeFunc(ctx, utt, hint)
	}
	return transcribe.Result{Kind: transcribe.KindText, Text: "güle güle"}
}

func (m *mockTranscriber) Health(ctx context.Context) error {
	m.healthCalls.Add(1)
	if m.HealthFunc != nil {
		return m.HealthFunc(ctx)
	}
	return nil
}

// ---------------------------------------------------------------------------
// mockGeneratorFactory / mockGenerator
// ---------------------------------------------------------------------------

type generatorCall struct {
	provider Provider
	apiKey   string
	opts     GeneratorOptions
}

type mockGeneratorFactory struct {
	NewGeneratorFunc func(p Provider, apiKey string, opts GeneratorOptions) (Generator, error)

	generator *mockGenerator

	mu    sync.Mutex
	calls []generatorCall
}

func (m *mockGeneratorFactory) NewGenerator(p Provider, apiKey string, opts GeneratorOptions) (Generator, error) {
	m.mu.Lock()
	m.calls = append(m.calls, generatorCall{provider: p, apiKey: apiKey, opts: opts})
	m.mu.Unlock()
	if m.NewGeneratorFunc != nil {
		return m.NewGeneratorFunc(p, apiKey, opts)
	}
	if m.generator == nil {
		m.generator = &mockGenerator{}
	}
	return m.generator, nil
}

func (m *mockGeneratorFactory) Calls() []generatorCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]generatorCall(nil), m.calls...)
}

type mockGenerator struct {
	GenerateFunc func(ctx context.Context, prompt string) (respond.Generation, error)
	HealthFunc   func(ctx context.Context) error

	calls       atomic.Int32
	healthCalls atomic.Int32
}

func (m *mockGenerator) Generate(ctx context.Context, prompt string) (respond.Generation, error) {
	m.calls.Add(1)
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, prompt)
	}
	return respond.Generation{Text: "Size nasıl yardımcı olabilirim?"}, nil
}

func (m *mockGenerator) Health(ctx context.Context) error {
	m.healthCalls.Add(1)
	if m.HealthFunc != nil {
		return m.HealthFunc(ctx)
	}
	return nil
}

// ---------------------------------------------------------------------------
// mockSpeechFactory / mockSource
// ---------------------------------------------------------------------------

type mockSpeechFactory struct {
	NewSourceFunc func(transport, apiKey string) (SpeechSource, error)

	source *mockSource

	mu         sync.Mutex
	transports []string
	keys       []string
}

func (m *mockSpeechFactory) NewSource(transport, apiKey string) (SpeechSource, error) {
	m.mu.Lock()
	m.transports = append(m.transports, transport)
	m.keys = append(m.keys, apiKey)
	m.mu.Unlock()
	if m.NewSourceFunc != nil {
		return m.NewSourceFunc(transport, apiKey)
	}
	if m.source == nil {
		m.source = &mockSource{}
	}
	return m.source, nil
}

func (m *mockSpeechFactory) Transports() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.transports...)
}

// mockSource streams a fixed WAV-labelled payload so no MP3 decoding runs.
type mockSource struct {
	StreamFunc func(ctx context.Context, text string, voice speech.Voice) (speech.ChunkStream, error)
	HealthFunc func(ctx context.Context) error

	mu          sync.Mutex
	texts       []string
	voices      []speech.Voice
	healthCalls atomic.Int32
}

func (m *mockSource) Stream(ctx context.Context, text string, voice speech.Voice) (speech.ChunkStream, error) {
	m.mu.Lock()
	m.texts = append(m.texts, text)
	m.voices = append(m.voices, voice)
	m.mu.Unlock()
	if m.StreamFunc != nil {
		return m.StreamFunc(ctx, text, voice)
	}
	return &sliceStream{chunks: [][]byte{[]byte("RIFF"), []byte("data")}}, nil
}

func (m *mockSource) Format() artifact.Format { return artifact.FormatWAV }

func (m *mockSource) Health(ctx context.Context) error {
	m.healthCalls.Add(1)
	if m.HealthFunc != nil {
		return m.HealthFunc(ctx)
	}
	return nil
}

func (m *mockSource) Texts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.texts...)
}

func (m *mockSource) Voices() []speech.Voice {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]speech.Voice(nil), m.voices...)
}

// sliceStream yields fixed chunks, then io.EOF.
type sliceStream struct {
	chunks [][]byte
	i      int
}

func (s *sliceStream) Next() ([]byte, error) {
	if s.i >= len(s.chunks) {
		return nil, io.EOF
	}
	c := s.chunks[s.i]
	s.i++
	return c, nil
}

func (s *sliceStream) Close() error { return nil }

// Compile-time interface checks.
var (
	_ ToolResolver       = (*mockToolResolver)(nil)
	_ ConfigLoader       = (*mockConfigLoader)(nil)
	_ AudioFactory       = (*mockAudioFactory)(nil)
	_ TranscriberFactory = (*mockTranscriberFactory)(nil)
	_ GeneratorFactory   = (*mockGeneratorFactory)(nil)
	_ SpeechFactory      = (*mockSpeechFactory)(nil)
	_ audio.Capturer     = (*mockCapturer)(nil)
	_ audio.DeviceLister = (*mockDeviceLister)(nil)
	_ audio.Player       = (*mockPlayer)(nil)
	_ Transcriber        = (*mockTranscriber)(nil)
	_ Generator          = (*mockGenerator)(nil)
	_ SpeechSource       = (*mockSource)(nil)
)

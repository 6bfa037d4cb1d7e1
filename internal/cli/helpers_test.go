package cli

import (
	"bytes"
	"io"
	"sync"
	"time"

	"github.com/alnah/poddy/internal/config"
)

// ---------------------------------------------------------------------------
// syncBuffer - thread-safe bytes.Buffer for concurrent test output
// ---------------------------------------------------------------------------

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (n int, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// Compile-time check that syncBuffer implements io.Writer.
var _ io.Writer = (*syncBuffer)(nil)

// ---------------------------------------------------------------------------
// Settings and environment fixtures
// ---------------------------------------------------------------------------

// testSettings mirrors the defaults with short capture limits.
func testSettings() config.Settings {
	return config.Settings{
		VoiceID:       config.DefaultVoiceID,
		TTSModel:      "eleven_multilingual_v2",
		TTSTransport:  config.TransportHTTP,
		Language:      "tr-TR",
		LLMProvider:   config.ProviderGemini,
		ExitPhrases:   config.ParsePhrases(config.DefaultExitPhrases),
		OnMishear:     config.MishearSilent,
		ListenTimeout: 2 * time.Second,
		MaxPhrase:     4 * time.Second,
	}
}

// staticEnv returns a getenv function backed by a map.
func staticEnv(vars map[string]string) func(string) string {
	return func(key string) string { return vars[key] }
}

// allKeys provides every credential the run command needs.
func allKeys() map[string]string {
	return map[string]string{
		config.EnvOpenAIAPIKey:     "test-openai-key",
		config.EnvGoogleAPIKey:     "test-google-key",
		config.EnvElevenLabsAPIKey: "test-elevenlabs-key",
	}
}

// ---------------------------------------------------------------------------
// testMocks - convenience struct for grouping all mocks
// ---------------------------------------------------------------------------

type testMocks struct {
	tools       *mockToolResolver
	config      *mockConfigLoader
	audio       *mockAudioFactory
	transcriber *mockTranscriberFactory
	generator   *mockGeneratorFactory
	speech      *mockSpeechFactory
}

func newTestMocks() *testMocks {
	return &testMocks{
		tools:       &mockToolResolver{},
		config:      &mockConfigLoader{},
		audio:       newMockAudioFactory(),
		transcriber: &mockTranscriberFactory{transcriber: &mockTranscriber{}},
		generator:   &mockGeneratorFactory{generator: &mockGenerator{}},
		speech:      &mockSpeechFactory{source: &mockSource{}},
	}
}

// testEnv builds an Env from mocks. Credentials default to allKeys.
func testEnv(stderr io.Writer, m *testMocks, vars map[string]string) *Env {
	if vars == nil {
		vars = allKeys()
	}
	return &Env{
		Stderr:             stderr,
		Stdout:             io.Discard,
		Getenv:             staticEnv(vars),
		ToolResolver:       m.tools,
		ConfigLoader:       m.config,
		AudioFactory:       m.audio,
		TranscriberFactory: m.transcriber,
		GeneratorFactory:   m.generator,
		SpeechFactory:      m.speech,
	}
}

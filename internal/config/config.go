// Package config loads poddy's persistent settings from
// ~/.config/poddy/config with environment variable fallbacks.
package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

// Config keys.
const (
	KeyVoiceID       = "voice-id"
	KeyTTSModel      = "tts-model"
	KeyTTSTransport  = "tts-transport"
	KeyLanguage      = "language"
	KeyLLMProvider   = "llm-provider"
	KeyLLMModel      = "llm-model"
	KeyExitPhrases   = "exit-phrases"
	KeyOnMishear     = "on-mishear"
	KeyDevice        = "device"
	KeyListenTimeout = "listen-timeout"
	KeyMaxPhrase     = "max-phrase"
)

// Credential environment variables. Never read from the config file.
const (
	EnvGoogleAPIKey     = "GOOGLE_API_KEY"
	EnvOpenAIAPIKey     = "OPENAI_API_KEY"
	EnvElevenLabsAPIKey = "ELEVENLABS_API_KEY"
)

// Accepted values for enumerated keys.
const (
	TransportHTTP      = "http"
	TransportWebSocket = "ws"

	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"

	MishearSilent   = "silent"
	MishearAnnounce = "announce"
)

// DefaultVoiceID is ElevenLabs' "Rachel" premade voice.
const DefaultVoiceID = "21m00Tcm4TlvDq8ikWAM"

// DefaultExitPhrases are matched as substrings of the folded transcript.
const DefaultExitPhrases = "güle güle,hoşça kal,kapat,çıkış,bitir"

// setting describes one key: its environment fallback, default and validator.
type setting struct {
	key      string
	env      string
	def      string
	help     string
	validate func(string) error
}

var settings = []setting{
	{KeyVoiceID, "ELEVENLABS_VOICE_ID", DefaultVoiceID, "ElevenLabs voice ID used for replies", nonEmpty},
	{KeyTTSModel, "ELEVENLABS_MODEL_ID", "eleven_multilingual_v2", "Speech synthesis model", nonEmpty},
	{KeyTTSTransport, "PODDY_TTS_TRANSPORT", TransportHTTP, "Synthesis transport: http or ws", oneOf(TransportHTTP, TransportWebSocket)},
	{KeyLanguage, "PODDY_LANGUAGE", "tr-TR", "Recognition locale", nonEmpty},
	{KeyLLMProvider, "PODDY_LLM_PROVIDER", ProviderGemini, "Reply generator: gemini or openai", oneOf(ProviderGemini, ProviderOpenAI)},
	{KeyLLMModel, "PODDY_LLM_MODEL", "", "Generator model (empty: provider default)", nil},
	{KeyExitPhrases, "PODDY_EXIT_PHRASES", DefaultExitPhrases, "Comma-separated phrases that end the conversation", phraseList},
	{KeyOnMishear, "PODDY_ON_MISHEAR", MishearSilent, "Reaction to unintelligible speech: silent or announce", oneOf(MishearSilent, MishearAnnounce)},
	{KeyDevice, "PODDY_DEVICE", "", "Microphone device (empty: auto-detect)", nil},
	{KeyListenTimeout, "PODDY_LISTEN_TIMEOUT", "5s", "Wait for speech to start", positiveDuration},
	{KeyMaxPhrase, "PODDY_MAX_PHRASE", "10s", "Maximum length of one utterance", positiveDuration},
}

// Keys returns all supported keys in display order.
func Keys() []string {
	keys := make([]string, len(settings))
	for i, s := range settings {
		keys[i] = s.key
	}
	return keys
}

// IsKey reports whether key is a supported setting.
func IsKey(key string) bool {
	return slices.Contains(Keys(), key)
}

func lookupSetting(key string) (setting, bool) {
	for _, s := range settings {
		if s.key == key {
			return s, true
		}
	}
	return setting{}, false
}

// EnvFor returns the environment variable that backs key.
func EnvFor(key string) string {
	s, _ := lookupSetting(key)
	return s.env
}

// Help returns the one-line description of key.
func Help(key string) string {
	s, _ := lookupSetting(key)
	return s.help
}

// Validate checks value for key. Unknown keys return ErrUnknownKey.
func Validate(key, value string) error {
	s, ok := lookupSetting(key)
	if !ok {
		return fmt.Errorf("%q (valid keys: %s): %w", key, strings.Join(Keys(), ", "), ErrUnknownKey)
	}
	if s.validate == nil {
		return nil
	}
	if err := s.validate(value); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	return nil
}

// Settings is the immutable snapshot read once at startup.
type Settings struct {
	VoiceID       string
	TTSModel      string
	TTSTransport  string
	Language      string
	LLMProvider   string
	LLMModel      string
	ExitPhrases   []string
	OnMishear     string
	Device        string
	ListenTimeout time.Duration
	MaxPhrase     time.Duration
}

// Source tells where a resolved value came from.
type Source string

// Value sources, in precedence order.
const (
	SourceFile    Source = "file"
	SourceEnv     Source = "env"
	SourceDefault Source = "default"
)

// Resolved is one key's effective value.
type Resolved struct {
	Key    string
	Value  string
	Source Source
}

// Resolve returns the effective value of every key.
// Precedence: config file, then environment variable, then default.
// getenv may be nil, in which case os.Getenv is used.
func Resolve(getenv func(string) string) ([]Resolved, error) {
	if getenv == nil {
		getenv = os.Getenv
	}

	file, err := List()
	if err != nil {
		return nil, err
	}

	out := make([]Resolved, 0, len(settings))
	for _, s := range settings {
		r := Resolved{Key: s.key, Value: s.def, Source: SourceDefault}
		if v := file[s.key]; v != "" {
			r.Value, r.Source = v, SourceFile
		} else if v := getenv(s.env); v != "" {
			r.Value, r.Source = v, SourceEnv
		}
		out = append(out, r)
	}
	return out, nil
}

// Load resolves and validates all settings.
// A missing config file is not an error.
func Load(getenv func(string) string) (Settings, error) {
	resolved, err := Resolve(getenv)
	if err != nil {
		return Settings{}, err
	}

	values := make(map[string]string, len(resolved))
	for _, r := range resolved {
		if err := Validate(r.Key, r.Value); err != nil {
			return Settings{}, fmt.Errorf("%s value: %w", r.Source, err)
		}
		values[r.Key] = r.Value
	}

	// Durations were validated above.
	listen, _ := time.ParseDuration(values[KeyListenTimeout])
	phrase, _ := time.ParseDuration(values[KeyMaxPhrase])

	return Settings{
		VoiceID:       values[KeyVoiceID],
		TTSModel:      values[KeyTTSModel],
		TTSTransport:  values[KeyTTSTransport],
		Language:      values[KeyLanguage],
		LLMProvider:   values[KeyLLMProvider],
		LLMModel:      values[KeyLLMModel],
		ExitPhrases:   ParsePhrases(values[KeyExitPhrases]),
		OnMishear:     values[KeyOnMishear],
		Device:        values[KeyDevice],
		ListenTimeout: listen,
		MaxPhrase:     phrase,
	}, nil
}

// ParsePhrases splits a comma-separated list, trimming blanks.
func ParsePhrases(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// dir returns the configuration directory path.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config/poddy.
func dir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "poddy"), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", "poddy"), nil
}

// Path returns the full path to the config file.
func Path() (string, error) {
	d, err := dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(d, "config"), nil
}

// parseFile reads a key=value config file.
// Format: one key=value per line, # comments, empty lines ignored.
func parseFile(p string) (map[string]string, error) {
	f, err := os.Open(p) // #nosec G304 -- config path is constructed from home dir
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	data := make(map[string]string)
	scanner := bufio.NewScanner(f)
	for lineNum := 1; scanner.Scan(); lineNum++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("line %d: %q: %w", lineNum, line, ErrSyntax)
		}
		data[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return data, nil
}

// Save writes a single key=value to the config file, creating it if needed.
// Existing pairs are preserved; comments are discarded.
func Save(key, value string) error {
	if key == "" || strings.ContainsAny(key, "=\n\r") {
		return fmt.Errorf("%q: %w", key, ErrInvalidKey)
	}
	if strings.ContainsAny(value, "\n\r") {
		return fmt.Errorf("value for %s contains a newline: %w", key, ErrInvalidValue)
	}

	p, err := Path()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0750); err != nil { // #nosec G301 -- user config dir
		return fmt.Errorf("cannot create config directory: %w", err)
	}

	existing, err := parseFile(p)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	if existing == nil {
		existing = make(map[string]string)
	}
	existing[key] = value

	return writeFile(p, existing)
}

// writeFile writes the config map with keys sorted for stable diffs.
func writeFile(p string, data map[string]string) error {
	var b strings.Builder
	b.WriteString("# poddy configuration\n")
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "%s=%s\n", k, data[k])
	}

	// #nosec G306 -- config file with standard permissions
	if err := os.WriteFile(p, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("cannot write config file: %w", err)
	}
	return nil
}

// Get reads a single value from the config file.
// Returns empty string if the key or the file doesn't exist.
func Get(key string) (string, error) {
	data, err := List()
	if err != nil {
		return "", err
	}
	return data[key], nil
}

// List returns all values stored in the config file.
func List() (map[string]string, error) {
	p, err := Path()
	if err != nil {
		return nil, err
	}

	data, err := parseFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]string), nil
		}
		return nil, err
	}
	return data, nil
}

func nonEmpty(v string) error {
	if strings.TrimSpace(v) == "" {
		return fmt.Errorf("must not be empty: %w", ErrInvalidValue)
	}
	return nil
}

func oneOf(allowed ...string) func(string) error {
	return func(v string) error {
		if !slices.Contains(allowed, v) {
			return fmt.Errorf("%q (want one of %s): %w", v, strings.Join(allowed, ", "), ErrInvalidValue)
		}
		return nil
	}
}

func phraseList(v string) error {
	if len(ParsePhrases(v)) == 0 {
		return fmt.Errorf("at least one phrase required: %w", ErrInvalidValue)
	}
	return nil
}

func positiveDuration(v string) error {
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fmt.Errorf("%q is not a positive duration: %w", v, ErrInvalidValue)
	}
	return nil
}

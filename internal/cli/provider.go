package cli

import (
	"errors"
	"fmt"

	"github.com/alnah/poddy/internal/config"
)

// Provider represents a validated reply generator backend.
// Zero value is invalid; use ParseProvider or the pre-parsed values.
type Provider struct {
	name string
}

// Compile-time interface compliance check.
var _ fmt.Stringer = Provider{}

// ErrInvalidProvider indicates an invalid provider name was specified.
var ErrInvalidProvider = errors.New("invalid provider")

// Pre-parsed providers.
var (
	GeminiProvider = Provider{name: config.ProviderGemini}
	OpenAIProvider = Provider{name: config.ProviderOpenAI}
)

// ParseProvider validates a provider name. Names are case-sensitive.
func ParseProvider(s string) (Provider, error) {
	switch s {
	case "":
		return Provider{}, fmt.Errorf("provider cannot be empty: %w", ErrInvalidProvider)
	case config.ProviderGemini, config.ProviderOpenAI:
		return Provider{name: s}, nil
	default:
		return Provider{}, fmt.Errorf("unknown provider %q (use 'gemini' or 'openai'): %w", s, ErrInvalidProvider)
	}
}

// String returns the provider name. Empty for the zero value.
func (p Provider) String() string { return p.name }

// IsZero reports whether no provider is set.
func (p Provider) IsZero() bool { return p.name == "" }

// IsGemini reports whether p is Gemini.
func (p Provider) IsGemini() bool { return p.name == config.ProviderGemini }

// IsOpenAI reports whether p is OpenAI.
func (p Provider) IsOpenAI() bool { return p.name == config.ProviderOpenAI }

// OrDefault returns p, or GeminiProvider if zero.
func (p Provider) OrDefault() Provider {
	if p.IsZero() {
		return GeminiProvider
	}
	return p
}

// KeyEnv returns the credential variable the provider needs.
func (p Provider) KeyEnv() string {
	if p.OrDefault().IsOpenAI() {
		return config.EnvOpenAIAPIKey
	}
	return config.EnvGoogleAPIKey
}

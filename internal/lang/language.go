// Package lang validates speech-recognition locales such as "tr-TR" and
// provides locale-aware case folding for comparing transcripts.
package lang

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// supportedBases contains ISO 639-1 codes accepted by the transcription API.
// Not exhaustive; it covers the languages the service documents.
var supportedBases = map[string]bool{
	"af": true, "ar": true, "bg": true, "bn": true, "ca": true, "cs": true,
	"da": true, "de": true, "el": true, "en": true, "es": true, "et": true,
	"fa": true, "fi": true, "fr": true, "gu": true, "he": true, "hi": true,
	"hr": true, "hu": true, "id": true, "it": true, "ja": true, "kn": true,
	"ko": true, "lt": true, "lv": true, "mk": true, "ml": true, "mr": true,
	"ms": true, "nl": true, "no": true, "pa": true, "pl": true, "pt": true,
	"ro": true, "ru": true, "sk": true, "sl": true, "sr": true, "sv": true,
	"sw": true, "ta": true, "te": true, "th": true, "tl": true, "tr": true,
	"uk": true, "ur": true, "vi": true, "zh": true,
}

// Language is a validated recognition locale. The zero value means
// auto-detect and folds case without locale rules.
type Language struct {
	code string
	tag  language.Tag
}

// Parse validates a locale such as "tr-TR", "tr_tr" or "en".
// Empty input yields the zero Language.
func Parse(s string) (Language, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Language{}, nil
	}

	normalized := strings.ReplaceAll(s, "_", "-")
	tag, err := language.Parse(normalized)
	if err != nil {
		return Language{}, fmt.Errorf("invalid language code %q: %w", s, ErrInvalid)
	}

	base, _ := tag.Base()
	if !supportedBases[base.String()] {
		return Language{}, fmt.Errorf("unsupported language %q (use codes like 'tr-TR', 'en', 'pt-BR'): %w", s, ErrInvalid)
	}

	return Language{code: tag.String(), tag: tag}, nil
}

// MustParse is Parse for compile-time constants. It panics on invalid input.
func MustParse(s string) Language {
	l, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return l
}

// String returns the canonical BCP 47 form ("tr-TR").
func (l Language) String() string { return l.code }

// IsZero reports whether l is the auto-detect language.
func (l Language) IsZero() bool { return l.code == "" }

// BaseCode returns the ISO 639-1 code ("tr-TR" -> "tr").
// The transcription API rejects regional variants.
func (l Language) BaseCode() string {
	if l.IsZero() {
		return ""
	}
	base, _ := l.tag.Base()
	return base.String()
}

// DisplayName returns the language's own name for itself, e.g. "Türkçe".
func (l Language) DisplayName() string {
	if l.IsZero() {
		return "auto"
	}
	if name := display.Self.Name(l.tag); name != "" {
		return name
	}
	return l.code
}

// Fold lowercases s with the language's casing rules and trims surrounding
// space. Turkish maps "I" to "ı" and "İ" to "i".
func (l Language) Fold(s string) string {
	tag := language.Und
	if !l.IsZero() {
		tag = l.tag
	}
	return cases.Lower(tag).String(strings.TrimSpace(s))
}

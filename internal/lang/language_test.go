package lang_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/alnah/poddy/internal/lang"
)

// ---------------------------------------------------------------------------
// TestParse - validation and canonical form
// ---------------------------------------------------------------------------

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		wantCode string
		wantBase string
		wantErr  bool
	}{
		{"tr-TR", "tr-TR", "tr", false},
		{"tr_tr", "tr-TR", "tr", false},
		{"TR", "tr", "tr", false},
		{"en", "en", "en", false},
		{"pt-BR", "pt-BR", "pt", false},
		{"", "", "", false},
		{"  ", "", "", false},
		{"xx", "", "", true},
		{"not a tag!", "", "", true},
		{"tlh", "", "", true}, // Klingon is valid BCP 47 but not supported
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			got, err := lang.Parse(tt.input)
			if tt.wantErr {
				if !errors.Is(err, lang.ErrInvalid) {
					t.Fatalf("Parse(%q) error = %v, want ErrInvalid", tt.input, err)
				}
				if !strings.Contains(err.Error(), tt.input) {
					t.Errorf("error %q should mention input %q", err, tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) unexpected error: %v", tt.input, err)
			}
			if got.String() != tt.wantCode {
				t.Errorf("String() = %q, want %q", got.String(), tt.wantCode)
			}
			if got.BaseCode() != tt.wantBase {
				t.Errorf("BaseCode() = %q, want %q", got.BaseCode(), tt.wantBase)
			}
		})
	}
}

func TestMustParse_Panics(t *testing.T) {
	t.Parallel()

	defer func() {
		if recover() == nil {
			t.Error("MustParse(\"xx\") did not panic")
		}
	}()
	lang.MustParse("xx")
}

// ---------------------------------------------------------------------------
// TestFold - locale-aware lowercasing
// ---------------------------------------------------------------------------

func TestFold(t *testing.T) {
	t.Parallel()

	turkish := lang.MustParse("tr-TR")
	var auto lang.Language

	tests := []struct {
		name  string
		l     lang.Language
		input string
		want  string
	}{
		{"turkish dotless I", turkish, "ÇIKIŞ", "çıkış"},
		{"turkish dotted I", turkish, "İYİ", "iyi"},
		{"turkish mixed case phrase", turkish, "  Hoşça Kal, görüşürüz ", "hoşça kal, görüşürüz"},
		{"auto uses root rules", auto, "ÇIKIŞ", "çikiş"},
		{"already lowercase", turkish, "kapat", "kapat"},
		{"empty", turkish, "", ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := tt.l.Fold(tt.input); got != tt.want {
				t.Errorf("Fold(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestFold_Idempotent(t *testing.T) {
	t.Parallel()

	l := lang.MustParse("tr-TR")
	for _, s := range []string{"GÜLE GÜLE", "Bitir", "İstanbul"} {
		once := l.Fold(s)
		if twice := l.Fold(once); twice != once {
			t.Errorf("Fold(Fold(%q)) = %q, want %q", s, twice, once)
		}
	}
}

// ---------------------------------------------------------------------------
// TestDisplayName
// ---------------------------------------------------------------------------

func TestDisplayName(t *testing.T) {
	t.Parallel()

	var auto lang.Language
	if got := auto.DisplayName(); got != "auto" {
		t.Errorf("zero DisplayName() = %q, want %q", got, "auto")
	}
	if got := lang.MustParse("tr").DisplayName(); got != "Türkçe" {
		t.Errorf("tr DisplayName() = %q, want %q", got, "Türkçe")
	}
	if !auto.IsZero() || lang.MustParse("en").IsZero() {
		t.Error("IsZero() mismatch")
	}
}

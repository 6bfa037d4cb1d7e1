package log_test

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/alnah/poddy/internal/log"
)

// Notes:
// - Init mutates the slog default, so these tests do not run in parallel.

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			if got := log.ParseLevel(tt.in); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestInit_ComponentAttribute(t *testing.T) {
	t.Setenv("PODDY_LOG_FORMAT", "")

	var buf bytes.Buffer
	log.Init(&buf, "debug")

	log.For("speech").Debug("synthesized", "bytes", 2048)

	out := buf.String()
	for _, want := range []string{"component=speech", "bytes=2048", "msg=synthesized"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
}

func TestInit_LevelFilters(t *testing.T) {
	t.Setenv("PODDY_LOG_FORMAT", "")

	var buf bytes.Buffer
	log.Init(&buf, "info")

	log.L().Debug("hidden")
	log.L().Info("shown")

	if strings.Contains(buf.String(), "hidden") {
		t.Error("debug record written at info level")
	}
	if !strings.Contains(buf.String(), "shown") {
		t.Error("info record missing")
	}
}

func TestInit_JSON(t *testing.T) {
	t.Setenv("PODDY_LOG_FORMAT", "json")

	var buf bytes.Buffer
	log.Init(&buf, "info")
	log.For("turn").Info("listening")

	if !strings.Contains(buf.String(), `"component":"turn"`) {
		t.Errorf("output %q is not JSON with component", buf.String())
	}
}

func TestDiscard(t *testing.T) {
	t.Parallel()

	l := log.Discard()
	if l.Enabled(context.Background(), slog.LevelError) {
		t.Error("Discard logger should not be enabled at error level")
	}
}

package cli

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/alnah/poddy/internal/config"
	"github.com/alnah/poddy/internal/ffmpeg"
	"github.com/alnah/poddy/internal/speech"
)

// ---------------------------------------------------------------------------
// TestRunSay - one synthesized line
// ---------------------------------------------------------------------------

func TestRunSay(t *testing.T) {
	t.Parallel()

	errPlayer := errors.New("device busy")

	tests := []struct {
		name       string
		text       string
		voice      string
		setup      func(m *testMocks, vars map[string]string)
		wantErr    error
		wantPlays  int
		wantOutput string
		wantVoice  string
	}{
		{
			name:       "speaks with configured voice",
			text:       "Merhaba",
			wantPlays:  1,
			wantOutput: "Playing (8 bytes)...",
			wantVoice:  config.DefaultVoiceID,
		},
		{
			name:      "voice flag overrides setting",
			text:      "Merhaba",
			voice:     "custom-voice",
			wantPlays: 1,
			wantVoice: "custom-voice",
		},
		{
			name:       "blank text is skipped",
			text:       "   ",
			wantOutput: "Nothing to say.",
		},
		{
			name:    "missing elevenlabs key",
			text:    "Merhaba",
			setup:   func(_ *testMocks, vars map[string]string) { delete(vars, config.EnvElevenLabsAPIKey) },
			wantErr: ErrAPIKeyMissing,
		},
		{
			name: "ffplay not found",
			text: "Merhaba",
			setup: func(m *testMocks, _ map[string]string) {
				m.tools.ResolveFunc = func(ffmpeg.Tool) (string, error) { return "", ffmpeg.ErrNotFound }
			},
			wantErr: ffmpeg.ErrNotFound,
		},
		{
			name: "synthesis failure",
			text: "Merhaba",
			setup: func(m *testMocks, _ map[string]string) {
				m.speech.source.StreamFunc = func(context.Context, string, speech.Voice) (speech.ChunkStream, error) {
					return nil, errors.New("connection refused")
				}
			},
			wantErr: speech.ErrTransport,
		},
		{
			name: "empty audio payload",
			text: "Merhaba",
			setup: func(m *testMocks, _ map[string]string) {
				m.speech.source.StreamFunc = func(context.Context, string, speech.Voice) (speech.ChunkStream, error) {
					return &sliceStream{}, nil
				}
			},
			wantErr: speech.ErrEmptyPayload,
		},
		{
			name: "playback failure",
			text: "Merhaba",
			setup: func(m *testMocks, _ map[string]string) {
				m.audio.player.PlayFunc = func(context.Context, string) error { return errPlayer }
			},
			wantErr:   errPlayer,
			wantPlays: 1,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			stderr := &syncBuffer{}
			m := newTestMocks()
			vars := allKeys()
			if tt.setup != nil {
				tt.setup(m, vars)
			}
			env := testEnv(stderr, m, vars)

			err := RunSay(context.Background(), env, tt.text, tt.voice)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("RunSay() error = %v, want %v", err, tt.wantErr)
				}
			} else if err != nil {
				t.Fatalf("RunSay() unexpected error: %v", err)
			}

			if got := len(m.audio.player.Paths()); got != tt.wantPlays {
				t.Errorf("plays = %d, want %d", got, tt.wantPlays)
			}
			if tt.wantOutput != "" && !strings.Contains(stderr.String(), tt.wantOutput) {
				t.Errorf("output = %q, want it to contain %q", stderr.String(), tt.wantOutput)
			}
			if tt.wantVoice != "" {
				voices := m.speech.source.Voices()
				if len(voices) != 1 || voices[0].ID != tt.wantVoice {
					t.Errorf("voices = %+v, want ID %q", voices, tt.wantVoice)
				}
			}
		})
	}
}

func TestRunSay_SpeechFailedSentinel(t *testing.T) {
	t.Parallel()

	m := newTestMocks()
	m.speech.source.StreamFunc = func(context.Context, string, speech.Voice) (speech.ChunkStream, error) {
		return nil, errors.New("boom")
	}

	err := RunSay(context.Background(), testEnv(&syncBuffer{}, m, nil), "Merhaba", "")
	if !errors.Is(err, ErrSpeechFailed) {
		t.Errorf("RunSay() error = %v, want ErrSpeechFailed", err)
	}
}

// ---------------------------------------------------------------------------
// TestSayCmd - Cobra integration
// ---------------------------------------------------------------------------

func TestSayCmd(t *testing.T) {
	t.Parallel()

	t.Run("joins arguments", func(t *testing.T) {
		t.Parallel()

		m := newTestMocks()
		cmd := SayCmd(testEnv(&syncBuffer{}, m, nil))
		cmd.SetArgs([]string{"İyi", "günler"})
		cmd.SetContext(context.Background())

		if err := cmd.Execute(); err != nil {
			t.Fatalf("Execute() unexpected error: %v", err)
		}
		texts := m.speech.source.Texts()
		if len(texts) != 1 || texts[0] != "İyi günler" {
			t.Errorf("spoken = %q, want [İyi günler]", texts)
		}
	})

	t.Run("requires text", func(t *testing.T) {
		t.Parallel()

		cmd := SayCmd(testEnv(&syncBuffer{}, newTestMocks(), nil))
		cmd.SetArgs([]string{})
		cmd.SetOut(&syncBuffer{})
		cmd.SetErr(&syncBuffer{})
		if err := cmd.Execute(); err == nil {
			t.Fatal("Execute() error = nil, want usage error")
		}
	})
}

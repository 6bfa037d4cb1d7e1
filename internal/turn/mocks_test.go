package turn_test

import (
	"context"
	"sync"

	"github.com/alnah/poddy/internal/audio"
	"github.com/alnah/poddy/internal/lang"
	"github.com/alnah/poddy/internal/speech"
	"github.com/alnah/poddy/internal/transcribe"
)

// captureStep is one scripted Capture result.
type captureStep struct {
	utt      audio.Utterance
	err      error
	panicVal any
}

// mockCapturer replays scripted captures, then times out forever.
type mockCapturer struct {
	mu    sync.Mutex
	steps []captureStep
	calls int
	opts  []audio.CaptureOptions
	// onCall runs before each capture returns (e.g. to cancel a context).
	onCall func(n int)
}

func (m *mockCapturer) Capture(_ context.Context, opts audio.CaptureOptions) (audio.Utterance, error) {
	m.mu.Lock()
	m.calls++
	n := m.calls
	m.opts = append(m.opts, opts)
	var step captureStep
	if n <= len(m.steps) {
		step = m.steps[n-1]
	} else {
		step = captureStep{err: audio.ErrCaptureTimeout}
	}
	m.mu.Unlock()

	if m.onCall != nil {
		m.onCall(n)
	}
	if step.panicVal != nil {
		panic(step.panicVal)
	}
	return step.utt, step.err
}

// mockTranscriber replays scripted results in order.
type mockTranscriber struct {
	results  []transcribe.Result
	panicVal any
	calls    int
	hints    []lang.Language
}

func (m *mockTranscriber) Transcribe(_ context.Context, _ audio.Utterance, hint lang.Language) transcribe.Result {
	m.calls++
	m.hints = append(m.hints, hint)
	if m.panicVal != nil {
		panic(m.panicVal)
	}
	if m.calls <= len(m.results) {
		return m.results[m.calls-1]
	}
	return transcribe.Result{Kind: transcribe.KindSilence}
}

// mockResponder echoes a fixed reply.
type mockResponder struct {
	reply    string
	panicVal any
	prompts  []string
}

func (m *mockResponder) Respond(_ context.Context, prompt string) string {
	m.prompts = append(m.prompts, prompt)
	if m.panicVal != nil {
		panic(m.panicVal)
	}
	return m.reply
}

// mockSpeaker records spoken lines.
type mockSpeaker struct {
	outcome  speech.Outcome
	panicVal any
	lines    []string
	voices   []speech.Voice
}

func (m *mockSpeaker) Speak(_ context.Context, text string, voice speech.Voice) speech.Outcome {
	m.lines = append(m.lines, text)
	m.voices = append(m.voices, voice)
	if m.panicVal != nil {
		panic(m.panicVal)
	}
	return m.outcome
}

func speechOf(data string) captureStep {
	return captureStep{utt: audio.Utterance{Audio: []byte(data), Format: "ogg"}}
}

func heard(text string) transcribe.Result {
	return transcribe.Result{Kind: transcribe.KindText, Text: text}
}

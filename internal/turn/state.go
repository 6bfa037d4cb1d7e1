package turn

import (
	"fmt"
	"strings"
)

// State is the controller's position in the turn cycle.
type State int

// Controller states. Listening is initial, Stopped is terminal.
const (
	Listening State = iota
	Transcribing
	Responding
	Synthesizing
	Terminating
	Stopped
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Listening:
		return "listening"
	case Transcribing:
		return "transcribing"
	case Responding:
		return "responding"
	case Synthesizing:
		return "synthesizing"
	case Terminating:
		return "terminating"
	case Stopped:
		return "stopped"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Outcome reports how a single turn ended.
type Outcome int

// Turn outcomes.
const (
	// OutcomeTimeout means no speech started before the listen timeout.
	OutcomeTimeout Outcome = iota
	// OutcomeCaptureFailed means the microphone could not be read.
	OutcomeCaptureFailed
	// OutcomeMisheard means transcription yielded no usable text.
	OutcomeMisheard
	// OutcomeAnswered means a reply was generated and handed to synthesis.
	OutcomeAnswered
	// OutcomeExit means an exit phrase was heard and the farewell spoken.
	OutcomeExit
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case OutcomeTimeout:
		return "timeout"
	case OutcomeCaptureFailed:
		return "capture-failed"
	case OutcomeMisheard:
		return "misheard"
	case OutcomeAnswered:
		return "answered"
	case OutcomeExit:
		return "exit"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// MishearPolicy selects what happens when transcription yields no text.
type MishearPolicy int

// Mishear policies.
const (
	// MishearSilent returns to listening without a word.
	MishearSilent MishearPolicy = iota
	// MishearAnnounce speaks a short "could not understand" line first.
	MishearAnnounce
)

// String returns the config value for the policy.
func (p MishearPolicy) String() string {
	switch p {
	case MishearSilent:
		return "silent"
	case MishearAnnounce:
		return "announce"
	default:
		return fmt.Sprintf("MishearPolicy(%d)", int(p))
	}
}

// ParseMishearPolicy parses "silent" or "announce". Empty means silent.
func ParseMishearPolicy(s string) (MishearPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "silent":
		return MishearSilent, nil
	case "announce":
		return MishearAnnounce, nil
	default:
		return MishearSilent, fmt.Errorf("%q (expected silent or announce): %w", s, ErrInvalidPolicy)
	}
}

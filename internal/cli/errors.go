package cli

import "errors"

// CLI-specific sentinel errors.
// These are startup and usage errors that don't belong to domain packages.

var (
	// ErrAPIKeyMissing indicates a required credential environment variable is not set.
	ErrAPIKeyMissing = errors.New("API key environment variable not set")

	// ErrServiceInit indicates a remote service failed its startup probe.
	ErrServiceInit = errors.New("service initialization failed")

	// ErrSpeechFailed indicates the say command could not speak its text.
	ErrSpeechFailed = errors.New("speech failed")
)

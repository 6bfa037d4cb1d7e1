package speech

import "errors"

var (
	// ErrEmptyPayload indicates the synthesis service returned no audio bytes.
	ErrEmptyPayload = errors.New("empty audio payload")

	// ErrTransport indicates the synthesis request or its stream failed.
	ErrTransport = errors.New("synthesis transport error")

	// ErrPlayback indicates the audio could not be played.
	ErrPlayback = errors.New("playback failed")

	// ErrStreamConsumed indicates a ChunkStream was iterated a second time.
	ErrStreamConsumed = errors.New("audio stream already consumed")

	// ErrNoVoice indicates a synthesis request without a voice ID.
	ErrNoVoice = errors.New("voice ID not set")
)

package artifact

import "errors"

// ErrEmptyData indicates Acquire was called without audio bytes.
var ErrEmptyData = errors.New("no audio data to store")

// ErrWriteFailed indicates the temporary file could not be created or written.
var ErrWriteFailed = errors.New("artifact write failed")

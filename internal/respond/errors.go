package respond

import "errors"

var (
	// ErrEmptyAPIKey indicates that the API key was not provided.
	ErrEmptyAPIKey = errors.New("API key is required")

	// ErrNoCandidates indicates the service answered without any candidate.
	ErrNoCandidates = errors.New("no candidates in response")
)

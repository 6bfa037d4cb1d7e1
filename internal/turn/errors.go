package turn

import "errors"

var (
	// ErrMissingCollaborator indicates a nil stage dependency.
	ErrMissingCollaborator = errors.New("missing collaborator")

	// ErrInvalidPolicy indicates an unknown mishear policy name.
	ErrInvalidPolicy = errors.New("invalid mishear policy")
)

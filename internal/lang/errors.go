package lang

import "errors"

// ErrInvalid indicates an invalid or unsupported language code.
var ErrInvalid = errors.New("invalid language code")

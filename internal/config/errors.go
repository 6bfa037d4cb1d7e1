package config

import "errors"

var (
	// ErrUnknownKey indicates a key that poddy does not recognize.
	ErrUnknownKey = errors.New("unknown config key")

	// ErrInvalidKey indicates a key that cannot be stored in the file format.
	ErrInvalidKey = errors.New("invalid config key")

	// ErrInvalidValue indicates a value rejected by the key's validator.
	ErrInvalidValue = errors.New("invalid config value")

	// ErrSyntax indicates a malformed line in the config file.
	ErrSyntax = errors.New("invalid config syntax")
)

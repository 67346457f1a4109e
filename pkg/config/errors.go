package config

import "errors"

// Sentinel errors for configuration failure modes.
// Callers should use errors.Is() to check for these.
var (
	// ErrInvalidConfig indicates bad YAML, an unknown key or a value
	// out of range.
	ErrInvalidConfig = errors.New("config: invalid configuration")

	// ErrMissingRequired indicates a setting that has no usable default
	// was left empty.
	ErrMissingRequired = errors.New("config: missing required field")
)

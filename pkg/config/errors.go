package config

import (
	"errors"
	"fmt"
)

// Sentinel errors for configuration validation.
var (
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrZeroResources = errors.New("DefaultCPU and DefaultMem cannot both be zero")
)

// Wrap attaches validator diagnostics to a sentinel error for %w-friendly
// comparison via errors.Is while still surfacing the field-level detail.
func Wrap(sentinel error, cause error) error {
	return fmt.Errorf("%w: %s", sentinel, cause)
}

package soils

import (
	"errors"
	"fmt"
)

var (
	// ErrProfileNotFound is returned by the repository when no record matches.
	ErrProfileNotFound      = errors.New("soil profile not found")
	ErrProfileNotNormalized = errors.New("soil profile has not been normalized")
	ErrUnsupportedFormat    = errors.New("unsupported export format")
	ErrBatchTooLarge        = errors.New("batch too large")
)

// ConfigError is a fatal data-authoring problem. Processing of the profile
// stops and Msg is reported to the user verbatim.
type ConfigError struct {
	Op  string `json:"op"`
	Msg string `json:"message"`
}

func (e *ConfigError) Error() string {
	return e.Msg
}

func configErrorf(op, format string, args ...interface{}) error {
	return &ConfigError{Op: op, Msg: fmt.Sprintf(format, args...)}
}

// IsConfigError reports whether err wraps a ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

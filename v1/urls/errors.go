package urls

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownKey       = errors.New("Unknown URL key")
	ErrMissingParameter = errors.New("Missing URL parameter")
	ErrInvalidTable     = errors.New("Invalid URL table")
)

// ConfigurationError is returned when a URL key is not present in the table.
type ConfigurationError struct {
	Key string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("The URL %q is not listed in the URL table", e.Key)
}

func (e *ConfigurationError) Unwrap() error {
	return ErrUnknownKey
}

// MissingParameterError is returned when a template placeholder has no
// corresponding value.
type MissingParameterError struct {
	Key      string
	Template string
	Param    string
}

func (e *MissingParameterError) Error() string {
	return fmt.Sprintf("The URL %q (%s) requires a %q parameter", e.Key, e.Template, e.Param)
}

func (e *MissingParameterError) Unwrap() error {
	return ErrMissingParameter
}

package rf

import (
	"errors"
	"fmt"
)

// ConfigError represents an invalid configuration value. It is returned from
// constructors and config validation only; a component that constructed
// successfully does not raise it afterwards.
type ConfigError struct {
	Field   string
	Message string
	Cause   error
}

func (e *ConfigError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("config %s: %s: %v", e.Field, e.Message, e.Cause)
	}
	return fmt.Sprintf("config %s: %s", e.Field, e.Message)
}

func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// NewConfigError creates a new ConfigError for the given field.
func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{Field: field, Message: message}
}

// NewConfigErrorWithCause creates a new ConfigError wrapping an underlying error.
func NewConfigErrorWithCause(field, message string, cause error) *ConfigError {
	return &ConfigError{Field: field, Message: message, Cause: cause}
}

// ShapeError represents a per-call input whose dimensions do not match what
// the component was configured for. The failing call returns it without
// mutating any internal state, so the caller may drop the input and continue.
type ShapeError struct {
	What string
	Want int
	Got  int
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("shape %s: want %d, got %d", e.What, e.Want, e.Got)
}

// NewShapeError creates a new ShapeError.
func NewShapeError(what string, want, got int) *ShapeError {
	return &ShapeError{What: what, Want: want, Got: got}
}

// IsConfigError reports whether err is or wraps a ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// IsShapeError reports whether err is or wraps a ShapeError.
func IsShapeError(err error) bool {
	var se *ShapeError
	return errors.As(err, &se)
}

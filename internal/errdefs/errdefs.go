// Package errdefs defines the user-facing error taxonomy for quarry.
//
// Every error carries a short message plus optional "why" and "fix" hints
// that the CLI renders for the user. Callers classify with the Is* helpers
// rather than string matching.
package errdefs

import "errors"

// Kind classifies a user-facing error.
type Kind string

const (
	// KindInput marks malformed or inaccessible filesystem input.
	KindInput Kind = "input_error"
	// KindIndex marks a missing or unusable search index.
	KindIndex Kind = "index_error"
	// KindConfig marks an invalid configuration value.
	KindConfig Kind = "config_error"
)

// Error is a user-facing error with remediation hints.
type Error struct {
	Kind    Kind
	Message string
	Why     string
	Fix     string
	cause   error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// WithCause attaches an underlying error for %w chains.
func (e *Error) WithCause(err error) *Error {
	e.cause = err
	return e
}

// Input creates a KindInput error.
func Input(message, why, fix string) *Error {
	return &Error{Kind: KindInput, Message: message, Why: why, Fix: fix}
}

// Index creates a KindIndex error.
func Index(message, why, fix string) *Error {
	return &Error{Kind: KindIndex, Message: message, Why: why, Fix: fix}
}

// Config creates a KindConfig error.
func Config(message, why, fix string) *Error {
	return &Error{Kind: KindConfig, Message: message, Why: why, Fix: fix}
}

// As extracts an *Error from err's chain, or nil.
func As(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return nil
}

// IsInput reports whether err is a KindInput error.
func IsInput(err error) bool {
	e := As(err)
	return e != nil && e.Kind == KindInput
}

// IsIndex reports whether err is a KindIndex error.
func IsIndex(err error) bool {
	e := As(err)
	return e != nil && e.Kind == KindIndex
}

// IsConfig reports whether err is a KindConfig error.
func IsConfig(err error) bool {
	e := As(err)
	return e != nil && e.Kind == KindConfig
}

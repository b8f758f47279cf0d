/*
PURPOSE:
  Error taxonomy for Forest Capacity.
  Every failure that ends a search or a continuous run carries one of these codes.

REQUIREMENTS:
  User-specified:
  - Distinguish missing config fields, launch errors, missing and malformed artifacts.

  Implementation-discovered:
  - Per-trial timeouts need their own code so they are not confused with launch errors.
  - Callers match codes through fmt.Errorf wrapping.

ARCHITECTURE INTEGRATION:
  - Used by: internal/benchdoc, internal/engine, internal/cli

ERROR HANDLING:
  - N/A (this is the error handling).

USAGE:
  return failure.New(failure.ArtifactMissing, "artifact not found", failure.WithPath(p))
  if failure.Is(err, failure.ArtifactMalformed) { ... }

RELATED FILES:
  - internal/engine/trial.go
  - internal/engine/extract.go
*/

package failure

import (
	"errors"
	"fmt"
)

// Code identifies a class of failure.
type Code string

const (
	ConfigMissingField Code = "CONFIG_MISSING_FIELD"
	ConfigInvalid      Code = "CONFIG_INVALID"
	LaunchError        Code = "LAUNCH_ERROR"
	TrialTimeout       Code = "TRIAL_TIMEOUT"
	ArtifactMissing    Code = "ARTIFACT_MISSING"
	ArtifactMalformed  Code = "ARTIFACT_MALFORMED"
)

// Error is a coded failure with optional context.
type Error struct {
	Code    Code
	Message string
	Path    string
	Field   string
	Err     error
}

// Option mutates an Error during construction.
type Option func(*Error)

// New constructs a coded Error.
func New(code Code, message string, opts ...Option) *Error {
	e := &Error{Code: code, Message: message}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// WithPath attaches the file the failure refers to.
func WithPath(path string) Option {
	return func(e *Error) {
		e.Path = path
	}
}

// WithField attaches the document field or CSV column involved.
func WithField(field string) Option {
	return func(e *Error) {
		e.Field = field
	}
}

// WithCause attaches the underlying error.
func WithCause(err error) Option {
	return func(e *Error) {
		e.Err = err
	}
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Field != "" {
		msg += fmt.Sprintf(" (field %q)", e.Field)
	}
	if e.Path != "" {
		msg += fmt.Sprintf(" [%s]", e.Path)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// CodeOf returns the code of the first coded Error in err's chain, or "".
func CodeOf(err error) Code {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return ""
}

// Is reports whether err carries the given code anywhere in its chain.
func Is(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}

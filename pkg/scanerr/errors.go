// Package scanerr defines the error taxonomy of a logleek scan.
// Fatal kinds stop the pipeline, recoverable kinds only shrink the working set.
package scanerr

import (
	"errors"
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

// Kind classifies a scan error.
type Kind string

const (
	// ConfigError is a missing or malformed pattern file.
	ConfigError Kind = "ConfigError"
	// AuthError is a failed credential or permission preflight.
	AuthError Kind = "AuthError"
	// RegionCatalogError is a transport failure while listing regions.
	RegionCatalogError Kind = "RegionCatalogError"
	// SourceError is a failure listing log groups or streams of a region.
	SourceError Kind = "SourceError"
	// FetchError is a failure retrieving the events of a single log source.
	FetchError Kind = "FetchError"
)

// Error is the error type returned by the scan pipeline.
type Error struct {
	Kind Kind
	// Op is the operation that failed, e.g. "DescribeLogGroups".
	Op string
	// Subject identifies what the operation was acting on (file, region, source).
	Subject string
	// Reason is a short human readable classification such as "expired".
	Reason string
	Err    error
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Op != "" {
		msg += " " + e.Op
	}
	if e.Subject != "" {
		msg += " " + e.Subject
	}
	if e.Reason != "" {
		msg += " (" + e.Reason + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Fatal reports whether the error aborts the scan.
func (e *Error) Fatal() bool {
	switch e.Kind {
	case ConfigError, AuthError, RegionCatalogError:
		return true
	default:
		return false
	}
}

// New creates an error of the given kind. The cause is wrapped with a stack trace.
func New(kind Kind, op, subject string, cause error) *Error {
	if cause != nil {
		cause = pkgerrors.WithStack(cause)
	}
	return &Error{Kind: kind, Op: op, Subject: subject, Err: cause}
}

// WithReason sets Reason and returns the error for chaining.
func (e *Error) WithReason(reason string) *Error {
	e.Reason = reason
	return e
}

// Config is a shorthand for a ConfigError.
func Config(subject string, format string, args ...any) *Error {
	return New(ConfigError, "load", subject, fmt.Errorf(format, args...))
}

// KindOf returns the Kind of err or the empty string when err is not a scan error.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}

// Is reports whether err is a scan error of the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// IsFatal reports whether err is a scan error that aborts the scan.
func IsFatal(err error) bool {
	var se *Error
	if errors.As(err, &se) {
		return se.Fatal()
	}
	return false
}

// ReasonOf returns the Reason of err if it is a scan error.
func ReasonOf(err error) string {
	var se *Error
	if errors.As(err, &se) {
		return se.Reason
	}
	return ""
}

package runner

import (
	"errors"
	"io"
	"net"
	"strings"
)

// ErrorCategory classifies errors so callers can tell configuration
// mistakes from network trouble and unreadable server answers.
type ErrorCategory int

const (
	// ErrCatConfig means the run configuration is invalid. Nothing was sent.
	ErrCatConfig ErrorCategory = iota
	// ErrCatConnect means a phase connection could not be established.
	ErrCatConnect
	// ErrCatParse means a server payload could not be interpreted.
	ErrCatParse
)

func (c ErrorCategory) String() string {
	switch c {
	case ErrCatConfig:
		return "config"
	case ErrCatConnect:
		return "connect"
	case ErrCatParse:
		return "parse"
	default:
		return "unknown"
	}
}

// ClassifiedError wraps an error with a category.
type ClassifiedError struct {
	Category ErrorCategory
	Err      error
}

func (e *ClassifiedError) Error() string { return e.Err.Error() }
func (e *ClassifiedError) Unwrap() error { return e.Err }

// ConfigError wraps an error as a configuration error.
func ConfigError(err error) error {
	return &ClassifiedError{Category: ErrCatConfig, Err: err}
}

// ConnectError wraps an error as a connection error.
func ConnectError(err error) error {
	return &ClassifiedError{Category: ErrCatConnect, Err: err}
}

// ParseError wraps an error as a parse error.
func ParseError(err error) error {
	return &ClassifiedError{Category: ErrCatParse, Err: err}
}

// Category extracts the error category. Unclassified errors that look like
// network failures are reported as ErrCatConnect, everything else as
// ErrCatParse.
func Category(err error) ErrorCategory {
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Category
	}
	if isIOError(err) {
		return ErrCatConnect
	}
	return ErrCatParse
}

// IsCategory reports whether err carries the given category.
func IsCategory(err error, cat ErrorCategory) bool {
	return err != nil && Category(err) == cat
}

// isIOError returns true for IO/network-level errors.
func isIOError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	var netErr *net.OpError
	if errors.As(err, &netErr) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "connection refused")
}

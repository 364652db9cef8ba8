package mock

import "errors"

// Mock package errors.
var (
	// ErrNotStarted is returned when querying a server that is not running.
	ErrNotStarted = errors.New("mock server not started")

	// ErrUnknownCase is returned for case numbers outside the configured set.
	ErrUnknownCase = errors.New("unknown case")
)

// Package common provides shared constants, types, and utilities
// used across mullvad-ping.
package common

import "errors"

// Sentinel errors.
// These can be checked with errors.Is() for proper error handling.
var (
	// Catalog errors.
	ErrCatalogFetch = errors.New("failed to fetch relay list")
	ErrEmptyCatalog = errors.New("relay list is empty")

	// Filter errors.
	ErrEmptyCandidateSet = errors.New("no relays left after filtering")

	// Probe errors. These are per-relay outcomes and never abort a run.
	ErrProbeTimeout     = errors.New("probe timed out")
	ErrProbeUnreachable = errors.New("relay unreachable")

	// Configuration errors.
	ErrInvalidConcurrency = errors.New("max concurrent pings must be at least 1")
	ErrInvalidConfig      = errors.New("invalid configuration")
	ErrConfigLoad         = errors.New("failed to load configuration")

	ErrCancelled = errors.New("operation cancelled")
)

// WrapError wraps an error with additional context.
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return &wrappedError{
		msg: message,
		err: err,
	}
}

type wrappedError struct {
	msg string
	err error
}

func (e *wrappedError) Error() string {
	return e.msg + ": " + e.err.Error()
}

func (e *wrappedError) Unwrap() error {
	return e.err
}

package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when no post matches the requested uid.
	ErrNotFound = errors.New("post not found")
	// ErrLoadInProgress is returned when a page load is requested while another one is in flight.
	ErrLoadInProgress = errors.New("a page load is already in progress")
	// ErrInvalidCursor is returned for pagination cursors the content source refuses to follow.
	ErrInvalidCursor = errors.New("invalid pagination cursor")
)

// NetworkError means the CMS could not be reached or answered with a non-2xx status.
// The request can be retried.
type NetworkError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("network error fetching %s (status %d): %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("network error fetching %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// MalformedResponseError means the CMS answered but the body could not be
// decoded or failed validation.
type MalformedResponseError struct {
	URL string
	Err error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed response from %s: %v", e.URL, e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// ValidationError reports a raw CMS record that cannot be converted to a domain type.
type ValidationError struct {
	UID    string
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.UID == "" {
		return fmt.Sprintf("invalid document: %s %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid document %q: %s %s", e.UID, e.Field, e.Reason)
}

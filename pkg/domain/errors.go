package domain

import (
	"errors"
	"fmt"
)

// ErrBadInputFile is returned when an uploaded file cannot be decoded as a document.
var ErrBadInputFile = errors.New("must be a supported file type")

// ErrNoFile is returned when an upload carries no file.
var ErrNoFile = errors.New("no file selected")

// ErrEmptyResult is returned when a response decodes to zero objects.
var ErrEmptyResult = errors.New("no objects to load")

// ErrNoDocument is returned when exporting before the first successful solve.
var ErrNoDocument = errors.New("no document to export")

// ErrStaleResponse is returned when a response arrives after a newer request was issued.
var ErrStaleResponse = errors.New("stale solve response")

// ErrSessionNotFound is returned when a session ID cannot be found.
var ErrSessionNotFound = errors.New("session not found")

// RemoteComputationError reports a failed solve: a non-success status or a transport failure.
type RemoteComputationError struct {
	StatusCode int
	Status     string
	// Detail is the beginning of the response body, if any.
	Detail string
	Err    error
}

func (e *RemoteComputationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("remote computation failed: %v", e.Err)
	}
	return fmt.Sprintf("remote computation failed: %s", e.Status)
}

func (e *RemoteComputationError) Unwrap() error {
	return e.Err
}

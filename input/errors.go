package input

import (
	"errors"
	"fmt"
)

var (
	// ErrMemberNotFound is returned when a tar.gz archive ends before the requested member is found
	ErrMemberNotFound = errors.New("specified list file not found in archive")
	// ErrEmptyBody is returned when a server explicitly advertises a zero length body
	ErrEmptyBody = errors.New("empty response body")
)

// OpenError is returned by Chunk or Reset when the source could not be opened.
// The Input is left unopened so a later call may retry.
type OpenError struct {
	Location string
	Err      error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("unable to open %s: %s", e.Location, e.Err.Error())
}

func (e *OpenError) Unwrap() error {
	return e.Err
}

// StatusError is returned when an HTTP source responds with anything other than 200
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status code %d: %s", e.StatusCode, e.URL)
}

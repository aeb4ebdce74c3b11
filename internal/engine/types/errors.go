package types

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrInvalidID is returned for artwork or user references that cannot be parsed
var ErrInvalidID = errors.New("invalid id")

// NetworkError is a request or body-stream failure
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error fetching %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// RemoteError is a non-success HTTP status from the remote service
type RemoteError struct {
	URL        string
	StatusCode int
	Message    string // Error text from a JSON body, when the service sent one
}

func (e *RemoteError) Error() string {
	msg := fmt.Sprintf("unexpected status code %d (%s) from %s", e.StatusCode, http.StatusText(e.StatusCode), e.URL)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// IoError is a filesystem failure on the local side of a transfer
type IoError struct {
	Path string
	Op   string
	Err  error
}

func (e *IoError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IoError) Unwrap() error { return e.Err }

// ParseError is a malformed response from a resolver endpoint
type ParseError struct {
	URL string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed response from %s: %v", e.URL, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ImageError is one failed member of a batch
type ImageError struct {
	Index int
	URL   string
	Err   error
}

// BatchError aggregates the failed images of one artwork.
// Images that succeeded are not listed and their files stay on disk.
type BatchError struct {
	ArtworkID uint64
	Total     int
	Failures  []ImageError
}

func (e *BatchError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "artwork %d: %d of %d images failed", e.ArtworkID, len(e.Failures), e.Total)
	for _, f := range e.Failures {
		fmt.Fprintf(&b, "; #%d: %v", f.Index, f.Err)
	}
	return b.String()
}

// Unwrap exposes every member error to errors.Is / errors.As
func (e *BatchError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		errs = append(errs, f.Err)
	}
	return errs
}

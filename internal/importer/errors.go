package importer

import (
	"errors"
	"fmt"
)

// ErrRateLimited indicates the catalog API rate limit was exceeded.
var ErrRateLimited = errors.New("catalog API rate limit exceeded")

// ErrRunNotFinished indicates a result was requested while the run is
// still in progress.
var ErrRunNotFinished = errors.New("import run has not finished")

// MalformedInputError indicates the source payload does not parse as the
// declared format. It is fatal to the whole run: no partial processing
// is attempted.
type MalformedInputError struct {
	Format string
	Line   int // 1-based line/row of the offending input, 0 if unknown
	Reason string
}

func (e *MalformedInputError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("malformed %s input at line %d: %s", e.Format, e.Line, e.Reason)
	}
	return fmt.Sprintf("malformed %s input: %s", e.Format, e.Reason)
}

// IsMalformedInput reports whether err is a MalformedInputError.
func IsMalformedInput(err error) bool {
	var target *MalformedInputError
	return errors.As(err, &target)
}

// ServerError represents a 5xx response from the catalog API.
type ServerError struct {
	StatusCode int
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("catalog server error: HTTP %d", e.StatusCode)
}

// RequestError represents a non-retryable non-2xx response from the
// catalog API or the fetch proxy.
type RequestError struct {
	StatusCode int
	Message    string
}

func (e *RequestError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

// StatusCodeOf extracts an HTTP status code from a client error, or 0.
func StatusCodeOf(err error) int {
	var serverErr *ServerError
	if errors.As(err, &serverErr) {
		return serverErr.StatusCode
	}
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.StatusCode
	}
	return 0
}

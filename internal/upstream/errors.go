package upstream

import (
	"errors"
	"fmt"
)

// UnreachableError is returned when a connection to the upstream could not be established
type UnreachableError struct {
	URL string
	Err error
}

func (e *UnreachableError) Error() string {
	return fmt.Sprintf("upstream unreachable: %s: %v", e.URL, e.Err)
}

func (e *UnreachableError) Unwrap() error {
	return e.Err
}

// HTTPError is returned when the upstream answers with a non-2xx status
type HTTPError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("upstream %s failed (HTTP %d): %s", e.URL, e.StatusCode, e.Body)
}

// UnknownError covers every other failure, including undecodable bodies
type UnknownError struct {
	URL string
	Err error
}

func (e *UnknownError) Error() string {
	return fmt.Sprintf("upstream %s: %v", e.URL, e.Err)
}

func (e *UnknownError) Unwrap() error {
	return e.Err
}

// IsUnreachable checks if the error is a connection-level failure
func IsUnreachable(err error) bool {
	var ue *UnreachableError
	return errors.As(err, &ue)
}

// IsHTTPError checks if the upstream returned an error status
func IsHTTPError(err error) bool {
	var he *HTTPError
	return errors.As(err, &he)
}

// StatusCode returns the upstream status carried by err, or 0 if there is none
func StatusCode(err error) int {
	var he *HTTPError
	if errors.As(err, &he) {
		return he.StatusCode
	}
	return 0
}

// Kind labels an error for metrics: "unreachable", "http" or "unknown"
func Kind(err error) string {
	switch {
	case IsUnreachable(err):
		return "unreachable"
	case IsHTTPError(err):
		return "http"
	default:
		return "unknown"
	}
}

package woundapi

import (
	"errors"
	"fmt"
	"net/http"
)

// StatusError is returned for any non-2xx backend response.
type StatusError struct {
	Method  string
	Path    string
	Status  int
	Code    string
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("woundapi: %s %s: status %d: %s", e.Method, e.Path, e.Status, e.Message)
	}
	return fmt.Sprintf("woundapi: %s %s: status %d", e.Method, e.Path, e.Status)
}

// StatusOf returns the HTTP status carried by err, or 0 if err is not a StatusError.
func StatusOf(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Status
	}
	return 0
}

// IsUnauthorized reports whether the backend rejected the session.
func IsUnauthorized(err error) bool {
	return StatusOf(err) == http.StatusUnauthorized
}

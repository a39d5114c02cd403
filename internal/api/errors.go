package api

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNetwork is returned when a request fails to reach the backend or
	// comes back with an unexpected status.
	ErrNetwork = errors.New("network failure")

	// ErrNoData marks a 422 from endpoints where it means "nothing to show".
	ErrNoData = errors.New("no data available")

	// ErrMalformed is returned when a response body cannot be decoded or
	// lacks a required field.
	ErrMalformed = errors.New("malformed response")
)

// NetworkError is a transport failure or a non-2xx response.
type NetworkError struct {
	Op     string
	Status int // 0 when no response was received
	Body   string
	Err    error
}

func (e *NetworkError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: backend returned %d: %s", e.Op, e.Status, e.Body)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

func (e *NetworkError) Is(target error) bool {
	return target == ErrNetwork
}

// MalformedError wraps a decode failure or a missing field.
type MalformedError struct {
	Op  string
	Err error
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("%s: malformed response: %v", e.Op, e.Err)
}

func (e *MalformedError) Unwrap() error {
	return e.Err
}

func (e *MalformedError) Is(target error) bool {
	return target == ErrMalformed
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var ne *NetworkError
	if errors.As(err, &ne) {
		return ne.Status
	}
	return 0
}

// noDataOn422 converts a 422 into ErrNoData, leaving other errors alone.
func noDataOn422(err error) error {
	if StatusOf(err) == http.StatusUnprocessableEntity {
		return fmt.Errorf("%w: %w", ErrNoData, err)
	}
	return err
}

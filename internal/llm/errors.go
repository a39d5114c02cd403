package llm

import (
	"encoding/json"
	"fmt"
	"time"
)

// RateLimitError is returned when the provider answers 429.
type RateLimitError struct {
	RetryAfter time.Duration
	Err        error
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited, retry after %s: %v", e.RetryAfter, e.Err)
	}
	return fmt.Sprintf("rate limited: %v", e.Err)
}

func (e *RateLimitError) Unwrap() error { return e.Err }

// InvalidOutputError is returned when the model output is not JSON or
// does not satisfy the requested schema.
type InvalidOutputError struct {
	Content json.RawMessage
	Err     error
}

func (e *InvalidOutputError) Error() string {
	return fmt.Sprintf("invalid model output: %v", e.Err)
}

func (e *InvalidOutputError) Unwrap() error { return e.Err }

// UnavailableError is returned when the provider cannot be reached or
// fails server side.
type UnavailableError struct {
	Provider string
	Err      error
}

func (e *UnavailableError) Error() string {
	name := e.Provider
	if name == "" {
		name = "provider"
	}
	if e.Err == nil {
		return name + " unavailable"
	}
	return fmt.Sprintf("%s unavailable: %v", name, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// TruncatedError is returned when output stopped at the token limit.
type TruncatedError struct {
	Content json.RawMessage
}

func (e *TruncatedError) Error() string {
	return "model output truncated at max tokens"
}

// classifyStatus maps an HTTP status from a provider SDK error.
func classifyStatus(provider string, status int, err error) error {
	switch {
	case status == 429:
		return &RateLimitError{Err: err}
	default:
		return &UnavailableError{Provider: provider, Err: err}
	}
}

package question

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedType is returned when no handler is registered for a tag.
	ErrUnsupportedType = errors.New("unsupported question type")

	// ErrMalformed is returned when a payload is missing required fields or
	// its options cannot be reconciled with the correct answer.
	ErrMalformed = errors.New("malformed question payload")

	// ErrNoQuestions is returned when a source produced an empty list.
	ErrNoQuestions = errors.New("no questions returned")
)

// UnsupportedTypeError names the tag that could not be resolved.
type UnsupportedTypeError struct {
	Tag string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("unsupported question type %q", e.Tag)
}

func (e *UnsupportedTypeError) Is(target error) bool {
	return target == ErrUnsupportedType
}

// MalformedError describes why a raw payload was rejected.
type MalformedError struct {
	Reason string
}

func (e *MalformedError) Error() string {
	return "malformed question: " + e.Reason
}

func (e *MalformedError) Is(target error) bool {
	return target == ErrMalformed
}

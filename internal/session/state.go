package session

import (
	"errors"
	"time"

	"github.com/studyup/studyup/internal/question"
)

var (
	// ErrNoQuestions is returned by Start when the question list is empty.
	ErrNoQuestions = errors.New("session: no questions to start with")

	// ErrIndexOutOfRange is returned by Retry for an index outside the
	// question list.
	ErrIndexOutOfRange = errors.New("session: question index out of range")

	// ErrRunInProgress is returned by Start when a run is already
	// IN_PROGRESS. The existing run is left untouched.
	ErrRunInProgress = errors.New("session: run already in progress")

	// ErrInvalidState is returned when an operation is not allowed in the
	// current status.
	ErrInvalidState = errors.New("session: operation not allowed in current state")
)

// Mode selects where a run's questions come from.
type Mode string

const (
	ModeStudy          Mode = "STUDY"
	ModeReview         Mode = "REVIEW"
	ModeWeakTypeReview Mode = "WEAK_TYPE_REVIEW"
)

// Status is the phase of a run.
type Status int

const (
	StatusSelecting  Status = iota // Choosing a type or browsing a list
	StatusInProgress               // Serving questions
	StatusCompleted                // Summary available
)

func (s Status) String() string {
	switch s {
	case StatusSelecting:
		return "SELECTING"
	case StatusInProgress:
		return "IN_PROGRESS"
	case StatusCompleted:
		return "COMPLETED"
	}
	return "UNKNOWN"
}

// SlotState describes whether the current question is usable.
type SlotState int

const (
	SlotReady   SlotState = iota // Question present
	SlotEmpty                    // Not fetched yet
	SlotLoading                  // Fetch in flight
	SlotFailed                   // Last fetch failed; may be retried
)

// Run is a point-in-time copy of a controller's state.
type Run struct {
	// ID is the UUID for this run.
	ID string

	// Mode is the source of the run's questions.
	Mode Mode

	// Status is the current phase.
	Status Status

	// Questions is the ordered question list. A nil entry is a question
	// that has not been fetched yet.
	Questions []*question.Question

	// CurrentIndex is the position of the question being answered.
	CurrentIndex int

	// Answers is the answer log, one entry per submitted index.
	Answers []AnsweredQuestion

	// Slot is the load state of the current question.
	Slot SlotState

	// LoadErr is the last fetch error for the current question.
	LoadErr error

	// RetryOf is the index in the previous list when this run retries a
	// single question, or -1.
	RetryOf int

	// Generation changes on every Start, Retry and Restart. Async results
	// carrying an older generation are dropped.
	Generation uint64

	// StartedAt is when the run entered IN_PROGRESS.
	StartedAt time.Time
}

// Current returns the question at CurrentIndex, or nil.
func (r Run) Current() *question.Question {
	if r.CurrentIndex < 0 || r.CurrentIndex >= len(r.Questions) {
		return nil
	}
	return r.Questions[r.CurrentIndex]
}

// Submitted reports whether the current index already has an answer.
func (r Run) Submitted() bool {
	return len(r.Answers) > r.CurrentIndex
}

// LastAnswer returns the most recent answer, or nil.
func (r Run) LastAnswer() *AnsweredQuestion {
	if len(r.Answers) == 0 {
		return nil
	}
	a := r.Answers[len(r.Answers)-1]
	return &a
}

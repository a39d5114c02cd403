// Package conversation manages spoken-dialogue sessions with the AI tutor.
package conversation

import (
	"context"
	"errors"
	"time"

	"github.com/studyup/studyup/internal/api"
)

var (
	// ErrCaptureActive is returned by BeginCapture while a capture or a
	// submission is in progress.
	ErrCaptureActive = errors.New("conversation: capture already active")

	// ErrNotRecording is returned by EndCapture with no capture running.
	ErrNotRecording = errors.New("conversation: not recording")

	// ErrNotActive is returned when the session is not ACTIVE.
	ErrNotActive = errors.New("conversation: session not active")

	// ErrSessionActive is returned by Start while a session is open.
	ErrSessionActive = errors.New("conversation: a session is already open")

	// ErrInvalidParams is returned by Start when a required field for the
	// chosen kind is empty.
	ErrInvalidParams = errors.New("conversation: invalid start parameters")

	// ErrClosed is returned when the session was torn down while a request
	// was in flight. The result of that request is discarded.
	ErrClosed = errors.New("conversation: session closed")
)

// Kind selects the start contract.
type Kind string

const (
	KindGeneral  Kind = "GENERAL"
	KindScenario Kind = "ROLE_PLAY_SCENARIO"
	KindCustom   Kind = "ROLE_PLAY_CUSTOM"
)

// ParseKind accepts the canonical names and the CLI shorthands
// "general", "scenario" and "custom".
func ParseKind(s string) (Kind, error) {
	switch s {
	case "general", string(KindGeneral):
		return KindGeneral, nil
	case "scenario", "roleplay", string(KindScenario):
		return KindScenario, nil
	case "custom", string(KindCustom):
		return KindCustom, nil
	}
	return "", ErrInvalidParams
}

// Status is the lifecycle phase of a session.
type Status int

const (
	StatusIdle     Status = iota // No session
	StatusCreating               // Start call in flight
	StatusActive                 // Turn loop running
	StatusEnding                 // End call in flight
	StatusEnded                  // Terminated or abandoned
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "IDLE"
	case StatusCreating:
		return "CREATING"
	case StatusActive:
		return "ACTIVE"
	case StatusEnding:
		return "ENDING"
	case StatusEnded:
		return "ENDED"
	}
	return "UNKNOWN"
}

// Phase is the turn sub-state of an ACTIVE session. Recording and
// Submitting are exclusive, so a submission can never overlap a capture.
type Phase int

const (
	PhaseIdle       Phase = iota // Ready to record
	PhaseRecording               // Microphone open
	PhaseSubmitting              // Audio sent, waiting for the reply
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "IDLE"
	case PhaseRecording:
		return "RECORDING"
	case PhaseSubmitting:
		return "SUBMITTING"
	}
	return "UNKNOWN"
}

// Speaker attributes a turn.
type Speaker string

const (
	SpeakerAI   Speaker = "AI"
	SpeakerUser Speaker = "USER"
)

// PendingText is shown in the provisional turn while a submission is in
// flight.
const PendingText = "sending…"

// Turn is one utterance.
type Turn struct {
	Speaker          Speaker
	Text             string
	AudioFeedback    string
	EvaluationStatus string
	At               time.Time
}

// Params are the start parameters. Which fields are used depends on Kind.
type Params struct {
	UserID          string
	DifficultyLevel string

	Topic string // GENERAL

	ScenarioID string // ROLE_PLAY_SCENARIO

	CustomAIRole    string // ROLE_PLAY_CUSTOM
	CustomUserRole  string
	CustomSituation string
}

// Session is a snapshot of the current conversation.
type Session struct {
	ID     string
	Kind   Kind
	Status Status
	Phase  Phase

	// Turns is append-only.
	Turns []Turn

	// Pending is the provisional user turn while a submission is in flight.
	Pending *Turn

	AIRole    string
	UserRole  string
	Situation string
	StartedAt time.Time
}

// DisplayTurns returns the committed turns followed by the pending one.
func (s Session) DisplayTurns() []Turn {
	out := append([]Turn(nil), s.Turns...)
	if s.Pending != nil {
		out = append(out, *s.Pending)
	}
	return out
}

// Exchange is the result of one successful capture/submit cycle.
type Exchange struct {
	User Turn
	AI   Turn

	// Audio is the decoded spoken reply, if the backend sent one.
	Audio []byte
}

// Summary is produced when a session ends through End.
type Summary struct {
	SessionID string
	Kind      Kind
	Turns     []Turn
	Duration  time.Duration

	// Remote is the backend's end-of-session report; nil if the end call
	// failed.
	Remote *api.EndSummary

	// Evaluation is nil when feedback could not be retrieved.
	Evaluation *api.Evaluation
}

// RecommendedDifficulty returns the evaluation's suggestion, or "".
func (s *Summary) RecommendedDifficulty() string {
	if s == nil || s.Evaluation == nil {
		return ""
	}
	return s.Evaluation.RecommendedDifficulty
}

// Backend is the remote conversation service.
type Backend interface {
	StartGeneral(ctx context.Context, req api.GeneralStartRequest) (*api.StartResponse, error)
	StartScenario(ctx context.Context, req api.ScenarioStartRequest) (*api.StartResponse, error)
	StartCustom(ctx context.Context, req api.CustomStartRequest) (*api.StartResponse, error)
	Talk(ctx context.Context, sessionID string, audio []byte, filename string) (*api.TalkResponse, error)
	End(ctx context.Context, sessionID string) (*api.EndSummary, error)
	Evaluation(ctx context.Context, sessionID string) (*api.Evaluation, error)
}

// Journal receives session events for local history. Errors are logged
// and never affect the session.
type Journal interface {
	SessionStarted(ctx context.Context, s Session) error
	TurnRecorded(ctx context.Context, sessionID string, seq int, t Turn) error
	SessionEnded(ctx context.Context, sessionID string, sum *Summary, abandoned bool) error
}

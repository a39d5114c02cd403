package store

import (
	"context"
	"time"
)

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit int       // max results (0 = unlimited)
	After int64     // sequence > After
	From  time.Time // timestamp >= From
	To    time.Time // timestamp <= To
}

// Run event actions.
const (
	ActionStart   = "start"
	ActionEnd     = "end"
	ActionAbandon = "abandon"
)

// RunEventData records a run starting or completing.
type RunEventData struct {
	Sequence       int64
	Timestamp      time.Time
	RunID          string
	Mode           string
	Action         string
	QuestionType   string
	TotalQuestions int
	CorrectAnswers int
	DurationSecs   int
}

// AnswerEventData records one scored submission with enough of the
// question to ask it again offline.
type AnswerEventData struct {
	Sequence       int64
	Timestamp      time.Time
	RunID          string
	QuestionID     string
	QuestionType   string
	Difficulty     string
	Prompt         string
	Conversation   string
	Options        []string
	Explanation    string
	SelectedAnswer string
	CorrectAnswer  string
	IsCorrect      bool
}

// ConversationEventData records a conversation starting or ending.
type ConversationEventData struct {
	Sequence              int64
	Timestamp             time.Time
	SessionID             string
	Kind                  string
	Action                string
	TurnCount             int
	Feedback              string
	RecommendedDifficulty string
}

// ConversationTurnData records one committed turn.
type ConversationTurnData struct {
	Sequence         int64
	Timestamp        time.Time
	SessionID        string
	TurnIndex        int
	Speaker          string
	Text             string
	Feedback         string
	EvaluationStatus string
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Sequence     int64
	Timestamp    time.Time
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
}

// EventRepo provides append and query access to local events.
type EventRepo interface {
	// AppendRunEvent records a run start or end.
	AppendRunEvent(ctx context.Context, data RunEventData) error

	// AppendAnswerEvent records a scored answer.
	AppendAnswerEvent(ctx context.Context, data AnswerEventData) error

	// AppendConversationEvent records a conversation start or end.
	AppendConversationEvent(ctx context.Context, data ConversationEventData) error

	// AppendConversationTurn records a committed conversation turn.
	AppendConversationTurn(ctx context.Context, data ConversationTurnData) error

	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// QueryRunEvents returns run events, newest first.
	QueryRunEvents(ctx context.Context, opts QueryOpts) ([]RunEventData, error)

	// QueryAnswerEvents returns answer events, newest first.
	QueryAnswerEvents(ctx context.Context, opts QueryOpts) ([]AnswerEventData, error)

	// WrongAnswers returns incorrect answers, newest first, optionally
	// restricted to the given raw type tags.
	WrongAnswers(ctx context.Context, tags []string, opts QueryOpts) ([]AnswerEventData, error)

	// AttemptsByType counts answers per raw question type tag.
	AttemptsByType(ctx context.Context) (map[string]int, error)

	// QueryConversationEvents returns conversation events, newest first.
	QueryConversationEvents(ctx context.Context, opts QueryOpts) ([]ConversationEventData, error)

	// ConversationTurns returns a session's turns in order.
	ConversationTurns(ctx context.Context, sessionID string) ([]ConversationTurnData, error)

	// QueryLLMRequests returns LLM request events, newest first.
	QueryLLMRequests(ctx context.Context, opts QueryOpts) ([]LLMRequestEventData, error)
}

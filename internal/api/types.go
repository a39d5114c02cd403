package api

import (
	"time"

	"github.com/studyup/studyup/internal/question"
)

// GenerateResponse is the body of POST /questions/generate.
type GenerateResponse struct {
	Questions []question.RawQuestion `json:"questions"`
}

// GeneralStartRequest starts a free-topic conversation.
type GeneralStartRequest struct {
	UserID          string `json:"userId"`
	DifficultyLevel string `json:"difficultyLevel"`
	Topic           string `json:"topic"`
}

// ScenarioStartRequest starts a scripted role-play.
type ScenarioStartRequest struct {
	UserID          string `json:"userId"`
	DifficultyLevel string `json:"difficultyLevel"`
	ScenarioID      string `json:"scenarioId"`
}

// CustomStartRequest starts a role-play with learner-defined roles.
type CustomStartRequest struct {
	UserID          string `json:"userId"`
	DifficultyLevel string `json:"difficultyLevel"`
	CustomAIRole    string `json:"customAiRole"`
	CustomUserRole  string `json:"customUserRole"`
	CustomSituation string `json:"customSituation"`
}

// StartResponse is returned by all three start calls. Only SessionID is
// always present.
type StartResponse struct {
	SessionID       string `json:"sessionId"`
	AIFirstGreeting string `json:"aiFirstGreeting,omitempty"`
	AIRole          string `json:"aiRole,omitempty"`
	UserRole        string `json:"userRole,omitempty"`
	Situation       string `json:"situation,omitempty"`
}

// TalkResponse is the AI's reply to one submitted utterance.
type TalkResponse struct {
	Text             string `json:"text"`
	UserText         string `json:"userText,omitempty"`
	Audio            string `json:"audio,omitempty"` // base64
	Feedback         string `json:"feedback,omitempty"`
	EvaluationStatus string `json:"evaluationStatus,omitempty"`
}

// EndSummary is what the backend reports when a session ends. Fields are
// best effort; an empty body decodes to the zero value.
type EndSummary struct {
	SessionID       string `json:"sessionId,omitempty"`
	Status          string `json:"status,omitempty"`
	TurnCount       int    `json:"turnCount,omitempty"`
	DurationSeconds int    `json:"durationSeconds,omitempty"`
}

// Evaluation is the post-session feedback.
type Evaluation struct {
	Feedback              string `json:"feedback"`
	RecommendedDifficulty string `json:"recommendedDifficulty,omitempty"`
}

// ReviewSessionRequest creates a backend review session.
type ReviewSessionRequest struct {
	UserID          string         `json:"userId"`
	SessionType     string         `json:"sessionType"`
	SessionMetadata map[string]any `json:"sessionMetadata"`
	Categories      []string       `json:"categories"`
}

// ReviewSession is the created review session.
type ReviewSession struct {
	SessionID string `json:"sessionId"`
}

// ReviewItem is a previously missed question with the learner's answer.
type ReviewItem struct {
	question.RawQuestion
	UserAnswer string `json:"userAnswer,omitempty"`
	WrongCount int    `json:"wrongCount,omitempty"`

	// AnsweredAt is kept as sent; backends differ on the time zone suffix.
	AnsweredAt string `json:"answeredAt,omitempty"`
}

// ReviewQuestionsResponse is the body of GET /review/questions.
type ReviewQuestionsResponse struct {
	Questions []ReviewItem `json:"questions"`
}

// ReviewResult is the outcome of a review fetch. NoData is set when the
// backend has nothing to review; Items is then empty.
type ReviewResult struct {
	Items  []ReviewItem
	NoData bool
}

// AnswerRecord is one scored answer sent to POST /sessions/{id}/answers.
type AnswerRecord struct {
	QuestionID     string    `json:"questionId"`
	QuestionType   string    `json:"questionType"`
	SelectedAnswer string    `json:"selectedAnswer"`
	CorrectAnswer  string    `json:"correctAnswer"`
	IsCorrect      bool      `json:"isCorrect"`
	AnsweredAt     time.Time `json:"answeredAt"`
}

// AnswersRequest is the body of POST /sessions/{id}/answers.
type AnswersRequest struct {
	Answers []AnswerRecord `json:"answers"`
}

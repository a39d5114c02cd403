package session

import (
	"time"

	"github.com/studyup/studyup/internal/question"
)

// AnsweredQuestion is the scoring record for one submission. It is created
// once and never mutated.
type AnsweredQuestion struct {
	QuestionID     string
	QuestionType   question.Type
	Prompt         string
	SelectedAnswer string
	CorrectAnswer  string
	IsCorrect      bool
	Timestamp      time.Time
}

// Evaluate scores selected against q. Comparison is exact: no case folding
// or whitespace trimming, matching the backend's string contract.
func Evaluate(q *question.Question, selected string, now time.Time) AnsweredQuestion {
	return AnsweredQuestion{
		QuestionID:     q.ID,
		QuestionType:   q.Type,
		Prompt:         q.Prompt,
		SelectedAnswer: selected,
		CorrectAnswer:  q.CorrectAnswer,
		IsCorrect:      selected == q.CorrectAnswer,
		Timestamp:      now,
	}
}

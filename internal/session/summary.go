package session

import "time"

// Summary is emitted when a run completes.
type Summary struct {
	RunID          string
	Mode           Mode
	TotalQuestions int
	CorrectAnswers int
	Answers        []AnsweredQuestion
	Duration       time.Duration
}

// Accuracy returns CorrectAnswers / TotalQuestions, or 0 for an empty run.
func (s *Summary) Accuracy() float64 {
	if s.TotalQuestions == 0 {
		return 0
	}
	return float64(s.CorrectAnswers) / float64(s.TotalQuestions)
}

// Wrong returns the incorrect answers in submission order.
func (s *Summary) Wrong() []AnsweredQuestion {
	var out []AnsweredQuestion
	for _, a := range s.Answers {
		if !a.IsCorrect {
			out = append(out, a)
		}
	}
	return out
}

// buildSummary counts correct answers from the log itself so the result
// always agrees with Answers.
func buildSummary(run *Run, total int, now time.Time) *Summary {
	answers := append([]AnsweredQuestion(nil), run.Answers...)
	correct := 0
	for _, a := range answers {
		if a.IsCorrect {
			correct++
		}
	}
	return &Summary{
		RunID:          run.ID,
		Mode:           run.Mode,
		TotalQuestions: total,
		CorrectAnswers: correct,
		Answers:        answers,
		Duration:       now.Sub(run.StartedAt),
	}
}

package practice

import "github.com/studyup/studyup/internal/session"

// preparedMsg carries the outcome of building a run.
type preparedMsg struct {
	Prepared Prepared
	Err      error
}

// loadedMsg is sent when a lazy fetch for run generation Gen finished.
type loadedMsg struct {
	Gen uint64
}

// submittedMsg carries the scored answer.
type submittedMsg struct {
	Answer *session.AnsweredQuestion
}

// advancedMsg is sent after moving past a question. Summary is set when
// the run completed.
type advancedMsg struct {
	Summary *session.Summary
}

// Package practice is the question-answering screen shared by study and
// both review modes.
package practice

import (
	"context"
	"errors"

	tea "charm.land/bubbletea/v2"

	"github.com/studyup/studyup/internal/question"
	"github.com/studyup/studyup/internal/router"
	"github.com/studyup/studyup/internal/screen"
	"github.com/studyup/studyup/internal/screens/summary"
	"github.com/studyup/studyup/internal/session"
	"github.com/studyup/studyup/internal/study"
	"github.com/studyup/studyup/internal/ui/components"
	"github.com/studyup/studyup/internal/ui/layout"
)

// Prepared is a ready question list, or an explicit empty state.
type Prepared struct {
	Questions []*question.Question
	RemoteID  string
	NoData    bool

	// Note is shown above the questions, e.g. the targeted weak type.
	Note string
}

// PrepareFunc gathers the questions of a review run.
type PrepareFunc func(ctx context.Context) (Prepared, error)

type phase int

const (
	phasePreparing phase = iota
	phaseNoData
	phasePrepareFailed
	phaseRunning
)

// PracticeScreen runs one session.Controller run through study.Runner.
type PracticeScreen struct {
	runner *study.Runner
	mode   session.Mode
	title  string

	// STUDY
	qtype question.Type
	fetch question.FetchContext
	count int

	// REVIEW and WEAK_TYPE_REVIEW
	prepare PrepareFunc

	resume bool

	phase     phase
	note      string
	errMsg    string
	choice    components.MultiChoice
	choiceFor *question.Question
	answer    *session.AnsweredQuestion
}

var _ screen.Screen = (*PracticeScreen)(nil)
var _ screen.KeyHintProvider = (*PracticeScreen)(nil)

// NewStudy creates a screen for a STUDY run of count questions of qtype.
func NewStudy(r *study.Runner, qtype question.Type, fetch question.FetchContext, count int) *PracticeScreen {
	return &PracticeScreen{
		runner: r,
		mode:   session.ModeStudy,
		title:  "Study",
		qtype:  qtype,
		fetch:  fetch,
		count:  count,
	}
}

// NewReview creates a screen for a review run whose questions come from
// prepare.
func NewReview(r *study.Runner, mode session.Mode, title string, prepare PrepareFunc) *PracticeScreen {
	return &PracticeScreen{runner: r, mode: mode, title: title, prepare: prepare}
}

// Resume creates a screen for a run the runner already started, such as a
// retried question.
func Resume(r *study.Runner, title string) *PracticeScreen {
	return &PracticeScreen{runner: r, mode: r.Snapshot().Mode, title: title, resume: true, phase: phaseRunning}
}

func (s *PracticeScreen) Init() tea.Cmd {
	if s.resume {
		return s.loadCmd()
	}
	return s.prepareCmd()
}

func (s *PracticeScreen) Title() string {
	return s.title
}

// Close abandons an unfinished run before the next screen can start one.
func (s *PracticeScreen) Close() tea.Cmd {
	if s.runner.Snapshot().Status == session.StatusInProgress {
		s.runner.Restart(context.Background())
	}
	return nil
}

func (s *PracticeScreen) KeyHints() []layout.KeyHint {
	switch s.phase {
	case phasePreparing:
		return []layout.KeyHint{{Key: "Esc", Description: "Back"}}
	case phasePrepareFailed:
		return []layout.KeyHint{{Key: "R", Description: "Retry"}, {Key: "Esc", Description: "Back"}}
	case phaseNoData:
		return []layout.KeyHint{{Key: "Esc", Description: "Back"}}
	}

	run := s.runner.Snapshot()
	switch {
	case run.Slot == session.SlotFailed:
		return []layout.KeyHint{{Key: "R", Description: "Retry"}, {Key: "Esc", Description: "Quit run"}}
	case s.answer != nil:
		return []layout.KeyHint{{Key: "Enter", Description: "Next"}, {Key: "Esc", Description: "Quit run"}}
	}
	return []layout.KeyHint{
		{Key: "A-D", Description: "Pick"},
		{Key: "Enter", Description: "Submit"},
		{Key: "Esc", Description: "Quit run"},
	}
}

func (s *PracticeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case preparedMsg:
		return s.handlePrepared(msg)

	case loadedMsg:
		if msg.Gen == s.runner.Snapshot().Generation {
			s.syncChoice()
		}
		return s, s.completedCmd()

	case submittedMsg:
		s.answer = msg.Answer
		if msg.Answer != nil {
			if q := s.choiceFor; q != nil {
				s.choice.Reveal(q.CorrectIndex())
			}
		}
		return s, nil

	case advancedMsg:
		s.answer = nil
		if msg.Summary != nil {
			return s, s.showSummary(msg.Summary)
		}
		return s, s.loadCmd()

	case tea.KeyMsg:
		return s.handleKey(msg)
	}
	return s, nil
}

func (s *PracticeScreen) handlePrepared(msg preparedMsg) (screen.Screen, tea.Cmd) {
	if msg.Err != nil {
		s.phase = phasePrepareFailed
		s.errMsg = msg.Err.Error()
		return s, nil
	}
	if msg.Prepared.NoData {
		s.phase = phaseNoData
		s.note = msg.Prepared.Note
		return s, nil
	}
	s.phase = phaseRunning
	s.note = msg.Prepared.Note
	s.syncChoice()
	return s, s.loadCmd()
}

func (s *PracticeScreen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	key := msg.String()
	if key == "esc" {
		return s, func() tea.Msg { return router.PopScreenMsg{} }
	}

	switch s.phase {
	case phasePrepareFailed:
		if key == "r" {
			s.phase = phasePreparing
			s.errMsg = ""
			return s, s.prepareCmd()
		}
		return s, nil
	case phaseRunning:
	default:
		return s, nil
	}

	run := s.runner.Snapshot()
	if run.Status != session.StatusInProgress {
		return s, nil
	}

	if run.Slot == session.SlotFailed {
		if key == "r" {
			return s, s.loadCmd()
		}
		return s, nil
	}

	if s.answer != nil {
		if key == "enter" || key == "space" {
			return s, s.advanceCmd()
		}
		return s, nil
	}

	if run.Current() == nil {
		return s, nil
	}
	s.syncChoice()
	var chose bool
	s.choice, chose = s.choice.Update(msg)
	if !chose {
		return s, nil
	}
	return s, s.submitCmd(s.choice.Chosen())
}

// syncChoice rebuilds the options when the current question changed.
func (s *PracticeScreen) syncChoice() {
	q := s.runner.Snapshot().Current()
	if q == nil || q == s.choiceFor {
		return
	}
	s.choiceFor = q
	s.choice = components.NewMultiChoice(q.Options)
}

func (s *PracticeScreen) prepareCmd() tea.Cmd {
	r := s.runner
	if s.prepare == nil {
		qtype, fetch, count := s.qtype, s.fetch, s.count
		return func() tea.Msg {
			err := r.StartStudy(context.Background(), qtype, fetch, count)
			return preparedMsg{Err: err}
		}
	}
	prepare, mode := s.prepare, s.mode
	return func() tea.Msg {
		ctx := context.Background()
		p, err := prepare(ctx)
		if err != nil || p.NoData {
			return preparedMsg{Prepared: p, Err: err}
		}
		if err := r.StartQuestions(ctx, mode, p.Questions, p.RemoteID); err != nil {
			if errors.Is(err, session.ErrNoQuestions) {
				p.NoData = true
				return preparedMsg{Prepared: p}
			}
			return preparedMsg{Err: err}
		}
		return preparedMsg{Prepared: p}
	}
}

func (s *PracticeScreen) loadCmd() tea.Cmd {
	r := s.runner
	gen := r.Snapshot().Generation
	return func() tea.Msg {
		r.Load(context.Background())
		return loadedMsg{Gen: gen}
	}
}

func (s *PracticeScreen) submitCmd(selected string) tea.Cmd {
	r := s.runner
	return func() tea.Msg {
		ans, _ := r.Submit(context.Background(), selected)
		return submittedMsg{Answer: ans}
	}
}

func (s *PracticeScreen) advanceCmd() tea.Cmd {
	r := s.runner
	return func() tea.Msg {
		sum, _ := r.Advance(context.Background())
		return advancedMsg{Summary: sum}
	}
}

// completedCmd shows the summary when a load ended the run, as happens
// when the last remaining question had an unsupported type.
func (s *PracticeScreen) completedCmd() tea.Cmd {
	if sum := s.runner.Controller().Summary(); sum != nil && s.runner.Snapshot().Status == session.StatusCompleted {
		return s.showSummary(sum)
	}
	return nil
}

func (s *PracticeScreen) showSummary(sum *session.Summary) tea.Cmd {
	r, title := s.runner, s.title
	retryOf := r.Snapshot().RetryOf
	onRetry := func(index int) tea.Cmd {
		if retryOf >= 0 {
			index = retryOf
		}
		if err := r.Retry(context.Background(), index); err != nil {
			return nil
		}
		return func() tea.Msg { return router.ReplaceScreenMsg{Screen: Resume(r, title)} }
	}
	return func() tea.Msg {
		return router.ReplaceScreenMsg{Screen: summary.New(sum, onRetry)}
	}
}

// Package study runs practice and review sessions: it feeds the session
// controller with questions, records answers locally and uploads the
// answer log when a run completes.
package study

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/studyup/studyup/internal/api"
	"github.com/studyup/studyup/internal/question"
	"github.com/studyup/studyup/internal/session"
	"github.com/studyup/studyup/internal/store"
)

// ErrNoRun is returned when an operation needs a run that was never
// started.
var ErrNoRun = errors.New("study: no run started")

// Uploader sends a completed run's answers to the backend.
type Uploader interface {
	RecordAnswers(ctx context.Context, sessionID string, answers []api.AnswerRecord) error
}

// Runner owns one session.Controller. Its methods may be called from
// bubbletea commands; the controller serializes them.
type Runner struct {
	ctrl     *session.Controller
	registry *question.Registry
	events   store.EventRepo
	uploader Uploader
	logger   zerolog.Logger

	mu        sync.Mutex // guards the per-run fields below
	handler   question.Handler
	fetch     question.FetchContext
	remoteID  string
	typeLabel string
}

// Option configures a Runner.
type Option func(*Runner)

// WithEvents records runs and answers in the local store.
func WithEvents(repo store.EventRepo) Option {
	return func(r *Runner) { r.events = repo }
}

// WithUploader uploads answer logs on completion.
func WithUploader(u Uploader) Option {
	return func(r *Runner) { r.uploader = u }
}

// NewRunner creates a Runner over registry.
func NewRunner(registry *question.Registry, logger zerolog.Logger, opts ...Option) *Runner {
	r := &Runner{
		ctrl:     session.NewController(logger),
		registry: registry,
		logger:   logger.With().Str("component", "study").Logger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Controller exposes the underlying state machine.
func (r *Runner) Controller() *session.Controller { return r.ctrl }

// Snapshot returns the current run.
func (r *Runner) Snapshot() session.Run { return r.ctrl.Snapshot() }

// StartStudy begins a STUDY run of count questions of type t. Questions
// are fetched one at a time through Load.
func (r *Runner) StartStudy(ctx context.Context, t question.Type, fc question.FetchContext, count int) error {
	h, err := r.registry.Resolve(t)
	if err != nil {
		return err
	}
	if count < 1 {
		count = 1
	}
	if err := r.ctrl.Start(session.ModeStudy, make([]*question.Question, count)); err != nil {
		return err
	}
	r.mu.Lock()
	r.handler, r.fetch, r.remoteID, r.typeLabel = h, fc, "", string(t)
	r.mu.Unlock()
	r.recordRun(ctx, store.ActionStart, nil)
	return nil
}

// StartQuestions begins a run over already fetched questions, as review
// modes do. remoteID is the backend session the answers belong to, if any.
func (r *Runner) StartQuestions(ctx context.Context, mode session.Mode, qs []*question.Question, remoteID string) error {
	if err := r.ctrl.Start(mode, qs); err != nil {
		return err
	}
	label := ""
	if len(qs) > 0 && qs[0] != nil {
		label = string(qs[0].Type)
	}
	r.mu.Lock()
	r.handler, r.fetch, r.remoteID, r.typeLabel = nil, question.FetchContext{}, remoteID, label
	r.mu.Unlock()
	r.recordRun(ctx, store.ActionStart, nil)
	return nil
}

// Load fetches the current question if it is missing. It returns false
// when there was nothing to load or the result arrived for a run that no
// longer exists. A failed fetch is reported through the run's Slot.
func (r *Runner) Load(ctx context.Context) bool {
	tok, ok := r.ctrl.SetLoading()
	if !ok {
		return false
	}
	r.mu.Lock()
	h, fc := r.handler, r.fetch
	r.mu.Unlock()
	if h == nil {
		return r.ctrl.FailLoad(tok, ErrNoRun)
	}

	q, err := h.Fetch(ctx, fc)
	if err != nil {
		if !r.ctrl.FailLoad(tok, err) {
			return false
		}
		// Skipping an unsupported question can end the run.
		if sum := r.ctrl.Summary(); sum != nil {
			r.recordRun(ctx, store.ActionEnd, sum)
			r.upload(ctx, sum)
		}
		return true
	}
	return r.ctrl.Provide(tok, q)
}

// Submit scores selected and records the answer.
func (r *Runner) Submit(ctx context.Context, selected string) (*session.AnsweredQuestion, bool) {
	run := r.ctrl.Snapshot()
	q := run.Current()

	ans, ok := r.ctrl.Submit(selected)
	if !ok || r.events == nil || q == nil {
		return ans, ok
	}
	err := r.events.AppendAnswerEvent(ctx, store.AnswerEventData{
		RunID:          run.ID,
		QuestionID:     q.ID,
		QuestionType:   string(q.Type),
		Difficulty:     string(q.Difficulty),
		Prompt:         q.Prompt,
		Conversation:   q.Conversation,
		Options:        q.Options,
		Explanation:    q.Explanation,
		SelectedAnswer: ans.SelectedAnswer,
		CorrectAnswer:  ans.CorrectAnswer,
		IsCorrect:      ans.IsCorrect,
	})
	if err != nil {
		r.logger.Warn().Err(err).Str("run_id", run.ID).Msg("failed to record answer")
	}
	return ans, ok
}

// Advance moves on; when the run completes it records the result and
// uploads the answer log.
func (r *Runner) Advance(ctx context.Context) (*session.Summary, bool) {
	sum, ok := r.ctrl.Advance()
	if sum != nil {
		r.recordRun(ctx, store.ActionEnd, sum)
		r.upload(ctx, sum)
	}
	return sum, ok
}

// Retry replays one question of the last list.
func (r *Runner) Retry(ctx context.Context, index int) error {
	if err := r.ctrl.Retry(index); err != nil {
		return err
	}
	r.recordRun(ctx, store.ActionStart, nil)
	return nil
}

// Restart abandons the current run, if any, and returns to selection.
func (r *Runner) Restart(ctx context.Context) {
	if r.ctrl.Snapshot().Status == session.StatusInProgress {
		r.recordRun(ctx, store.ActionAbandon, nil)
	}
	r.ctrl.Restart()
}

func (r *Runner) recordRun(ctx context.Context, action string, sum *session.Summary) {
	if r.events == nil {
		return
	}
	run := r.ctrl.Snapshot()
	r.mu.Lock()
	label := r.typeLabel
	r.mu.Unlock()
	data := store.RunEventData{
		RunID:          run.ID,
		Mode:           string(run.Mode),
		Action:         action,
		QuestionType:   label,
		TotalQuestions: len(run.Questions),
	}
	if sum != nil {
		data.RunID = sum.RunID
		data.TotalQuestions = sum.TotalQuestions
		data.CorrectAnswers = sum.CorrectAnswers
		data.DurationSecs = int(sum.Duration / time.Second)
	} else if action == store.ActionAbandon {
		for _, a := range run.Answers {
			if a.IsCorrect {
				data.CorrectAnswers++
			}
		}
	}
	if err := r.events.AppendRunEvent(ctx, data); err != nil {
		r.logger.Warn().Err(err).Str("run_id", data.RunID).Str("action", action).Msg("failed to record run")
	}
}

// upload sends the answer log best-effort.
func (r *Runner) upload(ctx context.Context, sum *session.Summary) {
	if r.uploader == nil || len(sum.Answers) == 0 {
		return
	}
	r.mu.Lock()
	id := r.remoteID
	r.mu.Unlock()
	if id == "" {
		id = sum.RunID
	}
	if err := r.uploader.RecordAnswers(ctx, id, AnswerRecords(sum.Answers)); err != nil {
		r.logger.Warn().Err(err).Str("session_id", id).Msg("answer upload failed")
	}
}

// AnswerRecords converts an answer log to the backend upload shape.
func AnswerRecords(answers []session.AnsweredQuestion) []api.AnswerRecord {
	out := make([]api.AnswerRecord, len(answers))
	for i, a := range answers {
		out[i] = api.AnswerRecord{
			QuestionID:     a.QuestionID,
			QuestionType:   a.QuestionType.WireTag(),
			SelectedAnswer: a.SelectedAnswer,
			CorrectAnswer:  a.CorrectAnswer,
			IsCorrect:      a.IsCorrect,
			AnsweredAt:     a.Timestamp,
		}
	}
	return out
}

// FetchBatch fetches up to fc.Count questions of type t at once, used by
// the non-interactive study command.
func (r *Runner) FetchBatch(ctx context.Context, t question.Type, fc question.FetchContext) ([]*question.Question, error) {
	h, err := r.registry.Resolve(t)
	if err != nil {
		return nil, err
	}
	qs, err := h.FetchBatch(ctx, fc)
	if err != nil {
		return nil, fmt.Errorf("fetch %s questions: %w", t, err)
	}
	return qs, nil
}

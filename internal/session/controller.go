package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/studyup/studyup/internal/question"
)

// LoadToken identifies one lazy fetch. It is only honoured while the run
// that issued it is still current.
type LoadToken struct {
	Generation uint64
	Index      int
}

type slot struct {
	loading bool
	err     error
}

// Controller drives a practice or review run:
// SELECTING -> IN_PROGRESS -> COMPLETED, with Restart back to SELECTING.
// It is safe for concurrent use.
type Controller struct {
	mu sync.Mutex

	run   Run
	slots []slot

	// pool is the full list from the last Start; Retry picks from it.
	pool []*question.Question

	summary *Summary
	logger  zerolog.Logger
	now     func() time.Time
}

// NewController returns a controller in SELECTING.
func NewController(logger zerolog.Logger) *Controller {
	return &Controller{
		run:    Run{Status: StatusSelecting, RetryOf: -1},
		logger: logger.With().Str("component", "session").Logger(),
		now:    time.Now,
	}
}

// Start begins a run over questions. Nil entries are fetched lazily through
// SetLoading/Provide. Calling Start while a run is IN_PROGRESS leaves that
// run unchanged and returns ErrRunInProgress.
func (c *Controller) Start(mode Mode, questions []*question.Question) error {
	if len(questions) == 0 {
		return ErrNoQuestions
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.run.Status == StatusInProgress {
		c.logger.Debug().Str("run_id", c.run.ID).Msg("start ignored, run in progress")
		return ErrRunInProgress
	}

	c.pool = append([]*question.Question(nil), questions...)
	c.begin(mode, c.pool, -1)
	c.logger.Info().
		Str("run_id", c.run.ID).
		Str("mode", string(mode)).
		Int("questions", len(questions)).
		Msg("run started")
	return nil
}

// begin resets run state for a fresh IN_PROGRESS pass. Caller holds mu.
func (c *Controller) begin(mode Mode, questions []*question.Question, retryOf int) {
	c.run = Run{
		ID:         uuid.New().String(),
		Mode:       mode,
		Status:     StatusInProgress,
		Questions:  append([]*question.Question(nil), questions...),
		RetryOf:    retryOf,
		Generation: c.run.Generation + 1,
		StartedAt:  c.now(),
	}
	c.slots = make([]slot, len(questions))
	c.summary = nil
}

// Submit scores selected against the current question. It returns false
// without recording anything when the run is not IN_PROGRESS, the current
// question is still loading, or the current index already has an answer.
func (c *Controller) Submit(selected string) (*AnsweredQuestion, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.run.Status != StatusInProgress || c.run.Submitted() {
		return nil, false
	}
	q := c.run.Current()
	if q == nil {
		return nil, false
	}

	ans := Evaluate(q, selected, c.now())
	c.run.Answers = append(c.run.Answers, ans)
	c.logger.Debug().
		Str("run_id", c.run.ID).
		Int("index", c.run.CurrentIndex).
		Bool("correct", ans.IsCorrect).
		Msg("answer recorded")
	return &ans, true
}

// Advance moves past a submitted question. At the last index the run
// completes and the summary is returned.
func (c *Controller) Advance() (*Summary, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.run.Status != StatusInProgress || !c.run.Submitted() {
		return nil, false
	}
	if c.run.CurrentIndex == len(c.run.Questions)-1 {
		return c.complete(), true
	}
	c.run.CurrentIndex++
	return nil, true
}

// complete transitions to COMPLETED. Caller holds mu.
func (c *Controller) complete() *Summary {
	c.run.Status = StatusCompleted
	c.summary = buildSummary(&c.run, len(c.run.Questions), c.now())
	c.logger.Info().
		Str("run_id", c.run.ID).
		Int("total", c.summary.TotalQuestions).
		Int("correct", c.summary.CorrectAnswers).
		Msg("run completed")
	return c.summary
}

// Retry starts a single-question run for the question at index in the last
// started list. It is allowed from COMPLETED or while browsing the list in
// SELECTING.
func (c *Controller) Retry(index int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.run.Status == StatusInProgress {
		return ErrInvalidState
	}
	if len(c.pool) == 0 {
		return ErrInvalidState
	}
	if index < 0 || index >= len(c.pool) {
		return ErrIndexOutOfRange
	}

	c.begin(c.run.Mode, c.pool[index:index+1], index)
	c.logger.Info().Str("run_id", c.run.ID).Int("retry_of", index).Msg("retrying question")
	return nil
}

// Restart returns to SELECTING, clearing answers and the index. The last
// question list stays available for browsing and Retry. Loads in flight
// for the previous run are ignored when they finish.
func (c *Controller) Restart() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.run = Run{
		Mode:       c.run.Mode,
		Status:     StatusSelecting,
		Questions:  append([]*question.Question(nil), c.pool...),
		RetryOf:    -1,
		Generation: c.run.Generation + 1,
	}
	c.slots = nil
	c.summary = nil
}

// SetLoading marks the current question as being fetched and returns the
// token the fetch must present to Provide or FailLoad. It returns false if
// the current question is already present or being fetched.
func (c *Controller) SetLoading() (LoadToken, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.run.Status != StatusInProgress {
		return LoadToken{}, false
	}
	idx := c.run.CurrentIndex
	if c.run.Questions[idx] != nil || c.slots[idx].loading {
		return LoadToken{}, false
	}
	c.slots[idx] = slot{loading: true}
	return LoadToken{Generation: c.run.Generation, Index: idx}, true
}

// Provide fills the slot named by tok. It returns false when tok belongs to
// a run that no longer exists.
func (c *Controller) Provide(tok LoadToken, q *question.Question) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.live(tok) || q == nil {
		return false
	}
	c.run.Questions[tok.Index] = q
	c.slots[tok.Index] = slot{}
	if c.run.RetryOf < 0 && tok.Index < len(c.pool) {
		c.pool[tok.Index] = q
	}
	return true
}

// FailLoad records a failed fetch. An unsupported question type removes
// the question from the run; if nothing is left the run completes. Other
// errors leave the slot failed so SetLoading can be called again.
func (c *Controller) FailLoad(tok LoadToken, err error) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.live(tok) {
		return false
	}

	if !errors.Is(err, question.ErrUnsupportedType) {
		c.slots[tok.Index] = slot{err: err}
		c.logger.Warn().Err(err).Str("run_id", c.run.ID).Int("index", tok.Index).Msg("question load failed")
		return true
	}

	c.logger.Warn().Err(err).Str("run_id", c.run.ID).Int("index", tok.Index).Msg("skipping unsupported question")
	c.run.Questions = append(c.run.Questions[:tok.Index], c.run.Questions[tok.Index+1:]...)
	c.slots = append(c.slots[:tok.Index], c.slots[tok.Index+1:]...)
	if c.run.RetryOf < 0 && tok.Index < len(c.pool) {
		c.pool = append(c.pool[:tok.Index], c.pool[tok.Index+1:]...)
	}
	if c.run.CurrentIndex >= len(c.run.Questions) {
		if len(c.run.Questions) > 0 {
			c.run.CurrentIndex = len(c.run.Questions) - 1
		}
		c.complete()
	}
	return true
}

// live reports whether tok still addresses a pending slot of the current
// run. Caller holds mu.
func (c *Controller) live(tok LoadToken) bool {
	return c.run.Status == StatusInProgress &&
		tok.Generation == c.run.Generation &&
		tok.Index == c.run.CurrentIndex &&
		tok.Index < len(c.slots) &&
		c.slots[tok.Index].loading
}

// Snapshot returns a copy of the run safe to read without locking.
func (c *Controller) Snapshot() Run {
	c.mu.Lock()
	defer c.mu.Unlock()

	r := c.run
	r.Questions = append([]*question.Question(nil), c.run.Questions...)
	r.Answers = append([]AnsweredQuestion(nil), c.run.Answers...)
	r.Slot = SlotReady
	if r.Status == StatusInProgress && r.Current() == nil {
		s := c.slots[r.CurrentIndex]
		switch {
		case s.loading:
			r.Slot = SlotLoading
		case s.err != nil:
			r.Slot = SlotFailed
			r.LoadErr = s.err
		default:
			r.Slot = SlotEmpty
		}
	}
	return r
}

// Summary returns the summary of the completed run, or nil.
func (c *Controller) Summary() *Summary {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.summary
}

// Progress returns the number of answered questions and the run length.
func (c *Controller) Progress() (answered, total int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.run.Answers), len(c.run.Questions)
}

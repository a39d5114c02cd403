package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/studyup/studyup/internal/api"
	"github.com/studyup/studyup/internal/audio"
)

// DefaultTeardownTimeout bounds the detached termination call.
const DefaultTeardownTimeout = 10 * time.Second

// Option configures a Manager.
type Option func(*Manager)

// WithPlayer sets the player used for spoken replies.
func WithPlayer(p audio.Player) Option {
	return func(m *Manager) { m.player = p }
}

// WithJournal records session events.
func WithJournal(j Journal) Option {
	return func(m *Manager) { m.journal = j }
}

// WithTracker shares a tracker for background terminations.
func WithTracker(t *Tracker) Option {
	return func(m *Manager) { m.tracker = t }
}

// WithTeardownTimeout overrides DefaultTeardownTimeout.
func WithTeardownTimeout(d time.Duration) Option {
	return func(m *Manager) { m.teardownTimeout = d }
}

// Manager runs one conversation session at a time:
// CREATING -> ACTIVE -> ENDING -> ENDED.
//
// At most one capture is open per session, and the remote session receives
// exactly one termination attempt, whether through End or Teardown.
type Manager struct {
	mu sync.Mutex

	backend Backend
	capture *audio.Capture
	player  audio.Player
	journal Journal
	tracker *Tracker
	logger  zerolog.Logger

	teardownTimeout time.Duration
	now             func() time.Time

	session Session

	// terminated is set once a termination attempt has been issued for
	// the current session.
	terminated bool

	// abandoned is set when Teardown runs while Start is in flight.
	abandoned bool

	summary *Summary
}

// NewManager returns an idle manager.
func NewManager(backend Backend, device audio.Device, logger zerolog.Logger, opts ...Option) *Manager {
	m := &Manager{
		backend:         backend,
		capture:         audio.NewCapture(device),
		logger:          logger.With().Str("component", "conversation").Logger(),
		teardownTimeout: DefaultTeardownTimeout,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.tracker == nil {
		m.tracker = &Tracker{}
	}
	return m
}

// Start creates a remote session of the given kind. A greeting turn is
// seeded unless kind is KindCustom, where the learner speaks first.
func (m *Manager) Start(ctx context.Context, kind Kind, p Params) (*Session, error) {
	if err := validateParams(kind, p); err != nil {
		return nil, err
	}

	m.mu.Lock()
	switch m.session.Status {
	case StatusCreating, StatusActive, StatusEnding:
		m.mu.Unlock()
		return nil, ErrSessionActive
	}
	m.session = Session{Kind: kind, Status: StatusCreating}
	m.terminated = false
	m.abandoned = false
	m.summary = nil
	m.mu.Unlock()

	resp, err := m.startRemote(ctx, kind, p)

	m.mu.Lock()
	if err != nil {
		m.session.Status = StatusEnded
		m.mu.Unlock()
		m.logger.Warn().Err(err).Str("kind", string(kind)).Msg("failed to start conversation")
		return nil, err
	}

	if m.abandoned {
		// The owner went away while the session was being created.
		m.terminated = true
		m.session.Status = StatusEnded
		m.mu.Unlock()
		m.detachTermination(ctx, resp.SessionID)
		return nil, ErrClosed
	}

	m.session.ID = resp.SessionID
	m.session.Status = StatusActive
	m.session.Phase = PhaseIdle
	m.session.AIRole = resp.AIRole
	m.session.UserRole = resp.UserRole
	m.session.Situation = resp.Situation
	m.session.StartedAt = m.now()
	var greeting *Turn
	if kind != KindCustom && strings.TrimSpace(resp.AIFirstGreeting) != "" {
		greeting = &Turn{Speaker: SpeakerAI, Text: resp.AIFirstGreeting, At: m.now()}
		m.session.Turns = append(m.session.Turns, *greeting)
	}
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.logger.Info().Str("session_id", snap.ID).Str("kind", string(kind)).Msg("conversation started")
	m.journalStart(ctx, snap)
	if greeting != nil {
		m.journalTurn(ctx, snap.ID, 0, *greeting)
	}
	return &snap, nil
}

func validateParams(kind Kind, p Params) error {
	missing := func(field string) error {
		return fmt.Errorf("%w: %s is required for %s", ErrInvalidParams, field, kind)
	}
	if strings.TrimSpace(p.UserID) == "" {
		return missing("userId")
	}
	switch kind {
	case KindGeneral:
	case KindScenario:
		if p.ScenarioID == "" {
			return missing("scenarioId")
		}
	case KindCustom:
		if p.CustomAIRole == "" {
			return missing("customAiRole")
		}
		if p.CustomUserRole == "" {
			return missing("customUserRole")
		}
		if p.CustomSituation == "" {
			return missing("customSituation")
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidParams, kind)
	}
	return nil
}

func (m *Manager) startRemote(ctx context.Context, kind Kind, p Params) (*api.StartResponse, error) {
	switch kind {
	case KindScenario:
		return m.backend.StartScenario(ctx, api.ScenarioStartRequest{
			UserID:          p.UserID,
			DifficultyLevel: p.DifficultyLevel,
			ScenarioID:      p.ScenarioID,
		})
	case KindCustom:
		return m.backend.StartCustom(ctx, api.CustomStartRequest{
			UserID:          p.UserID,
			DifficultyLevel: p.DifficultyLevel,
			CustomAIRole:    p.CustomAIRole,
			CustomUserRole:  p.CustomUserRole,
			CustomSituation: p.CustomSituation,
		})
	default:
		return m.backend.StartGeneral(ctx, api.GeneralStartRequest{
			UserID:          p.UserID,
			DifficultyLevel: p.DifficultyLevel,
			Topic:           p.Topic,
		})
	}
}

// BeginCapture opens the microphone. It is refused with ErrCaptureActive
// while a capture or submission is in progress. A device failure wraps
// audio.ErrMicrophoneUnavailable and leaves the session ACTIVE.
func (m *Manager) BeginCapture(ctx context.Context) error {
	m.mu.Lock()
	if m.session.Status != StatusActive {
		m.mu.Unlock()
		return ErrNotActive
	}
	if m.session.Phase != PhaseIdle {
		m.mu.Unlock()
		return ErrCaptureActive
	}
	m.session.Phase = PhaseRecording
	id := m.session.ID
	m.mu.Unlock()

	err := m.capture.Begin(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		if m.session.ID == id && m.session.Phase == PhaseRecording {
			m.session.Phase = PhaseIdle
		}
		m.logger.Warn().Err(err).Str("session_id", id).Msg("capture failed")
		return err
	}
	if m.session.ID != id || m.session.Status != StatusActive {
		m.capture.Abort()
		return ErrClosed
	}
	return nil
}

// EndCapture stops the microphone and submits the recording. The device is
// released before the network call. While the call is in flight a pending
// turn is shown; on success it is replaced by the learner's transcribed turn
// and the AI reply is appended, on failure it is removed and the cycle can
// be retried from BeginCapture.
func (m *Manager) EndCapture(ctx context.Context) (*Exchange, error) {
	m.mu.Lock()
	if m.session.Status != StatusActive || m.session.Phase != PhaseRecording {
		m.mu.Unlock()
		return nil, ErrNotRecording
	}
	m.session.Phase = PhaseSubmitting
	id := m.session.ID
	m.mu.Unlock()

	rec, err := m.capture.End()
	if err != nil {
		m.finishSubmit(id)
		return nil, err
	}

	m.mu.Lock()
	if m.session.ID != id || m.session.Status != StatusActive {
		m.mu.Unlock()
		return nil, ErrClosed
	}
	m.session.Pending = &Turn{Speaker: SpeakerUser, Text: PendingText, At: m.now()}
	m.mu.Unlock()

	resp, err := m.backend.Talk(ctx, id, rec.Data, "recording.wav")

	m.mu.Lock()
	if m.session.ID != id || m.session.Status != StatusActive {
		m.mu.Unlock()
		m.logger.Debug().Str("session_id", id).Msg("dropping reply for closed session")
		return nil, ErrClosed
	}
	m.session.Pending = nil
	m.session.Phase = PhaseIdle
	if err != nil {
		m.mu.Unlock()
		m.logger.Warn().Err(err).Str("session_id", id).Msg("turn submission failed")
		return nil, err
	}

	now := m.now()
	userText := resp.UserText
	if strings.TrimSpace(userText) == "" {
		userText = "(voice message)"
	}
	ex := &Exchange{
		User: Turn{Speaker: SpeakerUser, Text: userText, At: now},
		AI: Turn{
			Speaker:          SpeakerAI,
			Text:             resp.Text,
			AudioFeedback:    resp.Feedback,
			EvaluationStatus: resp.EvaluationStatus,
			At:               now,
		},
	}
	seq := len(m.session.Turns)
	m.session.Turns = append(m.session.Turns, ex.User, ex.AI)
	m.mu.Unlock()

	if resp.Audio != "" {
		data, err := audio.DecodeBase64(resp.Audio)
		if err != nil {
			m.logger.Warn().Err(err).Str("session_id", id).Msg("ignoring undecodable reply audio")
		} else {
			ex.Audio = data
		}
	}

	m.journalTurn(ctx, id, seq, ex.User)
	m.journalTurn(ctx, id, seq+1, ex.AI)
	return ex, nil
}

func (m *Manager) finishSubmit(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session.ID == id && m.session.Phase == PhaseSubmitting {
		m.session.Phase = PhaseIdle
		m.session.Pending = nil
	}
}

// PlayAudio plays a spoken reply. It is a no-op without a player.
func (m *Manager) PlayAudio(ctx context.Context, data []byte) error {
	if m.player == nil || len(data) == 0 {
		return nil
	}
	return m.player.Play(ctx, data)
}

// End terminates the session and fetches its evaluation. Failure of the end
// call is logged and swallowed; failure of the evaluation call yields a
// summary with a nil Evaluation. The session is ENDED either way.
func (m *Manager) End(ctx context.Context) (*Summary, error) {
	m.mu.Lock()
	if m.session.Status != StatusActive || m.terminated {
		m.mu.Unlock()
		return nil, ErrNotActive
	}
	m.terminated = true
	m.session.Status = StatusEnding
	m.session.Pending = nil
	m.session.Phase = PhaseIdle
	id := m.session.ID
	m.mu.Unlock()

	m.capture.Abort()

	sum := &Summary{SessionID: id}
	remote, err := m.backend.End(ctx, id)
	if err != nil {
		m.logger.Warn().Err(err).Str("session_id", id).Msg("end call failed")
	} else {
		sum.Remote = remote
	}

	eval, err := m.backend.Evaluation(ctx, id)
	if err != nil {
		m.logger.Warn().Err(err).Str("session_id", id).Msg("evaluation unavailable")
	} else {
		sum.Evaluation = eval
	}

	m.mu.Lock()
	m.session.Status = StatusEnded
	sum.Kind = m.session.Kind
	sum.Turns = append([]Turn(nil), m.session.Turns...)
	sum.Duration = m.now().Sub(m.session.StartedAt)
	m.summary = sum
	m.mu.Unlock()

	m.logger.Info().Str("session_id", id).Bool("evaluated", sum.Evaluation != nil).Msg("conversation ended")
	m.journalEnd(ctx, id, sum, false)
	return sum, nil
}

// Teardown is called when the owner of the session goes away. If the
// session is ACTIVE and no termination was issued yet, a termination call
// is dispatched in the background, detached from ctx's cancellation, and
// the session is marked ENDED without waiting for it.
func (m *Manager) Teardown(ctx context.Context) {
	m.mu.Lock()
	switch {
	case m.session.Status == StatusCreating:
		m.abandoned = true
		m.mu.Unlock()
		return
	case m.session.Status != StatusActive || m.terminated:
		m.mu.Unlock()
		return
	}
	m.terminated = true
	m.session.Status = StatusEnded
	m.session.Pending = nil
	m.session.Phase = PhaseIdle
	id := m.session.ID
	m.mu.Unlock()

	m.capture.Abort()
	m.detachTermination(ctx, id)
}

func (m *Manager) detachTermination(ctx context.Context, id string) {
	detached := context.WithoutCancel(ctx)
	m.tracker.Go(func() {
		tctx, cancel := context.WithTimeout(detached, m.teardownTimeout)
		defer cancel()
		if _, err := m.backend.End(tctx, id); err != nil {
			m.logger.Warn().Err(err).Str("session_id", id).Msg("background termination failed")
		} else {
			m.logger.Info().Str("session_id", id).Msg("session terminated on teardown")
		}
		m.journalEnd(tctx, id, &Summary{SessionID: id}, true)
	})
}

// Snapshot returns a copy of the current session.
func (m *Manager) Snapshot() Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *Manager) snapshotLocked() Session {
	s := m.session
	s.Turns = append([]Turn(nil), m.session.Turns...)
	if m.session.Pending != nil {
		p := *m.session.Pending
		s.Pending = &p
	}
	return s
}

// Recording reports whether the microphone is open.
func (m *Manager) Recording() bool {
	return m.capture.Recording()
}

// Summary returns the summary of the last session ended through End.
func (m *Manager) Summary() *Summary {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.summary
}

func (m *Manager) journalStart(ctx context.Context, s Session) {
	if m.journal == nil {
		return
	}
	if err := m.journal.SessionStarted(ctx, s); err != nil {
		m.logger.Warn().Err(err).Str("session_id", s.ID).Msg("journal start failed")
	}
}

func (m *Manager) journalTurn(ctx context.Context, id string, seq int, t Turn) {
	if m.journal == nil {
		return
	}
	if err := m.journal.TurnRecorded(ctx, id, seq, t); err != nil {
		m.logger.Warn().Err(err).Str("session_id", id).Msg("journal turn failed")
	}
}

func (m *Manager) journalEnd(ctx context.Context, id string, sum *Summary, abandoned bool) {
	if m.journal == nil {
		return
	}
	if err := m.journal.SessionEnded(ctx, id, sum, abandoned); err != nil && !errors.Is(err, context.Canceled) {
		m.logger.Warn().Err(err).Str("session_id", id).Msg("journal end failed")
	}
}

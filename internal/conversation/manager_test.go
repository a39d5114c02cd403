package conversation

import (
	"context"
	"encoding/base64"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyup/studyup/internal/api"
	"github.com/studyup/studyup/internal/audio"
)

type fakeBackend struct {
	mu sync.Mutex

	startErr error
	talkErr  error
	endErr   error
	evalErr  error
	talk     api.TalkResponse

	// onTalk and onStart run inside the call, before it returns.
	onTalk  func()
	onStart func()

	startCalls int
	talkCalls  int
	endCalls   int
	evalCalls  int
	endCtxErr  error
}

func (b *fakeBackend) start(greeting string) (*api.StartResponse, error) {
	b.mu.Lock()
	b.startCalls++
	hook := b.onStart
	err := b.startErr
	b.mu.Unlock()
	if hook != nil {
		hook()
	}
	if err != nil {
		return nil, err
	}
	return &api.StartResponse{SessionID: "s-1", AIFirstGreeting: greeting}, nil
}

func (b *fakeBackend) StartGeneral(context.Context, api.GeneralStartRequest) (*api.StartResponse, error) {
	return b.start("Hello! Let's talk.")
}

func (b *fakeBackend) StartScenario(context.Context, api.ScenarioStartRequest) (*api.StartResponse, error) {
	resp, err := b.start("Welcome to the cafe.")
	if resp != nil {
		resp.AIRole, resp.UserRole = "barista", "customer"
	}
	return resp, err
}

func (b *fakeBackend) StartCustom(context.Context, api.CustomStartRequest) (*api.StartResponse, error) {
	// A greeting sent anyway must not be shown for custom role-play.
	return b.start("ignored")
}

func (b *fakeBackend) Talk(_ context.Context, _ string, _ []byte, _ string) (*api.TalkResponse, error) {
	b.mu.Lock()
	b.talkCalls++
	hook := b.onTalk
	resp, err := b.talk, b.talkErr
	b.mu.Unlock()
	if hook != nil {
		hook()
	}
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (b *fakeBackend) End(ctx context.Context, _ string) (*api.EndSummary, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.endCalls++
	b.endCtxErr = ctx.Err()
	if b.endErr != nil {
		return nil, b.endErr
	}
	return &api.EndSummary{SessionID: "s-1", Status: "ENDED"}, nil
}

func (b *fakeBackend) Evaluation(context.Context, string) (*api.Evaluation, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.evalCalls++
	if b.evalErr != nil {
		return nil, b.evalErr
	}
	return &api.Evaluation{Feedback: "Nice work", RecommendedDifficulty: "ADVANCED"}, nil
}

func (b *fakeBackend) counts() (talk, end, eval int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.talkCalls, b.endCalls, b.evalCalls
}

type fakeStream struct{}

func (fakeStream) Stop() ([]byte, error) { return []byte("RIFF"), nil }

type fakeDevice struct {
	mu    sync.Mutex
	err   error
	opens int
}

func (d *fakeDevice) Open(context.Context) (audio.Stream, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.opens++
	if d.err != nil {
		return nil, d.err
	}
	return fakeStream{}, nil
}

type journalEvent struct {
	kind      string
	seq       int
	abandoned bool
}

type fakeJournal struct {
	mu     sync.Mutex
	events []journalEvent
}

func (j *fakeJournal) SessionStarted(context.Context, Session) error {
	j.add(journalEvent{kind: "start"})
	return nil
}

func (j *fakeJournal) TurnRecorded(_ context.Context, _ string, seq int, _ Turn) error {
	j.add(journalEvent{kind: "turn", seq: seq})
	return nil
}

func (j *fakeJournal) SessionEnded(_ context.Context, _ string, _ *Summary, abandoned bool) error {
	j.add(journalEvent{kind: "end", abandoned: abandoned})
	return nil
}

func (j *fakeJournal) add(e journalEvent) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.events = append(j.events, e)
}

func (j *fakeJournal) all() []journalEvent {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]journalEvent(nil), j.events...)
}

var generalParams = Params{UserID: "u1", DifficultyLevel: "BEGINNER", Topic: "travel"}

func newTestManager(t *testing.T, opts ...Option) (*Manager, *fakeBackend, *fakeDevice, *Tracker) {
	t.Helper()
	b := &fakeBackend{talk: api.TalkResponse{Text: "Great!", UserText: "I went to Busan", Feedback: "Good tense use", EvaluationStatus: "GOOD"}}
	d := &fakeDevice{}
	tr := &Tracker{}
	opts = append([]Option{WithTracker(tr), WithTeardownTimeout(time.Second)}, opts...)
	return NewManager(b, d, zerolog.Nop(), opts...), b, d, tr
}

func TestManager_StartVariants(t *testing.T) {
	m, _, _, _ := newTestManager(t)

	s, err := m.Start(context.Background(), KindGeneral, generalParams)
	require.NoError(t, err)
	assert.Equal(t, StatusActive, s.Status)
	require.Len(t, s.Turns, 1)
	assert.Equal(t, SpeakerAI, s.Turns[0].Speaker)

	_, err = m.Start(context.Background(), KindGeneral, generalParams)
	assert.ErrorIs(t, err, ErrSessionActive)

	_, err = m.End(context.Background())
	require.NoError(t, err)

	s, err = m.Start(context.Background(), KindScenario, Params{UserID: "u1", ScenarioID: "cafe"})
	require.NoError(t, err)
	assert.Equal(t, "barista", s.AIRole)
	assert.Len(t, s.Turns, 1)
	_, err = m.End(context.Background())
	require.NoError(t, err)

	s, err = m.Start(context.Background(), KindCustom, Params{
		UserID:          "u1",
		CustomAIRole:    "interviewer",
		CustomUserRole:  "candidate",
		CustomSituation: "job interview",
	})
	require.NoError(t, err)
	assert.Empty(t, s.Turns, "custom role-play has no greeting")
}

func TestManager_StartValidation(t *testing.T) {
	m, b, _, _ := newTestManager(t)

	_, err := m.Start(context.Background(), KindCustom, Params{UserID: "u1", CustomAIRole: "a"})
	assert.ErrorIs(t, err, ErrInvalidParams)
	_, err = m.Start(context.Background(), KindScenario, Params{UserID: "u1"})
	assert.ErrorIs(t, err, ErrInvalidParams)
	_, err = m.Start(context.Background(), KindGeneral, Params{})
	assert.ErrorIs(t, err, ErrInvalidParams)
	assert.Equal(t, 0, b.startCalls)
}

func TestManager_StartFailure(t *testing.T) {
	m, b, _, _ := newTestManager(t)
	b.startErr = api.ErrNetwork

	_, err := m.Start(context.Background(), KindGeneral, generalParams)
	assert.ErrorIs(t, err, api.ErrNetwork)
	assert.Equal(t, StatusEnded, m.Snapshot().Status)

	m.Teardown(context.Background())
	_, end, _ := b.counts()
	assert.Equal(t, 0, end, "no remote session to terminate")
}

func TestManager_DoubleBeginCaptureRejected(t *testing.T) {
	m, _, d, _ := newTestManager(t)
	_, err := m.Start(context.Background(), KindGeneral, generalParams)
	require.NoError(t, err)

	require.NoError(t, m.BeginCapture(context.Background()))
	assert.ErrorIs(t, m.BeginCapture(context.Background()), ErrCaptureActive)

	assert.Equal(t, 1, d.opens)
	assert.True(t, m.Recording())
	assert.Equal(t, PhaseRecording, m.Snapshot().Phase)
}

func TestManager_ExchangeSuccess(t *testing.T) {
	reply := base64.StdEncoding.EncodeToString([]byte("mp3-bytes"))
	m, b, _, _ := newTestManager(t)
	b.talk.Audio = reply
	_, err := m.Start(context.Background(), KindGeneral, generalParams)
	require.NoError(t, err)

	var recordingDuringTalk bool
	var pendingDuringTalk *Turn
	b.onTalk = func() {
		recordingDuringTalk = m.Recording()
		pendingDuringTalk = m.Snapshot().Pending
	}

	require.NoError(t, m.BeginCapture(context.Background()))
	ex, err := m.EndCapture(context.Background())
	require.NoError(t, err)

	assert.False(t, recordingDuringTalk, "device released before submission")
	require.NotNil(t, pendingDuringTalk)
	assert.Equal(t, PendingText, pendingDuringTalk.Text)

	assert.Equal(t, "I went to Busan", ex.User.Text)
	assert.Equal(t, "Great!", ex.AI.Text)
	assert.Equal(t, "Good tense use", ex.AI.AudioFeedback)
	assert.Equal(t, []byte("mp3-bytes"), ex.Audio)

	s := m.Snapshot()
	assert.Nil(t, s.Pending)
	assert.Equal(t, PhaseIdle, s.Phase)
	require.Len(t, s.Turns, 3)
	assert.Equal(t, SpeakerUser, s.Turns[1].Speaker)
	assert.Equal(t, SpeakerAI, s.Turns[2].Speaker)
}

func TestManager_SubmissionFailureRemovesPendingTurn(t *testing.T) {
	m, b, _, _ := newTestManager(t)
	_, err := m.Start(context.Background(), KindGeneral, generalParams)
	require.NoError(t, err)
	before := len(m.Snapshot().Turns)

	b.talkErr = &api.NetworkError{Op: "submit turn", Status: 502}
	require.NoError(t, m.BeginCapture(context.Background()))
	_, err = m.EndCapture(context.Background())
	assert.ErrorIs(t, err, api.ErrNetwork)

	s := m.Snapshot()
	assert.Nil(t, s.Pending)
	assert.Len(t, s.Turns, before)
	assert.Len(t, s.DisplayTurns(), before)
	assert.Equal(t, PhaseIdle, s.Phase)

	b.talkErr = nil
	require.NoError(t, m.BeginCapture(context.Background()), "cycle can be retried")
	_, err = m.EndCapture(context.Background())
	require.NoError(t, err)
	assert.Len(t, m.Snapshot().Turns, before+2)
}

func TestManager_BeginCaptureRefusedWhileSubmitting(t *testing.T) {
	m, b, d, _ := newTestManager(t)
	_, err := m.Start(context.Background(), KindGeneral, generalParams)
	require.NoError(t, err)

	var duringSubmit error
	b.onTalk = func() {
		duringSubmit = m.BeginCapture(context.Background())
	}
	require.NoError(t, m.BeginCapture(context.Background()))
	_, err = m.EndCapture(context.Background())
	require.NoError(t, err)

	assert.ErrorIs(t, duringSubmit, ErrCaptureActive)
	assert.Equal(t, 1, d.opens)
}

func TestManager_MicrophoneUnavailable(t *testing.T) {
	m, _, d, _ := newTestManager(t)
	d.err = audio.ErrMicrophoneUnavailable
	_, err := m.Start(context.Background(), KindGeneral, generalParams)
	require.NoError(t, err)

	err = m.BeginCapture(context.Background())
	assert.ErrorIs(t, err, audio.ErrMicrophoneUnavailable)
	s := m.Snapshot()
	assert.Equal(t, StatusActive, s.Status)
	assert.Equal(t, PhaseIdle, s.Phase)

	d.err = nil
	assert.NoError(t, m.BeginCapture(context.Background()))
}

func TestManager_EndCaptureWithoutBegin(t *testing.T) {
	m, _, _, _ := newTestManager(t)
	_, err := m.EndCapture(context.Background())
	assert.ErrorIs(t, err, ErrNotRecording)

	_, err = m.Start(context.Background(), KindGeneral, generalParams)
	require.NoError(t, err)
	_, err = m.EndCapture(context.Background())
	assert.ErrorIs(t, err, ErrNotRecording)
}

func TestManager_EndWithEvaluationFailure(t *testing.T) {
	m, b, _, _ := newTestManager(t)
	b.evalErr = errors.New("evaluation service down")
	_, err := m.Start(context.Background(), KindGeneral, generalParams)
	require.NoError(t, err)

	sum, err := m.End(context.Background())
	require.NoError(t, err)
	assert.Nil(t, sum.Evaluation)
	assert.NotNil(t, sum.Remote)
	assert.Equal(t, "", sum.RecommendedDifficulty())
	assert.Equal(t, StatusEnded, m.Snapshot().Status)
}

func TestManager_EndFailureSwallowed(t *testing.T) {
	m, b, _, _ := newTestManager(t)
	b.endErr = errors.New("end failed")
	_, err := m.Start(context.Background(), KindGeneral, generalParams)
	require.NoError(t, err)

	sum, err := m.End(context.Background())
	require.NoError(t, err)
	assert.Nil(t, sum.Remote)
	assert.Equal(t, "ADVANCED", sum.RecommendedDifficulty())
	assert.Equal(t, StatusEnded, m.Snapshot().Status)
	assert.Same(t, sum, m.Summary())
}

func TestManager_EndClosesOpenCapture(t *testing.T) {
	m, _, _, _ := newTestManager(t)
	_, err := m.Start(context.Background(), KindGeneral, generalParams)
	require.NoError(t, err)
	require.NoError(t, m.BeginCapture(context.Background()))

	_, err = m.End(context.Background())
	require.NoError(t, err)
	assert.False(t, m.Recording())
}

func TestManager_TeardownTerminatesExactlyOnce(t *testing.T) {
	j := &fakeJournal{}
	m, b, _, tr := newTestManager(t, WithJournal(j))
	_, err := m.Start(context.Background(), KindGeneral, generalParams)
	require.NoError(t, err)
	require.NoError(t, m.BeginCapture(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	m.Teardown(ctx)
	cancel()
	m.Teardown(context.Background())

	assert.Equal(t, StatusEnded, m.Snapshot().Status)
	assert.False(t, m.Recording())

	_, err = m.End(context.Background())
	assert.ErrorIs(t, err, ErrNotActive)

	require.True(t, tr.Wait(2*time.Second))
	_, end, eval := b.counts()
	assert.Equal(t, 1, end)
	assert.Equal(t, 0, eval)
	assert.NoError(t, b.endCtxErr, "termination not cancelled with the owner's context")

	events := j.all()
	require.NotEmpty(t, events)
	last := events[len(events)-1]
	assert.Equal(t, "end", last.kind)
	assert.True(t, last.abandoned)
}

func TestManager_TeardownAfterEndIsNoop(t *testing.T) {
	m, b, _, tr := newTestManager(t)
	_, err := m.Start(context.Background(), KindGeneral, generalParams)
	require.NoError(t, err)
	_, err = m.End(context.Background())
	require.NoError(t, err)

	m.Teardown(context.Background())
	require.True(t, tr.Wait(time.Second))
	_, end, _ := b.counts()
	assert.Equal(t, 1, end)
}

func TestManager_TeardownDuringStart(t *testing.T) {
	m, b, _, tr := newTestManager(t)
	b.onStart = func() { m.Teardown(context.Background()) }

	_, err := m.Start(context.Background(), KindGeneral, generalParams)
	assert.ErrorIs(t, err, ErrClosed)
	assert.Equal(t, StatusEnded, m.Snapshot().Status)

	require.True(t, tr.Wait(time.Second))
	_, end, _ := b.counts()
	assert.Equal(t, 1, end, "session created during teardown is still terminated")
}

func TestManager_TeardownDuringSubmission(t *testing.T) {
	m, b, _, tr := newTestManager(t)
	_, err := m.Start(context.Background(), KindGeneral, generalParams)
	require.NoError(t, err)
	turns := len(m.Snapshot().Turns)

	b.onTalk = func() { m.Teardown(context.Background()) }
	require.NoError(t, m.BeginCapture(context.Background()))
	_, err = m.EndCapture(context.Background())
	assert.ErrorIs(t, err, ErrClosed)

	s := m.Snapshot()
	assert.Len(t, s.Turns, turns)
	assert.Nil(t, s.Pending)
	require.True(t, tr.Wait(time.Second))
	_, end, _ := b.counts()
	assert.Equal(t, 1, end)
}

func TestManager_JournalOrder(t *testing.T) {
	j := &fakeJournal{}
	m, _, _, _ := newTestManager(t, WithJournal(j))
	_, err := m.Start(context.Background(), KindGeneral, generalParams)
	require.NoError(t, err)
	require.NoError(t, m.BeginCapture(context.Background()))
	_, err = m.EndCapture(context.Background())
	require.NoError(t, err)
	_, err = m.End(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []journalEvent{
		{kind: "start"},
		{kind: "turn", seq: 0},
		{kind: "turn", seq: 1},
		{kind: "turn", seq: 2},
		{kind: "end"},
	}, j.all())
}

type fakePlayer struct{ played [][]byte }

func (p *fakePlayer) Play(_ context.Context, data []byte) error {
	p.played = append(p.played, data)
	return nil
}

func TestManager_PlayAudio(t *testing.T) {
	p := &fakePlayer{}
	m, _, _, _ := newTestManager(t, WithPlayer(p))
	require.NoError(t, m.PlayAudio(context.Background(), []byte("a")))
	require.NoError(t, m.PlayAudio(context.Background(), nil))
	assert.Equal(t, [][]byte{[]byte("a")}, p.played)

	bare, _, _, _ := newTestManager(t)
	assert.NoError(t, bare.PlayAudio(context.Background(), []byte("a")))
}

func TestParseKind(t *testing.T) {
	for in, want := range map[string]Kind{"general": KindGeneral, "scenario": KindScenario, "custom": KindCustom, "ROLE_PLAY_CUSTOM": KindCustom} {
		got, err := ParseKind(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseKind("debate")
	assert.ErrorIs(t, err, ErrInvalidParams)
}

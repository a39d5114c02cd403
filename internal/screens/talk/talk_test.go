package talk

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyup/studyup/internal/api"
	"github.com/studyup/studyup/internal/api/apitest"
	"github.com/studyup/studyup/internal/audio"
	"github.com/studyup/studyup/internal/conversation"
)

type fakeStream struct{}

func (fakeStream) Stop() ([]byte, error) { return []byte("RIFF----WAVE"), nil }

type fakeDevice struct{ err error }

func (d *fakeDevice) Open(context.Context) (audio.Stream, error) {
	if d.err != nil {
		return nil, d.err
	}
	return fakeStream{}, nil
}

func newManager(t *testing.T, dev audio.Device) (*conversation.Manager, *apitest.Server, *conversation.Tracker) {
	t.Helper()
	srv := apitest.NewServer(t)
	client := api.NewClient(api.Config{BaseURL: srv.URL, Timeout: 5 * time.Second}, zerolog.Nop())
	tr := &conversation.Tracker{}
	m := conversation.NewManager(client, dev, zerolog.Nop(), conversation.WithTracker(tr))
	return m, srv, tr
}

// run executes cmd and feeds the results back, expanding batches and
// skipping refresh ticks.
func run(s *TalkScreen, cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	switch msg := cmd().(type) {
	case nil, tickMsg:
	case tea.BatchMsg:
		for _, c := range msg {
			run(s, c)
		}
	default:
		_, next := s.Update(msg)
		run(s, next)
	}
}

func press(s *TalkScreen, msg tea.KeyPressMsg) {
	_, cmd := s.Update(msg)
	run(s, cmd)
}

var (
	enter = tea.KeyPressMsg{Code: tea.KeyEnter}
	space = tea.KeyPressMsg{Code: tea.KeySpace, Text: " "}
)

func TestTalk_FullGeneralSession(t *testing.T) {
	m, srv, _ := newManager(t, &fakeDevice{})
	s := NewWithKind(m, "u1", "BEGINNER", conversation.KindGeneral)
	run(s, s.Init())

	press(s, enter)
	require.Equal(t, phaseActive, s.phase)
	assert.Contains(t, s.View(100, 40), "What would you like to talk about?")

	press(s, space)
	assert.True(t, m.Recording())
	press(s, space)
	assert.False(t, m.Recording())
	assert.Len(t, srv.Audio(), 1)

	view := s.View(100, 40)
	assert.Contains(t, view, "That sounds great.")
	assert.Contains(t, view, "hello")

	press(s, tea.KeyPressMsg{Code: 'e', Text: "e"})
	require.Equal(t, phaseEnded, s.phase)
	view = s.View(100, 40)
	assert.Contains(t, view, "Good pronunciation.")
	assert.Contains(t, view, "Recommended level: intermediate")
}

func TestTalk_MicrophoneFailureIsInline(t *testing.T) {
	dev := &fakeDevice{err: audio.ErrMicrophoneUnavailable}
	m, _, _ := newManager(t, dev)
	s := NewWithKind(m, "u1", "BEGINNER", conversation.KindGeneral)
	press(s, enter)

	press(s, space)
	assert.Equal(t, phaseActive, s.phase)
	assert.Contains(t, s.View(100, 40), "Microphone unavailable")

	dev.err = nil
	press(s, space)
	assert.True(t, m.Recording())
}

func TestTalk_CustomRequiresFields(t *testing.T) {
	m, _, _ := newManager(t, &fakeDevice{})
	s := NewWithKind(m, "u1", "BEGINNER", conversation.KindCustom)
	run(s, s.Init())

	press(s, enter)
	assert.Equal(t, phaseForm, s.phase)
	assert.Contains(t, s.View(100, 40), "Please fill in every field.")
}

func TestTalk_CloseTearsDownSession(t *testing.T) {
	m, srv, tr := newManager(t, &fakeDevice{})
	s := NewWithKind(m, "u1", "BEGINNER", conversation.KindGeneral)
	press(s, enter)
	require.Equal(t, conversation.StatusActive, m.Snapshot().Status)

	assert.Nil(t, s.Close())
	assert.Equal(t, conversation.StatusEnded, m.Snapshot().Status)
	require.True(t, tr.Wait(5*time.Second))
	assert.Len(t, srv.CallsTo("/end"), 1)

	// A second close must not issue another termination.
	s.Close()
	require.True(t, tr.Wait(5*time.Second))
	assert.Len(t, srv.CallsTo("/end"), 1)
}

func TestTalk_KindMenu(t *testing.T) {
	m, _, _ := newManager(t, &fakeDevice{})
	s := New(m, "u1", "BEGINNER")
	assert.Contains(t, s.View(100, 40), "Role-play scenario")

	press(s, tea.KeyPressMsg{Code: tea.KeyDown})
	press(s, enter)
	assert.Equal(t, conversation.KindScenario, s.kind)
	assert.Equal(t, phaseForm, s.phase)
	assert.Equal(t, "Role-play", s.Title())
}

func TestCaptureError(t *testing.T) {
	assert.Contains(t, captureError(conversation.ErrCaptureActive), "Still sending")
	assert.Equal(t, "boom", captureError(errors.New("boom")))
}

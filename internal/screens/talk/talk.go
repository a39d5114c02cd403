// Package talk is the spoken conversation screen.
package talk

import (
	"context"
	"errors"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/studyup/studyup/internal/audio"
	"github.com/studyup/studyup/internal/conversation"
	"github.com/studyup/studyup/internal/router"
	"github.com/studyup/studyup/internal/screen"
	"github.com/studyup/studyup/internal/ui/components"
	"github.com/studyup/studyup/internal/ui/layout"
)

type phase int

const (
	phaseChooseKind phase = iota
	phaseForm
	phaseStarting
	phaseActive
	phaseEnding
	phaseEnded
)

type startedMsg struct{ Err error }

type captureMsg struct{ Err error }

type exchangeMsg struct {
	Exchange *conversation.Exchange
	Err      error
}

type endedMsg struct {
	Summary *conversation.Summary
	Err     error
}

type playedMsg struct{ Err error }

// tickMsg refreshes the view while the microphone is open or a turn is in
// flight.
type tickMsg time.Time

const tickInterval = 250 * time.Millisecond

// TalkScreen drives one conversation.Manager session. Leaving the screen
// tears the session down.
type TalkScreen struct {
	manager    *conversation.Manager
	userID     string
	difficulty string

	phase  phase
	kind   conversation.Kind
	menu   components.Menu
	fields []components.TextInput
	focus  int

	notice  string // inline, non-fatal message such as a mic failure
	errMsg  string
	summary *conversation.Summary
}

var _ screen.Screen = (*TalkScreen)(nil)
var _ screen.KeyHintProvider = (*TalkScreen)(nil)
var _ screen.Closer = (*TalkScreen)(nil)

// New creates a TalkScreen that asks for the conversation kind first.
func New(m *conversation.Manager, userID, difficulty string) *TalkScreen {
	s := &TalkScreen{manager: m, userID: userID, difficulty: difficulty}
	s.menu = components.NewMenu([]components.MenuItem{
		{Label: "Free conversation", Hint: "talk about anything", Action: s.choose(conversation.KindGeneral)},
		{Label: "Role-play scenario", Hint: "a prepared situation", Action: s.choose(conversation.KindScenario)},
		{Label: "Custom role-play", Hint: "you set the scene", Action: s.choose(conversation.KindCustom)},
	})
	return s
}

// NewWithKind skips the kind menu.
func NewWithKind(m *conversation.Manager, userID, difficulty string, kind conversation.Kind) *TalkScreen {
	s := New(m, userID, difficulty)
	s.setKind(kind)
	return s
}

func (s *TalkScreen) choose(kind conversation.Kind) func() tea.Cmd {
	return func() tea.Cmd {
		s.setKind(kind)
		return s.focusField(0)
	}
}

func (s *TalkScreen) setKind(kind conversation.Kind) {
	s.kind = kind
	s.phase = phaseForm
	s.focus = 0
	switch kind {
	case conversation.KindScenario:
		s.fields = []components.TextInput{
			components.NewTextInput("Scenario", "e.g. cafe-order", 64),
		}
	case conversation.KindCustom:
		s.fields = []components.TextInput{
			components.NewTextInput("AI role", "e.g. hotel receptionist", 80),
			components.NewTextInput("Your role", "e.g. guest checking in", 80),
			components.NewTextInput("Situation", "e.g. the room is not ready", 200),
		}
	default:
		s.fields = []components.TextInput{
			components.NewTextInput("Topic", "optional, e.g. travel", 80),
		}
	}
}

func (s *TalkScreen) focusField(i int) tea.Cmd {
	for j := range s.fields {
		s.fields[j].Blur()
	}
	if i < 0 || i >= len(s.fields) {
		return nil
	}
	s.focus = i
	return s.fields[i].Focus()
}

func (s *TalkScreen) Init() tea.Cmd {
	if s.phase == phaseForm {
		return s.focusField(0)
	}
	return nil
}

func (s *TalkScreen) Title() string {
	switch s.kind {
	case conversation.KindScenario:
		return "Role-play"
	case conversation.KindCustom:
		return "Custom Role-play"
	}
	return "Conversation"
}

// Close tears the session down without waiting for the remote call.
func (s *TalkScreen) Close() tea.Cmd {
	s.manager.Teardown(context.Background())
	return nil
}

func (s *TalkScreen) KeyHints() []layout.KeyHint {
	switch s.phase {
	case phaseForm:
		return []layout.KeyHint{
			{Key: "Tab", Description: "Next field"},
			{Key: "Enter", Description: "Start"},
			{Key: "Esc", Description: "Back"},
		}
	case phaseActive:
		snap := s.manager.Snapshot()
		switch snap.Phase {
		case conversation.PhaseRecording:
			return []layout.KeyHint{{Key: "Space", Description: "Send"}, {Key: "Esc", Description: "Leave"}}
		case conversation.PhaseSubmitting:
			return []layout.KeyHint{{Key: "Esc", Description: "Leave"}}
		}
		return []layout.KeyHint{
			{Key: "Space", Description: "Speak"},
			{Key: "E", Description: "End & feedback"},
			{Key: "Esc", Description: "Leave"},
		}
	case phaseEnded:
		return []layout.KeyHint{{Key: "Enter", Description: "Done"}}
	}
	return []layout.KeyHint{{Key: "Esc", Description: "Back"}}
}

func (s *TalkScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case startedMsg:
		if msg.Err != nil {
			s.phase = phaseForm
			s.errMsg = startError(msg.Err)
			return s, s.focusField(s.focus)
		}
		s.errMsg = ""
		s.phase = phaseActive
		return s, nil

	case captureMsg:
		s.notice = ""
		if msg.Err != nil {
			s.notice = captureError(msg.Err)
		}
		return s, nil

	case exchangeMsg:
		if errors.Is(msg.Err, conversation.ErrClosed) {
			return s, nil
		}
		if msg.Err != nil {
			s.notice = "Could not send that. Press Space to try again."
			return s, nil
		}
		s.notice = ""
		if msg.Exchange != nil && len(msg.Exchange.Audio) > 0 {
			return s, s.playCmd(msg.Exchange.Audio)
		}
		return s, nil

	case playedMsg:
		return s, nil

	case tickMsg:
		if s.phase == phaseActive && s.manager.Snapshot().Phase != conversation.PhaseIdle {
			return s, tick()
		}
		return s, nil

	case endedMsg:
		s.phase = phaseEnded
		s.summary = msg.Summary
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
		}
		return s, nil

	case tea.KeyMsg:
		return s.handleKey(msg)
	}

	if s.phase == phaseForm && len(s.fields) > 0 {
		var cmd tea.Cmd
		s.fields[s.focus], cmd = s.fields[s.focus].Update(msg)
		return s, cmd
	}
	return s, nil
}

func (s *TalkScreen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	key := msg.String()
	if key == "esc" {
		return s, func() tea.Msg { return router.PopScreenMsg{} }
	}

	switch s.phase {
	case phaseChooseKind:
		var cmd tea.Cmd
		s.menu, cmd = s.menu.Update(msg)
		return s, cmd

	case phaseForm:
		switch key {
		case "tab", "down":
			return s, s.focusField((s.focus + 1) % len(s.fields))
		case "shift+tab", "up":
			return s, s.focusField((s.focus + len(s.fields) - 1) % len(s.fields))
		case "enter":
			return s, s.startCmd()
		}
		var cmd tea.Cmd
		s.fields[s.focus], cmd = s.fields[s.focus].Update(msg)
		return s, cmd

	case phaseActive:
		switch key {
		case "space":
			if s.manager.Recording() {
				return s, tea.Batch(s.endCaptureCmd(), tick())
			}
			return s, tea.Batch(s.beginCaptureCmd(), tick())
		case "e":
			if s.manager.Snapshot().Phase == conversation.PhaseIdle {
				s.phase = phaseEnding
				return s, s.endCmd()
			}
		}

	case phaseEnded:
		if key == "enter" {
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		}
	}
	return s, nil
}

func (s *TalkScreen) params() conversation.Params {
	p := conversation.Params{UserID: s.userID, DifficultyLevel: s.difficulty}
	value := func(i int) string {
		if i < len(s.fields) {
			return s.fields[i].Value()
		}
		return ""
	}
	switch s.kind {
	case conversation.KindScenario:
		p.ScenarioID = value(0)
	case conversation.KindCustom:
		p.CustomAIRole, p.CustomUserRole, p.CustomSituation = value(0), value(1), value(2)
	default:
		p.Topic = value(0)
	}
	return p
}

func (s *TalkScreen) startCmd() tea.Cmd {
	s.phase = phaseStarting
	s.errMsg = ""
	m, kind, p := s.manager, s.kind, s.params()
	return func() tea.Msg {
		_, err := m.Start(context.Background(), kind, p)
		return startedMsg{Err: err}
	}
}

func (s *TalkScreen) beginCaptureCmd() tea.Cmd {
	m := s.manager
	return func() tea.Msg {
		return captureMsg{Err: m.BeginCapture(context.Background())}
	}
}

func (s *TalkScreen) endCaptureCmd() tea.Cmd {
	m := s.manager
	return func() tea.Msg {
		ex, err := m.EndCapture(context.Background())
		return exchangeMsg{Exchange: ex, Err: err}
	}
}

func (s *TalkScreen) playCmd(data []byte) tea.Cmd {
	m := s.manager
	return func() tea.Msg {
		return playedMsg{Err: m.PlayAudio(context.Background(), data)}
	}
}

func (s *TalkScreen) endCmd() tea.Cmd {
	m := s.manager
	return func() tea.Msg {
		sum, err := m.End(context.Background())
		return endedMsg{Summary: sum, Err: err}
	}
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func startError(err error) string {
	if errors.Is(err, conversation.ErrInvalidParams) {
		return "Please fill in every field."
	}
	return "Could not start the conversation: " + err.Error()
}

func captureError(err error) string {
	switch {
	case errors.Is(err, audio.ErrMicrophoneUnavailable):
		return "Microphone unavailable. Check your recorder and press Space to try again."
	case errors.Is(err, conversation.ErrCaptureActive):
		return "Still sending your last message..."
	}
	return err.Error()
}

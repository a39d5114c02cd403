package app

import (
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyup/studyup/internal/screen"
	"github.com/studyup/studyup/internal/screens/home"
)

type stubScreen struct {
	closed bool
}

func (s *stubScreen) Init() tea.Cmd                           { return nil }
func (s *stubScreen) Update(tea.Msg) (screen.Screen, tea.Cmd) { return s, nil }
func (s *stubScreen) View(width, height int) string           { return "stub body" }
func (s *stubScreen) Title() string                           { return "Stub" }
func (s *stubScreen) Close() tea.Cmd                          { s.closed = true; return nil }

func TestStartScreenOpensOverHome(t *testing.T) {
	m := newAppModel(home.Services{}, "offline", &stubScreen{})
	assert.Equal(t, 2, m.router.Depth())
	assert.Equal(t, "Stub", m.router.Active().Title())

	plain := newAppModel(home.Services{}, "", nil)
	assert.Equal(t, 1, plain.router.Depth())
}

func TestWindowSizeIsTracked(t *testing.T) {
	var model tea.Model = newAppModel(home.Services{}, "offline", &stubScreen{})
	model, _ = model.Update(tea.WindowSizeMsg{Width: 100, Height: 30})

	m := model.(AppModel)
	assert.Equal(t, 100, m.width)
	assert.Equal(t, 30, m.height)
	assert.Contains(t, m.router.View(m.width, m.height), "stub body")
}

func TestCtrlCClosesScreens(t *testing.T) {
	stub := &stubScreen{}
	m := newAppModel(home.Services{}, "", stub)

	_, cmd := m.Update(tea.KeyPressMsg{Code: 'c', Mod: tea.ModCtrl})
	require.NotNil(t, cmd)
	assert.True(t, stub.closed)
}

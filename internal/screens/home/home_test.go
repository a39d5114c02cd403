package home

import (
	"context"
	"fmt"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyup/studyup/internal/question"
	"github.com/studyup/studyup/internal/router"
	"github.com/studyup/studyup/internal/store"
)

func openStore(t *testing.T) *store.Store {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	s, err := store.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestConversationDisabledOffline(t *testing.T) {
	h := New(Services{})
	var found bool
	for _, item := range h.menu.Items {
		if item.Label == "Conversation" {
			found = true
			assert.True(t, item.Disabled)
			assert.Equal(t, "needs a backend", item.Hint)
		}
	}
	assert.True(t, found)
}

func TestStudyPushesTypePicker(t *testing.T) {
	h := New(Services{Types: []question.Type{question.TypeWord}, Difficulty: question.Beginner})

	_, cmd := h.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	require.NotNil(t, cmd)
	msg, ok := cmd().(router.PushScreenMsg)
	require.True(t, ok)
	assert.Equal(t, "Study", msg.Screen.Title())
}

func TestInitLoadsStats(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	repo := s.EventRepo()
	for i, correct := range []bool{false, false, true} {
		require.NoError(t, repo.AppendAnswerEvent(ctx, store.AnswerEventData{
			RunID:         "r1",
			QuestionID:    fmt.Sprintf("q%d", i),
			QuestionType:  "SYNONYM",
			Options:       []string{"a", "b"},
			CorrectAnswer: "a",
			IsCorrect:     correct,
		}))
	}

	h := New(Services{Events: repo})
	cmd := h.Init()
	require.NotNil(t, cmd)
	h.Update(cmd())

	assert.Equal(t, 3, h.stats.Answered)
	assert.Equal(t, 2, h.stats.Wrong)
	assert.Equal(t, "유의어", h.stats.Weakest)
	assert.Contains(t, h.View(100, 30), "Weakest: 유의어")
}

func TestNoEventsNoInit(t *testing.T) {
	assert.Nil(t, New(Services{}).Init())
}

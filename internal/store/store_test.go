package store

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	s, err := Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		// WAL mode falls back to "memory" for in-memory databases.
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
	}

	for _, tt := range tests {
		var got string
		err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got)
		if err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestMigrationCreatesTables(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	for _, table := range Tables {
		var name string
		err := db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table.Name,
		).Scan(&name)
		if err != nil {
			t.Fatalf("table %s: %v", table.Name, err)
		}
	}
}

func TestSequenceCounter(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	var seqs []int64
	for i := 0; i < 5; i++ {
		seq, err := s.seq.Next(ctx)
		if err != nil {
			t.Fatalf("next %d: %v", i, err)
		}
		seqs = append(seqs, seq)
	}

	for i, seq := range seqs {
		if want := int64(i + 1); seq != want {
			t.Errorf("seq[%d] = %d, want %d", i, seq, want)
		}
	}
}

func answer(runID, tag string, correct bool) AnswerEventData {
	return AnswerEventData{
		RunID:          runID,
		QuestionID:     runID + "-" + tag,
		QuestionType:   tag,
		Difficulty:     "BEGINNER",
		Prompt:         "What does 'thorough' mean?",
		Options:        []string{"quick", "complete and thorough", "lazy", "rough"},
		SelectedAnswer: "quick",
		CorrectAnswer:  "complete and thorough",
		IsCorrect:      correct,
	}
}

func TestAnswerEventsRoundTrip(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	in := answer("run-1", "WORD", false)
	in.Conversation = "A: Hi\nB: Hello"
	in.Explanation = "thorough means complete"
	require.NoError(t, repo.AppendAnswerEvent(ctx, in))

	got, err := repo.QueryAnswerEvents(ctx, QueryOpts{})
	require.NoError(t, err)
	require.Len(t, got, 1)

	e := got[0]
	assert.Equal(t, int64(1), e.Sequence)
	assert.False(t, e.Timestamp.IsZero())
	assert.Equal(t, in.Options, e.Options)
	assert.Equal(t, in.Conversation, e.Conversation)
	assert.Equal(t, in.Explanation, e.Explanation)
	assert.Equal(t, "WORD", e.QuestionType)
	assert.False(t, e.IsCorrect)
}

func TestQueryNewestFirstWithLimitAndAfter(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		require.NoError(t, repo.AppendAnswerEvent(ctx, answer(fmt.Sprintf("run-%d", i), "WORD", true)))
	}

	got, err := repo.QueryAnswerEvents(ctx, QueryOpts{Limit: 2})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "run-3", got[0].RunID)
	assert.Equal(t, "run-2", got[1].RunID)

	got, err = repo.QueryAnswerEvents(ctx, QueryOpts{After: 2})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(4), got[0].Sequence)
	assert.Equal(t, int64(3), got[1].Sequence)

	got, err = repo.QueryAnswerEvents(ctx, QueryOpts{To: time.Now().Add(-24 * time.Hour)})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestWrongAnswersFiltersByTag(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	for _, a := range []AnswerEventData{
		answer("r1", "WORD", false),
		answer("r1", "word", false),
		answer("r1", "WORD", true),
		answer("r1", "SYNONYM", false),
	} {
		require.NoError(t, repo.AppendAnswerEvent(ctx, a))
	}

	all, err := repo.WrongAnswers(ctx, nil, QueryOpts{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	words, err := repo.WrongAnswers(ctx, []string{"WORD", "word"}, QueryOpts{})
	require.NoError(t, err)
	require.Len(t, words, 2)
	for _, w := range words {
		assert.False(t, w.IsCorrect)
		assert.Equal(t, "WORD", strings.ToUpper(w.QuestionType))
	}
}

func TestAttemptsByType(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	for _, a := range []AnswerEventData{
		answer("r1", "WORD", false),
		answer("r1", "WORD", true),
		answer("r1", "SENTENCE", true),
	} {
		require.NoError(t, repo.AppendAnswerEvent(ctx, a))
	}

	got, err := repo.AttemptsByType(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"WORD": 2, "SENTENCE": 1}, got)
}

func TestRunAndConversationEvents(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	require.NoError(t, repo.AppendRunEvent(ctx, RunEventData{RunID: "r1", Mode: "STUDY", Action: ActionStart, TotalQuestions: 3}))
	require.NoError(t, repo.AppendRunEvent(ctx, RunEventData{RunID: "r1", Mode: "STUDY", Action: ActionEnd, TotalQuestions: 3, CorrectAnswers: 2, DurationSecs: 40}))

	runs, err := repo.QueryRunEvents(ctx, QueryOpts{})
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, ActionEnd, runs[0].Action)
	assert.Equal(t, 2, runs[0].CorrectAnswers)

	require.NoError(t, repo.AppendConversationEvent(ctx, ConversationEventData{SessionID: "c1", Kind: "GENERAL", Action: ActionStart}))
	require.NoError(t, repo.AppendConversationTurn(ctx, ConversationTurnData{SessionID: "c1", TurnIndex: 1, Speaker: "USER", Text: "hello"}))
	require.NoError(t, repo.AppendConversationTurn(ctx, ConversationTurnData{SessionID: "c1", TurnIndex: 0, Speaker: "AI", Text: "Hi there"}))
	require.NoError(t, repo.AppendConversationTurn(ctx, ConversationTurnData{SessionID: "c2", TurnIndex: 0, Speaker: "AI", Text: "other"}))
	require.NoError(t, repo.AppendConversationEvent(ctx, ConversationEventData{SessionID: "c1", Kind: "GENERAL", Action: ActionEnd, TurnCount: 2, RecommendedDifficulty: "INTERMEDIATE"}))

	turns, err := repo.ConversationTurns(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, "AI", turns[0].Speaker)
	assert.Equal(t, "hello", turns[1].Text)

	convs, err := repo.QueryConversationEvents(ctx, QueryOpts{Limit: 1})
	require.NoError(t, err)
	require.Len(t, convs, 1)
	assert.Equal(t, "INTERMEDIATE", convs[0].RecommendedDifficulty)
}

func TestSequenceSharedAcrossTables(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	require.NoError(t, repo.AppendRunEvent(ctx, RunEventData{RunID: "r1", Mode: "STUDY", Action: ActionStart}))
	require.NoError(t, repo.AppendLLMRequest(ctx, LLMRequestEventData{Provider: "mock", Model: "m", Purpose: "question_gen", Success: true}))
	require.NoError(t, repo.AppendAnswerEvent(ctx, answer("r1", "WORD", true)))

	answers, err := repo.QueryAnswerEvents(ctx, QueryOpts{})
	require.NoError(t, err)
	require.Len(t, answers, 1)
	assert.Equal(t, int64(3), answers[0].Sequence)

	llm, err := repo.QueryLLMRequests(ctx, QueryOpts{})
	require.NoError(t, err)
	require.Len(t, llm, 1)
	assert.Equal(t, int64(2), llm[0].Sequence)
	assert.Equal(t, "question_gen", llm[0].Purpose)
	assert.True(t, llm[0].Success)
}

func TestReset(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	require.NoError(t, repo.AppendAnswerEvent(ctx, answer("r1", "WORD", false)))
	require.NoError(t, s.Reset(ctx))

	got, err := repo.QueryAnswerEvents(ctx, QueryOpts{})
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, repo.AppendAnswerEvent(ctx, answer("r2", "WORD", false)))
	got, err = repo.QueryAnswerEvents(ctx, QueryOpts{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(2), got[0].Sequence)
}

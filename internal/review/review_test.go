package review

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyup/studyup/internal/api"
	"github.com/studyup/studyup/internal/api/apitest"
	"github.com/studyup/studyup/internal/question"
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

func reviewItem(id, tag string, wrong int) api.ReviewItem {
	return api.ReviewItem{
		RawQuestion: question.RawQuestion{
			ID:            id,
			QuestionType:  tag,
			QuestionText:  "Question " + id,
			OptionA:       "one",
			OptionB:       "two",
			OptionC:       "three",
			CorrectAnswer: "B",
		},
		UserAnswer: "one",
		WrongCount: wrong,
	}
}

func storedWrong(id, tag string) store.AnswerEventData {
	return store.AnswerEventData{
		RunID:          "run",
		QuestionID:     id,
		QuestionType:   tag,
		Difficulty:     "BEGINNER",
		Prompt:         "Stored " + id,
		Options:        []string{"quick", "complete and thorough", "lazy"},
		SelectedAnswer: "quick",
		CorrectAnswer:  "complete and thorough",
	}
}

func newService(t *testing.T, backend Backend, events store.EventRepo) *Service {
	t.Helper()
	return NewService(backend, events, question.NewRegistry(nil), "user-1", zerolog.Nop())
}

func newClient(srv *apitest.Server) *api.Client {
	return api.NewClient(api.Config{BaseURL: srv.URL}, zerolog.Nop())
}

func TestReview_Backend(t *testing.T) {
	srv := apitest.NewServer(t)
	srv.Review = []api.ReviewItem{
		reviewItem("q1", "word", 1),
		reviewItem("q2", "synonym", 1),
		{RawQuestion: question.RawQuestion{ID: "bad", QuestionType: "word", QuestionText: "no options"}},
	}
	svc := newService(t, newClient(srv), nil)

	res, err := svc.Review(context.Background(), question.TypeWord)
	require.NoError(t, err)
	assert.False(t, res.NoData)
	assert.Equal(t, OriginBackend, res.Origin)
	assert.NotEmpty(t, res.SessionID)
	require.Len(t, res.Questions, 1)
	assert.Equal(t, "two", res.Questions[0].CorrectAnswer)

	sessions := srv.CallsTo("/sessions")
	require.Len(t, sessions, 1)
	assert.Contains(t, string(sessions[0].Body), `"sessionType":"REVIEW"`)
	assert.Contains(t, string(sessions[0].Body), `"categories":["word"]`)
}

func TestReview_422IsEmptyState(t *testing.T) {
	srv := apitest.NewServer(t)
	srv.ReviewStatus = http.StatusUnprocessableEntity
	s := openStore(t)
	require.NoError(t, s.EventRepo().AppendAnswerEvent(context.Background(), storedWrong("q1", "WORD")))
	svc := newService(t, newClient(srv), s.EventRepo())

	res, err := svc.Review(context.Background(), "")
	require.NoError(t, err)
	assert.True(t, res.NoData)
	assert.Empty(t, res.Questions)
	assert.Equal(t, OriginBackend, res.Origin)
}

func TestReview_NetworkFailureFallsBackToLocal(t *testing.T) {
	srv := apitest.NewServer(t)
	srv.ReviewStatus = http.StatusInternalServerError
	s := openStore(t)
	ctx := context.Background()
	require.NoError(t, s.EventRepo().AppendAnswerEvent(ctx, storedWrong("q1", "WORD")))
	svc := newService(t, newClient(srv), s.EventRepo())

	res, err := svc.Review(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, OriginLocal, res.Origin)
	require.Len(t, res.Questions, 1)
	assert.Equal(t, "Stored q1", res.Questions[0].Prompt)
}

func TestReview_NetworkFailureWithoutHistoryIsError(t *testing.T) {
	srv := apitest.NewServer(t)
	srv.ReviewStatus = http.StatusInternalServerError
	svc := newService(t, newClient(srv), openStore(t).EventRepo())

	_, err := svc.Review(context.Background(), "")
	assert.ErrorIs(t, err, api.ErrNetwork)
}

func TestReview_OfflineDedupsAndLimits(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	repo := s.EventRepo()
	for _, e := range []store.AnswerEventData{
		storedWrong("q1", "WORD"),
		storedWrong("q1", "WORD"),
		storedWrong("q2", "WORD"),
		storedWrong("q3", "SYNONYM"),
		storedWrong("q4", "WORD"),
	} {
		require.NoError(t, repo.AppendAnswerEvent(ctx, e))
	}
	svc := newService(t, nil, repo)
	svc.SetLimit(2)

	res, err := svc.Review(ctx, question.TypeWord)
	require.NoError(t, err)
	require.Len(t, res.Questions, 2)
	assert.Equal(t, "q4", res.Questions[0].ID)
	assert.Equal(t, "q2", res.Questions[1].ID)
}

func TestReview_OfflineEmpty(t *testing.T) {
	svc := newService(t, nil, openStore(t).EventRepo())
	res, err := svc.Review(context.Background(), "")
	require.NoError(t, err)
	assert.True(t, res.NoData)
}

func TestRanking_FromBackendWeightsWrongCount(t *testing.T) {
	srv := apitest.NewServer(t)
	srv.Review = []api.ReviewItem{
		reviewItem("q1", "word", 3),
		reviewItem("q2", "sentence", 1),
		reviewItem("q3", "sentence-interpretation", 2),
		reviewItem("q4", "synonym", 0),
	}
	svc := newService(t, newClient(srv), nil)

	ranking, err := svc.Ranking(context.Background())
	require.NoError(t, err)
	require.Len(t, ranking, 3)
	assert.Equal(t, 3, ranking[0].Count)
	assert.Equal(t, 3, ranking[1].Count)
	assert.Equal(t, 1, ranking[0].PriorityRank)
	assert.Equal(t, 1, ranking[1].PriorityRank)
	assert.Equal(t, "유의어", ranking[2].DisplayName)
	assert.Equal(t, 2, ranking[2].PriorityRank)
}

func TestRanking_LocalWithAccuracy(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	repo := s.EventRepo()
	correct := storedWrong("ok", "WORD")
	correct.IsCorrect = true
	for _, e := range []store.AnswerEventData{storedWrong("a", "WORD"), correct, storedWrong("b", "SYNONYM")} {
		require.NoError(t, repo.AppendAnswerEvent(ctx, e))
	}
	svc := newService(t, nil, repo)

	ranking, err := svc.Ranking(ctx)
	require.NoError(t, err)
	require.Len(t, ranking, 2)
	byName := map[string]float64{}
	for _, r := range ranking {
		byName[r.DisplayName] = r.AccuracyRate
	}
	assert.InDelta(t, 0.5, byName["단어"], 1e-9)
	assert.InDelta(t, 0.0, byName["유의어"], 1e-9)
}

func TestWeakTypeReview_LocalFallback(t *testing.T) {
	srv := apitest.NewServer(t)
	srv.ReviewStatus = http.StatusUnprocessableEntity
	s := openStore(t)
	ctx := context.Background()
	repo := s.EventRepo()
	for _, e := range []store.AnswerEventData{
		storedWrong("w1", "WORD"), storedWrong("w2", "WORD"), storedWrong("s1", "SYNONYM"),
	} {
		require.NoError(t, repo.AppendAnswerEvent(ctx, e))
	}
	svc := newService(t, newClient(srv), repo)

	res, err := svc.WeakTypeReview(ctx)
	require.NoError(t, err)
	require.NotNil(t, res.Target)
	assert.Equal(t, "단어", res.Target.DisplayName)
	assert.Equal(t, OriginLocal, res.Origin)
	require.Len(t, res.Questions, 2)
	for _, q := range res.Questions {
		assert.Equal(t, question.TypeWord, q.Type)
	}
}

func TestWeakTypeReview_NoWeakness(t *testing.T) {
	svc := newService(t, nil, openStore(t).EventRepo())
	res, err := svc.WeakTypeReview(context.Background())
	require.NoError(t, err)
	assert.Nil(t, res.Target)
	assert.True(t, res.NoData)
	assert.Empty(t, res.Ranking)
}

func TestWeakTypeReview_BackendQuestions(t *testing.T) {
	srv := apitest.NewServer(t)
	srv.Review = []api.ReviewItem{
		reviewItem("q1", "synonym", 4),
		reviewItem("q2", "word", 1),
	}
	svc := newService(t, newClient(srv), nil)

	res, err := svc.WeakTypeReview(context.Background())
	require.NoError(t, err)
	require.NotNil(t, res.Target)
	assert.Equal(t, "유의어", res.Target.DisplayName)
	assert.Equal(t, OriginBackend, res.Origin)
	require.Len(t, res.Questions, 1)
	assert.Equal(t, "q1", res.Questions[0].ID)
}

func TestQuestionFromEvent(t *testing.T) {
	q, err := QuestionFromEvent(storedWrong("q9", "fill-in-blank"))
	require.NoError(t, err)
	assert.Equal(t, question.TypeFillInBlank, q.Type)
	assert.Equal(t, 1, q.CorrectIndex())

	bad := storedWrong("q9", "WORD")
	bad.CorrectAnswer = "missing"
	_, err = QuestionFromEvent(bad)
	assert.ErrorIs(t, err, question.ErrMalformed)

	_, err = QuestionFromEvent(storedWrong("q9", "HANDWRITING"))
	assert.ErrorIs(t, err, question.ErrUnsupportedType)
}

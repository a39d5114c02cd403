package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyup/studyup/internal/api"
	"github.com/studyup/studyup/internal/api/apitest"
	"github.com/studyup/studyup/internal/question"
)

func newClient(t *testing.T, srv *apitest.Server) *api.Client {
	t.Helper()
	return api.NewClient(api.Config{BaseURL: srv.URL, Timeout: 5 * time.Second, Token: "tok"}, zerolog.Nop())
}

func TestClient_Generate(t *testing.T) {
	srv := apitest.NewServer(t)
	srv.Questions["WORD"] = []question.RawQuestion{
		{QuestionText: "q1", OptionA: "a", OptionB: "b", OptionC: "c", CorrectAnswer: "A"},
		{QuestionText: "q2", OptionA: "a", OptionB: "b", OptionC: "c", CorrectAnswer: "b"},
	}
	c := newClient(t, srv)

	raws, err := c.Generate(context.Background(), question.GenerateRequest{QuestionType: "WORD", Difficulty: question.Beginner, QuestionCount: 1})
	require.NoError(t, err)
	require.Len(t, raws, 1)
	assert.Equal(t, "q1", raws[0].QuestionText)

	calls := srv.CallsTo("/questions/generate")
	require.Len(t, calls, 1)
	assert.Equal(t, "/api/v1/questions/generate", calls[0].Path)
	assert.Equal(t, "Bearer tok", calls[0].Auth)

	var body map[string]any
	require.NoError(t, json.Unmarshal(calls[0].Body, &body))
	assert.Equal(t, "WORD", body["questionType"])
	assert.Equal(t, "BEGINNER", body["difficulty"])
	assert.EqualValues(t, 1, body["questionCount"])
}

func TestClient_BaseURLPrefix(t *testing.T) {
	c := api.NewClient(api.Config{BaseURL: "http://example.test/api/v1/"}, zerolog.Nop())
	assert.Equal(t, "http://example.test/api/v1", c.BaseURL())

	c = api.NewClient(api.Config{BaseURL: "http://example.test"}, zerolog.Nop())
	assert.Equal(t, "http://example.test/api/v1", c.BaseURL())
}

func TestClient_MalformedBody(t *testing.T) {
	srv := apitest.NewServer(t)
	srv.Raw["/api/v1/questions/generate"] = `{"questions": [`
	c := newClient(t, srv)

	_, err := c.Generate(context.Background(), question.GenerateRequest{QuestionType: "WORD"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, api.ErrMalformed))
	assert.False(t, errors.Is(err, api.ErrNetwork))
}

func TestClient_NetworkFailure(t *testing.T) {
	srv := apitest.NewServer(t)
	url := srv.URL
	srv.Close()

	c := api.NewClient(api.Config{BaseURL: url, Timeout: time.Second}, zerolog.Nop())
	_, err := c.Generate(context.Background(), question.GenerateRequest{QuestionType: "WORD"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, api.ErrNetwork))
	assert.Equal(t, 0, api.StatusOf(err))
}

func TestClient_StartVariants(t *testing.T) {
	srv := apitest.NewServer(t)
	c := newClient(t, srv)
	ctx := context.Background()

	general, err := c.StartGeneral(ctx, api.GeneralStartRequest{UserID: "u1", DifficultyLevel: "BEGINNER", Topic: "travel"})
	require.NoError(t, err)
	assert.NotEmpty(t, general.SessionID)
	assert.Equal(t, srv.Greeting, general.AIFirstGreeting)

	scenario, err := c.StartScenario(ctx, api.ScenarioStartRequest{UserID: "u1", DifficultyLevel: "BEGINNER", ScenarioID: "cafe"})
	require.NoError(t, err)
	assert.Equal(t, "barista", scenario.AIRole)

	custom, err := c.StartCustom(ctx, api.CustomStartRequest{UserID: "u1", CustomAIRole: "doctor", CustomUserRole: "patient", CustomSituation: "checkup"})
	require.NoError(t, err)
	assert.Empty(t, custom.AIFirstGreeting)

	var body map[string]any
	require.NoError(t, json.Unmarshal(srv.CallsTo("/roleplay/custom/start")[0].Body, &body))
	assert.Equal(t, "doctor", body["customAiRole"])
	assert.Equal(t, "checkup", body["customSituation"])
}

func TestClient_StartMissingSessionID(t *testing.T) {
	srv := apitest.NewServer(t)
	srv.Raw["/api/v1/conversation/start"] = `{"aiFirstGreeting": "hi"}`
	c := newClient(t, srv)

	_, err := c.StartGeneral(context.Background(), api.GeneralStartRequest{UserID: "u1"})
	assert.True(t, errors.Is(err, api.ErrMalformed))
}

func TestClient_TalkEndEvaluation(t *testing.T) {
	srv := apitest.NewServer(t)
	srv.Talk = api.TalkResponse{Text: "Nice!", UserText: "I like tea", Feedback: "Good", EvaluationStatus: "GOOD"}
	c := newClient(t, srv)
	ctx := context.Background()

	reply, err := c.Talk(ctx, "s-1", []byte("RIFFdata"), "")
	require.NoError(t, err)
	assert.Equal(t, "Nice!", reply.Text)
	assert.Equal(t, "I like tea", reply.UserText)
	assert.Equal(t, [][]byte{[]byte("RIFFdata")}, srv.Audio())
	assert.Len(t, srv.CallsTo("/conversation/s-1/talk"), 1)

	sum, err := c.End(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, "s-1", sum.SessionID)

	eval, err := c.Evaluation(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, "INTERMEDIATE", eval.RecommendedDifficulty)
}

func TestClient_TalkFailureStatus(t *testing.T) {
	srv := apitest.NewServer(t)
	srv.TalkStatus = http.StatusBadGateway
	c := newClient(t, srv)

	_, err := c.Talk(context.Background(), "s-1", []byte("x"), "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, api.ErrNetwork))
	assert.Equal(t, http.StatusBadGateway, api.StatusOf(err))
}

func TestClient_Review422IsNoData(t *testing.T) {
	srv := apitest.NewServer(t)
	srv.ReviewStatus = http.StatusUnprocessableEntity
	c := newClient(t, srv)

	res, err := c.ReviewQuestions(context.Background(), "u1", "word")
	require.NoError(t, err)
	assert.True(t, res.NoData)
	assert.Empty(t, res.Items)
}

func TestClient_ReviewOtherStatusIsError(t *testing.T) {
	srv := apitest.NewServer(t)
	srv.ReviewStatus = http.StatusInternalServerError
	c := newClient(t, srv)

	res, err := c.ReviewQuestions(context.Background(), "u1", "")
	assert.Nil(t, res)
	assert.True(t, errors.Is(err, api.ErrNetwork))
	assert.False(t, errors.Is(err, api.ErrNoData))
}

func TestClient_ReviewQuestions(t *testing.T) {
	srv := apitest.NewServer(t)
	srv.Review = []api.ReviewItem{
		{RawQuestion: question.RawQuestion{QuestionType: "word", QuestionText: "q1", OptionA: "a", OptionB: "b", CorrectAnswer: "A"}, UserAnswer: "b"},
		{RawQuestion: question.RawQuestion{QuestionType: "synonym", QuestionText: "q2", OptionA: "a", OptionB: "b", CorrectAnswer: "B"}, UserAnswer: "a"},
	}
	c := newClient(t, srv)

	res, err := c.ReviewQuestions(context.Background(), "u1", "word")
	require.NoError(t, err)
	assert.False(t, res.NoData)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "q1", res.Items[0].QuestionText)
	assert.Equal(t, "b", res.Items[0].UserAnswer)
}

func TestClient_ReviewQuestionsZonelessTimestamp(t *testing.T) {
	srv := apitest.NewServer(t)
	srv.Raw["/api/v1/review/questions"] = `{"questions":[{"questionType":"word","questionText":"q1",` +
		`"optionA":"a","optionB":"b","correctAnswer":"A","userAnswer":"b","answeredAt":"2024-05-01T10:00:00"}]}`
	c := newClient(t, srv)

	res, err := c.ReviewQuestions(context.Background(), "u1", "")
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "2024-05-01T10:00:00", res.Items[0].AnsweredAt)
}

func TestClient_CreateReviewSessionAndAnswers(t *testing.T) {
	srv := apitest.NewServer(t)
	c := newClient(t, srv)
	ctx := context.Background()

	rs, err := c.CreateReviewSession(ctx, api.ReviewSessionRequest{UserID: "u1", Categories: []string{"word"}})
	require.NoError(t, err)
	assert.NotEmpty(t, rs.SessionID)

	var body map[string]any
	require.NoError(t, json.Unmarshal(srv.CallsTo("/sessions")[0].Body, &body))
	assert.Equal(t, "REVIEW", body["sessionType"])
	assert.NotNil(t, body["sessionMetadata"])

	err = c.RecordAnswers(ctx, rs.SessionID, []api.AnswerRecord{{QuestionID: "q1", QuestionType: "WORD", SelectedAnswer: "a", CorrectAnswer: "a", IsCorrect: true}})
	require.NoError(t, err)
	assert.Len(t, srv.CallsTo("/answers"), 1)

	require.NoError(t, c.RecordAnswers(ctx, rs.SessionID, nil))
	assert.Len(t, srv.CallsTo("/answers"), 1, "empty log is not sent")
}

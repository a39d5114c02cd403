package questiongen

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyup/studyup/internal/llm"
	"github.com/studyup/studyup/internal/question"
)

func batch(items ...string) json.RawMessage {
	return json.RawMessage(`{"questions":[` + strings.Join(items, ",") + `]}`)
}

func item(text, answer string) string {
	return `{"questionText":"` + text + `","conversation":"","optionA":"quick","optionB":"complete and thorough","optionC":"lazy","optionD":"","correctAnswer":"` + answer + `","explanation":"꼼꼼한"}`
}

func wordRequest(n int) question.GenerateRequest {
	return question.GenerateRequest{QuestionType: "WORD", Difficulty: question.Intermediate, Topics: []string{"daily"}, QuestionCount: n}
}

func TestGenerate_NormalizesThroughRegistry(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: batch(
		item("What does 'thorough' mean?", "B"),
		item("Pick the meaning of 'meticulous'", "B"),
	)})
	src := New(mock, DefaultConfig(), zerolog.Nop())

	raws, err := src.Generate(context.Background(), wordRequest(2))
	require.NoError(t, err)
	require.Len(t, raws, 2)
	assert.Equal(t, "WORD", raws[0].QuestionType)
	assert.Equal(t, "INTERMEDIATE", raws[0].Difficulty)

	reg := question.NewRegistry(src)
	q, err := reg.NormalizeAny(raws[0], question.TypeWord)
	require.NoError(t, err)
	assert.Equal(t, "complete and thorough", q.CorrectAnswer)
	assert.Equal(t, []string{"quick", "complete and thorough", "lazy"}, q.Options)

	calls := mock.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, BatchSchema, calls[0].Schema)
	assert.Contains(t, calls[0].Messages[0].Content, "Question type: WORD")
	assert.Contains(t, calls[0].Messages[0].Content, "Topics: daily")
	assert.Contains(t, calls[0].Messages[0].Content, "Number of questions: 2")
}

func TestGenerate_DropsInvalidItems(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: batch(
		item("Valid one", "A"),
		item("Points at empty D", "D"),
		item("", "A"),
	)})
	src := New(mock, DefaultConfig(), zerolog.Nop())

	raws, err := src.Generate(context.Background(), wordRequest(3))
	require.NoError(t, err)
	require.Len(t, raws, 1)
	assert.Equal(t, "Valid one", raws[0].QuestionText)
}

func TestGenerate_AllRejected(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: batch(item("Bad", "D"))})
	src := New(mock, DefaultConfig(), zerolog.Nop())

	_, err := src.Generate(context.Background(), wordRequest(1))
	require.ErrorIs(t, err, ErrAllRejected)
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
	assert.Equal(t, "structural", verr.Validator)
}

func TestGenerate_RemembersPriorQuestions(t *testing.T) {
	mock := llm.NewMockProvider(
		llm.MockResponse{Content: batch(item("What does 'thorough' mean?", "B"))},
		llm.MockResponse{Content: batch(item("what does  'THOROUGH' mean?", "B"), item("Fresh question", "A"))},
	)
	src := New(mock, DefaultConfig(), zerolog.Nop())

	_, err := src.Generate(context.Background(), wordRequest(1))
	require.NoError(t, err)

	raws, err := src.Generate(context.Background(), wordRequest(2))
	require.NoError(t, err)
	require.Len(t, raws, 1)
	assert.Equal(t, "Fresh question", raws[0].QuestionText)
	assert.Contains(t, mock.Calls()[1].Messages[0].Content, "1. What does 'thorough' mean?")
}

func TestGenerate_ProviderError(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Err: &llm.UnavailableError{Err: errors.New("down")}})
	src := New(mock, DefaultConfig(), zerolog.Nop())

	_, err := src.Generate(context.Background(), wordRequest(1))
	var unavailable *llm.UnavailableError
	assert.ErrorAs(t, err, &unavailable)
}

func TestGenerate_ClampsBatch(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: batch(item("Only", "A"))})
	cfg := DefaultConfig()
	cfg.MaxBatch = 3
	src := New(mock, cfg, zerolog.Nop())

	_, err := src.Generate(context.Background(), wordRequest(50))
	require.NoError(t, err)
	assert.Contains(t, mock.Calls()[0].Messages[0].Content, "Number of questions: 3")
}

func TestPromptIncludesTypeInstructions(t *testing.T) {
	for _, typ := range question.AllTypes {
		msg := buildUserMessage(question.GenerateRequest{QuestionType: string(typ), Difficulty: question.Beginner, QuestionCount: 1}, nil, 5)
		assert.Contains(t, msg, "Instructions: ", typ)
		assert.Contains(t, msg, "Already asked:\nNone", typ)
	}
}

func TestNumberedKeepsMostRecent(t *testing.T) {
	assert.Equal(t, "1. c\n2. d", numbered([]string{"a", "b", "c", "d"}, 2))
}

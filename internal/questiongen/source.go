package questiongen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/studyup/studyup/internal/llm"
	"github.com/studyup/studyup/internal/question"
)

// ErrAllRejected is returned when every generated question failed
// validation.
var ErrAllRejected = errors.New("all generated questions were rejected")

// LLMSource generates questions through an llm.Provider. It implements
// question.Source.
type LLMSource struct {
	provider llm.Provider
	config   Config
	logger   zerolog.Logger

	mu    sync.Mutex
	prior []string
}

// New creates an LLMSource.
func New(provider llm.Provider, cfg Config, logger zerolog.Logger) *LLMSource {
	return &LLMSource{
		provider: provider,
		config:   cfg,
		logger:   logger.With().Str("component", "questiongen").Logger(),
	}
}

type batchOutput struct {
	Questions []question.RawQuestion `json:"questions"`
}

func (g *LLMSource) Generate(ctx context.Context, req question.GenerateRequest) ([]question.RawQuestion, error) {
	ctx = llm.WithPurpose(ctx, llm.PurposeQuestionGen)

	if req.QuestionCount < 1 {
		req.QuestionCount = 1
	}
	if g.config.MaxBatch > 0 && req.QuestionCount > g.config.MaxBatch {
		req.QuestionCount = g.config.MaxBatch
	}
	if req.Difficulty == "" {
		req.Difficulty = question.Beginner
	}

	prior := g.priorQuestions()
	resp, err := g.provider.Generate(ctx, llm.Request{
		System:      systemPrompt,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: buildUserMessage(req, prior, g.config.MaxPriorQuestions)}},
		Schema:      BatchSchema,
		MaxTokens:   g.config.MaxTokens,
		Temperature: g.config.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("llm generation failed: %w", err)
	}

	var out batchOutput
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		return nil, fmt.Errorf("parse llm response: %w", err)
	}

	if len(out.Questions) == 0 {
		return nil, question.ErrNoQuestions
	}

	accepted := make([]question.RawQuestion, 0, len(out.Questions))
	var firstErr error
	for _, raw := range out.Questions {
		if verr := g.validate(raw, prior); verr != nil {
			g.logger.Debug().Str("type", req.QuestionType).Str("reason", verr.Error()).Msg("dropping generated question")
			if firstErr == nil {
				firstErr = verr
			}
			continue
		}
		raw.QuestionType = req.QuestionType
		raw.Difficulty = string(req.Difficulty)
		accepted = append(accepted, raw)
		prior = append(prior, raw.QuestionText)
	}
	if len(accepted) == 0 {
		return nil, fmt.Errorf("%w: %w", ErrAllRejected, firstErr)
	}

	g.remember(accepted)
	return accepted, nil
}

func (g *LLMSource) validate(raw question.RawQuestion, prior []string) *ValidationError {
	for _, v := range g.config.Validators {
		if verr := v.Validate(raw, prior); verr != nil {
			return verr
		}
	}
	return nil
}

func (g *LLMSource) priorQuestions() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.prior...)
}

func (g *LLMSource) remember(qs []question.RawQuestion) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, q := range qs {
		g.prior = append(g.prior, q.QuestionText)
	}
	if limit := g.config.MaxPriorQuestions; limit > 0 && len(g.prior) > limit {
		g.prior = g.prior[len(g.prior)-limit:]
	}
}

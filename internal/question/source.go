package question

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// Chain is a Source that tries each of its sources in order and returns
// the first non-empty result.
type Chain struct {
	sources []Source
	logger  zerolog.Logger
}

// NewChain builds a fallback chain. Nil sources are skipped.
func NewChain(logger zerolog.Logger, sources ...Source) *Chain {
	c := &Chain{logger: logger.With().Str("component", "question-chain").Logger()}
	for _, s := range sources {
		if s != nil {
			c.sources = append(c.sources, s)
		}
	}
	return c
}

// Generate implements Source.
func (c *Chain) Generate(ctx context.Context, req GenerateRequest) ([]RawQuestion, error) {
	var errs []error
	for i, src := range c.sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		raws, err := src.Generate(ctx, req)
		if err == nil && len(raws) == 0 {
			err = ErrNoQuestions
		}
		if err == nil {
			if i > 0 {
				c.logger.Info().
					Str("source", fmt.Sprintf("%T", src)).
					Str("type", req.QuestionType).
					Msg("served questions from fallback source")
			}
			return raws, nil
		}
		c.logger.Warn().Err(err).
			Str("source", fmt.Sprintf("%T", src)).
			Str("type", req.QuestionType).
			Msg("question source failed")
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return nil, ErrNoQuestions
	}
	return nil, errors.Join(errs...)
}

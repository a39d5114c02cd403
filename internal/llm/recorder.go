package llm

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/studyup/studyup/internal/store"
)

// RecordingProvider stores one event per request and logs it.
type RecordingProvider struct {
	inner    Provider
	provider string
	repo     store.EventRepo
	logger   zerolog.Logger
}

// WithRecording wraps p so every call is appended to repo. A nil repo
// only logs.
func WithRecording(p Provider, providerName string, repo store.EventRepo, logger zerolog.Logger) Provider {
	return &RecordingProvider{
		inner:    p,
		provider: providerName,
		repo:     repo,
		logger:   logger.With().Str("component", "llm").Logger(),
	}
}

func (l *RecordingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	resp, err := l.inner.Generate(ctx, req)

	data := store.LLMRequestEventData{
		Provider:  l.provider,
		Model:     l.inner.ModelID(),
		Purpose:   PurposeFrom(ctx),
		LatencyMs: time.Since(start).Milliseconds(),
		Success:   err == nil,
	}
	if resp != nil {
		data.Model = resp.Model
		data.InputTokens = resp.Usage.InputTokens
		data.OutputTokens = resp.Usage.OutputTokens
	}
	if err != nil {
		data.ErrorMessage = err.Error()
	}

	ev := l.logger.Debug()
	if err != nil {
		ev = l.logger.Warn().Err(err)
	}
	ev.Str("model", data.Model).
		Str("purpose", data.Purpose).
		Int64("latency_ms", data.LatencyMs).
		Int("input_tokens", data.InputTokens).
		Int("output_tokens", data.OutputTokens).
		Msg("llm request")

	if l.repo != nil {
		if logErr := l.repo.AppendLLMRequest(context.WithoutCancel(ctx), data); logErr != nil {
			l.logger.Warn().Err(logErr).Msg("failed to record llm request")
		}
	}
	return resp, err
}

func (l *RecordingProvider) ModelID() string { return l.inner.ModelID() }

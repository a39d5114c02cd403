package llm

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/studyup/studyup/internal/store"
)

// NewProvider builds the configured provider wrapped as
// caller → retry → recording → base. It returns nil, nil when cfg selects
// no provider.
func NewProvider(ctx context.Context, cfg Config, repo store.EventRepo, logger zerolog.Logger) (Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var (
		base Provider
		err  error
	)
	switch cfg.Provider {
	case ProviderNone:
		return nil, nil
	case ProviderMock:
		return NewMockProvider(), nil
	case ProviderAnthropic:
		base, err = NewAnthropicProvider(cfg)
	case ProviderOpenAI, ProviderOpenRouter:
		base, err = NewOpenAIProvider(cfg)
	case ProviderGemini:
		base, err = NewGeminiProvider(ctx, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	recorded := WithRecording(base, cfg.Provider, repo, logger)
	return WithRetry(recorded, cfg.Retry, logger), nil
}

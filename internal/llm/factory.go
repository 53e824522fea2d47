package llm

import (
	"context"
	"fmt"

	"github.com/abhisek/examgen/internal/store"
)

// NewProvider creates a text Provider from configuration.
// It returns the provider wrapped with retry and logging middleware.
func NewProvider(ctx context.Context, cfg Config, eventRepo store.EventRepo) (Provider, error) {
	var base Provider
	var err error

	switch cfg.Provider {
	case "anthropic":
		base, err = NewAnthropicProvider(cfg.Anthropic)
	case "openai":
		base, err = NewOpenAIProvider(cfg.OpenAI)
	case "openrouter":
		base, err = NewOpenRouterProvider(cfg.OpenRouter)
	case "gemini":
		base, err = NewGeminiProvider(ctx, cfg.Gemini)
	case "mock":
		return NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	// caller → retry → logging → base
	return WithRetry(WithLogging(base, eventRepo), cfg.Retry), nil
}

// NewImageProvider creates the diagram ImageProvider for the configured
// backend. Providers without image output return ErrImageUnsupported; the
// caller runs without diagrams in that case.
func NewImageProvider(ctx context.Context, cfg Config, eventRepo store.EventRepo) (ImageProvider, error) {
	var base ImageProvider
	var err error

	switch cfg.Provider {
	case "gemini":
		base, err = NewGeminiImageProvider(ctx, cfg.Gemini)
	case "openai":
		base, err = NewOpenAIImageProvider(cfg.OpenAI)
	case "mock":
		return NewMockImageProvider(), nil
	default:
		return nil, fmt.Errorf("%s: %w", cfg.Provider, ErrImageUnsupported)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s image provider: %w", cfg.Provider, err)
	}

	return WithImageRetry(WithImageLogging(base, eventRepo), cfg.Retry), nil
}

package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ai-trip-planner/internal/config"
	"ai-trip-planner/internal/logging"
)

// Service is the generation stack assembled from configuration:
// provider client, optional reply cache, retry wrapper.
type Service struct {
	TextGenerator
	cache   *CachedTextGenerator
	closers []Closer
}

// NewService builds the configured provider and wraps it.
func NewService(ctx context.Context, cfg *config.Config, logger *logging.Logger) (*Service, error) {
	if err := cfg.RequireLLM(); err != nil {
		return nil, err
	}

	s := &Service{}
	var base TextGenerator

	switch strings.ToLower(cfg.LLM.Provider) {
	case "groq":
		model := cfg.LLM.Model
		if strings.HasPrefix(model, "gemini") {
			model = DefaultGroqModel
		}
		base = NewGroqClient(cfg.LLM.GroqAPIKey, model, cfg.LLM.Temperature)
	default:
		gemini, err := NewGeminiClient(ctx, cfg.LLM.GeminiAPIKey, cfg.LLM.Model, cfg.LLM.Temperature)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, gemini)
		base = gemini
	}

	if cfg.LLM.CachePath != "" {
		cached, err := NewCachedTextGenerator(base, cfg.LLM.CachePath)
		if err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("failed to open reply cache: %w", err)
		}
		s.cache = cached
		base = cached
	}

	s.TextGenerator = NewRetryingGenerator(base, RetryPolicy{
		Attempts:     cfg.Retry.Attempts,
		InitialDelay: cfg.Retry.InitialDelay,
		Multiplier:   cfg.Retry.Multiplier,
		MaxDelay:     cfg.Retry.MaxDelay,
	}, logger.With("provider", cfg.LLM.Provider))

	return s, nil
}

// SupportsTool reports the tools of the configured provider.
func (s *Service) SupportsTool(t Tool) bool {
	return SupportsTool(s.TextGenerator, t)
}

// Close persists the reply cache and releases provider clients.
func (s *Service) Close() error {
	var errs []error
	if s.cache != nil {
		errs = append(errs, s.cache.SaveCache())
	}
	for _, c := range s.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

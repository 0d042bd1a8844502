package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/ppiankov/calscrape/internal/model"
)

// ErrNoProvider is returned when completion is requested without a provider
var ErrNoProvider = errors.New("no extraction service configured")

// Service adapts a Provider to the extractors: it picks the model by
// category and logs usage
type Service struct {
	provider Provider
	config   Config
	logger   zerolog.Logger
}

// NewService wraps a provider. provider may be nil.
func NewService(provider Provider, config Config, logger zerolog.Logger) *Service {
	return &Service{provider: provider, config: config, logger: logger}
}

// Enabled reports whether a provider is configured
func (s *Service) Enabled() bool {
	return s != nil && s.provider != nil
}

// ModelFor returns the model used for a category
func (s *Service) ModelFor(category model.Category) string {
	if category == model.CategoryAttractions && s.config.AttractionsModel != "" {
		return s.config.AttractionsModel
	}
	return s.config.Model
}

// Complete sends one extraction prompt and returns the raw reply text
func (s *Service) Complete(ctx context.Context, category model.Category, prompt string) (string, error) {
	if !s.Enabled() {
		return "", ErrNoProvider
	}

	modelName := s.ModelFor(category)
	start := time.Now()
	resp, err := s.provider.Complete(ctx, CompletionRequest{
		Prompt:      prompt,
		Model:       modelName,
		MaxTokens:   s.config.MaxTokens,
		Temperature: s.config.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("%s completion: %w", s.provider.Name(), err)
	}

	s.logger.Debug().
		Str("provider", s.provider.Name()).
		Str("model", resp.Model).
		Str("category", string(category)).
		Int("tokens", resp.TokensUsed).
		Dur("duration", time.Since(start)).
		Msg("Completion finished")

	return resp.Text, nil
}

// Ping checks the provider
func (s *Service) Ping(ctx context.Context) error {
	if !s.Enabled() {
		return ErrNoProvider
	}
	return s.provider.Ping(ctx)
}

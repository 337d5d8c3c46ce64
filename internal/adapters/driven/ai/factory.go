// Package ai provides factory functions for creating AI service adapters.
package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	ollamaembed "github.com/custodia-labs/opsmind/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/opsmind/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/custodia-labs/opsmind/internal/adapters/driven/llm/anthropic"
	ollamallm "github.com/custodia-labs/opsmind/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/opsmind/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/opsmind/internal/core/domain"
	"github.com/custodia-labs/opsmind/internal/core/ports/driven"
	"github.com/custodia-labs/opsmind/internal/logger"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// Services holds the providers built from settings. A nil service means the
// provider is not configured; the core reports that per request.
type Services struct {
	Embedding driven.EmbeddingService
	LLM       driven.LLMService
	Warnings  []string // Non-fatal issues found while connecting.
}

// Close releases all resources held by Services.
func (s *Services) Close() {
	if s.Embedding != nil {
		_ = s.Embedding.Close()
	}
	if s.LLM != nil {
		_ = s.LLM.Close()
	}
}

// Init builds both providers. With ping set, each is checked for
// reachability and failures become warnings, so a server can start while a
// provider is still loading.
func Init(ctx context.Context, settings domain.AppSettings, ping bool) (*Services, error) {
	out := &Services{}

	embedding, err := CreateEmbeddingService(settings.Embedding, settings.VectorIndex.Dimensions)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}
	if embedding == nil {
		out.warn("embedding provider %q is not configured", settings.Embedding.Provider)
	}
	out.Embedding = embedding

	llm, err := CreateLLMService(settings.LLM)
	if err != nil {
		out.Close()
		return nil, fmt.Errorf("%w: %w", domain.ErrLLMUnavailable, err)
	}
	if llm == nil {
		out.warn("LLM provider %q is not configured", settings.LLM.Provider)
	}
	out.LLM = llm

	if ping {
		for _, err := range Probe(ctx, out.Embedding, out.LLM) {
			out.warn("%v", err)
		}
	}
	return out, nil
}

func (s *Services) warn(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	logger.Warn("%s", msg)
	s.Warnings = append(s.Warnings, msg)
}

// Probe pings the configured providers and returns one error per unreachable
// service. Nil services are skipped.
func Probe(ctx context.Context, embedding driven.EmbeddingService, llm driven.LLMService) []error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	var errs []error
	if embedding != nil {
		if err := embedding.Ping(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%w: %s unreachable: %w",
				domain.ErrEmbeddingUnavailable, embedding.ModelName(), err))
		}
	}
	if llm != nil {
		if err := llm.Ping(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%w: %s unreachable: %w",
				domain.ErrLLMUnavailable, llm.ModelName(), err))
		}
	}
	return errs
}

// CreateEmbeddingService creates the embedding service for the settings.
// dimensions is the vector size the index expects. Returns nil if the
// provider is not configured.
func CreateEmbeddingService(settings domain.EmbeddingSettings, dimensions int) (driven.EmbeddingService, error) {
	if settings.Provider == domain.AIProviderAnthropic {
		return nil, errors.New("anthropic does not support embeddings, use ollama or openai")
	}
	if !settings.IsConfigured() {
		return nil, nil
	}
	if dimensions <= 0 {
		dimensions = domain.EmbeddingDimensions()[settings.Model]
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: dimensions,
		}), nil
	case domain.AIProviderOpenAI:
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:     settings.APIKey,
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: dimensions,
		})
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", settings.Provider)
	}
}

// CreateLLMService creates the LLM service for the settings.
// Returns nil if the provider is not configured.
func CreateLLMService(settings domain.LLMSettings) (driven.LLMService, error) {
	if !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamallm.NewLLMService(ollamallm.LLMConfig{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		}), nil
	case domain.AIProviderOpenAI:
		return openaillm.NewLLMService(openaillm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})
	case domain.AIProviderAnthropic:
		return anthropicllm.NewLLMService(anthropicllm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", settings.Provider)
	}
}

package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/opsmind/internal/core/domain"
	"github.com/custodia-labs/opsmind/internal/core/ports/driven"
)

// embedder enforces the embedding contract around a provider: empty text never
// reaches the provider and every vector has the configured dimension.
type embedder struct {
	svc        driven.EmbeddingService
	dimensions int
}

func newEmbedder(svc driven.EmbeddingService, dimensions int) *embedder {
	return &embedder{svc: svc, dimensions: dimensions}
}

func (e *embedder) embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, domain.ErrEmptyText
	}
	if e.svc == nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, domain.ErrNotConfigured)
	}

	vec, err := e.svc.Embed(ctx, text)
	if err != nil {
		if errors.Is(err, domain.ErrEmbeddingUnavailable) || errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}
	if len(vec) != e.dimensions {
		return nil, fmt.Errorf("%w: model %s returned %d dimensions, index is configured for %d",
			domain.ErrDimensionMismatch, e.modelName(), len(vec), e.dimensions)
	}
	return vec, nil
}

func (e *embedder) modelName() string {
	if e.svc == nil {
		return ""
	}
	return e.svc.ModelName()
}

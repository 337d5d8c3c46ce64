package services

import (
	"context"

	"github.com/custodia-labs/opsmind/internal/core/domain"
	"github.com/custodia-labs/opsmind/internal/core/ports/driven"
	"github.com/custodia-labs/opsmind/internal/logger"
)

// Retriever finds the chunks most similar to a question that the caller may see.
type Retriever struct {
	embedder   *embedder
	index      driven.ChunkIndex
	candidates int
	limit      int
	minScore   float64
}

// NewRetriever creates a retriever using the candidate pool and limit from settings.
func NewRetriever(
	embeddingService driven.EmbeddingService,
	index driven.ChunkIndex,
	settings domain.AppSettings,
) *Retriever {
	return &Retriever{
		embedder:   newEmbedder(embeddingService, settings.VectorIndex.Dimensions),
		index:      index,
		candidates: settings.Retrieval.Candidates,
		limit:      settings.Retrieval.Limit,
		minScore:   settings.Retrieval.MinScore,
	}
}

// Retrieve embeds the question and searches the index under the caller's role.
// Any failure is returned; a question is never answered from a partial retrieval.
func (r *Retriever) Retrieve(
	ctx context.Context, caps domain.Capabilities, question string,
) ([]domain.ScoredChunk, error) {
	logger.Section("Retrieval")

	vec, err := r.embedder.embed(ctx, question)
	if err != nil {
		return nil, err
	}

	results, err := r.index.Search(ctx, domain.VectorQuery{
		Vector:     vec,
		Role:       caps.Role,
		Candidates: r.candidates,
		Limit:      r.limit,
	})
	if err != nil {
		return nil, indexError("search chunks", err)
	}

	kept := results[:0]
	for _, res := range results {
		if res.Score >= r.minScore {
			kept = append(kept, res)
		}
	}
	results = kept

	logger.Debug("Role %s: %d results (C=%d, K=%d)", caps.Role, len(results), r.candidates, r.limit)
	for i, res := range results {
		logger.Debug("  %d. %s p.%s score=%.4f", i+1, res.Chunk.DocumentName, res.Chunk.PageRef, res.Score)
	}
	return results, nil
}

// Package memory provides in-memory implementations of the storage ports,
// used by tests and by ephemeral runs that need no persistence.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/opsmind/internal/adapters/driven/storage/similarity"
	"github.com/custodia-labs/opsmind/internal/core/domain"
	"github.com/custodia-labs/opsmind/internal/core/ports/driven"
)

// Ensure ChunkIndex implements the interface.
var _ driven.ChunkIndex = (*ChunkIndex)(nil)

type entry struct {
	chunk domain.DocumentChunk
	quant similarity.Quantized
}

// ChunkIndex is an in-memory driven.ChunkIndex with brute-force search.
type ChunkIndex struct {
	mu        sync.RWMutex
	documents map[string][]entry
	precision domain.VectorPrecision
}

// NewChunkIndex creates an empty index using the given prefilter precision.
func NewChunkIndex(precision domain.VectorPrecision) *ChunkIndex {
	return &ChunkIndex{
		documents: make(map[string][]entry),
		precision: precision,
	}
}

// ReplaceDocument swaps the chunk set of a document under one lock.
func (s *ChunkIndex) ReplaceDocument(_ context.Context, name string, chunks []domain.DocumentChunk) (int, error) {
	entries := make([]entry, len(chunks))
	for i, c := range chunks {
		c.DocumentName = name
		c.AllowedRoles = slices.Clone(c.AllowedRoles)
		entries[i] = entry{chunk: c, quant: similarity.Quantize(c.Embedding)}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	removed := len(s.documents[name])
	if len(entries) == 0 {
		delete(s.documents, name)
	} else {
		s.documents[name] = entries
	}
	return removed, nil
}

// DeleteDocument removes a document. Absent names return zero.
func (s *ChunkIndex) DeleteDocument(_ context.Context, name string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.documents[name])
	delete(s.documents, name)
	return n, nil
}

// Search scores only chunks visible to q.Role.
func (s *ChunkIndex) Search(ctx context.Context, q domain.VectorQuery) ([]domain.ScoredChunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var eligible []entry
	for _, entries := range s.documents {
		for _, e := range entries {
			if !e.chunk.VisibleTo(q.Role) {
				continue
			}
			if len(e.chunk.Embedding) != len(q.Vector) {
				return nil, fmt.Errorf("%w: chunk %s of %q has %d dimensions (model %s), query has %d",
					domain.ErrDimensionMismatch, e.chunk.ID, e.chunk.DocumentName,
					len(e.chunk.Embedding), e.chunk.EmbeddingModel, len(q.Vector))
			}
			eligible = append(eligible, e)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if s.precision == domain.VectorPrecisionInt8 && q.Candidates > 0 && len(eligible) > q.Candidates {
		eligible = prefilter(eligible, similarity.Quantize(q.Vector), q.Candidates)
	}

	results := make([]domain.ScoredChunk, 0, len(eligible))
	for _, e := range eligible {
		results = append(results, domain.ScoredChunk{
			Chunk: e.chunk,
			Score: similarity.Cosine(q.Vector, e.chunk.Embedding),
		})
	}
	return similarity.Top(results, q.Limit), nil
}

// prefilter keeps the n entries with the best approximate score.
func prefilter(entries []entry, query similarity.Quantized, n int) []entry {
	scores := make(map[string]float64, len(entries))
	for _, e := range entries {
		scores[e.chunk.ID] = similarity.ApproxCosine(query, e.quant)
	}
	sorted := slices.Clone(entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].chunk, sorted[j].chunk
		if scores[a.ID] != scores[b.ID] {
			return scores[a.ID] > scores[b.ID]
		}
		return a.ID < b.ID
	})
	return sorted[:n]
}

// ListDocuments summarises documents with at least one chunk visible to role.
func (s *ChunkIndex) ListDocuments(_ context.Context, role domain.Role) ([]domain.DocumentSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.DocumentSummary
	for name, entries := range s.documents {
		summary := domain.DocumentSummary{Name: name}
		pages := make(map[string]bool)
		visible := false
		var uploaded time.Time
		for _, e := range entries {
			if e.chunk.VisibleTo(role) {
				visible = true
			}
			summary.Chunks++
			pages[e.chunk.PageRef] = true
			for _, r := range e.chunk.AllowedRoles {
				if !slices.Contains(summary.AllowedRoles, r) {
					summary.AllowedRoles = append(summary.AllowedRoles, r)
				}
			}
			if e.chunk.UploadedAt.After(uploaded) {
				uploaded = e.chunk.UploadedAt
			}
		}
		if !visible {
			continue
		}
		summary.Pages = len(pages)
		summary.UploadedAt = uploaded
		out = append(out, summary)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// CountChunks returns the number of stored chunks.
func (s *ChunkIndex) CountChunks(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, entries := range s.documents {
		n += len(entries)
	}
	return n, nil
}

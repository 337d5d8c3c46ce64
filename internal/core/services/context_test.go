package services

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/opsmind/internal/core/domain"
)

func scored(doc, page, section, text string, score float64) domain.ScoredChunk {
	return domain.ScoredChunk{
		Chunk: domain.DocumentChunk{DocumentName: doc, PageRef: page, Section: section, Text: text},
		Score: score,
	}
}

func TestAssembleContext_Empty(t *testing.T) {
	got := AssembleContext(nil, 6000)

	assert.Equal(t, domain.NoResultsContext, got.Text)
	assert.True(t, got.IsEmpty())
	assert.Empty(t, got.Citations)
}

func TestAssembleContext_FormatsBlocksInRankOrder(t *testing.T) {
	results := []domain.ScoredChunk{
		scored("sop.pdf", "2", "Chemical Spills", "Contain the spill.", 0.9),
		scored("sop.pdf", "1", "", "Check the battery.", 0.7),
	}

	got := AssembleContext(results, 6000)

	want := "[Source: sop.pdf, Page: 2, Section: Chemical Spills]\nContain the spill.\n\n" +
		"[Source: sop.pdf, Page: 1]\nCheck the battery.\n\n"
	assert.Equal(t, want, got.Text)
	assert.False(t, got.Truncated)
	require.Len(t, got.Citations, 2)
	assert.Equal(t, "2", got.Citations[0].Page)
	assert.Equal(t, "Chemical Spills", got.Citations[0].Section)
	assert.Equal(t, "1", got.Citations[1].Page)
}

func TestAssembleContext_StopsAtBudget(t *testing.T) {
	results := []domain.ScoredChunk{
		scored("a.pdf", "1", "", strings.Repeat("a", 40), 0.9),
		scored("b.pdf", "1", "", strings.Repeat("b", 40), 0.8),
		scored("c.pdf", "1", "", "c", 0.7),
	}
	first := formatBlock(results[0].Chunk)
	budget := utf8.RuneCountInString(first) + 10

	got := AssembleContext(results, budget)

	assert.Equal(t, first, got.Text)
	assert.True(t, got.Truncated)
	require.Len(t, got.Included, 1)
	assert.Equal(t, "a.pdf", got.Included[0].Chunk.DocumentName)
	assert.LessOrEqual(t, utf8.RuneCountInString(got.Text), budget)
}

func TestAssembleContext_NeverExceedsBudget(t *testing.T) {
	var results []domain.ScoredChunk
	for i := range 20 {
		results = append(results, scored("doc.pdf", "1", "", strings.Repeat("ü", 10+i*7), 1-float64(i)/100))
	}
	for _, budget := range []int{1, 50, 120, 500, 6000} {
		got := AssembleContext(results, budget)
		assert.LessOrEqual(t, utf8.RuneCountInString(got.Text), budget, "budget %d", budget)
		assert.NotEmpty(t, got.Included, "budget %d", budget)
	}
}

func TestAssembleContext_TruncatesOversizedBestBlock(t *testing.T) {
	results := []domain.ScoredChunk{
		scored("big.pdf", "3", "", strings.Repeat("x", 500), 0.9),
		scored("small.pdf", "1", "", "tiny", 0.8),
	}

	got := AssembleContext(results, 100)

	assert.Equal(t, 100, utf8.RuneCountInString(got.Text))
	assert.True(t, strings.HasPrefix(got.Text, "[Source: big.pdf, Page: 3]\n"))
	assert.True(t, got.Truncated)
	require.Len(t, got.Included, 1)
	assert.False(t, got.IsEmpty())
}

func TestAssembleContext_DeduplicatesCitations(t *testing.T) {
	results := []domain.ScoredChunk{
		scored("sop.pdf", "2", "", "first part", 0.9),
		scored("sop.pdf", "2", "", "second part", 0.8),
		scored("sop.pdf", "3", "", "third part", 0.7),
	}

	got := AssembleContext(results, 6000)

	assert.Len(t, got.Included, 3)
	require.Len(t, got.Citations, 2)
	assert.InDelta(t, 0.9, got.Citations[0].Score, 1e-9, "the best score for a page is kept")
}

func TestAssembleContext_ZeroBudget(t *testing.T) {
	got := AssembleContext([]domain.ScoredChunk{scored("a.pdf", "1", "", "text", 1)}, 0)
	assert.Equal(t, domain.NoResultsContext, got.Text)
}

package domain

import "fmt"

// NoResultsContext is the assembled context used when retrieval found nothing.
// Generation is instructed to refuse when it receives this value.
const NoResultsContext = "NO_RELEVANT_CONTEXT"

// RefusalPhrase is the answer the generator gives for the no-results context.
const RefusalPhrase = "I could not find this in the provided documents."

// ScoredChunk pairs a retrieved chunk with its similarity score.
type ScoredChunk struct {
	Chunk DocumentChunk

	// Score is the cosine similarity to the query vector.
	Score float64
}

// VectorQuery describes one role-filtered similarity search.
type VectorQuery struct {
	// Vector is the query embedding.
	Vector []float32

	// Role restricts results to chunks whose AllowedRoles contain it.
	Role Role

	// Candidates is the candidate pool size C scanned before ranking.
	Candidates int

	// Limit is the result limit K.
	Limit int
}

// Citation references the source location backing an answer.
type Citation struct {
	DocumentName string  `json:"documentName"`
	Page         string  `json:"page"`
	Section      string  `json:"section,omitempty"`
	Score        float64 `json:"score"`
}

// Key identifies a citation for deduplication.
func (c Citation) Key() string {
	return c.DocumentName + "\x00" + c.Page + "\x00" + c.Section
}

// String formats the citation for display.
func (c Citation) String() string {
	if c.Section != "" {
		return fmt.Sprintf("%s (page %s, %s)", c.DocumentName, c.Page, c.Section)
	}
	return fmt.Sprintf("%s (page %s)", c.DocumentName, c.Page)
}

// AssembledContext is the budget-bounded context passed to generation.
type AssembledContext struct {
	// Text is the formatted context, or NoResultsContext.
	Text string

	// Included are the chunks whose text made it into Text, best first.
	Included []ScoredChunk

	// Citations are the deduplicated sources of Included, best first.
	Citations []Citation

	// Truncated is set when a block was cut or dropped to respect the budget.
	Truncated bool
}

// NoResults returns the sentinel context.
func NoResults() AssembledContext {
	return AssembledContext{Text: NoResultsContext}
}

// IsEmpty returns true if no chunk text was included.
func (a AssembledContext) IsEmpty() bool {
	return len(a.Included) == 0
}

// CitationMetadata is carried by the terminal event of a sourced answer.
type CitationMetadata struct {
	// SourceName is the document of the top cited chunk.
	SourceName string `json:"sourceName"`

	// Page and Section locate the top cited chunk.
	Page    string `json:"page"`
	Section string `json:"section,omitempty"`

	// Snippet is a short excerpt of the top cited chunk.
	Snippet string `json:"sourceSnippet"`

	// Confidence is the top similarity score times 100, two decimals.
	Confidence float64 `json:"confidence"`

	// Citations lists the deduplicated sources scoring close to the top chunk.
	Citations []Citation `json:"citations"`
}

// CitationMarker is emitted by the generator only when it used the context.
// It is stripped from visible text before reaching callers.
const CitationMarker = "[SOURCE_FOUND]"

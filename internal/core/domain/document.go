package domain

import (
	"strconv"
	"time"
)

// PageRefMulti is the page reference of text extracted without pagination.
const PageRefMulti = "multi"

// Page is one page of text produced by the extraction collaborator.
type Page struct {
	// Number is the 1-based page number. Zero means unpaginated.
	Number int

	// Text is the extracted page text.
	Text string
}

// Ref returns the page reference stored on chunks built from this page.
func (p Page) Ref() string {
	if p.Number <= 0 {
		return PageRefMulti
	}
	return strconv.Itoa(p.Number)
}

// DocumentChunk is the atomic unit of indexing and retrieval.
// Immutable after creation; removed only in bulk by DocumentName.
type DocumentChunk struct {
	// ID uniquely identifies this chunk.
	ID string

	// DocumentName is the upload name all chunks of a document share.
	DocumentName string

	// PageRef is the page number as text, or PageRefMulti.
	PageRef string

	// Section is the most recent heading seen before this chunk, if any.
	Section string

	// Position is the chunk's order within the document.
	Position int

	// Text is the chunk content, bounded by the chunk window size.
	Text string

	// Embedding is the vector representation of Text.
	Embedding []float32

	// EmbeddingModel records the model that produced Embedding.
	EmbeddingModel string

	// AllowedRoles lists the roles permitted to retrieve this chunk.
	AllowedRoles []Role

	// UploadedAt is when the owning document was ingested.
	UploadedAt time.Time
}

// Dimensions returns the stored vector length.
func (c DocumentChunk) Dimensions() int {
	return len(c.Embedding)
}

// VisibleTo reports whether the role may retrieve this chunk.
func (c DocumentChunk) VisibleTo(role Role) bool {
	for _, r := range c.AllowedRoles {
		if r == role {
			return true
		}
	}
	return false
}

// DocumentSummary describes one indexed document name.
type DocumentSummary struct {
	Name         string    `json:"documentName" yaml:"documentName"`
	Chunks       int       `json:"chunks" yaml:"chunks"`
	Pages        int       `json:"pages" yaml:"pages"`
	AllowedRoles []Role    `json:"allowedRoles" yaml:"allowedRoles"`
	UploadedAt   time.Time `json:"uploadedAt" yaml:"uploadedAt"`
}

// IngestReport is the outcome of a successful upload.
type IngestReport struct {
	DocumentName string `json:"documentName"`
	Chunks       int    `json:"chunks"`
	Pages        int    `json:"pages"`
	Replaced     int    `json:"replaced"`
	Dimensions   int    `json:"dimensions"`
	Model        string `json:"model"`
}

package driving

import (
	"context"

	"github.com/custodia-labs/opsmind/internal/core/domain"
)

// DocumentService lists and removes indexed documents.
type DocumentService interface {
	// List returns summaries of documents visible to the caller's role.
	List(ctx context.Context, caps domain.Capabilities) ([]domain.DocumentSummary, error)

	// Delete removes all chunks of a document. Deleting an absent name returns zero.
	Delete(ctx context.Context, caps domain.Capabilities, documentName string) (int, error)
}

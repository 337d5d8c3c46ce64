package driven

import (
	"context"

	"github.com/custodia-labs/opsmind/internal/core/domain"
)

// ChunkIndex stores document chunks and answers role-filtered similarity searches.
type ChunkIndex interface {
	// ReplaceDocument removes every chunk stored under documentName and inserts
	// chunks, atomically. It returns how many chunks were removed.
	ReplaceDocument(ctx context.Context, documentName string, chunks []domain.DocumentChunk) (int, error)

	// DeleteDocument removes every chunk stored under documentName atomically.
	// Deleting an absent name succeeds and returns zero.
	DeleteDocument(ctx context.Context, documentName string) (int, error)

	// Search returns at most q.Limit chunks visible to q.Role, best first.
	// Chunks not visible to q.Role are excluded inside the search itself.
	// Returns domain.ErrDimensionMismatch when a stored vector length differs from q.Vector.
	Search(ctx context.Context, q domain.VectorQuery) ([]domain.ScoredChunk, error)

	// ListDocuments summarises stored documents visible to role.
	ListDocuments(ctx context.Context, role domain.Role) ([]domain.DocumentSummary, error)

	// CountChunks returns the total number of stored chunks.
	CountChunks(ctx context.Context) (int, error)
}

// QueryLogStore persists query audit records.
type QueryLogStore interface {
	// AppendQueryLog stores one log. Logs are never updated or deleted.
	AppendQueryLog(ctx context.Context, log *domain.QueryLog) error

	// RecentQueryLogs returns up to limit logs, newest first.
	RecentQueryLogs(ctx context.Context, limit int) ([]domain.QueryLog, error)
}

// Chunker splits extracted pages into chunks without embeddings.
type Chunker interface {
	Process(ctx context.Context, documentName string, pages []domain.Page) ([]domain.DocumentChunk, error)
}

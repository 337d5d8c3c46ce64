package driving

import (
	"context"
	"io"

	"github.com/custodia-labs/opsmind/internal/core/domain"
)

// IngestRequest is one uploaded document.
type IngestRequest struct {
	// DocumentName keys the document in the index. Re-ingesting a name replaces it.
	DocumentName string

	// ContentType is the declared MIME type of Body.
	ContentType string

	// Body is the raw file.
	Body io.ReaderAt

	// Size is the length of Body in bytes.
	Size int64

	// TargetRole is the optional role tag restricting visibility.
	TargetRole string
}

// IngestService chunks, embeds and indexes uploaded documents.
type IngestService interface {
	// Ingest replaces every chunk of req.DocumentName with freshly embedded chunks.
	// On any failure the previously indexed version is left untouched.
	Ingest(ctx context.Context, caps domain.Capabilities, req IngestRequest) (*domain.IngestReport, error)
}

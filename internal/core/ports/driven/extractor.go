package driven

import (
	"context"
	"io"

	"github.com/custodia-labs/opsmind/internal/core/domain"
)

// PageExtractor turns an uploaded document into ordered page text.
type PageExtractor interface {
	// Extract returns pages in document order. An unpaginated document yields a
	// single page with Number zero. Pages without text may be omitted.
	Extract(ctx context.Context, r io.ReaderAt, size int64) ([]domain.Page, error)

	// ContentType returns the MIME type this extractor accepts.
	ContentType() string
}

// RateLimiter throttles calls to an external provider.
type RateLimiter interface {
	// Wait blocks until a call is permitted or ctx is done.
	Wait(ctx context.Context) error

	// RecordRateLimitError backs off after the provider reported throttling.
	RecordRateLimitError(retryAfter int)
}

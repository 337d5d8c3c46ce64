// Package pdf provides a PageExtractor for PDF uploads.
package pdf

import (
	"context"
	"fmt"
	"io"
	"strings"

	pdfreader "github.com/ledongthuc/pdf"

	"github.com/custodia-labs/opsmind/internal/core/domain"
	"github.com/custodia-labs/opsmind/internal/core/ports/driven"
	"github.com/custodia-labs/opsmind/internal/logger"
)

// Ensure Extractor implements the interface.
var _ driven.PageExtractor = (*Extractor)(nil)

// MIMEType is the content type this extractor accepts.
const MIMEType = "application/pdf"

// Extractor reads per-page text from PDF files.
type Extractor struct{}

// New creates a PDF extractor.
func New() *Extractor {
	return &Extractor{}
}

// ContentType returns the MIME type this extractor accepts.
func (e *Extractor) ContentType() string {
	return MIMEType
}

// Extract returns the text of each page in order. Pages that fail to decode
// are skipped. If no page yields text, the whole document is read as one
// unpaginated page.
func (e *Extractor) Extract(ctx context.Context, r io.ReaderAt, size int64) (pages []domain.Page, err error) {
	if r == nil || size <= 0 {
		return nil, domain.ErrMissingFile
	}

	// The reader panics on some malformed files.
	defer func() {
		if rec := recover(); rec != nil {
			pages = nil
			err = fmt.Errorf("%w: malformed PDF: %v", domain.ErrInvalidInput, rec)
		}
	}()

	reader, err := pdfreader.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("%w: open PDF: %w", domain.ErrInvalidInput, err)
	}

	total := reader.NumPage()
	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			logger.Debug("Skipping page %d: %v", i, err)
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		pages = append(pages, domain.Page{Number: i, Text: text})
	}
	if len(pages) > 0 {
		return pages, nil
	}

	return wholeDocument(reader)
}

func wholeDocument(reader *pdfreader.Reader) ([]domain.Page, error) {
	plain, err := reader.GetPlainText()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrNoContentExtracted, err)
	}
	var b strings.Builder
	if _, err := io.Copy(&b, plain); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrNoContentExtracted, err)
	}
	if strings.TrimSpace(b.String()) == "" {
		return nil, nil
	}
	return []domain.Page{{Text: b.String()}}, nil
}

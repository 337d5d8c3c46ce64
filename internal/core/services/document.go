package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/opsmind/internal/core/domain"
	"github.com/custodia-labs/opsmind/internal/core/ports/driven"
	"github.com/custodia-labs/opsmind/internal/core/ports/driving"
	"github.com/custodia-labs/opsmind/internal/logger"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// DocumentService lists and deletes indexed documents.
type DocumentService struct {
	index driven.ChunkIndex
}

// NewDocumentService creates a new document service.
func NewDocumentService(index driven.ChunkIndex) *DocumentService {
	return &DocumentService{index: index}
}

// List returns summaries of the documents visible to the caller's role.
func (s *DocumentService) List(ctx context.Context, caps domain.Capabilities) ([]domain.DocumentSummary, error) {
	if err := caps.Require(domain.PermAsk); err != nil {
		return nil, err
	}
	docs, err := s.index.ListDocuments(ctx, caps.Role)
	if err != nil {
		return nil, indexError("list documents", err)
	}
	return docs, nil
}

// Delete removes every chunk of a document. It is idempotent.
func (s *DocumentService) Delete(ctx context.Context, caps domain.Capabilities, documentName string) (int, error) {
	if err := caps.Require(domain.PermManage); err != nil {
		return 0, err
	}
	documentName = strings.TrimSpace(documentName)
	if documentName == "" {
		return 0, fmt.Errorf("%w: document name is required", domain.ErrInvalidInput)
	}

	n, err := s.index.DeleteDocument(ctx, documentName)
	if err != nil {
		return 0, indexError("delete document", err)
	}
	logger.Info("Deleted %d chunks of %q", n, documentName)
	return n, nil
}

package services

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/opsmind/internal/core/domain"
	"github.com/custodia-labs/opsmind/internal/core/ports/driven"
	"github.com/custodia-labs/opsmind/internal/core/ports/driving"
	"github.com/custodia-labs/opsmind/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// maxEmbedAttempts bounds retries of one chunk after the provider throttled us.
const maxEmbedAttempts = 3

// IngestService turns uploads into indexed chunks.
//
// Policy on provider failure: the whole upload is aborted. Embedding completes
// before the index is touched, so a failed re-upload leaves the previous
// version of the document searchable.
type IngestService struct {
	extractor   driven.PageExtractor
	chunker     driven.Chunker
	embedder    *embedder
	index       driven.ChunkIndex
	limiter     driven.RateLimiter
	concurrency int
	maxBytes    int64
	now         func() time.Time
}

// NewIngestService creates a new ingestion service.
func NewIngestService(
	extractor driven.PageExtractor,
	chunker driven.Chunker,
	embeddingService driven.EmbeddingService,
	index driven.ChunkIndex,
	limiter driven.RateLimiter,
	settings domain.AppSettings,
) *IngestService {
	concurrency := settings.Ingest.EmbedConcurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	return &IngestService{
		extractor:   extractor,
		chunker:     chunker,
		embedder:    newEmbedder(embeddingService, settings.VectorIndex.Dimensions),
		index:       index,
		limiter:     limiter,
		concurrency: concurrency,
		maxBytes:    settings.Ingest.MaxUploadBytes,
		now:         time.Now,
	}
}

// Ingest replaces every chunk of req.DocumentName with freshly embedded chunks.
func (s *IngestService) Ingest(
	ctx context.Context, caps domain.Capabilities, req driving.IngestRequest,
) (*domain.IngestReport, error) {
	logger.Section("Ingest")

	if err := caps.Require(domain.PermUpload); err != nil {
		return nil, err
	}
	if err := s.validate(&req); err != nil {
		return nil, err
	}
	logger.Debug("Document: %q (%d bytes, role tag %q)", req.DocumentName, req.Size, req.TargetRole)

	pages, err := s.extractor.Extract(ctx, req.Body, req.Size)
	if err != nil {
		return nil, err
	}
	if !hasText(pages) {
		return nil, domain.ErrNoContentExtracted
	}
	logger.Debug("Extracted %d pages", len(pages))

	chunks, err := s.chunker.Process(ctx, req.DocumentName, pages)
	if err != nil {
		return nil, fmt.Errorf("chunk document: %w", err)
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: no page holds enough text to index", domain.ErrNoContentExtracted)
	}
	logger.Debug("Produced %d chunks", len(chunks))

	if err := s.embedAll(ctx, chunks); err != nil {
		return nil, err
	}

	roles := domain.AllowedRolesFor(req.TargetRole)
	uploadedAt := s.now().UTC()
	for i := range chunks {
		chunks[i].EmbeddingModel = s.embedder.modelName()
		chunks[i].AllowedRoles = roles
		chunks[i].UploadedAt = uploadedAt
	}

	removed, err := s.index.ReplaceDocument(ctx, req.DocumentName, chunks)
	if err != nil {
		return nil, indexError("replace document", err)
	}
	logger.Info("Indexed %q: %d chunks (replaced %d)", req.DocumentName, len(chunks), removed)

	return &domain.IngestReport{
		DocumentName: req.DocumentName,
		Chunks:       len(chunks),
		Pages:        len(pages),
		Replaced:     removed,
		Dimensions:   s.embedder.dimensions,
		Model:        s.embedder.modelName(),
	}, nil
}

func (s *IngestService) validate(req *driving.IngestRequest) error {
	req.DocumentName = strings.TrimSpace(req.DocumentName)
	if req.Body == nil || req.Size <= 0 {
		return domain.ErrMissingFile
	}
	if req.DocumentName == "" {
		return fmt.Errorf("%w: document name is required", domain.ErrInvalidInput)
	}
	if s.maxBytes > 0 && req.Size > s.maxBytes {
		return fmt.Errorf("%w: %d bytes exceeds %d", domain.ErrFileTooLarge, req.Size, s.maxBytes)
	}
	mediaType, _, err := mime.ParseMediaType(req.ContentType)
	if err != nil || mediaType != s.extractor.ContentType() {
		return fmt.Errorf("%w: got %q", domain.ErrUnsupportedContentType, req.ContentType)
	}
	return nil
}

// embedAll embeds every chunk through the rate limiter with bounded concurrency.
// The first failure cancels the remaining calls.
func (s *IngestService) embedAll(ctx context.Context, chunks []domain.DocumentChunk) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i := range chunks {
		g.Go(func() error {
			vec, err := s.embedChunk(ctx, chunks[i].Text)
			if err != nil {
				return fmt.Errorf("embed chunk %d of %q: %w", chunks[i].Position, chunks[i].DocumentName, err)
			}
			chunks[i].Embedding = vec
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		logger.Warn("Ingest aborted: %v", err)
		return err
	}
	return nil
}

func (s *IngestService) embedChunk(ctx context.Context, text string) ([]float32, error) {
	var lastErr error
	for attempt := 0; attempt < maxEmbedAttempts; attempt++ {
		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}
		vec, err := s.embedder.embed(ctx, text)
		if err == nil {
			return vec, nil
		}
		if !errors.Is(err, domain.ErrRateLimited) || s.limiter == nil {
			return nil, err
		}
		s.limiter.RecordRateLimitError(0)
		lastErr = err
	}
	return nil, lastErr
}

func hasText(pages []domain.Page) bool {
	for _, p := range pages {
		if strings.TrimSpace(p.Text) != "" {
			return true
		}
	}
	return false
}

// indexError wraps a storage failure with domain.ErrIndex unless it already
// carries a domain error.
func indexError(op string, err error) error {
	if domain.KindOf(err) != domain.KindInternal {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrIndex, err)
}

// Package chunker splits extracted page text into overlapping, section-tagged chunks.
package chunker

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/custodia-labs/opsmind/internal/core/domain"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 100

// DefaultMinContent is the trimmed length a window must exceed to be kept.
const DefaultMinContent = 50

// Processor splits pages into fixed-size overlapping windows.
// Sizes are counted in runes so multi-byte text is never split mid-character.
type Processor struct {
	chunkSize  int
	overlap    int
	minContent int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// WithMinContent sets the minimum trimmed length of a kept window.
func WithMinContent(n int) Option {
	return func(p *Processor) {
		if n >= 0 {
			p.minContent = n
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize:  DefaultChunkSize,
		overlap:    DefaultChunkOverlap,
		minContent: DefaultMinContent,
	}

	for _, opt := range opts {
		opt(p)
	}

	// Ensure overlap doesn't exceed chunk size
	if p.overlap >= p.chunkSize {
		p.overlap = p.chunkSize / 4
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// ChunkSize returns the window size S.
func (p *Processor) ChunkSize() int {
	return p.chunkSize
}

// Overlap returns the window overlap V.
func (p *Processor) Overlap() int {
	return p.overlap
}

// Process splits pages into chunks in page order.
// The current section carries over from one page to the next. A page made only
// of headings yields no chunk but still updates the section.
func (p *Processor) Process(ctx context.Context, documentName string, pages []domain.Page) ([]domain.DocumentChunk, error) {
	var chunks []domain.DocumentChunk
	section := ""

	for _, page := range pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		layout := scanPage(page.Text)
		if !layout.hasBody() {
			section = layout.lastHeading(section)
			continue
		}

		text := layout.text
		n := len(text)
		step := p.chunkSize - p.overlap

		for start := 0; start < n; start += step {
			end := start + p.chunkSize
			if end > n {
				end = n
			}

			window := string(text[start:end])
			if len([]rune(strings.TrimSpace(window))) > p.minContent {
				chunks = append(chunks, domain.DocumentChunk{
					ID:           uuid.New().String(),
					DocumentName: documentName,
					PageRef:      page.Ref(),
					Section:      layout.sectionAt(start, end, section),
					Position:     len(chunks),
					Text:         window,
				})
			}

			if end == n {
				break
			}
		}

		section = layout.lastHeading(section)
	}

	return chunks, nil
}

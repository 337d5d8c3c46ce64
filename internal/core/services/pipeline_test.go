package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/opsmind/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/opsmind/internal/core/domain"
	"github.com/custodia-labs/opsmind/internal/core/ports/driving"
	"github.com/custodia-labs/opsmind/internal/postprocessors/chunker"
)

// pipeline wires every service over in-memory storage and mocks.
type pipeline struct {
	settings  domain.AppSettings
	index     *memory.ChunkIndex
	logs      *memory.QueryLogStore
	embedding *mockEmbeddingService
	llm       *mockLLMService
	extractor *mockExtractor
	limiter   *mockLimiter
	ingest    *IngestService
	ask       *AskService
	analytics *AnalyticsService
	documents *DocumentService
}

func newPipeline(t *testing.T) *pipeline {
	t.Helper()
	p := &pipeline{
		settings:  testSettings(),
		index:     memory.NewChunkIndex(domain.VectorPrecisionFloat32),
		logs:      memory.NewQueryLogStore(),
		embedding: newMockEmbedding(),
		llm:       &mockLLMService{},
		extractor: &mockExtractor{pages: threePageManual()},
		limiter:   &mockLimiter{},
	}
	p.rebuild()
	return p
}

// rebuild recreates the services after settings changed.
func (p *pipeline) rebuild() {
	chunks := chunker.New(
		chunker.WithChunkSize(p.settings.Ingest.ChunkSize),
		chunker.WithOverlap(p.settings.Ingest.ChunkOverlap),
		chunker.WithMinContent(p.settings.Ingest.MinContent),
	)
	p.ingest = NewIngestService(p.extractor, chunks, p.embedding, p.index, p.limiter, p.settings)
	p.analytics = NewAnalyticsService(p.logs, p.settings)
	p.documents = NewDocumentService(p.index)
	p.ask = NewAskService(NewRetriever(p.embedding, p.index, p.settings), p.llm, nil, p.analytics, p.settings)
}

func (p *pipeline) upload(t *testing.T, name, role string) *domain.IngestReport {
	t.Helper()
	body, size := pdf()
	report, err := p.ingest.Ingest(context.Background(), admin, driving.IngestRequest{
		DocumentName: name,
		ContentType:  "application/pdf",
		Body:         body,
		Size:         size,
		TargetRole:   role,
	})
	require.NoError(t, err)
	return report
}

// answer drains a stream and returns the concatenated text, the terminal
// events seen and the total number of events.
type answer struct {
	text      string
	texts     []string
	terminals []domain.AnswerEvent
}

func (a answer) terminal() domain.AnswerEvent {
	if len(a.terminals) == 0 {
		return domain.AnswerEvent{}
	}
	return a.terminals[0]
}

func drain(events <-chan domain.AnswerEvent) answer {
	var a answer
	for ev := range events {
		switch ev.Type {
		case domain.EventText:
			a.texts = append(a.texts, ev.Text)
			a.text += ev.Text
		default:
			a.terminals = append(a.terminals, ev)
		}
	}
	return a
}

func (p *pipeline) askAs(t *testing.T, caps domain.Capabilities, question string) answer {
	t.Helper()
	events, err := p.ask.Ask(context.Background(), domain.AskRequest{Question: question, Capabilities: caps})
	require.NoError(t, err)
	return drain(events)
}

package services

import (
	"context"
	"io"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/custodia-labs/opsmind/internal/core/domain"
	"github.com/custodia-labs/opsmind/internal/core/ports/driven"
)

// --- Mock implementations ---

// testVocabulary defines the axes of mockEmbeddingService vectors.
var testVocabulary = []string{"forklift", "chemical", "spill", "fire", "drill", "evacuation", "gloves", "battery"}

// mockEmbeddingService embeds text as word counts over testVocabulary.
type mockEmbeddingService struct {
	calls      atomic.Int32
	failOn     string
	err        error
	dimensions int
}

func newMockEmbedding() *mockEmbeddingService {
	return &mockEmbeddingService{dimensions: len(testVocabulary)}
}

func (m *mockEmbeddingService) Embed(_ context.Context, text string) ([]float32, error) {
	m.calls.Add(1)
	if m.err != nil && (m.failOn == "" || strings.Contains(text, m.failOn)) {
		return nil, m.err
	}
	vec := make([]float32, m.dimensions)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.Trim(word, ".,;:?!")
		for i, v := range testVocabulary {
			if word == v && i < len(vec) {
				vec[i]++
			}
		}
	}
	return vec, nil
}

func (m *mockEmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := m.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (m *mockEmbeddingService) Dimensions() int           { return m.dimensions }
func (m *mockEmbeddingService) ModelName() string         { return "mock-embed" }
func (m *mockEmbeddingService) Ping(context.Context) error { return nil }
func (m *mockEmbeddingService) Close() error              { return nil }

// mockLLMService streams a scripted reply. By default it refuses when the
// context is the no-results sentinel and otherwise answers with a citation
// marker split across increments.
type mockLLMService struct {
	mu       sync.Mutex
	messages [][]driven.ChatMessage
	deltas   []string
	failAt   int
	err      error
	block    bool
}

func (m *mockLLMService) Chat(ctx context.Context, msgs []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	var b strings.Builder
	err := m.ChatStream(ctx, msgs, opts, func(s string) error {
		b.WriteString(s)
		return nil
	})
	return b.String(), err
}

func (m *mockLLMService) ChatStream(
	ctx context.Context, msgs []driven.ChatMessage, _ driven.ChatOptions, onDelta func(string) error,
) error {
	m.mu.Lock()
	m.messages = append(m.messages, msgs)
	m.mu.Unlock()

	deltas := m.deltas
	if deltas == nil {
		if strings.Contains(msgs[len(msgs)-1].Content, domain.NoResultsContext) {
			deltas = []string{domain.RefusalPhrase}
		} else {
			deltas = []string{"Follow the ", "documented procedure.", "\n[SOURCE", "_FOUND]"}
		}
	}

	for i, d := range deltas {
		if m.err != nil && i == m.failAt {
			return m.err
		}
		if err := onDelta(d); err != nil {
			return err
		}
	}
	if m.block {
		<-ctx.Done()
		return ctx.Err()
	}
	if m.err != nil && m.failAt >= len(deltas) {
		return m.err
	}
	return nil
}

func (m *mockLLMService) lastMessages() []driven.ChatMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.messages) == 0 {
		return nil
	}
	return m.messages[len(m.messages)-1]
}

func (m *mockLLMService) ModelName() string         { return "mock-llm" }
func (m *mockLLMService) Ping(context.Context) error { return nil }
func (m *mockLLMService) Close() error              { return nil }

// mockExtractor returns fixed pages.
type mockExtractor struct {
	pages []domain.Page
	err   error
}

func (m *mockExtractor) Extract(_ context.Context, _ io.ReaderAt, _ int64) ([]domain.Page, error) {
	return m.pages, m.err
}

func (m *mockExtractor) ContentType() string { return "application/pdf" }

// mockLimiter counts permits and throttle reports.
type mockLimiter struct {
	waits     atomic.Int32
	throttled atomic.Int32
}

func (m *mockLimiter) Wait(ctx context.Context) error {
	m.waits.Add(1)
	return ctx.Err()
}

func (m *mockLimiter) RecordRateLimitError(int) {
	m.throttled.Add(1)
}

// failingIndex wraps a ChunkIndex and fails selected operations.
type failingIndex struct {
	driven.ChunkIndex
	searchErr  error
	replaceErr error
}

func (f *failingIndex) Search(ctx context.Context, q domain.VectorQuery) ([]domain.ScoredChunk, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.ChunkIndex.Search(ctx, q)
}

func (f *failingIndex) ReplaceDocument(ctx context.Context, name string, chunks []domain.DocumentChunk) (int, error) {
	if f.replaceErr != nil {
		return 0, f.replaceErr
	}
	return f.ChunkIndex.ReplaceDocument(ctx, name, chunks)
}

// --- Fixtures ---

var (
	admin    = domain.EvaluateCapabilities(domain.Principal{UserID: "a1", DisplayName: "Ada", Role: domain.RoleAdmin})
	employee = domain.EvaluateCapabilities(domain.Principal{UserID: "e1", DisplayName: "Eve", Role: domain.RoleEmployee})
)

func testSettings() domain.AppSettings {
	s := domain.DefaultAppSettings()
	s.VectorIndex.Dimensions = len(testVocabulary)
	s.VectorIndex.Precision = domain.VectorPrecisionFloat32
	s.Ingest.ChunkSize = 200
	s.Ingest.ChunkOverlap = 20
	s.Ingest.MinContent = 10
	return s
}

// pdf is a stand-in upload body.
func pdf() (io.ReaderAt, int64) {
	const body = "%PDF-1.4 stand-in"
	return strings.NewReader(body), int64(len(body))
}

// threePageManual has one distinguishable topic per page.
func threePageManual() []domain.Page {
	return []domain.Page{
		{Number: 1, Text: "Operate the forklift only after the forklift battery check is signed off by a supervisor."},
		{Number: 2, Text: "After a chemical spill, contain the chemical spill with absorbent pads and wear gloves."},
		{Number: 3, Text: "During a fire drill, follow the evacuation route and gather at the assembly point."},
	}
}

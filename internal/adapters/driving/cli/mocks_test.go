package cli

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/custodia-labs/opsmind/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/opsmind/internal/adapters/driving/httpapi"
	"github.com/custodia-labs/opsmind/internal/core/domain"
	"github.com/custodia-labs/opsmind/internal/core/ports/driving"
	"github.com/custodia-labs/opsmind/internal/core/services"
)

type mockIngestService struct {
	mu       sync.Mutex
	requests []driving.IngestRequest
	bodies   [][]byte
	caps     domain.Capabilities
	err      error
}

func (m *mockIngestService) Ingest(
	_ context.Context, caps domain.Capabilities, req driving.IngestRequest,
) (*domain.IngestReport, error) {
	if err := caps.Require(domain.PermUpload); err != nil {
		return nil, err
	}
	if m.err != nil {
		return nil, m.err
	}
	body, err := io.ReadAll(io.NewSectionReader(req.Body, 0, req.Size))
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)
	m.bodies = append(m.bodies, body)
	m.caps = caps
	return &domain.IngestReport{
		DocumentName: req.DocumentName,
		Chunks:       3,
		Pages:        2,
		Replaced:     1,
		Dimensions:   4,
		Model:        "test-embed",
	}, nil
}

type mockAskService struct {
	events []domain.AnswerEvent
	err    error
	last   domain.AskRequest
}

func (m *mockAskService) Ask(_ context.Context, req domain.AskRequest) (<-chan domain.AnswerEvent, error) {
	if err := req.Capabilities.Require(domain.PermAsk); err != nil {
		return nil, err
	}
	m.last = req
	if m.err != nil {
		return nil, m.err
	}
	ch := make(chan domain.AnswerEvent, len(m.events))
	for _, ev := range m.events {
		ch <- ev
	}
	close(ch)
	return ch, nil
}

type mockDocumentService struct {
	docs    []domain.DocumentSummary
	deleted map[string]int
	lastCap domain.Capabilities
}

func (m *mockDocumentService) List(_ context.Context, caps domain.Capabilities) ([]domain.DocumentSummary, error) {
	m.lastCap = caps
	var out []domain.DocumentSummary
	for _, d := range m.docs {
		for _, r := range d.AllowedRoles {
			if r == caps.Role {
				out = append(out, d)
				break
			}
		}
	}
	return out, nil
}

func (m *mockDocumentService) Delete(_ context.Context, caps domain.Capabilities, name string) (int, error) {
	if err := caps.Require(domain.PermManage); err != nil {
		return 0, err
	}
	return m.deleted[name], nil
}

type mockAnalyticsService struct {
	logs   []domain.QueryLog
	report domain.AccuracyReport
	limit  int
}

func (m *mockAnalyticsService) Record(context.Context, domain.QueryLog) {}

func (m *mockAnalyticsService) RecentLogs(_ context.Context, caps domain.Capabilities, limit int) ([]domain.QueryLog, error) {
	if err := caps.Require(domain.PermAnalytics); err != nil {
		return nil, err
	}
	m.limit = limit
	return m.logs, nil
}

func (m *mockAnalyticsService) Accuracy(_ context.Context, caps domain.Capabilities) (*domain.AccuracyReport, error) {
	if err := caps.Require(domain.PermAnalytics); err != nil {
		return nil, err
	}
	r := m.report
	return &r, nil
}

// testServices holds the mocks installed by setupTestServices.
type testServices struct {
	ingest    *mockIngestService
	ask       *mockAskService
	document  *mockDocumentService
	analytics *mockAnalyticsService
	config    *memory.ConfigStore
}

var uploadedAt = time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

// setupTestServices installs mocks and a settings service over an in-memory
// config store. The returned cleanup restores nil services and default flags.
func setupTestServices() (*testServices, func()) {
	ts := &testServices{
		ingest: &mockIngestService{},
		ask: &mockAskService{events: []domain.AnswerEvent{
			{Type: domain.EventText, Text: "Restart the "},
			{Type: domain.EventText, Text: "pump."},
			{Type: domain.EventDone, Complete: true, Citation: &domain.CitationMetadata{
				SourceName: "runbook.pdf",
				Page:       "3",
				Snippet:    "Restart the pump after draining.",
				Confidence: 91.25,
				Citations: []domain.Citation{
					{DocumentName: "runbook.pdf", Page: "3", Score: 0.9125},
					{DocumentName: "safety.pdf", Page: "1", Score: 0.5},
				},
			}},
		}},
		document: &mockDocumentService{
			docs: []domain.DocumentSummary{
				{Name: "runbook.pdf", Chunks: 12, Pages: 4, AllowedRoles: []domain.Role{domain.RoleEmployee, domain.RoleAdmin}, UploadedAt: uploadedAt},
				{Name: "salaries.pdf", Chunks: 2, Pages: 1, AllowedRoles: []domain.Role{domain.RoleAdmin}, UploadedAt: uploadedAt},
			},
			deleted: map[string]int{"runbook.pdf": 12},
		},
		analytics: &mockAnalyticsService{
			logs: []domain.QueryLog{
				{ID: 2, Question: "How do I restart the pump?", Requester: "alice", HasSource: true, Confidence: 91.25, CitedDocument: "runbook.pdf", CreatedAt: uploadedAt},
				{ID: 1, Question: "What is the wifi password?", Requester: "bob", CreatedAt: uploadedAt},
			},
			report: domain.AccuracyReport{Window: 100, Total: 2, WithSource: 1, Accuracy: 50},
		},
		config: memory.NewConfigStore(),
	}

	SetServices(Services{
		Ingest:    ts.ingest,
		Ask:       ts.ask,
		Document:  ts.document,
		Analytics: ts.analytics,
		Settings:  services.NewSettingsService(ts.config),
		Health: func(context.Context) httpapi.Health {
			return httpapi.Health{Status: "ok", Chunks: 14}
		},
		CheckProviders: func(context.Context, domain.AppSettings) []string { return nil },
	})

	return ts, func() {
		SetServices(Services{})
		resetFlags()
	}
}

// resetFlags restores package-level flag variables between command runs.
func resetFlags() {
	verbose = false
	userFlag = ""
	roleFlag = string(domain.RoleAdmin)
	documentFormat = formatTable
	analyticsFormat = formatTable
	analyticsLimit = 0
	askJSON = false
	ingestTargetRole = ""
	ingestName = ""
	providerFlag = ""
	modelFlag = ""
	apiKeyFlag = ""
	serveAddr = ""
	serveNoWatch = false
	serveNoAnonymous = false
}

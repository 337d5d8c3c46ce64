package httpapi

import (
	"context"
	"io"

	"github.com/custodia-labs/opsmind/internal/core/domain"
	"github.com/custodia-labs/opsmind/internal/core/ports/driving"
)

type mockIngestService struct {
	report *domain.IngestReport
	err    error
	got    driving.IngestRequest
	body   []byte
}

func (m *mockIngestService) Ingest(
	_ context.Context, caps domain.Capabilities, req driving.IngestRequest,
) (*domain.IngestReport, error) {
	if err := caps.Require(domain.PermUpload); err != nil {
		return nil, err
	}
	m.got = req
	m.body, _ = io.ReadAll(io.NewSectionReader(req.Body, 0, req.Size))
	return m.report, m.err
}

type mockAskService struct {
	events []domain.AnswerEvent
	err    error
	got    domain.AskRequest
}

func (m *mockAskService) Ask(_ context.Context, req domain.AskRequest) (<-chan domain.AnswerEvent, error) {
	m.got = req
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
	deleted int
	name    string
	err     error
}

func (m *mockDocumentService) List(_ context.Context, _ domain.Capabilities) ([]domain.DocumentSummary, error) {
	return m.docs, m.err
}

func (m *mockDocumentService) Delete(_ context.Context, caps domain.Capabilities, name string) (int, error) {
	if err := caps.Require(domain.PermManage); err != nil {
		return 0, err
	}
	m.name = name
	return m.deleted, m.err
}

type mockAnalyticsService struct {
	logs   []domain.QueryLog
	report *domain.AccuracyReport
	limit  int
	err    error
}

func (m *mockAnalyticsService) Record(_ context.Context, _ domain.QueryLog) {}

func (m *mockAnalyticsService) RecentLogs(_ context.Context, caps domain.Capabilities, limit int) ([]domain.QueryLog, error) {
	if err := caps.Require(domain.PermAnalytics); err != nil {
		return nil, err
	}
	m.limit = limit
	return m.logs, m.err
}

func (m *mockAnalyticsService) Accuracy(_ context.Context, caps domain.Capabilities) (*domain.AccuracyReport, error) {
	if err := caps.Require(domain.PermAnalytics); err != nil {
		return nil, err
	}
	return m.report, m.err
}

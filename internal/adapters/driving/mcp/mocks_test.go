package mcp

import (
	"context"

	"github.com/custodia-labs/opsmind/internal/core/domain"
)

// mockAskService replays a fixed event sequence.
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

// mockDocumentService is a mock implementation of driving.DocumentService.
type mockDocumentService struct {
	docs []domain.DocumentSummary
	err  error
	caps domain.Capabilities
}

func (m *mockDocumentService) List(_ context.Context, caps domain.Capabilities) ([]domain.DocumentSummary, error) {
	m.caps = caps
	return m.docs, m.err
}

func (m *mockDocumentService) Delete(_ context.Context, _ domain.Capabilities, _ string) (int, error) {
	return 0, m.err
}

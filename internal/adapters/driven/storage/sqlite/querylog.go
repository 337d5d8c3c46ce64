package sqlite

import (
	"context"
	"fmt"

	"github.com/custodia-labs/opsmind/internal/core/domain"
	"github.com/custodia-labs/opsmind/internal/core/ports/driven"
)

// queryLogStore implements driven.QueryLogStore.
type queryLogStore struct {
	store *Store
}

var _ driven.QueryLogStore = (*queryLogStore)(nil)

// AppendQueryLog inserts log and assigns its ID.
func (s *queryLogStore) AppendQueryLog(ctx context.Context, log *domain.QueryLog) error {
	res, err := s.store.db.NamedExecContext(ctx, `
		INSERT INTO query_logs (question, requester, has_source, confidence, cited_document, created_at)
		VALUES (:question, :requester, :has_source, :confidence, :cited_document, :created_at)
	`, log)
	if err != nil {
		return fmt.Errorf("saving query log: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading query log id: %w", err)
	}
	log.ID = id
	return nil
}

// RecentQueryLogs returns up to limit logs, newest first.
func (s *queryLogStore) RecentQueryLogs(ctx context.Context, limit int) ([]domain.QueryLog, error) {
	if limit <= 0 {
		return nil, nil
	}
	var logs []domain.QueryLog
	err := s.store.db.SelectContext(ctx, &logs, `
		SELECT id, question, requester, has_source, confidence, cited_document, created_at
		FROM query_logs
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying query logs: %w", err)
	}
	return logs, nil
}

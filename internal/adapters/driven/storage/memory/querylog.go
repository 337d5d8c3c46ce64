package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/opsmind/internal/core/domain"
	"github.com/custodia-labs/opsmind/internal/core/ports/driven"
)

// Ensure QueryLogStore implements the interface.
var _ driven.QueryLogStore = (*QueryLogStore)(nil)

// QueryLogStore is an append-only in-memory driven.QueryLogStore.
type QueryLogStore struct {
	mu   sync.RWMutex
	logs []domain.QueryLog
	err  error
}

// NewQueryLogStore creates an empty log store.
func NewQueryLogStore() *QueryLogStore {
	return &QueryLogStore{}
}

// FailWith makes every subsequent append and read return err. Used to exercise
// callers that must tolerate logging failures.
func (s *QueryLogStore) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// AppendQueryLog stores a copy of log and assigns its ID.
func (s *QueryLogStore) AppendQueryLog(_ context.Context, log *domain.QueryLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	log.ID = int64(len(s.logs) + 1)
	s.logs = append(s.logs, *log)
	return nil
}

// RecentQueryLogs returns up to limit logs, newest first.
func (s *QueryLogStore) RecentQueryLogs(_ context.Context, limit int) ([]domain.QueryLog, error) {
	if limit <= 0 {
		return nil, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.err != nil {
		return nil, s.err
	}
	out := make([]domain.QueryLog, 0, min(limit, len(s.logs)))
	for i := len(s.logs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.logs[i])
	}
	return out, nil
}

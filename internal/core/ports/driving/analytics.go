package driving

import (
	"context"

	"github.com/custodia-labs/opsmind/internal/core/domain"
)

// AnalyticsService exposes query audit logs and aggregate accuracy.
type AnalyticsService interface {
	// Record appends a query log. Failures are logged and swallowed.
	Record(ctx context.Context, log domain.QueryLog)

	// RecentLogs returns up to limit logs, newest first. A non-positive limit
	// uses the configured default.
	RecentLogs(ctx context.Context, caps domain.Capabilities, limit int) ([]domain.QueryLog, error)

	// Accuracy computes the sourced-answer share over the most recent window.
	Accuracy(ctx context.Context, caps domain.Capabilities) (*domain.AccuracyReport, error)
}

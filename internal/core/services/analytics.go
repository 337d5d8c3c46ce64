package services

import (
	"context"
	"math"
	"time"

	"github.com/custodia-labs/opsmind/internal/core/domain"
	"github.com/custodia-labs/opsmind/internal/core/ports/driven"
	"github.com/custodia-labs/opsmind/internal/core/ports/driving"
	"github.com/custodia-labs/opsmind/internal/logger"
)

// Ensure AnalyticsService implements the interface.
var _ driving.AnalyticsService = (*AnalyticsService)(nil)

// AnalyticsService records answered questions and reports accuracy.
type AnalyticsService struct {
	store    driven.QueryLogStore
	window   int
	logLimit int
	now      func() time.Time
}

// NewAnalyticsService creates a new analytics service.
func NewAnalyticsService(store driven.QueryLogStore, settings domain.AppSettings) *AnalyticsService {
	return &AnalyticsService{
		store:    store,
		window:   settings.Analytics.AccuracyWindow,
		logLimit: settings.Analytics.LogLimit,
		now:      time.Now,
	}
}

// Record appends a query log. A failed write is logged and never returned.
func (s *AnalyticsService) Record(ctx context.Context, entry domain.QueryLog) {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.now().UTC()
	}
	if err := s.store.AppendQueryLog(ctx, &entry); err != nil {
		logger.Warn("Failed to record query log: %v", err)
	}
}

// RecentLogs returns up to limit logs, newest first.
func (s *AnalyticsService) RecentLogs(
	ctx context.Context, caps domain.Capabilities, limit int,
) ([]domain.QueryLog, error) {
	if err := caps.Require(domain.PermAnalytics); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = s.logLimit
	}
	logs, err := s.store.RecentQueryLogs(ctx, limit)
	if err != nil {
		return nil, indexError("read query logs", err)
	}
	return logs, nil
}

// Accuracy is computed from the stored logs on every call.
func (s *AnalyticsService) Accuracy(ctx context.Context, caps domain.Capabilities) (*domain.AccuracyReport, error) {
	if err := caps.Require(domain.PermAnalytics); err != nil {
		return nil, err
	}
	logs, err := s.store.RecentQueryLogs(ctx, s.window)
	if err != nil {
		return nil, indexError("read query logs", err)
	}
	report := ComputeAccuracy(logs, s.window)
	return &report, nil
}

// ComputeAccuracy returns the share of sourced answers among the first window
// logs. With no logs the accuracy is 100.
func ComputeAccuracy(logs []domain.QueryLog, window int) domain.AccuracyReport {
	if window > 0 && len(logs) > window {
		logs = logs[:window]
	}
	report := domain.AccuracyReport{Window: window, Total: len(logs), Accuracy: 100}
	for _, l := range logs {
		if l.HasSource {
			report.WithSource++
		}
	}
	if report.Total > 0 {
		report.Accuracy = math.Round(float64(report.WithSource)/float64(report.Total)*100*100) / 100
	}
	return report
}

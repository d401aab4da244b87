package dashboard

import (
	"context"
	"fmt"
	"time"
)

// Alert thresholds. A pending RFQ older than a week or a supplier
// answering less than 30% of at least 5 solicitations deserves
// attention.
const (
	staleRFQAfter       = 7 * 24 * time.Hour
	staleRFQAlertLimit  = 5
	lowResponseMinRFQs  = 5
	lowResponseMaxRate  = 30.0
	lowResponseAlertLim = 3
)

// defaultFeedLimit caps list endpoints when the caller gives none.
const defaultFeedLimit = 10

// Service assembles dashboard payloads from read queries.
type Service struct {
	repo Repository
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Stats returns the headline counters.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	return s.repo.Stats(ctx)
}

// DetailedStats returns the extended counter block.
func (s *Service) DetailedStats(ctx context.Context) (*DetailedStats, error) {
	return s.repo.DetailedStats(ctx)
}

// RFQStatusBreakdown returns per-status RFQ counts.
func (s *Service) RFQStatusBreakdown(ctx context.Context) ([]StatusCount, error) {
	return s.repo.RFQStatusBreakdown(ctx)
}

// RecentActivity returns the merged activity feed.
func (s *Service) RecentActivity(ctx context.Context, limit int) ([]Activity, error) {
	feed, err := s.repo.RecentActivity(ctx, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	for i := range feed {
		switch feed[i].Type {
		case ActivityRFQSent:
			feed[i].Description = fmt.Sprintf("RFQ %s sent to %s", feed[i].RFQNumber, feed[i].SupplierName)
		case ActivityResponseReceived:
			feed[i].Description = fmt.Sprintf("Response received for RFQ %s from %s", feed[i].RFQNumber, feed[i].SupplierName)
		}
	}
	return feed, nil
}

// TopSuppliers returns the best-responding suppliers.
func (s *Service) TopSuppliers(ctx context.Context, limit int) ([]TopSupplier, error) {
	if limit <= 0 {
		limit = 5
	}
	return s.repo.TopSuppliers(ctx, limit)
}

// Alerts combines stale pending RFQs and poorly responding suppliers
// into one list, stale RFQs first.
func (s *Service) Alerts(ctx context.Context, limit int) ([]Alert, error) {
	limit = clampLimit(limit)

	stale, err := s.repo.StalePendingRFQs(ctx, time.Now().Add(-staleRFQAfter), staleRFQAlertLimit)
	if err != nil {
		return nil, err
	}
	lowResponse, err := s.repo.LowResponseSuppliers(ctx, lowResponseMinRFQs, lowResponseMaxRate, lowResponseAlertLim)
	if err != nil {
		return nil, err
	}

	alerts := make([]Alert, 0, len(stale)+len(lowResponse))
	for _, q := range stale {
		alerts = append(alerts, Alert{
			ID:    q.RFQID,
			Type:  AlertWarning,
			Title: "RFQ awaiting response",
			Message: fmt.Sprintf("RFQ %s sent to %s %d days ago without a response",
				q.Number, q.SupplierName, q.DaysPending),
			Date: q.SentAt,
			Link: fmt.Sprintf("/rfqs/%d", q.RFQID),
		})
	}
	for _, sup := range lowResponse {
		alerts = append(alerts, Alert{
			ID:    sup.SupplierID,
			Type:  AlertInfo,
			Title: "Low response rate",
			Message: fmt.Sprintf("Supplier %s answers %.0f%% of solicitations",
				sup.Name, sup.ResponseRatePct),
			Date: sup.UpdatedAt,
			Link: fmt.Sprintf("/suppliers/%d", sup.SupplierID),
		})
	}
	if len(alerts) > limit {
		alerts = alerts[:limit]
	}
	return alerts, nil
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > 100 {
		return defaultFeedLimit
	}
	return limit
}

package requests

import (
	"context"
	"math"
	"time"

	"github.com/procurex/procurex/internal/shared"
)

// Service holds purchase-request read logic.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// List returns requests visible to the principal.
func (s *Service) List(ctx context.Context, principal *shared.Principal, filter ListFilter) ([]PurchaseRequest, shared.Pagination, error) {
	filter.Categories = principal.CategoryScope()
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return items, shared.NewPagination(filter.Page, filter.PerPage, total), nil
}

// GetByNumber returns one request by its human-readable number.
func (s *Service) GetByNumber(ctx context.Context, number string) (*PurchaseRequest, error) {
	return s.repo.GetByNumber(ctx, number)
}

// AwaitingDecision returns the decision backlog: requests with answered
// quotes and no order yet, with response-rate and amount statistics.
func (s *Service) AwaitingDecision(ctx context.Context, principal *shared.Principal, filter ListFilter) (*AwaitingSummary, shared.Pagination, error) {
	filter.Categories = principal.CategoryScope()
	items, total, err := s.repo.ListAwaitingDecision(ctx, filter)
	if err != nil {
		return nil, shared.Pagination{}, err
	}

	var minTotal, maxTotal float64
	var haveMin, haveMax bool
	now := s.now()
	for i := range items {
		item := &items[i]
		if item.SuppliersSolicited > 0 {
			rate := float64(item.ResponsesReceived) / float64(item.SuppliersSolicited) * 100
			item.ResponseRatePct = math.Round(rate*10) / 10
		}
		if item.FirstResponseAt != nil {
			days := int(now.Sub(*item.FirstResponseAt).Hours() / 24)
			item.DaysSinceFirst = &days
		}
		if item.AmountMin != nil {
			minTotal += *item.AmountMin
			haveMin = true
		}
		if item.AmountMax != nil {
			maxTotal += *item.AmountMax
			haveMax = true
		}
	}

	summary := &AwaitingSummary{Items: items, Total: total}
	if summary.Items == nil {
		summary.Items = []AwaitingRequest{}
	}
	if haveMin {
		v := math.Round(minTotal*100) / 100
		summary.AmountMinTotal = &v
	}
	if haveMax {
		v := math.Round(maxTotal*100) / 100
		summary.AmountMaxTotal = &v
	}
	return summary, shared.NewPagination(filter.Page, filter.PerPage, total), nil
}

package selections

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/procurex/procurex/internal/platform/httpx"
	"github.com/procurex/procurex/internal/shared"
)

// Service holds the selection state machine.
type Service struct {
	logger *slog.Logger
	repo   Repository
	audit  *shared.AuditLogger
}

// NewService constructs a Service.
func NewService(logger *slog.Logger, repo Repository, audit *shared.AuditLogger) *Service {
	return &Service{logger: logger, repo: repo, audit: audit}
}

// Create records a manual selection. An existing active selection for
// the same (article, request) pair yields Conflict.
func (s *Service) Create(ctx context.Context, actor *shared.Principal, in CreateInput) (*Selection, error) {
	sel := &Selection{
		ArticleCode:    in.ArticleCode,
		RequestID:      in.RequestID,
		Quantity:       in.Quantity,
		SupplierID:     in.SupplierID,
		ResponseLineID: in.ResponseLineID,
		UnitPrice:      in.UnitPrice,
		Currency:       in.Currency,
		Brand:          in.Brand,
		BrandConforms:  in.BrandConforms,
		LeadTimeDays:   in.LeadTimeDays,
		AutoSelected:   false,
		ModifiedBy:     actor.Username,
	}
	if in.DeliveryDate != nil && *in.DeliveryDate != "" {
		parsed, err := time.Parse("2006-01-02", *in.DeliveryDate)
		if err != nil {
			return nil, fmt.Errorf("%w: delivery_date: %v", httpx.ErrValidation, err)
		}
		sel.DeliveryDate = &parsed
	}
	if err := s.repo.Create(ctx, sel); err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actor, "selection.create", sel.ID, map[string]any{
		"article": sel.ArticleCode, "request_id": sel.RequestID,
	})
	return s.repo.Get(ctx, sel.ID)
}

// Get returns one selection.
func (s *Service) Get(ctx context.Context, id int64) (*Selection, error) {
	return s.repo.Get(ctx, id)
}

// List returns selections matching the filter.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Selection, shared.Pagination, error) {
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return items, shared.NewPagination(filter.Page, filter.PerPage, total), nil
}

// Update replaces the chosen offer while the selection is active. Any
// manual edit clears the auto_selected flag.
func (s *Service) Update(ctx context.Context, actor *shared.Principal, id int64, in UpdateInput) (*Selection, error) {
	sel, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sel.Status != StatusSelected {
		return nil, httpx.ErrInvalidState
	}
	sel.Quantity = in.Quantity
	sel.SupplierID = in.SupplierID
	sel.ResponseLineID = in.ResponseLineID
	sel.UnitPrice = in.UnitPrice
	sel.Currency = in.Currency
	sel.Brand = in.Brand
	sel.BrandConforms = in.BrandConforms
	sel.LeadTimeDays = in.LeadTimeDays
	sel.ModifiedBy = actor.Username
	if err := s.repo.Update(ctx, sel); err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actor, "selection.update", id, nil)
	return s.repo.Get(ctx, id)
}

// Delete removes an active selection. Converted selections are
// immutable.
func (s *Service) Delete(ctx context.Context, actor *shared.Principal, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.recordAudit(ctx, actor, "selection.delete", id, nil)
	return nil
}

// AutoSelectAll creates a selected row for every unselected (article,
// request) pair, choosing the minimum-priced eligible offer. Pairs that
// already have a selection are skipped, so re-running is idempotent.
// A concurrent create racing a candidate loses to the unique index and
// counts as skipped.
func (s *Service) AutoSelectAll(ctx context.Context, actor *shared.Principal) (*AutoSelectResult, error) {
	candidates, err := s.repo.ListAutoSelectCandidates(ctx)
	if err != nil {
		return nil, err
	}
	result := &AutoSelectResult{}
	for _, c := range candidates {
		sel := &Selection{
			ArticleCode:    c.ArticleCode,
			RequestID:      c.RequestID,
			Quantity:       c.Quantity,
			SupplierID:     c.SupplierID,
			ResponseLineID: c.ResponseLineID,
			UnitPrice:      c.UnitPrice,
			Currency:       c.Currency,
			Brand:          c.Brand,
			BrandConforms:  c.BrandConforms,
			DeliveryDate:   c.DeliveryDate,
			LeadTimeDays:   c.LeadTimeDays,
			AutoSelected:   true,
			ModifiedBy:     actor.Username,
		}
		if err := s.repo.Create(ctx, sel); err != nil {
			if errors.Is(err, httpx.ErrConflict) {
				result.Skipped++
				continue
			}
			return nil, err
		}
		result.Created++
	}
	if result.Created > 0 {
		s.recordAudit(ctx, actor, "selection.auto_select_all", 0, map[string]any{
			"created": result.Created, "skipped": result.Skipped,
		})
	}
	return result, nil
}

// PreOrderDashboard groups active selections by supplier with totals,
// ready for order generation.
func (s *Service) PreOrderDashboard(ctx context.Context) ([]SupplierGroup, error) {
	groups, err := s.repo.ListActiveBySupplier(ctx)
	if err != nil {
		return nil, err
	}
	if groups == nil {
		groups = []SupplierGroup{}
	}
	return groups, nil
}

func (s *Service) recordAudit(ctx context.Context, actor *shared.Principal, action string, entityID int64, meta map[string]any) {
	if s.audit == nil || actor == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actor.ID,
		Action:   action,
		Entity:   "selection",
		EntityID: fmt.Sprintf("%d", entityID),
		Meta:     meta,
	})
	if err != nil {
		s.logger.Warn("audit record", slog.String("action", action), slog.Any("error", err))
	}
}

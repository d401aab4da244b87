package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/procurex/procurex/internal/integration/erp"
	"github.com/procurex/procurex/internal/platform/httpx"
	"github.com/procurex/procurex/internal/shared"
)

// generateAttempts bounds retries when concurrent generations collide
// on the same order number.
const generateAttempts = 3

// erpPushTimeout bounds the post-commit push independently of the
// request context.
const erpPushTimeout = 60 * time.Second

// Pusher is the slice of the ERP client this module consumes.
type Pusher interface {
	Push(ctx context.Context, payload erp.Payload) error
}

// Service holds order generation and lifecycle rules.
type Service struct {
	logger     *slog.Logger
	repo       Repository
	pusher     Pusher
	audit      *shared.AuditLogger
	taxRatePct float64
}

// NewService constructs a Service. pusher may be nil to disable the
// ERP push.
func NewService(logger *slog.Logger, repo Repository, pusher Pusher, audit *shared.AuditLogger, taxRatePct float64) *Service {
	return &Service{logger: logger, repo: repo, pusher: pusher, audit: audit, taxRatePct: taxRatePct}
}

// Generate converts an explicit set of active selections into a draft
// order. The commit is atomic; the ERP push runs after it and its
// failure only produces a warning.
func (s *Service) Generate(ctx context.Context, actor *shared.Principal, in GenerateInput) (*GenerateResult, error) {
	order := &Order{
		SupplierID:   in.SupplierID,
		PaymentTerms: in.PaymentTerms,
		DeliveryTo:   in.DeliveryTo,
		Project:      in.Project,
		Comment:      in.Comment,
		CreatedBy:    actor.Username,
	}

	var err error
	for attempt := 0; attempt < generateAttempts; attempt++ {
		err = s.repo.CreateFromSelections(ctx, order, in.SelectionIDs, s.taxRatePct)
		if err == nil {
			break
		}
		if !errors.Is(err, httpx.ErrConflict) {
			return nil, err
		}
		s.logger.Warn("order number collision, retrying", slog.Int("attempt", attempt+1))
	}
	if err != nil {
		return nil, fmt.Errorf("orders: number allocation exhausted retries: %w", err)
	}

	s.recordAudit(ctx, actor, "order.generate", order.ID, map[string]any{
		"number": order.Number, "total": order.Total, "selections": len(in.SelectionIDs),
	})

	result := &GenerateResult{Order: order}
	if warning := s.pushToERP(order, actor); warning != "" {
		result.Warning = warning
	}
	return result, nil
}

// pushToERP sends the committed order to the automation endpoint.
// Failures are advisory: the order of record lives here.
func (s *Service) pushToERP(order *Order, actor *shared.Principal) string {
	if s.pusher == nil {
		return ""
	}
	ctx, cancel := context.WithTimeout(context.Background(), erpPushTimeout)
	defer cancel()

	payload := erp.Payload{BuyerEmail: actor.Email}
	for _, line := range order.Lines {
		payload.Entries = append(payload.Entries, erp.Entry{
			RequestID:     line.RequestNumber,
			Buyer:         actor.Username,
			SupplierCode:  order.SupplierCode,
			SupplierEmail: order.SupplierEmail,
			SupplierPhone: order.SupplierPhone,
			ArticleCode:   line.ArticleCode,
			Amount:        line.UnitPrice,
			Brand:         line.Brand,
			Project:       order.Project,
		})
	}

	if err := s.pusher.Push(ctx, payload); err != nil {
		s.logger.Warn("erp push failed",
			slog.String("order", order.Number),
			slog.Any("error", err))
		return fmt.Sprintf("order %s created; ERP push failed: %v", order.Number, err)
	}
	return ""
}

// Get returns one order with lines.
func (s *Service) Get(ctx context.Context, id int64) (*Order, error) {
	return s.repo.Get(ctx, id)
}

// GetByNumber returns one order by its human-readable number.
func (s *Service) GetByNumber(ctx context.Context, number string) (*Order, error) {
	return s.repo.GetByNumber(ctx, number)
}

// List returns orders matching the filter.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Order, shared.Pagination, error) {
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return items, shared.NewPagination(filter.Page, filter.PerPage, total), nil
}

// Validate advances a draft order to validated.
func (s *Service) Validate(ctx context.Context, actor *shared.Principal, id int64) (*Order, error) {
	if err := s.repo.UpdateStatus(ctx, id, StatusDraft, StatusValidated); err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actor, "order.validate", id, nil)
	return s.repo.Get(ctx, id)
}

// Cancel aborts an order that has not been sent yet.
func (s *Service) Cancel(ctx context.Context, actor *shared.Principal, id int64) (*Order, error) {
	order, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.Status != StatusDraft && order.Status != StatusValidated {
		return nil, httpx.ErrInvalidState
	}
	if err := s.repo.UpdateStatus(ctx, id, order.Status, StatusCancelled); err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actor, "order.cancel", id, nil)
	return s.repo.Get(ctx, id)
}

func (s *Service) recordAudit(ctx context.Context, actor *shared.Principal, action string, entityID int64, meta map[string]any) {
	if s.audit == nil || actor == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actor.ID,
		Action:   action,
		Entity:   "order",
		EntityID: fmt.Sprintf("%d", entityID),
		Meta:     meta,
	})
	if err != nil {
		s.logger.Warn("audit record", slog.String("action", action), slog.Any("error", err))
	}
}

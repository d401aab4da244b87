package suppliers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/procurex/procurex/internal/shared"
)

// Service holds supplier business rules.
type Service struct {
	logger *slog.Logger
	repo   Repository
	audit  *shared.AuditLogger
}

// NewService constructs a Service.
func NewService(logger *slog.Logger, repo Repository, audit *shared.AuditLogger) *Service {
	return &Service{logger: logger, repo: repo, audit: audit}
}

// Create registers a new supplier. Duplicate codes surface as Conflict.
func (s *Service) Create(ctx context.Context, actor *shared.Principal, in CreateInput) (*Supplier, error) {
	supplier := &Supplier{
		Code:     in.Code,
		Name:     in.Name,
		Email:    in.Email,
		Phone:    in.Phone,
		Address:  in.Address,
		Category: in.Category,
	}
	if err := s.repo.Create(ctx, supplier); err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actor, "supplier.create", supplier.ID, map[string]any{"code": supplier.Code})
	return supplier, nil
}

// Update modifies an existing supplier.
func (s *Service) Update(ctx context.Context, actor *shared.Principal, id int64, in UpdateInput) (*Supplier, error) {
	supplier, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	supplier.Name = in.Name
	supplier.Email = in.Email
	supplier.Phone = in.Phone
	supplier.Address = in.Address
	supplier.Category = in.Category
	if err := s.repo.Update(ctx, supplier); err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actor, "supplier.update", id, nil)
	return s.repo.Get(ctx, id)
}

// Get returns a supplier by id.
func (s *Service) Get(ctx context.Context, id int64) (*Supplier, error) {
	return s.repo.Get(ctx, id)
}

// List returns suppliers matching the filter plus pagination metadata.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Supplier, shared.Pagination, error) {
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return items, shared.NewPagination(filter.Page, filter.PerPage, total), nil
}

// Blacklist marks a supplier as blocked for future solicitations.
func (s *Service) Blacklist(ctx context.Context, actor *shared.Principal, id int64, reason string) (*Supplier, error) {
	if err := s.repo.SetBlacklist(ctx, id, true, &reason); err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actor, "supplier.blacklist", id, map[string]any{"reason": reason})
	return s.repo.Get(ctx, id)
}

// Unblacklist lifts the block on a supplier.
func (s *Service) Unblacklist(ctx context.Context, actor *shared.Principal, id int64) (*Supplier, error) {
	if err := s.repo.SetBlacklist(ctx, id, false, nil); err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actor, "supplier.unblacklist", id, nil)
	return s.repo.Get(ctx, id)
}

// RFQHistory lists quote requests previously sent to the supplier.
func (s *Service) RFQHistory(ctx context.Context, id int64) ([]RFQHistoryEntry, error) {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.RFQHistory(ctx, id)
}

func (s *Service) recordAudit(ctx context.Context, actor *shared.Principal, action string, entityID int64, meta map[string]any) {
	if s.audit == nil || actor == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actor.ID,
		Action:   action,
		Entity:   "supplier",
		EntityID: fmt.Sprintf("%d", entityID),
		Meta:     meta,
	})
	if err != nil {
		s.logger.Warn("audit record", slog.String("action", action), slog.Any("error", err))
	}
}

package rfq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/procurex/procurex/internal/platform/httpx"
	"github.com/procurex/procurex/internal/shared"
)

// Service holds RFQ business rules.
type Service struct {
	logger       *slog.Logger
	repo         Repository
	audit        *shared.AuditLogger
	maxReminders int
}

// NewService constructs a Service. maxReminders bounds the escalation
// chain before a pending RFQ expires.
func NewService(logger *slog.Logger, repo Repository, audit *shared.AuditLogger, maxReminders int) *Service {
	return &Service{logger: logger, repo: repo, audit: audit, maxReminders: maxReminders}
}

// Create sends a new solicitation to a supplier.
func (s *Service) Create(ctx context.Context, actor *shared.Principal, in CreateInput) (*RFQ, error) {
	q := &RFQ{
		RequestID:  in.RequestID,
		SupplierID: in.SupplierID,
		Manual:     in.Manual,
	}
	if err := s.repo.Create(ctx, q); err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actor, "rfq.create", q.ID, map[string]any{"number": q.Number})
	return s.repo.Get(ctx, q.ID)
}

// Get returns an RFQ by id.
func (s *Service) Get(ctx context.Context, id int64) (*RFQ, error) {
	return s.repo.Get(ctx, id)
}

// GetByToken resolves the supplier-facing uuid token.
func (s *Service) GetByToken(ctx context.Context, token string) (*RFQ, error) {
	parsed, err := uuid.Parse(token)
	if err != nil {
		return nil, httpx.ErrValidation
	}
	return s.repo.GetByUUID(ctx, parsed)
}

// List returns RFQs matching the filter.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]RFQ, shared.Pagination, error) {
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return items, shared.NewPagination(filter.Page, filter.PerPage, total), nil
}

// ListPending returns RFQs still waiting on an answer.
func (s *Service) ListPending(ctx context.Context, filter ListFilter) ([]RFQ, shared.Pagination, error) {
	items, total, err := s.repo.ListPending(ctx, filter)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return items, shared.NewPagination(filter.Page, filter.PerPage, total), nil
}

// StatusStats returns per-status RFQ counts.
func (s *Service) StatusStats(ctx context.Context) ([]StatusCount, error) {
	return s.repo.StatusStats(ctx)
}

// MarkSeen records that the supplier opened the solicitation.
func (s *Service) MarkSeen(ctx context.Context, token string) (*RFQ, error) {
	q, err := s.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if err := s.repo.MarkSeen(ctx, q.ID); err != nil {
		// Already answered or rejected: keep the stronger status.
		if !errors.Is(err, httpx.ErrInvalidState) {
			return nil, err
		}
	}
	return s.repo.Get(ctx, q.ID)
}

// MarkAnswered flips an RFQ to answered once a response is stored.
func (s *Service) MarkAnswered(ctx context.Context, id int64) error {
	return s.repo.MarkAnswered(ctx, id)
}

// Reject records a supplier declining to quote.
func (s *Service) Reject(ctx context.Context, token string, in RejectInput) (*Rejection, error) {
	q, err := s.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	rejection, err := s.repo.Reject(ctx, q.ID, in.Reason)
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, nil, "rfq.reject", q.ID, map[string]any{"reason": in.Reason})
	return rejection, nil
}

// EscalateReminders advances every overdue pending RFQ one step along
// the reminder chain, expiring those past the configured reminder
// limit. It returns one record per escalation performed so the caller
// can notify the suppliers.
func (s *Service) EscalateReminders(ctx context.Context, olderThan time.Time, batch int) ([]Escalation, error) {
	due, err := s.repo.ListDueForReminder(ctx, olderThan, batch)
	if err != nil {
		return nil, err
	}
	var escalated []Escalation
	for _, q := range due {
		next := nextReminderStatus(q.Reminders, s.maxReminders)
		ok, err := s.repo.Escalate(ctx, q.ID, q.Status, next)
		if err != nil {
			return escalated, err
		}
		if !ok {
			continue
		}
		escalated = append(escalated, Escalation{
			RFQID:         q.ID,
			Number:        q.Number,
			Status:        next,
			SupplierName:  q.SupplierName,
			SupplierEmail: q.SupplierEmail,
		})
		s.logger.Info("rfq reminder escalated",
			slog.String("number", q.Number),
			slog.String("from", q.Status),
			slog.String("to", next))
	}
	return escalated, nil
}

func (s *Service) recordAudit(ctx context.Context, actor *shared.Principal, action string, entityID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	var actorID int64
	if actor != nil {
		actorID = actor.ID
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "rfq",
		EntityID: fmt.Sprintf("%d", entityID),
		Meta:     meta,
	})
	if err != nil {
		s.logger.Warn("audit record", slog.String("action", action), slog.Any("error", err))
	}
}

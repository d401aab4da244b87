package responses

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/procurex/procurex/internal/platform/httpx"
	"github.com/procurex/procurex/internal/rfq"
	"github.com/procurex/procurex/internal/shared"
)

// RFQDirectory is the slice of the RFQ service this module consumes.
type RFQDirectory interface {
	GetByToken(ctx context.Context, token string) (*rfq.RFQ, error)
	Create(ctx context.Context, actor *shared.Principal, in rfq.CreateInput) (*rfq.RFQ, error)
	MarkAnswered(ctx context.Context, id int64) error
}

// Service holds supplier-response business rules.
type Service struct {
	logger *slog.Logger
	repo   Repository
	rfqs   RFQDirectory
	audit  *shared.AuditLogger
}

// NewService constructs a Service.
func NewService(logger *slog.Logger, repo Repository, rfqs RFQDirectory, audit *shared.AuditLogger) *Service {
	return &Service{logger: logger, repo: repo, rfqs: rfqs, audit: audit}
}

// Submit stores a supplier response against an RFQ token and marks the
// RFQ answered. One response per RFQ; duplicates surface as Conflict.
func (s *Service) Submit(ctx context.Context, token string, in SubmitInput) (*Header, error) {
	q, err := s.rfqs.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if q.Status == rfq.StatusExpired || q.Status == rfq.StatusRejected {
		return nil, httpx.ErrInvalidState
	}
	if _, err := s.repo.GetByRFQ(ctx, q.ID); err == nil {
		return nil, httpx.ErrConflict
	}

	header := &Header{
		RFQID:        q.ID,
		SupplierID:   q.SupplierID,
		Currency:     in.Currency,
		PaymentTerms: in.PaymentTerms,
		Manual:       q.Manual,
	}
	header.Lines, err = linesFromInput(in.Lines)
	if err != nil {
		return nil, err
	}
	if err := s.repo.CreateWithLines(ctx, header); err != nil {
		return nil, err
	}
	if err := s.rfqs.MarkAnswered(ctx, q.ID); err != nil {
		s.logger.Warn("mark rfq answered", slog.Int64("rfq_id", q.ID), slog.Any("error", err))
	}
	return s.repo.Get(ctx, header.ID)
}

// SubmitManual stores a buyer-entered offer. A dedicated manual RFQ is
// created first so the response keeps a (request, supplier) anchor.
func (s *Service) SubmitManual(ctx context.Context, actor *shared.Principal, in ManualInput) (*Header, error) {
	q, err := s.rfqs.Create(ctx, actor, rfq.CreateInput{
		RequestID:  in.RequestID,
		SupplierID: in.SupplierID,
		Manual:     true,
	})
	if err != nil {
		return nil, err
	}

	header := &Header{
		RFQID:        q.ID,
		SupplierID:   in.SupplierID,
		Currency:     in.Currency,
		PaymentTerms: in.PaymentTerms,
		Manual:       true,
	}
	header.Lines, err = linesFromInput(in.Lines)
	if err != nil {
		return nil, err
	}
	if err := s.repo.CreateWithLines(ctx, header); err != nil {
		return nil, err
	}
	if err := s.rfqs.MarkAnswered(ctx, q.ID); err != nil {
		s.logger.Warn("mark rfq answered", slog.Int64("rfq_id", q.ID), slog.Any("error", err))
	}
	s.recordAudit(ctx, actor, "response.manual", header.ID, map[string]any{"rfq": q.Number})
	return s.repo.Get(ctx, header.ID)
}

// Get returns one response with its lines.
func (s *Service) Get(ctx context.Context, id int64) (*Header, error) {
	return s.repo.Get(ctx, id)
}

// List returns response headers matching the filter.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Header, shared.Pagination, error) {
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return items, shared.NewPagination(filter.Page, filter.PerPage, total), nil
}

// CompareArticle returns every priced offer for an article sorted by
// price, with min/max/avg analysis.
func (s *Service) CompareArticle(ctx context.Context, articleCode, requestNumber string) (*ArticleComparison, error) {
	offers, err := s.repo.CompareArticle(ctx, articleCode, requestNumber)
	if err != nil {
		return nil, err
	}
	comparison := &ArticleComparison{ArticleCode: articleCode, Offers: offers}
	if len(offers) == 0 {
		comparison.Offers = []ComparisonOffer{}
		return comparison, nil
	}

	comparison.Designation = offers[0].Designation
	analysis := &ComparisonAnalysis{
		OfferCount:   len(offers),
		BestSupplier: offers[0].SupplierName,
		BestPrice:    *offers[0].UnitPrice,
		PriceMin:     *offers[0].UnitPrice,
		PriceMax:     *offers[0].UnitPrice,
	}
	sum := 0.0
	for _, o := range offers {
		price := *o.UnitPrice
		sum += price
		if price < analysis.PriceMin {
			analysis.PriceMin = price
		}
		if price > analysis.PriceMax {
			analysis.PriceMax = price
		}
	}
	analysis.PriceAvg = sum / float64(len(offers))
	comparison.Analysis = analysis
	return comparison, nil
}

func linesFromInput(inputs []LineInput) ([]Line, error) {
	lines := make([]Line, 0, len(inputs))
	for _, in := range inputs {
		line := Line{
			RequestID:    in.RequestID,
			ArticleCode:  in.ArticleCode,
			UnitPrice:    in.UnitPrice,
			AvailableQty: in.AvailableQty,
			Brand:        in.Brand,
			BrandConforms: in.BrandConforms,
			LeadTimeDays: in.LeadTimeDays,
		}
		if in.DeliveryDate != nil && *in.DeliveryDate != "" {
			parsed, err := time.Parse("2006-01-02", *in.DeliveryDate)
			if err != nil {
				return nil, fmt.Errorf("%w: delivery_date: %v", httpx.ErrValidation, err)
			}
			line.DeliveryDate = &parsed
		}
		lines = append(lines, line)
	}
	return lines, nil
}

func (s *Service) recordAudit(ctx context.Context, actor *shared.Principal, action string, entityID int64, meta map[string]any) {
	if s.audit == nil || actor == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actor.ID,
		Action:   action,
		Entity:   "response",
		EntityID: fmt.Sprintf("%d", entityID),
		Meta:     meta,
	})
	if err != nil {
		s.logger.Warn("audit record", slog.String("action", action), slog.Any("error", err))
	}
}

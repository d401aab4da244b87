package offers

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/procurex/procurex/internal/shared"
)

// Service builds the comparison dashboard from raw response rows.
type Service struct {
	repo Repository
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Compare aggregates, deduplicates, and scores all offers matching the
// filter. Raw rows and awaiting suppliers fetch in parallel.
func (s *Service) Compare(ctx context.Context, principal *shared.Principal, filter Filter) ([]ArticleAggregate, error) {
	filter.Categories = principal.CategoryScope()

	var rows []RawRow
	var awaiting map[string][]AwaitingSupplier

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rows, err = s.repo.FetchRawRows(gctx, filter)
		return err
	})
	g.Go(func() error {
		var err error
		awaiting, err = s.repo.AwaitingSuppliers(gctx, filter)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	aggregates := Aggregate(rows)
	for i := range aggregates {
		ScoreArticle(&aggregates[i])
		aggregates[i].AwaitingSuppliers = awaiting[aggregates[i].ArticleCode]
	}
	return aggregates, nil
}

// CompareArticle narrows the comparison to one article.
func (s *Service) CompareArticle(ctx context.Context, principal *shared.Principal, articleCode, requestNumber string) (*ArticleAggregate, error) {
	aggregates, err := s.Compare(ctx, principal, Filter{ArticleCode: articleCode, RequestNumber: requestNumber})
	if err != nil {
		return nil, err
	}
	if len(aggregates) == 0 {
		return &ArticleAggregate{ArticleCode: articleCode, Requests: []RequestRef{}, Offers: []Offer{}}, nil
	}
	return &aggregates[0], nil
}

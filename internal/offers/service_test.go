package offers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/procurex/procurex/internal/shared"
)

type memoryRepo struct {
	rows       []RawRow
	awaiting   map[string][]AwaitingSupplier
	lastFilter Filter
}

func (m *memoryRepo) FetchRawRows(_ context.Context, filter Filter) ([]RawRow, error) {
	m.lastFilter = filter
	var out []RawRow
	for _, row := range m.rows {
		if filter.ArticleCode != "" && row.ArticleCode != filter.ArticleCode {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

func (m *memoryRepo) AwaitingSuppliers(_ context.Context, _ Filter) (map[string][]AwaitingSupplier, error) {
	return m.awaiting, nil
}

func TestCompareScoresAndAttachesAwaiting(t *testing.T) {
	repo := &memoryRepo{
		rows: []RawRow{
			rawRow("A100", 1, "SUP-A", 7, false, 100, 5),
			rawRow("A100", 1, "SUP-B", 8, false, 150, 5),
		},
		awaiting: map[string][]AwaitingSupplier{
			"A100": {{SupplierCode: "SUP-C", RFQNumber: "RFQ-2026-0003", RFQStatus: "sent"}},
		},
	}
	svc := NewService(repo)
	principal := &shared.Principal{ID: 1, Role: shared.RoleAdmin}

	aggregates, err := svc.Compare(context.Background(), principal, Filter{})
	require.NoError(t, err)
	require.Len(t, aggregates, 1)

	agg := aggregates[0]
	require.Equal(t, "SUP-A", agg.RecommendedSupplier)
	require.InDelta(t, 100.0, agg.Offers[0].PriceScore, 0.001)
	require.InDelta(t, 0.0, agg.Offers[1].PriceScore, 0.001)
	require.Len(t, agg.AwaitingSuppliers, 1)
	require.Equal(t, "SUP-C", agg.AwaitingSuppliers[0].SupplierCode)
}

func TestCompareAppliesBuyerCategoryScope(t *testing.T) {
	repo := &memoryRepo{}
	svc := NewService(repo)
	buyer := &shared.Principal{ID: 2, Role: shared.RoleBuyer, Categories: []string{"electronics"}}

	_, err := svc.Compare(context.Background(), buyer, Filter{})
	require.NoError(t, err)
	require.Equal(t, []string{"electronics"}, repo.lastFilter.Categories)
}

func TestCompareArticleMissing(t *testing.T) {
	svc := NewService(&memoryRepo{})
	principal := &shared.Principal{ID: 1, Role: shared.RoleAdmin}

	agg, err := svc.CompareArticle(context.Background(), principal, "A404", "")
	require.NoError(t, err)
	require.Equal(t, "A404", agg.ArticleCode)
	require.Empty(t, agg.Offers)
}

package requests

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/procurex/procurex/internal/platform/httpx"
	"github.com/procurex/procurex/internal/shared"
)

type memoryRepo struct {
	requests   []PurchaseRequest
	awaiting   []AwaitingRequest
	lastFilter ListFilter
}

func (m *memoryRepo) List(_ context.Context, filter ListFilter) ([]PurchaseRequest, int, error) {
	m.lastFilter = filter
	var out []PurchaseRequest
	for _, pr := range m.requests {
		if filter.Status != "" && pr.Status != filter.Status {
			continue
		}
		if len(filter.Categories) > 0 && !contains(filter.Categories, pr.Category) {
			continue
		}
		out = append(out, pr)
	}
	return out, len(out), nil
}

func (m *memoryRepo) GetByNumber(_ context.Context, number string) (*PurchaseRequest, error) {
	for _, pr := range m.requests {
		if pr.Number == number {
			copied := pr
			return &copied, nil
		}
	}
	return nil, httpx.ErrNotFound
}

func (m *memoryRepo) ListAwaitingDecision(_ context.Context, filter ListFilter) ([]AwaitingRequest, int, error) {
	m.lastFilter = filter
	return m.awaiting, len(m.awaiting), nil
}

func contains(values []string, v string) bool {
	for _, value := range values {
		if value == v {
			return true
		}
	}
	return false
}

func buyer(categories ...string) *shared.Principal {
	return &shared.Principal{ID: 3, Username: "buyer", Role: shared.RoleBuyer, Categories: categories}
}

func TestListAppliesCategoryScope(t *testing.T) {
	repo := &memoryRepo{requests: []PurchaseRequest{
		{Number: "DA-2026-0001", Category: "electronics", Status: StatusNew},
		{Number: "DA-2026-0002", Category: "chemicals", Status: StatusNew},
	}}
	svc := NewService(repo)

	items, _, err := svc.List(context.Background(), buyer("electronics"), ListFilter{})
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "DA-2026-0001", items[0].Number)
	require.Equal(t, []string{"electronics"}, repo.lastFilter.Categories)
}

func TestListManagerSeesEverything(t *testing.T) {
	repo := &memoryRepo{requests: []PurchaseRequest{
		{Number: "DA-2026-0001", Category: "electronics"},
		{Number: "DA-2026-0002", Category: "chemicals"},
	}}
	svc := NewService(repo)

	admin := &shared.Principal{ID: 1, Role: shared.RoleAdmin, Categories: []string{"electronics"}}
	items, _, err := svc.List(context.Background(), admin, ListFilter{})
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Nil(t, repo.lastFilter.Categories)
}

func TestAwaitingDecisionStats(t *testing.T) {
	first := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	amountMin := 300.0
	amountMax := 450.0
	repo := &memoryRepo{awaiting: []AwaitingRequest{
		{
			PurchaseRequest:    PurchaseRequest{Number: "DA-2026-0003"},
			SuppliersSolicited: 4,
			ResponsesReceived:  3,
			AmountMin:          &amountMin,
			AmountMax:          &amountMax,
			FirstResponseAt:    &first,
		},
		{
			PurchaseRequest:    PurchaseRequest{Number: "DA-2026-0004"},
			SuppliersSolicited: 0,
			ResponsesReceived:  0,
		},
	}}
	svc := NewService(repo)
	svc.now = func() time.Time { return time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC) }

	summary, _, err := svc.AwaitingDecision(context.Background(), buyer(), ListFilter{})
	require.NoError(t, err)
	require.Len(t, summary.Items, 2)

	withStats := summary.Items[0]
	require.InDelta(t, 75.0, withStats.ResponseRatePct, 0.001)
	require.NotNil(t, withStats.DaysSinceFirst)
	require.Equal(t, 5, *withStats.DaysSinceFirst)

	noStats := summary.Items[1]
	require.Zero(t, noStats.ResponseRatePct)
	require.Nil(t, noStats.DaysSinceFirst)

	require.NotNil(t, summary.AmountMinTotal)
	require.InDelta(t, 300.0, *summary.AmountMinTotal, 0.001)
	require.NotNil(t, summary.AmountMaxTotal)
	require.InDelta(t, 450.0, *summary.AmountMaxTotal, 0.001)
}

func TestGetByNumberNotFound(t *testing.T) {
	svc := NewService(&memoryRepo{})

	_, err := svc.GetByNumber(context.Background(), "DA-2026-9999")
	require.ErrorIs(t, err, httpx.ErrNotFound)
}

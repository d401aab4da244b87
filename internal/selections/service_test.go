package selections

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/procurex/procurex/internal/platform/httpx"
	"github.com/procurex/procurex/internal/shared"
)

type memoryRepo struct {
	nextID     int64
	byID       map[int64]*Selection
	candidates []Candidate
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{nextID: 1, byID: map[int64]*Selection{}}
}

func (m *memoryRepo) Create(_ context.Context, sel *Selection) error {
	for _, existing := range m.byID {
		if existing.ArticleCode == sel.ArticleCode && existing.RequestID == sel.RequestID &&
			existing.Status == StatusSelected {
			return httpx.ErrConflict
		}
	}
	sel.ID = m.nextID
	m.nextID++
	sel.Status = StatusSelected
	sel.CreatedAt = time.Now()
	sel.UpdatedAt = sel.CreatedAt
	copied := *sel
	m.byID[sel.ID] = &copied
	return nil
}

func (m *memoryRepo) Get(_ context.Context, id int64) (*Selection, error) {
	sel, ok := m.byID[id]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	copied := *sel
	return &copied, nil
}

func (m *memoryRepo) List(_ context.Context, filter ListFilter) ([]Selection, int, error) {
	var out []Selection
	for _, sel := range m.byID {
		if filter.Status != "" && sel.Status != filter.Status {
			continue
		}
		out = append(out, *sel)
	}
	return out, len(out), nil
}

func (m *memoryRepo) Update(_ context.Context, sel *Selection) error {
	existing, ok := m.byID[sel.ID]
	if !ok {
		return httpx.ErrNotFound
	}
	if existing.Status != StatusSelected {
		return httpx.ErrInvalidState
	}
	copied := *sel
	copied.AutoSelected = false
	copied.Status = StatusSelected
	m.byID[sel.ID] = &copied
	return nil
}

func (m *memoryRepo) Delete(_ context.Context, id int64) error {
	sel, ok := m.byID[id]
	if !ok {
		return httpx.ErrNotFound
	}
	if sel.Status != StatusSelected {
		return httpx.ErrInvalidState
	}
	delete(m.byID, id)
	return nil
}

func (m *memoryRepo) ListAutoSelectCandidates(_ context.Context) ([]Candidate, error) {
	var out []Candidate
	for _, c := range m.candidates {
		taken := false
		for _, sel := range m.byID {
			if sel.ArticleCode == c.ArticleCode && sel.RequestID == c.RequestID {
				taken = true
				break
			}
		}
		if !taken {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memoryRepo) ListActiveBySupplier(_ context.Context) ([]SupplierGroup, error) {
	var groups []SupplierGroup
	index := map[int64]int{}
	for _, sel := range m.byID {
		if sel.Status != StatusSelected {
			continue
		}
		i, ok := index[sel.SupplierID]
		if !ok {
			i = len(groups)
			index[sel.SupplierID] = i
			groups = append(groups, SupplierGroup{SupplierID: sel.SupplierID})
		}
		groups[i].Selections = append(groups[i].Selections, *sel)
		groups[i].TotalAmount += sel.UnitPrice * sel.Quantity
	}
	return groups, nil
}

func testService() (*Service, *memoryRepo) {
	repo := newMemoryRepo()
	return NewService(slog.Default(), repo, nil), repo
}

func actor() *shared.Principal {
	return &shared.Principal{ID: 5, Username: "buyer", Role: shared.RoleBuyer}
}

func createInput(article string, requestID int64) CreateInput {
	return CreateInput{
		ArticleCode:    article,
		RequestID:      requestID,
		Quantity:       3,
		SupplierID:     20,
		ResponseLineID: 100,
		UnitPrice:      50,
		Currency:       "EUR",
	}
}

func TestCreateSelection(t *testing.T) {
	svc, _ := testService()

	sel, err := svc.Create(context.Background(), actor(), createInput("A100", 1))
	require.NoError(t, err)
	require.Equal(t, StatusSelected, sel.Status)
	require.False(t, sel.AutoSelected)
	require.Equal(t, "buyer", sel.ModifiedBy)
}

func TestCreateDuplicatePairConflicts(t *testing.T) {
	svc, _ := testService()

	_, err := svc.Create(context.Background(), actor(), createInput("A100", 1))
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), actor(), createInput("A100", 1))
	require.ErrorIs(t, err, httpx.ErrConflict)

	// A different request for the same article is fine.
	_, err = svc.Create(context.Background(), actor(), createInput("A100", 2))
	require.NoError(t, err)
}

func TestUpdateClearsAutoSelected(t *testing.T) {
	svc, repo := testService()
	sel, err := svc.Create(context.Background(), actor(), createInput("A100", 1))
	require.NoError(t, err)
	repo.byID[sel.ID].AutoSelected = true

	updated, err := svc.Update(context.Background(), actor(), sel.ID, UpdateInput{
		Quantity: 4, SupplierID: 21, ResponseLineID: 101, UnitPrice: 45, Currency: "EUR",
	})
	require.NoError(t, err)
	require.False(t, updated.AutoSelected)
	require.InDelta(t, 45.0, updated.UnitPrice, 0.001)
}

func TestUpdateConvertedSelectionFails(t *testing.T) {
	svc, repo := testService()
	sel, err := svc.Create(context.Background(), actor(), createInput("A100", 1))
	require.NoError(t, err)
	repo.byID[sel.ID].Status = StatusOrderGenerated

	_, err = svc.Update(context.Background(), actor(), sel.ID, UpdateInput{
		Quantity: 4, SupplierID: 21, ResponseLineID: 101, UnitPrice: 45, Currency: "EUR",
	})
	require.ErrorIs(t, err, httpx.ErrInvalidState)
}

func TestDeleteConvertedSelectionFails(t *testing.T) {
	svc, repo := testService()
	sel, err := svc.Create(context.Background(), actor(), createInput("A100", 1))
	require.NoError(t, err)
	repo.byID[sel.ID].Status = StatusOrderGenerated

	err = svc.Delete(context.Background(), actor(), sel.ID)
	require.ErrorIs(t, err, httpx.ErrInvalidState)
}

func TestDeleteActiveSelection(t *testing.T) {
	svc, repo := testService()
	sel, err := svc.Create(context.Background(), actor(), createInput("A100", 1))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), actor(), sel.ID))
	require.NotContains(t, repo.byID, sel.ID)
}

func TestAutoSelectAllIdempotent(t *testing.T) {
	svc, repo := testService()
	repo.candidates = []Candidate{
		{ArticleCode: "A100", RequestID: 1, Quantity: 3, SupplierID: 20, ResponseLineID: 100, UnitPrice: 50, Currency: "EUR"},
		{ArticleCode: "B200", RequestID: 2, Quantity: 1, SupplierID: 21, ResponseLineID: 101, UnitPrice: 80, Currency: "EUR"},
	}

	first, err := svc.AutoSelectAll(context.Background(), actor())
	require.NoError(t, err)
	require.Equal(t, 2, first.Created)
	require.Zero(t, first.Skipped)

	for _, sel := range repo.byID {
		require.True(t, sel.AutoSelected)
	}

	second, err := svc.AutoSelectAll(context.Background(), actor())
	require.NoError(t, err)
	require.Zero(t, second.Created)
	require.Len(t, repo.byID, 2)
}

func TestAutoSelectSkipsConflicts(t *testing.T) {
	svc, repo := testService()
	_, err := svc.Create(context.Background(), actor(), createInput("A100", 1))
	require.NoError(t, err)

	// Candidate list computed before our manual create landed.
	repo.candidates = []Candidate{
		{ArticleCode: "A100", RequestID: 1, Quantity: 3, SupplierID: 20, ResponseLineID: 100, UnitPrice: 40, Currency: "EUR"},
	}
	// Force the stale candidate through by bypassing the repo filter.
	result := &AutoSelectResult{}
	for _, c := range repo.candidates {
		sel := &Selection{ArticleCode: c.ArticleCode, RequestID: c.RequestID, AutoSelected: true}
		if errCreate := repo.Create(context.Background(), sel); errCreate != nil {
			result.Skipped++
		} else {
			result.Created++
		}
	}
	require.Zero(t, result.Created)
	require.Equal(t, 1, result.Skipped)
}

func TestPreOrderDashboardGroupsBySupplier(t *testing.T) {
	svc, _ := testService()
	in1 := createInput("A100", 1)
	in1.SupplierID = 20
	in1.UnitPrice = 50
	in1.Quantity = 3
	in2 := createInput("B200", 2)
	in2.SupplierID = 20
	in2.UnitPrice = 80
	in2.Quantity = 2
	in3 := createInput("C300", 3)
	in3.SupplierID = 21

	for _, in := range []CreateInput{in1, in2, in3} {
		_, err := svc.Create(context.Background(), actor(), in)
		require.NoError(t, err)
	}

	groups, err := svc.PreOrderDashboard(context.Background())
	require.NoError(t, err)
	require.Len(t, groups, 2)

	for _, g := range groups {
		if g.SupplierID == 20 {
			require.Len(t, g.Selections, 2)
			require.InDelta(t, 310.0, g.TotalAmount, 0.001)
		}
	}
}

package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/procurex/procurex/internal/integration/erp"
	"github.com/procurex/procurex/internal/platform/httpx"
	"github.com/procurex/procurex/internal/selections"
	"github.com/procurex/procurex/internal/shared"
)

type memoryRepo struct {
	nextID     int64
	nextSeq    int
	conflicts  int // number collisions to simulate before success
	byID       map[int64]*Order
	selections map[int64]*selections.Selection
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{nextID: 1, nextSeq: 1, byID: map[int64]*Order{}, selections: map[int64]*selections.Selection{}}
}

func (m *memoryRepo) addSelection(id int64, supplierID int64, price, qty float64) {
	m.selections[id] = &selections.Selection{
		ID: id, ArticleCode: fmt.Sprintf("ART-%d", id), RequestID: id,
		SupplierID: supplierID, ResponseLineID: id * 10,
		UnitPrice: price, Quantity: qty, Currency: "EUR",
		Status: selections.StatusSelected,
	}
}

func (m *memoryRepo) CreateFromSelections(_ context.Context, order *Order, selectionIDs []int64, taxRatePct float64) error {
	order.SupplierCode = fmt.Sprintf("SUP-%03d", order.SupplierID)
	order.SupplierName = "Acme Industrial"
	order.SupplierEmail = "sales@acme.test"
	order.SupplierPhone = "+33 1 23 45 67 89"

	var lines []Line
	for _, id := range selectionIDs {
		sel, ok := m.selections[id]
		if !ok || sel.Status != selections.StatusSelected || sel.SupplierID != order.SupplierID {
			return fmt.Errorf("%w: invalid or already-converted selections", httpx.ErrValidation)
		}
		lines = append(lines, Line{
			SelectionID:    sel.ID,
			ResponseLineID: sel.ResponseLineID,
			RequestID:      sel.RequestID,
			RequestNumber:  fmt.Sprintf("DA-2026-%04d", sel.RequestID),
			ArticleCode:    sel.ArticleCode,
			Quantity:       sel.Quantity,
			UnitPrice:      sel.UnitPrice,
		})
	}

	if m.conflicts > 0 {
		m.conflicts--
		return httpx.ErrConflict
	}

	totals := computeTotals(lines, taxRatePct)
	order.ID = m.nextID
	m.nextID++
	order.Number = fmt.Sprintf("ORD-%d-%04d", time.Now().Year(), m.nextSeq)
	m.nextSeq++
	order.Status = StatusDraft
	order.Currency = "EUR"
	order.Subtotal = totals.Subtotal
	order.TaxRatePct = taxRatePct
	order.TaxAmount = totals.TaxAmount
	order.Total = totals.Total
	order.Lines = lines
	order.CreatedAt = time.Now()
	order.UpdatedAt = order.CreatedAt

	for _, id := range selectionIDs {
		m.selections[id].Status = selections.StatusOrderGenerated
	}
	copied := *order
	m.byID[order.ID] = &copied
	return nil
}

func (m *memoryRepo) Get(_ context.Context, id int64) (*Order, error) {
	o, ok := m.byID[id]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	copied := *o
	return &copied, nil
}

func (m *memoryRepo) GetByNumber(_ context.Context, number string) (*Order, error) {
	for _, o := range m.byID {
		if o.Number == number {
			copied := *o
			return &copied, nil
		}
	}
	return nil, httpx.ErrNotFound
}

func (m *memoryRepo) List(_ context.Context, _ ListFilter) ([]Order, int, error) {
	var out []Order
	for _, o := range m.byID {
		out = append(out, *o)
	}
	return out, len(out), nil
}

func (m *memoryRepo) UpdateStatus(_ context.Context, id int64, fromStatus, toStatus string) error {
	o, ok := m.byID[id]
	if !ok {
		return httpx.ErrNotFound
	}
	if o.Status != fromStatus {
		return httpx.ErrInvalidState
	}
	o.Status = toStatus
	return nil
}

type fakePusher struct {
	payloads []erp.Payload
	err      error
}

func (f *fakePusher) Push(_ context.Context, payload erp.Payload) error {
	if f.err != nil {
		return f.err
	}
	f.payloads = append(f.payloads, payload)
	return nil
}

func testService(pusher Pusher) (*Service, *memoryRepo) {
	repo := newMemoryRepo()
	return NewService(slog.Default(), repo, pusher, nil, 20), repo
}

func actor() *shared.Principal {
	return &shared.Principal{ID: 5, Username: "buyer", Email: "buyer@example.com", Role: shared.RoleBuyer}
}

func TestGenerateComputesTotals(t *testing.T) {
	pusher := &fakePusher{}
	svc, repo := testService(pusher)
	repo.addSelection(1, 20, 50, 3)
	repo.addSelection(2, 20, 80, 2)

	result, err := svc.Generate(context.Background(), actor(), GenerateInput{
		SupplierID:   20,
		SelectionIDs: []int64{1, 2},
	})
	require.NoError(t, err)
	require.Empty(t, result.Warning)

	order := result.Order
	require.Equal(t, StatusDraft, order.Status)
	require.InDelta(t, 310.00, order.Subtotal, 0.001)
	require.InDelta(t, 62.00, order.TaxAmount, 0.001)
	require.InDelta(t, 372.00, order.Total, 0.001)
	require.Len(t, order.Lines, 2)

	// Selections are consumed.
	require.Equal(t, selections.StatusOrderGenerated, repo.selections[1].Status)
	require.Equal(t, selections.StatusOrderGenerated, repo.selections[2].Status)

	// ERP received the committed order.
	require.Len(t, pusher.payloads, 1)
	require.Equal(t, "buyer@example.com", pusher.payloads[0].BuyerEmail)
	require.Len(t, pusher.payloads[0].Entries, 2)
}

func TestGeneratePushesSupplierContactPerEntry(t *testing.T) {
	pusher := &fakePusher{}
	svc, repo := testService(pusher)
	repo.addSelection(7, 20, 50, 3)

	result, err := svc.Generate(context.Background(), actor(), GenerateInput{
		SupplierID:   20,
		SelectionIDs: []int64{7},
		Project:      "PRJ-7",
	})
	require.NoError(t, err)
	require.Equal(t, "PRJ-7", result.Order.Project)

	require.Len(t, pusher.payloads, 1)
	require.Len(t, pusher.payloads[0].Entries, 1)
	entry := pusher.payloads[0].Entries[0]
	require.Equal(t, "DA-2026-0007", entry.RequestID)
	require.Equal(t, "buyer", entry.Buyer)
	require.Equal(t, "SUP-020", entry.SupplierCode)
	require.Equal(t, "sales@acme.test", entry.SupplierEmail)
	require.Equal(t, "+33 1 23 45 67 89", entry.SupplierPhone)
	require.Equal(t, "ART-7", entry.ArticleCode)
	require.InDelta(t, 50.0, entry.Amount, 0.001)
	require.Equal(t, "PRJ-7", entry.Project)
}

func TestGenerateRejectsForeignSelections(t *testing.T) {
	svc, repo := testService(nil)
	repo.addSelection(1, 20, 50, 3)
	repo.addSelection(2, 99, 80, 2) // different supplier

	_, err := svc.Generate(context.Background(), actor(), GenerateInput{
		SupplierID:   20,
		SelectionIDs: []int64{1, 2},
	})
	require.ErrorIs(t, err, httpx.ErrValidation)
	// No partial conversion happened.
	require.Equal(t, selections.StatusSelected, repo.selections[1].Status)
}

func TestGenerateRejectsConvertedSelections(t *testing.T) {
	svc, repo := testService(nil)
	repo.addSelection(1, 20, 50, 3)
	repo.selections[1].Status = selections.StatusOrderGenerated

	_, err := svc.Generate(context.Background(), actor(), GenerateInput{
		SupplierID:   20,
		SelectionIDs: []int64{1},
	})
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestGenerateRetriesOnNumberCollision(t *testing.T) {
	svc, repo := testService(nil)
	repo.addSelection(1, 20, 50, 3)
	repo.conflicts = 2

	result, err := svc.Generate(context.Background(), actor(), GenerateInput{
		SupplierID:   20,
		SelectionIDs: []int64{1},
	})
	require.NoError(t, err)
	require.NotEmpty(t, result.Order.Number)
}

func TestGenerateGivesUpAfterRetries(t *testing.T) {
	svc, repo := testService(nil)
	repo.addSelection(1, 20, 50, 3)
	repo.conflicts = 5

	_, err := svc.Generate(context.Background(), actor(), GenerateInput{
		SupplierID:   20,
		SelectionIDs: []int64{1},
	})
	require.Error(t, err)
	require.ErrorIs(t, err, httpx.ErrConflict)
}

func TestGenerateERPFailureIsWarningOnly(t *testing.T) {
	pusher := &fakePusher{err: errors.New("rpa endpoint down")}
	svc, repo := testService(pusher)
	repo.addSelection(1, 20, 50, 3)

	result, err := svc.Generate(context.Background(), actor(), GenerateInput{
		SupplierID:   20,
		SelectionIDs: []int64{1},
	})
	require.NoError(t, err)
	require.NotEmpty(t, result.Warning)
	require.Contains(t, result.Warning, result.Order.Number)
	// Order stands despite the failed push.
	require.Equal(t, selections.StatusOrderGenerated, repo.selections[1].Status)
}

func TestValidateDraftOrder(t *testing.T) {
	svc, repo := testService(nil)
	repo.addSelection(1, 20, 50, 3)

	result, err := svc.Generate(context.Background(), actor(), GenerateInput{
		SupplierID: 20, SelectionIDs: []int64{1},
	})
	require.NoError(t, err)

	validated, err := svc.Validate(context.Background(), actor(), result.Order.ID)
	require.NoError(t, err)
	require.Equal(t, StatusValidated, validated.Status)

	// Validating twice fails.
	_, err = svc.Validate(context.Background(), actor(), result.Order.ID)
	require.ErrorIs(t, err, httpx.ErrInvalidState)
}

func TestCancelSentOrderFails(t *testing.T) {
	svc, repo := testService(nil)
	repo.addSelection(1, 20, 50, 3)
	result, err := svc.Generate(context.Background(), actor(), GenerateInput{
		SupplierID: 20, SelectionIDs: []int64{1},
	})
	require.NoError(t, err)
	repo.byID[result.Order.ID].Status = StatusSent

	_, err = svc.Cancel(context.Background(), actor(), result.Order.ID)
	require.ErrorIs(t, err, httpx.ErrInvalidState)
}

package responses

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/procurex/procurex/internal/platform/httpx"
	"github.com/procurex/procurex/internal/rfq"
	"github.com/procurex/procurex/internal/shared"
)

type memoryRepo struct {
	nextID  int64
	headers map[int64]*Header
	compare []ComparisonOffer
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{nextID: 1, headers: map[int64]*Header{}}
}

func (m *memoryRepo) CreateWithLines(_ context.Context, h *Header) error {
	h.ID = m.nextID
	m.nextID++
	h.SubmittedAt = time.Now()
	for i := range h.Lines {
		h.Lines[i].ID = int64(i + 1)
		h.Lines[i].HeaderID = h.ID
	}
	copied := *h
	m.headers[h.ID] = &copied
	return nil
}

func (m *memoryRepo) Get(_ context.Context, id int64) (*Header, error) {
	h, ok := m.headers[id]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	copied := *h
	return &copied, nil
}

func (m *memoryRepo) GetByRFQ(_ context.Context, rfqID int64) (*Header, error) {
	for _, h := range m.headers {
		if h.RFQID == rfqID {
			copied := *h
			return &copied, nil
		}
	}
	return nil, httpx.ErrNotFound
}

func (m *memoryRepo) List(_ context.Context, _ ListFilter) ([]Header, int, error) {
	var out []Header
	for _, h := range m.headers {
		out = append(out, *h)
	}
	return out, len(out), nil
}

func (m *memoryRepo) CompareArticle(_ context.Context, _, _ string) ([]ComparisonOffer, error) {
	return m.compare, nil
}

type fakeRFQs struct {
	nextID   int64
	byToken  map[string]*rfq.RFQ
	answered []int64
	manuals  int
}

func newFakeRFQs() *fakeRFQs {
	return &fakeRFQs{nextID: 1, byToken: map[string]*rfq.RFQ{}}
}

func (f *fakeRFQs) add(status string, manual bool) *rfq.RFQ {
	q := &rfq.RFQ{
		ID:         f.nextID,
		UUID:       uuid.New(),
		Number:     fmt.Sprintf("RFQ-2026-%04d", f.nextID),
		RequestID:  10,
		SupplierID: 20,
		Status:     status,
		Manual:     manual,
	}
	f.nextID++
	f.byToken[q.UUID.String()] = q
	return q
}

func (f *fakeRFQs) GetByToken(_ context.Context, token string) (*rfq.RFQ, error) {
	q, ok := f.byToken[token]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	return q, nil
}

func (f *fakeRFQs) Create(_ context.Context, _ *shared.Principal, in rfq.CreateInput) (*rfq.RFQ, error) {
	f.manuals++
	q := f.add(rfq.StatusSent, in.Manual)
	q.RequestID = in.RequestID
	q.SupplierID = in.SupplierID
	return q, nil
}

func (f *fakeRFQs) MarkAnswered(_ context.Context, id int64) error {
	f.answered = append(f.answered, id)
	return nil
}

func testService() (*Service, *memoryRepo, *fakeRFQs) {
	repo := newMemoryRepo()
	rfqs := newFakeRFQs()
	return NewService(slog.Default(), repo, rfqs, nil), repo, rfqs
}

func price(v float64) *float64 { return &v }

func TestSubmitStoresResponseAndMarksAnswered(t *testing.T) {
	svc, _, rfqs := testService()
	q := rfqs.add(rfq.StatusSent, false)

	header, err := svc.Submit(context.Background(), q.UUID.String(), SubmitInput{
		Currency: "EUR",
		Lines: []LineInput{
			{RequestID: 10, ArticleCode: "ART-1", UnitPrice: price(12.5), AvailableQty: 5},
		},
	})
	require.NoError(t, err)
	require.Equal(t, q.ID, header.RFQID)
	require.Len(t, header.Lines, 1)
	require.False(t, header.Manual)
	require.Equal(t, []int64{q.ID}, rfqs.answered)
}

func TestSubmitTwiceConflicts(t *testing.T) {
	svc, _, rfqs := testService()
	q := rfqs.add(rfq.StatusSent, false)
	in := SubmitInput{Currency: "EUR", Lines: []LineInput{{RequestID: 10, ArticleCode: "ART-1", AvailableQty: 1}}}

	_, err := svc.Submit(context.Background(), q.UUID.String(), in)
	require.NoError(t, err)

	_, err = svc.Submit(context.Background(), q.UUID.String(), in)
	require.ErrorIs(t, err, httpx.ErrConflict)
}

func TestSubmitExpiredRFQFails(t *testing.T) {
	svc, _, rfqs := testService()
	q := rfqs.add(rfq.StatusExpired, false)

	_, err := svc.Submit(context.Background(), q.UUID.String(), SubmitInput{
		Currency: "EUR",
		Lines:    []LineInput{{RequestID: 10, ArticleCode: "ART-1", AvailableQty: 1}},
	})
	require.ErrorIs(t, err, httpx.ErrInvalidState)
}

func TestSubmitManualCreatesRFQM(t *testing.T) {
	svc, _, rfqs := testService()
	actor := &shared.Principal{ID: 5, Username: "buyer", Role: shared.RoleBuyer}

	header, err := svc.SubmitManual(context.Background(), actor, ManualInput{
		SupplierID: 33,
		RequestID:  44,
		Currency:   "EUR",
		Lines:      []LineInput{{RequestID: 44, ArticleCode: "ART-9", UnitPrice: price(7), AvailableQty: 3}},
	})
	require.NoError(t, err)
	require.True(t, header.Manual)
	require.Equal(t, 1, rfqs.manuals)
	require.Len(t, rfqs.answered, 1)
}

func TestSubmitBadDeliveryDate(t *testing.T) {
	svc, _, rfqs := testService()
	q := rfqs.add(rfq.StatusSent, false)
	bad := "later this year"

	_, err := svc.Submit(context.Background(), q.UUID.String(), SubmitInput{
		Currency: "EUR",
		Lines:    []LineInput{{RequestID: 10, ArticleCode: "ART-1", AvailableQty: 1, DeliveryDate: &bad}},
	})
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestCompareArticleAnalysis(t *testing.T) {
	svc, repo, _ := testService()
	repo.compare = []ComparisonOffer{
		{Line: Line{ArticleCode: "ART-1", Designation: "Bearing", UnitPrice: price(100)}, SupplierName: "Acme"},
		{Line: Line{ArticleCode: "ART-1", UnitPrice: price(120)}, SupplierName: "Globex"},
		{Line: Line{ArticleCode: "ART-1", UnitPrice: price(150)}, SupplierName: "Initech"},
	}

	comparison, err := svc.CompareArticle(context.Background(), "ART-1", "")
	require.NoError(t, err)
	require.Equal(t, "Bearing", comparison.Designation)
	require.NotNil(t, comparison.Analysis)
	require.Equal(t, 3, comparison.Analysis.OfferCount)
	require.InDelta(t, 100, comparison.Analysis.PriceMin, 0.001)
	require.InDelta(t, 150, comparison.Analysis.PriceMax, 0.001)
	require.InDelta(t, 123.3333, comparison.Analysis.PriceAvg, 0.001)
	require.Equal(t, "Acme", comparison.Analysis.BestSupplier)
	require.InDelta(t, 100, comparison.Analysis.BestPrice, 0.001)
}

func TestCompareArticleNoOffers(t *testing.T) {
	svc, _, _ := testService()

	comparison, err := svc.CompareArticle(context.Background(), "ART-404", "")
	require.NoError(t, err)
	require.Empty(t, comparison.Offers)
	require.Nil(t, comparison.Analysis)
}

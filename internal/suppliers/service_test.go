package suppliers

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/procurex/procurex/internal/platform/httpx"
	"github.com/procurex/procurex/internal/shared"
)

type memoryRepo struct {
	nextID    int64
	byID      map[int64]*Supplier
	histories map[int64][]RFQHistoryEntry
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{nextID: 1, byID: map[int64]*Supplier{}, histories: map[int64][]RFQHistoryEntry{}}
}

func (m *memoryRepo) Create(_ context.Context, s *Supplier) error {
	for _, existing := range m.byID {
		if existing.Code == s.Code {
			return httpx.ErrConflict
		}
	}
	s.ID = m.nextID
	m.nextID++
	copied := *s
	m.byID[s.ID] = &copied
	return nil
}

func (m *memoryRepo) Update(_ context.Context, s *Supplier) error {
	if _, ok := m.byID[s.ID]; !ok {
		return httpx.ErrNotFound
	}
	copied := *s
	m.byID[s.ID] = &copied
	return nil
}

func (m *memoryRepo) Get(_ context.Context, id int64) (*Supplier, error) {
	s, ok := m.byID[id]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	copied := *s
	return &copied, nil
}

func (m *memoryRepo) GetByCode(_ context.Context, code string) (*Supplier, error) {
	for _, s := range m.byID {
		if s.Code == code {
			copied := *s
			return &copied, nil
		}
	}
	return nil, httpx.ErrNotFound
}

func (m *memoryRepo) List(_ context.Context, _ ListFilter) ([]Supplier, int, error) {
	var out []Supplier
	for _, s := range m.byID {
		out = append(out, *s)
	}
	return out, len(out), nil
}

func (m *memoryRepo) SetBlacklist(_ context.Context, id int64, blacklisted bool, reason *string) error {
	s, ok := m.byID[id]
	if !ok {
		return httpx.ErrNotFound
	}
	s.Blacklisted = blacklisted
	s.BlacklistReason = reason
	return nil
}

func (m *memoryRepo) RFQHistory(_ context.Context, supplierID int64) ([]RFQHistoryEntry, error) {
	return m.histories[supplierID], nil
}

func testService() (*Service, *memoryRepo) {
	repo := newMemoryRepo()
	return NewService(slog.Default(), repo, nil), repo
}

func manager() *shared.Principal {
	return &shared.Principal{ID: 9, Username: "boss", Role: shared.RolePurchasingManager}
}

func TestCreateSupplier(t *testing.T) {
	svc, _ := testService()

	created, err := svc.Create(context.Background(), manager(), CreateInput{
		Code:  "SUP-001",
		Name:  "Acme Industrial",
		Email: "sales@acme.test",
	})
	require.NoError(t, err)
	require.NotZero(t, created.ID)
	require.False(t, created.Blacklisted)
}

func TestCreateSupplierDuplicateCode(t *testing.T) {
	svc, _ := testService()

	_, err := svc.Create(context.Background(), manager(), CreateInput{Code: "SUP-001", Name: "Acme", Email: "a@b.test"})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), manager(), CreateInput{Code: "SUP-001", Name: "Other", Email: "c@d.test"})
	require.ErrorIs(t, err, httpx.ErrConflict)
}

func TestBlacklistRoundTrip(t *testing.T) {
	svc, _ := testService()

	created, err := svc.Create(context.Background(), manager(), CreateInput{Code: "SUP-002", Name: "Slowpoke", Email: "s@p.test"})
	require.NoError(t, err)

	blocked, err := svc.Blacklist(context.Background(), manager(), created.ID, "late deliveries")
	require.NoError(t, err)
	require.True(t, blocked.Blacklisted)
	require.NotNil(t, blocked.BlacklistReason)
	require.Equal(t, "late deliveries", *blocked.BlacklistReason)

	cleared, err := svc.Unblacklist(context.Background(), manager(), created.ID)
	require.NoError(t, err)
	require.False(t, cleared.Blacklisted)
	require.Nil(t, cleared.BlacklistReason)
}

func TestUpdateUnknownSupplier(t *testing.T) {
	svc, _ := testService()

	_, err := svc.Update(context.Background(), manager(), 42, UpdateInput{Name: "Ghost", Email: "g@h.test"})
	require.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestRFQHistoryUnknownSupplier(t *testing.T) {
	svc, _ := testService()

	_, err := svc.RFQHistory(context.Background(), 7)
	require.ErrorIs(t, err, httpx.ErrNotFound)
}

package rfq

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/procurex/procurex/internal/platform/httpx"
)

type memoryRepo struct {
	nextID     int64
	byID       map[int64]*RFQ
	rejections []Rejection
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{nextID: 1, byID: map[int64]*RFQ{}}
}

func (m *memoryRepo) Create(_ context.Context, q *RFQ) error {
	prefix := "RFQ"
	if q.Manual {
		prefix = "RFQM"
	}
	q.ID = m.nextID
	m.nextID++
	q.UUID = uuid.New()
	q.Number = fmt.Sprintf("%s-2026-%04d", prefix, q.ID)
	q.Status = StatusSent
	q.SentAt = time.Now()
	copied := *q
	m.byID[q.ID] = &copied
	return nil
}

func (m *memoryRepo) Get(_ context.Context, id int64) (*RFQ, error) {
	q, ok := m.byID[id]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	copied := *q
	return &copied, nil
}

func (m *memoryRepo) GetByUUID(_ context.Context, token uuid.UUID) (*RFQ, error) {
	for _, q := range m.byID {
		if q.UUID == token {
			copied := *q
			return &copied, nil
		}
	}
	return nil, httpx.ErrNotFound
}

func (m *memoryRepo) List(_ context.Context, _ ListFilter) ([]RFQ, int, error) {
	var out []RFQ
	for _, q := range m.byID {
		out = append(out, *q)
	}
	return out, len(out), nil
}

func (m *memoryRepo) ListPending(_ context.Context, _ ListFilter) ([]RFQ, int, error) {
	var out []RFQ
	for _, q := range m.byID {
		for _, st := range pendingStatuses() {
			if q.Status == st {
				out = append(out, *q)
			}
		}
	}
	return out, len(out), nil
}

func (m *memoryRepo) StatusStats(_ context.Context) ([]StatusCount, error) {
	counts := map[string]int{}
	for _, q := range m.byID {
		counts[q.Status]++
	}
	var out []StatusCount
	for status, count := range counts {
		out = append(out, StatusCount{Status: status, Count: count})
	}
	return out, nil
}

func (m *memoryRepo) MarkSeen(_ context.Context, id int64) error {
	q, ok := m.byID[id]
	if !ok {
		return httpx.ErrNotFound
	}
	for _, st := range pendingStatuses() {
		if q.Status == st {
			q.Status = StatusSeen
			now := time.Now()
			q.SeenAt = &now
			return nil
		}
	}
	return httpx.ErrInvalidState
}

func (m *memoryRepo) MarkAnswered(_ context.Context, id int64) error {
	q, ok := m.byID[id]
	if !ok {
		return httpx.ErrNotFound
	}
	if q.Status == StatusRejected || q.Status == StatusExpired {
		return httpx.ErrInvalidState
	}
	q.Status = StatusAnswered
	now := time.Now()
	q.AnsweredAt = &now
	return nil
}

func (m *memoryRepo) Reject(_ context.Context, id int64, reason string) (*Rejection, error) {
	q, ok := m.byID[id]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	if q.Status == StatusAnswered || q.Status == StatusRejected {
		return nil, httpx.ErrInvalidState
	}
	q.Status = StatusRejected
	rejection := Rejection{ID: int64(len(m.rejections) + 1), RFQID: id, Reason: reason, CreatedAt: time.Now()}
	m.rejections = append(m.rejections, rejection)
	return &rejection, nil
}

func (m *memoryRepo) ListDueForReminder(_ context.Context, olderThan time.Time, limit int) ([]RFQ, error) {
	var out []RFQ
	for _, q := range m.byID {
		last := q.SentAt
		if q.LastReminderAt != nil {
			last = *q.LastReminderAt
		}
		if !last.Before(olderThan) {
			continue
		}
		for _, st := range pendingStatuses() {
			if q.Status == st {
				out = append(out, *q)
			}
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *memoryRepo) Escalate(_ context.Context, id int64, fromStatus, toStatus string) (bool, error) {
	q, ok := m.byID[id]
	if !ok || q.Status != fromStatus {
		return false, nil
	}
	q.Status = toStatus
	if toStatus != StatusExpired {
		q.Reminders++
		now := time.Now()
		q.LastReminderAt = &now
	}
	return true, nil
}

func testService() (*Service, *memoryRepo) {
	repo := newMemoryRepo()
	return NewService(slog.Default(), repo, nil, 3), repo
}

func TestMarkSeenTransitionsPending(t *testing.T) {
	svc, repo := testService()
	q := &RFQ{RequestID: 1, SupplierID: 2}
	require.NoError(t, repo.Create(context.Background(), q))

	seen, err := svc.MarkSeen(context.Background(), q.UUID.String())
	require.NoError(t, err)
	require.Equal(t, StatusSeen, seen.Status)
	require.NotNil(t, seen.SeenAt)
}

func TestMarkSeenKeepsAnsweredStatus(t *testing.T) {
	svc, repo := testService()
	q := &RFQ{RequestID: 1, SupplierID: 2}
	require.NoError(t, repo.Create(context.Background(), q))
	require.NoError(t, repo.MarkAnswered(context.Background(), q.ID))

	got, err := svc.MarkSeen(context.Background(), q.UUID.String())
	require.NoError(t, err)
	require.Equal(t, StatusAnswered, got.Status)
}

func TestMarkSeenBadToken(t *testing.T) {
	svc, _ := testService()

	_, err := svc.MarkSeen(context.Background(), "not-a-uuid")
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestRejectRecordsReason(t *testing.T) {
	svc, repo := testService()
	q := &RFQ{RequestID: 1, SupplierID: 2}
	require.NoError(t, repo.Create(context.Background(), q))

	rejection, err := svc.Reject(context.Background(), q.UUID.String(), RejectInput{Reason: "out of stock"})
	require.NoError(t, err)
	require.Equal(t, "out of stock", rejection.Reason)

	got, err := repo.Get(context.Background(), q.ID)
	require.NoError(t, err)
	require.Equal(t, StatusRejected, got.Status)
}

func TestRejectAnsweredFails(t *testing.T) {
	svc, repo := testService()
	q := &RFQ{RequestID: 1, SupplierID: 2}
	require.NoError(t, repo.Create(context.Background(), q))
	require.NoError(t, repo.MarkAnswered(context.Background(), q.ID))

	_, err := svc.Reject(context.Background(), q.UUID.String(), RejectInput{Reason: "late"})
	require.ErrorIs(t, err, httpx.ErrInvalidState)
}

func TestEscalateRemindersChain(t *testing.T) {
	svc, repo := testService()
	q := &RFQ{RequestID: 1, SupplierID: 2}
	require.NoError(t, repo.Create(context.Background(), q))
	repo.byID[q.ID].SentAt = time.Now().Add(-100 * time.Hour)
	repo.byID[q.ID].SupplierEmail = "sales@acme.test"

	expected := []string{StatusReminder1, StatusReminder2, StatusReminder3, StatusExpired}
	for _, want := range expected {
		// Make the previous reminder old enough again.
		if rfq := repo.byID[q.ID]; rfq.LastReminderAt != nil {
			old := time.Now().Add(-100 * time.Hour)
			rfq.LastReminderAt = &old
		}
		escalated, err := svc.EscalateReminders(context.Background(), time.Now().Add(-72*time.Hour), 10)
		require.NoError(t, err)
		require.Len(t, escalated, 1)
		require.Equal(t, want, escalated[0].Status)
		require.Equal(t, "sales@acme.test", escalated[0].SupplierEmail)
		require.Equal(t, want, repo.byID[q.ID].Status)
	}

	// Expired RFQs are no longer picked up.
	escalated, err := svc.EscalateReminders(context.Background(), time.Now(), 10)
	require.NoError(t, err)
	require.Empty(t, escalated)
}

func TestEscalateRemindersHonorsConfiguredLimit(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(slog.Default(), repo, nil, 1)
	q := &RFQ{RequestID: 1, SupplierID: 2}
	require.NoError(t, repo.Create(context.Background(), q))
	repo.byID[q.ID].SentAt = time.Now().Add(-100 * time.Hour)

	escalated, err := svc.EscalateReminders(context.Background(), time.Now().Add(-72*time.Hour), 10)
	require.NoError(t, err)
	require.Len(t, escalated, 1)
	require.Equal(t, StatusReminder1, escalated[0].Status)

	old := time.Now().Add(-100 * time.Hour)
	repo.byID[q.ID].LastReminderAt = &old

	// With a single allowed reminder the next pass expires the RFQ.
	escalated, err = svc.EscalateReminders(context.Background(), time.Now().Add(-72*time.Hour), 10)
	require.NoError(t, err)
	require.Len(t, escalated, 1)
	require.Equal(t, StatusExpired, escalated[0].Status)
}

func TestNextReminderStatus(t *testing.T) {
	require.Equal(t, StatusReminder1, nextReminderStatus(0, 3))
	require.Equal(t, StatusReminder2, nextReminderStatus(1, 3))
	require.Equal(t, StatusReminder3, nextReminderStatus(2, 3))
	require.Equal(t, StatusExpired, nextReminderStatus(3, 3))
	require.Equal(t, StatusExpired, nextReminderStatus(7, 3))
	require.Equal(t, StatusExpired, nextReminderStatus(1, 1))
}

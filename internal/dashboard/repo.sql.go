package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/procurex/procurex/internal/orders"
	"github.com/procurex/procurex/internal/requests"
	"github.com/procurex/procurex/internal/rfq"
)

// Repository defines the read queries behind the dashboard.
type Repository interface {
	Stats(ctx context.Context) (*Stats, error)
	DetailedStats(ctx context.Context) (*DetailedStats, error)
	RFQStatusBreakdown(ctx context.Context) ([]StatusCount, error)
	RecentActivity(ctx context.Context, limit int) ([]Activity, error)
	TopSuppliers(ctx context.Context, limit int) ([]TopSupplier, error)
	StalePendingRFQs(ctx context.Context, olderThan time.Time, limit int) ([]StaleRFQ, error)
	LowResponseSuppliers(ctx context.Context, minRFQs int, maxRatePct float64, limit int) ([]SupplierResponseRate, error)
}

// PGRepository implements Repository backed by PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

func pendingRFQStatuses() []string {
	return []string{rfq.StatusSent, rfq.StatusReminder1, rfq.StatusReminder2, rfq.StatusReminder3}
}

func (r *PGRepository) Stats(ctx context.Context) (*Stats, error) {
	var s Stats
	err := r.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM purchase_requests WHERE status != $1),
			(SELECT COUNT(*) FROM rfqs WHERE status = ANY($2)),
			(SELECT COUNT(*) FROM rfqs WHERE status = $3),
			(SELECT COUNT(*) FROM rfqs WHERE status = $4),
			(SELECT COUNT(*) FROM suppliers WHERE NOT blacklisted),
			(SELECT COUNT(*) FROM suppliers WHERE blacklisted),
			(SELECT COUNT(*) FROM orders WHERE status = ANY($5)),
			COALESCE((SELECT ROUND(AVG(rate), 2) FROM (
				SELECT 100.0 * COUNT(*) FILTER (WHERE status = $3) / COUNT(*) AS rate
				FROM rfqs GROUP BY supplier_id) per_supplier), 0)`,
		requests.StatusCancelled, pendingRFQStatuses(), rfq.StatusAnswered, rfq.StatusRejected,
		[]string{orders.StatusValidated, orders.StatusSent}).
		Scan(&s.ActiveRequests, &s.PendingRFQs, &s.AnsweredRFQs, &s.RejectedRFQs,
			&s.ActiveSuppliers, &s.BlacklistedSuppliers, &s.OpenOrders, &s.AvgResponseRatePct)
	if err != nil {
		return nil, fmt.Errorf("dashboard: stats: %w", err)
	}
	return &s, nil
}

func (r *PGRepository) DetailedStats(ctx context.Context) (*DetailedStats, error) {
	base, err := r.Stats(ctx)
	if err != nil {
		return nil, err
	}
	d := DetailedStats{Stats: *base}
	err = r.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM rfqs),
			(SELECT COUNT(*) FROM orders),
			COALESCE((SELECT SUM(subtotal) FROM orders WHERE status != $1), 0),
			COALESCE((SELECT AVG(EXTRACT(EPOCH FROM (answered_at - sent_at)) / 3600.0)
				FROM rfqs WHERE answered_at IS NOT NULL), 0)`,
		orders.StatusCancelled).
		Scan(&d.TotalRFQs, &d.TotalOrders, &d.OrdersSubtotal, &d.AvgResponseHours)
	if err != nil {
		return nil, fmt.Errorf("dashboard: detailed stats: %w", err)
	}
	return &d, nil
}

func (r *PGRepository) RFQStatusBreakdown(ctx context.Context) ([]StatusCount, error) {
	rows, err := r.pool.Query(ctx, `SELECT status, COUNT(*) FROM rfqs GROUP BY status ORDER BY status`)
	if err != nil {
		return nil, fmt.Errorf("dashboard: rfq breakdown: %w", err)
	}
	defer rows.Close()

	var out []StatusCount
	for rows.Next() {
		var sc StatusCount
		if err := rows.Scan(&sc.Status, &sc.Count); err != nil {
			return nil, fmt.Errorf("dashboard: scan breakdown: %w", err)
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

// RecentActivity merges outbound solicitations and inbound responses
// into one reverse-chronological feed.
func (r *PGRepository) RecentActivity(ctx context.Context, limit int) ([]Activity, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT * FROM (
			(SELECT q.id, 'rfq_sent' AS type, q.number, s.name, q.sent_at AS occurred_at
			 FROM rfqs q JOIN suppliers s ON s.id = q.supplier_id
			 ORDER BY q.sent_at DESC LIMIT $1)
			UNION ALL
			(SELECT h.id, 'response_received' AS type, q.number, s.name, h.submitted_at AS occurred_at
			 FROM response_headers h
			 JOIN rfqs q ON q.id = h.rfq_id
			 JOIN suppliers s ON s.id = h.supplier_id
			 ORDER BY h.submitted_at DESC LIMIT $1)
		) feed ORDER BY occurred_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("dashboard: recent activity: %w", err)
	}
	defer rows.Close()

	var out []Activity
	for rows.Next() {
		var a Activity
		if err := rows.Scan(&a.ID, &a.Type, &a.RFQNumber, &a.SupplierName, &a.OccurredAt); err != nil {
			return nil, fmt.Errorf("dashboard: scan activity: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *PGRepository) TopSuppliers(ctx context.Context, limit int) ([]TopSupplier, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT s.id, s.code, s.name,
			COUNT(q.id),
			COUNT(*) FILTER (WHERE q.status = $1),
			ROUND(100.0 * COUNT(*) FILTER (WHERE q.status = $1) / COUNT(q.id), 2)
		FROM suppliers s
		JOIN rfqs q ON q.supplier_id = s.id
		WHERE NOT s.blacklisted
		GROUP BY s.id, s.code, s.name
		ORDER BY 6 DESC, 5 DESC
		LIMIT $2`, rfq.StatusAnswered, limit)
	if err != nil {
		return nil, fmt.Errorf("dashboard: top suppliers: %w", err)
	}
	defer rows.Close()

	var out []TopSupplier
	for rows.Next() {
		var ts TopSupplier
		err := rows.Scan(&ts.SupplierID, &ts.Code, &ts.Name, &ts.TotalRFQs, &ts.AnsweredRFQs, &ts.ResponseRatePct)
		if err != nil {
			return nil, fmt.Errorf("dashboard: scan supplier: %w", err)
		}
		out = append(out, ts)
	}
	return out, rows.Err()
}

func (r *PGRepository) StalePendingRFQs(ctx context.Context, olderThan time.Time, limit int) ([]StaleRFQ, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT q.id, q.number, s.name, q.sent_at,
			EXTRACT(DAY FROM NOW() - q.sent_at)::int
		FROM rfqs q JOIN suppliers s ON s.id = q.supplier_id
		WHERE q.status = ANY($1) AND q.answered_at IS NULL AND q.sent_at < $2
		ORDER BY q.sent_at ASC
		LIMIT $3`, pendingRFQStatuses(), olderThan, limit)
	if err != nil {
		return nil, fmt.Errorf("dashboard: stale rfqs: %w", err)
	}
	defer rows.Close()

	var out []StaleRFQ
	for rows.Next() {
		var sr StaleRFQ
		if err := rows.Scan(&sr.RFQID, &sr.Number, &sr.SupplierName, &sr.SentAt, &sr.DaysPending); err != nil {
			return nil, fmt.Errorf("dashboard: scan stale rfq: %w", err)
		}
		out = append(out, sr)
	}
	return out, rows.Err()
}

func (r *PGRepository) LowResponseSuppliers(ctx context.Context, minRFQs int, maxRatePct float64, limit int) ([]SupplierResponseRate, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT s.id, s.code, s.name, COUNT(q.id),
			ROUND(100.0 * COUNT(*) FILTER (WHERE q.status = $1) / COUNT(q.id), 2) AS rate,
			s.updated_at
		FROM suppliers s
		JOIN rfqs q ON q.supplier_id = s.id
		WHERE NOT s.blacklisted
		GROUP BY s.id, s.code, s.name, s.updated_at
		HAVING COUNT(q.id) >= $2
			AND 100.0 * COUNT(*) FILTER (WHERE q.status = $1) / COUNT(q.id) < $3
		ORDER BY rate ASC
		LIMIT $4`, rfq.StatusAnswered, minRFQs, maxRatePct, limit)
	if err != nil {
		return nil, fmt.Errorf("dashboard: low response suppliers: %w", err)
	}
	defer rows.Close()

	var out []SupplierResponseRate
	for rows.Next() {
		var sr SupplierResponseRate
		err := rows.Scan(&sr.SupplierID, &sr.Code, &sr.Name, &sr.TotalRFQs, &sr.ResponseRatePct, &sr.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("dashboard: scan response rate: %w", err)
		}
		out = append(out, sr)
	}
	return out, rows.Err()
}

var _ Repository = (*PGRepository)(nil)

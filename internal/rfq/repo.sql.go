package rfq

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/procurex/procurex/internal/platform/db"
	"github.com/procurex/procurex/internal/platform/httpx"
)

// Repository defines persistence operations for RFQs.
type Repository interface {
	Create(ctx context.Context, q *RFQ) error
	Get(ctx context.Context, id int64) (*RFQ, error)
	GetByUUID(ctx context.Context, token uuid.UUID) (*RFQ, error)
	List(ctx context.Context, filter ListFilter) ([]RFQ, int, error)
	ListPending(ctx context.Context, filter ListFilter) ([]RFQ, int, error)
	StatusStats(ctx context.Context) ([]StatusCount, error)
	MarkSeen(ctx context.Context, id int64) error
	MarkAnswered(ctx context.Context, id int64) error
	Reject(ctx context.Context, id int64, reason string) (*Rejection, error)
	ListDueForReminder(ctx context.Context, olderThan time.Time, limit int) ([]RFQ, error)
	Escalate(ctx context.Context, id int64, fromStatus, toStatus string) (bool, error)
}

// PGRepository implements Repository backed by PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const rfqColumns = `q.id, q.uuid, q.number, q.request_id, pr.number, q.supplier_id, s.code, s.name, s.email,
	q.status, q.manual, q.reminders, q.last_reminder_at, q.sent_at, q.seen_at, q.answered_at, q.expires_at`

const rfqJoins = `FROM rfqs q
	JOIN purchase_requests pr ON pr.id = q.request_id
	JOIN suppliers s ON s.id = q.supplier_id`

// Create allocates the next number in the year series and inserts the
// RFQ in one transaction. The unique index on number catches races;
// callers retry on conflict.
func (r *PGRepository) Create(ctx context.Context, q *RFQ) error {
	prefix := "RFQ"
	if q.Manual {
		prefix = "RFQM"
	}
	year := time.Now().Year()

	const attempts = 3
	var lastErr error
	for i := 0; i < attempts; i++ {
		err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
			var maxSeq int
			err := tx.QueryRow(ctx, `
				SELECT COALESCE(MAX(CAST(SPLIT_PART(number, '-', 3) AS INT)), 0)
				FROM rfqs
				WHERE number LIKE $1`, fmt.Sprintf("%s-%d-%%", prefix, year)).Scan(&maxSeq)
			if err != nil {
				return fmt.Errorf("rfq: next number: %w", err)
			}
			q.Number = fmt.Sprintf("%s-%d-%04d", prefix, year, maxSeq+1)
			q.UUID = uuid.New()
			q.Status = StatusSent

			row := tx.QueryRow(ctx, `
				INSERT INTO rfqs (uuid, number, request_id, supplier_id, status, manual, sent_at)
				VALUES ($1, $2, $3, $4, $5, $6, NOW())
				RETURNING id, sent_at`,
				q.UUID, q.Number, q.RequestID, q.SupplierID, q.Status, q.Manual)
			return row.Scan(&q.ID, &q.SentAt)
		})
		if err == nil {
			return nil
		}
		if isUniqueViolation(err) {
			lastErr = err
			continue
		}
		return err
	}
	return fmt.Errorf("rfq: number allocation exhausted retries: %w", lastErr)
}

func (r *PGRepository) Get(ctx context.Context, id int64) (*RFQ, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+rfqColumns+` `+rfqJoins+` WHERE q.id = $1`, id)
	return scanRFQ(row)
}

func (r *PGRepository) GetByUUID(ctx context.Context, token uuid.UUID) (*RFQ, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+rfqColumns+` `+rfqJoins+` WHERE q.uuid = $1`, token)
	return scanRFQ(row)
}

func (r *PGRepository) List(ctx context.Context, filter ListFilter) ([]RFQ, int, error) {
	return r.list(ctx, filter, nil)
}

// ListPending returns RFQs still waiting on an answer.
func (r *PGRepository) ListPending(ctx context.Context, filter ListFilter) ([]RFQ, int, error) {
	return r.list(ctx, filter, pendingStatuses())
}

func (r *PGRepository) list(ctx context.Context, filter ListFilter, statuses []string) ([]RFQ, int, error) {
	where := []string{"1=1"}
	args := []any{}
	if len(statuses) > 0 {
		args = append(args, statuses)
		where = append(where, fmt.Sprintf("q.status = ANY($%d)", len(args)))
	} else if filter.Status != "" {
		args = append(args, filter.Status)
		where = append(where, fmt.Sprintf("q.status = $%d", len(args)))
	}
	if filter.SupplierID != 0 {
		args = append(args, filter.SupplierID)
		where = append(where, fmt.Sprintf("q.supplier_id = $%d", len(args)))
	}
	if filter.RequestID != 0 {
		args = append(args, filter.RequestID)
		where = append(where, fmt.Sprintf("q.request_id = $%d", len(args)))
	}
	clause := strings.Join(where, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) `+rfqJoins+` WHERE `+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("rfq: count: %w", err)
	}

	perPage := filter.PerPage
	if perPage <= 0 {
		perPage = 20
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	args = append(args, perPage, (page-1)*perPage)
	query := fmt.Sprintf(`SELECT %s %s WHERE %s ORDER BY q.sent_at DESC LIMIT $%d OFFSET $%d`,
		rfqColumns, rfqJoins, clause, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("rfq: list: %w", err)
	}
	defer rows.Close()

	var out []RFQ
	for rows.Next() {
		q, err := scanRFQ(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *q)
	}
	return out, total, rows.Err()
}

func (r *PGRepository) StatusStats(ctx context.Context) ([]StatusCount, error) {
	rows, err := r.pool.Query(ctx, `SELECT status, COUNT(*) FROM rfqs GROUP BY status ORDER BY status`)
	if err != nil {
		return nil, fmt.Errorf("rfq: status stats: %w", err)
	}
	defer rows.Close()

	var out []StatusCount
	for rows.Next() {
		var sc StatusCount
		if err := rows.Scan(&sc.Status, &sc.Count); err != nil {
			return nil, fmt.Errorf("rfq: scan stats: %w", err)
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

// MarkSeen transitions sent/reminder RFQs to seen. Later states win.
func (r *PGRepository) MarkSeen(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE rfqs SET status = $2, seen_at = COALESCE(seen_at, NOW())
		WHERE id = $1 AND status = ANY($3)`,
		id, StatusSeen, pendingStatuses())
	if err != nil {
		return fmt.Errorf("rfq: mark seen: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return r.existsOrNotFound(ctx, id)
	}
	return nil
}

// MarkAnswered transitions an RFQ to answered when a response arrives.
func (r *PGRepository) MarkAnswered(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE rfqs SET status = $2, answered_at = NOW()
		WHERE id = $1 AND status NOT IN ($3, $4)`,
		id, StatusAnswered, StatusRejected, StatusExpired)
	if err != nil {
		return fmt.Errorf("rfq: mark answered: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return r.existsOrNotFound(ctx, id)
	}
	return nil
}

// Reject records a rejection row and flips the RFQ status atomically.
func (r *PGRepository) Reject(ctx context.Context, id int64, reason string) (*Rejection, error) {
	var rejection Rejection
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE rfqs SET status = $2 WHERE id = $1 AND status != $2 AND status != $3`,
			id, StatusRejected, StatusAnswered)
		if err != nil {
			return fmt.Errorf("rfq: reject update: %w", err)
		}
		if tag.RowsAffected() == 0 {
			if err := r.existsOrNotFound(ctx, id); err != nil {
				return err
			}
			return httpx.ErrInvalidState
		}
		row := tx.QueryRow(ctx, `
			INSERT INTO rfq_rejections (rfq_id, reason, created_at)
			VALUES ($1, $2, NOW())
			RETURNING id, created_at`, id, reason)
		rejection.RFQID = id
		rejection.Reason = reason
		return row.Scan(&rejection.ID, &rejection.CreatedAt)
	})
	if err != nil {
		return nil, err
	}
	return &rejection, nil
}

// ListDueForReminder returns pending RFQs whose last activity predates
// the threshold. Used by the reminder sweep.
func (r *PGRepository) ListDueForReminder(ctx context.Context, olderThan time.Time, limit int) ([]RFQ, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+rfqColumns+` `+rfqJoins+`
		WHERE q.status = ANY($1)
		  AND COALESCE(q.last_reminder_at, q.sent_at) < $2
		ORDER BY q.sent_at ASC
		LIMIT $3`, pendingStatuses(), olderThan, limit)
	if err != nil {
		return nil, fmt.Errorf("rfq: due for reminder: %w", err)
	}
	defer rows.Close()

	var out []RFQ
	for rows.Next() {
		q, err := scanRFQ(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *q)
	}
	return out, rows.Err()
}

// Escalate moves an RFQ one step along the reminder chain. The status
// guard makes the sweep safe to re-run concurrently.
func (r *PGRepository) Escalate(ctx context.Context, id int64, fromStatus, toStatus string) (bool, error) {
	var tag pgconn.CommandTag
	var err error
	if toStatus == StatusExpired {
		tag, err = r.pool.Exec(ctx, `
			UPDATE rfqs SET status = $3, expires_at = NOW()
			WHERE id = $1 AND status = $2`, id, fromStatus, toStatus)
	} else {
		tag, err = r.pool.Exec(ctx, `
			UPDATE rfqs SET status = $3, reminders = reminders + 1, last_reminder_at = NOW()
			WHERE id = $1 AND status = $2`, id, fromStatus, toStatus)
	}
	if err != nil {
		return false, fmt.Errorf("rfq: escalate: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PGRepository) existsOrNotFound(ctx context.Context, id int64) error {
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM rfqs WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("rfq: exists: %w", err)
	}
	if !exists {
		return httpx.ErrNotFound
	}
	return httpx.ErrInvalidState
}

func scanRFQ(row pgx.Row) (*RFQ, error) {
	var q RFQ
	err := row.Scan(&q.ID, &q.UUID, &q.Number, &q.RequestID, &q.RequestNumber, &q.SupplierID,
		&q.SupplierCode, &q.SupplierName, &q.SupplierEmail, &q.Status, &q.Manual, &q.Reminders,
		&q.LastReminderAt, &q.SentAt, &q.SeenAt, &q.AnsweredAt, &q.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, fmt.Errorf("rfq: scan: %w", err)
	}
	return &q, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ Repository = (*PGRepository)(nil)

package suppliers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/procurex/procurex/internal/platform/httpx"
)

// Repository defines persistence operations for suppliers.
type Repository interface {
	Create(ctx context.Context, s *Supplier) error
	Update(ctx context.Context, s *Supplier) error
	Get(ctx context.Context, id int64) (*Supplier, error)
	GetByCode(ctx context.Context, code string) (*Supplier, error)
	List(ctx context.Context, filter ListFilter) ([]Supplier, int, error)
	SetBlacklist(ctx context.Context, id int64, blacklisted bool, reason *string) error
	RFQHistory(ctx context.Context, supplierID int64) ([]RFQHistoryEntry, error)
}

// PGRepository implements Repository backed by PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const supplierColumns = `id, code, name, email, phone, address, category, blacklisted, blacklist_reason, blacklisted_at, created_at, updated_at`

func (r *PGRepository) Create(ctx context.Context, s *Supplier) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO suppliers (code, name, email, phone, address, category)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`,
		s.Code, s.Name, s.Email, s.Phone, s.Address, s.Category)
	if err := row.Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt); err != nil {
		if isUniqueViolation(err) {
			return httpx.ErrConflict
		}
		return fmt.Errorf("suppliers: insert: %w", err)
	}
	return nil
}

func (r *PGRepository) Update(ctx context.Context, s *Supplier) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE suppliers
		SET name = $2, email = $3, phone = $4, address = $5, category = $6, updated_at = NOW()
		WHERE id = $1`,
		s.ID, s.Name, s.Email, s.Phone, s.Address, s.Category)
	if err != nil {
		return fmt.Errorf("suppliers: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

func (r *PGRepository) Get(ctx context.Context, id int64) (*Supplier, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+supplierColumns+` FROM suppliers WHERE id = $1`, id)
	return scanSupplier(row)
}

func (r *PGRepository) GetByCode(ctx context.Context, code string) (*Supplier, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+supplierColumns+` FROM suppliers WHERE code = $1`, code)
	return scanSupplier(row)
}

func (r *PGRepository) List(ctx context.Context, filter ListFilter) ([]Supplier, int, error) {
	where := []string{"1=1"}
	args := []any{}
	if filter.Search != "" {
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
		where = append(where, fmt.Sprintf("(LOWER(name) LIKE $%d OR LOWER(code) LIKE $%d)", len(args), len(args)))
	}
	if filter.Blacklisted != nil {
		args = append(args, *filter.Blacklisted)
		where = append(where, fmt.Sprintf("blacklisted = $%d", len(args)))
	}
	clause := strings.Join(where, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM suppliers WHERE `+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("suppliers: count: %w", err)
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
	query := fmt.Sprintf(`SELECT %s FROM suppliers WHERE %s ORDER BY name LIMIT $%d OFFSET $%d`,
		supplierColumns, clause, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("suppliers: list: %w", err)
	}
	defer rows.Close()

	var out []Supplier
	for rows.Next() {
		s, err := scanSupplier(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *s)
	}
	return out, total, rows.Err()
}

func (r *PGRepository) SetBlacklist(ctx context.Context, id int64, blacklisted bool, reason *string) error {
	var tag pgconn.CommandTag
	var err error
	if blacklisted {
		tag, err = r.pool.Exec(ctx, `
			UPDATE suppliers
			SET blacklisted = TRUE, blacklist_reason = $2, blacklisted_at = NOW(), updated_at = NOW()
			WHERE id = $1`, id, reason)
	} else {
		tag, err = r.pool.Exec(ctx, `
			UPDATE suppliers
			SET blacklisted = FALSE, blacklist_reason = NULL, blacklisted_at = NULL, updated_at = NOW()
			WHERE id = $1`, id)
	}
	if err != nil {
		return fmt.Errorf("suppliers: set blacklist: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

func (r *PGRepository) RFQHistory(ctx context.Context, supplierID int64) ([]RFQHistoryEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT q.id, q.number, pr.number, q.status, q.sent_at, q.answered_at
		FROM rfqs q
		JOIN purchase_requests pr ON pr.id = q.request_id
		WHERE q.supplier_id = $1
		ORDER BY q.sent_at DESC`, supplierID)
	if err != nil {
		return nil, fmt.Errorf("suppliers: rfq history: %w", err)
	}
	defer rows.Close()

	var out []RFQHistoryEntry
	for rows.Next() {
		var e RFQHistoryEntry
		if err := rows.Scan(&e.RFQID, &e.Number, &e.RequestNumber, &e.Status, &e.SentAt, &e.AnsweredAt); err != nil {
			return nil, fmt.Errorf("suppliers: scan history: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanSupplier(row pgx.Row) (*Supplier, error) {
	var s Supplier
	err := row.Scan(&s.ID, &s.Code, &s.Name, &s.Email, &s.Phone, &s.Address, &s.Category,
		&s.Blacklisted, &s.BlacklistReason, &s.BlacklistedAt, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, fmt.Errorf("suppliers: scan: %w", err)
	}
	return &s, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ Repository = (*PGRepository)(nil)

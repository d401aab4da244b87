package selections

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

// Repository defines persistence operations for selections. A partial
// unique index on (article_code, request_id) WHERE status = 'selected'
// backs the at-most-one-active invariant.
type Repository interface {
	Create(ctx context.Context, sel *Selection) error
	Get(ctx context.Context, id int64) (*Selection, error)
	List(ctx context.Context, filter ListFilter) ([]Selection, int, error)
	Update(ctx context.Context, sel *Selection) error
	Delete(ctx context.Context, id int64) error
	ListAutoSelectCandidates(ctx context.Context) ([]Candidate, error)
	ListActiveBySupplier(ctx context.Context) ([]SupplierGroup, error)
}

// PGRepository implements Repository backed by PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const selectionColumns = `sel.id, sel.article_code, sel.request_id, pr.number, sel.quantity,
	sel.supplier_id, s.code, s.name, sel.response_line_id, sel.unit_price, sel.currency,
	sel.brand, sel.brand_conforms, sel.delivery_date, sel.lead_time_days,
	sel.auto_selected, sel.modified_by, sel.status, sel.created_at, sel.updated_at`

const selectionJoins = `FROM selections sel
	JOIN purchase_requests pr ON pr.id = sel.request_id
	JOIN suppliers s ON s.id = sel.supplier_id`

func (r *PGRepository) Create(ctx context.Context, sel *Selection) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO selections (article_code, request_id, quantity, supplier_id, response_line_id,
			unit_price, currency, brand, brand_conforms, delivery_date, lead_time_days,
			auto_selected, modified_by, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id, created_at, updated_at`,
		sel.ArticleCode, sel.RequestID, sel.Quantity, sel.SupplierID, sel.ResponseLineID,
		sel.UnitPrice, sel.Currency, sel.Brand, sel.BrandConforms, sel.DeliveryDate, sel.LeadTimeDays,
		sel.AutoSelected, sel.ModifiedBy, StatusSelected)
	if err := row.Scan(&sel.ID, &sel.CreatedAt, &sel.UpdatedAt); err != nil {
		if isUniqueViolation(err) {
			return httpx.ErrConflict
		}
		return fmt.Errorf("selections: insert: %w", err)
	}
	sel.Status = StatusSelected
	return nil
}

func (r *PGRepository) Get(ctx context.Context, id int64) (*Selection, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+selectionColumns+` `+selectionJoins+` WHERE sel.id = $1`, id)
	return scanSelection(row)
}

func (r *PGRepository) List(ctx context.Context, filter ListFilter) ([]Selection, int, error) {
	where := []string{"1=1"}
	args := []any{}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where = append(where, fmt.Sprintf("sel.status = $%d", len(args)))
	}
	if filter.SupplierID != 0 {
		args = append(args, filter.SupplierID)
		where = append(where, fmt.Sprintf("sel.supplier_id = $%d", len(args)))
	}
	if filter.RequestID != 0 {
		args = append(args, filter.RequestID)
		where = append(where, fmt.Sprintf("sel.request_id = $%d", len(args)))
	}
	if filter.Article != "" {
		args = append(args, filter.Article)
		where = append(where, fmt.Sprintf("sel.article_code = $%d", len(args)))
	}
	clause := strings.Join(where, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) `+selectionJoins+` WHERE `+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("selections: count: %w", err)
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
	query := fmt.Sprintf(`SELECT %s %s WHERE %s ORDER BY sel.created_at DESC LIMIT $%d OFFSET $%d`,
		selectionColumns, selectionJoins, clause, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("selections: list: %w", err)
	}
	defer rows.Close()

	var out []Selection
	for rows.Next() {
		sel, err := scanSelection(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *sel)
	}
	return out, total, rows.Err()
}

// Update replaces the offer fields of an active selection. The status
// guard in the WHERE clause enforces immutability after conversion.
func (r *PGRepository) Update(ctx context.Context, sel *Selection) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE selections
		SET quantity = $2, supplier_id = $3, response_line_id = $4, unit_price = $5,
		    currency = $6, brand = $7, brand_conforms = $8, lead_time_days = $9,
		    auto_selected = FALSE, modified_by = $10, updated_at = NOW()
		WHERE id = $1 AND status = $11`,
		sel.ID, sel.Quantity, sel.SupplierID, sel.ResponseLineID, sel.UnitPrice,
		sel.Currency, sel.Brand, sel.BrandConforms, sel.LeadTimeDays,
		sel.ModifiedBy, StatusSelected)
	if err != nil {
		return fmt.Errorf("selections: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return r.existsOrNotFound(ctx, sel.ID)
	}
	return nil
}

func (r *PGRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM selections WHERE id = $1 AND status = $2`, id, StatusSelected)
	if err != nil {
		return fmt.Errorf("selections: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return r.existsOrNotFound(ctx, id)
	}
	return nil
}

// ListAutoSelectCandidates returns, for every (article, request) pair
// with priced offers and no active or converted selection, the
// minimum-priced offer.
func (r *PGRepository) ListAutoSelectCandidates(ctx context.Context) ([]Candidate, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT ON (pr.article_code, pr.id)
		       pr.article_code, pr.id, pr.quantity,
		       rh.supplier_id, rl.id, rl.unit_price, rh.currency,
		       rl.brand, rl.brand_conforms, rl.delivery_date, rl.lead_time_days
		FROM response_lines rl
		JOIN response_headers rh ON rh.id = rl.header_id
		JOIN purchase_requests pr ON pr.id = rl.request_id
		WHERE rl.unit_price IS NOT NULL
		  AND NOT EXISTS (
		      SELECT 1 FROM selections sel
		      WHERE sel.article_code = pr.article_code AND sel.request_id = pr.id
		  )
		ORDER BY pr.article_code, pr.id, rl.unit_price ASC, rl.id ASC`)
	if err != nil {
		return nil, fmt.Errorf("selections: candidates: %w", err)
	}
	defer rows.Close()

	var out []Candidate
	for rows.Next() {
		var c Candidate
		err := rows.Scan(&c.ArticleCode, &c.RequestID, &c.Quantity,
			&c.SupplierID, &c.ResponseLineID, &c.UnitPrice, &c.Currency,
			&c.Brand, &c.BrandConforms, &c.DeliveryDate, &c.LeadTimeDays)
		if err != nil {
			return nil, fmt.Errorf("selections: scan candidate: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ListActiveBySupplier groups active selections for the pre-order view.
func (r *PGRepository) ListActiveBySupplier(ctx context.Context) ([]SupplierGroup, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+selectionColumns+` `+selectionJoins+`
		WHERE sel.status = $1
		ORDER BY s.code, sel.article_code`, StatusSelected)
	if err != nil {
		return nil, fmt.Errorf("selections: active by supplier: %w", err)
	}
	defer rows.Close()

	var groups []SupplierGroup
	index := map[int64]int{}
	for rows.Next() {
		sel, err := scanSelection(rows)
		if err != nil {
			return nil, err
		}
		i, ok := index[sel.SupplierID]
		if !ok {
			i = len(groups)
			index[sel.SupplierID] = i
			groups = append(groups, SupplierGroup{
				SupplierID:   sel.SupplierID,
				SupplierCode: sel.SupplierCode,
				SupplierName: sel.SupplierName,
			})
		}
		groups[i].Selections = append(groups[i].Selections, *sel)
		groups[i].TotalAmount += sel.UnitPrice * sel.Quantity
	}
	return groups, rows.Err()
}

func (r *PGRepository) existsOrNotFound(ctx context.Context, id int64) error {
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM selections WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("selections: exists: %w", err)
	}
	if !exists {
		return httpx.ErrNotFound
	}
	return httpx.ErrInvalidState
}

func scanSelection(row pgx.Row) (*Selection, error) {
	var sel Selection
	err := row.Scan(&sel.ID, &sel.ArticleCode, &sel.RequestID, &sel.RequestNumber, &sel.Quantity,
		&sel.SupplierID, &sel.SupplierCode, &sel.SupplierName, &sel.ResponseLineID, &sel.UnitPrice,
		&sel.Currency, &sel.Brand, &sel.BrandConforms, &sel.DeliveryDate, &sel.LeadTimeDays,
		&sel.AutoSelected, &sel.ModifiedBy, &sel.Status, &sel.CreatedAt, &sel.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, fmt.Errorf("selections: scan: %w", err)
	}
	return &sel, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ Repository = (*PGRepository)(nil)

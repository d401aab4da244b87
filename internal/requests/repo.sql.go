package requests

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/procurex/procurex/internal/platform/httpx"
)

// Repository defines read access to purchase requests.
type Repository interface {
	List(ctx context.Context, filter ListFilter) ([]PurchaseRequest, int, error)
	GetByNumber(ctx context.Context, number string) (*PurchaseRequest, error)
	ListAwaitingDecision(ctx context.Context, filter ListFilter) ([]AwaitingRequest, int, error)
}

// PGRepository implements Repository backed by PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const requestColumns = `id, number, article_code, designation, quantity, unit, brand, category, priority, status, needed_by, created_at, updated_at`

func buildFilter(filter ListFilter) (string, []any) {
	where := []string{"1=1"}
	args := []any{}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Priority != "" {
		args = append(args, filter.Priority)
		where = append(where, fmt.Sprintf("priority = $%d", len(args)))
	}
	// Buyer visibility is restricted to assigned categories.
	if len(filter.Categories) > 0 {
		args = append(args, filter.Categories)
		where = append(where, fmt.Sprintf("category = ANY($%d)", len(args)))
	}
	return strings.Join(where, " AND "), args
}

func (r *PGRepository) List(ctx context.Context, filter ListFilter) ([]PurchaseRequest, int, error) {
	clause, args := buildFilter(filter)

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM purchase_requests WHERE `+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("requests: count: %w", err)
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
	query := fmt.Sprintf(`SELECT %s FROM purchase_requests WHERE %s
		ORDER BY priority DESC, needed_by ASC NULLS LAST, created_at ASC
		LIMIT $%d OFFSET $%d`, requestColumns, clause, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("requests: list: %w", err)
	}
	defer rows.Close()

	var out []PurchaseRequest
	for rows.Next() {
		pr, err := scanRequest(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *pr)
	}
	return out, total, rows.Err()
}

func (r *PGRepository) GetByNumber(ctx context.Context, number string) (*PurchaseRequest, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+requestColumns+` FROM purchase_requests WHERE number = $1`, number)
	return scanRequest(row)
}

// ListAwaitingDecision returns requests with at least one answered RFQ
// and no generated order, with per-request response statistics.
func (r *PGRepository) ListAwaitingDecision(ctx context.Context, filter ListFilter) ([]AwaitingRequest, int, error) {
	clause, args := buildFilter(filter)
	base := fmt.Sprintf(`
		FROM purchase_requests pr
		WHERE %s
		  AND pr.status NOT IN ('order_created', 'cancelled')
		  AND EXISTS (SELECT 1 FROM rfqs q WHERE q.request_id = pr.id AND q.status = 'answered')
		  AND NOT EXISTS (SELECT 1 FROM order_lines ol WHERE ol.request_id = pr.id)`, clause)

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) `+base, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("requests: count awaiting: %w", err)
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
	query := fmt.Sprintf(`
		SELECT pr.%s,
		       (SELECT COUNT(DISTINCT q.supplier_id) FROM rfqs q WHERE q.request_id = pr.id),
		       (SELECT COUNT(DISTINCT q.supplier_id) FROM rfqs q WHERE q.request_id = pr.id AND q.status = 'answered'),
		       (SELECT MIN(rl.unit_price) * pr.quantity
		        FROM response_lines rl
		        WHERE rl.request_id = pr.id AND rl.unit_price IS NOT NULL),
		       (SELECT MAX(rl.unit_price) * pr.quantity
		        FROM response_lines rl
		        WHERE rl.request_id = pr.id AND rl.unit_price IS NOT NULL),
		       (SELECT MIN(rh.submitted_at)
		        FROM response_headers rh
		        JOIN rfqs q ON q.id = rh.rfq_id
		        WHERE q.request_id = pr.id),
		       (SELECT MAX(rh.submitted_at)
		        FROM response_headers rh
		        JOIN rfqs q ON q.id = rh.rfq_id
		        WHERE q.request_id = pr.id)
		%s
		ORDER BY pr.priority DESC, pr.needed_by ASC NULLS LAST, pr.created_at ASC
		LIMIT $%d OFFSET $%d`,
		strings.ReplaceAll(requestColumns, ", ", ", pr."), base, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("requests: list awaiting: %w", err)
	}
	defer rows.Close()

	var out []AwaitingRequest
	for rows.Next() {
		var a AwaitingRequest
		err := rows.Scan(&a.ID, &a.Number, &a.ArticleCode, &a.Designation, &a.Quantity, &a.Unit,
			&a.Brand, &a.Category, &a.Priority, &a.Status, &a.NeededBy, &a.CreatedAt, &a.UpdatedAt,
			&a.SuppliersSolicited, &a.ResponsesReceived,
			&a.AmountMin, &a.AmountMax, &a.FirstResponseAt, &a.LastResponseAt)
		if err != nil {
			return nil, 0, fmt.Errorf("requests: scan awaiting: %w", err)
		}
		out = append(out, a)
	}
	return out, total, rows.Err()
}

func scanRequest(row pgx.Row) (*PurchaseRequest, error) {
	var pr PurchaseRequest
	err := row.Scan(&pr.ID, &pr.Number, &pr.ArticleCode, &pr.Designation, &pr.Quantity, &pr.Unit,
		&pr.Brand, &pr.Category, &pr.Priority, &pr.Status, &pr.NeededBy, &pr.CreatedAt, &pr.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, fmt.Errorf("requests: scan: %w", err)
	}
	return &pr, nil
}

var _ Repository = (*PGRepository)(nil)

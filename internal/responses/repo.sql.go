package responses

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/procurex/procurex/internal/platform/db"
	"github.com/procurex/procurex/internal/platform/httpx"
)

// Repository defines persistence operations for supplier responses.
type Repository interface {
	CreateWithLines(ctx context.Context, h *Header) error
	Get(ctx context.Context, id int64) (*Header, error)
	GetByRFQ(ctx context.Context, rfqID int64) (*Header, error)
	List(ctx context.Context, filter ListFilter) ([]Header, int, error)
	CompareArticle(ctx context.Context, articleCode, requestNumber string) ([]ComparisonOffer, error)
}

// PGRepository implements Repository backed by PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const headerColumns = `rh.id, rh.rfq_id, q.number, rh.supplier_id, s.code, s.name,
	rh.currency, rh.payment_terms, rh.manual, rh.submitted_at`

const headerJoins = `FROM response_headers rh
	JOIN rfqs q ON q.id = rh.rfq_id
	JOIN suppliers s ON s.id = rh.supplier_id`

// CreateWithLines inserts the header and all lines atomically.
func (r *PGRepository) CreateWithLines(ctx context.Context, h *Header) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
			INSERT INTO response_headers (rfq_id, supplier_id, currency, payment_terms, manual, submitted_at)
			VALUES ($1, $2, $3, $4, $5, NOW())
			RETURNING id, submitted_at`,
			h.RFQID, h.SupplierID, h.Currency, h.PaymentTerms, h.Manual)
		if err := row.Scan(&h.ID, &h.SubmittedAt); err != nil {
			return fmt.Errorf("responses: insert header: %w", err)
		}
		for i := range h.Lines {
			line := &h.Lines[i]
			line.HeaderID = h.ID
			row := tx.QueryRow(ctx, `
				INSERT INTO response_lines (header_id, request_id, article_code, unit_price,
					available_qty, brand, brand_conforms, delivery_date, lead_time_days)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
				RETURNING id`,
				line.HeaderID, line.RequestID, line.ArticleCode, line.UnitPrice,
				line.AvailableQty, line.Brand, line.BrandConforms, line.DeliveryDate, line.LeadTimeDays)
			if err := row.Scan(&line.ID); err != nil {
				return fmt.Errorf("responses: insert line: %w", err)
			}
		}
		return nil
	})
}

func (r *PGRepository) Get(ctx context.Context, id int64) (*Header, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+headerColumns+` `+headerJoins+` WHERE rh.id = $1`, id)
	h, err := scanHeader(row)
	if err != nil {
		return nil, err
	}
	if err := r.loadLines(ctx, h); err != nil {
		return nil, err
	}
	return h, nil
}

func (r *PGRepository) GetByRFQ(ctx context.Context, rfqID int64) (*Header, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+headerColumns+` `+headerJoins+` WHERE rh.rfq_id = $1`, rfqID)
	h, err := scanHeader(row)
	if err != nil {
		return nil, err
	}
	if err := r.loadLines(ctx, h); err != nil {
		return nil, err
	}
	return h, nil
}

func (r *PGRepository) List(ctx context.Context, filter ListFilter) ([]Header, int, error) {
	where := []string{"1=1"}
	args := []any{}
	if filter.SupplierID != 0 {
		args = append(args, filter.SupplierID)
		where = append(where, fmt.Sprintf("rh.supplier_id = $%d", len(args)))
	}
	if filter.RFQID != 0 {
		args = append(args, filter.RFQID)
		where = append(where, fmt.Sprintf("rh.rfq_id = $%d", len(args)))
	}
	clause := strings.Join(where, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) `+headerJoins+` WHERE `+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("responses: count: %w", err)
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
	query := fmt.Sprintf(`SELECT %s %s WHERE %s ORDER BY rh.submitted_at DESC LIMIT $%d OFFSET $%d`,
		headerColumns, headerJoins, clause, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("responses: list: %w", err)
	}
	defer rows.Close()

	var out []Header
	for rows.Next() {
		h, err := scanHeader(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *h)
	}
	return out, total, rows.Err()
}

// CompareArticle returns all priced offers for an article sorted by
// unit price ascending, with the demanded quantity and reference price.
func (r *PGRepository) CompareArticle(ctx context.Context, articleCode, requestNumber string) ([]ComparisonOffer, error) {
	where := []string{"rl.article_code = $1", "rl.unit_price IS NOT NULL"}
	args := []any{articleCode}
	if requestNumber != "" {
		args = append(args, requestNumber)
		where = append(where, fmt.Sprintf("pr.number = $%d", len(args)))
	}

	query := fmt.Sprintf(`
		SELECT rl.id, rl.header_id, rl.request_id, pr.number, rl.article_code, pr.designation,
		       rl.unit_price, rl.available_qty, rl.brand, rl.brand_conforms, rl.delivery_date,
		       rl.lead_time_days, ref.base_price,
		       q.number, s.code, s.name, rh.currency, pr.quantity
		FROM response_lines rl
		JOIN response_headers rh ON rh.id = rl.header_id
		JOIN rfqs q ON q.id = rh.rfq_id
		JOIN suppliers s ON s.id = rh.supplier_id
		JOIN purchase_requests pr ON pr.id = rl.request_id
		LEFT JOIN article_reference_prices ref ON ref.article_code = rl.article_code
		WHERE %s
		ORDER BY rl.unit_price ASC`, strings.Join(where, " AND "))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("responses: compare article: %w", err)
	}
	defer rows.Close()

	var out []ComparisonOffer
	for rows.Next() {
		var o ComparisonOffer
		err := rows.Scan(&o.ID, &o.HeaderID, &o.RequestID, &o.RequestNumber, &o.ArticleCode, &o.Designation,
			&o.UnitPrice, &o.AvailableQty, &o.Brand, &o.BrandConforms, &o.DeliveryDate,
			&o.LeadTimeDays, &o.ReferencePrice,
			&o.RFQNumber, &o.SupplierCode, &o.SupplierName, &o.Currency, &o.DemandedQty)
		if err != nil {
			return nil, fmt.Errorf("responses: scan comparison: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *PGRepository) loadLines(ctx context.Context, h *Header) error {
	rows, err := r.pool.Query(ctx, `
		SELECT rl.id, rl.header_id, rl.request_id, pr.number, rl.article_code, pr.designation,
		       rl.unit_price, rl.available_qty, rl.brand, rl.brand_conforms, rl.delivery_date,
		       rl.lead_time_days, ref.base_price
		FROM response_lines rl
		JOIN purchase_requests pr ON pr.id = rl.request_id
		LEFT JOIN article_reference_prices ref ON ref.article_code = rl.article_code
		WHERE rl.header_id = $1
		ORDER BY rl.id`, h.ID)
	if err != nil {
		return fmt.Errorf("responses: load lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var l Line
		err := rows.Scan(&l.ID, &l.HeaderID, &l.RequestID, &l.RequestNumber, &l.ArticleCode, &l.Designation,
			&l.UnitPrice, &l.AvailableQty, &l.Brand, &l.BrandConforms, &l.DeliveryDate,
			&l.LeadTimeDays, &l.ReferencePrice)
		if err != nil {
			return fmt.Errorf("responses: scan line: %w", err)
		}
		h.Lines = append(h.Lines, l)
	}
	return rows.Err()
}

func scanHeader(row pgx.Row) (*Header, error) {
	var h Header
	err := row.Scan(&h.ID, &h.RFQID, &h.RFQNumber, &h.SupplierID, &h.SupplierCode, &h.SupplierName,
		&h.Currency, &h.PaymentTerms, &h.Manual, &h.SubmittedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, fmt.Errorf("responses: scan header: %w", err)
	}
	return &h, nil
}

var _ Repository = (*PGRepository)(nil)

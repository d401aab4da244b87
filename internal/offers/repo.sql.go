package offers

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository reads the joined response rows and awaiting suppliers that
// feed the comparison dashboard.
type Repository interface {
	FetchRawRows(ctx context.Context, filter Filter) ([]RawRow, error)
	AwaitingSuppliers(ctx context.Context, filter Filter) (map[string][]AwaitingSupplier, error)
}

// Filter narrows the comparison to a request or a set of categories.
type Filter struct {
	RequestNumber string
	ArticleCode   string
	Categories    []string
}

// PGRepository implements Repository backed by PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

func (f Filter) clause(alias string, args *[]any) string {
	where := []string{"1=1"}
	if f.RequestNumber != "" {
		*args = append(*args, f.RequestNumber)
		where = append(where, fmt.Sprintf("%s.number = $%d", alias, len(*args)))
	}
	if f.ArticleCode != "" {
		*args = append(*args, f.ArticleCode)
		where = append(where, fmt.Sprintf("%s.article_code = $%d", alias, len(*args)))
	}
	if len(f.Categories) > 0 {
		*args = append(*args, f.Categories)
		where = append(where, fmt.Sprintf("%s.category = ANY($%d)", alias, len(*args)))
	}
	return strings.Join(where, " AND ")
}

// FetchRawRows returns priced response rows whose (article, request)
// pair has no selection yet, from solicited and manual sources alike.
func (r *PGRepository) FetchRawRows(ctx context.Context, filter Filter) ([]RawRow, error) {
	args := []any{}
	clause := filter.clause("pr", &args)

	query := fmt.Sprintf(`
		SELECT pr.id, pr.number, pr.article_code, pr.designation, pr.quantity,
		       s.id, s.code, s.name,
		       rh.id, rl.id, rh.manual,
		       rl.unit_price, rl.available_qty, rh.currency,
		       rl.brand, rl.brand_conforms, rl.delivery_date, rl.lead_time_days,
		       ref.base_price, rh.submitted_at
		FROM response_lines rl
		JOIN response_headers rh ON rh.id = rl.header_id
		JOIN suppliers s ON s.id = rh.supplier_id
		JOIN purchase_requests pr ON pr.id = rl.request_id
		LEFT JOIN article_reference_prices ref ON ref.article_code = pr.article_code
		WHERE %s
		  AND rl.unit_price IS NOT NULL
		  AND NOT EXISTS (
		      SELECT 1 FROM selections sel
		      WHERE sel.article_code = pr.article_code AND sel.request_id = pr.id
		  )
		ORDER BY pr.article_code, rh.submitted_at ASC, rl.id ASC`, clause)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("offers: fetch rows: %w", err)
	}
	defer rows.Close()

	var out []RawRow
	for rows.Next() {
		var row RawRow
		err := rows.Scan(&row.RequestID, &row.RequestNumber, &row.ArticleCode, &row.Designation, &row.DemandedQty,
			&row.SupplierID, &row.SupplierCode, &row.SupplierName,
			&row.HeaderID, &row.ResponseLineID, &row.Manual,
			&row.UnitPrice, &row.AvailableQty, &row.Currency,
			&row.Brand, &row.BrandConforms, &row.DeliveryDate, &row.LeadTimeDays,
			&row.ReferencePrice, &row.SubmittedAt)
		if err != nil {
			return nil, fmt.Errorf("offers: scan row: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// AwaitingSuppliers returns, per article, suppliers whose solicitation
// is still pending: no response, no rejection, RFQ sent or reminded.
func (r *PGRepository) AwaitingSuppliers(ctx context.Context, filter Filter) (map[string][]AwaitingSupplier, error) {
	args := []any{}
	clause := filter.clause("pr", &args)

	query := fmt.Sprintf(`
		SELECT pr.article_code, s.id, s.code, s.name, q.number, q.status
		FROM rfqs q
		JOIN suppliers s ON s.id = q.supplier_id
		JOIN purchase_requests pr ON pr.id = q.request_id
		WHERE %s
		  AND q.status IN ('sent', 'seen', 'reminder_1', 'reminder_2', 'reminder_3')
		  AND NOT EXISTS (SELECT 1 FROM response_headers rh WHERE rh.rfq_id = q.id)
		  AND NOT EXISTS (SELECT 1 FROM rfq_rejections rej WHERE rej.rfq_id = q.id)
		ORDER BY pr.article_code, s.code`, clause)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("offers: awaiting suppliers: %w", err)
	}
	defer rows.Close()

	out := map[string][]AwaitingSupplier{}
	for rows.Next() {
		var article string
		var a AwaitingSupplier
		if err := rows.Scan(&article, &a.SupplierID, &a.SupplierCode, &a.SupplierName, &a.RFQNumber, &a.RFQStatus); err != nil {
			return nil, fmt.Errorf("offers: scan awaiting: %w", err)
		}
		out[article] = append(out[article], a)
	}
	return out, rows.Err()
}

var _ Repository = (*PGRepository)(nil)

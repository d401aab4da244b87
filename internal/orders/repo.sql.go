package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/procurex/procurex/internal/platform/db"
	"github.com/procurex/procurex/internal/platform/httpx"
	"github.com/procurex/procurex/internal/selections"
)

// Repository defines persistence operations for orders.
type Repository interface {
	CreateFromSelections(ctx context.Context, order *Order, selectionIDs []int64, taxRatePct float64) error
	Get(ctx context.Context, id int64) (*Order, error)
	GetByNumber(ctx context.Context, number string) (*Order, error)
	List(ctx context.Context, filter ListFilter) ([]Order, int, error)
	UpdateStatus(ctx context.Context, id int64, fromStatus, toStatus string) error
}

// PGRepository implements Repository backed by PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const orderColumns = `o.id, o.number, o.supplier_id, s.code, s.name, s.email, s.phone,
	o.status, o.currency, o.subtotal, o.tax_rate_pct, o.tax_amount, o.total,
	o.payment_terms, o.delivery_to, o.project, o.comment, o.created_by,
	o.created_at, o.updated_at, o.validated_at`

const orderJoins = `FROM orders o JOIN suppliers s ON s.id = o.supplier_id`

// CreateFromSelections performs the full generation transaction:
// lock and validate the selections, allocate the next number for the
// year, compute totals, insert header and lines, flip selections to
// order_generated, and advance the source requests. The unique index
// on number backs concurrent allocation; the caller retries on
// Conflict. Aborted attempts leave gaps in the sequence, which is
// acceptable.
func (r *PGRepository) CreateFromSelections(ctx context.Context, order *Order, selectionIDs []int64, taxRatePct float64) error {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			SELECT code, name, email, phone FROM suppliers WHERE id = $1`, order.SupplierID).
			Scan(&order.SupplierCode, &order.SupplierName, &order.SupplierEmail, &order.SupplierPhone)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("%w: unknown supplier", httpx.ErrValidation)
			}
			return fmt.Errorf("orders: load supplier: %w", err)
		}

		rows, err := tx.Query(ctx, `
			SELECT sel.id, sel.article_code, sel.request_id, pr.number, sel.quantity, sel.supplier_id,
			       sel.response_line_id, sel.unit_price, sel.currency, sel.brand,
			       sel.delivery_date, sel.status, pr.designation, pr.unit
			FROM selections sel
			JOIN purchase_requests pr ON pr.id = sel.request_id
			WHERE sel.id = ANY($1)
			FOR UPDATE OF sel`, selectionIDs)
		if err != nil {
			return fmt.Errorf("orders: lock selections: %w", err)
		}

		var lines []Line
		var requestIDs []int64
		currency := ""
		for rows.Next() {
			var line Line
			var selSupplierID int64
			var selStatus, selCurrency string
			err := rows.Scan(&line.SelectionID, &line.ArticleCode, &line.RequestID, &line.RequestNumber,
				&line.Quantity, &selSupplierID, &line.ResponseLineID, &line.UnitPrice, &selCurrency,
				&line.Brand, &line.DeliveryDate, &selStatus, &line.Designation, &line.Unit)
			if err != nil {
				rows.Close()
				return fmt.Errorf("orders: scan selection: %w", err)
			}
			if selSupplierID != order.SupplierID || selStatus != selections.StatusSelected {
				rows.Close()
				return fmt.Errorf("%w: invalid or already-converted selections", httpx.ErrValidation)
			}
			if currency == "" {
				currency = selCurrency
			}
			lines = append(lines, line)
			requestIDs = append(requestIDs, line.RequestID)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("orders: selections: %w", err)
		}
		if len(lines) != len(selectionIDs) {
			return fmt.Errorf("%w: invalid or already-converted selections", httpx.ErrValidation)
		}

		totals := computeTotals(lines, taxRatePct)
		order.Currency = currency
		order.Subtotal = totals.Subtotal
		order.TaxRatePct = taxRatePct
		order.TaxAmount = totals.TaxAmount
		order.Total = totals.Total

		year := time.Now().Year()
		var maxSeq int
		err = tx.QueryRow(ctx, `
			SELECT COALESCE(MAX(CAST(SPLIT_PART(number, '-', 3) AS INT)), 0)
			FROM orders WHERE number LIKE $1`, fmt.Sprintf("ORD-%d-%%", year)).Scan(&maxSeq)
		if err != nil {
			return fmt.Errorf("orders: next number: %w", err)
		}
		order.Number = fmt.Sprintf("ORD-%d-%04d", year, maxSeq+1)
		order.Status = StatusDraft

		row := tx.QueryRow(ctx, `
			INSERT INTO orders (number, supplier_id, status, currency, subtotal, tax_rate_pct,
				tax_amount, total, payment_terms, delivery_to, project, comment, created_by)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			RETURNING id, created_at, updated_at`,
			order.Number, order.SupplierID, order.Status, order.Currency, order.Subtotal,
			order.TaxRatePct, order.TaxAmount, order.Total, order.PaymentTerms,
			order.DeliveryTo, order.Project, order.Comment, order.CreatedBy)
		if err := row.Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt); err != nil {
			if isUniqueViolation(err) {
				return httpx.ErrConflict
			}
			return fmt.Errorf("orders: insert header: %w", err)
		}

		for i := range lines {
			line := &lines[i]
			line.OrderID = order.ID
			row := tx.QueryRow(ctx, `
				INSERT INTO order_lines (order_id, selection_id, response_line_id, request_id,
					request_number, article_code, designation, quantity, unit, unit_price,
					tax_pct, amount_net, amount_tax, amount_total, brand, delivery_date)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
				RETURNING id`,
				line.OrderID, line.SelectionID, line.ResponseLineID, line.RequestID,
				line.RequestNumber, line.ArticleCode, line.Designation, line.Quantity, line.Unit,
				line.UnitPrice, line.TaxPct, line.AmountNet, line.AmountTax, line.AmountTotal,
				line.Brand, line.DeliveryDate)
			if err := row.Scan(&line.ID); err != nil {
				return fmt.Errorf("orders: insert line: %w", err)
			}
		}

		tag, err := tx.Exec(ctx, `
			UPDATE selections SET status = $2, updated_at = NOW()
			WHERE id = ANY($1) AND status = $3`,
			selectionIDs, selections.StatusOrderGenerated, selections.StatusSelected)
		if err != nil {
			return fmt.Errorf("orders: convert selections: %w", err)
		}
		if int(tag.RowsAffected()) != len(selectionIDs) {
			return fmt.Errorf("%w: invalid or already-converted selections", httpx.ErrValidation)
		}

		if _, err := tx.Exec(ctx, `
			UPDATE purchase_requests SET status = 'order_created', updated_at = NOW()
			WHERE id = ANY($1)`, requestIDs); err != nil {
			return fmt.Errorf("orders: advance requests: %w", err)
		}

		order.Lines = lines
		return nil
	})
	return err
}

func (r *PGRepository) Get(ctx context.Context, id int64) (*Order, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+orderColumns+` `+orderJoins+` WHERE o.id = $1`, id)
	return r.load(ctx, row)
}

func (r *PGRepository) GetByNumber(ctx context.Context, number string) (*Order, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+orderColumns+` `+orderJoins+` WHERE o.number = $1`, number)
	return r.load(ctx, row)
}

func (r *PGRepository) load(ctx context.Context, row pgx.Row) (*Order, error) {
	o, err := scanOrder(row)
	if err != nil {
		return nil, err
	}
	if err := r.loadLines(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *PGRepository) List(ctx context.Context, filter ListFilter) ([]Order, int, error) {
	where := []string{"1=1"}
	args := []any{}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where = append(where, fmt.Sprintf("o.status = $%d", len(args)))
	}
	if filter.SupplierID != 0 {
		args = append(args, filter.SupplierID)
		where = append(where, fmt.Sprintf("o.supplier_id = $%d", len(args)))
	}
	clause := strings.Join(where, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) `+orderJoins+` WHERE `+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("orders: count: %w", err)
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
	query := fmt.Sprintf(`SELECT %s %s WHERE %s ORDER BY o.created_at DESC LIMIT $%d OFFSET $%d`,
		orderColumns, orderJoins, clause, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("orders: list: %w", err)
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *o)
	}
	return out, total, rows.Err()
}

// UpdateStatus advances the order lifecycle with a guarded transition.
func (r *PGRepository) UpdateStatus(ctx context.Context, id int64, fromStatus, toStatus string) error {
	query := `UPDATE orders SET status = $3, updated_at = NOW() WHERE id = $1 AND status = $2`
	if toStatus == StatusValidated {
		query = `UPDATE orders SET status = $3, validated_at = NOW(), updated_at = NOW() WHERE id = $1 AND status = $2`
	}
	tag, err := r.pool.Exec(ctx, query, id, fromStatus, toStatus)
	if err != nil {
		return fmt.Errorf("orders: update status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM orders WHERE id = $1)`, id).Scan(&exists); err != nil {
			return fmt.Errorf("orders: exists: %w", err)
		}
		if !exists {
			return httpx.ErrNotFound
		}
		return httpx.ErrInvalidState
	}
	return nil
}

func (r *PGRepository) loadLines(ctx context.Context, o *Order) error {
	rows, err := r.pool.Query(ctx, `
		SELECT id, order_id, selection_id, response_line_id, request_id, request_number,
		       article_code, designation, quantity, unit, unit_price, tax_pct, amount_net,
		       amount_tax, amount_total, brand, delivery_date
		FROM order_lines WHERE order_id = $1 ORDER BY id`, o.ID)
	if err != nil {
		return fmt.Errorf("orders: load lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var l Line
		err := rows.Scan(&l.ID, &l.OrderID, &l.SelectionID, &l.ResponseLineID, &l.RequestID,
			&l.RequestNumber, &l.ArticleCode, &l.Designation, &l.Quantity, &l.Unit, &l.UnitPrice,
			&l.TaxPct, &l.AmountNet, &l.AmountTax, &l.AmountTotal, &l.Brand, &l.DeliveryDate)
		if err != nil {
			return fmt.Errorf("orders: scan line: %w", err)
		}
		o.Lines = append(o.Lines, l)
	}
	return rows.Err()
}

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.Number, &o.SupplierID, &o.SupplierCode, &o.SupplierName,
		&o.SupplierEmail, &o.SupplierPhone, &o.Status, &o.Currency, &o.Subtotal, &o.TaxRatePct,
		&o.TaxAmount, &o.Total, &o.PaymentTerms, &o.DeliveryTo, &o.Project, &o.Comment,
		&o.CreatedBy, &o.CreatedAt, &o.UpdatedAt, &o.ValidatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, fmt.Errorf("orders: scan: %w", err)
	}
	return &o, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ Repository = (*PGRepository)(nil)

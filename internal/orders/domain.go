package orders

import "time"

// Order statuses.
const (
	StatusDraft     = "draft"
	StatusValidated = "validated"
	StatusSent      = "sent"
	StatusDelivered = "delivered"
	StatusCancelled = "cancelled"
)

// Order is an immutable purchase order generated from selections.
type Order struct {
	ID            int64      `json:"id"`
	Number        string     `json:"number"`
	SupplierID    int64      `json:"supplier_id"`
	SupplierCode  string     `json:"supplier_code"`
	SupplierName  string     `json:"supplier_name"`
	SupplierEmail string     `json:"supplier_email,omitempty"`
	SupplierPhone string     `json:"supplier_phone,omitempty"`
	Status        string     `json:"status"`
	Currency      string     `json:"currency"`
	Subtotal      float64    `json:"subtotal"`
	TaxRatePct    float64    `json:"tax_rate_pct"`
	TaxAmount     float64    `json:"tax_amount"`
	Total         float64    `json:"total"`
	PaymentTerms  string     `json:"payment_terms,omitempty"`
	DeliveryTo    string     `json:"delivery_to,omitempty"`
	Project       string     `json:"project,omitempty"`
	Comment       string     `json:"comment,omitempty"`
	CreatedBy     string     `json:"created_by,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	ValidatedAt   *time.Time `json:"validated_at,omitempty"`
	Lines         []Line     `json:"lines,omitempty"`
}

// Line mirrors one consumed selection, traceable to its source
// response line.
type Line struct {
	ID             int64      `json:"id"`
	OrderID        int64      `json:"order_id"`
	SelectionID    int64      `json:"selection_id"`
	ResponseLineID int64      `json:"source_response_line_id"`
	RequestID      int64      `json:"request_id"`
	RequestNumber  string     `json:"request_number"`
	ArticleCode    string     `json:"article_code"`
	Designation    string     `json:"designation,omitempty"`
	Quantity       float64    `json:"quantity"`
	Unit           string     `json:"unit,omitempty"`
	UnitPrice      float64    `json:"unit_price"`
	TaxPct         float64    `json:"tax_pct"`
	AmountNet      float64    `json:"amount_net"`
	AmountTax      float64    `json:"amount_tax"`
	AmountTotal    float64    `json:"amount_total"`
	Brand          string     `json:"brand,omitempty"`
	DeliveryDate   *time.Time `json:"delivery_date,omitempty"`
}

// GenerateInput is the order-generation request: one supplier, an
// explicit set of active selections.
type GenerateInput struct {
	SupplierID   int64   `json:"supplier_id" validate:"required"`
	SelectionIDs []int64 `json:"selection_ids" validate:"required,min=1"`
	PaymentTerms string  `json:"payment_terms" validate:"max=255"`
	DeliveryTo   string  `json:"delivery_to" validate:"max=255"`
	Project      string  `json:"project" validate:"max=64"`
	Comment      string  `json:"comment" validate:"max=1000"`
}

// GenerateResult wraps the committed order with an optional advisory
// warning from the post-commit ERP push.
type GenerateResult struct {
	Order   *Order `json:"order"`
	Warning string `json:"warning,omitempty"`
}

// ListFilter narrows order listings.
type ListFilter struct {
	Status     string
	SupplierID int64
	Page       int
	PerPage    int
}

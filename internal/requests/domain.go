package requests

import "time"

// Purchase request statuses.
const (
	StatusNew            = "new"
	StatusInProgress     = "in_progress"
	StatusQuotesReceived = "quotes_received"
	StatusOrderCreated   = "order_created"
	StatusCancelled      = "cancelled"
)

// PurchaseRequest is one article need raised by a requester.
// Requests are created upstream; this service only reads and
// advances their status.
type PurchaseRequest struct {
	ID          int64      `json:"id"`
	Number      string     `json:"number"`
	ArticleCode string     `json:"article_code"`
	Designation string     `json:"designation"`
	Quantity    float64    `json:"quantity"`
	Unit        string     `json:"unit"`
	Brand       string     `json:"brand,omitempty"`
	Category    string     `json:"category,omitempty"`
	Priority    string     `json:"priority"`
	Status      string     `json:"status"`
	NeededBy    *time.Time `json:"needed_by,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ListFilter narrows request listings.
type ListFilter struct {
	Status     string
	Priority   string
	Categories []string
	Page       int
	PerPage    int
}

// AwaitingRequest is a request that has supplier answers but no order
// yet, together with response statistics for the decision screen.
type AwaitingRequest struct {
	PurchaseRequest
	SuppliersSolicited int        `json:"suppliers_solicited"`
	ResponsesReceived  int        `json:"responses_received"`
	ResponseRatePct    float64    `json:"response_rate_pct"`
	AmountMin          *float64   `json:"amount_min,omitempty"`
	AmountMax          *float64   `json:"amount_max,omitempty"`
	FirstResponseAt    *time.Time `json:"first_response_at,omitempty"`
	LastResponseAt     *time.Time `json:"last_response_at,omitempty"`
	DaysSinceFirst     *int       `json:"days_since_first_response,omitempty"`
}

// AwaitingSummary aggregates the decision backlog.
type AwaitingSummary struct {
	Items          []AwaitingRequest `json:"items"`
	Total          int               `json:"total"`
	AmountMinTotal *float64          `json:"amount_min_total,omitempty"`
	AmountMaxTotal *float64          `json:"amount_max_total,omitempty"`
}

package selections

import "time"

// Selection statuses. A selection is editable while selected and
// becomes immutable once an order consumes it.
const (
	StatusSelected       = "selected"
	StatusOrderGenerated = "order_generated"
)

// Selection binds one (article, request) pair to one chosen offer.
type Selection struct {
	ID             int64      `json:"id"`
	ArticleCode    string     `json:"article_code"`
	RequestID      int64      `json:"request_id"`
	RequestNumber  string     `json:"request_number,omitempty"`
	Quantity       float64    `json:"quantity"`
	SupplierID     int64      `json:"supplier_id"`
	SupplierCode   string     `json:"supplier_code,omitempty"`
	SupplierName   string     `json:"supplier_name,omitempty"`
	ResponseLineID int64      `json:"response_line_id"`
	UnitPrice      float64    `json:"unit_price"`
	Currency       string     `json:"currency"`
	Brand          string     `json:"brand,omitempty"`
	BrandConforms  bool       `json:"brand_conforms"`
	DeliveryDate   *time.Time `json:"delivery_date,omitempty"`
	LeadTimeDays   *int       `json:"lead_time_days,omitempty"`
	AutoSelected   bool       `json:"auto_selected"`
	ModifiedBy     string     `json:"modified_by,omitempty"`
	Status         string     `json:"status"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// ListFilter narrows selection listings.
type ListFilter struct {
	Status     string
	SupplierID int64
	RequestID  int64
	Article    string
	Page       int
	PerPage    int
}

// CreateInput captures a manual selection.
type CreateInput struct {
	ArticleCode    string  `json:"article_code" validate:"required,max=64"`
	RequestID      int64   `json:"request_id" validate:"required"`
	Quantity       float64 `json:"quantity" validate:"gt=0"`
	SupplierID     int64   `json:"supplier_id" validate:"required"`
	ResponseLineID int64   `json:"response_line_id" validate:"required"`
	UnitPrice      float64 `json:"unit_price" validate:"gt=0"`
	Currency       string  `json:"currency" validate:"required,len=3"`
	Brand          string  `json:"brand" validate:"max=128"`
	BrandConforms  bool    `json:"brand_conforms"`
	DeliveryDate   *string `json:"delivery_date"`
	LeadTimeDays   *int    `json:"lead_time_days" validate:"omitempty,gte=0"`
}

// UpdateInput replaces the chosen offer for an active selection.
type UpdateInput struct {
	Quantity       float64 `json:"quantity" validate:"gt=0"`
	SupplierID     int64   `json:"supplier_id" validate:"required"`
	ResponseLineID int64   `json:"response_line_id" validate:"required"`
	UnitPrice      float64 `json:"unit_price" validate:"gt=0"`
	Currency       string  `json:"currency" validate:"required,len=3"`
	Brand          string  `json:"brand" validate:"max=128"`
	BrandConforms  bool    `json:"brand_conforms"`
	LeadTimeDays   *int    `json:"lead_time_days" validate:"omitempty,gte=0"`
}

// Candidate is the minimum-priced eligible offer for an unselected
// (article, request) pair, used by auto-select-all.
type Candidate struct {
	ArticleCode    string
	RequestID      int64
	Quantity       float64
	SupplierID     int64
	ResponseLineID int64
	UnitPrice      float64
	Currency       string
	Brand          string
	BrandConforms  bool
	DeliveryDate   *time.Time
	LeadTimeDays   *int
}

// SupplierGroup is the pre-order dashboard bucket: active selections
// of one supplier with their total.
type SupplierGroup struct {
	SupplierID   int64       `json:"supplier_id"`
	SupplierCode string      `json:"supplier_code"`
	SupplierName string      `json:"supplier_name"`
	Selections   []Selection `json:"selections"`
	TotalAmount  float64     `json:"total_amount"`
}

// AutoSelectResult reports one auto-select-all run.
type AutoSelectResult struct {
	Created int `json:"created"`
	Skipped int `json:"skipped"`
}

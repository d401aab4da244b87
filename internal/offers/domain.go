package offers

import "time"

// RawRow is one joined response row feeding the aggregator: request,
// article, supplier, response header and line, plus reference price.
// Rows are pre-filtered to priced lines not yet converted into a
// selection.
type RawRow struct {
	RequestID      int64
	RequestNumber  string
	ArticleCode    string
	Designation    string
	DemandedQty    float64
	SupplierID     int64
	SupplierCode   string
	SupplierName   string
	HeaderID       int64
	ResponseLineID int64
	Manual         bool
	UnitPrice      float64
	AvailableQty   float64
	Currency       string
	Brand          string
	BrandConforms  bool
	DeliveryDate   *time.Time
	LeadTimeDays   *int
	ReferencePrice *float64
	SubmittedAt    time.Time
}

// Offer is the deduplicated unit of comparison: one supplier quote per
// response envelope, carrying its price and lead-time scores.
type Offer struct {
	SupplierID     int64      `json:"supplier_id"`
	SupplierCode   string     `json:"supplier_code"`
	SupplierName   string     `json:"supplier_name"`
	HeaderID       int64      `json:"response_header_id"`
	ResponseLineID int64      `json:"response_line_id"`
	Manual         bool       `json:"manual"`
	UnitPrice      float64    `json:"unit_price"`
	AvailableQty   float64    `json:"available_qty"`
	Currency       string     `json:"currency"`
	Brand          string     `json:"brand,omitempty"`
	BrandConforms  bool       `json:"brand_conforms"`
	DeliveryDate   *time.Time `json:"delivery_date,omitempty"`
	LeadTimeDays   *int       `json:"lead_time_days,omitempty"`
	ReferencePrice *float64   `json:"reference_price,omitempty"`
	PriceScore     float64    `json:"price_score"`
	LeadTimeScore  float64    `json:"lead_time_score"`
	GlobalScore    float64    `json:"global_score"`
}

// RequestRef names one purchase request contributing demand for an article.
type RequestRef struct {
	ID       int64   `json:"id"`
	Number   string  `json:"number"`
	Quantity float64 `json:"quantity"`
}

// AwaitingSupplier is a solicited supplier who has neither responded
// nor rejected.
type AwaitingSupplier struct {
	SupplierID   int64  `json:"supplier_id"`
	SupplierCode string `json:"supplier_code"`
	SupplierName string `json:"supplier_name"`
	RFQNumber    string `json:"rfq_number"`
	RFQStatus    string `json:"rfq_status"`
}

// ArticleAggregate is the comparison record for one article: demand
// summed across requests, deduplicated scored offers, and derived
// recommendations.
type ArticleAggregate struct {
	ArticleCode          string             `json:"article_code"`
	Designation          string             `json:"designation"`
	DemandedQty          float64            `json:"demanded_qty"`
	Requests             []RequestRef       `json:"requests"`
	Offers               []Offer            `json:"offers"`
	BestPrice            float64            `json:"best_price"`
	BestPriceSupplier    string             `json:"best_price_supplier"`
	BestLeadTimeDays     *int               `json:"best_lead_time_days,omitempty"`
	BestLeadTimeSupplier string             `json:"best_lead_time_supplier,omitempty"`
	RecommendedSupplier  string             `json:"recommended_supplier"`
	SpreadPct            float64            `json:"spread_pct"`
	AwaitingSuppliers    []AwaitingSupplier `json:"awaiting_suppliers,omitempty"`
}

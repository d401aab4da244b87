package responses

import "time"

// Header is one supplier response envelope covering one RFQ.
type Header struct {
	ID           int64     `json:"id"`
	RFQID        int64     `json:"rfq_id"`
	RFQNumber    string    `json:"rfq_number"`
	SupplierID   int64     `json:"supplier_id"`
	SupplierCode string    `json:"supplier_code"`
	SupplierName string    `json:"supplier_name"`
	Currency     string    `json:"currency"`
	PaymentTerms string    `json:"payment_terms,omitempty"`
	Manual       bool      `json:"manual"`
	SubmittedAt  time.Time `json:"submitted_at"`
	Lines        []Line    `json:"lines,omitempty"`
}

// Line is one quoted article inside a response.
type Line struct {
	ID             int64      `json:"id"`
	HeaderID       int64      `json:"header_id"`
	RequestID      int64      `json:"request_id"`
	RequestNumber  string     `json:"request_number,omitempty"`
	ArticleCode    string     `json:"article_code"`
	Designation    string     `json:"designation,omitempty"`
	UnitPrice      *float64   `json:"unit_price,omitempty"`
	AvailableQty   float64    `json:"available_qty"`
	Brand          string     `json:"brand,omitempty"`
	BrandConforms  bool       `json:"brand_conforms"`
	DeliveryDate   *time.Time `json:"delivery_date,omitempty"`
	LeadTimeDays   *int       `json:"lead_time_days,omitempty"`
	ReferencePrice *float64   `json:"reference_price,omitempty"`
}

// ListFilter narrows response listings.
type ListFilter struct {
	SupplierID int64
	RFQID      int64
	Page       int
	PerPage    int
}

// LineInput is one quoted article in a submission.
type LineInput struct {
	RequestID     int64    `json:"request_id" validate:"required"`
	ArticleCode   string   `json:"article_code" validate:"required,max=64"`
	UnitPrice     *float64 `json:"unit_price" validate:"omitempty,gt=0"`
	AvailableQty  float64  `json:"available_qty" validate:"gte=0"`
	Brand         string   `json:"brand" validate:"max=128"`
	BrandConforms bool     `json:"brand_conforms"`
	DeliveryDate  *string  `json:"delivery_date"`
	LeadTimeDays  *int     `json:"lead_time_days" validate:"omitempty,gte=0"`
}

// SubmitInput is a supplier submission against an RFQ token.
type SubmitInput struct {
	Currency     string      `json:"currency" validate:"required,len=3"`
	PaymentTerms string      `json:"payment_terms" validate:"max=255"`
	Lines        []LineInput `json:"lines" validate:"required,min=1,dive"`
}

// ManualInput is a buyer-entered offer outside any solicitation. It
// creates a dedicated manual RFQ so every response stays anchored to
// one (request, supplier) pair.
type ManualInput struct {
	SupplierID   int64       `json:"supplier_id" validate:"required"`
	RequestID    int64       `json:"request_id" validate:"required"`
	Currency     string      `json:"currency" validate:"required,len=3"`
	PaymentTerms string      `json:"payment_terms" validate:"max=255"`
	Lines        []LineInput `json:"lines" validate:"required,min=1,dive"`
}

// ComparisonOffer is one priced line in a per-article comparison.
type ComparisonOffer struct {
	Line
	RFQNumber    string  `json:"rfq_number"`
	SupplierCode string  `json:"supplier_code"`
	SupplierName string  `json:"supplier_name"`
	Currency     string  `json:"currency"`
	DemandedQty  float64 `json:"demanded_qty"`
}

// ComparisonAnalysis summarises the price landscape for an article.
type ComparisonAnalysis struct {
	OfferCount   int     `json:"offer_count"`
	PriceMin     float64 `json:"price_min"`
	PriceMax     float64 `json:"price_max"`
	PriceAvg     float64 `json:"price_avg"`
	BestSupplier string  `json:"best_supplier"`
	BestPrice    float64 `json:"best_price"`
}

// ArticleComparison is the per-article comparison payload.
type ArticleComparison struct {
	ArticleCode string              `json:"article_code"`
	Designation string              `json:"designation,omitempty"`
	Offers      []ComparisonOffer   `json:"offers"`
	Analysis    *ComparisonAnalysis `json:"analysis,omitempty"`
}

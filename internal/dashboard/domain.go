package dashboard

import "time"

// Stats is the headline counter block of the dashboard.
type Stats struct {
	ActiveRequests       int     `json:"active_requests"`
	PendingRFQs          int     `json:"pending_rfqs"`
	AnsweredRFQs         int     `json:"answered_rfqs"`
	RejectedRFQs         int     `json:"rejected_rfqs"`
	ActiveSuppliers      int     `json:"active_suppliers"`
	BlacklistedSuppliers int     `json:"blacklisted_suppliers"`
	OpenOrders           int     `json:"open_orders"`
	AvgResponseRatePct   float64 `json:"avg_response_rate_pct"`
}

// DetailedStats extends Stats with volume and latency figures.
type DetailedStats struct {
	Stats
	TotalRFQs        int     `json:"total_rfqs"`
	TotalOrders      int     `json:"total_orders"`
	OrdersSubtotal   float64 `json:"orders_subtotal"`
	AvgResponseHours float64 `json:"avg_response_hours"`
}

// StatusCount is one bucket of the RFQ status breakdown.
type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// Activity types.
const (
	ActivityRFQSent          = "rfq_sent"
	ActivityResponseReceived = "response_received"
)

// Activity is one entry of the recent-activity feed.
type Activity struct {
	ID           int64     `json:"id"`
	Type         string    `json:"type"`
	Description  string    `json:"description"`
	RFQNumber    string    `json:"rfq_number"`
	SupplierName string    `json:"supplier_name"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// TopSupplier ranks one supplier by its answer behaviour.
type TopSupplier struct {
	SupplierID      int64   `json:"supplier_id"`
	Code            string  `json:"code"`
	Name            string  `json:"name"`
	TotalRFQs       int     `json:"total_rfqs"`
	AnsweredRFQs    int     `json:"answered_rfqs"`
	ResponseRatePct float64 `json:"response_rate_pct"`
}

// Alert severities.
const (
	AlertWarning = "warning"
	AlertInfo    = "info"
)

// Alert is one actionable dashboard notice.
type Alert struct {
	ID      int64     `json:"id"`
	Type    string    `json:"type"`
	Title   string    `json:"title"`
	Message string    `json:"message"`
	Date    time.Time `json:"date"`
	Link    string    `json:"link"`
}

// StaleRFQ is a pending solicitation without an answer past the
// attention threshold.
type StaleRFQ struct {
	RFQID        int64     `json:"rfq_id"`
	Number       string    `json:"number"`
	SupplierName string    `json:"supplier_name"`
	SentAt       time.Time `json:"sent_at"`
	DaysPending  int       `json:"days_pending"`
}

// SupplierResponseRate is one supplier's answer ratio, used for
// low-responsiveness alerts.
type SupplierResponseRate struct {
	SupplierID      int64     `json:"supplier_id"`
	Code            string    `json:"code"`
	Name            string    `json:"name"`
	TotalRFQs       int       `json:"total_rfqs"`
	ResponseRatePct float64   `json:"response_rate_pct"`
	UpdatedAt       time.Time `json:"updated_at"`
}

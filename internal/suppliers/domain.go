package suppliers

import "time"

// Supplier is a vendor that can receive quote requests.
type Supplier struct {
	ID              int64      `json:"id"`
	Code            string     `json:"code"`
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	Phone           string     `json:"phone,omitempty"`
	Address         string     `json:"address,omitempty"`
	Category        string     `json:"category,omitempty"`
	Blacklisted     bool       `json:"blacklisted"`
	BlacklistReason *string    `json:"blacklist_reason,omitempty"`
	BlacklistedAt   *time.Time `json:"blacklisted_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// ListFilter narrows supplier listings.
type ListFilter struct {
	Search      string
	Blacklisted *bool
	Page        int
	PerPage     int
}

// RFQHistoryEntry summarises one quote request sent to a supplier.
type RFQHistoryEntry struct {
	RFQID         int64      `json:"rfq_id"`
	Number        string     `json:"number"`
	RequestNumber string     `json:"request_number"`
	Status        string     `json:"status"`
	SentAt        time.Time  `json:"sent_at"`
	AnsweredAt    *time.Time `json:"answered_at,omitempty"`
}

// CreateInput carries the fields for a new supplier.
type CreateInput struct {
	Code     string `json:"code" validate:"required,max=32"`
	Name     string `json:"name" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"max=32"`
	Address  string `json:"address" validate:"max=500"`
	Category string `json:"category" validate:"max=64"`
}

// UpdateInput carries the mutable supplier fields.
type UpdateInput struct {
	Name     string `json:"name" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"max=32"`
	Address  string `json:"address" validate:"max=500"`
	Category string `json:"category" validate:"max=64"`
}

// BlacklistInput carries the blacklist reason.
type BlacklistInput struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

package rfq

import (
	"time"

	"github.com/google/uuid"
)

// RFQ statuses.
const (
	StatusSent      = "sent"
	StatusSeen      = "seen"
	StatusAnswered  = "answered"
	StatusRejected  = "rejected"
	StatusExpired   = "expired"
	StatusReminder1 = "reminder_1"
	StatusReminder2 = "reminder_2"
	StatusReminder3 = "reminder_3"
)

// RFQ is one outbound solicitation to one supplier for one request.
type RFQ struct {
	ID             int64      `json:"id"`
	UUID           uuid.UUID  `json:"uuid"`
	Number         string     `json:"number"`
	RequestID      int64      `json:"request_id"`
	RequestNumber  string     `json:"request_number"`
	SupplierID     int64      `json:"supplier_id"`
	SupplierCode   string     `json:"supplier_code"`
	SupplierName   string     `json:"supplier_name"`
	SupplierEmail  string     `json:"supplier_email,omitempty"`
	Status         string     `json:"status"`
	Manual         bool       `json:"manual"`
	Reminders      int        `json:"reminders"`
	LastReminderAt *time.Time `json:"last_reminder_at,omitempty"`
	SentAt         time.Time  `json:"sent_at"`
	SeenAt         *time.Time `json:"seen_at,omitempty"`
	AnsweredAt     *time.Time `json:"answered_at,omitempty"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
}

// Rejection records a supplier declining to quote.
type Rejection struct {
	ID        int64     `json:"id"`
	RFQID     int64     `json:"rfq_id"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}

// ListFilter narrows RFQ listings.
type ListFilter struct {
	Status     string
	SupplierID int64
	RequestID  int64
	Page       int
	PerPage    int
}

// CreateInput carries the fields for a new solicitation.
type CreateInput struct {
	RequestID  int64 `json:"request_id" validate:"required"`
	SupplierID int64 `json:"supplier_id" validate:"required"`
	Manual     bool  `json:"manual"`
}

// RejectInput carries a supplier rejection.
type RejectInput struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

// StatusCount is one bucket of the per-status statistics.
type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// Escalation reports one reminder advancement performed by a sweep.
type Escalation struct {
	RFQID         int64
	Number        string
	Status        string
	SupplierName  string
	SupplierEmail string
}

// pendingStatuses are RFQs still waiting on an answer.
func pendingStatuses() []string {
	return []string{StatusSent, StatusReminder1, StatusReminder2, StatusReminder3}
}

// nextReminderStatus returns the escalated status after one more
// reminder, or expired once the configured limit is reached.
func nextReminderStatus(reminders, maxReminders int) string {
	if reminders >= maxReminders {
		return StatusExpired
	}
	switch reminders {
	case 0:
		return StatusReminder1
	case 1:
		return StatusReminder2
	default:
		return StatusReminder3
	}
}

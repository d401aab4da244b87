package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/procurex/procurex/internal/jobs"
	"github.com/procurex/procurex/internal/rfq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeSendEmail is the task type for sending transactional emails.
	TaskTypeSendEmail = "mail:send"
	// TaskTypeRFQReminderSweep escalates overdue supplier consultations.
	TaskTypeRFQReminderSweep = "rfq:reminder_sweep"
)

// reminderBatchSize caps how many consultations a single sweep touches.
const reminderBatchSize = 200

// SendEmailPayload describes the information required to send an email.
type SendEmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// NewSendEmailTask constructs an Asynq task.
func NewSendEmailTask(payload SendEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendEmail, data), nil
}

// EmailSender delivers one composed message.
type EmailSender interface {
	Send(ctx context.Context, payload SendEmailPayload) error
}

// NewSendEmailHandler builds the handler that processes TaskTypeSendEmail
// tasks. A malformed payload is dropped rather than retried.
func NewSendEmailHandler(logger *slog.Logger, sender EmailSender) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload SendEmailPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		if err := sender.Send(ctx, payload); err != nil {
			logger.Error("send email",
				slog.String("to", payload.To),
				slog.Any("error", err))
			return err
		}
		return nil
	}
}

// NewRFQReminderSweepTask constructs the periodic reminder-sweep task.
// It carries no payload; the handler applies the configured delay at
// execution time.
func NewRFQReminderSweepTask() *asynq.Task {
	return asynq.NewTask(TaskTypeRFQReminderSweep, nil)
}

// ReminderEscalator is the slice of the consultation service the sweep
// needs.
type ReminderEscalator interface {
	EscalateReminders(ctx context.Context, olderThan time.Time, batch int) ([]rfq.Escalation, error)
}

// Mailer enqueues outbound notification emails.
type Mailer interface {
	EnqueueSendEmail(ctx context.Context, payload SendEmailPayload) (*asynq.TaskInfo, error)
}

// NewRFQReminderSweepHandler builds the handler that walks pending
// consultations whose last contact is older than the configured delay
// and advances them along the reminder chain. Each escalation that is
// still awaiting an answer notifies the supplier by email. metrics and
// mailer may be nil.
func NewRFQReminderSweepHandler(logger *slog.Logger, escalator ReminderEscalator, mailer Mailer, reminderAfter time.Duration, metrics *jobmetrics.Metrics) asynq.HandlerFunc {
	return func(ctx context.Context, _ *asynq.Task) error {
		tracker := metrics.Track(TaskTypeRFQReminderSweep)
		cutoff := time.Now().Add(-reminderAfter)
		escalated, err := escalator.EscalateReminders(ctx, cutoff, reminderBatchSize)
		if err != nil {
			logger.Error("rfq reminder sweep", slog.Any("error", err))
			return tracker.End(err)
		}
		metrics.AddEscalations(len(escalated))
		for _, e := range escalated {
			if mailer == nil || e.Status == rfq.StatusExpired || e.SupplierEmail == "" {
				continue
			}
			_, err := mailer.EnqueueSendEmail(ctx, SendEmailPayload{
				To:      e.SupplierEmail,
				Subject: fmt.Sprintf("Reminder: quotation request %s is awaiting your response", e.Number),
				Body: fmt.Sprintf("Hello %s,\n\nOur quotation request %s has not received a response yet. "+
					"Please submit your offer or decline through the link you received.\n", e.SupplierName, e.Number),
			})
			if err != nil {
				logger.Warn("enqueue reminder email",
					slog.String("number", e.Number),
					slog.Any("error", err))
			}
		}
		if len(escalated) > 0 {
			logger.Info("rfq reminder sweep", slog.Int("escalated", len(escalated)))
		}
		return tracker.End(nil)
	}
}

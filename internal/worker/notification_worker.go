package worker

// notification_worker.go
// Consumes QueueNotification. Low-stock alerts become emails to the
// operations inbox; fulfillment events additionally get a transfer-note PDF
// attached for the shipment. Delivery failures are retried by the pool and
// dead-lettered after that, never propagated back into the core.

import (
	"context"
	"encoding/json"
	"fmt"

	"stockroom/internal/infra"

	"github.com/rs/zerolog/log"
)

// NotificationWorker processes notification jobs from QueueNotification.
type NotificationWorker struct {
	mailer     *infra.Mailer
	alertEmail string
	pdfStorage string
}

func NewNotificationWorker(mailer *infra.Mailer, alertEmail, pdfStorage string) *NotificationWorker {
	return &NotificationWorker{mailer: mailer, alertEmail: alertEmail, pdfStorage: pdfStorage}
}

func (w *NotificationWorker) Process(ctx context.Context, job Job) error {
	switch job.Type {
	case "low_stock":
		return w.processLowStock(job)
	case "transfer_event":
		return w.processTransferEvent(job)
	default:
		log.Warn().Str("type", job.Type).Msg("notification_worker: unknown job type")
		return nil
	}
}

func (w *NotificationWorker) processLowStock(job Job) error {
	var ev LowStockEvent
	if err := json.Unmarshal(job.Payload, &ev); err != nil {
		log.Error().Err(err).Msg("notification_worker: invalid low_stock payload")
		return nil
	}
	if w.alertEmail == "" {
		log.Warn().Msg("notification_worker: no alert email configured — skipping")
		return nil
	}

	subject := fmt.Sprintf("Low stock: %s at %s", ev.ProductName, ev.LocationName)
	body := fmt.Sprintf(
		"Product %q at location %q is down to %d units (threshold %d).\n\n"+
			"Create a restock request to replenish it.",
		ev.ProductName, ev.LocationName, ev.CurrentStock, ev.Threshold,
	)
	if err := w.mailer.Send(w.alertEmail, subject, body, ""); err != nil {
		return fmt.Errorf("notification_worker: send low-stock alert: %w", err)
	}
	log.Info().
		Str("product", ev.ProductName).
		Str("location", ev.LocationName).
		Int("current_stock", ev.CurrentStock).
		Msg("notification_worker: low-stock alert sent")
	return nil
}

func (w *NotificationWorker) processTransferEvent(job Job) error {
	var ev TransferEvent
	if err := json.Unmarshal(job.Payload, &ev); err != nil {
		log.Error().Err(err).Msg("notification_worker: invalid transfer_event payload")
		return nil
	}

	// Only fulfillments warrant an email; other lifecycle steps are
	// visible in the request listing and the audit trail.
	if ev.Type != "fulfilled" {
		log.Debug().Str("event", ev.Type).Str("request_id", ev.RequestID.String()).
			Msg("notification_worker: lifecycle event recorded")
		return nil
	}
	if w.alertEmail == "" {
		return nil
	}

	note := infra.TransferNote{
		RequestID:          ev.RequestID.String(),
		ProductName:        ev.ProductName,
		SKU:                ev.SKU,
		LocationName:       ev.LocationName,
		Amount:             ev.Amount,
		FactoryStockAfter:  ev.FactoryStockAfter,
		LocationStockAfter: ev.LocationStockAfter,
		CommittedAt:        ev.At,
	}
	pdfPath, err := infra.GenerateTransferNotePDF(note, w.pdfStorage)
	if err != nil {
		// The email still goes out; the slip can be regenerated later.
		log.Error().Err(err).Str("request_id", note.RequestID).
			Msg("notification_worker: transfer note generation failed")
		pdfPath = ""
	}

	subject := fmt.Sprintf("Restock fulfilled: request %s", note.RequestID)
	body := fmt.Sprintf(
		"Request %s was fulfilled: %d units of %q transferred to %q.",
		note.RequestID, ev.Amount, ev.ProductName, ev.LocationName,
	)
	if err := w.mailer.Send(w.alertEmail, subject, body, pdfPath); err != nil {
		return fmt.Errorf("notification_worker: send fulfillment mail: %w", err)
	}
	log.Info().Str("request_id", note.RequestID).Msg("notification_worker: fulfillment mail sent")
	return nil
}

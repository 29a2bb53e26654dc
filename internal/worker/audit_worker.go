package worker

// audit_worker.go
// Consumes QueueAudit and hands events to the audit collaborator. Persistence
// of the trail itself is external; this worker forwards each event into the
// collaborator's intake list and mirrors it to the structured log.

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	auditTrailKey = "audit:trail"
	auditTrailCap = 10000
)

// AuditWorker forwards transfer events to the audit intake.
type AuditWorker struct {
	rdb *redis.Client
}

func NewAuditWorker(rdb *redis.Client) *AuditWorker {
	return &AuditWorker{rdb: rdb}
}

// Process records one audit event. Returns an error only on intake failure
// so the pool can retry and eventually dead-letter the job.
func (w *AuditWorker) Process(ctx context.Context, job Job) error {
	var ev TransferEvent
	if err := json.Unmarshal(job.Payload, &ev); err != nil {
		log.Error().Err(err).Msg("audit_worker: invalid payload")
		return nil // malformed jobs are dropped, not retried
	}

	log.Info().
		Str("event", ev.Type).
		Str("request_id", ev.RequestID.String()).
		Str("product_id", ev.ProductID.String()).
		Str("location_id", ev.LocationID.String()).
		Int("amount", ev.Amount).
		Str("actor_id", ev.ActorID.String()).
		Msg("audit_worker: transfer event")

	pipe := w.rdb.Pipeline()
	pipe.LPush(ctx, auditTrailKey, job.Payload)
	pipe.LTrim(ctx, auditTrailKey, 0, auditTrailCap-1)
	_, err := pipe.Exec(ctx)
	return err
}

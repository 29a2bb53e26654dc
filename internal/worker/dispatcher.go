package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	QueueAudit        = "jobs:audit"
	QueueNotification = "jobs:notification"
)

// Job is the generic envelope for all async tasks.
type Job struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// TransferEvent is emitted for every restock lifecycle operation. The core
// emits it fire-and-forget after the database transaction commits; a slow or
// failing consumer can never roll back or stall a stock mutation.
type TransferEvent struct {
	Type       string    `json:"type"` // "requested" | "approved" | "rejected" | "fulfilled" | "cancelled" | "deleted"
	RequestID  uuid.UUID `json:"request_id"`
	ProductID  uuid.UUID `json:"product_id"`
	LocationID uuid.UUID `json:"location_id"`
	Amount     int       `json:"amount"`
	ActorID    uuid.UUID `json:"actor_id"`
	At         time.Time `json:"at"`

	// Display fields so consumers never have to re-read the database.
	ProductName  string `json:"product_name,omitempty"`
	SKU          string `json:"sku,omitempty"`
	LocationName string `json:"location_name,omitempty"`

	// Set on "fulfilled" events only.
	FactoryStockAfter  int `json:"factory_stock_after,omitempty"`
	LocationStockAfter int `json:"location_stock_after,omitempty"`
}

// LowStockEvent flags a location record at or below its threshold.
type LowStockEvent struct {
	LocationID   uuid.UUID `json:"location_id"`
	LocationName string    `json:"location_name"`
	ProductID    uuid.UUID `json:"product_id"`
	ProductName  string    `json:"product_name"`
	CurrentStock int       `json:"current_stock"`
	Threshold    int       `json:"threshold"`
	At           time.Time `json:"at"`
}

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP.
type Dispatcher struct {
	rdb *redis.Client
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// EnqueueAudit pushes a transfer event to the audit queue.
func (d *Dispatcher) EnqueueAudit(ctx context.Context, ev TransferEvent) error {
	return d.enqueue(ctx, QueueAudit, "transfer_event", ev)
}

// EnqueueTransferNotification pushes a transfer event to the notification queue.
func (d *Dispatcher) EnqueueTransferNotification(ctx context.Context, ev TransferEvent) error {
	return d.enqueue(ctx, QueueNotification, "transfer_event", ev)
}

// EnqueueLowStockAlert pushes a low-stock alert to the notification queue.
func (d *Dispatcher) EnqueueLowStockAlert(ctx context.Context, ev LowStockEvent) error {
	return d.enqueue(ctx, QueueNotification, "low_stock", ev)
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	job := Job{Type: jobType, Payload: data}
	encoded, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return d.rdb.LPush(ctx, queue, encoded).Err()
}

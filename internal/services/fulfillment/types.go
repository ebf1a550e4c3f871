package fulfillment

import (
	"context"
	"time"

	"smmpanel/internal/models"
)

// PlaceOrderRequest is a validated purchase request. The user id comes from
// the auth layer; link and quantity are checked against the service
// definition before any side effect.
type PlaceOrderRequest struct {
	UserID    uint
	ServiceID uint
	Link      string
	Quantity  int
}

// Catalog is the read-only service definition lookup the engine consumes.
type Catalog interface {
	GetService(ctx context.Context, id uint) (*models.Service, error)
}

// Enqueuer decouples slow post-commit work (notifications, upstream
// cancellation) from the request path.
type Enqueuer interface {
	Enqueue(ctx context.Context, jobType string, payload models.JSON) error
}

// Config tunes the engine.
type Config struct {
	// SubmitTimeout bounds the upstream submit call inside the order
	// transaction. A timeout is a failure requiring compensation, never
	// "unknown, assume success".
	SubmitTimeout time.Duration
}

// MetricsCollector records order outcomes. A nil collector is replaced with
// a no-op.
type MetricsCollector interface {
	RecordOrderPlaced(status string)
	RecordError(operation, errType string)
}

// NoopMetricsCollector discards all metrics.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordOrderPlaced(string)   {}
func (NoopMetricsCollector) RecordError(string, string) {}

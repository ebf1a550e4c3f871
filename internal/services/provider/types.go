package provider

import (
	"context"
	"strings"

	"smmpanel/internal/models"
)

// Gateway is the outbound client for upstream vendor APIs.
type Gateway interface {
	SubmitOrder(ctx context.Context, prov *models.Provider, req SubmitRequest) (string, error)
	GetStatus(ctx context.Context, prov *models.Provider, providerOrderID string) (OrderStatus, error)
	CancelOrder(ctx context.Context, prov *models.Provider, providerOrderID string) error
}

// SubmitRequest carries the upstream order parameters.
type SubmitRequest struct {
	Service  int    // provider-side service id
	Link     string
	Quantity int
}

// OrderStatus is the normalized upstream order state. Vendors report status
// strings in several spellings; everything funnels through NormalizeStatus.
type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusInProgress OrderStatus = "in_progress"
	StatusCompleted  OrderStatus = "completed"
	StatusPartial    OrderStatus = "partial"
	StatusCanceled   OrderStatus = "canceled"
	StatusError      OrderStatus = "error"
	StatusUnknown    OrderStatus = "unknown"
)

// Completed reports terminal successful delivery.
func (s OrderStatus) Completed() bool {
	return s == StatusCompleted
}

// Failed reports a terminal upstream failure that requires compensation.
// Partial delivery is treated as a failure: the panel refunds the full charge
// rather than attempting pro-rata accounting.
func (s OrderStatus) Failed() bool {
	switch s {
	case StatusPartial, StatusCanceled, StatusError:
		return true
	}
	return false
}

// NormalizeStatus maps a raw upstream status string onto OrderStatus.
func NormalizeStatus(raw string) OrderStatus {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "pending", "queued":
		return StatusPending
	case "in progress", "inprogress", "in_progress", "processing":
		return StatusInProgress
	case "completed", "complete":
		return StatusCompleted
	case "partial":
		return StatusPartial
	case "canceled", "cancelled", "refunded":
		return StatusCanceled
	case "error", "fail", "failed":
		return StatusError
	}
	return StatusUnknown
}

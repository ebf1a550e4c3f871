package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the order lifecycle state.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusFailed     OrderStatus = "failed"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// Terminal reports whether the status admits no further transitions.
func (s OrderStatus) Terminal() bool {
	switch s {
	case OrderStatusCompleted, OrderStatusFailed, OrderStatusCancelled:
		return true
	}
	return false
}

// Order is a purchase of an engagement service. It is created only after
// funds have been reserved, becomes processing only once the provider has
// returned an order id, and is never abandoned in a non-terminal state: the
// reconciler revisits every processing order until it terminates.
type Order struct {
	ID              uint            `gorm:"primarykey"`
	Reference       string          `gorm:"uniqueIndex;not null"` // public uuid handed to the user
	UserID          uint            `gorm:"index;not null"`
	ServiceID       uint            `gorm:"index;not null"`
	ProviderID      uint            `gorm:"index;not null"`
	Link            string          `gorm:"not null"`
	Quantity        int             `gorm:"not null"`
	Charge          decimal.Decimal `gorm:"type:numeric(20,8);not null"`
	Status          OrderStatus     `gorm:"index;not null;default:'pending'"`
	ProviderOrderID *string         // set once the provider accepts
	DebitEntryID    uint            `gorm:"not null"` // the reservation entry that funded this order
	LastError       string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	CompletedAt     *time.Time
	FailedAt        *time.Time
	CancelledAt     *time.Time
}

// Cancellable reports whether the user may still cancel the order.
func (o *Order) Cancellable() bool {
	return o.Status == OrderStatusPending || o.Status == OrderStatusProcessing
}

package models

import "time"

// Notification events
const (
	NotificationOrderCreated   = "order_created"
	NotificationOrderCompleted = "order_completed"
	NotificationOrderFailed    = "order_failed"
	NotificationOrderCancelled = "order_cancelled"
)

// Notification is a persisted user notification for an order lifecycle event.
// The (order, event) pair is unique so at-least-once job delivery cannot
// produce duplicate notifications.
type Notification struct {
	ID        uint   `gorm:"primarykey"`
	UserID    uint   `gorm:"index;not null"`
	OrderID   *uint  `gorm:"uniqueIndex:idx_notifications_order_event"`
	Event     string `gorm:"uniqueIndex:idx_notifications_order_event;not null"`
	Message   string `gorm:"not null"`
	ReadAt    *time.Time
	CreatedAt time.Time
}

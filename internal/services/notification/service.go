// Package notification is the best-effort sink for order lifecycle events.
// Delivery runs through the job queue after the owning transaction commits;
// a notification failure never affects the committed order or ledger state.
package notification

import (
	"context"
	"errors"
	"fmt"
	"log"

	"smmpanel/internal/models"
	"smmpanel/internal/repositories"
)

// Service persists user notifications.
type Service struct {
	repo   repositories.NotificationRepository
	orders repositories.LedgerRepository
}

func NewService(repo repositories.NotificationRepository, orders repositories.LedgerRepository) *Service {
	if repo == nil {
		panic("repo is required")
	}
	if orders == nil {
		panic("orders repo is required")
	}
	return &Service{repo: repo, orders: orders}
}

// NotifyOrderEvent records a notification for the order event. Duplicate
// deliveries of the same (order, event) pair are absorbed silently, which
// keeps at-least-once job execution single-notify.
func (s *Service) NotifyOrderEvent(ctx context.Context, order *models.Order, event string) error {
	n := &models.Notification{
		UserID:  order.UserID,
		OrderID: &order.ID,
		Event:   event,
		Message: messageFor(order, event),
	}
	if err := s.repo.CreateNotification(n); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil
		}
		return fmt.Errorf("failed to record notification: %w", err)
	}
	log.Printf("notified user %d: %s (order %s)", order.UserID, event, order.Reference)
	return nil
}

// HandleJob is the jobqueue handler for order notification jobs. The payload
// carries the order id and event name.
func (s *Service) HandleJob(ctx context.Context, job *models.Job) error {
	orderID := job.Payload.Uint("order_id")
	event := job.Payload.String("event")
	if orderID == 0 || event == "" {
		return fmt.Errorf("malformed notification payload: %v", job.Payload)
	}

	order, err := s.orders.GetOrderByID(orderID)
	if err != nil {
		return fmt.Errorf("failed to load order %d: %w", orderID, err)
	}
	return s.NotifyOrderEvent(ctx, order, event)
}

func messageFor(order *models.Order, event string) string {
	switch event {
	case models.NotificationOrderCreated:
		return fmt.Sprintf("Order %s accepted and submitted to the provider.", order.Reference)
	case models.NotificationOrderCompleted:
		return fmt.Sprintf("Order %s completed.", order.Reference)
	case models.NotificationOrderFailed:
		return fmt.Sprintf("Order %s failed; the charge of %s was refunded to your wallet.", order.Reference, order.Charge.StringFixed(2))
	case models.NotificationOrderCancelled:
		return fmt.Sprintf("Order %s cancelled; the charge of %s was refunded to your wallet.", order.Reference, order.Charge.StringFixed(2))
	}
	return fmt.Sprintf("Order %s: %s", order.Reference, event)
}

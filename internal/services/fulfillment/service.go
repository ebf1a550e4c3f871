// Package fulfillment orchestrates order placement: validation, balance
// reservation, provider submission, persistence and compensation. Failures
// before the debit abort with no side effects; a provider failure after the
// debit commits a compensating credit and a failed order instead, so the user
// sees an explained failure and an unchanged balance.
package fulfillment

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"smmpanel/internal/models"
	"smmpanel/internal/repositories"
	"smmpanel/internal/services/catalog"
	"smmpanel/internal/services/ledger"
	"smmpanel/internal/services/provider"
	"smmpanel/internal/validation"
)

// Service is the order fulfillment engine.
type Service interface {
	PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*models.Order, error)
	CancelOrder(ctx context.Context, orderID, userID uint) (*models.Order, error)
	GetOrder(ctx context.Context, orderID, userID uint) (*models.Order, error)
	GetOrderByReference(ctx context.Context, reference string, userID uint) (*models.Order, error)
	ListOrders(ctx context.Context, userID uint, limit, offset int) ([]models.Order, error)
}

type service struct {
	repo      repositories.LedgerRepository
	providers repositories.ProviderRepository
	catalog   Catalog
	gateway   provider.Gateway
	queue     Enqueuer
	config    Config
	metrics   MetricsCollector
}

// NewService creates the fulfillment engine. The queue is optional (nil
// disables post-commit jobs); everything else is required.
func NewService(
	repo repositories.LedgerRepository,
	providers repositories.ProviderRepository,
	catalog Catalog,
	gateway provider.Gateway,
	queue Enqueuer,
	config Config,
	metrics MetricsCollector,
) Service {
	if repo == nil {
		panic("repo is required")
	}
	if providers == nil {
		panic("providers repo is required")
	}
	if catalog == nil {
		panic("catalog is required")
	}
	if gateway == nil {
		panic("gateway is required")
	}
	if config.SubmitTimeout == 0 {
		config.SubmitTimeout = 30 * time.Second
	}
	if metrics == nil {
		metrics = NoopMetricsCollector{}
	}
	return &service{
		repo:      repo,
		providers: providers,
		catalog:   catalog,
		gateway:   gateway,
		queue:     queue,
		config:    config,
		metrics:   metrics,
	}
}

// PlaceOrder validates the request, then runs the reservation, order insert
// and provider submission as one unit of work against the ledger store.
// Outcomes:
//
//   - validation / unknown service / insufficient funds: error, no side effects
//   - provider accepts: order committed in processing with the provider's id
//   - provider fails: order committed as failed with the reservation reversed,
//     so the debit and its compensating credit net to zero
//   - storage failure: everything rolls back, error propagates
func (s *service) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*models.Order, error) {
	svc, err := s.catalog.GetService(ctx, req.ServiceID)
	if err != nil {
		return nil, s.fail("place_order", err)
	}
	if err := validation.ValidateLink(req.Link); err != nil {
		return nil, s.fail("place_order", err)
	}
	if err := validation.ValidateQuantity(req.Quantity, svc.MinQuantity, svc.MaxQuantity); err != nil {
		return nil, s.fail("place_order", err)
	}

	charge := svc.UnitCharge().Mul(decimal.NewFromInt(int64(req.Quantity)))
	if !charge.IsPositive() {
		return nil, s.fail("place_order", ErrInvalidCharge)
	}

	prov, err := s.providers.GetProviderByID(svc.ProviderID)
	if err != nil {
		return nil, s.fail("place_order", fmt.Errorf("%w: %v", ErrProviderUnavailable, err))
	}
	if !prov.IsActive() {
		return nil, s.fail("place_order", ErrProviderUnavailable)
	}

	var order *models.Order
	err = s.repo.ExecuteInTransaction(func(tx repositories.LedgerRepository) error {
		led := ledger.NewService(tx)

		order = &models.Order{
			Reference:  uuid.NewString(),
			UserID:     req.UserID,
			ServiceID:  svc.ID,
			ProviderID: prov.ID,
			Link:       req.Link,
			Quantity:   req.Quantity,
			Charge:     charge,
			Status:     models.OrderStatusPending,
		}
		if err := tx.CreateOrder(order); err != nil {
			return err
		}

		debit, err := led.Reserve(ctx, req.UserID, charge, models.ReasonOrderReservation, &order.ID)
		if err != nil {
			return err
		}
		order.DebitEntryID = debit.ID

		subCtx, cancel := context.WithTimeout(ctx, s.config.SubmitTimeout)
		providerOrderID, submitErr := s.gateway.SubmitOrder(subCtx, prov, provider.SubmitRequest{
			Service:  svc.ProviderServiceID,
			Link:     req.Link,
			Quantity: req.Quantity,
		})
		cancel()

		if submitErr != nil {
			// Post-debit failure: compensate inside the same unit of work
			// and commit the failed order so the reservation is explained,
			// not hidden.
			if _, err := led.Release(ctx, req.UserID, charge, models.ReasonOrderRefund, &order.ID); err != nil {
				return err
			}
			now := time.Now()
			order.Status = models.OrderStatusFailed
			order.FailedAt = &now
			order.LastError = submitErr.Error()
			return tx.UpdateOrder(order)
		}

		order.Status = models.OrderStatusProcessing
		order.ProviderOrderID = &providerOrderID
		return tx.UpdateOrder(order)
	})
	if err != nil {
		s.metrics.RecordError("place_order", classify(err))
		return nil, err
	}

	s.metrics.RecordOrderPlaced(string(order.Status))
	switch order.Status {
	case models.OrderStatusProcessing:
		s.enqueueNotification(ctx, order, models.NotificationOrderCreated)
	case models.OrderStatusFailed:
		s.enqueueNotification(ctx, order, models.NotificationOrderFailed)
	}
	return order, nil
}

// CancelOrder refunds the original charge and marks the order cancelled.
// Only the owner may cancel, and only while the order is pending or
// processing. Upstream cancellation is attempted afterwards as a retryable
// job; its failure is logged, not fatal, because the refund has already
// committed.
func (s *service) CancelOrder(ctx context.Context, orderID, userID uint) (*models.Order, error) {
	var order *models.Order
	err := s.repo.ExecuteInTransaction(func(tx repositories.LedgerRepository) error {
		o, err := tx.GetOrderForUpdate(orderID)
		if err != nil {
			if errors.Is(err, repositories.ErrOrderNotFound) {
				return ErrOrderNotFound
			}
			return err
		}
		// Treat another user's order as nonexistent
		if o.UserID != userID {
			return ErrOrderNotFound
		}
		if !o.Cancellable() {
			return ErrOrderNotCancellable
		}

		led := ledger.NewService(tx)
		if _, err := led.Release(ctx, o.UserID, o.Charge, models.ReasonOrderCancel, &o.ID); err != nil {
			return err
		}

		now := time.Now()
		o.Status = models.OrderStatusCancelled
		o.CancelledAt = &now
		if err := tx.UpdateOrder(o); err != nil {
			return err
		}
		order = o
		return nil
	})
	if err != nil {
		s.metrics.RecordError("cancel_order", classify(err))
		return nil, err
	}

	if order.ProviderOrderID != nil {
		s.enqueueProviderCancel(ctx, order)
	}
	s.enqueueNotification(ctx, order, models.NotificationOrderCancelled)
	return order, nil
}

func (s *service) GetOrder(ctx context.Context, orderID, userID uint) (*models.Order, error) {
	order, err := s.repo.GetOrderByID(orderID)
	if err != nil {
		if errors.Is(err, repositories.ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if order.UserID != userID {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

func (s *service) GetOrderByReference(ctx context.Context, reference string, userID uint) (*models.Order, error) {
	order, err := s.repo.GetOrderByReference(reference)
	if err != nil {
		if errors.Is(err, repositories.ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if order.UserID != userID {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

func (s *service) ListOrders(ctx context.Context, userID uint, limit, offset int) ([]models.Order, error) {
	return s.repo.ListOrdersByUser(userID, limit, offset)
}

// enqueueNotification schedules a best-effort notification after commit. An
// enqueue failure is logged and swallowed; it must never affect the already
// committed transaction outcome.
func (s *service) enqueueNotification(ctx context.Context, order *models.Order, event string) {
	if s.queue == nil {
		return
	}
	payload := models.NewJSON(map[string]interface{}{
		"order_id": order.ID,
		"user_id":  order.UserID,
		"event":    event,
	})
	if err := s.queue.Enqueue(ctx, models.JobTypeOrderNotify, payload); err != nil {
		log.Printf("failed to enqueue %s notification for order %s: %v", event, order.Reference, err)
	}
}

func (s *service) enqueueProviderCancel(ctx context.Context, order *models.Order) {
	if s.queue == nil {
		return
	}
	payload := models.NewJSON(map[string]interface{}{
		"order_id":          order.ID,
		"provider_id":       order.ProviderID,
		"provider_order_id": *order.ProviderOrderID,
	})
	if err := s.queue.Enqueue(ctx, models.JobTypeProviderCancel, payload); err != nil {
		log.Printf("failed to enqueue upstream cancel for order %s: %v", order.Reference, err)
	}
}

// fail records the failure before returning it, so refused requests show up
// in the metrics, not just transaction errors.
func (s *service) fail(operation string, err error) error {
	s.metrics.RecordError(operation, classify(err))
	return err
}

func classify(err error) string {
	var pe *provider.Error
	switch {
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, catalog.ErrServiceNotFound):
		return "service_not_found"
	case errors.Is(err, validation.ErrInvalidLink),
		errors.Is(err, validation.ErrInvalidQuantity),
		errors.Is(err, ErrInvalidCharge):
		return "validation"
	case errors.Is(err, ErrOrderNotFound), errors.Is(err, ErrOrderNotCancellable):
		return "order_state"
	case errors.As(err, &pe), errors.Is(err, ErrProviderUnavailable):
		return "provider"
	default:
		return "internal"
	}
}

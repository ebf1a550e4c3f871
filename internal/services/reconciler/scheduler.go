// Package reconciler advances orders the panel could not finish
// synchronously. On a fixed interval it polls every provider for its
// processing orders: completions transition the order with no ledger effect
// (funds were captured at submission), terminal upstream failures refund the
// charge exactly like a cancellation. Each order is reconciled independently
// under its own timeout, so one stuck upstream call never stalls the pass or
// its sibling orders.
package reconciler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"smmpanel/internal/models"
	"smmpanel/internal/repositories"
	"smmpanel/internal/services/ledger"
	"smmpanel/internal/services/provider"
)

// Enqueuer schedules post-reconciliation notifications.
type Enqueuer interface {
	Enqueue(ctx context.Context, jobType string, payload models.JSON) error
}

// Config tunes the scheduler.
type Config struct {
	Interval     time.Duration // delay between passes
	OrderTimeout time.Duration // bound on each upstream status call
}

// Scheduler is the reconciliation loop.
type Scheduler struct {
	repo      repositories.LedgerRepository
	providers repositories.ProviderRepository
	gateway   provider.Gateway
	queue     Enqueuer
	config    Config
}

func New(
	repo repositories.LedgerRepository,
	providers repositories.ProviderRepository,
	gateway provider.Gateway,
	queue Enqueuer,
	config Config,
) *Scheduler {
	if repo == nil {
		panic("repo is required")
	}
	if providers == nil {
		panic("providers repo is required")
	}
	if gateway == nil {
		panic("gateway is required")
	}
	if config.Interval == 0 {
		config.Interval = time.Minute
	}
	if config.OrderTimeout == 0 {
		config.OrderTimeout = 15 * time.Second
	}
	return &Scheduler{
		repo:      repo,
		providers: providers,
		gateway:   gateway,
		queue:     queue,
		config:    config,
	}
}

// Start blocks, running reconciliation passes until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce reconciles all providers: sequential per provider, parallel across
// providers, mirroring the per-account serialization principle. Disabled
// providers are included: the status flag gates new submissions only, and
// orders already in flight with a since-disabled provider must still reach a
// terminal state.
func (s *Scheduler) RunOnce(ctx context.Context) {
	providers, err := s.providers.ListProviders()
	if err != nil {
		log.Printf("reconciler: failed to list providers: %v", err)
		return
	}

	var wg sync.WaitGroup
	for i := range providers {
		prov := providers[i]
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.reconcileProvider(ctx, &prov)
		}()
	}
	wg.Wait()
}

func (s *Scheduler) reconcileProvider(ctx context.Context, prov *models.Provider) {
	orders, err := s.repo.ListOrdersByProviderAndStatus(prov.ID, models.OrderStatusProcessing)
	if err != nil {
		log.Printf("reconciler: failed to list orders for provider %d: %v", prov.ID, err)
		return
	}

	for i := range orders {
		if ctx.Err() != nil {
			return
		}
		if err := s.reconcileOrder(ctx, prov, &orders[i]); err != nil {
			// Isolated failure: log, skip, revisit next pass.
			log.Printf("reconciler: order %s: %v", orders[i].Reference, err)
		}
	}
}

func (s *Scheduler) reconcileOrder(ctx context.Context, prov *models.Provider, order *models.Order) error {
	if order.ProviderOrderID == nil {
		return fmt.Errorf("processing order has no provider order id")
	}

	octx, cancel := context.WithTimeout(ctx, s.config.OrderTimeout)
	status, err := s.gateway.GetStatus(octx, prov, *order.ProviderOrderID)
	cancel()
	if err != nil {
		return fmt.Errorf("status check failed: %w", err)
	}

	switch {
	case status.Completed():
		return s.completeOrder(ctx, order)
	case status.Failed():
		return s.failOrder(ctx, order, status)
	}
	// still in flight upstream; nothing to advance
	return nil
}

// completeOrder transitions a processing order to completed. No ledger
// effect: funds were captured when the provider accepted the order. The
// in-transaction status recheck makes a second pass over the same order a
// no-op.
func (s *Scheduler) completeOrder(ctx context.Context, order *models.Order) error {
	var completed *models.Order
	err := s.repo.ExecuteInTransaction(func(tx repositories.LedgerRepository) error {
		o, err := tx.GetOrderForUpdate(order.ID)
		if err != nil {
			return err
		}
		if o.Status != models.OrderStatusProcessing {
			return nil
		}
		now := time.Now()
		o.Status = models.OrderStatusCompleted
		o.CompletedAt = &now
		if err := tx.UpdateOrder(o); err != nil {
			return err
		}
		completed = o
		return nil
	})
	if err != nil {
		return err
	}
	if completed != nil {
		s.notify(ctx, completed, models.NotificationOrderCompleted)
	}
	return nil
}

// failOrder transitions a processing order to failed and compensates the
// original charge, identical to the cancellation refund path.
func (s *Scheduler) failOrder(ctx context.Context, order *models.Order, status provider.OrderStatus) error {
	var failed *models.Order
	err := s.repo.ExecuteInTransaction(func(tx repositories.LedgerRepository) error {
		o, err := tx.GetOrderForUpdate(order.ID)
		if err != nil {
			return err
		}
		if o.Status != models.OrderStatusProcessing {
			return nil
		}

		led := ledger.NewService(tx)
		if _, err := led.Release(ctx, o.UserID, o.Charge, models.ReasonOrderRefund, &o.ID); err != nil {
			return err
		}

		now := time.Now()
		o.Status = models.OrderStatusFailed
		o.FailedAt = &now
		o.LastError = fmt.Sprintf("provider reported %s", status)
		if err := tx.UpdateOrder(o); err != nil {
			return err
		}
		failed = o
		return nil
	})
	if err != nil {
		return err
	}
	if failed != nil {
		s.notify(ctx, failed, models.NotificationOrderFailed)
	}
	return nil
}

func (s *Scheduler) notify(ctx context.Context, order *models.Order, event string) {
	if s.queue == nil {
		return
	}
	payload := models.NewJSON(map[string]interface{}{
		"order_id": order.ID,
		"user_id":  order.UserID,
		"event":    event,
	})
	if err := s.queue.Enqueue(ctx, models.JobTypeOrderNotify, payload); err != nil {
		log.Printf("reconciler: failed to enqueue %s notification for order %s: %v", event, order.Reference, err)
	}
}

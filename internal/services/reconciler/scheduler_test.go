package reconciler

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smmpanel/internal/models"
	"smmpanel/internal/services/provider"
	"smmpanel/internal/testutil"
)

// statusGateway maps provider order ids to scripted status results.
type statusGateway struct {
	mu       sync.Mutex
	statuses map[string]provider.OrderStatus
	errs     map[string]error
	calls    int
}

func (g *statusGateway) SubmitOrder(ctx context.Context, prov *models.Provider, req provider.SubmitRequest) (string, error) {
	return "", nil
}

func (g *statusGateway) GetStatus(ctx context.Context, prov *models.Provider, providerOrderID string) (provider.OrderStatus, error) {
	g.mu.Lock()
	g.calls++
	g.mu.Unlock()
	if err, ok := g.errs[providerOrderID]; ok {
		return provider.StatusUnknown, err
	}
	if status, ok := g.statuses[providerOrderID]; ok {
		return status, nil
	}
	return provider.StatusUnknown, nil
}

func (g *statusGateway) CancelOrder(ctx context.Context, prov *models.Provider, providerOrderID string) error {
	return nil
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type fixture struct {
	store   *testutil.LedgerStore
	jobs    *testutil.JobStore
	gateway *statusGateway
	sched   *Scheduler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := testutil.NewLedgerStore()
	providers := testutil.NewProviderStore(models.Provider{
		ID:     1,
		Name:   "primary",
		Status: models.ProviderStatusActive,
	})
	jobs := testutil.NewJobStore()
	gateway := &statusGateway{
		statuses: make(map[string]provider.OrderStatus),
		errs:     make(map[string]error),
	}

	runner := &jobEnqueuer{jobs: jobs}
	sched := New(store, providers, gateway, runner, Config{})
	return &fixture{store: store, jobs: jobs, gateway: gateway, sched: sched}
}

type jobEnqueuer struct {
	jobs *testutil.JobStore
}

func (e *jobEnqueuer) Enqueue(ctx context.Context, jobType string, payload models.JSON) error {
	return e.jobs.CreateJob(&models.Job{Type: jobType, Payload: payload, Status: models.JobStatusPending})
}

// seedProcessingOrder creates a wallet already debited by the charge and a
// processing order tied to a provider order id.
func (f *fixture) seedProcessingOrder(t *testing.T, userID uint, charge, remaining string, providerOrderID string) *models.Order {
	t.Helper()

	f.store.SeedWallet(userID, dec(remaining))
	provID := providerOrderID
	order := &models.Order{
		Reference:       "ref-" + providerOrderID,
		UserID:          userID,
		ServiceID:       10,
		ProviderID:      1,
		Link:            "https://instagram.com/p/x",
		Quantity:        100,
		Charge:          dec(charge),
		Status:          models.OrderStatusProcessing,
		ProviderOrderID: &provID,
	}
	require.NoError(t, f.store.CreateOrder(order))
	return order
}

func TestRunOnce_CompletesDeliveredOrder(t *testing.T) {
	f := newFixture(t)
	order := f.seedProcessingOrder(t, 1, "50", "50", "p-1")
	f.gateway.statuses["p-1"] = provider.StatusCompleted

	f.sched.RunOnce(context.Background())

	got, err := f.store.GetOrderByID(order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCompleted, got.Status)
	require.NotNil(t, got.CompletedAt)

	// Completion captures the reservation: no ledger movement.
	wallet, err := f.store.GetWalletByUserID(1)
	require.NoError(t, err)
	assert.True(t, wallet.Balance.Equal(dec("50")))

	entries, err := f.store.ListEntriesByOrder(order.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)

	notifs := f.jobs.JobsOfType(models.JobTypeOrderNotify)
	require.Len(t, notifs, 1)
	assert.Equal(t, models.NotificationOrderCompleted, notifs[0].Payload.String("event"))
}

func TestRunOnce_RefundsFailedOrder(t *testing.T) {
	f := newFixture(t)
	order := f.seedProcessingOrder(t, 1, "50", "50", "p-1")
	f.gateway.statuses["p-1"] = provider.StatusError

	f.sched.RunOnce(context.Background())

	got, err := f.store.GetOrderByID(order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusFailed, got.Status)
	assert.Contains(t, got.LastError, "error")

	wallet, err := f.store.GetWalletByUserID(1)
	require.NoError(t, err)
	assert.True(t, wallet.Balance.Equal(dec("100")))

	entries, err := f.store.ListEntriesByOrder(order.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, models.EntryDirectionCredit, entries[0].Direction)
	assert.Equal(t, models.ReasonOrderRefund, entries[0].Reason)

	notifs := f.jobs.JobsOfType(models.JobTypeOrderNotify)
	require.Len(t, notifs, 1)
	assert.Equal(t, models.NotificationOrderFailed, notifs[0].Payload.String("event"))
}

func TestRunOnce_PartialDeliveryRefundsInFull(t *testing.T) {
	f := newFixture(t)
	order := f.seedProcessingOrder(t, 1, "50", "0", "p-1")
	f.gateway.statuses["p-1"] = provider.StatusPartial

	f.sched.RunOnce(context.Background())

	got, err := f.store.GetOrderByID(order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusFailed, got.Status)

	wallet, err := f.store.GetWalletByUserID(1)
	require.NoError(t, err)
	assert.True(t, wallet.Balance.Equal(dec("50")))
}

func TestRunOnce_InFlightOrderUntouched(t *testing.T) {
	f := newFixture(t)
	order := f.seedProcessingOrder(t, 1, "50", "50", "p-1")
	f.gateway.statuses["p-1"] = provider.StatusInProgress

	f.sched.RunOnce(context.Background())

	got, err := f.store.GetOrderByID(order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusProcessing, got.Status)
	assert.Equal(t, 0, f.jobs.Count())
}

func TestRunOnce_IsIdempotent(t *testing.T) {
	f := newFixture(t)
	order := f.seedProcessingOrder(t, 1, "50", "50", "p-1")
	f.gateway.statuses["p-1"] = provider.StatusError

	f.sched.RunOnce(context.Background())
	f.sched.RunOnce(context.Background())

	// A second pass must not refund again: only one credit exists and the
	// balance reflects a single refund.
	entries, err := f.store.ListEntriesByOrder(order.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	wallet, err := f.store.GetWalletByUserID(1)
	require.NoError(t, err)
	assert.True(t, wallet.Balance.Equal(dec("100")))
}

func TestRunOnce_DisabledProviderOrdersStillReconciled(t *testing.T) {
	store := testutil.NewLedgerStore()
	providers := testutil.NewProviderStore(models.Provider{
		ID:     1,
		Name:   "retired",
		Status: models.ProviderStatusDisabled,
	})
	jobs := testutil.NewJobStore()
	gateway := &statusGateway{
		statuses: map[string]provider.OrderStatus{"p-1": provider.StatusError},
		errs:     make(map[string]error),
	}
	sched := New(store, providers, gateway, &jobEnqueuer{jobs: jobs}, Config{})
	f := &fixture{store: store, jobs: jobs, gateway: gateway, sched: sched}
	order := f.seedProcessingOrder(t, 1, "50", "50", "p-1")

	f.sched.RunOnce(context.Background())

	// Disabling a provider stops new submissions; in-flight orders must
	// still terminate and refund.
	assert.Equal(t, 1, f.gateway.calls)
	got, err := f.store.GetOrderByID(order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusFailed, got.Status)

	wallet, err := f.store.GetWalletByUserID(1)
	require.NoError(t, err)
	assert.True(t, wallet.Balance.Equal(dec("100")))
}

func TestRunOnce_StatusErrorSkipsOrder(t *testing.T) {
	f := newFixture(t)
	stuck := f.seedProcessingOrder(t, 1, "50", "50", "p-err")
	healthy := f.seedProcessingOrder(t, 2, "10", "0", "p-ok")
	f.gateway.errs["p-err"] = &provider.Error{Op: "status", Message: "timeout", Retryable: true}
	f.gateway.statuses["p-ok"] = provider.StatusCompleted

	f.sched.RunOnce(context.Background())

	// The failing order is skipped and revisited next pass; the healthy one
	// still advances.
	got, err := f.store.GetOrderByID(stuck.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusProcessing, got.Status)

	got, err = f.store.GetOrderByID(healthy.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCompleted, got.Status)
}

func TestRunOnce_SkipsCancelledBeforeReconciliation(t *testing.T) {
	f := newFixture(t)
	order := f.seedProcessingOrder(t, 1, "50", "100", "p-1")

	// User cancelled (and was refunded) between the listing and the status
	// check; the stale listing must not produce a second transition.
	stale := *order
	order.Status = models.OrderStatusCancelled
	require.NoError(t, f.store.UpdateOrder(order))

	f.gateway.statuses["p-1"] = provider.StatusError
	prov := models.Provider{ID: 1, Status: models.ProviderStatusActive}
	require.NoError(t, f.sched.reconcileOrder(context.Background(), &prov, &stale))

	got, err := f.store.GetOrderByID(order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, got.Status)

	entries, err := f.store.ListEntriesByOrder(order.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

package ledger

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smmpanel/internal/models"
	"smmpanel/internal/testutil"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestReserve_DebitsWalletAndAppendsEntry(t *testing.T) {
	store := testutil.NewLedgerStore()
	store.SeedWallet(1, dec("100"))
	svc := NewService(store)

	orderID := uint(7)
	entry, err := svc.Reserve(context.Background(), 1, dec("37.50"), models.ReasonOrderReservation, &orderID)
	require.NoError(t, err)

	assert.Equal(t, models.EntryDirectionDebit, entry.Direction)
	assert.True(t, entry.Amount.Equal(dec("37.50")))
	assert.True(t, entry.BalanceAfter.Equal(dec("62.50")))
	require.NotNil(t, entry.OrderID)
	assert.Equal(t, orderID, *entry.OrderID)

	balance, err := svc.GetBalance(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, balance.Equal(dec("62.50")))
}

func TestReserve_InsufficientFunds(t *testing.T) {
	store := testutil.NewLedgerStore()
	store.SeedWallet(1, dec("10"))
	svc := NewService(store)

	_, err := svc.Reserve(context.Background(), 1, dec("10.01"), models.ReasonOrderReservation, nil)
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	// The failed reservation must leave no trace.
	balance, err := svc.GetBalance(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, balance.Equal(dec("10")))

	entries, err := store.ListEntriesByUser(1, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestReserve_ExactBalanceSucceeds(t *testing.T) {
	store := testutil.NewLedgerStore()
	store.SeedWallet(1, dec("25"))
	svc := NewService(store)

	_, err := svc.Reserve(context.Background(), 1, dec("25"), models.ReasonOrderReservation, nil)
	require.NoError(t, err)

	balance, err := svc.GetBalance(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, balance.IsZero())
}

func TestReserve_FrozenWalletRejected(t *testing.T) {
	store := testutil.NewLedgerStore()
	store.SeedWallet(1, dec("100"))
	store.FreezeWallet(1)
	svc := NewService(store)

	_, err := svc.Reserve(context.Background(), 1, dec("5"), models.ReasonOrderReservation, nil)
	assert.ErrorIs(t, err, ErrWalletFrozen)
}

func TestRelease_CreditsFrozenWallet(t *testing.T) {
	store := testutil.NewLedgerStore()
	store.SeedWallet(1, dec("40"))
	store.FreezeWallet(1)
	svc := NewService(store)

	// A refund must land even when the wallet is frozen.
	entry, err := svc.Release(context.Background(), 1, dec("15"), models.ReasonOrderRefund, nil)
	require.NoError(t, err)
	assert.Equal(t, models.EntryDirectionCredit, entry.Direction)
	assert.True(t, entry.BalanceAfter.Equal(dec("55")))
}

func TestReserve_InvalidAmount(t *testing.T) {
	store := testutil.NewLedgerStore()
	store.SeedWallet(1, dec("100"))
	svc := NewService(store)

	_, err := svc.Reserve(context.Background(), 1, decimal.Zero, models.ReasonOrderReservation, nil)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = svc.Release(context.Background(), 1, dec("-1"), models.ReasonOrderRefund, nil)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestReserve_WalletNotFound(t *testing.T) {
	svc := NewService(testutil.NewLedgerStore())

	_, err := svc.Reserve(context.Background(), 99, dec("1"), models.ReasonOrderReservation, nil)
	assert.ErrorIs(t, err, ErrWalletNotFound)
}

func TestDeposit_IdempotentByReference(t *testing.T) {
	store := testutil.NewLedgerStore()
	store.SeedWallet(1, dec("0"))
	svc := NewService(store)

	entry, err := svc.Deposit(context.Background(), 1, dec("50"), "pi_123")
	require.NoError(t, err)
	require.NotNil(t, entry.Reference)
	assert.Equal(t, "pi_123", *entry.Reference)

	// Re-confirming the same payment must not credit twice.
	_, err = svc.Deposit(context.Background(), 1, dec("50"), "pi_123")
	assert.ErrorIs(t, err, ErrDuplicateDeposit)

	balance, err := svc.GetBalance(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, balance.Equal(dec("50")))
}

func TestDeposit_RequiresReference(t *testing.T) {
	store := testutil.NewLedgerStore()
	store.SeedWallet(1, dec("0"))
	svc := NewService(store)

	_, err := svc.Deposit(context.Background(), 1, dec("10"), "")
	assert.Error(t, err)
}

func TestLedger_EntriesSumToBalance(t *testing.T) {
	store := testutil.NewLedgerStore()
	svc := NewService(store)

	_, err := svc.CreateWallet(context.Background(), 1, "USD")
	require.NoError(t, err)

	_, err = svc.Deposit(context.Background(), 1, dec("100"), "pi_a")
	require.NoError(t, err)
	_, err = svc.Reserve(context.Background(), 1, dec("30"), models.ReasonOrderReservation, nil)
	require.NoError(t, err)
	_, err = svc.Release(context.Background(), 1, dec("30"), models.ReasonOrderRefund, nil)
	require.NoError(t, err)
	_, err = svc.Reserve(context.Background(), 1, dec("12.34"), models.ReasonOrderReservation, nil)
	require.NoError(t, err)

	balance, err := svc.GetBalance(context.Background(), 1)
	require.NoError(t, err)
	sum, err := store.SumEntriesByUser(1)
	require.NoError(t, err)

	assert.True(t, sum.Equal(balance), "entry sum %s should equal balance %s", sum, balance)
	assert.True(t, balance.Equal(dec("87.66")))
}

func TestCreateWallet_StartsEmpty(t *testing.T) {
	store := testutil.NewLedgerStore()
	svc := NewService(store)

	wallet, err := svc.CreateWallet(context.Background(), 5, "USD")
	require.NoError(t, err)
	assert.True(t, wallet.Balance.IsZero())
	assert.Equal(t, models.WalletStatusActive, wallet.Status)
}

package topup

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"smmpanel/internal/services/ledger"
	"smmpanel/internal/testutil"
)

func testService() *Service {
	return NewService(ledger.NewService(testutil.NewLedgerStore()), "sk_test_dummy", "usd")
}

func TestCreateDeposit_RejectsNonPositiveAmounts(t *testing.T) {
	svc := testService()

	_, err := svc.CreateDeposit(context.Background(), 1, decimal.Zero)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = svc.CreateDeposit(context.Background(), 1, decimal.RequireFromString("-5"))
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestCreateDeposit_RejectsSubCentPrecision(t *testing.T) {
	svc := testService()

	// 10.005 would truncate to 1000 minor units and collect less than the
	// amount credited; refuse it outright.
	_, err := svc.CreateDeposit(context.Background(), 1, decimal.RequireFromString("10.005"))
	assert.ErrorIs(t, err, ErrAmountPrecision)

	_, err = svc.CreateDeposit(context.Background(), 1, decimal.RequireFromString("0.001"))
	assert.ErrorIs(t, err, ErrAmountPrecision)
}

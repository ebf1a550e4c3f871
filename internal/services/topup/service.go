// Package topup funds wallets through Stripe. A deposit is a PaymentIntent
// created here and confirmed client-side; on confirmation the wallet is
// credited through the ledger with the intent id as the idempotency
// reference, so re-confirming the same payment cannot double-credit.
package topup

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/paymentintent"

	"smmpanel/internal/models"
	"smmpanel/internal/services/ledger"
)

// Service errors
var (
	ErrInvalidAmount     = errors.New("deposit amount must be positive")
	ErrAmountPrecision   = errors.New("deposit amount must not have sub-cent precision")
	ErrPaymentIncomplete = errors.New("payment has not succeeded")
	ErrPaymentMismatch   = errors.New("payment does not belong to this user")
	ErrAlreadyCredited   = errors.New("deposit already credited")
)

// DepositIntent is the client-facing handle for an in-flight deposit.
type DepositIntent struct {
	PaymentIntentID string          `json:"payment_intent_id"`
	ClientSecret    string          `json:"client_secret"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
}

// Service creates and confirms wallet deposits.
type Service struct {
	ledger   ledger.Service
	currency string
}

// NewService configures the Stripe client and returns the top-up service.
func NewService(ledgerSvc ledger.Service, apiKey, currency string) *Service {
	if ledgerSvc == nil {
		panic("ledger service is required")
	}
	stripe.Key = apiKey
	if currency == "" {
		currency = "usd"
	}
	return &Service{ledger: ledgerSvc, currency: currency}
}

// CreateDeposit opens a PaymentIntent for the amount. The wallet is not
// touched until ConfirmDeposit sees the payment succeed.
func (s *Service) CreateDeposit(ctx context.Context, userID uint, amount decimal.Decimal) (*DepositIntent, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	// The charge is expressed in minor units; anything finer would be
	// silently truncated rather than collected.
	if !amount.Equal(amount.Truncate(2)) {
		return nil, ErrAmountPrecision
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amount.Mul(decimal.NewFromInt(100)).IntPart()),
		Currency: stripe.String(s.currency),
	}
	params.AddMetadata("user_id", strconv.FormatUint(uint64(userID), 10))

	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}

	return &DepositIntent{
		PaymentIntentID: pi.ID,
		ClientSecret:    pi.ClientSecret,
		Amount:          amount,
		Currency:        s.currency,
	}, nil
}

// ConfirmDeposit verifies the payment succeeded and credits the wallet. The
// credited amount comes from Stripe, not from the client.
func (s *Service) ConfirmDeposit(ctx context.Context, userID uint, paymentIntentID string) (*models.LedgerEntry, error) {
	pi, err := paymentintent.Get(paymentIntentID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load payment intent: %w", err)
	}

	if pi.Metadata["user_id"] != strconv.FormatUint(uint64(userID), 10) {
		return nil, ErrPaymentMismatch
	}
	if pi.Status != stripe.PaymentIntentStatusSucceeded {
		return nil, ErrPaymentIncomplete
	}

	amount := decimal.NewFromInt(pi.Amount).Div(decimal.NewFromInt(100))
	entry, err := s.ledger.Deposit(ctx, userID, amount, pi.ID)
	if err != nil {
		if errors.Is(err, ledger.ErrDuplicateDeposit) {
			return nil, ErrAlreadyCredited
		}
		return nil, err
	}
	return entry, nil
}

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Ledger entry directions
const (
	EntryDirectionDebit  = "debit"
	EntryDirectionCredit = "credit"
)

// Ledger entry reason codes
const (
	ReasonOrderReservation = "order_reservation"
	ReasonOrderRefund      = "order_refund"
	ReasonOrderCancel      = "order_cancel"
	ReasonWalletTopUp      = "wallet_topup"
)

// LedgerEntry is an immutable, append-only record of a single balance change.
// Entries are never updated or deleted; the sum of all entries for a wallet
// must equal its current balance, and BalanceAfter snapshots the balance at
// commit time so the history is auditable without replaying it.
type LedgerEntry struct {
	ID           uint            `gorm:"primarykey"`
	WalletID     uint            `gorm:"index;not null"`
	UserID       uint            `gorm:"index;not null"`
	Direction    string          `gorm:"not null"`
	Amount       decimal.Decimal `gorm:"type:numeric(20,8);not null"`
	Reason       string          `gorm:"not null"`
	OrderID      *uint           `gorm:"index"`
	Reference    *string         `gorm:"uniqueIndex"` // external idempotency key (e.g. payment intent id)
	BalanceAfter decimal.Decimal `gorm:"type:numeric(20,8);not null"`
	CreatedAt    time.Time
}

// Signed returns the entry amount with its direction applied: negative for
// debits, positive for credits.
func (e *LedgerEntry) Signed() decimal.Decimal {
	if e.Direction == EntryDirectionDebit {
		return e.Amount.Neg()
	}
	return e.Amount
}

package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Wallet statuses
const (
	WalletStatusActive = "active"
	WalletStatusFrozen = "frozen"
)

// Wallet is the prepaid balance for a single user. The balance column is the
// single source of truth and is only ever mutated inside a ledger transaction
// while the row is locked.
type Wallet struct {
	ID           uint            `gorm:"primarykey"`
	UserID       uint            `gorm:"uniqueIndex;not null"`
	Balance      decimal.Decimal `gorm:"type:numeric(20,8);not null;default:0"`
	Currency     string          `gorm:"default:'USD'"`
	Status       string          `gorm:"default:'active'"`
	StatusReason string          `gorm:"default:''"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (w *Wallet) BeforeCreate(tx *gorm.DB) error {
	// New wallets always start empty
	w.Balance = decimal.Zero
	return nil
}

func (w *Wallet) IsActive() bool {
	return w.Status == WalletStatusActive
}

package repositories

import (
	"github.com/shopspring/decimal"

	"smmpanel/internal/models"
)

// LedgerRepository covers the wallet, ledger entry and order tables. Wallet
// mutations, entry appends and order writes that must commit together run
// through ExecuteInTransaction, which yields a repository bound to the same
// database transaction.
type LedgerRepository interface {
	// Wallets
	CreateWallet(wallet *models.Wallet) error
	GetWalletByUserID(userID uint) (*models.Wallet, error)
	// GetWalletForUpdate loads the wallet row under a row-level lock,
	// serializing all balance mutations for the account. Must be called
	// inside ExecuteInTransaction.
	GetWalletForUpdate(userID uint) (*models.Wallet, error)
	UpdateWallet(wallet *models.Wallet) error

	// Ledger entries (append-only; no update or delete)
	CreateEntry(entry *models.LedgerEntry) error
	GetEntryByReference(reference string) (*models.LedgerEntry, error)
	ListEntriesByOrder(orderID uint) ([]models.LedgerEntry, error)
	ListEntriesByUser(userID uint, limit, offset int) ([]models.LedgerEntry, error)
	SumEntriesByUser(userID uint) (decimal.Decimal, error)

	// Orders
	CreateOrder(order *models.Order) error
	UpdateOrder(order *models.Order) error
	GetOrderByID(id uint) (*models.Order, error)
	GetOrderForUpdate(id uint) (*models.Order, error)
	GetOrderByReference(reference string) (*models.Order, error)
	ListOrdersByUser(userID uint, limit, offset int) ([]models.Order, error)
	ListOrdersByProviderAndStatus(providerID uint, status models.OrderStatus) ([]models.Order, error)

	ExecuteInTransaction(fn func(LedgerRepository) error) error
}

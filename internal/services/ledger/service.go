package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"smmpanel/internal/models"
	"smmpanel/internal/repositories"
)

// Service exposes the ledger operations the rest of the system is allowed to
// use. Amounts are always positive; the direction is carried by the
// operation (Reserve debits, Release and Deposit credit).
type Service interface {
	Reserve(ctx context.Context, userID uint, amount decimal.Decimal, reason string, orderID *uint) (*models.LedgerEntry, error)
	Release(ctx context.Context, userID uint, amount decimal.Decimal, reason string, orderID *uint) (*models.LedgerEntry, error)
	Deposit(ctx context.Context, userID uint, amount decimal.Decimal, reference string) (*models.LedgerEntry, error)
	GetBalance(ctx context.Context, userID uint) (decimal.Decimal, error)
	GetWallet(ctx context.Context, userID uint) (*models.Wallet, error)
	CreateWallet(ctx context.Context, userID uint, currency string) (*models.Wallet, error)
}

type service struct {
	repo repositories.LedgerRepository
}

// NewService creates a ledger service over the given repository. Pass a
// transaction-bound repository to join an enclosing unit of work.
func NewService(repo repositories.LedgerRepository) Service {
	if repo == nil {
		panic("repo is required")
	}
	return &service{repo: repo}
}

func (s *service) Reserve(ctx context.Context, userID uint, amount decimal.Decimal, reason string, orderID *uint) (*models.LedgerEntry, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	var entry *models.LedgerEntry
	err := s.repo.ExecuteInTransaction(func(tx repositories.LedgerRepository) error {
		wallet, err := tx.GetWalletForUpdate(userID)
		if err != nil {
			if errors.Is(err, repositories.ErrWalletNotFound) {
				return ErrWalletNotFound
			}
			return err
		}
		if !wallet.IsActive() {
			return ErrWalletFrozen
		}
		if wallet.Balance.LessThan(amount) {
			return ErrInsufficientFunds
		}

		wallet.Balance = wallet.Balance.Sub(amount)
		if err := tx.UpdateWallet(wallet); err != nil {
			return err
		}

		entry = &models.LedgerEntry{
			WalletID:     wallet.ID,
			UserID:       userID,
			Direction:    models.EntryDirectionDebit,
			Amount:       amount,
			Reason:       reason,
			OrderID:      orderID,
			BalanceAfter: wallet.Balance,
		}
		return tx.CreateEntry(entry)
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *service) Release(ctx context.Context, userID uint, amount decimal.Decimal, reason string, orderID *uint) (*models.LedgerEntry, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	var entry *models.LedgerEntry
	err := s.repo.ExecuteInTransaction(func(tx repositories.LedgerRepository) error {
		wallet, err := tx.GetWalletForUpdate(userID)
		if err != nil {
			if errors.Is(err, repositories.ErrWalletNotFound) {
				return ErrWalletNotFound
			}
			return err
		}
		// Compensating credits land even on a frozen wallet: a freeze must
		// not turn a reversed reservation into a silent loss.

		wallet.Balance = wallet.Balance.Add(amount)
		if err := tx.UpdateWallet(wallet); err != nil {
			return err
		}

		entry = &models.LedgerEntry{
			WalletID:     wallet.ID,
			UserID:       userID,
			Direction:    models.EntryDirectionCredit,
			Amount:       amount,
			Reason:       reason,
			OrderID:      orderID,
			BalanceAfter: wallet.Balance,
		}
		return tx.CreateEntry(entry)
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Deposit credits an external top-up. The reference (e.g. a payment intent
// id) is unique across all entries, so re-confirming the same payment cannot
// credit the wallet twice.
func (s *service) Deposit(ctx context.Context, userID uint, amount decimal.Decimal, reference string) (*models.LedgerEntry, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if reference == "" {
		return nil, fmt.Errorf("deposit reference is required")
	}

	var entry *models.LedgerEntry
	err := s.repo.ExecuteInTransaction(func(tx repositories.LedgerRepository) error {
		wallet, err := tx.GetWalletForUpdate(userID)
		if err != nil {
			if errors.Is(err, repositories.ErrWalletNotFound) {
				return ErrWalletNotFound
			}
			return err
		}

		wallet.Balance = wallet.Balance.Add(amount)
		if err := tx.UpdateWallet(wallet); err != nil {
			return err
		}

		entry = &models.LedgerEntry{
			WalletID:     wallet.ID,
			UserID:       userID,
			Direction:    models.EntryDirectionCredit,
			Amount:       amount,
			Reason:       models.ReasonWalletTopUp,
			Reference:    &reference,
			BalanceAfter: wallet.Balance,
		}
		if err := tx.CreateEntry(entry); err != nil {
			if errors.Is(err, repositories.ErrDuplicateKey) {
				return ErrDuplicateDeposit
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *service) GetBalance(ctx context.Context, userID uint) (decimal.Decimal, error) {
	wallet, err := s.GetWallet(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}
	return wallet.Balance, nil
}

func (s *service) GetWallet(ctx context.Context, userID uint) (*models.Wallet, error) {
	wallet, err := s.repo.GetWalletByUserID(userID)
	if err != nil {
		if errors.Is(err, repositories.ErrWalletNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	return wallet, nil
}

func (s *service) CreateWallet(ctx context.Context, userID uint, currency string) (*models.Wallet, error) {
	wallet := &models.Wallet{
		UserID:   userID,
		Currency: currency,
		Status:   models.WalletStatusActive,
	}
	if err := s.repo.CreateWallet(wallet); err != nil {
		return nil, fmt.Errorf("failed to create wallet: %w", err)
	}
	return wallet, nil
}

package ledger

import "errors"

// Service errors
var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrWalletNotFound    = errors.New("wallet not found")
	ErrWalletFrozen      = errors.New("wallet is frozen")
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrDuplicateDeposit  = errors.New("deposit already credited")
)

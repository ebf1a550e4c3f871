package repositories

import "errors"

var (
	ErrWalletNotFound   = errors.New("wallet not found")
	ErrOrderNotFound    = errors.New("order not found")
	ErrServiceNotFound  = errors.New("service not found")
	ErrProviderNotFound = errors.New("provider not found")
	ErrEntryNotFound    = errors.New("ledger entry not found")
	ErrNoJobs           = errors.New("no runnable jobs")
	ErrDuplicateKey     = errors.New("duplicate key")
)

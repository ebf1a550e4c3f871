package fulfillment

import "errors"

// Service errors
var (
	ErrOrderNotFound       = errors.New("order not found")
	ErrOrderNotCancellable = errors.New("order can no longer be cancelled")
	ErrInvalidCharge       = errors.New("computed charge is invalid")
	ErrProviderUnavailable = errors.New("provider unavailable")
)

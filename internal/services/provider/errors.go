package provider

import (
	"errors"
	"fmt"
)

// Error is the normalized upstream failure. Transport errors, 5xx responses
// and timeouts are retryable; 4xx responses and logical errors the vendor
// embeds in a 200 body are not, since retrying a rejected request cannot
// succeed.
type Error struct {
	Op         string // "submit", "status", "cancel"
	StatusCode int    // HTTP status, 0 for transport failures
	Message    string
	Retryable  bool
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("provider %s failed (http %d): %s", e.Op, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("provider %s failed: %s", e.Op, e.Message)
}

// IsRetryable reports whether err is a retryable provider error.
func IsRetryable(err error) bool {
	var pe *Error
	return errors.As(err, &pe) && pe.Retryable
}

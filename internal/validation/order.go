// Package validation holds input validation for purchase requests. Shape
// validation (types, required fields) happens at the transport layer; these
// checks enforce business rules before any side effect.
package validation

import (
	"errors"
	"fmt"
	"net/url"
)

var (
	ErrInvalidLink     = errors.New("link must be a valid absolute http or https URL")
	ErrInvalidQuantity = errors.New("quantity outside the allowed range")
)

// ValidateLink requires a syntactically valid absolute http(s) URL.
func ValidateLink(link string) error {
	u, err := url.ParseRequestURI(link)
	if err != nil {
		return ErrInvalidLink
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidLink
	}
	return nil
}

// ValidateQuantity requires min <= quantity <= max.
func ValidateQuantity(quantity, min, max int) error {
	if quantity < min || quantity > max {
		return fmt.Errorf("%w: must be between %d and %d", ErrInvalidQuantity, min, max)
	}
	return nil
}

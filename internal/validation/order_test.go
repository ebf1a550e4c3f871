package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateLink(t *testing.T) {
	tests := []struct {
		name    string
		link    string
		wantErr bool
	}{
		{name: "https url", link: "https://example.com/profile/abc", wantErr: false},
		{name: "http url", link: "http://example.com", wantErr: false},
		{name: "missing scheme", link: "example.com/profile", wantErr: true},
		{name: "unsupported scheme", link: "ftp://example.com", wantErr: true},
		{name: "relative path", link: "/profile/abc", wantErr: true},
		{name: "empty", link: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateLink(tt.link)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidLink)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateQuantity(t *testing.T) {
	assert.NoError(t, ValidateQuantity(50, 10, 100))
	assert.NoError(t, ValidateQuantity(10, 10, 100))
	assert.NoError(t, ValidateQuantity(100, 10, 100))
	assert.ErrorIs(t, ValidateQuantity(9, 10, 100), ErrInvalidQuantity)
	assert.ErrorIs(t, ValidateQuantity(101, 10, 100), ErrInvalidQuantity)
	assert.ErrorIs(t, ValidateQuantity(0, 1, 100), ErrInvalidQuantity)
}

package models

import "time"

// Provider statuses
const (
	ProviderStatusActive   = "active"
	ProviderStatusDisabled = "disabled"
)

// Provider is an upstream vendor integration. The API key is stored
// AES-GCM-encrypted together with its nonce and is only decrypted transiently
// inside the provider gateway; the plaintext never touches the database or
// the logs.
type Provider struct {
	ID           uint   `gorm:"primarykey"`
	UserID       uint   `gorm:"index;not null"` // owning tenant
	Name         string `gorm:"not null"`
	APIURL       string `gorm:"not null"`
	APIKeyCipher string `gorm:"not null"` // base64 ciphertext
	APIKeyNonce  string `gorm:"not null"` // base64 nonce used as the IV
	Status       string `gorm:"default:'active'"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (p *Provider) IsActive() bool {
	return p.Status == ProviderStatusActive
}

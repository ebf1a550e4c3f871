package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Service statuses
const (
	ServiceStatusActive   = "active"
	ServiceStatusInactive = "inactive"
)

// Service is a sellable engagement service definition. It is owned by catalog
// management; the fulfillment engine only reads it.
type Service struct {
	ID                uint   `gorm:"primarykey"`
	ProviderID        uint   `gorm:"index;not null"`
	ProviderServiceID int    `gorm:"not null"` // upstream service identifier on the provider's API
	Name              string `gorm:"not null"`
	Category          string
	Rate              decimal.Decimal `gorm:"type:numeric(20,8);not null"` // price per unit
	Margin            decimal.Decimal `gorm:"type:numeric(20,8);not null;default:0"`
	MinQuantity       int             `gorm:"not null;default:1"`
	MaxQuantity       int             `gorm:"not null"`
	SupportsRefill    bool            `gorm:"default:false"`
	SupportsCancel    bool            `gorm:"default:false"`
	SupportsDripFeed  bool            `gorm:"default:false"`
	Status            string          `gorm:"default:'active'"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (s *Service) IsActive() bool {
	return s.Status == ServiceStatusActive
}

// UnitCharge is the per-unit price including margin.
func (s *Service) UnitCharge() decimal.Decimal {
	return s.Rate.Add(s.Margin)
}

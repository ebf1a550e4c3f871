package repositories

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"smmpanel/internal/models"
)

// ProviderRepository looks up upstream provider integrations and their
// encrypted credentials.
type ProviderRepository interface {
	GetProviderByID(id uint) (*models.Provider, error)
	// ListProviders returns every provider regardless of status. Disabling a
	// provider stops new submissions, but its in-flight orders still need
	// reconciling.
	ListProviders() ([]models.Provider, error)
}

type providerRepository struct {
	db *gorm.DB
}

func NewProviderRepository(db *gorm.DB) ProviderRepository {
	return &providerRepository{db: db}
}

func (r *providerRepository) GetProviderByID(id uint) (*models.Provider, error) {
	var provider models.Provider
	if err := r.db.First(&provider, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProviderNotFound
		}
		return nil, fmt.Errorf("failed to get provider: %w", err)
	}
	return &provider, nil
}

func (r *providerRepository) ListProviders() ([]models.Provider, error) {
	var providers []models.Provider
	if err := r.db.Order("id ASC").Find(&providers).Error; err != nil {
		return nil, fmt.Errorf("failed to list providers: %w", err)
	}
	return providers, nil
}

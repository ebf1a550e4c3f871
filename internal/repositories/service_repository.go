package repositories

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"smmpanel/internal/models"
)

// ServiceRepository is the read-only accessor for sellable service
// definitions. Catalog management writes them elsewhere.
type ServiceRepository interface {
	GetServiceByID(id uint) (*models.Service, error)
	ListActiveServices() ([]models.Service, error)
}

type serviceRepository struct {
	db *gorm.DB
}

func NewServiceRepository(db *gorm.DB) ServiceRepository {
	return &serviceRepository{db: db}
}

func (r *serviceRepository) GetServiceByID(id uint) (*models.Service, error) {
	var svc models.Service
	if err := r.db.First(&svc, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrServiceNotFound
		}
		return nil, fmt.Errorf("failed to get service: %w", err)
	}
	return &svc, nil
}

func (r *serviceRepository) ListActiveServices() ([]models.Service, error) {
	var services []models.Service
	err := r.db.Where("status = ?", models.ServiceStatusActive).
		Order("id ASC").
		Find(&services).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	return services, nil
}

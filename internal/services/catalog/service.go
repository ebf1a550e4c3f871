// Package catalog is the read-only accessor for sellable service
// definitions. Definitions are owned by catalog management; this package only
// serves lookups, with a short-TTL Redis cache in front of the database.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"smmpanel/internal/models"
	"smmpanel/internal/repositories"
	"smmpanel/internal/repositories/cache"
)

var ErrServiceNotFound = errors.New("service not found")

const (
	serviceCachePrefix = "catalog:service:"
	serviceCacheTTL    = 5 * time.Minute
)

// Service looks up active service definitions.
type Service interface {
	GetService(ctx context.Context, id uint) (*models.Service, error)
	ListServices(ctx context.Context) ([]models.Service, error)
}

type service struct {
	repo  repositories.ServiceRepository
	cache *cache.CacheService
}

// NewService creates a catalog accessor. The cache is optional; without it
// every lookup hits the database.
func NewService(repo repositories.ServiceRepository, cacheSvc *cache.CacheService) Service {
	if repo == nil {
		panic("repo is required")
	}
	return &service{repo: repo, cache: cacheSvc}
}

// GetService returns the active service definition for id. Missing and
// inactive definitions are indistinguishable to callers: both are
// ErrServiceNotFound, because an inactive service is not sellable.
func (s *service) GetService(ctx context.Context, id uint) (*models.Service, error) {
	key := fmt.Sprintf("%s%d", serviceCachePrefix, id)

	if s.cache != nil {
		var cached models.Service
		if found, err := s.cache.Get(ctx, key, &cached); err == nil && found {
			return &cached, nil
		}
	}

	svc, err := s.repo.GetServiceByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrServiceNotFound) {
			return nil, ErrServiceNotFound
		}
		return nil, fmt.Errorf("failed to get service: %w", err)
	}
	if !svc.IsActive() {
		return nil, ErrServiceNotFound
	}

	if s.cache != nil {
		if err := s.cache.SetWithTTL(ctx, key, svc, serviceCacheTTL); err != nil {
			log.Printf("failed to cache service %d: %v", id, err)
		}
	}
	return svc, nil
}

func (s *service) ListServices(ctx context.Context) ([]models.Service, error) {
	services, err := s.repo.ListActiveServices()
	if err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	return services, nil
}

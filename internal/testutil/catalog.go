package testutil

import (
	"sort"

	"smmpanel/internal/models"
	"smmpanel/internal/repositories"
)

// ServiceStore is an in-memory ServiceRepository.
type ServiceStore struct {
	services map[uint]models.Service
}

func NewServiceStore(services ...models.Service) *ServiceStore {
	s := &ServiceStore{services: make(map[uint]models.Service)}
	for _, svc := range services {
		s.services[svc.ID] = svc
	}
	return s
}

func (s *ServiceStore) GetServiceByID(id uint) (*models.Service, error) {
	svc, ok := s.services[id]
	if !ok {
		return nil, repositories.ErrServiceNotFound
	}
	out := svc
	return &out, nil
}

func (s *ServiceStore) ListActiveServices() ([]models.Service, error) {
	var out []models.Service
	for _, svc := range s.services {
		if svc.IsActive() {
			out = append(out, svc)
		}
	}
	return out, nil
}

var _ repositories.ServiceRepository = (*ServiceStore)(nil)

// ProviderStore is an in-memory ProviderRepository.
type ProviderStore struct {
	providers map[uint]models.Provider
}

func NewProviderStore(providers ...models.Provider) *ProviderStore {
	s := &ProviderStore{providers: make(map[uint]models.Provider)}
	for _, p := range providers {
		s.providers[p.ID] = p
	}
	return s
}

func (s *ProviderStore) GetProviderByID(id uint) (*models.Provider, error) {
	p, ok := s.providers[id]
	if !ok {
		return nil, repositories.ErrProviderNotFound
	}
	out := p
	return &out, nil
}

func (s *ProviderStore) ListProviders() ([]models.Provider, error) {
	out := make([]models.Provider, 0, len(s.providers))
	for _, p := range s.providers {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

var _ repositories.ProviderRepository = (*ProviderStore)(nil)

package catalog

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smmpanel/internal/models"
	"smmpanel/internal/testutil"
)

func testStore() *testutil.ServiceStore {
	return testutil.NewServiceStore(
		models.Service{
			ID:          1,
			ProviderID:  1,
			Name:        "Instagram Followers",
			Rate:        decimal.RequireFromString("0.40"),
			Margin:      decimal.RequireFromString("0.10"),
			MinQuantity: 10,
			MaxQuantity: 10000,
			Status:      models.ServiceStatusActive,
		},
		models.Service{
			ID:         2,
			ProviderID: 1,
			Name:       "Retired Service",
			Rate:       decimal.RequireFromString("1.00"),
			Status:     models.ServiceStatusInactive,
		},
	)
}

func TestGetService_Active(t *testing.T) {
	svc := NewService(testStore(), nil)

	got, err := svc.GetService(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Instagram Followers", got.Name)
	assert.True(t, got.UnitCharge().Equal(decimal.RequireFromString("0.50")))
}

func TestGetService_InactiveLooksMissing(t *testing.T) {
	svc := NewService(testStore(), nil)

	_, err := svc.GetService(context.Background(), 2)
	assert.ErrorIs(t, err, ErrServiceNotFound)
}

func TestGetService_Unknown(t *testing.T) {
	svc := NewService(testStore(), nil)

	_, err := svc.GetService(context.Background(), 99)
	assert.ErrorIs(t, err, ErrServiceNotFound)
}

func TestListServices_OnlyActive(t *testing.T) {
	svc := NewService(testStore(), nil)

	services, err := svc.ListServices(context.Background())
	require.NoError(t, err)
	require.Len(t, services, 1)
	assert.Equal(t, uint(1), services[0].ID)
}

// Package rest contains unit tests for REST API handlers.
package rest

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sean-rowe/weather-history-service/internal/core/domain"
	"github.com/sean-rowe/weather-history-service/internal/core/ports"
)

// MockRequestService is a mock implementation of the RequestService interface.
type MockRequestService struct {
	mock.Mock
}

// Create mocks the request service Create method.
//
// Parameters:
//   - ctx: Context for the request
//   - input: Parsed create payload
//
// Returns:
//   - *domain.WeatherRequest: Mocked request
//   - error: Mocked error if configured
func (m *MockRequestService) Create(ctx context.Context, input ports.CreateInput) (*domain.WeatherRequest, error) {
	args := m.Called(ctx, input)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.WeatherRequest), args.Error(1)
}

// Get mocks the request service Get method.
func (m *MockRequestService) Get(ctx context.Context, id int64) (*domain.WeatherRequest, error) {
	args := m.Called(ctx, id)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.WeatherRequest), args.Error(1)
}

// List mocks the request service List method.
func (m *MockRequestService) List(ctx context.Context) ([]domain.WeatherRequest, error) {
	args := m.Called(ctx)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]domain.WeatherRequest), args.Error(1)
}

// Update mocks the request service Update method.
func (m *MockRequestService) Update(ctx context.Context, id int64, input ports.UpdateInput) (*domain.WeatherRequest, error) {
	args := m.Called(ctx, id, input)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.WeatherRequest), args.Error(1)
}

// Delete mocks the request service Delete method.
func (m *MockRequestService) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

// Export mocks the request service Export method.
func (m *MockRequestService) Export(ctx context.Context, format string) (*domain.Export, error) {
	args := m.Called(ctx, format)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.Export), args.Error(1)
}

// MockEnrichmentService is a mock implementation of the EnrichmentService interface.
type MockEnrichmentService struct {
	mock.Mock
}

// Enrich mocks the enrichment service Enrich method.
func (m *MockEnrichmentService) Enrich(ctx context.Context, location string) (*domain.Extras, error) {
	args := m.Called(ctx, location)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.Extras), args.Error(1)
}

// Package services contains unit tests for the weather history services.
package services

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/sean-rowe/weather-history-service/internal/core/domain"
)

// MockGeocoder is a mock implementation of the Geocoder interface.
type MockGeocoder struct {
	mock.Mock
}

// Search mocks the geocoder Search method.
//
// Parameters:
//   - ctx: Context for the request
//   - name: Place name or postal code
//
// Returns:
//   - []domain.Location: Mocked matches
//   - error: Mocked error if configured
func (m *MockGeocoder) Search(ctx context.Context, name string) ([]domain.Location, error) {
	args := m.Called(ctx, name)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]domain.Location), args.Error(1)
}

// MockLocationResolver is a mock implementation of the LocationResolver interface.
type MockLocationResolver struct {
	mock.Mock
}

// Resolve mocks the resolver Resolve method.
func (m *MockLocationResolver) Resolve(ctx context.Context, query string) (*domain.Location, error) {
	args := m.Called(ctx, query)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.Location), args.Error(1)
}

// MockWeatherArchive is a mock implementation of the WeatherArchive interface.
type MockWeatherArchive struct {
	mock.Mock
}

// DailyTemperatures mocks the archive DailyTemperatures method.
//
// Parameters:
//   - ctx: Context for the request
//   - coords: Geographic coordinates
//   - start: First day of the range
//   - end: Last day of the range
//
// Returns:
//   - []domain.DailyWeather: Mocked daily series
//   - error: Mocked error if configured
func (m *MockWeatherArchive) DailyTemperatures(ctx context.Context, coords domain.Coordinates, start, end time.Time) ([]domain.DailyWeather, error) {
	args := m.Called(ctx, coords, start, end)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]domain.DailyWeather), args.Error(1)
}

// MockVideoSearch is a mock implementation of the VideoSearch interface.
type MockVideoSearch struct {
	mock.Mock
}

// Search mocks the video Search method.
func (m *MockVideoSearch) Search(ctx context.Context, query string, limit int) ([]domain.Video, error) {
	args := m.Called(ctx, query, limit)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]domain.Video), args.Error(1)
}

// MockRequestRepository is a mock implementation of the RequestRepository interface.
type MockRequestRepository struct {
	mock.Mock
}

// Create mocks the repository Create method and assigns an ID on success.
func (m *MockRequestRepository) Create(ctx context.Context, req *domain.WeatherRequest) error {
	args := m.Called(ctx, req)

	if args.Error(0) == nil {
		req.ID = 1
	}

	return args.Error(0)
}

// Get mocks the repository Get method.
func (m *MockRequestRepository) Get(ctx context.Context, id int64) (*domain.WeatherRequest, error) {
	args := m.Called(ctx, id)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.WeatherRequest), args.Error(1)
}

// List mocks the repository List method.
func (m *MockRequestRepository) List(ctx context.Context) ([]domain.WeatherRequest, error) {
	args := m.Called(ctx)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]domain.WeatherRequest), args.Error(1)
}

// Update mocks the repository Update method.
func (m *MockRequestRepository) Update(ctx context.Context, req *domain.WeatherRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

// Delete mocks the repository Delete method.
func (m *MockRequestRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// FindByResolvedName mocks the repository FindByResolvedName method.
func (m *MockRequestRepository) FindByResolvedName(ctx context.Context, name string) (*domain.WeatherRequest, error) {
	args := m.Called(ctx, name)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.WeatherRequest), args.Error(1)
}

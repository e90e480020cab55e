// Package ports declares the interfaces between the core services and their adapters.
package ports

import (
	"context"
	"time"

	"github.com/sean-rowe/weather-history-service/internal/core/domain"
)

// RequestService is the primary port for recording and managing weather requests.
type RequestService interface {
	Create(ctx context.Context, input CreateInput) (*domain.WeatherRequest, error)
	Get(ctx context.Context, id int64) (*domain.WeatherRequest, error)
	List(ctx context.Context) ([]domain.WeatherRequest, error)
	Update(ctx context.Context, id int64, input UpdateInput) (*domain.WeatherRequest, error)
	Delete(ctx context.Context, id int64) error
	Export(ctx context.Context, format string) (*domain.Export, error)
}

// EnrichmentService is the primary port for best-effort location extras.
type EnrichmentService interface {
	Enrich(ctx context.Context, location string) (*domain.Extras, error)
}

// LocationResolver turns a free-form query into a canonical location.
type LocationResolver interface {
	Resolve(ctx context.Context, query string) (*domain.Location, error)
}

// Geocoder searches an external gazetteer by place name or postal code.
// Results are ranked best first; an empty slice means no match.
type Geocoder interface {
	Search(ctx context.Context, name string) ([]domain.Location, error)
}

// WeatherArchive retrieves historical daily temperatures.
type WeatherArchive interface {
	DailyTemperatures(ctx context.Context, coords domain.Coordinates, start, end time.Time) ([]domain.DailyWeather, error)
}

// VideoSearch looks up videos by free text.
type VideoSearch interface {
	Search(ctx context.Context, query string, limit int) ([]domain.Video, error)
}

// RequestRepository persists WeatherRequest aggregates. Every write replaces the
// request's days in the same transaction as the parent row.
type RequestRepository interface {
	Create(ctx context.Context, req *domain.WeatherRequest) error
	Get(ctx context.Context, id int64) (*domain.WeatherRequest, error)
	List(ctx context.Context) ([]domain.WeatherRequest, error)
	Update(ctx context.Context, req *domain.WeatherRequest) error
	Delete(ctx context.Context, id int64) error
	FindByResolvedName(ctx context.Context, name string) (*domain.WeatherRequest, error)
}

// CreateInput carries the fields needed to record a new request.
type CreateInput struct {
	RawQuery  string
	StartDate time.Time
	EndDate   time.Time
}

// UpdateInput carries optional replacements; nil fields keep their stored value.
type UpdateInput struct {
	RawQuery  *string
	StartDate *time.Time
	EndDate   *time.Time
}

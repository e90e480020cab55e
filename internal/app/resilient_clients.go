package app

import (
	"context"
	"time"

	"github.com/sean-rowe/weather-history-service/internal/core/domain"
	"github.com/sean-rowe/weather-history-service/internal/core/ports"
	"github.com/sean-rowe/weather-history-service/internal/infrastructure/circuitbreaker"
	"github.com/sean-rowe/weather-history-service/internal/observability"
)

// Provider names used for breakers and upstream metrics.
const (
	providerGeocoding = "geocoding"
	providerArchive   = "archive"
	providerVideo     = "video"
)

// CircuitBreakerGeocoder wraps a geocoder with circuit breaker protection
// and upstream call metrics.
type CircuitBreakerGeocoder struct {
	client    ports.Geocoder
	cb        *circuitbreaker.Breaker
	telemetry *observability.Telemetry
}

// Search looks up a place name through the breaker.
func (c *CircuitBreakerGeocoder) Search(ctx context.Context, name string) ([]domain.Location, error) {
	start := time.Now()

	result, err := circuitbreaker.Call(ctx, c.cb, "search", func(ctx context.Context) ([]domain.Location, error) {
		return c.client.Search(ctx, name)
	})
	c.telemetry.RecordUpstreamCall(ctx, providerGeocoding, time.Since(start), err)

	return result, err
}

// CircuitBreakerArchive wraps the historical weather archive with circuit breaker
// protection and upstream call metrics.
type CircuitBreakerArchive struct {
	client    ports.WeatherArchive
	cb        *circuitbreaker.Breaker
	telemetry *observability.Telemetry
}

// DailyTemperatures fetches the daily series through the breaker.
func (c *CircuitBreakerArchive) DailyTemperatures(ctx context.Context, coords domain.Coordinates, start, end time.Time) ([]domain.DailyWeather, error) {
	began := time.Now()

	result, err := circuitbreaker.Call(ctx, c.cb, "daily-temperatures", func(ctx context.Context) ([]domain.DailyWeather, error) {
		return c.client.DailyTemperatures(ctx, coords, start, end)
	})
	c.telemetry.RecordUpstreamCall(ctx, providerArchive, time.Since(began), err)

	return result, err
}

// CircuitBreakerVideoSearch wraps the video search with circuit breaker protection.
type CircuitBreakerVideoSearch struct {
	client    ports.VideoSearch
	cb        *circuitbreaker.Breaker
	telemetry *observability.Telemetry
}

// Search runs a video query through the breaker.
func (c *CircuitBreakerVideoSearch) Search(ctx context.Context, query string, limit int) ([]domain.Video, error) {
	start := time.Now()

	result, err := circuitbreaker.Call(ctx, c.cb, "search", func(ctx context.Context) ([]domain.Video, error) {
		return c.client.Search(ctx, query, limit)
	})
	c.telemetry.RecordUpstreamCall(ctx, providerVideo, time.Since(start), err)

	return result, err
}

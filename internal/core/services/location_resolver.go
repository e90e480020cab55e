package services

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/sean-rowe/weather-history-service/internal/core/domain"
	"github.com/sean-rowe/weather-history-service/internal/core/ports"
)

var errNoGeocodingMatch = errors.New("geocoder returned no results")

type locationResolver struct {
	geocoder ports.Geocoder
	logger   *zap.Logger
}

// NewLocationResolver creates a resolver that accepts raw "lat,lon" pairs and falls back
// to the geocoder for anything else.
func NewLocationResolver(geocoder ports.Geocoder, logger *zap.Logger) ports.LocationResolver {
	return &locationResolver{
		geocoder: geocoder,
		logger:   logger,
	}
}

// Resolve returns the best location for query. Geocoder failures are reported as
// LOCATION_NOT_FOUND so callers treat them as bad input.
func (r *locationResolver) Resolve(ctx context.Context, query string) (*domain.Location, error) {
	query = strings.TrimSpace(query)

	if loc, ok := domain.ParseCoordinatePair(query); ok {
		return &loc, nil
	}

	matches, err := r.geocoder.Search(ctx, query)

	if err != nil {
		r.logger.Warn("geocoding failed",
			zap.String("query", query),
			zap.Error(err))

		return nil, &domain.WeatherError{
			Code:    domain.CodeLocationNotFound,
			Message: "Location not found",
			Cause:   err,
		}
	}

	if len(matches) == 0 {
		r.logger.Info("no geocoding match", zap.String("query", query))

		return nil, &domain.WeatherError{
			Code:    domain.CodeLocationNotFound,
			Message: "Location not found",
			Cause:   errNoGeocodingMatch,
		}
	}

	best := matches[0]

	return &best, nil
}

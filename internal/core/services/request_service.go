// Package services implements the core use cases of the weather history service.
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sean-rowe/weather-history-service/internal/core/domain"
	"github.com/sean-rowe/weather-history-service/internal/core/ports"
)

type requestService struct {
	resolver ports.LocationResolver
	archive  ports.WeatherArchive
	repo     ports.RequestRepository
	logger   *zap.Logger

	// now is read on every call so date validation follows the wall clock
	now func() time.Time
}

// NewRequestService creates the request orchestrator.
//
// Parameters:
//   - resolver: Resolves raw queries to locations
//   - archive: Historical weather source
//   - repo: Aggregate store
//   - logger: Zap logger for pipeline events
//
// Returns:
//   - ports.RequestService: Configured service
func NewRequestService(
	resolver ports.LocationResolver,
	archive ports.WeatherArchive,
	repo ports.RequestRepository,
	logger *zap.Logger,
) ports.RequestService {
	return &requestService{
		resolver: resolver,
		archive:  archive,
		repo:     repo,
		logger:   logger,
		now:      time.Now,
	}
}

// Create resolves the location, validates the range, fetches the weather and
// persists the aggregate. Nothing is written unless every step succeeds.
func (s *requestService) Create(ctx context.Context, input ports.CreateInput) (*domain.WeatherRequest, error) {
	loc, err := s.resolver.Resolve(ctx, input.RawQuery)

	if err != nil {
		return nil, err
	}

	start := domain.TruncateToDate(input.StartDate)
	end := domain.TruncateToDate(input.EndDate)

	if err := s.validateDates(start, end); err != nil {
		return nil, err
	}

	days, err := s.fetchDays(ctx, loc.Coordinates, start, end)

	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	req := &domain.WeatherRequest{
		RawQuery:  input.RawQuery,
		StartDate: start,
		EndDate:   end,
		CreatedAt: now,
		UpdatedAt: now,
		Days:      days,
	}
	req.ApplyLocation(*loc)

	if err := s.repo.Create(ctx, req); err != nil {
		s.logger.Error("failed to persist weather request",
			zap.String("raw_query", input.RawQuery),
			zap.Error(err))

		return nil, persistenceError(err)
	}

	s.logger.Info("weather request created",
		zap.Int64("request_id", req.ID),
		zap.String("resolved_name", req.ResolvedName),
		zap.Int("days", len(req.Days)))

	return req, nil
}

// Get returns a single aggregate.
func (s *requestService) Get(ctx context.Context, id int64) (*domain.WeatherRequest, error) {
	req, err := s.repo.Get(ctx, id)

	if err != nil {
		return nil, s.storeError(err, id)
	}

	return req, nil
}

// List returns every aggregate, newest first.
func (s *requestService) List(ctx context.Context) ([]domain.WeatherRequest, error) {
	reqs, err := s.repo.List(ctx)

	if err != nil {
		s.logger.Error("failed to list weather requests", zap.Error(err))
		return nil, persistenceError(err)
	}

	return reqs, nil
}

// Update re-runs the pipeline for whichever of location and dates changed.
// When neither changed the stored aggregate is returned untouched.
func (s *requestService) Update(ctx context.Context, id int64, input ports.UpdateInput) (*domain.WeatherRequest, error) {
	current, err := s.Get(ctx, id)

	if err != nil {
		return nil, err
	}

	updated := *current
	locationChanged := false

	// padding alone is not a new location
	if input.RawQuery != nil && !sameQuery(*input.RawQuery, current.RawQuery) {
		loc, err := s.resolver.Resolve(ctx, *input.RawQuery)

		if err != nil {
			return nil, err
		}

		updated.RawQuery = *input.RawQuery
		updated.ApplyLocation(*loc)
		locationChanged = true
	}

	start := current.StartDate
	end := current.EndDate

	if input.StartDate != nil {
		start = domain.TruncateToDate(*input.StartDate)
	}

	if input.EndDate != nil {
		end = domain.TruncateToDate(*input.EndDate)
	}

	datesChanged := !start.Equal(current.StartDate) || !end.Equal(current.EndDate)

	if datesChanged {
		if err := s.validateDates(start, end); err != nil {
			return nil, err
		}

		updated.StartDate = start
		updated.EndDate = end
	}

	if !locationChanged && !datesChanged {
		s.logger.Debug("update without changes", zap.Int64("request_id", id))
		return current, nil
	}

	days, err := s.fetchDays(ctx, updated.Coordinates(), updated.StartDate, updated.EndDate)

	if err != nil {
		return nil, err
	}

	updated.Days = days
	updated.UpdatedAt = s.now().UTC()

	if err := s.repo.Update(ctx, &updated); err != nil {
		return nil, s.storeError(err, id)
	}

	s.logger.Info("weather request updated",
		zap.Int64("request_id", id),
		zap.Bool("location_changed", locationChanged),
		zap.Bool("dates_changed", datesChanged),
		zap.Int("days", len(updated.Days)))

	return &updated, nil
}

// Delete removes an aggregate and its days.
func (s *requestService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return s.storeError(err, id)
	}

	s.logger.Info("weather request deleted", zap.Int64("request_id", id))

	return nil
}

// sameQuery reports whether next names the same place as stored. A blank next
// keeps the stored query.
func sameQuery(next, stored string) bool {
	trimmed := strings.TrimSpace(next)

	return trimmed == "" || trimmed == strings.TrimSpace(stored)
}

func (s *requestService) validateDates(start, end time.Time) error {
	if err := domain.ValidateDateRange(start, end, s.now()); err != nil {
		return &domain.WeatherError{
			Code:    domain.CodeInvalidDateRange,
			Message: err.Error(),
			Cause:   err,
		}
	}

	return nil
}

// fetchDays treats a transport failure as a fault and an empty series as bad input.
func (s *requestService) fetchDays(ctx context.Context, coords domain.Coordinates, start, end time.Time) ([]domain.DailyWeather, error) {
	days, err := s.archive.DailyTemperatures(ctx, coords, start, end)

	if err != nil {
		s.logger.Error("failed to fetch daily weather",
			zap.Float64("latitude", coords.Latitude),
			zap.Float64("longitude", coords.Longitude),
			zap.String("start_date", start.Format(domain.DateLayout)),
			zap.String("end_date", end.Format(domain.DateLayout)),
			zap.Error(err))

		return nil, &domain.WeatherError{
			Code:    domain.CodeUpstreamFailure,
			Message: "Failed to retrieve weather data",
			Cause:   err,
		}
	}

	if len(days) == 0 {
		return nil, &domain.WeatherError{
			Code:    domain.CodeNoWeatherData,
			Message: "No weather data found",
		}
	}

	return days, nil
}

func (s *requestService) storeError(err error, id int64) error {
	if errors.Is(err, domain.ErrNotFound) {
		return &domain.WeatherError{
			Code:    domain.CodeRequestNotFound,
			Message: "Request not found",
			Cause:   err,
		}
	}

	s.logger.Error("weather request store failed",
		zap.Int64("request_id", id),
		zap.Error(err))

	return persistenceError(err)
}

func persistenceError(err error) error {
	return &domain.WeatherError{
		Code:    domain.CodePersistenceFailure,
		Message: "Failed to access stored weather requests",
		Cause:   err,
	}
}

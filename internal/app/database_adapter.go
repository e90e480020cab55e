package app

import (
	"context"
	"errors"
	"time"

	"github.com/sean-rowe/weather-history-service/internal/core/domain"
	"github.com/sean-rowe/weather-history-service/internal/infrastructure/database"
	"github.com/sean-rowe/weather-history-service/internal/observability"
)

// DatabaseAdapter adapts the RequestStore to the ports.RequestRepository interface
// and records query timings.
type DatabaseAdapter struct {
	store     *database.RequestStore
	telemetry *observability.Telemetry
}

// NewDatabaseAdapter creates a new database adapter. telemetry may be nil.
func NewDatabaseAdapter(store *database.RequestStore, telemetry *observability.Telemetry) *DatabaseAdapter {
	return &DatabaseAdapter{
		store:     store,
		telemetry: telemetry,
	}
}

// Create implements ports.RequestRepository. IDs assigned by the store are copied back onto req.
func (d *DatabaseAdapter) Create(ctx context.Context, req *domain.WeatherRequest) error {
	rec := toRecord(req)
	start := time.Now()

	err := d.store.Create(ctx, rec)
	d.telemetry.RecordDBQuery(ctx, "create", time.Since(start), err)

	if err != nil {
		return err
	}

	copyIDs(req, rec)
	d.telemetry.RecordPersisted(ctx, "create")

	return nil
}

// Get implements ports.RequestRepository.
func (d *DatabaseAdapter) Get(ctx context.Context, id int64) (*domain.WeatherRequest, error) {
	start := time.Now()

	rec, err := d.store.Get(ctx, id)
	d.telemetry.RecordDBQuery(ctx, "get", time.Since(start), ignoreNotFound(err))

	if err != nil {
		return nil, translate(err)
	}

	req := fromRecord(*rec)

	return &req, nil
}

// List implements ports.RequestRepository.
func (d *DatabaseAdapter) List(ctx context.Context) ([]domain.WeatherRequest, error) {
	start := time.Now()

	records, err := d.store.List(ctx)
	d.telemetry.RecordDBQuery(ctx, "list", time.Since(start), err)

	if err != nil {
		return nil, err
	}

	requests := make([]domain.WeatherRequest, 0, len(records))

	for _, rec := range records {
		requests = append(requests, fromRecord(rec))
	}

	return requests, nil
}

// Update implements ports.RequestRepository.
func (d *DatabaseAdapter) Update(ctx context.Context, req *domain.WeatherRequest) error {
	rec := toRecord(req)
	start := time.Now()

	err := d.store.Update(ctx, rec)
	d.telemetry.RecordDBQuery(ctx, "update", time.Since(start), ignoreNotFound(err))

	if err != nil {
		return translate(err)
	}

	copyIDs(req, rec)
	d.telemetry.RecordPersisted(ctx, "update")

	return nil
}

// Delete implements ports.RequestRepository.
func (d *DatabaseAdapter) Delete(ctx context.Context, id int64) error {
	start := time.Now()

	err := d.store.Delete(ctx, id)
	d.telemetry.RecordDBQuery(ctx, "delete", time.Since(start), ignoreNotFound(err))

	return translate(err)
}

// FindByResolvedName implements ports.RequestRepository.
func (d *DatabaseAdapter) FindByResolvedName(ctx context.Context, name string) (*domain.WeatherRequest, error) {
	start := time.Now()

	rec, err := d.store.FindByResolvedName(ctx, name)
	d.telemetry.RecordDBQuery(ctx, "find_by_name", time.Since(start), err)

	if err != nil || rec == nil {
		return nil, err
	}

	req := fromRecord(*rec)

	return &req, nil
}

// Ping reports whether the database is reachable.
func (d *DatabaseAdapter) Ping(ctx context.Context) error {
	return d.store.Ping(ctx)
}

func translate(err error) error {
	if errors.Is(err, database.ErrNotFound) {
		return domain.ErrNotFound
	}

	return err
}

// ignoreNotFound keeps a lookup miss out of the database error metrics.
func ignoreNotFound(err error) error {
	if errors.Is(err, database.ErrNotFound) {
		return nil
	}

	return err
}

func toRecord(req *domain.WeatherRequest) *database.RequestRecord {
	days := make([]database.DayRecord, 0, len(req.Days))

	for _, d := range req.Days {
		days = append(days, database.DayRecord{
			ID:        d.ID,
			RequestID: req.ID,
			Date:      d.Date,
			TMin:      d.MinTemperature,
			TMax:      d.MaxTemperature,
			TAvg:      d.MeanTemperature,
		})
	}

	return &database.RequestRecord{
		ID:           req.ID,
		RawQuery:     req.RawQuery,
		ResolvedName: req.ResolvedName,
		Country:      req.Country,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		CreatedAt:    req.CreatedAt,
		UpdatedAt:    req.UpdatedAt,
		Days:         days,
	}
}

func fromRecord(rec database.RequestRecord) domain.WeatherRequest {
	days := make([]domain.DailyWeather, 0, len(rec.Days))

	for _, d := range rec.Days {
		days = append(days, domain.DailyWeather{
			ID:              d.ID,
			Date:            d.Date,
			MinTemperature:  d.TMin,
			MaxTemperature:  d.TMax,
			MeanTemperature: d.TAvg,
		})
	}

	return domain.WeatherRequest{
		ID:           rec.ID,
		RawQuery:     rec.RawQuery,
		ResolvedName: rec.ResolvedName,
		Country:      rec.Country,
		Latitude:     rec.Latitude,
		Longitude:    rec.Longitude,
		StartDate:    rec.StartDate,
		EndDate:      rec.EndDate,
		CreatedAt:    rec.CreatedAt,
		UpdatedAt:    rec.UpdatedAt,
		Days:         days,
	}
}

func copyIDs(req *domain.WeatherRequest, rec *database.RequestRecord) {
	req.ID = rec.ID

	for i := range req.Days {
		req.Days[i].ID = rec.Days[i].ID
	}
}

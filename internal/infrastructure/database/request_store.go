package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var requestColumns = []string{
	"id", "raw_query", "resolved_name", "country", "lat", "lon",
	"start_date", "end_date", "created_at", "updated_at",
}

var dayColumns = []string{"id", "request_id", "date", "tmin", "tmax", "tavg"}

// RequestRecord is a weather_requests row together with its weather_days rows.
type RequestRecord struct {
	ID           int64
	RawQuery     string
	ResolvedName string
	Country      string
	Latitude     float64
	Longitude    float64
	StartDate    time.Time
	EndDate      time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Days         []DayRecord
}

// DayRecord is a weather_days row.
type DayRecord struct {
	ID        int64
	RequestID int64
	Date      time.Time
	TMin      float64
	TMax      float64
	TAvg      float64
}

// RequestStore persists weather requests and their daily records as one aggregate.
// Every write runs in a single transaction so a request is never visible
// without its days.
type RequestStore struct {
	db      *sql.DB
	builder squirrel.StatementBuilderType
	logger  *zap.Logger
}

// NewRequestStore creates a store over an open connection.
//
// Parameters:
//   - db: Open database handle (see Open)
//   - driver: DriverSQLite or DriverPostgres, selects placeholder style
//   - logger: Zap logger
//
// Returns:
//   - *RequestStore: Ready store; the schema must already be migrated
func NewRequestStore(db *sql.DB, driver string, logger *zap.Logger) *RequestStore {
	return &RequestStore{
		db:      db,
		builder: statementBuilder(driver),
		logger:  logger,
	}
}

func startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return otel.Tracer("database").Start(ctx, name)
}

// Ping verifies the database is reachable.
func (s *RequestStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Create inserts the request and its days, assigning IDs in place.
func (s *RequestStore) Create(ctx context.Context, rec *RequestRecord) error {
	ctx, span := startSpan(ctx, "RequestStore.Create")
	defer span.End()

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		query, args, err := s.builder.Insert("weather_requests").
			Columns(requestColumns[1:]...).
			Values(rec.RawQuery, rec.ResolvedName, rec.Country, rec.Latitude, rec.Longitude,
				rec.StartDate.UTC(), rec.EndDate.UTC(), rec.CreatedAt.UTC(), rec.UpdatedAt.UTC()).
			Suffix("RETURNING id").
			ToSql()
		if err != nil {
			return err
		}

		if err := tx.QueryRowContext(ctx, query, args...).Scan(&rec.ID); err != nil {
			return fmt.Errorf("insert weather request: %w", err)
		}

		return s.insertDays(ctx, tx, rec)
	})

	if err != nil {
		span.RecordError(err)
		s.logger.Error("failed to create weather request", zap.Error(err))
		return err
	}

	span.SetAttributes(attribute.Int64("request_id", rec.ID), attribute.Int("days", len(rec.Days)))

	return nil
}

// Get loads one request and its days ordered by date.
func (s *RequestStore) Get(ctx context.Context, id int64) (*RequestRecord, error) {
	ctx, span := startSpan(ctx, "RequestStore.Get")
	defer span.End()

	span.SetAttributes(attribute.Int64("request_id", id))

	records, err := s.selectRequests(ctx, s.builder.Select(requestColumns...).
		From("weather_requests").
		Where(squirrel.Eq{"id": id}))
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	if len(records) == 0 {
		return nil, ErrNotFound
	}

	return &records[0], nil
}

// List loads every request, newest first, with days attached.
func (s *RequestStore) List(ctx context.Context) ([]RequestRecord, error) {
	ctx, span := startSpan(ctx, "RequestStore.List")
	defer span.End()

	records, err := s.selectRequests(ctx, s.builder.Select(requestColumns...).
		From("weather_requests").
		OrderBy("created_at DESC", "id DESC"))
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	span.SetAttributes(attribute.Int("count", len(records)))

	return records, nil
}

// likeEscaper makes LIKE wildcards in user input match literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// FindByResolvedName returns the newest request whose resolved name contains
// name, ignoring case. It returns nil when nothing matches.
func (s *RequestStore) FindByResolvedName(ctx context.Context, name string) (*RequestRecord, error) {
	ctx, span := startSpan(ctx, "RequestStore.FindByResolvedName")
	defer span.End()

	records, err := s.selectRequests(ctx, s.builder.Select(requestColumns...).
		From("weather_requests").
		Where(squirrel.Expr(`LOWER(resolved_name) LIKE ? ESCAPE '\'`, "%"+likeEscaper.Replace(strings.ToLower(name))+"%")).
		OrderBy("created_at DESC", "id DESC").
		Limit(1))
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	if len(records) == 0 {
		return nil, nil
	}

	return &records[0], nil
}

// Update rewrites the request fields and replaces all of its days.
func (s *RequestStore) Update(ctx context.Context, rec *RequestRecord) error {
	ctx, span := startSpan(ctx, "RequestStore.Update")
	defer span.End()

	span.SetAttributes(attribute.Int64("request_id", rec.ID))

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		query, args, err := s.builder.Update("weather_requests").
			SetMap(map[string]interface{}{
				"raw_query":     rec.RawQuery,
				"resolved_name": rec.ResolvedName,
				"country":       rec.Country,
				"lat":           rec.Latitude,
				"lon":           rec.Longitude,
				"start_date":    rec.StartDate.UTC(),
				"end_date":      rec.EndDate.UTC(),
				"updated_at":    rec.UpdatedAt.UTC(),
			}).
			Where(squirrel.Eq{"id": rec.ID}).
			ToSql()
		if err != nil {
			return err
		}

		result, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("update weather request: %w", err)
		}

		if err := requireAffected(result); err != nil {
			return err
		}

		if err := s.deleteDays(ctx, tx, rec.ID); err != nil {
			return err
		}

		return s.insertDays(ctx, tx, rec)
	})

	if err != nil && !errors.Is(err, ErrNotFound) {
		span.RecordError(err)
		s.logger.Error("failed to update weather request", zap.Int64("request_id", rec.ID), zap.Error(err))
	}

	return err
}

// Delete removes a request and its days.
func (s *RequestStore) Delete(ctx context.Context, id int64) error {
	ctx, span := startSpan(ctx, "RequestStore.Delete")
	defer span.End()

	span.SetAttributes(attribute.Int64("request_id", id))

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.deleteDays(ctx, tx, id); err != nil {
			return err
		}

		query, args, err := s.builder.Delete("weather_requests").Where(squirrel.Eq{"id": id}).ToSql()
		if err != nil {
			return err
		}

		result, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("delete weather request: %w", err)
		}

		return requireAffected(result)
	})

	if err != nil && !errors.Is(err, ErrNotFound) {
		span.RecordError(err)
		s.logger.Error("failed to delete weather request", zap.Int64("request_id", id), zap.Error(err))
	}

	return err
}

// withTx runs fn in a transaction, committing on success and rolling back otherwise.
func (s *RequestStore) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Warn("rollback failed", zap.Error(rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

func (s *RequestStore) insertDays(ctx context.Context, tx *sql.Tx, rec *RequestRecord) error {
	for i := range rec.Days {
		day := &rec.Days[i]
		day.RequestID = rec.ID

		query, args, err := s.builder.Insert("weather_days").
			Columns(dayColumns[1:]...).
			Values(rec.ID, day.Date.UTC(), day.TMin, day.TMax, day.TAvg).
			Suffix("RETURNING id").
			ToSql()
		if err != nil {
			return err
		}

		if err := tx.QueryRowContext(ctx, query, args...).Scan(&day.ID); err != nil {
			return fmt.Errorf("insert weather day %s: %w", day.Date.Format("2006-01-02"), err)
		}
	}

	return nil
}

func (s *RequestStore) deleteDays(ctx context.Context, tx *sql.Tx, requestID int64) error {
	query, args, err := s.builder.Delete("weather_days").Where(squirrel.Eq{"request_id": requestID}).ToSql()
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete weather days: %w", err)
	}

	return nil
}

// selectRequests runs a request query and attaches days in a second query.
// The request rows are fully read before the days query starts, since a
// SQLite handle has only one connection.
func (s *RequestStore) selectRequests(ctx context.Context, builder squirrel.SelectBuilder) ([]RequestRecord, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query weather requests: %w", err)
	}

	records := []RequestRecord{}

	for rows.Next() {
		var rec RequestRecord

		if err := rows.Scan(
			&rec.ID,
			&rec.RawQuery,
			&rec.ResolvedName,
			&rec.Country,
			&rec.Latitude,
			&rec.Longitude,
			&rec.StartDate,
			&rec.EndDate,
			&rec.CreatedAt,
			&rec.UpdatedAt,
		); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan weather request: %w", err)
		}

		rec.StartDate = rec.StartDate.UTC()
		rec.EndDate = rec.EndDate.UTC()
		rec.CreatedAt = rec.CreatedAt.UTC()
		rec.UpdatedAt = rec.UpdatedAt.UTC()
		rec.Days = []DayRecord{}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}

	if err := rows.Close(); err != nil {
		return nil, err
	}

	if len(records) == 0 {
		return records, nil
	}

	ids := make([]int64, len(records))
	index := make(map[int64]int, len(records))

	for i, rec := range records {
		ids[i] = rec.ID
		index[rec.ID] = i
	}

	days, err := s.selectDays(ctx, ids)
	if err != nil {
		return nil, err
	}

	for _, day := range days {
		i := index[day.RequestID]
		records[i].Days = append(records[i].Days, day)
	}

	return records, nil
}

func (s *RequestStore) selectDays(ctx context.Context, requestIDs []int64) ([]DayRecord, error) {
	query, args, err := s.builder.Select(dayColumns...).
		From("weather_days").
		Where(squirrel.Eq{"request_id": requestIDs}).
		OrderBy("request_id", "date").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query weather days: %w", err)
	}
	defer rows.Close()

	var days []DayRecord

	for rows.Next() {
		var day DayRecord

		if err := rows.Scan(&day.ID, &day.RequestID, &day.Date, &day.TMin, &day.TMax, &day.TAvg); err != nil {
			return nil, fmt.Errorf("scan weather day: %w", err)
		}

		day.Date = day.Date.UTC()
		days = append(days, day)
	}

	return days, rows.Err()
}

func requireAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if n == 0 {
		return ErrNotFound
	}

	return nil
}

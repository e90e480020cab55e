// Package circuitbreaker guards calls to upstream data providers.
// It wraps Sony's GoBreaker with tracing and logging, and keeps one
// breaker per provider so a failing geocoder cannot trip the archive.
package circuitbreaker

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// ErrOpen is returned instead of calling the provider while its breaker is open
// or saturated in the half-open state.
var ErrOpen = errors.New("circuit breaker open")

// clientError is implemented by upstream errors that can tell a rejected
// request apart from a provider fault.
type clientError interface {
	ClientError() bool
}

// IsClientError reports whether err, or any error it wraps, says the provider
// rejected the caller's input.
func IsClientError(err error) bool {
	var ce clientError

	return errors.As(err, &ce) && ce.ClientError()
}

// Breaker wraps a single gobreaker instance.
type Breaker struct {
	breaker  *gobreaker.CircuitBreaker
	logger   *zap.Logger
	name     string
	excluded func(err error) bool
}

// Config defines when a breaker opens and how long it stays open.
type Config struct {
	Name string

	// MaxRequests is the number of trial calls allowed while half-open
	MaxRequests uint32

	// Interval is the closed-state window after which counts are cleared
	Interval time.Duration

	// Timeout is how long the breaker stays open before going half-open
	Timeout time.Duration

	// IsExcluded marks errors that are returned to the caller without counting
	// as a provider failure. Defaults to IsClientError.
	IsExcluded func(err error) bool

	ReadyToTrip   func(counts gobreaker.Counts) bool
	OnStateChange func(name string, from gobreaker.State, to gobreaker.State)
}

// NewBreaker creates a breaker with the given configuration.
//
// Parameters:
//   - cfg: Breaker thresholds and optional callbacks
//   - logger: Zap logger for state changes and failures
//
// Returns:
//   - *Breaker: Configured breaker instance
func NewBreaker(cfg Config, logger *zap.Logger) *Breaker {
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: cfg.ReadyToTrip,
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("provider", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))

			if cfg.OnStateChange != nil {
				cfg.OnStateChange(name, from, to)
			}
		},
	}

	if settings.ReadyToTrip == nil {
		settings.ReadyToTrip = defaultReadyToTrip
	}

	excluded := cfg.IsExcluded
	if excluded == nil {
		excluded = IsClientError
	}

	return &Breaker{
		breaker:  gobreaker.NewCircuitBreaker(settings),
		logger:   logger,
		name:     cfg.Name,
		excluded: excluded,
	}
}

// defaultReadyToTrip opens after at least three calls with half or more failing.
func defaultReadyToTrip(counts gobreaker.Counts) bool {
	if counts.Requests < 3 {
		return false
	}

	return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.5
}

// Execute runs fn under the breaker. A cancelled caller context and errors the
// breaker excludes are returned as-is and not counted against the provider.
//
// Parameters:
//   - ctx: Context for tracing and cancellation
//   - operation: Name of the upstream operation for logs and spans
//   - fn: Upstream call to protect
//
// Returns:
//   - error: fn's error, ErrOpen when the breaker rejects the call, or nil
func (b *Breaker) Execute(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	ctx, span := otel.Tracer("circuit-breaker").Start(ctx, "CircuitBreaker.Execute")
	defer span.End()

	span.SetAttributes(
		attribute.String("circuit_breaker.name", b.name),
		attribute.String("circuit_breaker.operation", operation),
		attribute.String("circuit_breaker.state", b.breaker.State().String()),
	)

	var callerErr error

	_, err := b.breaker.Execute(func() (interface{}, error) {
		callErr := fn(ctx)

		if callErr != nil && (ctx.Err() != nil || b.excluded(callErr)) {
			callerErr = callErr
			return nil, nil
		}

		return nil, callErr
	})

	if callerErr != nil {
		err = callerErr
	}

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		err = ErrOpen
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		b.logger.Warn("circuit breaker call failed",
			zap.String("provider", b.name),
			zap.String("operation", operation),
			zap.String("state", b.breaker.State().String()),
			zap.Error(err))
	}

	span.SetAttributes(attribute.String("circuit_breaker.final_state", b.breaker.State().String()))

	return err
}

// Call runs fn under b and returns its result.
func Call[T any](ctx context.Context, b *Breaker, operation string, fn func(ctx context.Context) (T, error)) (T, error) {
	var result T

	err := b.Execute(ctx, operation, func(ctx context.Context) error {
		var callErr error
		result, callErr = fn(ctx)
		return callErr
	})

	return result, err
}

// State returns the current breaker state.
func (b *Breaker) State() gobreaker.State {
	return b.breaker.State()
}

// Counts returns the request counts of the current window.
func (b *Breaker) Counts() gobreaker.Counts {
	return b.breaker.Counts()
}

// Manager hands out one breaker per provider name.
type Manager struct {
	mu       sync.Mutex
	breakers map[string]*Breaker
	defaults Config
	logger   *zap.Logger
}

// NewManager creates a manager whose breakers share the given thresholds.
//
// Parameters:
//   - defaults: Thresholds applied to every breaker; Name is ignored
//   - logger: Zap logger passed to each breaker
//
// Returns:
//   - *Manager: Breaker registry
func NewManager(defaults Config, logger *zap.Logger) *Manager {
	return &Manager{
		breakers: make(map[string]*Breaker),
		defaults: defaults,
		logger:   logger,
	}
}

// Get retrieves or creates the breaker for name.
func (m *Manager) Get(name string) *Breaker {
	m.mu.Lock()
	defer m.mu.Unlock()

	if breaker, exists := m.breakers[name]; exists {
		return breaker
	}

	cfg := m.defaults
	cfg.Name = name

	breaker := NewBreaker(cfg, m.logger)
	m.breakers[name] = breaker

	return breaker
}

// Stats is a snapshot of one breaker.
type Stats struct {
	Name                string `json:"name"`
	State               string `json:"state"`
	Requests            uint32 `json:"requests"`
	TotalFailures       uint32 `json:"total_failures"`
	ConsecutiveFailures uint32 `json:"consecutive_failures"`
}

// Stats returns a snapshot of every managed breaker, ordered by name.
func (m *Manager) Stats() []Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := make([]Stats, 0, len(m.breakers))

	for name, breaker := range m.breakers {
		counts := breaker.Counts()
		stats = append(stats, Stats{
			Name:                name,
			State:               breaker.State().String(),
			Requests:            counts.Requests,
			TotalFailures:       counts.TotalFailures,
			ConsecutiveFailures: counts.ConsecutiveFailures,
		})
	}

	sort.Slice(stats, func(i, j int) bool { return stats[i].Name < stats[j].Name })

	return stats
}

package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by repositories when the requested aggregate does not exist.
var ErrNotFound = errors.New("not found")

// Error codes carried by WeatherError.
const (
	CodeInvalidRequestBody = "INVALID_REQUEST_BODY"
	CodeInvalidDateRange   = "INVALID_DATE_RANGE"
	CodeLocationNotFound   = "LOCATION_NOT_FOUND"
	CodeNoWeatherData      = "NO_WEATHER_DATA"
	CodeInvalidExport      = "INVALID_EXPORT_FORMAT"
	CodeRequestNotFound    = "REQUEST_NOT_FOUND"
	CodeUpstreamFailure    = "UPSTREAM_FAILURE"
	CodePersistenceFailure = "PERSISTENCE_FAILURE"
)

// WeatherError represents domain-specific errors that can occur during weather operations.
// It provides structured error information with error codes and optional underlying causes.
type WeatherError struct {
	// Code identifies the type of error for programmatic handling
	Code string

	// Message provides a human-readable error description, safe to show to clients
	Message string

	// Cause wraps an underlying error if applicable
	Cause error
}

// Error implements the error interface for WeatherError.
// It formats the error message to include the code, message, and underlying cause.
func (e WeatherError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}

	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause to errors.Is and errors.As.
func (e WeatherError) Unwrap() error {
	return e.Cause
}

// IsCode reports whether err is a WeatherError carrying the given code.
func IsCode(err error, code string) bool {
	var e *WeatherError

	if errors.As(err, &e) {
		return e.Code == code
	}

	return false
}

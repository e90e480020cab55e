package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/sean-rowe/weather-history-service/internal/core/domain"
	"github.com/sean-rowe/weather-history-service/internal/middleware"
)

const (
	codeInternal          = "INTERNAL_ERROR"
	messageInternal       = "An unexpected error occurred"
	messageUpstreamFailed = "Weather data provider is temporarily unavailable"
)

// responder holds the JSON response helpers shared by the handlers.
type responder struct {
	logger *zap.Logger
}

// respondWithJSON sends a JSON response with the specified status code.
//
// Parameters:
//   - w: HTTP response writer
//   - status: HTTP status code to return
//   - payload: Data to encode as JSON response body
func (h responder) respondWithJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
	}
}

// respondWithError sends a standardized error response.
//
// Parameters:
//   - w: HTTP response writer
//   - status: HTTP status code for the error
//   - code: Machine-readable error code
//   - message: Human-readable reason
func (h responder) respondWithError(w http.ResponseWriter, status int, code, message string) {
	h.respondWithJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// handleServiceError maps domain errors to appropriate HTTP responses.
//
// Error mappings:
//   - client input codes -> 400 with the domain message
//   - REQUEST_NOT_FOUND -> 404
//   - UPSTREAM_FAILURE -> 502 with a generic message
//   - PERSISTENCE_FAILURE and anything else -> 500 with a generic message
func (h responder) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var e *domain.WeatherError

	if !errors.As(err, &e) {
		h.logServerError(r, err)
		h.respondWithError(w, http.StatusInternalServerError, codeInternal, messageInternal)

		return
	}

	switch e.Code {
	case domain.CodeInvalidRequestBody,
		domain.CodeInvalidDateRange,
		domain.CodeLocationNotFound,
		domain.CodeNoWeatherData,
		domain.CodeInvalidExport:
		h.respondWithError(w, http.StatusBadRequest, e.Code, e.Message)
	case domain.CodeRequestNotFound:
		h.respondWithError(w, http.StatusNotFound, e.Code, e.Message)
	case domain.CodeUpstreamFailure:
		h.logServerError(r, err)
		h.respondWithError(w, http.StatusBadGateway, e.Code, messageUpstreamFailed)
	case domain.CodePersistenceFailure:
		h.logServerError(r, err)
		h.respondWithError(w, http.StatusInternalServerError, e.Code, messageInternal)
	default:
		h.logServerError(r, err)
		h.respondWithError(w, http.StatusInternalServerError, codeInternal, messageInternal)
	}
}

func (h responder) logServerError(r *http.Request, err error) {
	h.logger.Error("request failed",
		zap.Error(err),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("correlation_id", middleware.GetCorrelationID(r.Context())),
		zap.String("request_id", middleware.GetRequestID(r.Context())),
	)
}

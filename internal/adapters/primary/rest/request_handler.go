// Package rest implements HTTP handlers for the weather history API.
// This package serves as the primary adapter, translating HTTP requests
// into domain operations and formatting responses for clients.
package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/sean-rowe/weather-history-service/internal/core/domain"
	"github.com/sean-rowe/weather-history-service/internal/core/ports"
)

// maxBodyBytes caps request bodies; the largest valid payload is a few hundred bytes.
const maxBodyBytes = 1 << 16

// RequestHandler handles HTTP requests for stored weather requests.
type RequestHandler struct {
	responder

	// service provides the request lifecycle operations
	service ports.RequestService
}

// NewRequestHandler creates a new HTTP handler for weather request operations.
//
// Parameters:
//   - service: RequestService for business logic operations
//   - logger: Zap logger for request logging and error tracking
//
// Returns:
//   - *RequestHandler: Configured handler instance
func NewRequestHandler(service ports.RequestService, logger *zap.Logger) *RequestHandler {
	return &RequestHandler{
		responder: responder{logger: logger},
		service:   service,
	}
}

// Create handles POST /api/requests.
//
// Response codes:
//   - 201: Created request with days
//   - 400: Invalid body, date range, unknown location or no data
//   - 502: Weather provider unavailable
//   - 500: Store failure
func (h *RequestHandler) Create(w http.ResponseWriter, r *http.Request) {
	var body CreateRequestBody

	if err := decodeBody(w, r, &body, false); err != nil {
		h.respondWithError(w, http.StatusBadRequest, domain.CodeInvalidRequestBody, err.Error())
		return
	}

	// whitespace-only queries fail "required"; the stored query keeps the caller's text
	checked := body
	checked.RawQuery = strings.TrimSpace(body.RawQuery)

	if err := validate.Struct(checked); err != nil {
		h.respondWithError(w, http.StatusBadRequest, domain.CodeInvalidRequestBody, validationMessage(err))
		return
	}

	start, err := parseDateField("start_date", body.StartDate)
	if err != nil {
		h.respondWithError(w, http.StatusBadRequest, domain.CodeInvalidRequestBody, err.Error())
		return
	}

	end, err := parseDateField("end_date", body.EndDate)
	if err != nil {
		h.respondWithError(w, http.StatusBadRequest, domain.CodeInvalidRequestBody, err.Error())
		return
	}

	created, err := h.service.Create(r.Context(), ports.CreateInput{
		RawQuery:  body.RawQuery,
		StartDate: start,
		EndDate:   end,
	})

	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.respondWithJSON(w, http.StatusCreated, toRequestResponse(*created))
}

// List handles GET /api/requests, newest first.
func (h *RequestHandler) List(w http.ResponseWriter, r *http.Request) {
	requests, err := h.service.List(r.Context())

	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	response := make([]RequestResponse, 0, len(requests))

	for _, req := range requests {
		response = append(response, toRequestResponse(req))
	}

	h.respondWithJSON(w, http.StatusOK, response)
}

// Get handles GET /api/requests/{id}.
func (h *RequestHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.requestID(w, r)
	if !ok {
		return
	}

	req, err := h.service.Get(r.Context(), id)

	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, toRequestResponse(*req))
}

// Update handles PUT /api/requests/{id}. An empty body is a no-op update.
//
// Response codes:
//   - 200: Updated (or unchanged) request with days
//   - 400: Invalid body, date range, unknown location or no data
//   - 404: Unknown id
//   - 502: Weather provider unavailable
func (h *RequestHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.requestID(w, r)
	if !ok {
		return
	}

	var body UpdateRequestBody

	if err := decodeBody(w, r, &body, true); err != nil {
		h.respondWithError(w, http.StatusBadRequest, domain.CodeInvalidRequestBody, err.Error())
		return
	}

	if err := validate.Struct(body); err != nil {
		h.respondWithError(w, http.StatusBadRequest, domain.CodeInvalidRequestBody, validationMessage(err))
		return
	}

	input := ports.UpdateInput{RawQuery: body.RawQuery}

	if body.StartDate != nil {
		start, err := parseDateField("start_date", *body.StartDate)
		if err != nil {
			h.respondWithError(w, http.StatusBadRequest, domain.CodeInvalidRequestBody, err.Error())
			return
		}
		input.StartDate = &start
	}

	if body.EndDate != nil {
		end, err := parseDateField("end_date", *body.EndDate)
		if err != nil {
			h.respondWithError(w, http.StatusBadRequest, domain.CodeInvalidRequestBody, err.Error())
			return
		}
		input.EndDate = &end
	}

	updated, err := h.service.Update(r.Context(), id, input)

	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, toRequestResponse(*updated))
}

// Delete handles DELETE /api/requests/{id}.
func (h *RequestHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.requestID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, MessageResponse{Message: "Deleted successfully"})
}

// Export handles GET /api/requests/export?format=json|csv|markdown as a file download.
func (h *RequestHandler) Export(w http.ResponseWriter, r *http.Request) {
	export, err := h.service.Export(r.Context(), r.URL.Query().Get("format"))

	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename))
	w.WriteHeader(http.StatusOK)

	if _, err := w.Write(export.Body); err != nil {
		h.logger.Error("failed to write export", zap.Error(err))
	}
}

// requestID parses the {id} path variable, answering 404 itself when it cannot name a stored request.
func (h *RequestHandler) requestID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)

	if err != nil || id <= 0 {
		h.respondWithError(w, http.StatusNotFound, domain.CodeRequestNotFound, "Request not found")
		return 0, false
	}

	return id, true
}

// bodyError is a client-facing reason for rejecting a request body.
type bodyError string

func (e bodyError) Error() string { return string(e) }

const (
	errBodyRequired bodyError = "Request body is required"
	errBodyInvalid  bodyError = "Invalid JSON body"
)

// decodeBody reads a single JSON object into target. Unknown fields are ignored.
func decodeBody(w http.ResponseWriter, r *http.Request, target interface{}, allowEmpty bool) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))

	if err := decoder.Decode(target); err != nil {
		if errors.Is(err, io.EOF) {
			if allowEmpty {
				return nil
			}
			return errBodyRequired
		}

		return errBodyInvalid
	}

	return nil
}

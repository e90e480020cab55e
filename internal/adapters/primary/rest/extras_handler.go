package rest

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/sean-rowe/weather-history-service/internal/core/ports"
)

// ExtrasHandler serves best-effort enrichment for a location name.
type ExtrasHandler struct {
	responder

	service ports.EnrichmentService
}

// NewExtrasHandler creates a new extras handler.
func NewExtrasHandler(service ports.EnrichmentService, logger *zap.Logger) *ExtrasHandler {
	return &ExtrasHandler{
		responder: responder{logger: logger},
		service:   service,
	}
}

// GetExtras handles GET /api/extras/{location}. Collaborator failures degrade
// the payload but never the status.
func (h *ExtrasHandler) GetExtras(w http.ResponseWriter, r *http.Request) {
	location := strings.TrimSpace(mux.Vars(r)["location"])

	extras, err := h.service.Enrich(r.Context(), location)

	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, toExtrasResponse(*extras))
}

package rest

import (
	"net/http"

	"github.com/gorilla/mux"
)

// RegisterRoutes mounts the API under /api on router.
func RegisterRoutes(router *mux.Router, requests *RequestHandler, extras *ExtrasHandler) {
	api := router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/requests", requests.Create).Methods(http.MethodPost)
	api.HandleFunc("/requests", requests.List).Methods(http.MethodGet)
	api.HandleFunc("/requests/export", requests.Export).Methods(http.MethodGet)
	api.HandleFunc("/requests/{id:[0-9]+}", requests.Get).Methods(http.MethodGet)
	api.HandleFunc("/requests/{id:[0-9]+}", requests.Update).Methods(http.MethodPut)
	api.HandleFunc("/requests/{id:[0-9]+}", requests.Delete).Methods(http.MethodDelete)

	api.HandleFunc("/extras/{location}", extras.GetExtras).Methods(http.MethodGet)
}

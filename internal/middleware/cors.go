package middleware

import (
	"net/http"

	"github.com/gorilla/handlers"
)

// CORS allows browser clients from the given origins to call the API.
//
// Parameters:
//   - origins: Exact allowed origins, e.g. http://localhost:5173
//
// Returns:
//   - func(http.Handler) http.Handler: Wrapping middleware
func CORS(origins []string) func(http.Handler) http.Handler {
	return handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", "X-Correlation-ID"}),
		handlers.ExposedHeaders([]string{"Content-Disposition", "X-Correlation-ID", "X-Request-ID"}),
		handlers.AllowCredentials(),
	)
}

package openmeteo

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/sean-rowe/weather-history-service/internal/core/domain"
)

// GeocodingClient implements the Geocoder interface against the Open-Meteo geocoding API.
type GeocodingClient struct {
	// baseURL is the geocoding API root (typically https://geocoding-api.open-meteo.com)
	baseURL string

	httpClient *http.Client
	logger     *zap.Logger
}

// NewGeocodingClient creates a new geocoding client.
//
// Parameters:
//   - baseURL: Geocoding API base URL
//   - httpClient: HTTP client with timeout configuration
//   - logger: Zap logger for API interaction logging
//
// Returns:
//   - *GeocodingClient: Configured client
func NewGeocodingClient(baseURL string, httpClient *http.Client, logger *zap.Logger) *GeocodingClient {
	return &GeocodingClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}
}

// searchResponse represents the response from the /v1/search endpoint.
// The results key is omitted entirely when nothing matches.
type searchResponse struct {
	Results []searchResult `json:"results"`
}

type searchResult struct {
	Name      string   `json:"name"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Country   string   `json:"country"`
}

// Search looks up a place name or postal code and returns the best match only.
//
// Parameters:
//   - ctx: Context for cancellation
//   - name: Free-form place name or postal code
//
// Returns:
//   - []domain.Location: Zero or one location
//   - error: Transport, status or decode error
func (c *GeocodingClient) Search(ctx context.Context, name string) ([]domain.Location, error) {
	params := url.Values{}
	params.Set("name", name)
	params.Set("count", "1")

	var resp searchResponse

	if err := getJSON(ctx, c.httpClient, c.logger, c.baseURL+"/v1/search", params, &resp); err != nil {
		return nil, fmt.Errorf("geocoding %q: %w", name, err)
	}

	locations := make([]domain.Location, 0, len(resp.Results))

	for _, r := range resp.Results {
		if r.Latitude == nil || r.Longitude == nil {
			c.logger.Debug("skipping geocoding result without coordinates", zap.String("name", r.Name))
			continue
		}

		locations = append(locations, domain.Location{
			Coordinates: domain.Coordinates{Latitude: *r.Latitude, Longitude: *r.Longitude},
			Name:        r.Name,
			Country:     r.Country,
		})
	}

	return locations, nil
}

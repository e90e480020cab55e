// Package openmeteo implements clients for the Open-Meteo geocoding and historical archive APIs.
// This package serves as a secondary adapter, translating domain requests
// into Open-Meteo API calls and converting responses back to domain objects.
package openmeteo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"go.uber.org/zap"
)

const userAgent = "WeatherHistoryService/1.0"

// apiError is the body Open-Meteo returns alongside 4xx statuses.
type apiError struct {
	Error  bool   `json:"error"`
	Reason string `json:"reason"`
}

// StatusError is returned when Open-Meteo answers with a non-2xx status.
type StatusError struct {
	Code   int
	Reason string
}

func (e *StatusError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("open-meteo returned status %d: %s", e.Code, e.Reason)
	}

	return fmt.Sprintf("open-meteo returned status %d", e.Code)
}

// ClientError reports whether Open-Meteo rejected the request parameters
// themselves. 429 is provider load, not bad input.
func (e *StatusError) ClientError() bool {
	return e.Code >= 400 && e.Code < 500 && e.Code != http.StatusTooManyRequests
}

// getJSON performs a GET request and decodes a successful JSON body into target.
//
// Parameters:
//   - ctx: Context for cancellation
//   - httpClient: HTTP client to use
//   - logger: Zap logger for body close failures
//   - endpoint: Absolute URL without query string
//   - params: Query parameters
//   - target: Pointer to decode the response into
//
// Returns:
//   - error: HTTP error, *StatusError for non-2xx replies, or JSON decode error
func getJSON(
	ctx context.Context,
	httpClient *http.Client,
	logger *zap.Logger,
	endpoint string,
	params url.Values,
	target interface{},
) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)

	if err != nil {
		return err
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := httpClient.Do(req)

	if err != nil {
		return err
	}

	defer func(Body io.ReadCloser) {
		err := Body.Close()

		if err != nil {
			logger.Error("failed to close response body", zap.Error(err))
		}
	}(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr apiError

		// best effort; an unreadable body leaves Reason empty
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)

		return &StatusError{Code: resp.StatusCode, Reason: apiErr.Reason}
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("failed to decode open-meteo response: %w", err)
	}

	return nil
}

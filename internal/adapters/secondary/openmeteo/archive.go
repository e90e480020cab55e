package openmeteo

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sean-rowe/weather-history-service/internal/core/domain"
)

const dailyVariables = "temperature_2m_max,temperature_2m_min,temperature_2m_mean"

// ArchiveClient implements the WeatherArchive interface against the Open-Meteo historical archive.
type ArchiveClient struct {
	// baseURL is the archive API root (typically https://archive-api.open-meteo.com)
	baseURL string

	httpClient *http.Client
	logger     *zap.Logger
}

// NewArchiveClient creates a new archive client.
//
// Parameters:
//   - baseURL: Archive API base URL
//   - httpClient: HTTP client with timeout configuration
//   - logger: Zap logger for API interaction logging
//
// Returns:
//   - *ArchiveClient: Configured client
func NewArchiveClient(baseURL string, httpClient *http.Client, logger *zap.Logger) *ArchiveClient {
	return &ArchiveClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}
}

// archiveResponse represents the /v1/archive response. Daily values are parallel
// arrays indexed like Time; a null marks a gap in the source data.
type archiveResponse struct {
	Daily *struct {
		Time              []string   `json:"time"`
		Temperature2mMax  []*float64 `json:"temperature_2m_max"`
		Temperature2mMin  []*float64 `json:"temperature_2m_min"`
		Temperature2mMean []*float64 `json:"temperature_2m_mean"`
	} `json:"daily"`
}

// DailyTemperatures retrieves daily min, max and mean temperatures for an inclusive date range.
//
// Parameters:
//   - ctx: Context for cancellation
//   - coords: Location to query
//   - start: First day
//   - end: Last day
//
// Returns:
//   - []domain.DailyWeather: One record per day with data, in the archive's (ascending) order
//   - error: Transport, status, decode error, or a malformed daily block
func (c *ArchiveClient) DailyTemperatures(
	ctx context.Context,
	coords domain.Coordinates,
	start, end time.Time,
) ([]domain.DailyWeather, error) {
	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(coords.Latitude, 'f', -1, 64))
	params.Set("longitude", strconv.FormatFloat(coords.Longitude, 'f', -1, 64))
	params.Set("start_date", start.Format(domain.DateLayout))
	params.Set("end_date", end.Format(domain.DateLayout))
	params.Set("daily", dailyVariables)
	params.Set("timezone", "auto")

	var resp archiveResponse

	if err := getJSON(ctx, c.httpClient, c.logger, c.baseURL+"/v1/archive", params, &resp); err != nil {
		return nil, fmt.Errorf("fetching archive: %w", err)
	}

	if resp.Daily == nil {
		return nil, fmt.Errorf("archive response has no daily block")
	}

	daily := resp.Daily
	n := len(daily.Time)

	if len(daily.Temperature2mMin) != n || len(daily.Temperature2mMax) != n || len(daily.Temperature2mMean) != n {
		return nil, fmt.Errorf("archive daily arrays differ in length: time=%d min=%d max=%d mean=%d",
			n, len(daily.Temperature2mMin), len(daily.Temperature2mMax), len(daily.Temperature2mMean))
	}

	days := make([]domain.DailyWeather, 0, n)

	for i, raw := range daily.Time {
		date, err := domain.ParseDate(raw)

		if err != nil {
			return nil, fmt.Errorf("archive day %d: %w", i, err)
		}

		tmin, tmax, tavg := daily.Temperature2mMin[i], daily.Temperature2mMax[i], daily.Temperature2mMean[i]

		if tmin == nil || tmax == nil || tavg == nil {
			c.logger.Debug("skipping archive day with missing values", zap.String("date", raw))
			continue
		}

		days = append(days, domain.DailyWeather{
			Date:            date,
			MinTemperature:  *tmin,
			MaxTemperature:  *tmax,
			MeanTemperature: *tavg,
		})
	}

	return days, nil
}

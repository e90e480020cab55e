// Package piped implements a client for the Piped video search API.
// It is used to surface a few travel videos for a location without
// requiring a YouTube API key.
package piped

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/sean-rowe/weather-history-service/internal/core/domain"
)

const (
	userAgent = "WeatherHistoryService/1.0"

	// WatchURLPrefix is prepended to a video id to build a playable link.
	WatchURLPrefix = "https://www.youtube.com/watch?v="
)

// Client implements the VideoSearch interface against a Piped instance.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new Piped client.
//
// Parameters:
//   - baseURL: Piped API base URL (typically https://piped.video)
//   - httpClient: HTTP client with timeout configuration
//   - logger: Zap logger
//
// Returns:
//   - *Client: Configured client
func NewClient(baseURL string, httpClient *http.Client, logger *zap.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}
}

// searchItem is one entry of the search response. Instances differ in
// whether they populate videoId or only a relative url.
type searchItem struct {
	Title   string `json:"title"`
	VideoID string `json:"videoId"`
	URL     string `json:"url"`
}

// Search returns up to limit videos for the query.
//
// Parameters:
//   - ctx: Context for cancellation
//   - query: Free-text search
//   - limit: Maximum number of videos; values below 1 return nothing
//
// Returns:
//   - []domain.Video: Videos with watch URLs
//   - error: Transport, status or decode error
func (c *Client) Search(ctx context.Context, query string, limit int) ([]domain.Video, error) {
	if limit < 1 {
		return []domain.Video{}, nil
	}

	params := url.Values{}
	params.Set("q", query)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/search?"+params.Encode(), nil)

	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)

	if err != nil {
		return nil, fmt.Errorf("searching videos: %w", err)
	}

	defer func(Body io.ReadCloser) {
		err := Body.Close()

		if err != nil {
			c.logger.Error("failed to close response body", zap.Error(err))
		}
	}(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("piped returned status %d", resp.StatusCode)
	}

	var items []searchItem

	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("failed to decode piped response: %w", err)
	}

	videos := make([]domain.Video, 0, limit)

	for _, item := range items {
		if len(videos) >= limit {
			break
		}

		id := videoID(item)

		if id == "" {
			continue
		}

		videos = append(videos, domain.Video{
			Title: item.Title,
			URL:   WatchURLPrefix + id,
		})
	}

	return videos, nil
}

// videoID prefers the explicit id and otherwise takes the last path
// segment of the relative url, e.g. "/watch?v=abc" yields "abc".
func videoID(item searchItem) string {
	if item.VideoID != "" {
		return item.VideoID
	}

	if item.URL == "" {
		return ""
	}

	segment := item.URL[strings.LastIndex(item.URL, "/")+1:]

	return strings.TrimPrefix(segment, "watch?v=")
}

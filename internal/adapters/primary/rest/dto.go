package rest

import (
	"time"

	"github.com/sean-rowe/weather-history-service/internal/core/domain"
)

// CreateRequestBody is the POST /api/requests payload.
type CreateRequestBody struct {
	RawQuery  string `json:"raw_query" validate:"required"`
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"required,datetime=2006-01-02"`
}

// UpdateRequestBody is the PUT /api/requests/{id} payload. Every field is optional.
type UpdateRequestBody struct {
	RawQuery  *string `json:"raw_query"`
	StartDate *string `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate   *string `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
}

// RequestResponse is the JSON form of a weather request with its days.
type RequestResponse struct {
	ID           int64         `json:"id"`
	RawQuery     string        `json:"raw_query"`
	ResolvedName string        `json:"resolved_name"`
	Country      string        `json:"country"`
	Latitude     float64       `json:"lat"`
	Longitude    float64       `json:"lon"`
	StartDate    string        `json:"start_date"`
	EndDate      string        `json:"end_date"`
	CreatedAt    string        `json:"created_at"`
	UpdatedAt    string        `json:"updated_at"`
	Days         []DayResponse `json:"days"`
}

// DayResponse is one day of a RequestResponse.
type DayResponse struct {
	ID   int64   `json:"id"`
	Date string  `json:"date"`
	TMin float64 `json:"tmin"`
	TMax float64 `json:"tmax"`
	TAvg float64 `json:"tavg"`
}

// ExtrasResponse is the GET /api/extras/{location} payload.
// Country and GoogleMaps are null when no stored request matches the location.
type ExtrasResponse struct {
	Location   string          `json:"location"`
	Videos     []VideoResponse `json:"videos"`
	Country    *string         `json:"country"`
	GoogleMaps *string         `json:"google_maps"`
}

// VideoResponse is a single video link.
type VideoResponse struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// ErrorResponse represents a standardized error response structure.
// Error carries the human-readable reason and Code the machine-readable one.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// MessageResponse carries a plain status message.
type MessageResponse struct {
	Message string `json:"message"`
}

func toRequestResponse(req domain.WeatherRequest) RequestResponse {
	days := make([]DayResponse, 0, len(req.Days))

	for _, d := range req.Days {
		days = append(days, DayResponse{
			ID:   d.ID,
			Date: d.Date.Format(domain.DateLayout),
			TMin: d.MinTemperature,
			TMax: d.MaxTemperature,
			TAvg: d.MeanTemperature,
		})
	}

	return RequestResponse{
		ID:           req.ID,
		RawQuery:     req.RawQuery,
		ResolvedName: req.ResolvedName,
		Country:      req.Country,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		StartDate:    req.StartDate.Format(domain.DateLayout),
		EndDate:      req.EndDate.Format(domain.DateLayout),
		CreatedAt:    req.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:    req.UpdatedAt.UTC().Format(time.RFC3339),
		Days:         days,
	}
}

func toExtrasResponse(extras domain.Extras) ExtrasResponse {
	videos := make([]VideoResponse, 0, len(extras.Videos))

	for _, v := range extras.Videos {
		videos = append(videos, VideoResponse{Title: v.Title, URL: v.URL})
	}

	return ExtrasResponse{
		Location:   extras.Location,
		Videos:     videos,
		Country:    extras.Country,
		GoogleMaps: extras.MapsLink,
	}
}

// Package domain contains the core business entities and domain logic for the weather history service.
// This package defines the fundamental types and business rules that are independent
// of external frameworks and infrastructure concerns.
package domain

import (
	"time"
)

// DateLayout is the calendar date format used on the wire and by external data sources.
const DateLayout = "2006-01-02"

// Coordinates represent a geographic location using latitude and longitude.
type Coordinates struct {
	// Latitude specifies the north-south position in degrees
	Latitude float64

	// Longitude specifies the east-west position in degrees
	Longitude float64
}

// Location is the canonical result of resolving a free-form location query.
type Location struct {
	// Coordinates of the resolved place
	Coordinates Coordinates

	// Name is the display name of the place
	Name string

	// Country is the country name reported by the geocoder, empty when unknown
	Country string
}

// WeatherRequest is the aggregate root: a recorded lookup for a location and date range
// together with the daily weather fetched for it.
type WeatherRequest struct {
	// ID is assigned by the store on creation and never changes
	ID int64

	// RawQuery is the user input, preserved verbatim
	RawQuery string

	// ResolvedName is the display name of the resolved location
	ResolvedName string

	// Country may be empty when the location was given as raw coordinates
	Country string

	// Latitude and Longitude of the resolved location
	Latitude  float64
	Longitude float64

	// StartDate and EndDate bound the requested range, both inclusive
	StartDate time.Time
	EndDate   time.Time

	// CreatedAt is set once when the request is first persisted
	CreatedAt time.Time

	// UpdatedAt is bumped on every mutation
	UpdatedAt time.Time

	// Days holds one record per calendar day returned by the archive, ordered by date
	Days []DailyWeather
}

// Coordinates returns the stored location as a coordinate pair.
func (r *WeatherRequest) Coordinates() Coordinates {
	return Coordinates{Latitude: r.Latitude, Longitude: r.Longitude}
}

// ApplyLocation copies a resolved location onto the request.
func (r *WeatherRequest) ApplyLocation(loc Location) {
	r.ResolvedName = loc.Name
	r.Country = loc.Country
	r.Latitude = loc.Coordinates.Latitude
	r.Longitude = loc.Coordinates.Longitude
}

// DailyWeather is one calendar day of temperatures owned by a WeatherRequest.
type DailyWeather struct {
	ID   int64
	Date time.Time

	// MinTemperature, MaxTemperature and MeanTemperature are in degrees Celsius
	MinTemperature  float64
	MaxTemperature  float64
	MeanTemperature float64
}

// Video is a single video search hit.
type Video struct {
	Title string
	URL   string
}

// Extras is the auxiliary information returned for a location name.
// Country and MapsLink are nil when no stored request matches the location.
type Extras struct {
	Location string
	Videos   []Video
	Country  *string
	MapsLink *string
}

// Export is a rendered download of all stored requests.
type Export struct {
	Filename    string
	ContentType string
	Body        []byte
}

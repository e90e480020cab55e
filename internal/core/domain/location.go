package domain

import (
	"strconv"
	"strings"
)

// CustomLocationName is the display name given to locations entered as raw coordinates.
const CustomLocationName = "Custom Location"

// ParseCoordinatePair interprets "lat,lon" input. It succeeds only when the query has
// exactly two comma-separated parts that both parse as floats. Values are not range checked.
func ParseCoordinatePair(query string) (Location, bool) {
	parts := strings.Split(query, ",")

	if len(parts) != 2 {
		return Location{}, false
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)

	if err != nil {
		return Location{}, false
	}

	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)

	if err != nil {
		return Location{}, false
	}

	return Location{
		Coordinates: Coordinates{Latitude: lat, Longitude: lon},
		Name:        CustomLocationName,
		Country:     "",
	}, true
}

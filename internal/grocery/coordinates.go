package grocery

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Coordinates is a latitude/longitude pair in decimal degrees.
type Coordinates struct {
	Lat float64
	Lon float64
}

// ParseCoordinates reads the "lat,lon" form used by the location route.
func ParseCoordinates(s string) (Coordinates, error) {
	latStr, lonStr, ok := strings.Cut(strings.TrimSpace(s), ",")
	if !ok {
		return Coordinates{}, ValidationError{Field: "latlong", Reason: "expected <lat>,<lon>"}
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil {
		return Coordinates{}, ValidationError{Field: "latlong", Reason: "latitude is not a number"}
	}

	lon, err := strconv.ParseFloat(strings.TrimSpace(lonStr), 64)
	if err != nil {
		return Coordinates{}, ValidationError{Field: "latlong", Reason: "longitude is not a number"}
	}

	c := Coordinates{Lat: lat, Lon: lon}
	if err := c.Validate(); err != nil {
		return Coordinates{}, err
	}

	return c, nil
}

// Validate checks the coordinates are numbers within range.
func (c Coordinates) Validate() error {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lon) {
		return ValidationError{Field: "latlong", Reason: "coordinates must be numbers"}
	}
	if c.Lat < -90 || c.Lat > 90 {
		return ValidationError{Field: "latlong", Reason: fmt.Sprintf("latitude %v out of range", c.Lat)}
	}
	if c.Lon < -180 || c.Lon > 180 {
		return ValidationError{Field: "latlong", Reason: fmt.Sprintf("longitude %v out of range", c.Lon)}
	}
	return nil
}

// String renders the shortest exact form, so "39.10,-84.50" and "39.1,-84.5"
// produce the same value.
func (c Coordinates) String() string {
	return c.LatString() + "," + c.LonString()
}

func (c Coordinates) LatString() string {
	return strconv.FormatFloat(c.Lat, 'f', -1, 64)
}

func (c Coordinates) LonString() string {
	return strconv.FormatFloat(c.Lon, 'f', -1, 64)
}

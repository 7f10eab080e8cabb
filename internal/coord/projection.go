package coord

import (
	"fmt"
	"strings"
)

// Projection maps normalized output coordinates back to WGS84.
type Projection interface {
	// Reverse converts a position in the unit square of the projected
	// world (x to the east, y to the south) to longitude/latitude in degrees.
	Reverse(xNorm, yNorm float64) (lng, lat float64)

	// Forward is the inverse of Reverse.
	Forward(lng, lat float64) (xNorm, yNorm float64)

	// EPSG returns the EPSG code of the projected space.
	EPSG() int
}

// ForName returns the Projection registered under name. The empty name
// selects Web Mercator.
func ForName(name string) (Projection, error) {
	switch strings.ToLower(name) {
	case "", "webmercator", "web-mercator", "epsg:3857", "3857":
		return WebMercator{}, nil
	default:
		return nil, fmt.Errorf("unsupported projection: %q (supported: webmercator)", name)
	}
}

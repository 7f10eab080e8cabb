package coord

import (
	"math"

	"github.com/paulmach/orb/maptile"
)

const (
	// MaxLatitude is the northern edge of the Web Mercator square.
	MaxLatitude = 85.05112877980659
	// DefaultTileSize is the standard web map tile dimension.
	DefaultTileSize = 256
)

// WebMercator implements Projection for EPSG:3857 on the unit square.
type WebMercator struct{}

func (WebMercator) EPSG() int { return 3857 }

// Reverse converts normalized Web Mercator coordinates to WGS84.
// (0, 0) is the north-west corner of the world, (0.5, 0.5) is lng 0, lat 0.
func (WebMercator) Reverse(xNorm, yNorm float64) (lng, lat float64) {
	lng = xNorm*360 - 180
	lat = math.Atan(math.Sinh(math.Pi*(1-2*yNorm))) * 180 / math.Pi
	return
}

// Forward converts WGS84 to normalized Web Mercator coordinates. Latitudes
// beyond ±MaxLatitude fall outside [0, 1].
func (WebMercator) Forward(lng, lat float64) (xNorm, yNorm float64) {
	xNorm = (lng + 180) / 360
	latRad := lat * math.Pi / 180
	yNorm = (1 - math.Log(math.Tan(latRad)+1/math.Cos(latRad))/math.Pi) / 2
	return
}

// TileBounds returns the WGS84 bounding box of an XYZ tile.
func TileBounds(t maptile.Tile) Extent {
	return Extent{Bound: t.Bound()}
}

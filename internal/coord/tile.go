package coord

import (
	"errors"
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
)

// ErrPlacement reports an unusable tile placement or extent.
var ErrPlacement = errors.New("invalid tile placement")

// Placement locates an output raster inside a projected world mosaic of
// TotalWidth×TotalHeight pixels, with its top-left pixel at (X, Y). It lets a
// caller render any sub-tile without materializing the full mosaic.
type Placement struct {
	X, Y                    int
	TotalWidth, TotalHeight int
}

// FullMosaic places a width×height raster so that it covers the whole world.
func FullMosaic(width, height int) Placement {
	return Placement{TotalWidth: width, TotalHeight: height}
}

// PlacementForTile returns the placement of XYZ tile t when each tile is
// tileSize pixels square.
func PlacementForTile(t maptile.Tile, tileSize int) Placement {
	n := 1 << uint(t.Z)
	return Placement{
		X:           int(t.X) * tileSize,
		Y:           int(t.Y) * tileSize,
		TotalWidth:  n * tileSize,
		TotalHeight: n * tileSize,
	}
}

// Validate checks that the mosaic is non-empty and the offset non-negative.
func (p Placement) Validate() error {
	if p.TotalWidth <= 0 || p.TotalHeight <= 0 {
		return fmt.Errorf("%w: mosaic size %dx%d", ErrPlacement, p.TotalWidth, p.TotalHeight)
	}
	if p.X < 0 || p.Y < 0 {
		return fmt.Errorf("%w: negative offset (%d, %d)", ErrPlacement, p.X, p.Y)
	}
	return nil
}

// Normalize converts output pixel (x, y) to mosaic coordinates in [0, 1].
func (p Placement) Normalize(x, y int) (xNorm, yNorm float64) {
	xNorm = float64(x+p.X) / float64(p.TotalWidth)
	yNorm = float64(y+p.Y) / float64(p.TotalHeight)
	return
}

// Extent is the geographic bounding box a source raster covers, in degrees.
// Min holds (lng1, lat1), Max holds (lng2, lat2). Row 0 of the raster is the
// northern edge.
type Extent struct {
	orb.Bound
}

// WorldExtent covers longitudes [-180, 180] and latitudes [-90, 90].
func WorldExtent() Extent {
	return Extent{Bound: orb.Bound{Min: orb.Point{-180, -90}, Max: orb.Point{180, 90}}}
}

// NewExtent builds an Extent from its longitude and latitude ranges.
func NewExtent(lng1, lng2, lat1, lat2 float64) (Extent, error) {
	e := Extent{Bound: orb.Bound{Min: orb.Point{lng1, lat1}, Max: orb.Point{lng2, lat2}}}
	return e, e.Validate()
}

// Validate requires finite, strictly increasing ranges.
func (e Extent) Validate() error {
	for _, v := range []float64{e.Min.X(), e.Max.X(), e.Min.Y(), e.Max.Y()} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite extent %v", ErrPlacement, e.Bound)
		}
	}
	if e.Min.X() >= e.Max.X() {
		return fmt.Errorf("%w: longitude range [%v, %v] is empty", ErrPlacement, e.Min.X(), e.Max.X())
	}
	if e.Min.Y() >= e.Max.Y() {
		return fmt.Errorf("%w: latitude range [%v, %v] is empty", ErrPlacement, e.Min.Y(), e.Max.Y())
	}
	return nil
}

// ToPixel maps a geographic coordinate to fractional source pixel space for
// a raster of ncol×nrow cells spanning the extent.
func (e Extent) ToPixel(lng, lat float64, ncol, nrow int) (x, y float64) {
	x = (lng - e.Min.X()) / (e.Max.X() - e.Min.X()) * float64(ncol)
	y = (e.Max.Y() - lat) / (e.Max.Y() - e.Min.Y()) * float64(nrow)
	return
}

// CellsPerDegree returns source cells per degree of longitude and latitude.
func (e Extent) CellsPerDegree(ncol, nrow int) (x, y float64) {
	return float64(ncol) / (e.Max.X() - e.Min.X()), float64(nrow) / (e.Max.Y() - e.Min.Y())
}

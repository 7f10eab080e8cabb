package transform

import (
	"context"
	"fmt"
	"math"

	"github.com/pspoerri/gridwarp/internal/coord"
	"github.com/pspoerri/gridwarp/internal/grid"
	"github.com/pspoerri/gridwarp/internal/interp"
	"github.com/pspoerri/gridwarp/internal/pixel"
)

// InterpolatorFactory returns a fresh Interpolator for one worker.
type InterpolatorFactory[T pixel.Number] func() interp.Interpolator[T]

// Resample fills dst from src by ratio scaling. The center of destination
// cell (x, y) maps to source coordinate ((x+0.5)*xRatio-0.5, (y+0.5)*yRatio-0.5)
// where the ratios are source cells per destination cell.
func Resample[T pixel.Number](ctx context.Context, src, dst *grid.Grid[T], newInterp InterpolatorFactory[T], opts Options) error {
	xRatio := float64(src.Ncol()) / float64(dst.Ncol())
	yRatio := float64(src.Nrow()) / float64(dst.Nrow())
	ncol := dst.Ncol()

	return Run(ctx, dst.Len(), opts, func() Body {
		in := newInterp()
		return func(lo, hi int) error {
			for i := lo; i < hi; i++ {
				y, x := i/ncol, i%ncol
				sx := (float64(x)+0.5)*xRatio - 0.5
				sy := (float64(y)+0.5)*yRatio - 0.5
				v, err := in.Sample(src, sx, sy, xRatio, yRatio)
				if err != nil {
					return fmt.Errorf("resampling cell (%d, %d) from (%g, %g): %w", y, x, sy, sx, err)
				}
				if err := dst.Set(y, x, v); err != nil {
					return err
				}
			}
			return nil
		}
	})
}

// Reprojection describes where a reprojected raster sits.
type Reprojection struct {
	// Extent is the geographic box the source raster covers.
	Extent coord.Extent
	// Projection maps normalized mosaic coordinates to WGS84.
	Projection coord.Projection
	// Placement locates the destination inside the projected mosaic.
	Placement coord.Placement
	// LocalRatios makes the driver estimate how many source cells one
	// destination cell covers at its location. Only area-based
	// interpolators need it.
	LocalRatios bool
}

// Reproject fills dst with src reprojected into the placement's mosaic. For
// every destination cell the projection yields a longitude/latitude, which the
// extent maps to fractional source pixel coordinates.
func Reproject[T pixel.Number](ctx context.Context, src, dst *grid.Grid[T], rp Reprojection, newInterp InterpolatorFactory[T], opts Options) error {
	if err := rp.Placement.Validate(); err != nil {
		return err
	}
	if err := rp.Extent.Validate(); err != nil {
		return err
	}
	proj := rp.Projection
	if proj == nil {
		proj = coord.WebMercator{}
	}
	srcCols, srcRows := src.Ncol(), src.Nrow()
	cellsPerLng, cellsPerLat := rp.Extent.CellsPerDegree(srcCols, srcRows)
	xRatio := cellsPerLng * 360 / float64(rp.Placement.TotalWidth)
	rowStep := 1 / float64(rp.Placement.TotalHeight)
	ncol := dst.Ncol()

	return Run(ctx, dst.Len(), opts, func() Body {
		in := newInterp()
		return func(lo, hi int) error {
			for i := lo; i < hi; i++ {
				y, x := i/ncol, i%ncol
				xNorm, yNorm := rp.Placement.Normalize(x, y)
				lng, lat := proj.Reverse(xNorm, yNorm)
				sx, sy := rp.Extent.ToPixel(lng, lat, srcCols, srcRows)

				yRatio := 1.0
				if rp.LocalRatios {
					_, below := proj.Reverse(xNorm, yNorm+rowStep)
					yRatio = math.Abs(lat-below) * cellsPerLat
				}
				v, err := in.Sample(src, sx, sy, xRatio, yRatio)
				if err != nil {
					return fmt.Errorf("reprojecting cell (%d, %d) from (%g, %g): %w", y, x, sy, sx, err)
				}
				if err := dst.Set(y, x, v); err != nil {
					return err
				}
			}
			return nil
		}
	})
}

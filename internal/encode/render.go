package encode

import (
	"image"
	"image/color"
	"math"

	"github.com/pspoerri/gridwarp/internal/grid"
	"github.com/pspoerri/gridwarp/internal/pixel"
)

// Range is the span of values mapped onto the gray ramp.
type Range struct {
	Min, Max float64
}

// ValueRange returns the smallest and largest finite values in g. ok is false
// when g holds no finite value.
func ValueRange[T pixel.Number](g *grid.Grid[T]) (r Range, ok bool) {
	r = Range{Min: math.Inf(1), Max: math.Inf(-1)}
	for y := 0; y < g.Nrow(); y++ {
		row, _ := g.Row(y)
		for _, v := range row {
			f := float64(v)
			if math.IsNaN(f) || math.IsInf(f, 0) {
				continue
			}
			r.Min = math.Min(r.Min, f)
			r.Max = math.Max(r.Max, f)
			ok = true
		}
	}
	return r, ok
}

// Gray renders g as an opaque gray ramp, stretching r linearly onto 0-255.
// Values outside r saturate. Non-finite cells are transparent black. A
// degenerate range renders every finite cell mid-gray.
func Gray[T pixel.Number](g *grid.Grid[T], r Range) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, g.Ncol(), g.Nrow()))
	span := r.Max - r.Min
	for y := 0; y < g.Nrow(); y++ {
		row, _ := g.Row(y)
		for x, v := range row {
			f := float64(v)
			if math.IsNaN(f) || math.IsInf(f, 0) {
				continue
			}
			level := 128.0
			if span > 0 {
				level = math.Round((f - r.Min) / span * 255)
			}
			l := uint8(math.Min(math.Max(level, 0), 255))
			img.SetNRGBA(x, y, color.NRGBA{R: l, G: l, B: l, A: 255})
		}
	}
	return img
}

// Stretch renders g with Gray over its own value range.
func Stretch[T pixel.Number](g *grid.Grid[T]) *image.NRGBA {
	r, _ := ValueRange(g)
	return Gray(g, r)
}

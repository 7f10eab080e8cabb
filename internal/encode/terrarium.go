package encode

import (
	"image"
	"image/color"
	"math"

	"github.com/pspoerri/gridwarp/internal/grid"
	"github.com/pspoerri/gridwarp/internal/pixel"
)

// terrariumOffset shifts elevations so that -32768 m encodes as zero.
const terrariumOffset = 32768.0

// ElevationToTerrarium packs an elevation in meters into Mapbox Terrarium
// RGB, where elevation = R*256 + G + B/256 - 32768. Values outside the
// representable range saturate; NaN and infinities become transparent.
func ElevationToTerrarium(elevation float64) color.NRGBA {
	if math.IsNaN(elevation) || math.IsInf(elevation, 0) {
		return color.NRGBA{}
	}
	v := math.Min(math.Max(elevation+terrariumOffset, 0), 65535+255.0/256)
	r := math.Floor(v / 256)
	g := math.Floor(v - r*256)
	b := math.Floor((v - r*256 - g) * 256)
	return color.NRGBA{R: uint8(r), G: uint8(g), B: uint8(b), A: 255}
}

// TerrariumToElevation unpacks a Terrarium pixel. Transparent pixels are
// nodata and return NaN.
func TerrariumToElevation(c color.NRGBA) float64 {
	if c.A == 0 {
		return math.NaN()
	}
	return float64(c.R)*256 + float64(c.G) + float64(c.B)/256 - terrariumOffset
}

// Terrarium renders g as Terrarium-encoded elevation.
func Terrarium[T pixel.Number](g *grid.Grid[T]) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, g.Ncol(), g.Nrow()))
	for y := 0; y < g.Nrow(); y++ {
		row, _ := g.Row(y)
		for x, v := range row {
			img.SetNRGBA(x, y, ElevationToTerrarium(float64(v)))
		}
	}
	return img
}

// Package interp computes raster values at fractional grid coordinates.
//
// Interpolators never bounds-check: they rely on the Grid's address policy,
// so sampling slightly outside the grid replicates its edge under Clamp.
package interp

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/pspoerri/gridwarp/internal/grid"
	"github.com/pspoerri/gridwarp/internal/pixel"
	"github.com/pspoerri/gridwarp/internal/stats"
)

// Method selects an interpolation algorithm.
type Method int

const (
	NearestNeighbor Method = iota
	Bilinear
	NeighborMode
)

// ParseMethod parses an interpolation method name.
func ParseMethod(s string) (Method, error) {
	switch s {
	case "nearest-neighbor", "nearest", "ngb":
		return NearestNeighbor, nil
	case "bilinear":
		return Bilinear, nil
	case "mode":
		return NeighborMode, nil
	default:
		return 0, fmt.Errorf("unsupported interpolation method: %q (supported: nearest-neighbor, bilinear, mode)", s)
	}
}

func (m Method) String() string {
	switch m {
	case NearestNeighbor:
		return "nearest-neighbor"
	case Bilinear:
		return "bilinear"
	case NeighborMode:
		return "mode"
	default:
		return fmt.Sprintf("Method(%d)", int(m))
	}
}

// UsesRatios reports whether the method reads the xRatio/yRatio arguments.
// Drivers skip computing local ratios for methods that ignore them.
func (m Method) UsesRatios() bool { return m == NeighborMode }

// Interpolator samples g at the fractional column x and row y. xRatio and
// yRatio give the number of source cells covered by one destination cell.
// The only error is grid.ErrOutOfRange from a Strict grid.
type Interpolator[T pixel.Number] interface {
	Sample(g *grid.Grid[T], x, y, xRatio, yRatio float64) (T, error)
}

// New returns an Interpolator for m. The result may carry scratch state and
// must not be shared between goroutines; rng is only used by NeighborMode and
// may be nil.
func New[T pixel.Number](m Method, rng *rand.Rand) (Interpolator[T], error) {
	switch m {
	case NearestNeighbor:
		return Nearest[T]{}, nil
	case Bilinear:
		return BilinearInterp[T]{conv: pixel.Converter[T]()}, nil
	case NeighborMode:
		return &Mode[T]{rng: rng}, nil
	default:
		return nil, fmt.Errorf("unsupported interpolation method: %v", m)
	}
}

// Nearest returns the cell whose center is closest to (x, y). Halves round
// away from zero.
type Nearest[T pixel.Number] struct{}

func (Nearest[T]) Sample(g *grid.Grid[T], x, y, _, _ float64) (T, error) {
	return g.At(roundIndex(y), roundIndex(x))
}

// BilinearInterp blends the four cells surrounding (x, y).
type BilinearInterp[T pixel.Number] struct {
	conv func(float64) T
}

func (b BilinearInterp[T]) Sample(g *grid.Grid[T], x, y, _, _ float64) (T, error) {
	fx1, fx2 := math.Floor(x), math.Ceil(x)
	fy1, fy2 := math.Floor(y), math.Ceil(y)
	x1, x2 := floatIndex(fx1), floatIndex(fx2)
	y1, y2 := floatIndex(fy1), floatIndex(fy2)

	nw, err := g.At(y1, x1)
	if err != nil {
		return 0, err
	}
	ne, err := g.At(y1, x2)
	if err != nil {
		return 0, err
	}
	sw, err := g.At(y2, x1)
	if err != nil {
		return 0, err
	}
	se, err := g.At(y2, x2)
	if err != nil {
		return 0, err
	}

	n := Lerp(x, fx1, fx2, float64(nw), float64(ne))
	s := Lerp(x, fx1, fx2, float64(sw), float64(se))
	v := Lerp(y, fy1, fy2, n, s)
	if b.conv == nil {
		return T(v), nil
	}
	return b.conv(v), nil
}

// Lerp interpolates linearly between valueA at posA and valueB at posB. When
// the two positions coincide it returns valueA.
func Lerp(pos, posA, posB, valueA, valueB float64) float64 {
	dist := posB - posA
	if dist == 0 {
		return valueA
	}
	return valueB*(pos-posA)/dist + valueA*(posB-pos)/dist
}

// Mode returns the most frequent value in the neighborhood a destination
// cell covers. It is meant for categorical rasters (land cover classes) where
// averaging codes is meaningless.
type Mode[T pixel.Number] struct {
	rng     *rand.Rand
	scratch []T
}

// Sample collects the width×height window centered on the nearest cell,
// where width = floor(xRatio) and height = floor(yRatio) rounded up to the
// next odd size, and returns its mode. Ties are broken at random.
func (m *Mode[T]) Sample(g *grid.Grid[T], x, y, xRatio, yRatio float64) (T, error) {
	hw, hh := halfExtent(xRatio), halfExtent(yRatio)
	// Past these bounds every window cell addresses the same edge, so
	// clamping the center keeps the window arithmetic from wrapping.
	cx := min(max(roundIndex(x), -(hw+1)), g.Ncol()+hw)
	cy := min(max(roundIndex(y), -(hh+1)), g.Nrow()+hh)

	m.scratch = m.scratch[:0]
	for r := cy - hh; r < cy+hh+1; r++ {
		for c := cx - hw; c < cx+hw+1; c++ {
			v, err := g.At(r, c)
			if err != nil {
				return 0, err
			}
			m.scratch = append(m.scratch, v)
		}
	}
	return stats.Mode(m.scratch, m.rng)
}

// maxHalfExtent bounds the window so a corrupt ratio cannot allocate without
// limit.
const maxHalfExtent = 1 << 12

func halfExtent(ratio float64) int {
	if !(ratio >= 1) {
		return 0
	}
	w := math.Floor(ratio) / 2
	if w > maxHalfExtent {
		return maxHalfExtent
	}
	return int(w)
}

// roundIndex rounds half away from zero and converts to a grid index.
func roundIndex(v float64) int {
	return floatIndex(math.Round(v))
}

// floatIndex converts an integral float to int, saturating so that NaN and
// huge values still reach the grid's address policy instead of wrapping.
func floatIndex(v float64) int {
	switch {
	case math.IsNaN(v):
		return math.MinInt
	case v >= math.MaxInt:
		return math.MaxInt
	case v <= math.MinInt:
		return math.MinInt
	}
	return int(v)
}

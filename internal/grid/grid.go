// Package grid provides a strided 2-D view over a flat cell buffer.
//
// A Grid never owns or allocates its buffer; the caller keeps the backing
// slice (often a memory-mapped file) alive for as long as the Grid is used.
// All addressing goes through Index, which applies the Grid's AddressPolicy.
package grid

import (
	"errors"
	"fmt"
	"iter"
	"math"

	"github.com/pspoerri/gridwarp/internal/pixel"
)

// AddressPolicy decides what happens to a row/col outside the grid.
type AddressPolicy int

const (
	// Clamp maps out-of-range coordinates to the nearest edge cell. Sampling
	// just past a tile boundary therefore replicates the edge.
	Clamp AddressPolicy = iota
	// Strict rejects out-of-range coordinates with ErrOutOfRange.
	Strict
)

func (p AddressPolicy) String() string {
	switch p {
	case Clamp:
		return "clamp"
	case Strict:
		return "strict"
	default:
		return fmt.Sprintf("AddressPolicy(%d)", int(p))
	}
}

// ParsePolicy resolves "clamp" or "strict".
func ParsePolicy(s string) (AddressPolicy, error) {
	switch s {
	case "", "clamp":
		return Clamp, nil
	case "strict":
		return Strict, nil
	}
	return 0, fmt.Errorf("unknown address policy %q (supported: clamp, strict)", s)
}

var (
	// ErrGeometry reports dimensions that cannot describe the buffer.
	ErrGeometry = errors.New("invalid grid geometry")
	// ErrOutOfRange is returned under the Strict policy.
	ErrOutOfRange = errors.New("grid coordinate out of range")
)

// Grid interprets a flat buffer as nrow rows of ncol cells, with consecutive
// rows stride elements apart. stride may exceed ncol to skip padding or to
// view a sub-rectangle of a larger raster.
type Grid[T pixel.Number] struct {
	data   []T
	stride int
	nrow   int
	ncol   int
	policy AddressPolicy
}

// New creates a Grid over data. It fails when either dimension is zero, when
// stride is smaller than ncol, or when data is too short for the last row.
func New[T pixel.Number](data []T, stride, nrow, ncol int, policy AddressPolicy) (*Grid[T], error) {
	if nrow <= 0 || ncol <= 0 {
		return nil, fmt.Errorf("%w: grid can't be created with %dx%d cells", ErrGeometry, nrow, ncol)
	}
	if stride < ncol {
		return nil, fmt.Errorf("%w: stride %d is smaller than column count %d", ErrGeometry, stride, ncol)
	}
	need, err := Required(stride, nrow, ncol)
	if err != nil {
		return nil, err
	}
	if len(data) < need {
		return nil, fmt.Errorf("%w: %d rows with stride %d need %d elements, buffer holds %d",
			ErrGeometry, nrow, stride, need, len(data))
	}
	return &Grid[T]{data: data, stride: stride, nrow: nrow, ncol: ncol, policy: policy}, nil
}

// Required returns the minimum buffer length that can back the geometry: every
// row but the last needs a full stride, the last only its ncol cells. It fails
// with ErrGeometry when that length does not fit in an int.
func Required(stride, nrow, ncol int) (int, error) {
	if nrow <= 0 || ncol <= 0 {
		return 0, nil
	}
	if stride < 0 || (nrow > 1 && stride > (math.MaxInt-ncol)/(nrow-1)) {
		return 0, fmt.Errorf("%w: %d rows with stride %d overflow the address space", ErrGeometry, nrow, stride)
	}
	return (nrow-1)*stride + ncol, nil
}

func (g *Grid[T]) Nrow() int { return g.nrow }
func (g *Grid[T]) Ncol() int { return g.ncol }
func (g *Grid[T]) Stride() int { return g.stride }
func (g *Grid[T]) Policy() AddressPolicy { return g.policy }
func (g *Grid[T]) Len() int { return g.nrow * g.ncol }
func (g *Grid[T]) String() string { return fmt.Sprintf("%dx%d/%d", g.nrow, g.ncol, g.stride) }

// Index returns the buffer offset of (row, col). Under Clamp, row and col are
// clamped independently to [0, nrow-1] and [0, ncol-1], so the result always
// lies inside the buffer.
func (g *Grid[T]) Index(row, col int) (int, error) {
	if row < 0 || row >= g.nrow || col < 0 || col >= g.ncol {
		if g.policy == Strict {
			return 0, fmt.Errorf("%w: (%d, %d) not in %dx%d", ErrOutOfRange, row, col, g.nrow, g.ncol)
		}
		row = clamp(row, g.nrow-1)
		col = clamp(col, g.ncol-1)
	}
	return row*g.stride + col, nil
}

// At returns the cell at (row, col).
func (g *Grid[T]) At(row, col int) (T, error) {
	i, err := g.Index(row, col)
	if err != nil {
		var zero T
		return zero, err
	}
	return g.data[i], nil
}

// Set stores v at (row, col).
func (g *Grid[T]) Set(row, col int, v T) error {
	i, err := g.Index(row, col)
	if err != nil {
		return err
	}
	g.data[i] = v
	return nil
}

// Row returns the ncol cells of row r as a sub-slice of the buffer. r is
// addressed with the Grid's policy.
func (g *Grid[T]) Row(r int) ([]T, error) {
	i, err := g.Index(r, 0)
	if err != nil {
		return nil, err
	}
	return g.data[i : i+g.ncol : i+g.ncol], nil
}

// Rows yields every row as a sub-slice of the buffer, top to bottom.
func (g *Grid[T]) Rows() iter.Seq[[]T] {
	return func(yield func([]T) bool) {
		for r := 0; r < g.nrow; r++ {
			off := r * g.stride
			if !yield(g.data[off : off+g.ncol : off+g.ncol]) {
				return
			}
		}
	}
}

// Cells appends every cell in row-major order to dst, skipping stride padding.
func (g *Grid[T]) Cells(dst []T) []T {
	for r := 0; r < g.nrow; r++ {
		off := r * g.stride
		dst = append(dst, g.data[off:off+g.ncol]...)
	}
	return dst
}

func clamp(v, hi int) int {
	if v < 0 {
		return 0
	}
	if v > hi {
		return hi
	}
	return v
}

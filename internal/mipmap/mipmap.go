// Package mipmap packs a pixel-interleaved 8-bit image and its successive
// half-size reductions into a single image.
//
// The base level keeps its place on the left. Every reduced level is
// appended in a column to its right, each starting on the row where the
// previous one ends:
//
//	+--------+----+
//	|        | 1  |
//	|   0    +--+-+
//	|        |2 |
//	+--------+--+
package mipmap

import (
	"context"
	"errors"
	"fmt"

	"github.com/pspoerri/gridwarp/internal/transform"
)

// ErrShape reports a buffer that does not match its declared dimensions.
var ErrShape = errors.New("image shape mismatch")

// Level locates one reduced level inside the mipmap image, in pixels.
type Level struct {
	Col, Row      int
	Width, Height int
}

// Width returns the width of the mipmap image for a base image cols pixels
// wide: the base plus room for a level of half its width, rounded up.
func Width(cols int) int {
	return cols + (cols+1)/2
}

// Locations returns where each reduced level of a cols×rows base is placed.
// Levels halve (rounding up) until one side reaches a single pixel or the
// next level would run past the last row.
func Locations(cols, rows int) []Level {
	var levels []Level
	width, height := cols, rows
	bottom := 0
	for width > 1 && height > 1 {
		width = (width + 1) / 2
		height = (height + 1) / 2
		top := bottom
		bottom = top + height
		if bottom > rows {
			break
		}
		levels = append(levels, Level{Col: cols, Row: top, Width: width, Height: height})
	}
	return levels
}

// Build returns the mipmap of src, a cols×rows image with planes interleaved
// bytes per pixel. Each reduced pixel is the rounded mean of a 2×2 block of
// the level above; a trailing odd row or column is paired with itself.
// Pixels of the mipmap image not covered by any level are zero.
func Build(ctx context.Context, src []uint8, planes, cols, rows int, opts transform.Options) ([]uint8, error) {
	if planes <= 0 || cols <= 0 || rows <= 0 {
		return nil, fmt.Errorf("%w: %d planes, %dx%d pixels", ErrShape, planes, cols, rows)
	}
	if want := planes * cols * rows; len(src) != want {
		return nil, fmt.Errorf("%w: %d planes of %dx%d need %d bytes, got %d", ErrShape, planes, cols, rows, want, len(src))
	}

	stride := Width(cols) * planes
	dst := make([]uint8, stride*rows)
	rowBytes := cols * planes
	for r := 0; r < rows; r++ {
		copy(dst[r*stride:r*stride+rowBytes], src[r*rowBytes:(r+1)*rowBytes])
	}

	prev := Level{Width: cols, Height: rows}
	for _, lvl := range Locations(cols, rows) {
		if err := reduce(ctx, dst, stride, planes, prev, lvl, opts); err != nil {
			return nil, fmt.Errorf("building level at row %d: %w", lvl.Row, err)
		}
		prev = lvl
	}
	return dst, nil
}

// reduce box-filters level from into level to, one output row per work item.
func reduce(ctx context.Context, buf []uint8, stride, planes int, from, to Level, opts transform.Options) error {
	return transform.Run(ctx, to.Height, opts, func() transform.Body {
		return func(lo, hi int) error {
			for dy := lo; dy < hi; dy++ {
				sy0 := from.Row + 2*dy
				sy1 := from.Row + min(2*dy+1, from.Height-1)
				row0 := buf[sy0*stride:]
				row1 := buf[sy1*stride:]
				out := buf[(to.Row+dy)*stride:]
				for dx := 0; dx < to.Width; dx++ {
					sx0 := (from.Col + 2*dx) * planes
					sx1 := (from.Col + min(2*dx+1, from.Width-1)) * planes
					o := (to.Col + dx) * planes
					for p := 0; p < planes; p++ {
						v := (uint16(row0[sx0+p]) + uint16(row0[sx1+p]) +
							uint16(row1[sx0+p]) + uint16(row1[sx1+p]) + 2) / 4
						out[o+p] = uint8(v)
					}
				}
			}
			return nil
		}
	})
}

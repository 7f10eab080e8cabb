package engine

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync/atomic"

	"github.com/pspoerri/gridwarp/internal/grid"
	"github.com/pspoerri/gridwarp/internal/interp"
	"github.com/pspoerri/gridwarp/internal/mmfile"
	"github.com/pspoerri/gridwarp/internal/pixel"
	"github.com/pspoerri/gridwarp/internal/transform"
)

// dispatch instantiates the transform for the job's cell type.
func dispatch(ctx context.Context, j job, src, dst *mmfile.Buffer) error {
	switch j.enc {
	case pixel.Float64:
		return run[float64](ctx, j, src, dst)
	case pixel.Float32:
		return run[float32](ctx, j, src, dst)
	case pixel.Uint32:
		return run[uint32](ctx, j, src, dst)
	case pixel.Int32:
		return run[int32](ctx, j, src, dst)
	case pixel.Uint16:
		return run[uint16](ctx, j, src, dst)
	case pixel.Int16:
		return run[int16](ctx, j, src, dst)
	case pixel.Uint8:
		return run[uint8](ctx, j, src, dst)
	case pixel.Int8:
		return run[int8](ctx, j, src, dst)
	case pixel.Bool1:
		return run[pixel.Bool](ctx, j, src, dst)
	default:
		return fmt.Errorf("%w: encoding %v", ErrConfig, j.enc)
	}
}

func run[T pixel.Number](ctx context.Context, j job, srcBuf, dstBuf *mmfile.Buffer) error {
	src, err := mapGrid[T](srcBuf, j.from, j.opts.Policy)
	if err != nil {
		return err
	}
	// The destination is only written at in-range cells, so it always clamps.
	dst, err := mapGrid[T](dstBuf, j.to, grid.Clamp)
	if err != nil {
		return err
	}
	newInterp := interpolators[T](j.method, j.opts.Seed)
	if j.reproject != nil {
		return transform.Reproject(ctx, src, dst, *j.reproject, newInterp, j.opts.Transform)
	}
	return transform.Resample(ctx, src, dst, newInterp, j.opts.Transform)
}

func mapGrid[T pixel.Number](b *mmfile.Buffer, r Raster, policy grid.AddressPolicy) (*grid.Grid[T], error) {
	g, err := grid.New(mmfile.View[T](b), r.Stride, r.Rows, r.Cols, policy)
	if err != nil {
		return nil, fmt.Errorf("%s (%d bytes): %w", b.Path(), b.Len(), err)
	}
	return g, nil
}

// interpolators returns a factory handing every worker its own interpolator.
// Each one gets a distinct PCG stream of the same seed, so mode tie-breaking
// never shares generator state between goroutines.
func interpolators[T pixel.Number](m interp.Method, seed uint64) transform.InterpolatorFactory[T] {
	seed = resolveSeed(seed)
	var stream atomic.Uint64
	return func() interp.Interpolator[T] {
		rng := rand.New(rand.NewPCG(seed, stream.Add(1)))
		in, err := interp.New[T](m, rng)
		if err != nil {
			// The method was validated before any file was opened.
			panic(err)
		}
		return in
	}
}

// resolveSeed replaces the zero seed with a random one.
func resolveSeed(seed uint64) uint64 {
	if seed == 0 {
		return rand.Uint64()
	}
	return seed
}

package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand/v2"

	"github.com/pspoerri/gridwarp/internal/grid"
	"github.com/pspoerri/gridwarp/internal/mmfile"
	"github.com/pspoerri/gridwarp/internal/pixel"
	"github.com/pspoerri/gridwarp/internal/stats"
)

// Statistic selects a whole-raster aggregate.
type Statistic int

const (
	StatMode Statistic = iota
	StatMean
)

// ParseStatistic resolves "mode" or "mean".
func ParseStatistic(s string) (Statistic, error) {
	switch s {
	case "mode":
		return StatMode, nil
	case "mean":
		return StatMean, nil
	}
	return 0, fmt.Errorf("%w: unknown statistic %q (supported: mode, mean)", ErrConfig, s)
}

func (s Statistic) String() string {
	if s == StatMean {
		return "mean"
	}
	return "mode"
}

// Summary is the result of Aggregate. Missing is set when the raster has no
// cells, in which case Value is meaningless.
type Summary struct {
	Value   float64
	Missing bool
	Cells   int
}

// AggregateRequest selects a raster and the statistic to compute over all of
// its cells. Rows or Cols may be zero for an empty selection.
type AggregateRequest struct {
	Raster    Raster
	Encoding  string
	Statistic Statistic
}

// Aggregate maps a raster read-only and reduces all of its cells, skipping
// stride padding, to a single value. Mode ties are broken with opts.Seed.
func Aggregate(ctx context.Context, req AggregateRequest, opts Options) (Summary, error) {
	enc, err := pixel.Parse(req.Encoding)
	if err != nil {
		return Summary{}, fmt.Errorf("%w: %w", ErrConfig, err)
	}
	if err := enc.CheckPlatform(); err != nil {
		return Summary{}, fmt.Errorf("%w: %w", ErrConfig, err)
	}
	r := req.Raster
	if r.Path == "" || r.Rows < 0 || r.Cols < 0 || r.Stride < r.Cols {
		return Summary{}, fmt.Errorf("%w: raster %s %dx%d/%d", ErrConfig, r.Path, r.Rows, r.Cols, r.Stride)
	}
	if _, err := grid.Required(r.Stride, r.Rows, r.Cols); err != nil {
		return Summary{}, fmt.Errorf("%w: %w", ErrConfig, err)
	}
	if r.Rows == 0 || r.Cols == 0 {
		return Summary{Missing: true}, nil
	}
	if err := ctx.Err(); err != nil {
		return Summary{}, err
	}

	b, err := mmfile.Open(r.Path, mmfile.ReadOnly)
	if err != nil {
		return Summary{}, err
	}
	defer b.Close()
	_ = b.Advise(mmfile.AdviseSequential)

	if opts.Verbose {
		log.Printf("%s of %s: %dx%d %s cells", req.Statistic, r.Path, r.Rows, r.Cols, enc)
	}

	switch enc {
	case pixel.Float64:
		return summarize[float64](b, req, opts)
	case pixel.Float32:
		return summarize[float32](b, req, opts)
	case pixel.Uint32:
		return summarize[uint32](b, req, opts)
	case pixel.Int32:
		return summarize[int32](b, req, opts)
	case pixel.Uint16:
		return summarize[uint16](b, req, opts)
	case pixel.Int16:
		return summarize[int16](b, req, opts)
	case pixel.Uint8:
		return summarize[uint8](b, req, opts)
	case pixel.Int8:
		return summarize[int8](b, req, opts)
	case pixel.Bool1:
		return summarize[pixel.Bool](b, req, opts)
	}
	return Summary{}, fmt.Errorf("%w: encoding %v", ErrConfig, enc)
}

func summarize[T pixel.Number](b *mmfile.Buffer, req AggregateRequest, opts Options) (Summary, error) {
	g, err := mapGrid[T](b, req.Raster, grid.Clamp)
	if err != nil {
		return Summary{}, err
	}
	sum := Summary{Cells: g.Len()}

	switch req.Statistic {
	case StatMean:
		sum.Value, err = stats.MeanChunks(g.Rows())
	default:
		// Mode sorts its input, so it works on a copy rather than the mapping.
		cells := g.Cells(make([]T, 0, g.Len()))
		var v T
		v, err = stats.Mode(cells, rand.New(rand.NewPCG(resolveSeed(opts.Seed), 0)))
		sum.Value = float64(v)
	}
	if errors.Is(err, stats.ErrEmpty) {
		return Summary{Missing: true}, nil
	}
	return sum, err
}

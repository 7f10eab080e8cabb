// Package engine is the file-level entry point: it validates a request,
// maps the source and destination rasters, and runs the resample or
// reprojection transform over them with the requested pixel encoding.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/pspoerri/gridwarp/internal/coord"
	"github.com/pspoerri/gridwarp/internal/grid"
	"github.com/pspoerri/gridwarp/internal/interp"
	"github.com/pspoerri/gridwarp/internal/mmfile"
	"github.com/pspoerri/gridwarp/internal/pixel"
	"github.com/pspoerri/gridwarp/internal/transform"
)

var (
	// ErrConfig reports a request that is rejected before any file is opened.
	ErrConfig = errors.New("invalid configuration")
	// ErrGeometry reports a declared raster geometry that needs more cells
	// than the mapped file holds.
	ErrGeometry = grid.ErrGeometry
)

// Options holds settings shared by every entry point.
type Options struct {
	// Transform schedules the per-cell work.
	Transform transform.Options
	// Policy is the address policy of the source grid. Clamp (the zero
	// value) replicates edges; Strict aborts on any out-of-range sample.
	Policy grid.AddressPolicy
	// Seed makes mode tie-breaking reproducible for serial runs; workers
	// claim chunks in no fixed order. 0 picks a random seed.
	Seed uint64
	// MemoryFraction is the share of physical RAM the mapped files may
	// cover before a run is reported as out-of-core. 0 means
	// mmfile.DefaultMemoryFraction.
	MemoryFraction float64
	// Verbose enables progress logging.
	Verbose bool
}

// Raster locates a flat raster file and declares its geometry.
type Raster struct {
	Path   string
	Stride int
	Rows   int
	Cols   int
}

func (r Raster) validate(role string) error {
	if r.Path == "" {
		return fmt.Errorf("%w: %s path is empty", ErrConfig, role)
	}
	if r.Rows <= 0 || r.Cols <= 0 {
		return fmt.Errorf("%w: %s raster has %dx%d cells", ErrConfig, role, r.Rows, r.Cols)
	}
	if r.Stride < r.Cols {
		return fmt.Errorf("%w: %s stride %d is smaller than column count %d", ErrConfig, role, r.Stride, r.Cols)
	}
	if _, err := grid.Required(r.Stride, r.Rows, r.Cols); err != nil {
		return fmt.Errorf("%w: %s raster: %w", ErrConfig, role, err)
	}
	return nil
}

// ResampleRequest rescales From onto To.
type ResampleRequest struct {
	From     Raster
	To       Raster
	Encoding string
	Method   string
}

// ReprojectRequest reprojects From, which covers the geographic box
// [Lng1, Lng2]×[Lat1, Lat2], onto the part of a projected world mosaic of
// TotalWidth×TotalHeight pixels that starts at (TileX, TileY) and has the
// size of To. Projection names the target projection; empty selects Web
// Mercator.
type ReprojectRequest struct {
	From                    Raster
	Lng1, Lng2, Lat1, Lat2  float64
	To                      Raster
	TileX, TileY            int
	TotalWidth, TotalHeight int
	Encoding                string
	Method                  string
	Projection              string
}

// job is a fully validated request.
type job struct {
	enc       pixel.Encoding
	method    interp.Method
	from, to  Raster
	reproject *transform.Reprojection
	opts      Options
}

func parseCommon(encoding, method string) (pixel.Encoding, interp.Method, error) {
	enc, err := pixel.Parse(encoding)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %w", ErrConfig, err)
	}
	if err := enc.CheckPlatform(); err != nil {
		return 0, 0, fmt.Errorf("%w: %w", ErrConfig, err)
	}
	m, err := interp.ParseMethod(method)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %w", ErrConfig, err)
	}
	return enc, m, nil
}

// Validate reports the ErrConfig the request would fail with, without
// touching any file.
func (req ResampleRequest) Validate() error {
	_, err := req.plan(Options{})
	return err
}

func (req ResampleRequest) plan(opts Options) (job, error) {
	enc, m, err := parseCommon(req.Encoding, req.Method)
	if err != nil {
		return job{}, err
	}
	if err := req.From.validate("source"); err != nil {
		return job{}, err
	}
	if err := req.To.validate("destination"); err != nil {
		return job{}, err
	}
	return job{enc: enc, method: m, from: req.From, to: req.To, opts: opts}, nil
}

// Resample maps both files and fills To from From by ratio scaling.
func Resample(ctx context.Context, req ResampleRequest, opts Options) error {
	j, err := req.plan(opts)
	if err != nil {
		return err
	}
	return execute(ctx, j)
}

// Validate reports the ErrConfig the request would fail with, without
// touching any file.
func (req ReprojectRequest) Validate() error {
	_, err := req.plan(Options{})
	return err
}

func (req ReprojectRequest) plan(opts Options) (job, error) {
	enc, m, err := parseCommon(req.Encoding, req.Method)
	if err != nil {
		return job{}, err
	}
	if err := req.From.validate("source"); err != nil {
		return job{}, err
	}
	if err := req.To.validate("destination"); err != nil {
		return job{}, err
	}
	proj, err := coord.ForName(req.Projection)
	if err != nil {
		return job{}, fmt.Errorf("%w: %w", ErrConfig, err)
	}
	extent, err := coord.NewExtent(req.Lng1, req.Lng2, req.Lat1, req.Lat2)
	if err != nil {
		return job{}, fmt.Errorf("%w: %w", ErrConfig, err)
	}
	placement := coord.Placement{X: req.TileX, Y: req.TileY, TotalWidth: req.TotalWidth, TotalHeight: req.TotalHeight}
	if err := placement.Validate(); err != nil {
		return job{}, fmt.Errorf("%w: %w", ErrConfig, err)
	}
	rp := &transform.Reprojection{
		Extent:      extent,
		Projection:  proj,
		Placement:   placement,
		LocalRatios: m.UsesRatios(),
	}
	return job{enc: enc, method: m, from: req.From, to: req.To, reproject: rp, opts: opts}, nil
}

// Reproject maps both files and fills To with From reprojected into the
// requested mosaic placement.
func Reproject(ctx context.Context, req ReprojectRequest, opts Options) error {
	j, err := req.plan(opts)
	if err != nil {
		return err
	}
	return execute(ctx, j)
}

// execute maps the files of a validated job and runs it. The destination is
// flushed even when the transform fails, so an interrupted run leaves every
// completed cell on disk.
func execute(ctx context.Context, j job) (err error) {
	start := time.Now()
	src, err := mmfile.Open(j.from.Path, mmfile.ReadOnly)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := mmfile.Open(j.to.Path, mmfile.ReadWrite)
	if err != nil {
		return err
	}
	defer func() {
		if ferr := dst.Flush(); ferr != nil && err == nil {
			err = ferr
		}
		if cerr := dst.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if j.reproject != nil {
		_ = src.Advise(mmfile.AdviseRandom)
	} else {
		_ = src.Advise(mmfile.AdviseSequential)
	}
	_ = dst.Advise(mmfile.AdviseSequential)

	fraction := j.opts.MemoryFraction
	if fraction == 0 {
		fraction = mmfile.DefaultMemoryFraction
	}
	if over, total := mmfile.OutOfCore(fraction, src, dst); over {
		log.Printf("Warning: mapped files total %.1f MB, more than %.0f%% of RAM; running out-of-core",
			float64(total)/(1024*1024), fraction*100)
	}

	if j.opts.Verbose {
		kind := "resample"
		if j.reproject != nil {
			kind = "reproject"
		}
		log.Printf("%s %s (%d bytes) -> %s (%d bytes): encoding %s, method %s, %d workers",
			kind, src.Path(), src.Len(), dst.Path(), dst.Len(), j.enc, j.method, j.opts.Transform.WorkerCount())
	}

	if err := dispatch(ctx, j, src, dst); err != nil {
		return err
	}
	if j.opts.Verbose {
		log.Printf("Wrote %d cells in %v", j.to.Rows*j.to.Cols, time.Since(start).Round(time.Millisecond))
	}
	return nil
}

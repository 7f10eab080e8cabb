package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"runtime"
	"runtime/pprof"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/pspoerri/gridwarp/internal/engine"
	"github.com/pspoerri/gridwarp/internal/grid"
	"github.com/pspoerri/gridwarp/internal/transform"
)

// rasterFlags declares one flat raster file on the command line.
type rasterFlags struct {
	prefix string
	path   string
	rows   int
	cols   int
	stride int
}

func (r *rasterFlags) register(f *flag.FlagSet, prefix, role string) {
	r.prefix = prefix
	f.StringVar(&r.path, prefix, "", role+" raster file")
	f.IntVar(&r.rows, prefix+"-rows", 0, role+" row count")
	f.IntVar(&r.cols, prefix+"-cols", 0, role+" column count")
	f.IntVar(&r.stride, prefix+"-stride", 0, role+" elements between row starts (default: column count)")
}

// check reports flags the engine would reject with a less helpful message.
func (r *rasterFlags) check() error {
	if r.path == "" {
		return fmt.Errorf("missing -%s", r.prefix)
	}
	if r.rows <= 0 || r.cols <= 0 {
		return fmt.Errorf("-%s-rows and -%s-cols must be positive", r.prefix, r.prefix)
	}
	return nil
}

func (r *rasterFlags) raster() engine.Raster {
	stride := r.stride
	if stride == 0 {
		stride = r.cols
	}
	return engine.Raster{Path: r.path, Stride: stride, Rows: r.rows, Cols: r.cols}
}

// runFlags are shared by every command that runs a transform.
type runFlags struct {
	workers    int
	grain      int
	policy     string
	seed       uint64
	verbose    bool
	progress   bool
	cpuProfile string
}

func (r *runFlags) register(f *flag.FlagSet) {
	f.IntVar(&r.workers, "concurrency", runtime.NumCPU(), "Number of parallel workers (1 = serial)")
	f.IntVar(&r.grain, "grain", transform.DefaultGrain, "Cells claimed by a worker at a time")
	f.StringVar(&r.policy, "policy", "clamp", "Out-of-range source addressing: clamp, strict")
	f.Uint64Var(&r.seed, "seed", 0, "Seed for mode tie-breaking (0 = random)")
	f.BoolVar(&r.verbose, "verbose", false, "Verbose progress output")
	f.BoolVar(&r.progress, "progress", true, "Show a progress bar")
	f.StringVar(&r.cpuProfile, "cpuprofile", "", "Write CPU profile to file")
}

// options builds engine options for a run over cells destination cells.
// The returned function stops the progress bar and profiler.
func (r *runFlags) options(cells int, description string) (engine.Options, func(), error) {
	policy, err := grid.ParsePolicy(r.policy)
	if err != nil {
		return engine.Options{}, nil, err
	}
	opts := engine.Options{
		Transform: transform.Options{Workers: r.workers, Grain: r.grain},
		Policy:    policy,
		Seed:      r.seed,
		Verbose:   r.verbose,
	}

	var stops []func()
	if r.cpuProfile != "" {
		f, err := os.Create(r.cpuProfile)
		if err != nil {
			return engine.Options{}, nil, fmt.Errorf("creating CPU profile: %w", err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			f.Close()
			return engine.Options{}, nil, fmt.Errorf("starting CPU profile: %w", err)
		}
		stops = append(stops, func() {
			pprof.StopCPUProfile()
			f.Close()
		})
	}
	if r.progress && cells > 0 {
		bar := progressbar.NewOptions64(int64(cells),
			progressbar.OptionSetDescription(description),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("cells"),
			progressbar.OptionThrottle(100*time.Millisecond),
			progressbar.OptionSetWriter(os.Stderr),
		)
		opts.Transform.Progress = func(done int) { bar.Add(done) }
		stops = append(stops, func() {
			bar.Finish()
			fmt.Fprintln(os.Stderr)
		})
	}
	return opts, func() {
		for i := len(stops) - 1; i >= 0; i-- {
			stops[i]()
		}
	}, nil
}

// createRaster makes sure path exists and holds exactly the bytes the
// raster needs, zero-filling any growth.
func createRaster(r engine.Raster, cellSize int) error {
	cells, err := grid.Required(r.Stride, r.Rows, r.Cols)
	if err != nil {
		return err
	}
	if int64(cells) > math.MaxInt64/int64(cellSize) {
		return fmt.Errorf("%s: %d cells of %d bytes overflow a file size", r.Path, cells, cellSize)
	}
	need := int64(cells) * int64(cellSize)
	f, err := os.OpenFile(r.Path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	fi, err := f.Stat()
	if err != nil {
		return err
	}
	if fi.Size() == need {
		return nil
	}
	log.Printf("Sizing %s to %d bytes", r.Path, need)
	return f.Truncate(need)
}

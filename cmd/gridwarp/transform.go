package main

import (
	"context"
	"errors"
	"flag"
	"log"

	"github.com/google/subcommands"

	"github.com/pspoerri/gridwarp/internal/engine"
	"github.com/pspoerri/gridwarp/internal/pixel"
)

type resampleCmd struct {
	src, dst rasterFlags
	run      runFlags
	encoding string
	method   string
	create   bool
}

func (*resampleCmd) Name() string     { return "resample" }
func (*resampleCmd) Synopsis() string { return "rescale a raster file onto another" }
func (*resampleCmd) Usage() string {
	return `gridwarp resample -src <path> -src-rows N -src-cols N -dst <path> -dst-rows N -dst-cols N [flags]

Fill the destination raster from the source by scaling both axes. Both files
hold flat, row-major cells of the given encoding.

`
}

func (c *resampleCmd) SetFlags(f *flag.FlagSet) {
	c.src.register(f, "src", "Source")
	c.dst.register(f, "dst", "Destination")
	c.run.register(f)
	f.StringVar(&c.encoding, "encoding", "float32", "Cell encoding: float64, float32, uint32, int32, uint16, int16, uint8, int8, bool1")
	f.StringVar(&c.method, "method", "bilinear", "Interpolation method: nearest-neighbor, bilinear, mode")
	f.BoolVar(&c.create, "create", false, "Create or resize the destination file to fit")
}

func (c *resampleCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	for _, r := range []*rasterFlags{&c.src, &c.dst} {
		if err := r.check(); err != nil {
			log.Println(err)
			return subcommands.ExitUsageError
		}
	}
	req := engine.ResampleRequest{
		From:     c.src.raster(),
		To:       c.dst.raster(),
		Encoding: c.encoding,
		Method:   c.method,
	}
	if c.create {
		if err := req.Validate(); err != nil {
			return exitStatus(err)
		}
		if err := prepareDestination(req.To, c.encoding); err != nil {
			log.Println(err)
			return subcommands.ExitFailure
		}
	}
	opts, done, err := c.run.options(req.To.Rows*req.To.Cols, "resample")
	if err != nil {
		log.Println(err)
		return subcommands.ExitUsageError
	}
	err = engine.Resample(ctx, req, opts)
	done()
	return exitStatus(err)
}

type reprojectCmd struct {
	src, dst                rasterFlags
	run                     runFlags
	lng1, lng2, lat1, lat2  float64
	tileX, tileY            int
	totalWidth, totalHeight int
	projection              string
	encoding                string
	method                  string
	create                  bool
}

func (*reprojectCmd) Name() string     { return "reproject" }
func (*reprojectCmd) Synopsis() string { return "reproject a geographic raster into a Web Mercator mosaic" }
func (*reprojectCmd) Usage() string {
	return `gridwarp reproject -src <path> ... -dst <path> ... -total-width N -total-height N [flags]

Fill the destination with the part of the projected world mosaic that starts
at (-tile-x, -tile-y). The source covers the -lng1/-lng2/-lat1/-lat2 box in
WGS84 degrees, row 0 at the north.

`
}

func (c *reprojectCmd) SetFlags(f *flag.FlagSet) {
	c.src.register(f, "src", "Source")
	c.dst.register(f, "dst", "Destination")
	c.run.register(f)
	f.Float64Var(&c.lng1, "lng1", -180, "Western edge of the source in degrees")
	f.Float64Var(&c.lng2, "lng2", 180, "Eastern edge of the source in degrees")
	f.Float64Var(&c.lat1, "lat1", -90, "Southern edge of the source in degrees")
	f.Float64Var(&c.lat2, "lat2", 90, "Northern edge of the source in degrees")
	f.IntVar(&c.tileX, "tile-x", 0, "Mosaic column of the destination's first pixel")
	f.IntVar(&c.tileY, "tile-y", 0, "Mosaic row of the destination's first pixel")
	f.IntVar(&c.totalWidth, "total-width", 0, "Mosaic width in pixels (default: destination columns)")
	f.IntVar(&c.totalHeight, "total-height", 0, "Mosaic height in pixels (default: destination rows)")
	f.StringVar(&c.projection, "projection", "webmercator", "Target projection")
	f.StringVar(&c.encoding, "encoding", "float32", "Cell encoding: float64, float32, uint32, int32, uint16, int16, uint8, int8, bool1")
	f.StringVar(&c.method, "method", "bilinear", "Interpolation method: nearest-neighbor, bilinear, mode")
	f.BoolVar(&c.create, "create", false, "Create or resize the destination file to fit")
}

func (c *reprojectCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	for _, r := range []*rasterFlags{&c.src, &c.dst} {
		if err := r.check(); err != nil {
			log.Println(err)
			return subcommands.ExitUsageError
		}
	}
	req := engine.ReprojectRequest{
		From:        c.src.raster(),
		Lng1:        c.lng1,
		Lng2:        c.lng2,
		Lat1:        c.lat1,
		Lat2:        c.lat2,
		To:          c.dst.raster(),
		TileX:       c.tileX,
		TileY:       c.tileY,
		TotalWidth:  c.totalWidth,
		TotalHeight: c.totalHeight,
		Encoding:    c.encoding,
		Method:      c.method,
		Projection:  c.projection,
	}
	if req.TotalWidth == 0 {
		req.TotalWidth = req.To.Cols
	}
	if req.TotalHeight == 0 {
		req.TotalHeight = req.To.Rows
	}
	if c.create {
		if err := req.Validate(); err != nil {
			return exitStatus(err)
		}
		if err := prepareDestination(req.To, c.encoding); err != nil {
			log.Println(err)
			return subcommands.ExitFailure
		}
	}
	opts, done, err := c.run.options(req.To.Rows*req.To.Cols, "reproject")
	if err != nil {
		log.Println(err)
		return subcommands.ExitUsageError
	}
	err = engine.Reproject(ctx, req, opts)
	done()
	return exitStatus(err)
}

func prepareDestination(r engine.Raster, encoding string) error {
	enc, err := pixel.Parse(encoding)
	if err != nil {
		return err
	}
	return createRaster(r, enc.Size())
}

// exitStatus logs err and classifies it.
func exitStatus(err error) subcommands.ExitStatus {
	switch {
	case err == nil:
		return subcommands.ExitSuccess
	case errors.Is(err, engine.ErrConfig):
		log.Println(err)
		return subcommands.ExitUsageError
	case errors.Is(err, context.Canceled):
		log.Printf("Interrupted; the destination holds the cells written so far: %v", err)
		return subcommands.ExitFailure
	default:
		log.Println(err)
		return subcommands.ExitFailure
	}
}

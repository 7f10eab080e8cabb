package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/google/subcommands"
	"github.com/paulmach/orb/maptile"

	"github.com/pspoerri/gridwarp/internal/coord"
	"github.com/pspoerri/gridwarp/internal/engine"
)

type tileCmd struct {
	src                    rasterFlags
	run                    runFlags
	render                 renderFlags
	lng1, lng2, lat1, lat2 float64
	z, x, y                int
	size                   int
	encoding               string
	method                 string
	raw                    string
}

func (*tileCmd) Name() string     { return "tile" }
func (*tileCmd) Synopsis() string { return "render one XYZ map tile of a geographic raster" }
func (*tileCmd) Usage() string {
	return `gridwarp tile -src <path> -src-rows N -src-cols N -z Z -x X -y Y -o tile.png [flags]

Reproject the Web Mercator tile z/x/y out of the source and write it as an
image. With -raw the reprojected cells are also kept as a flat file.

`
}

func (c *tileCmd) SetFlags(f *flag.FlagSet) {
	c.src.register(f, "src", "Source")
	c.run.register(f)
	c.render.register(f)
	f.Float64Var(&c.lng1, "lng1", -180, "Western edge of the source in degrees")
	f.Float64Var(&c.lng2, "lng2", 180, "Eastern edge of the source in degrees")
	f.Float64Var(&c.lat1, "lat1", -90, "Southern edge of the source in degrees")
	f.Float64Var(&c.lat2, "lat2", 90, "Northern edge of the source in degrees")
	f.IntVar(&c.z, "z", 0, "Tile zoom level")
	f.IntVar(&c.x, "x", 0, "Tile column")
	f.IntVar(&c.y, "y", 0, "Tile row")
	f.IntVar(&c.size, "size", coord.DefaultTileSize, "Tile size in pixels")
	f.StringVar(&c.encoding, "encoding", "float32", "Cell encoding of the source")
	f.StringVar(&c.method, "method", "bilinear", "Interpolation method: nearest-neighbor, bilinear, mode")
	f.StringVar(&c.raw, "raw", "", "Also keep the reprojected cells in this file")
}

func (c *tileCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	if err := c.src.check(); err != nil {
		log.Println(err)
		return subcommands.ExitUsageError
	}
	if c.render.output == "" {
		log.Println("missing -o")
		return subcommands.ExitUsageError
	}
	if c.z < 0 || c.z > 30 || c.x < 0 || c.y < 0 || c.x >= 1<<c.z || c.y >= 1<<c.z || c.size <= 0 {
		log.Printf("invalid tile %d/%d/%d at size %d", c.z, c.x, c.y, c.size)
		return subcommands.ExitUsageError
	}
	t := maptile.New(uint32(c.x), uint32(c.y), maptile.Zoom(c.z))
	placement := coord.PlacementForTile(t, c.size)

	rawPath := c.raw
	if rawPath == "" {
		dir, err := os.MkdirTemp("", "gridwarp-tile-")
		if err != nil {
			log.Println(err)
			return subcommands.ExitFailure
		}
		defer os.RemoveAll(dir)
		rawPath = filepath.Join(dir, fmt.Sprintf("%d-%d-%d.bin", c.z, c.x, c.y))
	}
	dst := engine.Raster{Path: rawPath, Stride: c.size, Rows: c.size, Cols: c.size}

	req := engine.ReprojectRequest{
		From:        c.src.raster(),
		Lng1:        c.lng1,
		Lng2:        c.lng2,
		Lat1:        c.lat1,
		Lat2:        c.lat2,
		To:          dst,
		TileX:       placement.X,
		TileY:       placement.Y,
		TotalWidth:  placement.TotalWidth,
		TotalHeight: placement.TotalHeight,
		Encoding:    c.encoding,
		Method:      c.method,
	}
	if err := req.Validate(); err != nil {
		return exitStatus(err)
	}
	if err := prepareDestination(dst, c.encoding); err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}
	opts, done, err := c.run.options(c.size*c.size, fmt.Sprintf("tile %d/%d/%d", c.z, c.x, c.y))
	if err != nil {
		log.Println(err)
		return subcommands.ExitUsageError
	}
	if c.run.verbose {
		b := coord.TileBounds(t)
		log.Printf("Tile %d/%d/%d covers [%.5f, %.5f, %.5f, %.5f]", c.z, c.x, c.y, b.Min.X(), b.Min.Y(), b.Max.X(), b.Max.Y())
	}
	err = engine.Reproject(ctx, req, opts)
	done()
	if status := exitStatus(err); status != subcommands.ExitSuccess {
		return status
	}

	if err := c.render.renderFile(ctx, dst, c.encoding, c.run.verbose); err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

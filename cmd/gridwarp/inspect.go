package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/google/subcommands"

	"github.com/pspoerri/gridwarp/internal/engine"
	"github.com/pspoerri/gridwarp/internal/mipmap"
	"github.com/pspoerri/gridwarp/internal/mmfile"
	"github.com/pspoerri/gridwarp/internal/transform"
)

type modeCmd struct {
	src       rasterFlags
	encoding  string
	statistic string
	seed      uint64
	verbose   bool
}

func (*modeCmd) Name() string     { return "mode" }
func (*modeCmd) Synopsis() string { return "print the most frequent (or mean) cell value of a raster" }
func (*modeCmd) Usage() string {
	return `gridwarp mode -src <path> -src-rows N -src-cols N [-stat mode|mean]

Prints NA when the raster has no cells.

`
}

func (c *modeCmd) SetFlags(f *flag.FlagSet) {
	c.src.register(f, "src", "Source")
	f.StringVar(&c.encoding, "encoding", "uint8", "Cell encoding of the source")
	f.StringVar(&c.statistic, "stat", "mode", "Statistic: mode, mean")
	f.Uint64Var(&c.seed, "seed", 0, "Seed for mode tie-breaking (0 = random)")
	f.BoolVar(&c.verbose, "verbose", false, "Verbose output")
}

func (c *modeCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	stat, err := engine.ParseStatistic(c.statistic)
	if err != nil {
		log.Println(err)
		return subcommands.ExitUsageError
	}
	req := engine.AggregateRequest{Raster: c.src.raster(), Encoding: c.encoding, Statistic: stat}
	sum, err := engine.Aggregate(ctx, req, engine.Options{Seed: c.seed, Verbose: c.verbose})
	if err != nil {
		return exitStatus(err)
	}
	if sum.Missing {
		fmt.Println("NA")
		return subcommands.ExitSuccess
	}
	fmt.Println(sum.Value)
	if c.verbose {
		log.Printf("%s over %d cells", stat, sum.Cells)
	}
	return subcommands.ExitSuccess
}

type previewCmd struct {
	src      rasterFlags
	render   renderFlags
	encoding string
	verbose  bool
}

func (*previewCmd) Name() string     { return "preview" }
func (*previewCmd) Synopsis() string { return "render a raster file as an image" }
func (*previewCmd) Usage() string {
	return `gridwarp preview -src <path> -src-rows N -src-cols N -o preview.png [flags]

`
}

func (c *previewCmd) SetFlags(f *flag.FlagSet) {
	c.src.register(f, "src", "Source")
	c.render.register(f)
	f.StringVar(&c.encoding, "encoding", "float32", "Cell encoding of the source")
	f.BoolVar(&c.verbose, "verbose", false, "Verbose output")
}

func (c *previewCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	if err := c.src.check(); err != nil {
		log.Println(err)
		return subcommands.ExitUsageError
	}
	if err := c.render.renderFile(ctx, c.src.raster(), c.encoding, c.verbose); err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

type mipmapCmd struct {
	src       string
	dst       string
	planes    int
	cols      int
	rows      int
	workers   int
	locations bool
}

func (*mipmapCmd) Name() string     { return "mipmap" }
func (*mipmapCmd) Synopsis() string { return "pack an 8-bit image and its half-size reductions side by side" }
func (*mipmapCmd) Usage() string {
	return `gridwarp mipmap -src <path> -dst <path> -cols N -rows N [-planes P]

The source holds rows×cols pixels of P interleaved bytes. The destination is
written with width cols + ceil(cols/2).

`
}

func (c *mipmapCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.src, "src", "", "Source image file")
	f.StringVar(&c.dst, "dst", "", "Destination file")
	f.IntVar(&c.planes, "planes", 4, "Bytes per pixel")
	f.IntVar(&c.cols, "cols", 0, "Source width in pixels")
	f.IntVar(&c.rows, "rows", 0, "Source height in pixels")
	f.IntVar(&c.workers, "concurrency", 0, "Number of parallel workers (0 = all CPUs)")
	f.BoolVar(&c.locations, "locations", false, "Print col, row, width, height of every reduced level")
}

func (c *mipmapCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	if c.locations {
		fmt.Println("col\trow\twidth\theight")
		for _, l := range mipmap.Locations(c.cols, c.rows) {
			fmt.Printf("%d\t%d\t%d\t%d\n", l.Col, l.Row, l.Width, l.Height)
		}
		if c.src == "" {
			return subcommands.ExitSuccess
		}
	}
	if c.src == "" || c.dst == "" {
		log.Println("both -src and -dst are required")
		return subcommands.ExitUsageError
	}

	b, err := mmfile.Open(c.src, mmfile.ReadOnly)
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}
	defer b.Close()
	_ = b.Advise(mmfile.AdviseSequential)

	out, err := mipmap.Build(ctx, b.Bytes(), c.planes, c.cols, c.rows, transform.Options{Workers: c.workers})
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}
	if err := os.WriteFile(c.dst, out, 0o644); err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

type versionCmd struct{}

func (*versionCmd) Name() string           { return "version" }
func (*versionCmd) Synopsis() string       { return "print version information" }
func (*versionCmd) Usage() string          { return "gridwarp version\n" }
func (*versionCmd) SetFlags(*flag.FlagSet) {}
func (*versionCmd) Execute(context.Context, *flag.FlagSet, ...any) subcommands.ExitStatus {
	fmt.Printf("gridwarp %s (commit %s, built %s)\n", version, commit, buildDate)
	return subcommands.ExitSuccess
}

// Command gridwarp resamples and reprojects flat raster files in place on
// disk, and renders them to images.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"

	"github.com/google/subcommands"
)

// Set via -ldflags at build time.
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(&versionCmd{}, "")
	subcommands.Register(&resampleCmd{}, "transform")
	subcommands.Register(&reprojectCmd{}, "transform")
	subcommands.Register(&tileCmd{}, "transform")
	subcommands.Register(&mipmapCmd{}, "transform")
	subcommands.Register(&modeCmd{}, "inspect")
	subcommands.Register(&previewCmd{}, "inspect")

	flag.Parse()

	// An interrupt stops the transform at its next cancellation check; the
	// cells written so far stay on disk.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	status := subcommands.Execute(ctx)
	stop()
	os.Exit(int(status))
}

package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/color"
	"log"
	"os"

	"github.com/pspoerri/gridwarp/internal/encode"
	"github.com/pspoerri/gridwarp/internal/engine"
	"github.com/pspoerri/gridwarp/internal/grid"
	"github.com/pspoerri/gridwarp/internal/mmfile"
	"github.com/pspoerri/gridwarp/internal/pixel"
	"github.com/pspoerri/gridwarp/internal/transform"
)

// renderFlags select how a raster becomes an image.
type renderFlags struct {
	output  string
	style   string
	quality int
	min     float64
	max     float64
	colors  string
	naColor string
	ramp    *encode.ColorRamp
}

func (r *renderFlags) register(f *flag.FlagSet) {
	f.StringVar(&r.output, "o", "", "Output image; the extension selects png, jpg or webp")
	f.StringVar(&r.style, "style", "gray", "Rendering: gray (linear stretch), ramp (Lab color ramp) or terrarium (elevation RGB)")
	f.IntVar(&r.quality, "quality", encode.DefaultQuality, "JPEG/WebP quality 1-100")
	f.Float64Var(&r.min, "min", 0, "Value drawn at the low end in gray and ramp styles (min = max: use the raster's range)")
	f.Float64Var(&r.max, "max", 0, "Value drawn at the high end in gray and ramp styles")
	f.StringVar(&r.colors, "colors", "black,white", "Comma-separated ramp colors: names, #RRGGBB or #RRGGBBAA")
	f.StringVar(&r.naColor, "na-color", "", "Ramp color for missing or out-of-range cells (default: transparent)")
}

// renderFile maps raster r read-only and writes it as an image.
func (r *renderFlags) renderFile(ctx context.Context, raster engine.Raster, encoding string, verbose bool) error {
	if r.output == "" {
		return fmt.Errorf("missing -o")
	}
	enc, err := encode.ForPath(r.output, r.quality)
	if err != nil {
		return err
	}
	if r.style == "terrarium" && enc.Format() != "png" {
		return fmt.Errorf("terrarium rendering needs lossless png output, not %s", enc.Format())
	}
	pe, err := pixel.Parse(encoding)
	if err != nil {
		return err
	}
	if r.style == "ramp" {
		colors, err := encode.ParseColors(r.colors)
		if err != nil {
			return err
		}
		var na color.NRGBA
		if r.naColor != "" {
			if na, err = encode.ParseColor(r.naColor); err != nil {
				return err
			}
		}
		if r.ramp, err = encode.NewColorRamp(colors, na); err != nil {
			return err
		}
	}

	b, err := mmfile.Open(raster.Path, mmfile.ReadOnly)
	if err != nil {
		return err
	}
	defer b.Close()

	var img image.Image
	switch pe {
	case pixel.Float64:
		img, err = renderGrid[float64](ctx, b, raster, r)
	case pixel.Float32:
		img, err = renderGrid[float32](ctx, b, raster, r)
	case pixel.Uint32:
		img, err = renderGrid[uint32](ctx, b, raster, r)
	case pixel.Int32:
		img, err = renderGrid[int32](ctx, b, raster, r)
	case pixel.Uint16:
		img, err = renderGrid[uint16](ctx, b, raster, r)
	case pixel.Int16:
		img, err = renderGrid[int16](ctx, b, raster, r)
	case pixel.Uint8:
		img, err = renderGrid[uint8](ctx, b, raster, r)
	case pixel.Int8:
		img, err = renderGrid[int8](ctx, b, raster, r)
	case pixel.Bool1:
		img, err = renderGrid[pixel.Bool](ctx, b, raster, r)
	}
	if err != nil {
		return err
	}

	f, err := os.Create(r.output)
	if err != nil {
		return err
	}
	if err := enc.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encoding %s: %w", r.output, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	if verbose {
		log.Printf("Rendered %dx%d %s as %s to %s", raster.Cols, raster.Rows, pe, r.style, r.output)
	}
	return nil
}

func renderGrid[T pixel.Number](ctx context.Context, b *mmfile.Buffer, raster engine.Raster, r *renderFlags) (image.Image, error) {
	g, err := grid.New(mmfile.View[T](b), raster.Stride, raster.Rows, raster.Cols, grid.Clamp)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", raster.Path, err)
	}
	switch r.style {
	case "terrarium":
		return encode.Terrarium(g), nil
	case "gray":
		if r.min == r.max {
			return encode.Stretch(g), nil
		}
		return encode.Gray(g, encode.Range{Min: r.min, Max: r.max}), nil
	case "ramp":
		rng := encode.Range{Min: r.min, Max: r.max}
		if r.min == r.max {
			rng, _ = encode.ValueRange(g)
		}
		return encode.Ramp(ctx, g, rng, r.ramp, transform.Options{})
	default:
		return nil, fmt.Errorf("unknown style %q (supported: gray, ramp, terrarium)", r.style)
	}
}

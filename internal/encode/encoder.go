// Package encode renders raster grids to images and writes them in common
// image formats for previews and map tiles.
package encode

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"path/filepath"
	"strings"

	"github.com/gen2brain/webp"
)

// DefaultQuality is used by lossy encoders when no quality is given.
const DefaultQuality = 85

// Encoder writes an image in one file format.
type Encoder interface {
	Encode(w io.Writer, img image.Image) error
	// Format returns the canonical format name, e.g. "png".
	Format() string
	FileExtension() string
}

// NewEncoder returns the encoder for format. quality (1-100) applies to
// jpeg and webp; 0 selects DefaultQuality.
func NewEncoder(format string, quality int) (Encoder, error) {
	if quality <= 0 {
		quality = DefaultQuality
	}
	if quality > 100 {
		return nil, fmt.Errorf("quality %d out of range 1-100", quality)
	}
	switch strings.ToLower(format) {
	case "png", "terrarium":
		return pngEncoder{}, nil
	case "jpeg", "jpg":
		return jpegEncoder{quality: quality}, nil
	case "webp":
		return webpEncoder{quality: quality}, nil
	default:
		return nil, fmt.Errorf("unsupported image format: %q (supported: png, jpeg, webp, terrarium)", format)
	}
}

// ForPath picks the encoder matching the extension of path.
func ForPath(path string, quality int) (Encoder, error) {
	return NewEncoder(strings.TrimPrefix(filepath.Ext(path), "."), quality)
}

type pngEncoder struct{}

func (pngEncoder) Encode(w io.Writer, img image.Image) error {
	enc := &png.Encoder{CompressionLevel: png.BestSpeed}
	return enc.Encode(w, img)
}

func (pngEncoder) Format() string        { return "png" }
func (pngEncoder) FileExtension() string { return ".png" }

type jpegEncoder struct {
	quality int
}

func (e jpegEncoder) Encode(w io.Writer, img image.Image) error {
	return jpeg.Encode(w, img, &jpeg.Options{Quality: e.quality})
}

func (jpegEncoder) Format() string        { return "jpeg" }
func (jpegEncoder) FileExtension() string { return ".jpg" }

// webpEncoder uses the WASM build of libwebp, or a system libwebp through
// purego when one is installed. Neither needs cgo.
type webpEncoder struct {
	quality int
}

func (e webpEncoder) Encode(w io.Writer, img image.Image) error {
	return webp.Encode(w, img, webp.Options{Quality: e.quality})
}

func (webpEncoder) Format() string        { return "webp" }
func (webpEncoder) FileExtension() string { return ".webp" }

// Decode reads an image written by one of the encoders.
func Decode(r io.Reader, format string) (image.Image, error) {
	switch strings.ToLower(format) {
	case "png", "terrarium":
		return png.Decode(r)
	case "jpeg", "jpg":
		return jpeg.Decode(r)
	case "webp":
		return webp.Decode(r)
	default:
		return nil, fmt.Errorf("unsupported decode format: %q", format)
	}
}

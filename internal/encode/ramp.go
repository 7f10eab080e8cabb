package encode

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"

	"github.com/pspoerri/gridwarp/internal/grid"
	"github.com/pspoerri/gridwarp/internal/pixel"
	"github.com/pspoerri/gridwarp/internal/transform"
)

// D65 reference white.
const (
	whiteX = 0.95047
	whiteY = 1.0
	whiteZ = 1.08883
)

var (
	srgbToXYZ = [3][3]float64{
		{0.4124564, 0.3575761, 0.1804375},
		{0.2126729, 0.7151522, 0.0721750},
		{0.0193339, 0.1191920, 0.9503041},
	}
	xyzToSRGB = [3][3]float64{
		{3.2404542, -1.5371385, -0.4985314},
		{-0.9692660, 1.8760108, 0.0415560},
		{0.0556434, -0.2040259, 1.0572252},
	}
)

// lab is a CIE L*a*b* color.
type lab struct {
	l, a, b float64
}

func srgbToLinear(c float64) float64 {
	if c <= 0.04045 {
		return c / 12.92
	}
	return math.Pow((c+0.055)/1.055, 2.4)
}

func linearToSRGB(c float64) float64 {
	if c <= 0.0031308 {
		return 12.92 * c
	}
	return 1.055*math.Pow(c, 1/2.4) - 0.055
}

func mul(m [3][3]float64, v [3]float64) [3]float64 {
	var out [3]float64
	for i := range m {
		out[i] = m[i][0]*v[0] + m[i][1]*v[1] + m[i][2]*v[2]
	}
	return out
}

func labF(t float64) float64 {
	if t > math.Pow(6.0/29, 3) {
		return math.Cbrt(t)
	}
	return t/3*(29.0/6)*(29.0/6) + 4.0/29
}

func labFInv(t float64) float64 {
	if t > 6.0/29 {
		return t * t * t
	}
	return 3 * (6.0 / 29) * (6.0 / 29) * (t - 4.0/29)
}

// rgbToLab converts sRGB components in [0, 1] to Lab.
func rgbToLab(r, g, b float64) lab {
	xyz := mul(srgbToXYZ, [3]float64{srgbToLinear(r), srgbToLinear(g), srgbToLinear(b)})
	fx, fy, fz := labF(xyz[0]/whiteX), labF(xyz[1]/whiteY), labF(xyz[2]/whiteZ)
	return lab{l: 116*fy - 16, a: 500 * (fx - fy), b: 200 * (fy - fz)}
}

// labToRGB converts Lab to sRGB components. Out-of-gamut colors may fall
// outside [0, 1].
func labToRGB(c lab) (r, g, b float64) {
	fy := (c.l + 16) / 116
	xyz := [3]float64{
		whiteX * labFInv(fy+c.a/500),
		whiteY * labFInv(fy),
		whiteZ * labFInv(fy-c.b/200),
	}
	rgb := mul(xyzToSRGB, xyz)
	return linearToSRGB(rgb[0]), linearToSRGB(rgb[1]), linearToSRGB(rgb[2])
}

func toByte(v float64) uint8 {
	return uint8(math.Min(math.Max(math.Round(v), 0), 255))
}

type rampStop struct {
	lab
	alpha float64
}

// ColorRamp maps values in [0, 1] onto a sequence of colors, interpolating
// between neighbours in Lab space. Opacity is interpolated linearly.
type ColorRamp struct {
	stops []rampStop
	alpha bool
	na    color.NRGBA
}

// NewColorRamp converts colors to Lab once. Values outside [0, 1] and NaN map
// to na.
func NewColorRamp(colors []color.NRGBA, na color.NRGBA) (*ColorRamp, error) {
	if len(colors) == 0 {
		return nil, errors.New("color ramp needs at least one color")
	}
	r := &ColorRamp{stops: make([]rampStop, len(colors)), na: na}
	for i, c := range colors {
		r.stops[i] = rampStop{
			lab:   rgbToLab(float64(c.R)/255, float64(c.G)/255, float64(c.B)/255),
			alpha: float64(c.A),
		}
		if c.A != 255 {
			r.alpha = true
		}
	}
	return r, nil
}

// At returns the color for v. ok is false when v is NaN or outside [0, 1], in
// which case the NA color is returned.
func (r *ColorRamp) At(v float64) (c color.NRGBA, ok bool) {
	if !(v >= 0 && v <= 1) {
		return r.na, false
	}
	pos := v * float64(len(r.stops)-1)
	i := int(math.Floor(pos))
	var s rampStop
	if i == len(r.stops)-1 {
		s = r.stops[i]
	} else {
		fb := pos - float64(i)
		fa := 1 - fb
		lo, hi := r.stops[i], r.stops[i+1]
		s = rampStop{
			lab: lab{
				l: fa*lo.l + fb*hi.l,
				a: fa*lo.a + fb*hi.a,
				b: fa*lo.b + fb*hi.b,
			},
			alpha: fa*lo.alpha + fb*hi.alpha,
		}
	}
	red, green, blue := labToRGB(s.lab)
	return color.NRGBA{R: toByte(red * 255), G: toByte(green * 255), B: toByte(blue * 255), A: toByte(s.alpha)}, true
}

// Hex returns the color for v as #RRGGBB, or #RRGGBBAA when any ramp color
// is translucent.
func (r *ColorRamp) Hex(v float64) string {
	c, _ := r.At(v)
	if r.alpha {
		return fmt.Sprintf("#%02X%02X%02X%02X", c.R, c.G, c.B, c.A)
	}
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// ParseColor accepts #RRGGBB, #RRGGBBAA or an SVG color name.
func ParseColor(s string) (color.NRGBA, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "#") {
		hex := s[1:]
		if len(hex) != 6 && len(hex) != 8 {
			return color.NRGBA{}, fmt.Errorf("invalid color %q: want #RRGGBB or #RRGGBBAA", s)
		}
		v, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return color.NRGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
		}
		if len(hex) == 6 {
			v = v<<8 | 0xFF
		}
		return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
	}
	c, ok := colornames.Map[strings.ToLower(s)]
	if !ok {
		return color.NRGBA{}, fmt.Errorf("unknown color %q", s)
	}
	// Named colors are opaque, so the premultiplied value is the plain one.
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}, nil
}

// ParseColors parses a comma-separated color list.
func ParseColors(list string) ([]color.NRGBA, error) {
	var out []color.NRGBA
	for _, s := range strings.Split(list, ",") {
		c, err := ParseColor(s)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// Ramp renders g through ramp, mapping r linearly onto [0, 1]. Cells outside
// r and non-finite cells take the NA color. A degenerate range maps every
// finite cell to the middle of the ramp. Rows are colored in parallel.
func Ramp[T pixel.Number](ctx context.Context, g *grid.Grid[T], r Range, ramp *ColorRamp, opts transform.Options) (*image.NRGBA, error) {
	img := image.NewNRGBA(image.Rect(0, 0, g.Ncol(), g.Nrow()))
	span := r.Max - r.Min
	ncol := g.Ncol()
	err := transform.Run(ctx, g.Len(), opts, func() transform.Body {
		return func(lo, hi int) error {
			for i := lo; i < hi; i++ {
				y, x := i/ncol, i%ncol
				v, err := g.At(y, x)
				if err != nil {
					return err
				}
				t := 0.5
				if span > 0 {
					t = (float64(v) - r.Min) / span
				}
				if f := float64(v); math.IsNaN(f) || math.IsInf(f, 0) {
					t = math.NaN()
				}
				c, _ := ramp.At(t)
				img.SetNRGBA(x, y, c)
			}
			return nil
		}
	})
	if err != nil {
		return nil, err
	}
	return img, nil
}

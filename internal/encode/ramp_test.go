package encode

import (
	"context"
	"image/color"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/pspoerri/gridwarp/internal/grid"
	"github.com/pspoerri/gridwarp/internal/transform"
)

func TestRGBToLab(t *testing.T) {
	tests := []struct {
		name    string
		r, g, b float64
		want    lab
	}{
		{"white", 1, 1, 1, lab{100.0000038667, -0.0000166667, 0.0000066667}},
		{"black", 0, 0, 0, lab{0, 0, 0}},
		{"red", 1, 0, 0, lab{53.2407941413, 80.0924595964, 67.2031965159}},
		{"blue", 0, 0, 1, lab{32.2970109329, 79.1875198451, -107.8601617541}},
		{"mid gray", 0.5, 0.5, 0.5, lab{53.3889670541, -0.0000099697, 0.0000039879}},
	}
	opt := cmp.Options{cmp.AllowUnexported(lab{}), cmpopts.EquateApprox(0, 1e-6)}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, rgbToLab(tt.r, tt.g, tt.b), opt); diff != "" {
				t.Errorf("rgbToLab mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLabRoundTrip(t *testing.T) {
	for _, c := range [][3]float64{{0.2, 0.4, 0.6}, {1, 0.5, 0}, {0.01, 0.02, 0.03}} {
		r, g, b := labToRGB(rgbToLab(c[0], c[1], c[2]))
		if math.Abs(r-c[0]) > 1e-6 || math.Abs(g-c[1]) > 1e-6 || math.Abs(b-c[2]) > 1e-6 {
			t.Errorf("round trip of %v = (%v, %v, %v)", c, r, g, b)
		}
	}
}

func TestColorRamp_At(t *testing.T) {
	na := color.NRGBA{R: 1, G: 2, B: 3, A: 4}
	black, white := color.NRGBA{A: 255}, color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	red, green, blue := color.NRGBA{R: 255, A: 255}, color.NRGBA{G: 255, A: 255}, color.NRGBA{B: 255, A: 255}

	gray, err := NewColorRamp([]color.NRGBA{black, white}, na)
	if err != nil {
		t.Fatal(err)
	}
	rb, _ := NewColorRamp([]color.NRGBA{red, blue}, na)
	rgb, _ := NewColorRamp([]color.NRGBA{red, green, blue}, na)
	single, _ := NewColorRamp([]color.NRGBA{red}, na)

	tests := []struct {
		name   string
		ramp   *ColorRamp
		v      float64
		want   color.NRGBA
		wantOK bool
	}{
		{"gray low end", gray, 0, black, true},
		{"gray quarter", gray, 0.25, color.NRGBA{R: 59, G: 59, B: 59, A: 255}, true},
		{"gray middle", gray, 0.5, color.NRGBA{R: 119, G: 119, B: 119, A: 255}, true},
		{"gray high end", gray, 1, white, true},
		{"red to blue start", rb, 0, red, true},
		{"red to blue end", rb, 1, blue, true},
		{"red to blue middle", rb, 0.5, color.NRGBA{R: 202, G: 0, B: 136, A: 255}, true},
		{"three stops", rgb, 0.25, color.NRGBA{R: 201, G: 171, B: 0, A: 255}, true},
		{"single color", single, 0.7, red, true},
		{"below range", gray, -0.1, na, false},
		{"above range", gray, 1.1, na, false},
		{"nan", gray, math.NaN(), na, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.ramp.At(tt.v)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("At(%v) = %v, %v; want %v, %v", tt.v, got, ok, tt.want, tt.wantOK)
			}
		})
	}

	if _, err := NewColorRamp(nil, na); err == nil {
		t.Error("empty color list should be rejected")
	}
}

func TestColorRamp_Hex(t *testing.T) {
	opaque, _ := NewColorRamp([]color.NRGBA{{A: 255}, {R: 255, G: 255, B: 255, A: 255}}, color.NRGBA{})
	for v, want := range map[float64]string{0: "#000000", 0.5: "#777777", 1: "#FFFFFF", 2: "#000000"} {
		if got := opaque.Hex(v); got != want {
			t.Errorf("Hex(%v) = %s, want %s", v, got, want)
		}
	}
	fade, _ := NewColorRamp([]color.NRGBA{{}, {R: 255, G: 255, B: 255, A: 255}}, color.NRGBA{})
	if got := fade.Hex(0.5); got != "#77777780" {
		t.Errorf("translucent Hex(0.5) = %s, want #77777780", got)
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in      string
		want    color.NRGBA
		wantErr bool
	}{
		{"#FF0000", color.NRGBA{R: 255, A: 255}, false},
		{"#ff000080", color.NRGBA{R: 255, A: 128}, false},
		{" red ", color.NRGBA{R: 255, A: 255}, false},
		{"SteelBlue", color.NRGBA{R: 70, G: 130, B: 180, A: 255}, false},
		{"#12345", color.NRGBA{}, true},
		{"#GG0000", color.NRGBA{}, true},
		{"ultraviolet", color.NRGBA{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseColor(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseColor(%q) = %v, want error", tt.in, got)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("ParseColor(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
			}
		})
	}

	list, err := ParseColors("black,#FFFFFF")
	if err != nil || len(list) != 2 {
		t.Errorf("ParseColors = %v, %v", list, err)
	}
}

func TestRamp_Grid(t *testing.T) {
	g, err := grid.New([]float32{0, 5, 10, float32(math.NaN()), 20, 0}, 3, 2, 3, grid.Clamp)
	if err != nil {
		t.Fatal(err)
	}
	na := color.NRGBA{R: 9, A: 9}
	ramp, _ := NewColorRamp([]color.NRGBA{{A: 255}, {R: 255, G: 255, B: 255, A: 255}}, na)

	img, err := Ramp(context.Background(), g, Range{Min: 0, Max: 10}, ramp, transform.Options{Workers: 4, Grain: 1})
	if err != nil {
		t.Fatal(err)
	}
	want := []color.NRGBA{
		{A: 255}, {R: 119, G: 119, B: 119, A: 255}, {R: 255, G: 255, B: 255, A: 255},
		na, na, {A: 255},
	}
	for i, w := range want {
		if got := img.NRGBAAt(i%3, i/3); got != w {
			t.Errorf("pixel (%d, %d) = %v, want %v", i/3, i%3, got, w)
		}
	}

	flat, _ := grid.New([]uint8{7, 7}, 2, 1, 2, grid.Clamp)
	img, err = Ramp(context.Background(), flat, Range{Min: 7, Max: 7}, ramp, transform.Options{Workers: 1})
	if err != nil {
		t.Fatal(err)
	}
	if got := img.NRGBAAt(1, 0); got != (color.NRGBA{R: 119, G: 119, B: 119, A: 255}) {
		t.Errorf("degenerate range pixel = %v, want mid ramp", got)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Ramp(ctx, g, Range{Min: 0, Max: 10}, ramp, transform.Options{}); err == nil {
		t.Error("cancelled Ramp should fail")
	}
}

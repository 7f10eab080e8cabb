package pixel

import (
	"errors"
	"math"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Encoding
	}{
		{"float64", Float64},
		{"FLT8S", Float64},
		{"flt4s", Float32},
		{"INT4U", Uint32},
		{"int32", Int32},
		{"INT2U", Uint16},
		{"INT2S", Int16},
		{"uint8", Uint8},
		{"INT1S", Int8},
		{"LOG1S", Bool1},
		{"bool1", Bool1},
		{"double", Float64},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			if err != nil {
				t.Fatalf("Parse(%q): %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParse_Unknown(t *testing.T) {
	for _, in := range []string{"INT9", "", "complex128"} {
		if _, err := Parse(in); !errors.Is(err, ErrUnknownEncoding) {
			t.Errorf("Parse(%q) error = %v, want ErrUnknownEncoding", in, err)
		}
	}
}

func TestSize(t *testing.T) {
	want := map[Encoding]int{
		Float64: 8, Float32: 4, Uint32: 4, Int32: 4,
		Uint16: 2, Int16: 2, Uint8: 1, Int8: 1, Bool1: 1,
	}
	for e, size := range want {
		if e.Size() != size {
			t.Errorf("%v.Size() = %d, want %d", e, e.Size(), size)
		}
	}
	if Encoding(42).Size() != 0 {
		t.Error("invalid encoding should have size 0")
	}
}

func TestCheckPlatform(t *testing.T) {
	for e := Float64; e <= Bool1; e++ {
		if err := e.CheckPlatform(); err != nil {
			t.Errorf("%v.CheckPlatform() = %v", e, err)
		}
	}
}

func TestConverter_Integer(t *testing.T) {
	u8 := Converter[uint8]()
	tests := []struct {
		in   float64
		want uint8
	}{
		{0, 0},
		{1.4, 1},
		{1.5, 2},
		{2.5, 3}, // half away from zero
		{254.6, 255},
		{300, 255},
		{-3, 0},
		{math.NaN(), 0},
	}
	for _, tt := range tests {
		if got := u8(tt.in); got != tt.want {
			t.Errorf("uint8(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}

	i16 := Converter[int16]()
	if got := i16(-2.5); got != -3 {
		t.Errorf("int16(-2.5) = %d, want -3", got)
	}
	if got := i16(-1e9); got != math.MinInt16 {
		t.Errorf("int16(-1e9) = %d, want %d", got, math.MinInt16)
	}
}

func TestConverter_Float(t *testing.T) {
	f64 := Converter[float64]()
	if got := f64(1.25); got != 1.25 {
		t.Errorf("float64(1.25) = %v", got)
	}
	f32 := Converter[float32]()
	if got := f32(0.5); got != 0.5 {
		t.Errorf("float32(0.5) = %v", got)
	}
	if got := f64(math.NaN()); !math.IsNaN(got) {
		t.Errorf("float64(NaN) = %v, want NaN", got)
	}
}

func TestConverter_Bool(t *testing.T) {
	b := Converter[Bool]()
	for in, want := range map[float64]Bool{0: 0, 0.3: 1, -2: 1, 1: 1} {
		if got := b(in); got != want {
			t.Errorf("Bool(%v) = %d, want %d", in, got, want)
		}
	}
	if got := b(math.NaN()); got != 0 {
		t.Errorf("Bool(NaN) = %d, want 0", got)
	}
}

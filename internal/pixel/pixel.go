// Package pixel defines the closed set of cell encodings a raster buffer can
// hold and the conversions between them and float64 sample values.
package pixel

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"unsafe"
)

// Encoding identifies how a single raster cell is stored on disk.
type Encoding int

const (
	Float64 Encoding = iota
	Float32
	Uint32
	Int32
	Uint16
	Int16
	Uint8
	Int8
	Bool1
)

// Bool is a boolean stored in exactly one byte: 0 is false, anything else true.
type Bool uint8

// Number is the set of Go types a Grid can be instantiated with.
type Number interface {
	~float64 | ~float32 | ~uint32 | ~int32 | ~uint16 | ~int16 | ~uint8 | ~int8
}

var (
	// ErrUnknownEncoding is returned by Parse for names outside the supported set.
	ErrUnknownEncoding = errors.New("unknown pixel encoding")
	// ErrBoolSize reports a platform where a boolean cell is not one byte wide.
	ErrBoolSize = errors.New("boolean cells are not 1 byte on this platform")
)

type encodingInfo struct {
	name string
	code string // raster package data type code
	size int
}

var encodings = [...]encodingInfo{
	Float64: {"float64", "FLT8S", 8},
	Float32: {"float32", "FLT4S", 4},
	Uint32:  {"uint32", "INT4U", 4},
	Int32:   {"int32", "INT4S", 4},
	Uint16:  {"uint16", "INT2U", 2},
	Int16:   {"int16", "INT2S", 2},
	Uint8:   {"uint8", "INT1U", 1},
	Int8:    {"int8", "INT1S", 1},
	Bool1:   {"bool1", "LOG1S", 1},
}

// Parse resolves an encoding from its Go-style name ("float32") or its
// raster data type code ("FLT4S"). Matching is case-insensitive.
func Parse(s string) (Encoding, error) {
	for e, info := range encodings {
		if strings.EqualFold(s, info.name) || strings.EqualFold(s, info.code) {
			return Encoding(e), nil
		}
	}
	switch strings.ToLower(s) {
	case "double":
		return Float64, nil
	case "float":
		return Float32, nil
	case "bool", "logical":
		return Bool1, nil
	}
	return 0, fmt.Errorf("%w: %q (supported: %s)", ErrUnknownEncoding, s, supported())
}

func supported() string {
	names := make([]string, len(encodings))
	for i, info := range encodings {
		names[i] = info.name
	}
	return strings.Join(names, ", ")
}

func (e Encoding) valid() bool { return e >= 0 && int(e) < len(encodings) }

func (e Encoding) String() string {
	if !e.valid() {
		return fmt.Sprintf("Encoding(%d)", int(e))
	}
	return encodings[e].name
}

// Code returns the raster data type code, e.g. "INT2S".
func (e Encoding) Code() string {
	if !e.valid() {
		return ""
	}
	return encodings[e].code
}

// Size returns the number of bytes one cell occupies.
func (e Encoding) Size() int {
	if !e.valid() {
		return 0
	}
	return encodings[e].size
}

// CheckPlatform verifies the assumptions the encoding relies on. Only Bool1
// has one: a Go bool and a Bool must both be exactly one byte.
func (e Encoding) CheckPlatform() error {
	if e != Bool1 {
		return nil
	}
	if unsafe.Sizeof(false) != 1 || unsafe.Sizeof(Bool(0)) != 1 {
		return ErrBoolSize
	}
	return nil
}

// Converter returns the function that turns a float64 sample into a cell of
// type T. Integer types round half away from zero and saturate at the type's
// limits; NaN becomes zero. Bool stores 1 for any non-zero, non-NaN value.
// The returned function is chosen once so hot loops avoid a type switch.
func Converter[T Number]() func(float64) T {
	var zero T
	var f any
	switch any(zero).(type) {
	case float64:
		f = func(v float64) float64 { return v }
	case float32:
		f = func(v float64) float32 { return float32(v) }
	case uint32:
		f = func(v float64) uint32 { return uint32(roundSaturate(v, 0, math.MaxUint32)) }
	case int32:
		f = func(v float64) int32 { return int32(roundSaturate(v, math.MinInt32, math.MaxInt32)) }
	case uint16:
		f = func(v float64) uint16 { return uint16(roundSaturate(v, 0, math.MaxUint16)) }
	case int16:
		f = func(v float64) int16 { return int16(roundSaturate(v, math.MinInt16, math.MaxInt16)) }
	case uint8:
		f = func(v float64) uint8 { return uint8(roundSaturate(v, 0, math.MaxUint8)) }
	case int8:
		f = func(v float64) int8 { return int8(roundSaturate(v, math.MinInt8, math.MaxInt8)) }
	case Bool:
		f = func(v float64) Bool {
			if v != 0 && !math.IsNaN(v) {
				return 1
			}
			return 0
		}
	}
	if conv, ok := f.(func(float64) T); ok {
		return conv
	}
	// Named types outside the closed set fall back to a plain conversion.
	return func(v float64) T { return T(v) }
}

func roundSaturate(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	v = math.Round(v)
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

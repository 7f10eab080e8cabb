//go:build unix

package mmfile

import (
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func writeFloats(t *testing.T, vals []float64) string {
	t.Helper()
	buf := make([]byte, 8*len(vals))
	for i, v := range vals {
		binary.NativeEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	path := filepath.Join(t.TempDir(), "grid.bin")
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestOpen_ReadOnlyView(t *testing.T) {
	path := writeFloats(t, []float64{1.5, -2, 3.25, 1e300})

	b, err := Open(path, ReadOnly)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer b.Close()

	if b.Len() != 32 {
		t.Errorf("Len() = %d, want 32", b.Len())
	}
	v := View[float64](b)
	if len(v) != 4 {
		t.Fatalf("len(View) = %d, want 4", len(v))
	}
	want := []float64{1.5, -2, 3.25, 1e300}
	for i := range want {
		if v[i] != want[i] {
			t.Errorf("View[%d] = %v, want %v", i, v[i], want[i])
		}
	}
	if err := b.Flush(); err != nil {
		t.Errorf("Flush on read-only mapping: %v", err)
	}
}

func TestOpen_ReadWriteFlush(t *testing.T) {
	path := writeFloats(t, make([]float64, 8))

	b, err := Open(path, ReadWrite)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	v := View[float64](b)
	for i := range v {
		v[i] = float64(i) * 0.5
	}
	if err := b.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if err := b.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 8; i++ {
		got := math.Float64frombits(binary.NativeEndian.Uint64(raw[i*8:]))
		if got != float64(i)*0.5 {
			t.Errorf("file element %d = %v, want %v", i, got, float64(i)*0.5)
		}
	}
}

func TestView_TrailingPartialElement(t *testing.T) {
	path := filepath.Join(t.TempDir(), "odd.bin")
	if err := os.WriteFile(path, make([]byte, 11), 0o644); err != nil {
		t.Fatal(err)
	}
	b, err := Open(path, ReadOnly)
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()

	if n := len(View[uint32](b)); n != 2 {
		t.Errorf("len(View[uint32]) = %d, want 2", n)
	}
	if n := len(View[int16](b)); n != 5 {
		t.Errorf("len(View[int16]) = %d, want 5", n)
	}
	if n := len(View[float64](b)); n != 1 {
		t.Errorf("len(View[float64]) = %d, want 1", n)
	}
}

func TestOpen_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.bin")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	b, err := Open(path, ReadWrite)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if v := View[float32](b); len(v) != 0 {
		t.Errorf("empty file view has %d elements", len(v))
	}
	if err := b.Flush(); err != nil {
		t.Errorf("Flush: %v", err)
	}
	if err := b.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestOpen_Errors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		path string
		mode Mode
	}{
		{"missing", filepath.Join(dir, "nope.bin"), ReadOnly},
		{"directory", dir, ReadOnly},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Open(tt.path, tt.mode)
			if !errors.Is(err, ErrMap) {
				t.Errorf("Open error = %v, want ErrMap", err)
			}
		})
	}
}

func TestOpen_ReadWriteOnReadOnlyFile(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root bypasses file permissions")
	}
	path := writeFloats(t, []float64{1})
	if err := os.Chmod(path, 0o444); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(path, ReadWrite); !errors.Is(err, ErrMap) {
		t.Errorf("Open read-write on 0444 file: error = %v, want ErrMap", err)
	}
}

func TestCloseTwice(t *testing.T) {
	path := writeFloats(t, []float64{1, 2})
	b, err := Open(path, ReadOnly)
	if err != nil {
		t.Fatal(err)
	}
	if err := b.Close(); err != nil {
		t.Fatal(err)
	}
	if err := b.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

func TestAdvise(t *testing.T) {
	path := writeFloats(t, make([]float64, 1024))
	b, err := Open(path, ReadOnly)
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()
	for _, a := range []Advice{AdviseSequential, AdviseRandom, AdviseNormal} {
		if err := b.Advise(a); err != nil {
			t.Errorf("Advise(%d): %v", a, err)
		}
	}
}

func TestOutOfCore(t *testing.T) {
	path := writeFloats(t, make([]float64, 16))
	b, err := Open(path, ReadOnly)
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()

	over, total := OutOfCore(DefaultMemoryFraction, b, nil)
	if total != 128 {
		t.Errorf("total = %d, want 128", total)
	}
	if over {
		t.Error("128 bytes should never exceed the memory budget")
	}
	if _, err := MemoryBudget(0); err == nil {
		t.Error("MemoryBudget(0) should fail")
	}
}

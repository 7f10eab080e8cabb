// Package mmfile maps raster files into memory and exposes them as typed
// slices. A Buffer owns its mapping; Grids built over View results do not.
package mmfile

import (
	"errors"
	"fmt"
	"math"
	"os"
	"unsafe"
)

// Mode selects the access the mapping is created with.
type Mode int

const (
	ReadOnly Mode = iota
	ReadWrite
)

func (m Mode) String() string {
	if m == ReadWrite {
		return "read-write"
	}
	return "read-only"
}

// Advice is an access-pattern hint passed to the kernel.
type Advice int

const (
	AdviseNormal Advice = iota
	AdviseSequential
	AdviseRandom
)

// ErrMap classifies every failure to open or map a file.
var ErrMap = errors.New("cannot map file")

// Buffer is a memory-mapped file.
type Buffer struct {
	path string
	mode Mode
	data []byte
}

// Open maps the whole file at path. The file descriptor is closed once the
// mapping exists; the mapping stays valid until Close.
func Open(path string, mode Mode) (*Buffer, error) {
	flag := os.O_RDONLY
	if mode == ReadWrite {
		flag = os.O_RDWR
	}
	f, err := os.OpenFile(path, flag, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %w", ErrMap, path, err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: stat %s: %w", ErrMap, path, err)
	}
	if fi.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrMap, path)
	}
	size := fi.Size()
	if size > math.MaxInt {
		return nil, fmt.Errorf("%w: %s is too large to map (%d bytes)", ErrMap, path, size)
	}

	b := &Buffer{path: path, mode: mode}
	if size == 0 {
		// mmap rejects zero-length mappings; an empty view is still valid.
		return b, nil
	}

	b.data, err = mmapFile(f.Fd(), int(size), mode)
	if err != nil {
		return nil, fmt.Errorf("%w: mmap %s (%s): %w", ErrMap, path, mode, err)
	}
	return b, nil
}

func (b *Buffer) Path() string { return b.path }
func (b *Buffer) Mode() Mode { return b.mode }

// Len returns the mapped size in bytes.
func (b *Buffer) Len() int { return len(b.data) }

// Bytes returns the mapped region. It must not be used after Close.
func (b *Buffer) Bytes() []byte { return b.data }

// Advise passes an access-pattern hint for the mapping to the kernel.
// Errors are returned but callers may ignore them; the hint is optional.
func (b *Buffer) Advise(a Advice) error {
	if len(b.data) == 0 {
		return nil
	}
	return adviseFile(b.data, a)
}

// Flush writes dirty pages of a read-write mapping to disk and waits for
// completion. It is a no-op for read-only mappings.
func (b *Buffer) Flush() error {
	if b.mode != ReadWrite || len(b.data) == 0 {
		return nil
	}
	if err := msyncFile(b.data); err != nil {
		return fmt.Errorf("msync %s: %w", b.path, err)
	}
	return nil
}

// Close releases the mapping. Pending writes of a shared mapping still reach
// the file through the page cache; call Flush first for durability.
func (b *Buffer) Close() error {
	if b.data == nil {
		return nil
	}
	err := munmapFile(b.data)
	b.data = nil
	if err != nil {
		return fmt.Errorf("munmap %s: %w", b.path, err)
	}
	return nil
}

// View reinterprets the mapping as a slice of T. Its length is the mapped
// size divided by the size of T; a trailing partial element is not visible.
// The slice aliases the mapping and is invalid after Close.
func View[T any](b *Buffer) []T {
	var zero T
	size := int(unsafe.Sizeof(zero))
	if size == 0 || len(b.data) < size {
		return nil
	}
	return unsafe.Slice((*T)(unsafe.Pointer(&b.data[0])), len(b.data)/size)
}

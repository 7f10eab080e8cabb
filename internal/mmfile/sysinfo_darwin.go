//go:build darwin

package mmfile

import "golang.org/x/sys/unix"

// TotalSystemRAM returns the total physical RAM in bytes on macOS.
func TotalSystemRAM() (uint64, error) {
	return unix.SysctlUint64("hw.memsize")
}

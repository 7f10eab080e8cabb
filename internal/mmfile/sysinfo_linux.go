//go:build linux

package mmfile

import "golang.org/x/sys/unix"

// TotalSystemRAM returns the total physical RAM in bytes on Linux.
func TotalSystemRAM() (uint64, error) {
	var info unix.Sysinfo_t
	if err := unix.Sysinfo(&info); err != nil {
		return 0, err
	}
	return uint64(info.Totalram) * uint64(info.Unit), nil
}

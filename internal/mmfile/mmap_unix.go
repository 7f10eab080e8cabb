//go:build unix

package mmfile

import "golang.org/x/sys/unix"

// mmapFile maps size bytes of fd. Read-write mappings are shared so that
// stores reach the file; the fd can be closed after mapping.
func mmapFile(fd uintptr, size int, mode Mode) ([]byte, error) {
	prot := unix.PROT_READ
	if mode == ReadWrite {
		prot |= unix.PROT_WRITE
	}
	return unix.Mmap(int(fd), 0, size, prot, unix.MAP_SHARED)
}

// munmapFile releases a memory mapping created by mmapFile.
func munmapFile(data []byte) error {
	return unix.Munmap(data)
}

// msyncFile synchronously writes modified pages back to the file.
func msyncFile(data []byte) error {
	return unix.Msync(data, unix.MS_SYNC)
}

func adviseFile(data []byte, a Advice) error {
	advice := unix.MADV_NORMAL
	switch a {
	case AdviseSequential:
		advice = unix.MADV_SEQUENTIAL
	case AdviseRandom:
		advice = unix.MADV_RANDOM
	}
	return unix.Madvise(data, advice)
}

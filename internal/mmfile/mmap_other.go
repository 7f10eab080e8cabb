//go:build !unix

package mmfile

import "fmt"

// mmapFile is not supported on non-Unix platforms.
func mmapFile(fd uintptr, size int, mode Mode) ([]byte, error) {
	return nil, fmt.Errorf("memory mapping is not supported on this platform")
}

// munmapFile is a no-op on non-Unix platforms.
func munmapFile(data []byte) error {
	return nil
}

func msyncFile(data []byte) error {
	return nil
}

func adviseFile(data []byte, a Advice) error {
	return nil
}

//go:build unix

package validate

import "syscall"

const bytesPerMB = 1024 * 1024

// freeSpaceMB returns the free space at path in megabytes
func freeSpaceMB(path string) (uint64, error) {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(path, &stat); err != nil {
		return 0, err
	}
	return stat.Bavail * uint64(stat.Bsize) / bytesPerMB, nil
}

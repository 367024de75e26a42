//go:build !unix

package validate

import "errors"

var errDiskQueryUnsupported = errors.New("disk space query not supported on this platform")

// freeSpaceMB is unavailable here; CheckDiskSpace fails open on the error
func freeSpaceMB(string) (uint64, error) {
	return 0, errDiskQueryUnsupported
}

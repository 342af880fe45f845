//go:build !windows

package execproc

import (
	"errors"
	"syscall"
)

// ETXTBSY is what exec returns while the binary is still open for writing,
// e.g. by a scanner or an unfinished download.
func isLocked(err error) bool {
	return errors.Is(err, syscall.ETXTBSY) || errors.Is(err, syscall.EBUSY)
}

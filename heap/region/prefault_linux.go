//go:build linux

package region

import (
	"fmt"
	"runtime/debug"

	"golang.org/x/sys/unix"
)

// madvPopulateWrite is MADV_POPULATE_WRITE (Linux 5.14+). It allocates the
// backing blocks and reports EFAULT instead of raising SIGBUS.
const madvPopulateWrite = 23

const pageSize = 4096

// prefault faults in every page of data for writing.
func prefault(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	err := unix.Madvise(data, madvPopulateWrite)
	if err == nil {
		return nil
	}
	if err != unix.EINVAL && err != unix.ENOSYS {
		return fmt.Errorf("madvise populate: %w", err)
	}
	return manualPrefault(data)
}

// manualPrefault writes one zero byte per page. New file pages are already
// zero, so the write only forces block allocation.
func manualPrefault(data []byte) (retErr error) {
	old := debug.SetPanicOnFault(true)
	defer debug.SetPanicOnFault(old)
	defer func() {
		if r := recover(); r != nil {
			retErr = fmt.Errorf("fault during prefault: %v", r)
		}
	}()

	for i := 0; i < len(data); i += pageSize {
		data[i] = 0
	}
	data[len(data)-1] = 0
	return nil
}

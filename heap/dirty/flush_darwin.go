//go:build darwin

package dirty

import (
	"context"
	"os"

	"golang.org/x/sys/unix"
)

// flushRanges syncs the whole mapping. On macOS msync must be given the
// original mmap address; the kernel only writes pages that are dirty.
func flushRanges(ctx context.Context, data []byte, _ *os.File, _ []Range) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return unix.Msync(data, unix.MS_SYNC)
}

// syncFile uses F_FULLFSYNC when full is set, fsync otherwise. macOS has
// no fdatasync.
func syncFile(f *os.File, full bool) error {
	if full {
		_, err := unix.FcntlInt(f.Fd(), unix.F_FULLFSYNC, 0)
		return err
	}
	return unix.Fsync(int(f.Fd()))
}

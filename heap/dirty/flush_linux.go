//go:build linux

package dirty

import (
	"context"
	"os"

	"golang.org/x/sys/unix"
)

// flushRanges msyncs each range. Linux accepts any page-aligned sub-slice
// of the mapping.
func flushRanges(ctx context.Context, data []byte, _ *os.File, ranges []Range) error {
	for _, r := range ranges {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := unix.Msync(data[r.Off:r.End()], unix.MS_SYNC); err != nil {
			return err
		}
	}
	return nil
}

// syncFile uses fdatasync. full is ignored on Linux.
func syncFile(f *os.File, _ bool) error {
	return unix.Fdatasync(int(f.Fd()))
}

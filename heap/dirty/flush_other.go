//go:build !linux && !darwin

package dirty

import (
	"context"
	"os"
)

// flushRanges writes each range of the in-memory region to the file.
func flushRanges(ctx context.Context, data []byte, f *os.File, ranges []Range) error {
	for _, r := range ranges {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := f.WriteAt(data[r.Off:r.End()], r.Off); err != nil {
			return err
		}
	}
	return nil
}

func syncFile(f *os.File, _ bool) error {
	return f.Sync()
}

// Package region provides the region extenders a heap allocator grows into.
//
// An extender owns one contiguous byte range that only ever grows at its
// top, the way sbrk grows a process break. The allocator addresses the
// range by offset, so an implementation is free to move the bytes (for
// example by remapping a file) as long as offsets stay stable.
//
// Two implementations are provided:
//
//   - Memory: an in-process byte slice with a hard size limit.
//   - Mapped: a file mapped read-write with mmap, grown by ftruncate and
//     remap, so a heap survives process restarts.
//
// Extenders are not safe for concurrent use.
package region

import (
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Extender grows a managed region on request.
type Extender interface {
	// Grow appends n bytes to the region and returns the offset of the first
	// new byte (the old region length). On failure the region is unchanged.
	Grow(n int) (int, error)

	// Bytes returns the whole region. The slice is invalidated by Grow.
	Bytes() []byte
}

var (
	// ErrExhausted indicates the region cannot grow by the requested amount.
	ErrExhausted = errors.New("region: exhausted")

	// ErrClosed indicates an operation on a closed region.
	ErrClosed = errors.New("region: closed")

	// ErrNegative indicates a negative growth request.
	ErrNegative = errors.New("region: negative grow request")
)

// DefaultMemoryLimit is the limit used by NewMemory when none is given (20 MiB).
const DefaultMemoryLimit = 20 << 20

// discardLogger is used when no logger is configured.
func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// MappedOptions configures a file-backed region.
type MappedOptions struct {
	// MaxSize caps the file size. Zero means unlimited.
	MaxSize int64

	// Prefault touches every newly mapped page during Grow so that a full
	// file system is reported as a Grow error instead of a SIGBUS on first
	// write. Only effective on Linux.
	Prefault bool

	// Logger receives map/remap events at debug level. Nil discards them.
	Logger logrus.FieldLogger

	// Perm is the permission used when creating the file. Default 0o600.
	Perm os.FileMode
}

func (o *MappedOptions) withDefaults() MappedOptions {
	var out MappedOptions
	if o != nil {
		out = *o
	}
	if out.Logger == nil {
		out.Logger = discardLogger()
	}
	if out.Perm == 0 {
		out.Perm = 0o600
	}
	return out
}

// checkGrow validates a growth request against a limit (0 = unlimited).
func checkGrow(cur, n, limit int64) error {
	if n < 0 {
		return errors.Wrapf(ErrNegative, "grow by %d", n)
	}
	if limit > 0 && n > limit-cur {
		return errors.Wrapf(ErrExhausted, "grow by %d at %d exceeds limit %d", n, cur, limit)
	}
	if int64(int(cur+n)) != cur+n {
		return errors.Wrapf(ErrExhausted, "grow by %d at %d overflows int", n, cur)
	}
	return nil
}

// exhausted reports a failed OS-level grow. Both ErrExhausted and the OS
// error stay matchable with errors.Is.
func exhausted(cause error, msg string, args ...interface{}) error {
	return fmt.Errorf("%w: %s: %w", ErrExhausted, fmt.Sprintf(msg, args...), cause)
}

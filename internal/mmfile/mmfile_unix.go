//go:build unix

package mmfile

import (
	"math"
	"os"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// Map maps the file at path read-only and returns its contents with a
// release function. The mapping stays valid after the file is closed.
func Map(path string) ([]byte, func() error, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "mmfile: open %s", path)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, nil, errors.Wrapf(err, "mmfile: stat %s", path)
	}
	size := info.Size()
	if size == 0 {
		return []byte{}, noop, nil
	}
	if size > math.MaxInt {
		return nil, nil, errors.Errorf("mmfile: %s too large to map (%d bytes)", path, size)
	}
	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "mmfile: mmap %s", path)
	}
	release := func() error {
		if data == nil {
			return nil
		}
		err := unix.Munmap(data)
		data = nil
		return errors.Wrap(err, "mmfile: munmap")
	}
	return data, release, nil
}

func noop() error { return nil }

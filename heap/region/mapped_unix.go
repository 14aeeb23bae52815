//go:build linux || darwin

package region

import (
	"os"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// Mapped is a file-backed region mapped MAP_SHARED read-write.
type Mapped struct {
	f    *os.File
	data []byte
	size int64
	opts MappedOptions
	log  logrus.FieldLogger
}

// CreateMapped creates (or truncates) path and returns an empty region over it.
func CreateMapped(path string, opts *MappedOptions) (*Mapped, error) {
	o := opts.withDefaults()
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, o.Perm)
	if err != nil {
		return nil, errors.Wrapf(err, "region: create %s", path)
	}
	m := &Mapped{f: f, opts: o, log: o.Logger.WithField("path", path)}
	m.log.Debug("created empty mapped region")
	return m, nil
}

// OpenMapped maps an existing file at its current size.
func OpenMapped(path string, opts *MappedOptions) (*Mapped, error) {
	o := opts.withDefaults()
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, errors.Wrapf(err, "region: open %s", path)
	}
	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, errors.Wrapf(err, "region: stat %s", path)
	}
	if o.MaxSize > 0 && st.Size() > o.MaxSize {
		_ = f.Close()
		return nil, errors.Wrapf(ErrExhausted, "region: %s is %d bytes, limit %d", path, st.Size(), o.MaxSize)
	}

	m := &Mapped{f: f, size: st.Size(), opts: o, log: o.Logger.WithField("path", path)}
	if m.size > 0 {
		data, err := m.mmap(m.size)
		if err != nil {
			_ = f.Close()
			return nil, errors.Wrapf(err, "region: mmap %s", path)
		}
		m.data = data
	}
	m.log.WithField("size", humanize.IBytes(uint64(m.size))).Debug("mapped region")
	return m, nil
}

func (m *Mapped) mmap(size int64) ([]byte, error) {
	return unix.Mmap(int(m.f.Fd()), 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
}

// Grow extends the file by n zero bytes and maps it at the new size. The
// new mapping is built before the old one is released, so on failure the
// file is truncated back and Bytes still returns the old mapping. After a
// successful grow the previous slice returned by Bytes must not be used.
func (m *Mapped) Grow(n int) (int, error) {
	if m.f == nil {
		return 0, ErrClosed
	}
	old := m.size
	if err := checkGrow(old, int64(n), m.opts.MaxSize); err != nil {
		return 0, err
	}
	if n == 0 {
		return int(old), nil
	}
	newSize := old + int64(n)

	if err := m.f.Truncate(newSize); err != nil {
		m.shrinkBack(old)
		return 0, exhausted(err, "truncate to %d", newSize)
	}

	data, err := m.mmap(newSize)
	if err != nil {
		m.shrinkBack(old)
		return 0, exhausted(err, "map %d bytes", newSize)
	}

	if m.opts.Prefault {
		if err := prefault(data[old:]); err != nil {
			_ = unix.Munmap(data)
			m.shrinkBack(old)
			return 0, exhausted(err, "prefault %d bytes", n)
		}
	}

	if m.data != nil {
		if err := unix.Munmap(m.data); err != nil {
			m.log.WithError(err).Warn("failed to unmap previous mapping after grow")
		}
	}
	m.data = data
	m.size = newSize
	m.log.WithFields(logrus.Fields{
		"grow": humanize.IBytes(uint64(n)),
		"size": humanize.IBytes(uint64(newSize)),
	}).Debug("remapped region")
	return int(old), nil
}

// shrinkBack returns the file to size after a failed grow. The current
// mapping never extends past size, so it stays valid.
func (m *Mapped) shrinkBack(size int64) {
	if err := m.f.Truncate(size); err != nil {
		m.log.WithError(err).WithField("size", size).Error("failed to truncate file back after grow failure")
	}
}

// Bytes returns the mapped contents.
func (m *Mapped) Bytes() []byte { return m.data }

// File returns the backing file, or nil after Close.
func (m *Mapped) File() *os.File { return m.f }

// Size returns the current file size.
func (m *Mapped) Size() int64 { return m.size }

// Close unmaps the region and closes the file. Data is not synced; use a
// dirty tracker flush first if durability matters.
func (m *Mapped) Close() error {
	var err error
	if m.data != nil {
		if uerr := unix.Munmap(m.data); uerr != nil {
			err = errors.Wrap(uerr, "region: unmap")
		}
		m.data = nil
	}
	if m.f != nil {
		if cerr := m.f.Close(); cerr != nil && err == nil {
			err = errors.Wrap(cerr, "region: close")
		}
		m.f = nil
	}
	return err
}

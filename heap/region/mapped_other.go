//go:build !linux && !darwin

package region

import (
	"io"
	"os"
	"slices"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Mapped is a file-backed region. Without mmap support the contents are held
// in memory and written back by a dirty tracker flush.
type Mapped struct {
	f    *os.File
	data []byte
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
	return &Mapped{f: f, opts: o, log: o.Logger.WithField("path", path)}, nil
}

// OpenMapped loads an existing file into memory.
func OpenMapped(path string, opts *MappedOptions) (*Mapped, error) {
	o := opts.withDefaults()
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, errors.Wrapf(err, "region: open %s", path)
	}
	data, err := io.ReadAll(f)
	if err != nil {
		_ = f.Close()
		return nil, errors.Wrapf(err, "region: read %s", path)
	}
	if o.MaxSize > 0 && int64(len(data)) > o.MaxSize {
		_ = f.Close()
		return nil, errors.Wrapf(ErrExhausted, "region: %s is %d bytes, limit %d", path, len(data), o.MaxSize)
	}
	m := &Mapped{f: f, data: data, opts: o, log: o.Logger.WithField("path", path)}
	m.log.WithField("size", humanize.IBytes(uint64(len(data)))).Debug("loaded region")
	return m, nil
}

// Grow extends the file and the in-memory copy by n zero bytes.
func (m *Mapped) Grow(n int) (int, error) {
	if m.f == nil {
		return 0, ErrClosed
	}
	old := len(m.data)
	if err := checkGrow(int64(old), int64(n), m.opts.MaxSize); err != nil {
		return 0, err
	}
	if n == 0 {
		return old, nil
	}
	if err := m.f.Truncate(int64(old + n)); err != nil {
		return 0, exhausted(err, "truncate to %d", old+n)
	}
	m.data = slices.Grow(m.data, n)[:old+n]
	clear(m.data[old:])
	return old, nil
}

// Bytes returns the region contents.
func (m *Mapped) Bytes() []byte { return m.data }

// File returns the backing file, or nil after Close.
func (m *Mapped) File() *os.File { return m.f }

// Size returns the current region size.
func (m *Mapped) Size() int64 { return int64(len(m.data)) }

// Close closes the file. Unflushed changes are lost.
func (m *Mapped) Close() error {
	m.data = nil
	if m.f == nil {
		return nil
	}
	err := m.f.Close()
	m.f = nil
	return errors.Wrap(err, "region: close")
}

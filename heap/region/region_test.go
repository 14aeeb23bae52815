package region

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ Extender = (*Memory)(nil)
	_ Extender = (*Mapped)(nil)
)

func TestMemory_GrowReturnsOldBreak(t *testing.T) {
	m := NewMemory(128)

	off, err := m.Grow(64)
	require.NoError(t, err)
	assert.Equal(t, 0, off)

	off, err = m.Grow(32)
	require.NoError(t, err)
	assert.Equal(t, 64, off)
	assert.Equal(t, 96, m.Len())
	assert.Equal(t, 2, m.Grows())
}

func TestMemory_NewBytesAreZero(t *testing.T) {
	m := NewMemory(0)
	assert.Equal(t, DefaultMemoryLimit, m.Limit())

	_, err := m.Grow(16)
	require.NoError(t, err)
	for i := range m.Bytes() {
		m.Bytes()[i] = 0xFF
	}
	m.Reset()

	_, err = m.Grow(32)
	require.NoError(t, err)
	for i, b := range m.Bytes() {
		require.Zerof(t, b, "byte %d not zeroed after reset", i)
	}
}

func TestMemory_Exhausted(t *testing.T) {
	m := NewMemory(64)
	_, err := m.Grow(64)
	require.NoError(t, err)

	_, err = m.Grow(1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrExhausted))
	assert.Equal(t, 64, m.Len(), "failed grow must leave region unchanged")

	_, err = m.Grow(-8)
	assert.True(t, errors.Is(err, ErrNegative))
}

func TestMemory_ZeroGrow(t *testing.T) {
	m := NewMemory(16)
	off, err := m.Grow(0)
	require.NoError(t, err)
	assert.Equal(t, 0, off)
	assert.Equal(t, 0, m.Grows())
}

func TestMapped_GrowPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "heap.bin")

	m, err := CreateMapped(path, &MappedOptions{Prefault: true})
	require.NoError(t, err)
	assert.Empty(t, m.Bytes())

	off, err := m.Grow(4096)
	require.NoError(t, err)
	assert.Equal(t, 0, off)
	copy(m.Bytes()[100:], "persist me")

	off, err = m.Grow(8192)
	require.NoError(t, err)
	assert.Equal(t, 4096, off)
	assert.Equal(t, "persist me", string(m.Bytes()[100:110]), "remap must keep contents")

	// Write through the file on platforms without mmap so reopen sees it.
	_, err = m.File().WriteAt(m.Bytes(), 0)
	require.NoError(t, err)
	require.NoError(t, m.Close())
	assert.Nil(t, m.File())

	st, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(12288), st.Size())

	r, err := OpenMapped(path, nil)
	require.NoError(t, err)
	defer r.Close()
	assert.Equal(t, int64(12288), r.Size())
	assert.Equal(t, "persist me", string(r.Bytes()[100:110]))
}

func TestMapped_MaxSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "heap.bin")
	m, err := CreateMapped(path, &MappedOptions{MaxSize: 4096})
	require.NoError(t, err)
	defer m.Close()

	_, err = m.Grow(4096)
	require.NoError(t, err)
	_, err = m.Grow(8)
	assert.True(t, errors.Is(err, ErrExhausted))
	assert.Equal(t, int64(4096), m.Size())

	_, err = OpenMapped(path, &MappedOptions{MaxSize: 1024})
	assert.True(t, errors.Is(err, ErrExhausted))
}

func TestMapped_Closed(t *testing.T) {
	m, err := CreateMapped(filepath.Join(t.TempDir(), "heap.bin"), nil)
	require.NoError(t, err)
	require.NoError(t, m.Close())
	require.NoError(t, m.Close())

	_, err = m.Grow(8)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestOpenMapped_Missing(t *testing.T) {
	_, err := OpenMapped(filepath.Join(t.TempDir(), "nope"), nil)
	require.Error(t, err)
	assert.True(t, os.IsNotExist(errors.Cause(err)))
}

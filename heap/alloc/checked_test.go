package alloc

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCheckedAllocator(t *testing.T) (*Allocator, Ptr) {
	t.Helper()
	cfg := ConfigSegregated
	cfg.Checked = true
	a, _ := newTestAllocator(t, &cfg, 0)
	p := mustMalloc(t, a, 100)
	mustMalloc(t, a, 8) // keeps p from merging with the tail
	return a, p
}

func TestChecked_DoubleFree(t *testing.T) {
	a, p := newCheckedAllocator(t)
	require.NoError(t, a.Free(p))
	before := bytes.Clone(a.data)

	err := a.Free(p)
	require.ErrorIs(t, err, ErrNotAllocated)
	assert.Equal(t, before, a.data, "rejected free must not touch the heap")
	assert.Equal(t, 1, a.Stats().Rejected)
	assertInvariants(t, a)
}

func TestChecked_BadHandles(t *testing.T) {
	a, p := newCheckedAllocator(t)

	for name, bad := range map[string]Ptr{
		"misaligned":        p + 4,
		"inside prologue":   Ptr(8),
		"past heap":         Ptr(1 << 20),
		"interior payload":  p + 16,
		"epilogue position": Ptr(a.HeapSize()),
	} {
		t.Run(name, func(t *testing.T) {
			require.ErrorIs(t, a.Free(bad), ErrBadRef)

			_, err := a.Realloc(bad, 10)
			require.ErrorIs(t, err, ErrBadRef)

			_, err = a.Bytes(bad)
			require.ErrorIs(t, err, ErrBadRef)

			require.ErrorIs(t, a.Touch(bad), ErrBadRef)
			assertInvariants(t, a)
		})
	}
}

func TestChecked_HeaderFooterMismatch(t *testing.T) {
	a, p := newCheckedAllocator(t)
	// Corrupt the footer of p.
	ftr := a.ftr(int(p))
	a.data[ftr] ^= 0x10

	require.ErrorIs(t, a.Free(p), ErrBadRef)
}

func TestChecked_ValidHandlesPass(t *testing.T) {
	a, p := newCheckedAllocator(t)

	b, err := a.Bytes(p)
	require.NoError(t, err)
	assert.Len(t, b, 104)
	require.NoError(t, a.Touch(p))

	np, err := a.Realloc(p, 200)
	require.NoError(t, err)
	require.NoError(t, a.Free(np))
	assert.Zero(t, a.Stats().Rejected)
	assertInvariants(t, a)
}

func TestUnchecked_NilIsAlwaysAccepted(t *testing.T) {
	a, _ := newTestAllocator(t, nil, 0)
	b, err := a.Bytes(Nil)
	require.NoError(t, err)
	assert.Nil(t, b)
	require.NoError(t, a.Touch(Nil))
	assert.Zero(t, a.PayloadSize(Nil))
}

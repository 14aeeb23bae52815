package alloc

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStats_Counters(t *testing.T) {
	a, _ := newTestAllocator(t, nil, 0)
	p := mustMalloc(t, a, 100)
	mustMalloc(t, a, 8)
	require.NoError(t, a.Free(p))
	mustMalloc(t, a, 50)

	s := a.Stats()
	assert.Equal(t, 3, s.MallocCalls)
	assert.Equal(t, 1, s.FreeCalls)
	assert.Equal(t, 1, s.FastPath)
	assert.Equal(t, 2, s.SlowPath)
	assert.Equal(t, 2, s.Extensions)
	assert.Equal(t, int64(128), s.ExtendedBytes)
	assert.Equal(t, 1, s.Splits)
	assert.Positive(t, s.FitInspected)

	a.ResetStats()
	assert.Equal(t, Stats{}, a.Stats())
}

func TestStats_ReallocMoveIsNotAMalloc(t *testing.T) {
	a, _ := newTestAllocator(t, nil, 0)
	p := mustMalloc(t, a, 16)
	mustMalloc(t, a, 16)
	a.ResetStats()

	np, err := a.Realloc(p, 200)
	require.NoError(t, err)
	require.NotEqual(t, p, np)

	s := a.Stats()
	assert.Equal(t, 1, s.ReallocCalls)
	assert.Equal(t, 1, s.ReallocCopied)
	assert.Zero(t, s.MallocCalls)
	assert.Zero(t, s.FastPath)
	assert.Zero(t, s.SlowPath)
	assert.Equal(t, 1, s.Extensions)
	assert.Zero(t, s.FreeCalls)
}

func TestReport(t *testing.T) {
	a, _ := newTestAllocator(t, nil, 0)
	var ptrs []Ptr
	for i := 0; i < 1200; i++ {
		ptrs = append(ptrs, mustMalloc(t, a, 24))
	}
	for i := 0; i < len(ptrs); i += 2 {
		require.NoError(t, a.Free(ptrs[i]))
	}

	var buf bytes.Buffer
	require.NoError(t, a.Report(&buf))
	out := buf.String()

	assert.Contains(t, out, "=== heap (segregated policy) ===")
	assert.Contains(t, out, "Malloc calls:     1,200 (fast: 0, slow: 1,200)")
	assert.Contains(t, out, "Free calls:       600")
	assert.Contains(t, out, "Heap size:        38 KiB (38,464 bytes)")
	assert.Contains(t, out, "class  1 (<= 32 B): 600")
	assert.NotContains(t, out, "Rejected refs")
}

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) { return 0, assert.AnError }

func TestReport_WriteError(t *testing.T) {
	a, _ := newTestAllocator(t, nil, 0)
	require.ErrorIs(t, a.Report(failWriter{}), assert.AnError)
}

package region

import "slices"

// Memory is an in-process region backed by a byte slice. It models the
// classic simulated heap: a fixed maximum, bytes handed out in order, never
// returned.
type Memory struct {
	data  []byte
	limit int
	grows int
}

// NewMemory creates an empty region that refuses to grow past limit bytes.
// A limit <= 0 selects DefaultMemoryLimit.
func NewMemory(limit int) *Memory {
	if limit <= 0 {
		limit = DefaultMemoryLimit
	}
	return &Memory{limit: limit}
}

// Grow appends n zeroed bytes and returns the old length.
func (m *Memory) Grow(n int) (int, error) {
	old := len(m.data)
	if err := checkGrow(int64(old), int64(n), int64(m.limit)); err != nil {
		return 0, err
	}
	if n == 0 {
		return old, nil
	}
	m.data = slices.Grow(m.data, n)[:old+n]
	clear(m.data[old:])
	m.grows++
	return old, nil
}

// Bytes returns the region contents.
func (m *Memory) Bytes() []byte { return m.data }

// Len returns the current region size.
func (m *Memory) Len() int { return len(m.data) }

// Limit returns the configured maximum size.
func (m *Memory) Limit() int { return m.limit }

// Grows returns how many non-empty Grow calls succeeded.
func (m *Memory) Grows() int { return m.grows }

// Reset empties the region so it can back a fresh heap.
func (m *Memory) Reset() {
	clear(m.data)
	m.data = m.data[:0]
	m.grows = 0
}

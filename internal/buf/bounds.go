// Package buf contains overflow-safe offset arithmetic for reading words out
// of a heap region that may have been corrupted by its caller.
package buf

import (
	"encoding/binary"
	"math"
)

// AddOverflowSafe adds a and b, returning ok = false when the result would overflow int.
func AddOverflowSafe(a, b int) (int, bool) {
	switch {
	case b > 0 && a > math.MaxInt-b:
		return 0, false
	case b < 0 && a < math.MinInt-b:
		return 0, false
	default:
		return a + b, true
	}
}

// Slice returns the sub-slice [off:off+n] if it fits within len(b).
func Slice(b []byte, off, n int) ([]byte, bool) {
	if off < 0 || n < 0 || off > len(b) {
		return nil, false
	}
	end, ok := AddOverflowSafe(off, n)
	if !ok || end > len(b) {
		return nil, false
	}
	return b[off:end], true
}

// Has reports whether b[off:off+n] is within bounds.
func Has(b []byte, off, n int) bool {
	_, ok := Slice(b, off, n)
	return ok
}

// Within reports whether [off, off+n) lies inside [lo, hi).
func Within(off, n, lo, hi int) bool {
	if off < lo || n < 0 {
		return false
	}
	end, ok := AddOverflowSafe(off, n)
	return ok && end <= hi
}

// U32At reads a little-endian word at off, reporting false instead of
// panicking when the word is out of range.
func U32At(b []byte, off int) (uint32, bool) {
	w, ok := Slice(b, off, 4)
	if !ok {
		return 0, false
	}
	return binary.LittleEndian.Uint32(w), true
}

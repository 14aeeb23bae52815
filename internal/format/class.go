package format

// ClassOf maps a block size to its size class. Class i holds blocks up to
// MinClassSize<<i bytes; the last class absorbs everything larger.
//
// Insertion, removal, fit search and verification must all use this one
// function, otherwise a block can be filed under a class nobody searches.
//
// Example (limit 12):
//
//	ClassOf(16, 12)    = 0
//	ClassOf(24, 12)    = 1
//	ClassOf(112, 12)   = 3
//	ClassOf(32768, 12) = 11
//	ClassOf(1<<20, 12) = 11
func ClassOf(size, limit int) int {
	ceiling := MinClassSize
	for i := 0; i < limit; i++ {
		if size <= ceiling {
			return i
		}
		ceiling <<= 1
	}
	return limit - 1
}

// ClassCeiling returns the largest size filed under class i on a ladder with
// the given limit. The last class is unbounded and reports -1.
func ClassCeiling(i, limit int) int {
	if i >= limit-1 {
		return -1
	}
	return MinClassSize << i
}

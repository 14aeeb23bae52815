package format

// Align8 returns n aligned up to the next 8-byte boundary.
// Used for block sizes and extension requests.
//
// Example:
//
//	Align8(1)  = 8
//	Align8(8)  = 8
//	Align8(9)  = 16
//	Align8(16) = 16
func Align8(n int) int {
	return (n + AlignmentMask) & ^AlignmentMask
}

// IsAligned8 reports whether n is a multiple of DoubleWord.
func IsAligned8(n int) bool {
	return n&AlignmentMask == 0
}

// AdjustedSize converts a payload request into a block size: small requests
// get MinBlockSize, everything else gets the tag overhead added and is
// rounded up to DoubleWord.
//
// Example:
//
//	AdjustedSize(1)   = 16
//	AdjustedSize(8)   = 16
//	AdjustedSize(9)   = 24
//	AdjustedSize(100) = 112
func AdjustedSize(n int) int {
	if n <= MinPayload {
		return MinBlockSize
	}
	return Align8(n + TagOverhead)
}

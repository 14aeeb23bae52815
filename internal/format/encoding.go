package format

import "encoding/binary"

// Binary encoding utilities for the little-endian words of a heap region.
//
// Implementation: Uses encoding/binary.LittleEndian. The compiler inlines
// these calls; unsafe pointer casts gave no measurable benefit.

// PutU32 writes a uint32 value to the buffer at the specified offset in little-endian format.
func PutU32(b []byte, off int, v uint32) {
	binary.LittleEndian.PutUint32(b[off:off+4], v)
}

// ReadU32 reads a uint32 value from the buffer at the specified offset in little-endian format.
func ReadU32(b []byte, off int) uint32 {
	return binary.LittleEndian.Uint32(b[off : off+4])
}

// Pack combines a block size and allocation flag into a boundary tag.
// size must already be DoubleWord aligned.
func Pack(size uint32, allocated bool) uint32 {
	if allocated {
		return size | allocatedBit
	}
	return size
}

// TagSize extracts the block size from a boundary tag.
func TagSize(tag uint32) uint32 {
	return tag & sizeMask
}

// TagAllocated reports whether a boundary tag has the allocated flag set.
func TagAllocated(tag uint32) bool {
	return tag&allocatedBit != 0
}

// TagReserved returns the reserved flag bits, which must be zero.
func TagReserved(tag uint32) uint32 {
	return tag & (AlignmentMask &^ allocatedBit)
}

// ReadTag reads the boundary tag at off and splits it.
func ReadTag(b []byte, off int) (size uint32, allocated bool) {
	tag := ReadU32(b, off)
	return TagSize(tag), TagAllocated(tag)
}

// PutTag writes a packed boundary tag at off.
func PutTag(b []byte, off int, size uint32, allocated bool) {
	PutU32(b, off, Pack(size, allocated))
}

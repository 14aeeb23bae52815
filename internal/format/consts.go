// Package format houses the in-band byte layout of a managed heap region:
// boundary-tag encoding, alignment helpers, the fixed offsets of the
// prologue, class-root table and epilogue, and the size-class ladder.
//
// Everything here is a pure function of its inputs. The allocator and the
// verifier both depend on this package so they can never disagree about
// where a word lives or which class a block belongs to.
package format

const (
	// WordSize is the size of a boundary tag and of a free-list link.
	WordSize = 4

	// DoubleWord is the alignment granularity. Every block size and every
	// payload offset is a multiple of it.
	DoubleWord = 8

	// AlignmentMask is used for rounding to DoubleWord.
	AlignmentMask = DoubleWord - 1

	// TagOverhead is the header plus footer carried by every block.
	TagOverhead = 2 * WordSize

	// MinBlockSize is the smallest legal block: header, predecessor link,
	// successor link and footer.
	MinBlockSize = 2 * DoubleWord

	// MinPayload is the largest request served by a MinBlockSize block.
	MinPayload = MinBlockSize - TagOverhead

	// ListLimit is the default number of segregated size classes.
	ListLimit = 12

	// MaxListLimit bounds the class-root table.
	MaxListLimit = 32

	// MinClassSize is the ceiling of class 0. Each following class doubles it.
	MinClassSize = 16

	// ChunkSize is the default extension for the explicit and implicit
	// policies (4 KiB).
	ChunkSize = 1 << 12

	// NilOffset is the null handle. Offset 0 is the alignment pad and can
	// never be a payload.
	NilOffset = 0

	// PredLinkOffset and SuccLinkOffset locate the free-list links inside a
	// free block's payload.
	PredLinkOffset = 0
	SuccLinkOffset = WordSize

	// PadOffset is the word before the prologue header.
	PadOffset = 0

	// PrologueHeaderOffset is the fixed offset of the prologue header.
	PrologueHeaderOffset = WordSize

	// RootTableOffset is where the class-root table starts (the prologue
	// payload).
	RootTableOffset = 2 * WordSize

	// allocatedBit marks a tag as allocated. Bits 1 and 2 are reserved.
	allocatedBit = 0x1

	// sizeMask clears the three low flag bits.
	sizeMask = ^uint32(AlignmentMask)
)

package format

import "fmt"

// Layout describes the fixed bookkeeping at the bottom of a heap region.
//
// Region layout for a layout with R root words:
//
//	Offset      Size  Description
//	0x00        4     Alignment pad (always 0)
//	0x04        4     Prologue header, PACK(8+4R, 1)
//	0x08        4R    Class-root table, one payload handle per class (0 = empty)
//	0x08+4R     4     Prologue footer, PACK(8+4R, 1)
//	0x0C+4R     4     Epilogue header, PACK(0, 1); moves up on every extension
//
// R is ListLimit rounded up to an even number so the first ordinary payload,
// at offset 0x10+4R, stays DoubleWord aligned. A layout with ListLimit 0 has
// no root table and no free-list links at all.
type Layout struct {
	// ListLimit is the number of class roots. 0 selects the unlinked layout.
	ListLimit int
}

// Linked reports whether free blocks carry predecessor/successor links.
func (l Layout) Linked() bool {
	return l.ListLimit > 0
}

// RootWords is the number of words reserved for the class-root table.
func (l Layout) RootWords() int {
	return (l.ListLimit + 1) &^ 1
}

// PrologueSize is the size recorded in the prologue tags.
func (l Layout) PrologueSize() int {
	return DoubleWord + l.RootWords()*WordSize
}

// PrologueFooterOffset is the offset of the prologue footer.
func (l Layout) PrologueFooterOffset() int {
	return PrologueHeaderOffset + l.PrologueSize() - WordSize
}

// InitialEpilogueOffset is where the epilogue header sits before the first
// extension.
func (l Layout) InitialEpilogueOffset() int {
	return l.PrologueFooterOffset() + WordSize
}

// InitSize is the number of bytes requested from the region extender when a
// heap is created.
func (l Layout) InitSize() int {
	return l.InitialEpilogueOffset() + WordSize
}

// FirstPayload is the payload offset of the first ordinary block. It equals
// the end of the bookkeeping area because the old epilogue becomes the first
// block's header.
func (l Layout) FirstPayload() int {
	return l.InitSize()
}

// RootOffset returns the offset of the root word for class.
func (l Layout) RootOffset(class int) int {
	return RootTableOffset + class*WordSize
}

// Validate checks that the layout can be encoded.
func (l Layout) Validate() error {
	if l.ListLimit < 0 || l.ListLimit > MaxListLimit {
		return fmt.Errorf("format: list limit %d out of range [0, %d]", l.ListLimit, MaxListLimit)
	}
	return nil
}

// WriteBookkeeping writes the pad, prologue (with an empty root table) and
// epilogue into b, which must be at least InitSize bytes long.
func (l Layout) WriteBookkeeping(b []byte) {
	PutU32(b, PadOffset, 0)
	PutTag(b, PrologueHeaderOffset, uint32(l.PrologueSize()), true)
	for i := 0; i < l.RootWords(); i++ {
		PutU32(b, RootTableOffset+i*WordSize, NilOffset)
	}
	PutTag(b, l.PrologueFooterOffset(), uint32(l.PrologueSize()), true)
	PutTag(b, l.InitialEpilogueOffset(), 0, true)
}

// CheckBookkeeping verifies that b begins with the pad and prologue written
// by WriteBookkeeping for layout l. The root table and epilogue are not
// inspected.
func (l Layout) CheckBookkeeping(b []byte) error {
	if len(b) < l.InitSize() {
		return ErrTruncated
	}
	want := Pack(uint32(l.PrologueSize()), true)
	if ReadU32(b, PrologueHeaderOffset) != want || ReadU32(b, l.PrologueFooterOffset()) != want {
		return ErrBadPrologue
	}
	return nil
}

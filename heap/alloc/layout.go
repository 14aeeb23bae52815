package alloc

import "github.com/joshuapare/heapkit/internal/format"

// Boundary-tag navigation. Every function takes a payload offset p. None
// of them check bounds; checked mode validates handles before they get here.

func (a *Allocator) word(off int) uint32 {
	return format.ReadU32(a.data, off)
}

// setWord writes one in-band word and reports it dirty.
func (a *Allocator) setWord(off int, v uint32) {
	format.PutU32(a.data, off, v)
	a.markDirty(off, format.WordSize)
}

func (a *Allocator) markDirty(off, n int) {
	if a.dt != nil {
		a.dt.Add(off, n)
	}
}

func hdr(p int) int { return p - format.WordSize }

func (a *Allocator) size(p int) int {
	return int(format.TagSize(a.word(hdr(p))))
}

func (a *Allocator) allocated(p int) bool {
	return format.TagAllocated(a.word(hdr(p)))
}

func (a *Allocator) ftr(p int) int {
	return p + a.size(p) - format.DoubleWord
}

func (a *Allocator) next(p int) int {
	return p + a.size(p)
}

// prev reads the previous block's footer, which sits just before hdr(p).
func (a *Allocator) prev(p int) int {
	return p - int(format.TagSize(a.word(p-format.DoubleWord)))
}

func (a *Allocator) prevAllocated(p int) bool {
	return format.TagAllocated(a.word(p - format.DoubleWord))
}

// setTags writes matching header and footer for a block of size bytes.
func (a *Allocator) setTags(p, size int, allocated bool) {
	tag := format.Pack(uint32(size), allocated)
	a.setWord(hdr(p), tag)
	a.setWord(p+size-format.DoubleWord, tag)
}

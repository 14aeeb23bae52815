package alloc

import (
	"github.com/joshuapare/heapkit/heap/dirty"
	"github.com/joshuapare/heapkit/internal/format"
)

// Ptr is a block handle: the byte offset of a block's payload in the region.
// Handles stay valid across region growth and remapping.
type Ptr uint32

// Nil is the null handle. Offset 0 is the alignment pad, never a payload.
const Nil Ptr = format.NilOffset

// DirtyTracker is a type alias for the interface defined in heap/dirty.
type DirtyTracker = dirty.DirtyTracker

// Heap is the allocate / free / resize surface.
type Heap interface {
	Malloc(size int) (Ptr, error)
	Free(p Ptr) error
	Realloc(p Ptr, size int) (Ptr, error)
}

var _ Heap = (*Allocator)(nil)

// Block describes one block seen by Walk.
type Block struct {
	Ptr       Ptr
	Size      int // total size including header and footer
	Allocated bool
}

// Payload returns the usable payload size.
func (b Block) Payload() int { return b.Size - format.TagOverhead }

// Usage is a snapshot of heap occupancy.
type Usage struct {
	HeapBytes       int // region size, including bookkeeping
	AllocatedBlocks int
	AllocatedBytes  int
	FreeBlocks      int
	FreeBytes       int
	LargestFree     int
	FreeByClass     []int // free block count per size class; nil for implicit
}

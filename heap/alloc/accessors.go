package alloc

import (
	"fmt"

	"github.com/joshuapare/heapkit/heap/verify"
	"github.com/joshuapare/heapkit/internal/buf"
	"github.com/joshuapare/heapkit/internal/format"
)

// checkRef validates p in checked mode. Outside checked mode it accepts
// anything.
func (a *Allocator) checkRef(p Ptr) error {
	if !a.cfg.Checked {
		return nil
	}
	err := a.validateRef(int(p))
	if err != nil {
		a.stats.Rejected++
		a.log.WithError(err).WithField("ptr", uint32(p)).Warn("rejected block handle")
	}
	return err
}

func (a *Allocator) validateRef(p int) error {
	if !format.IsAligned8(p) || p < a.layout.FirstPayload() {
		return fmt.Errorf("%w: 0x%X is not a payload offset", ErrBadRef, p)
	}
	tag, ok := buf.U32At(a.data, hdr(p))
	if !ok {
		return fmt.Errorf("%w: 0x%X outside heap of %d bytes", ErrBadRef, p, len(a.data))
	}
	size := int(format.TagSize(tag))
	if size < format.MinBlockSize || format.TagReserved(tag) != 0 {
		return fmt.Errorf("%w: 0x%X has malformed header 0x%X", ErrBadRef, p, tag)
	}
	// The block must end before the epilogue header.
	if !buf.Within(hdr(p), size, 0, len(a.data)-format.WordSize) {
		return fmt.Errorf("%w: 0x%X size %d runs past the heap", ErrBadRef, p, size)
	}
	if ftag := a.word(p + size - format.DoubleWord); ftag != tag {
		return fmt.Errorf("%w: 0x%X header 0x%X disagrees with footer 0x%X", ErrBadRef, p, tag, ftag)
	}
	if !format.TagAllocated(tag) {
		return fmt.Errorf("%w: 0x%X", ErrNotAllocated, p)
	}
	return nil
}

// Bytes returns the payload of p. The slice aliases the region and is
// invalidated by any call that may extend the heap.
func (a *Allocator) Bytes(p Ptr) ([]byte, error) {
	if p == Nil {
		return nil, nil
	}
	if err := a.checkRef(p); err != nil {
		return nil, err
	}
	bp := int(p)
	return a.data[bp : bp+a.size(bp)-format.TagOverhead], nil
}

// PayloadSize returns the usable payload size of block p.
func (a *Allocator) PayloadSize(p Ptr) int {
	if p == Nil {
		return 0
	}
	return a.size(int(p)) - format.TagOverhead
}

// Touch reports the whole payload of p to the dirty tracker. Call it after
// writing through Bytes on a file-backed region.
func (a *Allocator) Touch(p Ptr) error {
	if p == Nil {
		return nil
	}
	if err := a.checkRef(p); err != nil {
		return err
	}
	a.markDirty(int(p), a.PayloadSize(p))
	return nil
}

// Walk calls fn for every block from the first to the last, stopping early
// when fn returns false. fn must not allocate or free.
func (a *Allocator) Walk(fn func(Block) bool) {
	for p := a.layout.FirstPayload(); a.size(p) > 0; p = a.next(p) {
		if !fn(Block{Ptr: Ptr(p), Size: a.size(p), Allocated: a.allocated(p)}) {
			return
		}
	}
}

// Usage computes an occupancy snapshot by walking the heap.
func (a *Allocator) Usage() Usage {
	u := Usage{HeapBytes: len(a.data)}
	if a.layout.Linked() {
		u.FreeByClass = make([]int, a.layout.ListLimit)
	}
	a.Walk(func(b Block) bool {
		if b.Allocated {
			u.AllocatedBlocks++
			u.AllocatedBytes += b.Size
			return true
		}
		u.FreeBlocks++
		u.FreeBytes += b.Size
		u.LargestFree = max(u.LargestFree, b.Size)
		if u.FreeByClass != nil {
			u.FreeByClass[a.classOf(b.Size)]++
		}
		return true
	})
	return u
}

// Check verifies every heap invariant and returns the first violation as a
// *verify.ValidationError.
func (a *Allocator) Check() error {
	return verify.AllInvariants(a.data, a.layout)
}

// Config returns the effective configuration.
func (a *Allocator) Config() Config { return a.cfg }

// Layout returns the region layout in use.
func (a *Allocator) Layout() format.Layout { return a.layout }

// HeapSize returns the current region size in bytes.
func (a *Allocator) HeapSize() int { return len(a.data) }

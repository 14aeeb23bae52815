// Package alloc implements a segregated free-list heap allocator with
// boundary-tag coalescing over a growable byte region.
//
// # Overview
//
// The allocator manages a single contiguous region obtained from a
// region.Extender. Every block carries a 4-byte header and footer holding
// size|allocated, so both physical neighbours of a block are reachable in
// O(1). Free blocks are kept in per-size-class doubly linked lists whose
// roots live inside the region, which makes the heap fully position
// independent: handles (Ptr) are payload offsets, and a file-backed heap can
// be closed and reopened with Open.
//
// # Region layout
//
//	offset 0        pad word
//	offset 4        prologue header   size = 8 + 4*R, allocated
//	offset 8        class root table  R words
//	...             prologue footer
//	...             blocks
//	len-4           epilogue header   size 0, allocated
//
// R is the number of size classes rounded up to an even number so that every
// payload stays 8-byte aligned.
//
// # Policies
//
//   - PolicySegregated (default): 12 power-of-two classes starting at 16
//     bytes, first fit within the request's class and then higher classes,
//     extension by exactly the needed size.
//   - PolicyExplicit: one list, 4 KiB extension chunks.
//   - PolicyImplicit: no lists, next-fit scan over all blocks.
//
// All policies share the block format, splitting, four-case coalescing and
// the realloc strategy.
//
// # Usage Example
//
//	r := region.NewMemory(0)
//	a, err := alloc.New(r, nil, nil)
//	if err != nil {
//	    return err
//	}
//
//	p, err := a.Malloc(100)
//	if err != nil {
//	    return err
//	}
//	b, _ := a.Bytes(p)
//	copy(b, "hello")
//
//	p, err = a.Realloc(p, 400)
//	...
//	_ = a.Free(p)
//
// # Persistence
//
// Over a region.Mapped, pass a dirty.Tracker so every metadata write is
// recorded, call Touch after writing payloads, and Flush the tracker before
// closing. Reattach later with Open and the same Config.
//
// # Thread Safety
//
// An Allocator is not safe for concurrent use.
//
// # Checked mode
//
// Config.Checked validates every handle passed to Free, Realloc, Bytes and
// Touch and returns ErrBadRef or ErrNotAllocated instead of corrupting the
// heap. Off by default.
//
// # Debugging
//
// With a nil Config.Logger, setting HEAP_LOG_ALLOC=1 logs heap
// initialisation and every extension to stderr. Check runs the full heap
// checker from heap/verify.
package alloc

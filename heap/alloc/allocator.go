package alloc

import (
	"fmt"
	"math"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"

	"github.com/joshuapare/heapkit/heap/region"
	"github.com/joshuapare/heapkit/heap/verify"
	"github.com/joshuapare/heapkit/internal/format"
)

const (
	// maxHeapSize keeps every offset representable as a Ptr.
	maxHeapSize = 1<<32 - format.DoubleWord

	// maxRequest is the largest payload Malloc and Realloc accept.
	maxRequest = math.MaxInt32
)

// Allocator manages one heap inside a region. It is not safe for concurrent
// use; independent allocators over different regions may coexist.
type Allocator struct {
	r      region.Extender
	dt     DirtyTracker
	cfg    Config
	layout format.Layout
	data   []byte // cached r.Bytes(), refreshed after every Grow

	// rover is the next-fit cursor of the implicit policy.
	rover int

	stats Stats
	log   logrus.FieldLogger
}

func newAllocator(r region.Extender, dt DirtyTracker, cfg *Config) (*Allocator, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: nil region", ErrConfig)
	}
	c := DefaultConfig
	if cfg != nil {
		c = *cfg
	}
	c, err := c.normalize()
	if err != nil {
		return nil, err
	}
	l := format.Layout{ListLimit: c.ListLimit}
	return &Allocator{
		r:      r,
		dt:     dt,
		cfg:    c,
		layout: l,
		rover:  l.FirstPayload(),
		log:    c.Logger.WithField("policy", c.Policy.String()),
	}, nil
}

// New writes a fresh heap into an empty region: the pad word, the prologue
// holding an empty class root table, and the epilogue. When the
// configuration has an InitialChunk the heap is extended by it once.
//
// dt may be nil.
func New(r region.Extender, dt DirtyTracker, cfg *Config) (*Allocator, error) {
	a, err := newAllocator(r, dt, cfg)
	if err != nil {
		return nil, err
	}
	if n := len(r.Bytes()); n != 0 {
		return nil, fmt.Errorf("%w: region already holds %d bytes", ErrLayout, n)
	}

	initSize := a.layout.InitSize()
	if _, err := r.Grow(initSize); err != nil {
		a.log.WithError(err).Error("failed to obtain bookkeeping bytes")
		return nil, fmt.Errorf("%w: bookkeeping (%d bytes): %w", ErrGrowFail, initSize, err)
	}
	a.data = r.Bytes()
	a.layout.WriteBookkeeping(a.data)
	a.markDirty(0, initSize)

	if a.cfg.InitialChunk > 0 {
		if _, err := a.extendHeap(a.cfg.InitialChunk); err != nil {
			return nil, fmt.Errorf("%w: initial chunk (%d bytes): %w", ErrGrowFail, a.cfg.InitialChunk, err)
		}
	}

	a.log.WithFields(logrus.Fields{
		"classes":  a.layout.ListLimit,
		"prologue": a.layout.PrologueSize(),
		"heap":     humanize.IBytes(uint64(len(a.data))),
	}).Debug("heap initialized")
	return a, nil
}

// Open attaches to a region that already holds a heap written by New with
// the same layout, for example a reopened mapped file. Free lists are
// in-band, so nothing is rebuilt. The whole heap is verified against the
// configured layout: class lists filed under a different ListLimit are
// rejected even when the prologue sizes agree.
func Open(r region.Extender, dt DirtyTracker, cfg *Config) (*Allocator, error) {
	a, err := newAllocator(r, dt, cfg)
	if err != nil {
		return nil, err
	}
	a.data = r.Bytes()
	if err := a.layout.CheckBookkeeping(a.data); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLayout, err)
	}
	if tail := a.word(len(a.data) - format.WordSize); tail != format.Pack(0, true) {
		return nil, fmt.Errorf("%w: last word 0x%X is not an epilogue", ErrLayout, tail)
	}
	if err := verify.AllInvariants(a.data, a.layout); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLayout, err)
	}

	a.log.WithField("heap", humanize.IBytes(uint64(len(a.data)))).Debug("heap opened")
	return a, nil
}

// Malloc allocates a block with at least size payload bytes and returns its
// handle. The payload is 8-byte aligned. A size <= 0 returns (Nil, nil).
//
// When no free block fits, the region is extended by max(adjusted size,
// ChunkSize). If that fails the heap is unchanged and the error wraps
// ErrNoSpace.
func (a *Allocator) Malloc(size int) (Ptr, error) {
	a.stats.MallocCalls++
	if size <= 0 {
		return Nil, nil
	}
	p, extended, err := a.malloc(size)
	if err != nil {
		return Nil, err
	}
	if extended {
		a.stats.SlowPath++
	} else {
		a.stats.FastPath++
	}
	return Ptr(p), nil
}

// malloc serves a positive request and reports whether the heap had to be
// extended. It leaves the Malloc counters alone so a moving Realloc is not
// counted as a Malloc.
func (a *Allocator) malloc(size int) (p int, extended bool, err error) {
	if size > maxRequest {
		return format.NilOffset, false, fmt.Errorf("%w: request of %d bytes exceeds %d", ErrNoSpace, size, maxRequest)
	}
	asize := format.AdjustedSize(size)

	if p = a.findFit(asize); p != format.NilOffset {
		a.place(p, asize)
		return p, false, nil
	}

	ext := max(asize, a.cfg.ChunkSize)
	p, err = a.extendHeap(ext)
	if err != nil {
		return format.NilOffset, false, fmt.Errorf("%w: extend by %d for %d-byte request: %w", ErrNoSpace, ext, size, err)
	}
	a.place(p, asize)
	return p, true, nil
}

// Free releases a block and merges it with free neighbours. Freeing Nil is a
// no-op. Outside checked mode the handle is trusted.
func (a *Allocator) Free(p Ptr) error {
	a.stats.FreeCalls++
	if p == Nil {
		return nil
	}
	if err := a.checkRef(p); err != nil {
		return err
	}
	a.release(int(p))
	return nil
}

func (a *Allocator) release(p int) {
	a.setTags(p, a.size(p), false)
	a.coalesce(p)
}

// Realloc resizes a block.
//
//   - size <= 0 frees p and returns Nil.
//   - p == Nil behaves like Malloc.
//   - If the block already holds size bytes, p is returned unchanged.
//   - If the next block is free and the two together are large enough, p
//     grows in place without copying.
//   - Otherwise a new block is allocated, min(payload, size) bytes are
//     copied and p is freed. If the allocation fails p is left intact.
func (a *Allocator) Realloc(p Ptr, size int) (Ptr, error) {
	a.stats.ReallocCalls++
	if size <= 0 {
		return Nil, a.Free(p)
	}
	if p == Nil {
		return a.Malloc(size)
	}
	if err := a.checkRef(p); err != nil {
		return Nil, err
	}
	if size > maxRequest {
		return Nil, fmt.Errorf("%w: request of %d bytes exceeds %d", ErrNoSpace, size, maxRequest)
	}

	bp := int(p)
	old := a.size(bp)
	need := size + format.TagOverhead
	if need <= old {
		a.stats.ReallocKept++
		return p, nil
	}

	if n := a.next(bp); !a.allocated(n) {
		if combined := old + a.size(n); need <= combined {
			a.remove(n)
			if a.rover == n {
				a.rover = bp
			}
			a.setTags(bp, combined, true)
			a.stats.ReallocGrown++
			return p, nil
		}
	}

	np, _, err := a.malloc(size)
	if err != nil {
		return Nil, err
	}
	n := min(old-format.TagOverhead, size)
	copy(a.data[np:np+n], a.data[bp:bp+n])
	a.markDirty(np, n)
	a.release(bp)
	a.stats.ReallocCopied++
	return Ptr(np), nil
}

// findFit returns a free block of at least asize bytes, or NilOffset.
func (a *Allocator) findFit(asize int) int {
	if !a.layout.Linked() {
		return a.nextFit(asize)
	}
	for c := a.classOf(asize); c < a.layout.ListLimit; c++ {
		for p := a.root(c); p != format.NilOffset; p = a.succ(p) {
			a.stats.FitInspected++
			if a.size(p) >= asize {
				return p
			}
		}
	}
	return format.NilOffset
}

// nextFit scans from the rover to the epilogue, then from the first block
// back to the rover.
func (a *Allocator) nextFit(asize int) int {
	fits := func(p int) bool {
		a.stats.FitInspected++
		return !a.allocated(p) && a.size(p) >= asize
	}
	for p := a.rover; a.size(p) > 0; p = a.next(p) {
		if fits(p) {
			a.rover = p
			return p
		}
	}
	for p := a.layout.FirstPayload(); p < a.rover; p = a.next(p) {
		if fits(p) {
			a.rover = p
			return p
		}
	}
	return format.NilOffset
}

// place allocates asize bytes at the front of free block p, splitting off
// the remainder when it can form a minimum block.
func (a *Allocator) place(p, asize int) {
	bsize := a.size(p)
	a.remove(p)
	if bsize-asize >= format.MinBlockSize {
		a.setTags(p, asize, true)
		rest := p + asize
		a.setTags(rest, bsize-asize, false)
		a.insert(rest)
		a.stats.Splits++
		return
	}
	a.setTags(p, bsize, true)
}

// extendHeap grows the region by bytes (a multiple of 8). The old epilogue
// header becomes the new block's header; a new epilogue follows it. The
// new block is coalesced with a free predecessor and returned.
func (a *Allocator) extendHeap(bytes int) (int, error) {
	if int64(len(a.data))+int64(bytes) > maxHeapSize {
		return format.NilOffset, fmt.Errorf("heap of %d bytes cannot grow by %d", len(a.data), bytes)
	}
	p, err := a.r.Grow(bytes)
	if err != nil {
		// A failed grow may still have moved the mapping.
		a.data = a.r.Bytes()
		a.log.WithError(err).WithField("bytes", bytes).Warn("heap extension failed")
		return format.NilOffset, err
	}
	a.data = a.r.Bytes()

	a.setTags(p, bytes, false)
	a.setWord(hdr(p+bytes), format.Pack(0, true))

	a.stats.Extensions++
	a.stats.ExtendedBytes += int64(bytes)
	a.log.WithFields(logrus.Fields{
		"grow": humanize.IBytes(uint64(bytes)),
		"heap": humanize.IBytes(uint64(len(a.data))),
	}).Debug("heap extended")

	return a.coalesce(p), nil
}

// coalesce merges free block p with free physical neighbours, files the
// result in its class list and returns it. p must not be on any list.
func (a *Allocator) coalesce(p int) int {
	prevAlloc := a.prevAllocated(p)
	n := a.next(p)
	nextAlloc := a.allocated(n)
	size := a.size(p)

	switch {
	case prevAlloc && nextAlloc:
		a.stats.CoalesceNone++

	case prevAlloc && !nextAlloc:
		a.remove(n)
		size += a.size(n)
		a.setTags(p, size, false)
		a.stats.CoalesceNext++

	case !prevAlloc && nextAlloc:
		pp := a.prev(p)
		a.remove(pp)
		size += a.size(pp)
		p = pp
		a.setTags(p, size, false)
		a.stats.CoalescePrev++

	default:
		pp := a.prev(p)
		a.remove(pp)
		a.remove(n)
		size += a.size(pp) + a.size(n)
		p = pp
		a.setTags(p, size, false)
		a.stats.CoalesceBoth++
	}

	a.insert(p)
	if !a.layout.Linked() {
		a.rover = p
	}
	return p
}

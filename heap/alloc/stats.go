package alloc

import (
	"io"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/joshuapare/heapkit/internal/format"
)

// Stats holds allocator counters for testing and instrumentation.
type Stats struct {
	MallocCalls  int
	FreeCalls    int
	ReallocCalls int

	FastPath      int   // mallocs served without extending
	SlowPath      int   // mallocs that extended the heap
	Extensions    int   // successful extend_heap calls, including the initial chunk
	ExtendedBytes int64 // bytes added by Extensions
	Splits        int
	FitInspected  int // blocks examined by fit searches

	CoalesceNone int // freed block had no free neighbour
	CoalesceNext int
	CoalescePrev int
	CoalesceBoth int

	ReallocKept   int // block already large enough
	ReallocGrown  int // grown into the next free block
	ReallocCopied int // moved to a new block

	Rejected int // handles refused in checked mode
}

// Stats returns a copy of the counters.
func (a *Allocator) Stats() Stats { return a.stats }

// ResetStats zeroes the counters.
func (a *Allocator) ResetStats() { a.stats = Stats{} }

// Report writes the counters and a usage snapshot to w.
func (a *Allocator) Report(w io.Writer) error {
	s := a.stats
	u := a.Usage()
	p := message.NewPrinter(language.English)

	var err error
	printf := func(msg string, args ...any) {
		if err == nil {
			_, err = p.Fprintf(w, msg, args...)
		}
	}

	printf("=== heap (%s policy) ===\n", a.cfg.Policy)
	printf("Heap size:        %s (%d bytes)\n", humanize.IBytes(uint64(u.HeapBytes)), u.HeapBytes)
	printf("Allocated:        %d blocks, %s\n", u.AllocatedBlocks, humanize.IBytes(uint64(u.AllocatedBytes)))
	printf("Free:             %d blocks, %s (largest %s)\n",
		u.FreeBlocks, humanize.IBytes(uint64(u.FreeBytes)), humanize.IBytes(uint64(u.LargestFree)))
	printf("Malloc calls:     %d (fast: %d, slow: %d)\n", s.MallocCalls, s.FastPath, s.SlowPath)
	printf("Free calls:       %d\n", s.FreeCalls)
	printf("Realloc calls:    %d (kept: %d, grown: %d, copied: %d)\n",
		s.ReallocCalls, s.ReallocKept, s.ReallocGrown, s.ReallocCopied)
	printf("Extensions:       %d (%s)\n", s.Extensions, humanize.IBytes(uint64(s.ExtendedBytes)))
	printf("Splits:           %d\n", s.Splits)
	printf("Coalesce:         none %d, next %d, prev %d, both %d\n",
		s.CoalesceNone, s.CoalesceNext, s.CoalescePrev, s.CoalesceBoth)
	printf("Fit inspections:  %d\n", s.FitInspected)
	if a.cfg.Checked {
		printf("Rejected refs:    %d\n", s.Rejected)
	}

	if u.FreeByClass != nil && u.FreeBlocks > 0 {
		printf("Free blocks by class:\n")
		for c, n := range u.FreeByClass {
			if n == 0 {
				continue
			}
			ceil := "unbounded"
			if v := format.ClassCeiling(c, a.layout.ListLimit); v > 0 {
				ceil = "<= " + humanize.IBytes(uint64(v))
			}
			printf("  class %2d (%s): %d\n", c, ceil, n)
		}
	}
	return err
}

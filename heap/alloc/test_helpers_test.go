package alloc

import (
	"errors"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/heapkit/heap/region"
	"github.com/joshuapare/heapkit/internal/format"
)

// ============================================================================
// Allocator Creation Utilities
// ============================================================================

// newTestAllocator creates an allocator over a fresh in-memory region.
// A limit <= 0 uses the region default; cfg nil uses DefaultConfig.
func newTestAllocator(t testing.TB, cfg *Config, limit int) (*Allocator, *region.Memory) {
	t.Helper()
	r := region.NewMemory(limit)
	a, err := New(r, nil, cfg)
	require.NoError(t, err)
	assertInvariants(t, a)
	return a, r
}

// allPolicies lists the predefined configurations by name.
var allPolicies = []struct {
	name string
	cfg  Config
}{
	{"segregated", ConfigSegregated},
	{"explicit", ConfigExplicit},
	{"implicit", ConfigImplicit},
}

// ============================================================================
// Invariant Assertions
// ============================================================================

// assertInvariants runs the full heap checker.
func assertInvariants(t testing.TB, a *Allocator) {
	t.Helper()
	require.NoError(t, a.Check(), "heap invariants violated")
}

// layoutOf returns every block in address order.
func layoutOf(a *Allocator) []Block {
	var blocks []Block
	a.Walk(func(b Block) bool {
		blocks = append(blocks, b)
		return true
	})
	return blocks
}

func blk(p int, size int, allocated bool) Block {
	return Block{Ptr: Ptr(p), Size: size, Allocated: allocated}
}

// mustMalloc allocates and fails the test on error.
func mustMalloc(t testing.TB, a *Allocator, size int) Ptr {
	t.Helper()
	p, err := a.Malloc(size)
	require.NoError(t, err)
	require.NotEqual(t, Nil, p)
	return p
}

// fill writes a recognisable pattern into the first n payload bytes.
func fill(t testing.TB, a *Allocator, p Ptr, n int, seed byte) {
	t.Helper()
	b, err := a.Bytes(p)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(b), n)
	for i := 0; i < n; i++ {
		b[i] = seed + byte(i)
	}
}

// requireFilled checks a pattern written by fill.
func requireFilled(t testing.TB, a *Allocator, p Ptr, n int, seed byte) {
	t.Helper()
	b, err := a.Bytes(p)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(b), n)
	for i := 0; i < n; i++ {
		if b[i] != seed+byte(i) {
			t.Fatalf("payload of 0x%X corrupted at byte %d: got %d want %d", p, i, b[i], seed+byte(i))
		}
	}
}

// ============================================================================
// Test Doubles
// ============================================================================

// recordingTracker remembers every dirty range.
type recordingTracker struct {
	ranges [][2]int
}

func (r *recordingTracker) Add(off, length int) {
	r.ranges = append(r.ranges, [2]int{off, length})
}

func (r *recordingTracker) covers(off int) bool {
	for _, rg := range r.ranges {
		if off >= rg[0] && off < rg[0]+rg[1] {
			return true
		}
	}
	return false
}

var errInjected = errors.New("injected grow failure")

// failingRegion wraps a Memory region and fails Grow on demand.
type failingRegion struct {
	*region.Memory
	fail bool
}

func (f *failingRegion) Grow(n int) (int, error) {
	if f.fail {
		return 0, errInjected
	}
	return f.Memory.Grow(n)
}

// ============================================================================
// Randomized Workload
// ============================================================================

type liveBlock struct {
	size int
	seed byte
}

// workload drives a random malloc/free/realloc mix and checks alignment,
// non-overlap, content and heap invariants after every step.
type workload struct {
	t     *testing.T
	a     *Allocator
	rng   *rand.Rand
	live  map[Ptr]liveBlock
	after func(step int)

	// touchPayloads reports every payload write to the dirty tracker.
	touchPayloads bool
}

func newWorkload(t *testing.T, a *Allocator, seed int64) *workload {
	return &workload{t: t, a: a, rng: rand.New(rand.NewSource(seed)), live: make(map[Ptr]liveBlock)}
}

func (w *workload) randomSize() int {
	switch w.rng.Intn(10) {
	case 0:
		return 1 + w.rng.Intn(8)
	case 1:
		return 1024 + w.rng.Intn(8192)
	default:
		return 1 + w.rng.Intn(300)
	}
}

func (w *workload) pick() (Ptr, liveBlock, bool) {
	if len(w.live) == 0 {
		return Nil, liveBlock{}, false
	}
	// Deterministic choice: smallest handle >= a random threshold.
	threshold := Ptr(w.rng.Intn(w.a.HeapSize()))
	best, found := Nil, false
	var first Ptr = Nil
	for p := range w.live {
		if first == Nil || p < first {
			first = p
		}
		if p >= threshold && (!found || p < best) {
			best, found = p, true
		}
	}
	if !found {
		best = first
	}
	return best, w.live[best], true
}

func (w *workload) run(steps int) {
	t := w.t
	for step := 0; step < steps; step++ {
		switch op := w.rng.Intn(10); {
		case op < 5:
			size := w.randomSize()
			p := mustMalloc(t, w.a, size)
			seed := byte(w.rng.Intn(256))
			fill(t, w.a, p, size, seed)
			w.touch(p)
			w.live[p] = liveBlock{size: size, seed: seed}

		case op < 8:
			p, lb, ok := w.pick()
			if !ok {
				continue
			}
			requireFilled(t, w.a, p, lb.size, lb.seed)
			require.NoError(t, w.a.Free(p))
			delete(w.live, p)

		default:
			p, lb, ok := w.pick()
			if !ok {
				continue
			}
			size := w.randomSize()
			np, err := w.a.Realloc(p, size)
			require.NoError(t, err)
			keep := min(lb.size, size)
			requireFilled(t, w.a, np, keep, lb.seed)
			delete(w.live, p)
			fill(t, w.a, np, size, lb.seed)
			w.touch(np)
			w.live[np] = liveBlock{size: size, seed: lb.seed}
		}

		w.checkPlacement()
		assertInvariants(t, w.a)
		if w.after != nil {
			w.after(step)
		}
	}
}

func (w *workload) touch(p Ptr) {
	if w.touchPayloads {
		require.NoError(w.t, w.a.Touch(p))
	}
}

// checkPlacement verifies every live payload is aligned, large enough and
// disjoint from every other live block.
func (w *workload) checkPlacement() {
	t := w.t
	type span struct{ lo, hi int }
	spans := make([]span, 0, len(w.live))
	for p, lb := range w.live {
		require.True(t, format.IsAligned8(int(p)), "payload 0x%X not aligned", p)
		require.GreaterOrEqual(t, w.a.PayloadSize(p), lb.size)
		lo := int(p) - format.WordSize
		spans = append(spans, span{lo, lo + w.a.PayloadSize(p) + format.TagOverhead})
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].lo < spans[j].lo })
	for i := range spans {
		require.LessOrEqual(t, spans[i].hi, w.a.HeapSize()-format.WordSize)
		if i > 0 && spans[i].lo < spans[i-1].hi {
			t.Fatalf("blocks %v and %v overlap", spans[i-1], spans[i])
		}
	}
}

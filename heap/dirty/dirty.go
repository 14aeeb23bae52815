package dirty

import (
	"context"
	"errors"
	"sort"
)

const (
	// defaultRangeCapacity is the pre-allocated capacity for dirty ranges.
	defaultRangeCapacity = 64

	// standardPageSize is the typical OS page size (4KB).
	standardPageSize = 4096
)

// ErrNoFile is returned by Flush when the backing has no open file.
var ErrNoFile = errors.New("dirty: backing has no file")

// FlushMode controls durability guarantees of Flush.
type FlushMode int

const (
	// FlushAuto syncs dirty ranges and then the file data (fdatasync, or
	// fsync on macOS).
	FlushAuto FlushMode = iota

	// FlushDataOnly only syncs dirty ranges of the mapping. The caller is
	// responsible for a later file sync. Use this when batching.
	FlushDataOnly

	// FlushFull is FlushAuto with F_FULLFSYNC on macOS, for power-loss
	// sensitive workflows.
	FlushFull
)

// Range is a dirty byte range in region offsets.
type Range struct {
	Off int64
	Len int64
}

// End returns the first offset after the range.
func (r Range) End() int64 { return r.Off + r.Len }

// Tracker accumulates dirty ranges and flushes them.
type Tracker struct {
	b        Backing
	ranges   []Range // raw, coalesced at flush time
	pageSize int64
}

// NewTracker creates a tracker for the given backing.
func NewTracker(b Backing) *Tracker {
	return &Tracker{
		b:        b,
		ranges:   make([]Range, 0, defaultRangeCapacity),
		pageSize: standardPageSize,
	}
}

// Add records a dirty range. Empty and negative ranges are ignored.
func (t *Tracker) Add(off, length int) {
	if length <= 0 || off < 0 {
		return
	}
	t.ranges = append(t.ranges, Range{Off: int64(off), Len: int64(length)})
}

// Len returns the number of raw ranges recorded since the last flush.
func (t *Tracker) Len() int { return len(t.ranges) }

// Flush writes all dirty ranges to disk according to mode and clears them.
//
// The context is checked before each range. If it is cancelled mid-flush,
// some ranges may have been synced and all of them stay recorded.
func (t *Tracker) Flush(ctx context.Context, mode FlushMode) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f := t.b.File()
	if f == nil {
		return ErrNoFile
	}

	data := t.b.Bytes()
	if len(t.ranges) > 0 && len(data) > 0 {
		if err := flushRanges(ctx, data, f, t.coalesce(int64(len(data)))); err != nil {
			return err
		}
	}
	t.ranges = t.ranges[:0]

	if mode == FlushDataOnly {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return syncFile(f, mode == FlushFull)
}

// Reset drops all recorded ranges without flushing.
func (t *Tracker) Reset() {
	t.ranges = t.ranges[:0]
}

// DebugRanges returns a copy of the raw, uncoalesced ranges.
func (t *Tracker) DebugRanges() []Range {
	result := make([]Range, len(t.ranges))
	copy(result, t.ranges)
	return result
}

// DebugCoalescedRanges returns the page-aligned, merged ranges Flush would
// sync, clamped to the current backing size.
func (t *Tracker) DebugCoalescedRanges() []Range {
	return t.coalesce(int64(len(t.b.Bytes())))
}

// coalesce page-aligns all ranges, sorts them, merges overlapping or
// adjacent ones and clamps them to limit. Ranges entirely past limit are
// dropped.
func (t *Tracker) coalesce(limit int64) []Range {
	if len(t.ranges) == 0 {
		return nil
	}

	aligned := make([]Range, 0, len(t.ranges))
	for _, r := range t.ranges {
		start := (r.Off / t.pageSize) * t.pageSize
		end := r.End()
		if end%t.pageSize != 0 {
			end = ((end / t.pageSize) + 1) * t.pageSize
		}
		if end > limit {
			end = limit
		}
		if start >= end {
			continue
		}
		aligned = append(aligned, Range{Off: start, Len: end - start})
	}
	if len(aligned) == 0 {
		return nil
	}

	sort.Slice(aligned, func(i, j int) bool {
		return aligned[i].Off < aligned[j].Off
	})

	merged := make([]Range, 0, len(aligned))
	current := aligned[0]
	for _, next := range aligned[1:] {
		if next.Off <= current.End() {
			if next.End() > current.End() {
				current.Len = next.End() - current.Off
			}
			continue
		}
		merged = append(merged, current)
		current = next
	}
	return append(merged, current)
}

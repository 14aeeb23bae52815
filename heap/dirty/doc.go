// Package dirty tracks the byte ranges of a file-backed heap region that the
// allocator has written and flushes them to disk.
//
// The allocator reports every in-band write (boundary tags, free-list links,
// the class root table and the epilogue) through the DirtyTracker interface.
// Callers report payload writes with alloc.Allocator.Touch. At flush time the
// tracker page-aligns the ranges, sorts and merges them, and syncs each
// merged range:
//
//	Add(100, 8), Add(4000, 200), Add(20000, 8)
//	  → [0x0000-0x2000) [0x4000-0x5000)
//
// Platform behaviour:
//   - Linux: msync(MS_SYNC) per range, fdatasync for the file.
//   - macOS: msync over the whole mapping (msync needs the original mapping
//     address), fsync or F_FULLFSYNC for the file.
//   - Other systems: the region is held in memory, so ranges are written
//     with WriteAt and the file is synced with fsync.
//
// A Tracker is not safe for concurrent use.
package dirty

package dirty

import "os"

// DirtyTracker is the minimal interface for reporting modified byte ranges.
// The allocator depends only on this.
type DirtyTracker interface {
	// Add marks [off, off+length) as dirty.
	Add(off, length int)
}

// Backing is the storage a Tracker flushes. region.Mapped satisfies it.
type Backing interface {
	Bytes() []byte
	File() *os.File
}

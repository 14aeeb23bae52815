package alloc

import "errors"

var (
	// ErrNoSpace indicates that no free block was large enough and the
	// region could not be extended. It wraps the extender's error.
	ErrNoSpace = errors.New("alloc: no space")

	// ErrGrowFail indicates the region could not supply the bookkeeping
	// bytes or the initial chunk during New.
	ErrGrowFail = errors.New("alloc: grow failed")

	// ErrBadRef indicates a handle that does not address a valid block.
	// Only reported in checked mode.
	ErrBadRef = errors.New("alloc: bad block reference")

	// ErrNotAllocated indicates a handle to a free block, typically a
	// double free. Only reported in checked mode.
	ErrNotAllocated = errors.New("alloc: block not allocated")

	// ErrLayout indicates Open found a region that was not written by New
	// with the same layout.
	ErrLayout = errors.New("alloc: region layout mismatch")

	// ErrConfig indicates an invalid Config.
	ErrConfig = errors.New("alloc: invalid config")
)

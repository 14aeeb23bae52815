package verify

import (
	"fmt"

	"github.com/joshuapare/heapkit/internal/buf"
	"github.com/joshuapare/heapkit/internal/format"
)

// Validation categories reported in ValidationError.Type.
const (
	TypeBookkeeping = "Bookkeeping"
	TypeBlock       = "Block"
	TypeFreeList    = "FreeList"
)

// ValidationError describes the first violated invariant.
type ValidationError struct {
	Type    string
	Message string
	Offset  int
	Details map[string]interface{}
}

func (e *ValidationError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("%s at offset 0x%X: %s", e.Type, e.Offset, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func fail(typ string, off int, msg string, args ...interface{}) *ValidationError {
	return &ValidationError{Type: typ, Message: fmt.Sprintf(msg, args...), Offset: off}
}

// AllInvariants validates the whole heap in one call.
// Returns the first error encountered, or nil if all checks pass.
func AllInvariants(data []byte, l format.Layout) error {
	if err := Bookkeeping(data, l); err != nil {
		return err
	}
	free, err := walk(data, l)
	if err != nil {
		return err
	}
	return freeLists(data, l, free)
}

// Bookkeeping validates the pad word, the prologue and the root table padding.
func Bookkeeping(data []byte, l format.Layout) error {
	if err := l.Validate(); err != nil {
		return fail(TypeBookkeeping, -1, "%v", err)
	}
	if len(data) < l.InitSize() {
		return fail(TypeBookkeeping, -1, "region too small: %d bytes (need %d)", len(data), l.InitSize())
	}
	if pad := format.ReadU32(data, format.PadOffset); pad != 0 {
		return fail(TypeBookkeeping, format.PadOffset, "pad word is 0x%X", pad)
	}
	want := format.Pack(uint32(l.PrologueSize()), true)
	if got := format.ReadU32(data, format.PrologueHeaderOffset); got != want {
		return fail(TypeBookkeeping, format.PrologueHeaderOffset,
			"prologue header 0x%X, expected 0x%X", got, want)
	}
	if got := format.ReadU32(data, l.PrologueFooterOffset()); got != want {
		return fail(TypeBookkeeping, l.PrologueFooterOffset(),
			"prologue footer 0x%X, expected 0x%X", got, want)
	}
	for i := l.ListLimit; i < l.RootWords(); i++ {
		if v := format.ReadU32(data, l.RootOffset(i)); v != format.NilOffset {
			return fail(TypeBookkeeping, l.RootOffset(i), "unused root word %d is 0x%X", i, v)
		}
	}
	return nil
}

// Blocks walks every block from the first payload to the epilogue.
func Blocks(data []byte, l format.Layout) error {
	if err := Bookkeeping(data, l); err != nil {
		return err
	}
	_, err := walk(data, l)
	return err
}

// FreeLists validates every class list against the free blocks of the heap.
func FreeLists(data []byte, l format.Layout) error {
	if err := Bookkeeping(data, l); err != nil {
		return err
	}
	free, err := walk(data, l)
	if err != nil {
		return err
	}
	return freeLists(data, l, free)
}

// walk validates the block sequence and returns the free block payloads
// mapped to their sizes.
func walk(data []byte, l format.Layout) (map[int]int, error) {
	free := make(map[int]int)
	prevFree := false
	p := l.FirstPayload()

	for {
		hdr := p - format.WordSize
		tag, ok := buf.U32At(data, hdr)
		if !ok {
			return nil, fail(TypeBlock, hdr, "header outside region (len 0x%X)", len(data))
		}
		size := int(format.TagSize(tag))
		alloc := format.TagAllocated(tag)

		if size == 0 {
			if !alloc {
				return nil, fail(TypeBlock, hdr, "epilogue not marked allocated")
			}
			if hdr+format.WordSize != len(data) {
				return nil, fail(TypeBlock, hdr, "epilogue is not the last word (region ends at 0x%X)", len(data))
			}
			return free, nil
		}

		if r := format.TagReserved(tag); r != 0 {
			return nil, fail(TypeBlock, hdr, "reserved tag bits set: 0x%X", r)
		}
		if !format.IsAligned8(p) {
			return nil, fail(TypeBlock, p, "payload not 8-byte aligned")
		}
		if size < format.MinBlockSize {
			return nil, fail(TypeBlock, hdr, "block size %d below minimum %d", size, format.MinBlockSize)
		}
		ftr := p + size - format.DoubleWord
		// Room for the footer and the following header.
		if !buf.Within(ftr, format.DoubleWord, 0, len(data)) {
			return nil, fail(TypeBlock, hdr, "block size %d runs past region end 0x%X", size, len(data))
		}
		if ftag := format.ReadU32(data, ftr); ftag != tag {
			return nil, &ValidationError{
				Type:    TypeBlock,
				Message: "header and footer disagree",
				Offset:  hdr,
				Details: map[string]interface{}{"header": tag, "footer": ftag},
			}
		}

		if !alloc {
			if prevFree {
				return nil, fail(TypeBlock, hdr, "adjacent free blocks not coalesced")
			}
			free[p] = size
		}
		prevFree = !alloc
		p += size
	}
}

func freeLists(data []byte, l format.Layout, free map[int]int) error {
	if !l.Linked() {
		return nil
	}
	seen := make(map[int]int, len(free))

	for c := 0; c < l.ListLimit; c++ {
		pred := format.NilOffset
		cur := int(format.ReadU32(data, l.RootOffset(c)))
		for cur != format.NilOffset {
			if owner, dup := seen[cur]; dup {
				return fail(TypeFreeList, cur, "block reached twice (first in class %d, again in class %d)", owner, c)
			}
			size, ok := free[cur]
			if !ok {
				return fail(TypeFreeList, cur, "class %d links a block that is not a free block", c)
			}
			if got := format.ClassOf(size, l.ListLimit); got != c {
				return fail(TypeFreeList, cur, "block of size %d filed in class %d, belongs in %d", size, c, got)
			}
			if back := int(format.ReadU32(data, cur+format.PredLinkOffset)); back != pred {
				return fail(TypeFreeList, cur, "pred link 0x%X, expected 0x%X", back, pred)
			}
			seen[cur] = c
			pred = cur
			cur = int(format.ReadU32(data, cur+format.SuccLinkOffset))
		}
	}

	if len(seen) != len(free) {
		for p := range free {
			if _, ok := seen[p]; !ok {
				return &ValidationError{
					Type:    TypeFreeList,
					Message: "free block missing from its class list",
					Offset:  p,
					Details: map[string]interface{}{"listed": len(seen), "free": len(free)},
				}
			}
		}
	}
	return nil
}

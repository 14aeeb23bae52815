// Package verify checks the structural invariants of a heap region.
//
// It is the heap checker: the allocator's Check method and most allocator
// tests call AllInvariants after every operation. The checks never trust
// the region. Every offset is bounds-checked, so a corrupted heap yields a
// *ValidationError instead of a panic.
//
// Validation categories:
//   - Bookkeeping: pad word, prologue header and footer, unused root words.
//   - Blocks: walking from the first block to the epilogue, every block is
//     8-aligned, at least 16 bytes, has matching header and footer, and no
//     two adjacent blocks are free. The epilogue is the last word.
//   - FreeLists: every class list is a well-formed doubly linked list whose
//     members are free blocks of that class, and every free block found by
//     the walk is on exactly one list.
//
// File runs the same checks against a heap file mapped read-only.
//
// Example:
//
//	if err := verify.AllInvariants(region.Bytes(), format.Layout{ListLimit: 12}); err != nil {
//	    var verr *verify.ValidationError
//	    if errors.As(err, &verr) {
//	        fmt.Printf("%s at 0x%X\n", verr.Type, verr.Offset)
//	    }
//	}
package verify

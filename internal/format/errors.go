package format

import "errors"

var (
	// ErrTruncated indicates the buffer lacked the bytes required for a structure.
	ErrTruncated = errors.New("format: truncated buffer")
	// ErrBadPrologue indicates the prologue tags do not match the layout.
	ErrBadPrologue = errors.New("format: prologue mismatch")
)

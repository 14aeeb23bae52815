package verify

import (
	"github.com/pkg/errors"

	"github.com/joshuapare/heapkit/internal/format"
	"github.com/joshuapare/heapkit/internal/mmfile"
)

// File maps the heap file at path read-only and runs AllInvariants on it.
// I/O failures are returned wrapped; invariant violations are returned as
// *ValidationError.
func File(path string, l format.Layout) error {
	data, release, err := mmfile.Map(path)
	if err != nil {
		return errors.Wrap(err, "verify")
	}
	verr := AllInvariants(data, l)
	if err := release(); err != nil && verr == nil {
		return errors.Wrap(err, "verify")
	}
	return verr
}

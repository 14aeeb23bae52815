//go:build !unix

package mmfile

import (
	"os"

	"github.com/pkg/errors"
)

// Map reads the entire file when mmap is not available.
func Map(path string) ([]byte, func() error, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "mmfile: read %s", path)
	}
	return data, noop, nil
}

func noop() error { return nil }

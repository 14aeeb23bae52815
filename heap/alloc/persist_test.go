//go:build linux || darwin

package alloc

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/heapkit/heap/dirty"
	"github.com/joshuapare/heapkit/heap/region"
)

func TestPersist_ReopenMappedHeap(t *testing.T) {
	for _, pol := range allPolicies {
		t.Run(pol.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "heap.bin")
			cfg := pol.cfg

			m, err := region.CreateMapped(path, &region.MappedOptions{Prefault: true})
			require.NoError(t, err)
			tr := dirty.NewTracker(m)

			a, err := New(m, tr, &cfg)
			require.NoError(t, err)

			keep := mustMalloc(t, a, 100)
			drop := mustMalloc(t, a, 5000)
			other := mustMalloc(t, a, 30)
			fill(t, a, keep, 100, 11)
			fill(t, a, other, 30, 99)
			require.NoError(t, a.Touch(keep))
			require.NoError(t, a.Touch(other))
			require.NoError(t, a.Free(drop))
			assertInvariants(t, a)

			wantLayout := layoutOf(a)
			wantUsage := a.Usage()

			require.NoError(t, tr.Flush(context.Background(), dirty.FlushAuto))
			require.NoError(t, m.Close())

			m2, err := region.OpenMapped(path, nil)
			require.NoError(t, err)
			defer m2.Close()

			checked := cfg
			checked.Checked = true
			b, err := Open(m2, dirty.NewTracker(m2), &checked)
			require.NoError(t, err)

			if diff := cmp.Diff(wantLayout, layoutOf(b)); diff != "" {
				t.Fatalf("layout changed across reopen (-want +got):\n%s", diff)
			}
			assert.Equal(t, wantUsage, b.Usage())
			requireFilled(t, b, keep, 100, 11)
			requireFilled(t, b, other, 30, 99)

			// The reopened heap reuses the freed block.
			reused := mustMalloc(t, b, 4000)
			assert.Equal(t, drop, reused)
			require.NoError(t, b.Free(keep))
			assertInvariants(t, b)
		})
	}
}

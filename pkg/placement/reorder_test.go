package placement

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orneryd/ensembleplacement/pkg/membership"
	"github.com/orneryd/ensembleplacement/pkg/topology"
)

type rackMapResolver map[string]string

func (r rackMapResolver) Resolve(addr string) (string, error) {
	if rack, ok := r[addr]; ok {
		return rack, nil
	}
	return topology.DefaultRack, nil
}

func newReorderSnapshot(t *testing.T, resolver rackMapResolver, writable, readOnly []string) *membership.Snapshot {
	t.Helper()
	view := membership.NewView(topology.NewIndex(resolver))
	view.OnClusterChanged(writable, readOnly)
	return view.Snapshot()
}

func TestReorderReadSequenceS1LocalRackReorder(t *testing.T) {
	resolver := rackMapResolver{
		"n0":     "/r1/rack1",
		"n1":     "default",
		"n2":     "default",
		"n3":     "/r1/rack2",
		"caller": "/r1/rack3",
	}
	ensemble := []string{"n0", "n1", "n2", "n3"}
	snap := newReorderSnapshot(t, resolver, ensemble, nil)

	got := ReorderReadSequence(ensemble, []int{0, 1, 2, 3}, "caller", 2, snap)
	assert.Equal(t, []int{0, 3, 1, 2}, got)
}

func TestReorderReadSequenceS2NodeDownReorder(t *testing.T) {
	resolver := rackMapResolver{
		"n0":     "/r1/rack1",
		"n1":     "default",
		"n2":     "default",
		"n3":     "/r1/rack2",
		"caller": "/r1/rack1",
	}
	ensemble := []string{"n0", "n1", "n2", "n3"}
	snap := newReorderSnapshot(t, resolver, []string{"n1", "n2", "n3"}, nil)

	got := ReorderReadSequence(ensemble, []int{0, 1, 2, 3}, "caller", 2, snap)
	assert.Equal(t, []int{3, 1, 2, 0}, got)
}

func TestReorderReadSequenceS3NodeReadOnlyReorder(t *testing.T) {
	resolver := rackMapResolver{
		"n0":     "/r1/rack1",
		"n1":     "default",
		"n2":     "default",
		"n3":     "/r1/rack2",
		"caller": "/r1/rack1",
	}
	ensemble := []string{"n0", "n1", "n2", "n3"}
	snap := newReorderSnapshot(t, resolver, []string{"n1", "n2", "n3"}, []string{"n0"})

	got := ReorderReadSequence(ensemble, []int{0, 1, 2, 3}, "caller", 2, snap)
	assert.Equal(t, []int{3, 1, 2, 0}, got)
}

func TestReorderReadSequenceIsPermutation(t *testing.T) {
	resolver := rackMapResolver{
		"n0":     "/r1/rack1",
		"n1":     "default",
		"n2":     "default",
		"n3":     "/r1/rack2",
		"caller": "/r1/rack3",
	}
	ensemble := []string{"n0", "n1", "n2", "n3"}
	snap := newReorderSnapshot(t, resolver, ensemble, nil)

	got := ReorderReadSequence(ensemble, []int{0, 1, 2, 3}, "caller", 2, snap)
	assert.ElementsMatch(t, []int{0, 1, 2, 3}, got)
}

func TestReorderReadSequenceUnknownCallerRegionReturnsUnchanged(t *testing.T) {
	resolver := rackMapResolver{
		"n0": "/r1/rack1",
		"n1": "/r1/rack2",
	}
	ensemble := []string{"n0", "n1"}
	snap := newReorderSnapshot(t, resolver, ensemble, nil)

	got := ReorderReadSequence(ensemble, []int{1, 0}, "", 2, snap)
	assert.Equal(t, []int{1, 0}, got)
}

func TestReorderReadLACSequenceSkipsWhenCallerRegionAbsentFromWriteSet(t *testing.T) {
	resolver := rackMapResolver{
		"n0":     "/r1/rack1",
		"n1":     "/r1/rack2",
		"caller": "/r2/rack1",
	}
	ensemble := []string{"n0", "n1"}
	snap := newReorderSnapshot(t, resolver, ensemble, nil)

	got := ReorderReadLACSequence(ensemble, []int{0, 1}, "caller", 2, snap)
	assert.Equal(t, []int{0, 1}, got)
}

func TestReorderReadLACSequenceMatchesDataReadWhenCallerRegionPresent(t *testing.T) {
	resolver := rackMapResolver{
		"n0":     "/r1/rack1",
		"n1":     "default",
		"n2":     "default",
		"n3":     "/r1/rack2",
		"caller": "/r1/rack3",
	}
	ensemble := []string{"n0", "n1", "n2", "n3"}
	snap := newReorderSnapshot(t, resolver, ensemble, nil)

	want := ReorderReadSequence(ensemble, []int{0, 1, 2, 3}, "caller", 2, snap)
	got := ReorderReadLACSequence(ensemble, []int{0, 1, 2, 3}, "caller", 2, snap)
	require.Equal(t, want, got)
}

package placement

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orneryd/ensembleplacement/pkg/config"
)

type fakeReporter struct {
	ensembles    int
	replacements int
	failures     int
	clusterSizes []int
}

func (f *fakeReporter) EnsembleCreated(ensemble []string, regions []string, elapsed time.Duration) {
	f.ensembles++
}
func (f *fakeReporter) BookieReplaced(oldAddr, newAddr string, elapsed time.Duration) {
	f.replacements++
}
func (f *fakeReporter) ClusterChanged(writable, readOnly int) {
	f.clusterSizes = append(f.clusterSizes, writable+readOnly)
}
func (f *fakeReporter) PlacementFailed(op string, err error) { f.failures++ }

func TestCoreRejectsCallsBeforeInitialize(t *testing.T) {
	core, err := NewCore(config.Default(), nil, nil, "", nil)
	require.NoError(t, err)

	_, err = core.NewEnsemble(2, 2, 1, nil)
	assert.Error(t, err)
}

func TestCoreRejectsCallsAfterUninitialize(t *testing.T) {
	core, err := NewCore(config.Default(), nil, nil, "", nil)
	require.NoError(t, err)
	require.NoError(t, core.Initialize())
	require.NoError(t, core.Uninitialize())

	_, err = core.NewEnsemble(2, 2, 1, nil)
	assert.Error(t, err)
}

func TestCoreEndToEndEnsembleAndReorder(t *testing.T) {
	resolver := rackMapResolver{
		"a": "/r1/rack1",
		"b": "/r1/rack2",
		"c": "/r2/rack1",
	}
	cfg := config.Default()
	cfg.MinRegionsForDurability = 1
	core, err := NewCore(cfg, resolver, nil, "a", NewStableRand())
	require.NoError(t, err)
	require.NoError(t, core.Initialize())
	defer core.Uninitialize()

	reporter := &fakeReporter{}
	core.SetReporter(reporter)

	require.NoError(t, core.OnClusterChanged([]string{"a", "b", "c"}, nil))
	assert.Equal(t, []int{3}, reporter.clusterSizes)

	ensemble, err := core.NewEnsemble(2, 1, 1, nil)
	require.NoError(t, err)
	assert.Len(t, ensemble, 2)
	assert.Equal(t, 1, reporter.ensembles)

	writeSet := make([]int, len(ensemble))
	for i := range ensemble {
		writeSet[i] = i
	}
	reordered, err := core.ReorderReadSequence(ensemble, writeSet)
	require.NoError(t, err)
	assert.ElementsMatch(t, writeSet, reordered)
}

func TestCoreReplaceBookieReportsEvent(t *testing.T) {
	resolver := rackMapResolver{
		"a": "/r1/rack1",
		"b": "/r1/rack2",
		"c": "/r1/rack3",
	}
	cfg := config.Default()
	cfg.MinRegionsForDurability = 1
	core, err := NewCore(cfg, resolver, nil, "", nil)
	require.NoError(t, err)
	require.NoError(t, core.Initialize())
	defer core.Uninitialize()

	reporter := &fakeReporter{}
	core.SetReporter(reporter)

	require.NoError(t, core.OnClusterChanged([]string{"a", "b", "c"}, nil))

	replacement, err := core.ReplaceBookie([]string{"a", "b"}, "a", 2, 2, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, "c", replacement)
	assert.Equal(t, 1, reporter.replacements)
}

func TestCoreReportsPlacementFailure(t *testing.T) {
	resolver := rackMapResolver{"a": "/r1/rack1"}
	cfg := config.Default()
	cfg.MinRegionsForDurability = 1
	core, err := NewCore(cfg, resolver, nil, "", nil)
	require.NoError(t, err)
	require.NoError(t, core.Initialize())
	defer core.Uninitialize()

	reporter := &fakeReporter{}
	core.SetReporter(reporter)

	require.NoError(t, core.OnClusterChanged([]string{"a"}, nil))

	_, err = core.NewEnsemble(2, 1, 1, nil)
	assert.ErrorIs(t, err, ErrNotEnoughBookies)
	assert.Equal(t, 1, reporter.failures)
	assert.Equal(t, 0, reporter.ensembles)
}

func TestCoreRegionOfReturnsErrUnknownNodeForUnobservedAddress(t *testing.T) {
	resolver := rackMapResolver{"a": "/r1/rack1"}
	cfg := config.Default()
	core, err := NewCore(cfg, resolver, nil, "", nil)
	require.NoError(t, err)
	require.NoError(t, core.Initialize())
	defer core.Uninitialize()

	require.NoError(t, core.OnClusterChanged([]string{"a"}, nil))

	region, err := core.RegionOf("a")
	require.NoError(t, err)
	assert.Equal(t, "/r1", region)

	_, err = core.RegionOf("never-seen")
	assert.ErrorIs(t, err, ErrUnknownNode)
}

func TestNewCoreRejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.MinRegionsForDurability = 0
	_, err := NewCore(cfg, nil, nil, "", nil)
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}

package topology

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResolver struct {
	racks map[string]string
}

func (f *fakeResolver) Resolve(addr string) (string, error) {
	rack, ok := f.racks[addr]
	if !ok {
		return "", errors.New("no such node")
	}
	return rack, nil
}

func TestRegionOfRack(t *testing.T) {
	assert.Equal(t, "/region1", RegionOfRack("/region1/rack1"))
	assert.Equal(t, "/region1", RegionOfRack("region1/rack1"))
	assert.Equal(t, DefaultRegion, RegionOfRack(""))
	assert.Equal(t, DefaultRegion, RegionOfRack("/"))
}

func TestIndexResolveFallsBackToDefault(t *testing.T) {
	idx := NewIndex(nil)
	region, rack := idx.Resolve("10.0.0.1:3181")
	assert.Equal(t, DefaultRegion, region)
	assert.Equal(t, DefaultRack, rack)
}

func TestIndexResolveUsesResolver(t *testing.T) {
	res := &fakeResolver{racks: map[string]string{
		"10.0.0.1:3181": "/region1/rack1",
	}}
	idx := NewIndex(res)
	region, rack := idx.Resolve("10.0.0.1:3181")
	assert.Equal(t, "/region1", region)
	assert.Equal(t, "/region1/rack1", rack)
}

func TestIndexResolveIsMemoized(t *testing.T) {
	calls := 0
	idx := NewIndex(resolverFunc(func(addr string) (string, error) {
		calls++
		return "/region1/rack1", nil
	}))
	idx.Resolve("a")
	idx.Resolve("a")
	assert.Equal(t, 1, calls)
}

func TestIndexAddRemoveNodePrunesEmptyRacksAndRegions(t *testing.T) {
	res := &fakeResolver{racks: map[string]string{"a": "/r1/rack1"}}
	idx := NewIndex(res)
	idx.AddNode("a")

	require.Equal(t, []string{"a"}, idx.NodesInRack("/r1/rack1"))
	require.Equal(t, []string{"/r1/rack1"}, idx.RacksInRegion("/r1"))

	idx.RemoveNode("a")
	assert.Empty(t, idx.NodesInRack("/r1/rack1"))
	assert.Empty(t, idx.RacksInRegion("/r1"))
	assert.NotContains(t, idx.Regions(), "/r1")
}

func TestIndexRegionsSorted(t *testing.T) {
	res := &fakeResolver{racks: map[string]string{
		"a": "/region2/rack1",
		"b": "/region1/rack1",
	}}
	idx := NewIndex(res)
	idx.AddNode("a")
	idx.AddNode("b")
	assert.Equal(t, []string{"/region1", "/region2"}, idx.Regions())
}

func TestIndexCacheIsConsultedBeforeResolver(t *testing.T) {
	calls := 0
	idx := NewIndex(resolverFunc(func(addr string) (string, error) {
		calls++
		return "/should-not-be-used/rack1", nil
	}))
	idx.SetCache(&fakeCache{
		data: map[string][2]string{"a": {"/cached-region", "/cached-region/rack1"}},
	})

	region, rack := idx.Resolve("a")
	assert.Equal(t, "/cached-region", region)
	assert.Equal(t, "/cached-region/rack1", rack)
	assert.Equal(t, 0, calls)
}

func TestIndexInvalidateForcesReResolve(t *testing.T) {
	rack := "/region1/rack1"
	res := &fakeResolver{racks: map[string]string{"a": rack}}
	idx := NewIndex(res)
	idx.AddNode("a")

	idx.Invalidate("a")
	_, stillKnown := idx.RegionOf("a")
	assert.False(t, stillKnown)

	region, _ := idx.Resolve("a")
	assert.Equal(t, "/region1", region)
}

type resolverFunc func(addr string) (string, error)

func (f resolverFunc) Resolve(addr string) (string, error) { return f(addr) }

type fakeCache struct {
	data map[string][2]string
}

func (f *fakeCache) Get(addr string) (region, rack string, ok bool) {
	v, found := f.data[addr]
	return v[0], v[1], found
}

func (f *fakeCache) Put(addr, region, rack string) {
	if f.data == nil {
		f.data = make(map[string][2]string)
	}
	f.data[addr] = [2]string{region, rack}
}

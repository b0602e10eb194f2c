package resolvercache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCachePutThenGetReturnsStoredPair(t *testing.T) {
	c, err := New(Options{})
	require.NoError(t, err)
	defer c.Close()

	c.Put("10.0.0.1:3181", "/region1", "/region1/rack1")

	region, rack, ok := c.Get("10.0.0.1:3181")
	require.True(t, ok)
	assert.Equal(t, "/region1", region)
	assert.Equal(t, "/region1/rack1", rack)
}

func TestCacheGetMissReturnsFalse(t *testing.T) {
	c, err := New(Options{})
	require.NoError(t, err)
	defer c.Close()

	_, _, ok := c.Get("unknown")
	assert.False(t, ok)
}

func TestCacheSurvivesHotTierEviction(t *testing.T) {
	c, err := New(Options{})
	require.NoError(t, err)
	defer c.Close()

	c.Put("addr", "/region1", "/region1/rack1")
	c.hot.Clear()

	region, rack, ok := c.Get("addr")
	require.True(t, ok, "durable tier should still resolve after the hot tier is cleared")
	assert.Equal(t, "/region1", region)
	assert.Equal(t, "/region1/rack1", rack)
}

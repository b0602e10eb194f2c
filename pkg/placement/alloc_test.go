package placement

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocateEvenSplit(t *testing.T) {
	order := []string{"/r1", "/r2", "/r3"}
	avail := map[string]int{"/r1": 10, "/r2": 10, "/r3": 10}

	alloc, ok := allocate(6, order, avail)
	require.True(t, ok)
	assert.Equal(t, 2, alloc["/r1"])
	assert.Equal(t, 2, alloc["/r2"])
	assert.Equal(t, 2, alloc["/r3"])
}

func TestAllocateRemainderGoesToEarlierRegions(t *testing.T) {
	order := []string{"/r1", "/r2"}
	avail := map[string]int{"/r1": 10, "/r2": 10}

	alloc, ok := allocate(5, order, avail)
	require.True(t, ok)
	assert.Equal(t, 3, alloc["/r1"])
	assert.Equal(t, 2, alloc["/r2"])
}

func TestAllocateSkipsRegionWithNoSlackForRemainder(t *testing.T) {
	order := []string{"/r1", "/r2"}
	avail := map[string]int{"/r1": 1, "/r2": 10}

	alloc, ok := allocate(3, order, avail)
	require.True(t, ok)
	assert.Equal(t, 1, alloc["/r1"])
	assert.Equal(t, 2, alloc["/r2"])
}

func TestAllocateRedistributesShortfall(t *testing.T) {
	order := []string{"/r1", "/r2"}
	avail := map[string]int{"/r1": 1, "/r2": 10}

	alloc, ok := allocate(4, order, avail)
	require.True(t, ok)
	assert.Equal(t, 1, alloc["/r1"])
	assert.Equal(t, 3, alloc["/r2"])
}

func TestAllocateInsufficientTotalAvailability(t *testing.T) {
	order := []string{"/r1", "/r2"}
	avail := map[string]int{"/r1": 1, "/r2": 1}

	_, ok := allocate(5, order, avail)
	assert.False(t, ok)
}

func TestAllocateNoRegions(t *testing.T) {
	_, ok := allocate(0, nil, nil)
	assert.True(t, ok)

	_, ok = allocate(3, nil, nil)
	assert.False(t, ok)
}

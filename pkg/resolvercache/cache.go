// Package resolvercache implements topology.Cache with a two-tier store: a
// ristretto in-process hot cache in front of a badger-backed durable tier,
// so that rack/region resolutions survive a process restart without
// forcing every node to be re-resolved through the DNS/config resolver on
// the first placement call after startup (SPEC_FULL.md section 3.1).
package resolvercache

import (
	"fmt"
	"log"
	"strings"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/ristretto/v2"
)

const keySeparator = "\x00"

// Cache is a topology.Cache backed by badger (durable tier) and ristretto
// (hot tier). Get checks the hot tier first; a miss falls through to
// badger and, on a badger hit, repopulates the hot tier. Put writes both
// tiers; the badger write is best-effort and logged rather than
// propagated, matching topology.Cache's contract that caching is an
// optimization, never a source of truth.
type Cache struct {
	hot     *ristretto.Cache[string, [2]string]
	durable *badger.DB
}

// Options configures the on-disk durable tier.
type Options struct {
	// Dir is the badger data directory. Empty uses badger.DefaultOptions
	// with in-memory mode, suitable for tests.
	Dir string

	// HotCapacity bounds the number of entries ristretto keeps in memory.
	// Zero defaults to 10000.
	HotCapacity int64
}

// New opens the durable tier at opts.Dir (or an in-memory badger instance
// when Dir is empty) and sizes the hot tier from opts.HotCapacity.
func New(opts Options) (*Cache, error) {
	capacity := opts.HotCapacity
	if capacity <= 0 {
		capacity = 10000
	}

	hot, err := ristretto.NewCache(&ristretto.Config[string, [2]string]{
		NumCounters: capacity * 10,
		MaxCost:     capacity,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("resolvercache: building hot cache: %w", err)
	}

	bopts := badger.DefaultOptions(opts.Dir)
	if opts.Dir == "" {
		bopts = bopts.WithInMemory(true)
	}
	bopts = bopts.WithLogger(nil)

	db, err := badger.Open(bopts)
	if err != nil {
		hot.Close()
		return nil, fmt.Errorf("resolvercache: opening durable tier: %w", err)
	}

	return &Cache{hot: hot, durable: db}, nil
}

// Close releases both tiers.
func (c *Cache) Close() error {
	c.hot.Close()
	return c.durable.Close()
}

// Get implements topology.Cache.
func (c *Cache) Get(addr string) (region, rack string, ok bool) {
	if v, found := c.hot.Get(addr); found {
		return v[0], v[1], true
	}

	var pair [2]string
	err := c.durable.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(addr))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			pair = splitPair(string(val))
			return nil
		})
	})
	if err != nil {
		return "", "", false
	}

	c.hot.Set(addr, pair, 1)
	return pair[0], pair[1], true
}

// Put implements topology.Cache. The durable write is logged on failure
// rather than returned: a cache write failure must never block placement.
func (c *Cache) Put(addr, region, rack string) {
	c.hot.Set(addr, [2]string{region, rack}, 1)

	err := c.durable.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(addr), []byte(joinPair(region, rack)))
	})
	if err != nil {
		log.Printf("[ResolverCache] durable write for %s failed: %v", addr, err)
	}
}

func joinPair(region, rack string) string {
	return region + keySeparator + rack
}

func splitPair(s string) [2]string {
	parts := strings.SplitN(s, keySeparator, 2)
	if len(parts) != 2 {
		return [2]string{}
	}
	return [2]string{parts[0], parts[1]}
}

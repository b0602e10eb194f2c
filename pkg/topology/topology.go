// Package topology maintains the mapping between node addresses and the
// region/rack they live in, plus the reverse indices (rack -> nodes,
// region -> racks) that the placement selectors read from.
package topology

import (
	"sort"
	"strings"
	"sync"
)

// DefaultRegion is used when a node's region cannot be resolved.
const DefaultRegion = "/default-region"

// DefaultRack is used when a node's rack cannot be resolved.
const DefaultRack = "/default-region/default-rack"

// Resolver maps a node address to its rack path. It never needs to return
// the region: the region is always derived from the rack path's first
// segment (see RegionOfRack). A resolver that cannot place an address
// should return a non-nil error; the Index falls back to DefaultRack and
// never propagates the failure to callers.
type Resolver interface {
	Resolve(addr string) (rack string, err error)
}

// Cache is the capability contract for an optional resolution cache sitting
// in front of Resolver. pkg/resolvercache provides a badger+ristretto backed
// implementation; tests can use an in-memory map.
type Cache interface {
	Get(addr string) (region, rack string, ok bool)
	Put(addr, region, rack string)
}

// RegionOfRack derives a region label from a rack path by taking its first
// "/"-separated, non-empty segment. Lexicographic ordering on the resulting
// label is the tie-break this module uses whenever region order is otherwise
// unspecified (see DESIGN.md, open question (a)).
func RegionOfRack(rack string) string {
	trimmed := strings.TrimPrefix(rack, "/")
	if trimmed == "" {
		return DefaultRegion
	}
	parts := strings.SplitN(trimmed, "/", 2)
	if parts[0] == "" {
		return DefaultRegion
	}
	return "/" + parts[0]
}

// Index resolves addresses to (region, rack) and keeps the reverse indices
// rack -> nodes and region -> racks up to date. All reads and writes are
// serialized through a single mutex: writes (AddNode/RemoveNode/Invalidate,
// SetCache, and Resolve when it registers a newly resolved address) take the
// write lock; everything else only needs the read lock.
type Index struct {
	mu    sync.RWMutex
	res   Resolver
	cache Cache

	regionOf    map[string]string
	rackOf      map[string]string
	rackNodes   map[string]map[string]struct{}
	regionRacks map[string]map[string]struct{}
}

// NewIndex creates an Index backed by the given resolver. A nil resolver is
// accepted; every address then resolves to the default region/rack.
func NewIndex(resolver Resolver) *Index {
	return &Index{
		res:         resolver,
		regionOf:    make(map[string]string),
		rackOf:      make(map[string]string),
		rackNodes:   make(map[string]map[string]struct{}),
		regionRacks: make(map[string]map[string]struct{}),
	}
}

// SetCache installs an optional resolution cache. Must be called before the
// index starts serving resolve/addNode traffic from multiple goroutines.
func (idx *Index) SetCache(c Cache) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.cache = c
}

// Resolve returns the (region, rack) for addr, resolving and caching it on
// first use. It never fails: an unresolvable address maps to the defaults.
func (idx *Index) Resolve(addr string) (region, rack string) {
	idx.mu.RLock()
	if r, ok := idx.rackOf[addr]; ok {
		region, rack = idx.regionOf[addr], r
		idx.mu.RUnlock()
		return region, rack
	}
	idx.mu.RUnlock()

	if idx.cache != nil {
		if r, rk, ok := idx.cache.Get(addr); ok {
			idx.register(addr, r, rk)
			return r, rk
		}
	}

	rack = DefaultRack
	if idx.res != nil {
		if rk, err := idx.res.Resolve(addr); err == nil && rk != "" {
			rack = rk
		}
	}
	region = RegionOfRack(rack)

	if idx.cache != nil {
		idx.cache.Put(addr, region, rack)
	}
	idx.register(addr, region, rack)
	return region, rack
}

func (idx *Index) register(addr, region, rack string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.regionOf[addr] = region
	idx.rackOf[addr] = rack
	idx.indexRackLocked(rack, region, addr)
}

func (idx *Index) indexRackLocked(rack, region, addr string) {
	if idx.rackNodes[rack] == nil {
		idx.rackNodes[rack] = make(map[string]struct{})
	}
	idx.rackNodes[rack][addr] = struct{}{}
	if idx.regionRacks[region] == nil {
		idx.regionRacks[region] = make(map[string]struct{})
	}
	idx.regionRacks[region][rack] = struct{}{}
}

// AddNode resolves addr (if unknown) and places it in the reverse indices.
// Idempotent.
func (idx *Index) AddNode(addr string) {
	idx.Resolve(addr)
}

// RemoveNode drops addr from the reverse indices. Idempotent. Racks left
// empty by the removal are pruned, and regions left with no racks are
// pruned in turn, preserving the "non-empty while referenced" invariant.
func (idx *Index) RemoveNode(addr string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	region, ok := idx.regionOf[addr]
	if !ok {
		return
	}
	rack := idx.rackOf[addr]

	delete(idx.regionOf, addr)
	delete(idx.rackOf, addr)

	if nodes := idx.rackNodes[rack]; nodes != nil {
		delete(nodes, addr)
		if len(nodes) == 0 {
			delete(idx.rackNodes, rack)
			if racks := idx.regionRacks[region]; racks != nil {
				delete(racks, rack)
				if len(racks) == 0 {
					delete(idx.regionRacks, region)
				}
			}
		}
	}
}

// Invalidate drops the in-memory resolution for a single address without
// touching any other node's entry, so a suspected-stale placement (the node
// moved racks) can be re-resolved on next use instead of forcing a full
// onClusterChanged churn. See SPEC_FULL.md section 4 ("network topology
// change listener"). A Cache installed with SetCache is not cleared: if it
// still holds addr, the next Resolve returns that cached entry instead of
// querying the Resolver.
func (idx *Index) Invalidate(addr string) {
	idx.RemoveNode(addr)
}

// NodesInRack returns, in stable sorted order, the addresses known to live
// in rack.
func (idx *Index) NodesInRack(rack string) []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return sortedKeys(idx.rackNodes[rack])
}

// RacksInRegion returns, in stable sorted order, the racks known to belong
// to region.
func (idx *Index) RacksInRegion(region string) []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return sortedKeys(idx.regionRacks[region])
}

// RegionOf returns the region addr was last resolved to, and whether addr
// has ever been observed.
func (idx *Index) RegionOf(addr string) (string, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	r, ok := idx.regionOf[addr]
	return r, ok
}

// RackOf returns the rack addr was last resolved to, and whether addr has
// ever been observed.
func (idx *Index) RackOf(addr string) (string, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	r, ok := idx.rackOf[addr]
	return r, ok
}

// Regions returns every region currently referenced by at least one rack,
// in canonical (lexicographic) order.
func (idx *Index) Regions() []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return sortedKeys(idx.regionRacks)
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

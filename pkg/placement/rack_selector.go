package placement

import (
	"slices"
	"sort"
)

// RackSelector picks nodes so that no two share a rack where avoidable,
// per spec.md section 4.3. It operates over a fixed candidate pool (handed
// to it by the caller, typically one region's writable nodes) and is
// stateless across calls: construct a new one per selection.
type RackSelector struct {
	nodesByRack map[string][]string
	localRack   string
	rand        RandSource
}

// NewRackSelector builds a selector over nodesByRack, a mapping from rack
// path to the (unsorted, possibly duplicated) addresses known to live
// there. localRack is the caller's own rack, consulted when a pick is
// requested with preferLocal set.
func NewRackSelector(nodesByRack map[string][]string, localRack string, rand RandSource) *RackSelector {
	if rand == nil {
		rand = NewStableRand()
	}
	cp := make(map[string][]string, len(nodesByRack))
	for rack, addrs := range nodesByRack {
		dup := make([]string, len(addrs))
		copy(dup, addrs)
		cp[rack] = dup
	}
	return &RackSelector{nodesByRack: cp, localRack: localRack, rand: rand}
}

// PickN returns count distinct addresses, preferring one new rack per pick
// until every rack is covered, then round-robining across racks for any
// remaining picks. excluded addresses are never returned. The tie-break
// within a rack is a stable lexicographic sort followed by a Fisher-Yates
// shuffle seeded by the selector's RandSource (spec.md section 9(a)).
func (s *RackSelector) PickN(count int, excluded map[string]struct{}, preferLocal bool) ([]string, error) {
	if count <= 0 {
		return nil, nil
	}

	pool := make(map[string][]string, len(s.nodesByRack))
	total := 0
	for rack, addrs := range s.nodesByRack {
		filtered := make([]string, 0, len(addrs))
		for _, addr := range addrs {
			if _, skip := excluded[addr]; skip {
				continue
			}
			filtered = append(filtered, addr)
		}
		if len(filtered) == 0 {
			continue
		}
		sort.Strings(filtered)
		filtered = slices.Compact(filtered)
		shuffle(filtered, s.rand)
		pool[rack] = filtered
		total += len(filtered)
	}

	if total < count {
		return nil, ErrNotEnoughNodes
	}

	order := rackOrder(pool, s.localRack, preferLocal)
	cursor := make(map[string]int, len(pool))

	result := make([]string, 0, count)
	for len(result) < count {
		progressed := false
		for _, rack := range order {
			if len(result) == count {
				break
			}
			addrs := pool[rack]
			i := cursor[rack]
			if i >= len(addrs) {
				continue
			}
			result = append(result, addrs[i])
			cursor[rack] = i + 1
			progressed = true
		}
		if !progressed {
			break
		}
	}

	if len(result) < count {
		return nil, ErrNotEnoughNodes
	}
	return result, nil
}

// rackOrder returns the racks in the round-robin visiting order: the local
// rack first when preferLocal is set and it still has candidates, then
// every other rack in canonical (lexicographic) order.
func rackOrder(pool map[string][]string, localRack string, preferLocal bool) []string {
	rest := make([]string, 0, len(pool))
	hasLocal := false
	for rack := range pool {
		if preferLocal && rack == localRack {
			hasLocal = true
			continue
		}
		rest = append(rest, rack)
	}
	sort.Strings(rest)

	if !hasLocal {
		return rest
	}
	return append([]string{localRack}, rest...)
}

// shuffle performs an in-place Fisher-Yates shuffle driven by rand.
func shuffle(addrs []string, rand RandSource) {
	for i := len(addrs) - 1; i > 0; i-- {
		j := rand.Intn(i + 1)
		addrs[i], addrs[j] = addrs[j], addrs[i]
	}
}

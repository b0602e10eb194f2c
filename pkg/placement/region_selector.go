package placement

import (
	"sort"

	"github.com/orneryd/ensembleplacement/pkg/config"
	"github.com/orneryd/ensembleplacement/pkg/membership"
)

// RegionSelector composes one RackSelector per active region to build full
// ensembles that satisfy region diversity and write-quorum durability
// coverage (spec.md section 4.4). It owns no long-lived state of its own:
// every call builds its rack selectors fresh from the snapshot handed in.
type RegionSelector struct {
	cfg  *config.Config
	rand RandSource
}

// NewRegionSelector builds a RegionSelector against cfg. rand drives the
// tie-break inside each region's RackSelector; pass NewStableRand() for
// reproducible output (the sorted candidates always receive the same fixed
// permutation, so the result is not in lexicographic order).
func NewRegionSelector(cfg *config.Config, rand RandSource) *RegionSelector {
	return &RegionSelector{cfg: cfg, rand: rand}
}

// byRegionRack groups a snapshot's writable, non-excluded nodes first by
// region then by rack.
func byRegionRack(snap *membership.Snapshot, excluded map[string]struct{}) map[string]map[string][]string {
	topo := snap.Topology()
	out := make(map[string]map[string][]string)
	for addr := range snap.Writable() {
		if _, skip := excluded[addr]; skip {
			continue
		}
		if snap.IsQuarantined(addr) {
			continue
		}
		region, rack := topo.Resolve(addr)
		if out[region] == nil {
			out[region] = make(map[string][]string)
		}
		out[region][rack] = append(out[region][rack], addr)
	}
	return out
}

// regionOrder returns the canonical, priority-ordered region list: the
// configured RegionsToWrite when non-empty, otherwise every region known to
// the snapshot's topology in lexicographic order.
func regionOrder(cfg *config.Config, snap *membership.Snapshot) []string {
	if len(cfg.RegionsToWrite) > 0 {
		out := make([]string, len(cfg.RegionsToWrite))
		copy(out, cfg.RegionsToWrite)
		return out
	}
	return snap.Topology().Regions()
}

// NewEnsemble builds an ordered ensemble of E distinct, non-excluded
// addresses satisfying write-quorum (W) and ack-quorum (A) size
// constraints, interleaved across regions so that every write-set window
// of size W spans at least cfg.MinRegionsForDurability regions whenever the
// cluster's diversity allows it.
func (rs *RegionSelector) NewEnsemble(snap *membership.Snapshot, localAddr string, e, w, a int, excluded map[string]struct{}) ([]string, error) {
	if e <= 0 || w < 1 || w > e || a < 1 || a > w {
		return nil, ErrInvalidConfiguration
	}

	order := regionOrder(rs.cfg, snap)
	if len(order) == 0 {
		return nil, ErrNotEnoughBookies
	}

	byRegion := byRegionRack(snap, excluded)
	availability := make(map[string]int, len(order))
	for _, r := range order {
		for _, addrs := range byRegion[r] {
			availability[r] += len(addrs)
		}
	}

	alloc, ok := allocate(e, order, availability)
	if !ok {
		return nil, ErrNotEnoughBookies
	}

	localRegion := ""
	if localAddr != "" {
		localRegion, _ = snap.Topology().RegionOf(localAddr)
	}
	localRack := ""
	if localAddr != "" {
		localRack, _ = snap.Topology().RackOf(localAddr)
	}

	perRegionPicks := make(map[string][]string, len(order))
	placed := make(map[string]struct{}, e)
	for _, r := range order {
		want := alloc[r]
		if want == 0 {
			continue
		}
		combinedExcluded := make(map[string]struct{}, len(excluded)+len(placed))
		for addr := range excluded {
			combinedExcluded[addr] = struct{}{}
		}
		for addr := range placed {
			combinedExcluded[addr] = struct{}{}
		}

		selector := NewRackSelector(byRegion[r], localRack, rs.rand)
		picks, err := selector.PickN(want, combinedExcluded, r == localRegion)
		if err != nil {
			return nil, ErrNotEnoughBookies
		}
		perRegionPicks[r] = picks
		for _, addr := range picks {
			placed[addr] = struct{}{}
		}
	}

	ensemble := interleave(order, perRegionPicks, e)
	if len(ensemble) != e {
		return nil, ErrNotEnoughBookies
	}

	if rs.cfg.EnableValidation && len(order) > 1 {
		if err := validateCoverage(ensemble, w, rs.cfg.MinRegionsForDurability, snap); err != nil {
			return nil, err
		}
	}

	return ensemble, nil
}

// interleave round-robins the per-region picks into a single ensemble,
// keyed by region index, so that consecutive ensemble slots favor distinct
// regions (spec.md section 4.4).
func interleave(order []string, perRegion map[string][]string, total int) []string {
	cursor := make(map[string]int, len(order))
	out := make([]string, 0, total)
	for len(out) < total {
		progressed := false
		for _, r := range order {
			if len(out) == total {
				break
			}
			picks := perRegion[r]
			i := cursor[r]
			if i >= len(picks) {
				continue
			}
			out = append(out, picks[i])
			cursor[r] = i + 1
			progressed = true
		}
		if !progressed {
			break
		}
	}
	return out
}

// validateCoverage checks that every write-set window of size w spans at
// least minRegions distinct regions (spec.md section 3, invariant (c), and
// section 8, property 3).
func validateCoverage(ensemble []string, w, minRegions int, snap *membership.Snapshot) error {
	e := len(ensemble)
	for i := 0; i < e; i++ {
		seen := make(map[string]struct{})
		for j := 0; j < w; j++ {
			addr := ensemble[(i+j)%e]
			region, _ := snap.Topology().Resolve(addr)
			seen[region] = struct{}{}
		}
		if len(seen) < minRegions {
			return ErrNotEnoughBookies
		}
	}
	return nil
}

// writeSetRegions returns the set of distinct regions covered by the
// write-set window starting at i, used by the replacement planner to check
// whether swapping a node would drop coverage below the durability bar.
func writeSetRegions(ensemble []string, i, w int, snap *membership.Snapshot) map[string]struct{} {
	e := len(ensemble)
	seen := make(map[string]struct{})
	for j := 0; j < w; j++ {
		addr := ensemble[(i+j)%e]
		region, _ := snap.Topology().Resolve(addr)
		seen[region] = struct{}{}
	}
	return seen
}

func sortedAddrs(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for addr := range set {
		out = append(out, addr)
	}
	sort.Strings(out)
	return out
}

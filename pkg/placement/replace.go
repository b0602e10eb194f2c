package placement

import (
	"github.com/orneryd/ensembleplacement/pkg/membership"
)

// ReplaceBookie picks a substitute for bookieToReplace within currentEnsemble,
// preferring (in order): another node in the same rack, another rack in the
// same region, then another region consistent with the configured
// regionsToWrite (spec.md section 4.5). The candidate must differ from
// every member of currentEnsemble and of excluded. When validation is
// enabled, the replacement must not drop the region coverage of any
// write-set window that currently contains bookieToReplace below
// MinRegionsForDurability, unless no such candidate exists — in which case
// the first distinct, non-excluded candidate is returned regardless of
// coverage.
func (rs *RegionSelector) ReplaceBookie(snap *membership.Snapshot, e, w, a int, currentEnsemble []string, bookieToReplace string, excluded map[string]struct{}) (string, error) {
	if e <= 0 || w < 1 || w > e || a < 1 || a > w {
		return "", ErrInvalidConfiguration
	}
	if len(currentEnsemble) != e {
		return "", ErrInvalidConfiguration
	}

	blocked := make(map[string]struct{}, len(excluded)+len(currentEnsemble)+1)
	for addr := range excluded {
		blocked[addr] = struct{}{}
	}
	for _, addr := range currentEnsemble {
		blocked[addr] = struct{}{}
	}
	blocked[bookieToReplace] = struct{}{}

	victimRegion, victimRack := snap.Topology().Resolve(bookieToReplace)
	victimIdx := -1
	for i, addr := range currentEnsemble {
		if addr == bookieToReplace {
			victimIdx = i
			break
		}
	}

	pools := replacementPools(snap, victimRegion, victimRack, blocked)

	var weakest string
	for _, pool := range pools {
		for _, candidate := range pool {
			if weakest == "" {
				weakest = candidate
			}
			if !rs.cfg.EnableValidation || victimIdx < 0 {
				return candidate, nil
			}
			if replacementPreservesCoverage(snap, currentEnsemble, victimIdx, w, rs.cfg.MinRegionsForDurability, candidate) {
				return candidate, nil
			}
		}
	}

	if weakest != "" {
		return weakest, nil
	}
	return "", ErrNotEnoughBookies
}

// replacementPools returns the three priority-ordered candidate pools from
// spec.md section 4.5, each sorted lexicographically for deterministic
// output given the same snapshot.
func replacementPools(snap *membership.Snapshot, victimRegion, victimRack string, blocked map[string]struct{}) [][]string {
	topo := snap.Topology()

	sameRack := make(map[string]struct{})
	sameRegionOtherRack := make(map[string]struct{})
	otherRegion := make(map[string]struct{})

	for addr := range snap.Writable() {
		if _, skip := blocked[addr]; skip {
			continue
		}
		if snap.IsQuarantined(addr) {
			continue
		}
		region, rack := topo.Resolve(addr)
		switch {
		case rack == victimRack && region == victimRegion:
			sameRack[addr] = struct{}{}
		case region == victimRegion:
			sameRegionOtherRack[addr] = struct{}{}
		default:
			otherRegion[addr] = struct{}{}
		}
	}

	return [][]string{
		sortedAddrs(sameRack),
		sortedAddrs(sameRegionOtherRack),
		sortedAddrs(otherRegion),
	}
}

// replacementPreservesCoverage reports whether swapping candidate in for
// the ensemble member at victimIdx keeps every write-set window containing
// victimIdx at or above minRegions distinct regions. It reuses
// writeSetRegions (region_selector.go) against a copy of ensemble with the
// substitution already applied, so the per-window region-counting logic is
// not duplicated between the Region-Aware Selector and the Replacement
// Planner.
func replacementPreservesCoverage(snap *membership.Snapshot, ensemble []string, victimIdx, w, minRegions int, candidate string) bool {
	e := len(ensemble)
	withCandidate := append([]string(nil), ensemble...)
	withCandidate[victimIdx] = candidate

	for start := 0; start < e; start++ {
		if !windowContains(start, w, e, victimIdx) {
			continue
		}
		if len(writeSetRegions(withCandidate, start, w, snap)) < minRegions {
			return false
		}
	}
	return true
}

func windowContains(start, w, e, idx int) bool {
	for j := 0; j < w; j++ {
		if (start+j)%e == idx {
			return true
		}
	}
	return false
}

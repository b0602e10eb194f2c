package placement

import (
	"github.com/orneryd/ensembleplacement/pkg/membership"
	"github.com/orneryd/ensembleplacement/pkg/topology"
)

// readClass buckets a write-set entry for read ordering (spec.md section
// 4.6). Local requires both region locality and writability: a node that
// shares the caller's region but is read-only or unavailable offers no
// locality advantage over a writable node elsewhere, so it is ranked with
// its liveness peers instead of with the local-writable group.
type readClass int

const (
	classLocal readClass = iota
	classRemoteWritable
	classRemoteReadOnly
	classUnavailable
)

func classify(addr, localRegion string, snap *membership.Snapshot) readClass {
	switch {
	case snap.IsWritable(addr):
		region, _ := snap.Topology().Resolve(addr)
		if region == localRegion {
			return classLocal
		}
		return classRemoteWritable
	case snap.IsReadOnly(addr):
		return classRemoteReadOnly
	default:
		return classUnavailable
	}
}

// ReorderReadSequence reorders writeSet (a list of indices into ensemble)
// for a data read. Local-writable entries come first in their original
// order; once K (remoteNodeReorderThreshold) of them have been emitted,
// one remote entry is interleaved before the remaining local entries
// resume, then the rest of the remotes follow in writable, read-only,
// unavailable order. If the caller's region is unknown/default, writeSet
// is returned unchanged.
func ReorderReadSequence(ensemble []string, writeSet []int, localAddr string, k int, snap *membership.Snapshot) []int {
	localRegion, _ := snap.Topology().Resolve(localAddr)
	if localAddr == "" || localRegion == topology.DefaultRegion {
		return append([]int(nil), writeSet...)
	}
	return reorder(ensemble, writeSet, localRegion, k, snap)
}

// ReorderReadLACSequence orders writeSet for a read-last-add-confirmed
// probe using the same classification as ReorderReadSequence, except it
// returns writeSet unchanged when the caller's region has no member at
// all in writeSet (spec.md section 4.6, 9(b)).
func ReorderReadLACSequence(ensemble []string, writeSet []int, localAddr string, k int, snap *membership.Snapshot) []int {
	localRegion, _ := snap.Topology().Resolve(localAddr)
	if localAddr == "" || localRegion == topology.DefaultRegion {
		return append([]int(nil), writeSet...)
	}

	hasLocalMember := false
	for _, idx := range writeSet {
		region, _ := snap.Topology().Resolve(ensemble[idx])
		if region == localRegion {
			hasLocalMember = true
			break
		}
	}
	if !hasLocalMember {
		return append([]int(nil), writeSet...)
	}

	return reorder(ensemble, writeSet, localRegion, k, snap)
}

func reorder(ensemble []string, writeSet []int, localRegion string, k int, snap *membership.Snapshot) []int {
	var local, remoteWritable, remoteReadOnly, unavailable []int
	for _, idx := range writeSet {
		switch classify(ensemble[idx], localRegion, snap) {
		case classLocal:
			local = append(local, idx)
		case classRemoteWritable:
			remoteWritable = append(remoteWritable, idx)
		case classRemoteReadOnly:
			remoteReadOnly = append(remoteReadOnly, idx)
		default:
			unavailable = append(unavailable, idx)
		}
	}

	remote := append(append([]int{}, remoteWritable...), remoteReadOnly...)
	remote = append(remote, unavailable...)

	split := k
	if split < 0 {
		split = 0
	}

	out := make([]int, 0, len(writeSet))
	if len(local) >= split && len(remote) > 0 {
		out = append(out, local[:split]...)
		out = append(out, remote[0])
		out = append(out, local[split:]...)
		out = append(out, remote[1:]...)
	} else {
		out = append(out, local...)
		out = append(out, remote...)
	}
	return out
}

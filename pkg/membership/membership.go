// Package membership tracks which nodes are currently writable, read-only,
// or quarantined, and hands out immutable snapshots for a single placement
// call to read from.
package membership

import (
	"sync"

	"github.com/orneryd/ensembleplacement/pkg/topology"
)

// View owns the Topology Index and the live writable/read-only/quarantined
// sets. All mutation goes through OnClusterChanged (or Quarantine /
// Unquarantine / InvalidateNode); everything else reads a consistent
// snapshot.
type View struct {
	mu   sync.RWMutex
	topo *topology.Index

	writable    map[string]struct{}
	readOnly    map[string]struct{}
	quarantined map[string]struct{}
}

// NewView creates a View backed by the given Topology Index.
func NewView(topo *topology.Index) *View {
	return &View{
		topo:        topo,
		writable:    make(map[string]struct{}),
		readOnly:    make(map[string]struct{}),
		quarantined: make(map[string]struct{}),
	}
}

// OnClusterChanged atomically replaces the writable and read-only sets.
// Overlapping input is accepted; a node present in both lists is placed in
// read-only (read-only wins). Nodes new to the union are added to the
// Topology Index; nodes dropped from the union are removed from it.
// Unresolvable addresses are accepted and fall back to the default region.
func (v *View) OnClusterChanged(writable, readOnly []string) {
	newRO := make(map[string]struct{}, len(readOnly))
	for _, addr := range readOnly {
		newRO[addr] = struct{}{}
	}

	newW := make(map[string]struct{}, len(writable))
	for _, addr := range writable {
		if _, excluded := newRO[addr]; excluded {
			continue
		}
		newW[addr] = struct{}{}
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	oldUnion := unionOf(v.writable, v.readOnly)
	newUnion := unionOf(newW, newRO)

	for addr := range newUnion {
		if _, existed := oldUnion[addr]; !existed {
			v.topo.AddNode(addr)
		}
	}
	for addr := range oldUnion {
		if _, remains := newUnion[addr]; !remains {
			v.topo.RemoveNode(addr)
			delete(v.quarantined, addr)
		}
	}

	v.writable = newW
	v.readOnly = newRO
}

// Quarantine marks addr as temporarily excluded without removing it from
// the writable/read-only sets it already belongs to. Quarantined nodes are
// treated like an excluded node by the selectors, but are tracked
// separately since they are expected to return (SPEC_FULL.md section 4).
func (v *View) Quarantine(addr string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.quarantined[addr] = struct{}{}
}

// Unquarantine clears a previously quarantined address.
func (v *View) Unquarantine(addr string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.quarantined, addr)
}

// InvalidateNode drops addr's cached topology resolution without touching
// the rest of the cluster, for when a single node's rack/region is
// suspected stale (SPEC_FULL.md section 4, "network topology change
// listener") and a full OnClusterChanged churn would be overkill. addr is
// re-added to the Topology Index immediately if it is still a member, so
// it is re-resolved rather than left unresolved. The re-add reads through
// the Topology Index's Cache when one is installed, and that cache is not
// cleared, so only an index without a cache (or a cache miss) re-queries
// the Resolver.
func (v *View) InvalidateNode(addr string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.topo.Invalidate(addr)
	if _, writable := v.writable[addr]; writable {
		v.topo.AddNode(addr)
	} else if _, readOnly := v.readOnly[addr]; readOnly {
		v.topo.AddNode(addr)
	}
}

// IsWritable reports whether addr is currently in the writable set.
func (v *View) IsWritable(addr string) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	_, ok := v.writable[addr]
	return ok
}

// IsReadOnly reports whether addr is currently in the read-only set.
func (v *View) IsReadOnly(addr string) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	_, ok := v.readOnly[addr]
	return ok
}

// Snapshot captures an immutable view of (writable, read-only, quarantined,
// topology) for the duration of a single selection call. It is owned
// exclusively by the caller that requested it and is discarded at the end
// of that call.
type Snapshot struct {
	writable    map[string]struct{}
	readOnly    map[string]struct{}
	quarantined map[string]struct{}
	topo        *topology.Index
}

// Snapshot returns a point-in-time, immutable copy of the View's state.
func (v *View) Snapshot() *Snapshot {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return &Snapshot{
		writable:    copySet(v.writable),
		readOnly:    copySet(v.readOnly),
		quarantined: copySet(v.quarantined),
		topo:        v.topo,
	}
}

// Topology returns the Topology Index backing this snapshot. Topology reads
// (Resolve, RacksInRegion, ...) are safe to call against it for the
// lifetime of the snapshot: topology writes are serialized independently
// and a selection call only ever reads.
func (s *Snapshot) Topology() *topology.Index { return s.topo }

// Writable returns the writable addresses captured in this snapshot.
func (s *Snapshot) Writable() map[string]struct{} { return s.writable }

// IsWritable reports whether addr was writable at snapshot time.
func (s *Snapshot) IsWritable(addr string) bool {
	_, ok := s.writable[addr]
	return ok
}

// IsReadOnly reports whether addr was read-only at snapshot time.
func (s *Snapshot) IsReadOnly(addr string) bool {
	_, ok := s.readOnly[addr]
	return ok
}

// IsQuarantined reports whether addr was quarantined at snapshot time.
func (s *Snapshot) IsQuarantined(addr string) bool {
	_, ok := s.quarantined[addr]
	return ok
}

func unionOf(sets ...map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{})
	for _, s := range sets {
		for addr := range s {
			out[addr] = struct{}{}
		}
	}
	return out
}

func copySet(s map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

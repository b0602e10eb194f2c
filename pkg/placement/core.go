package placement

import (
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/orneryd/ensembleplacement/pkg/config"
	"github.com/orneryd/ensembleplacement/pkg/membership"
	"github.com/orneryd/ensembleplacement/pkg/topology"
)

// Reporter receives placement lifecycle events for external observability.
// pkg/telemetry provides an OpenTelemetry-backed implementation; nil is a
// valid Core.Reporter (events are simply dropped). elapsed is the wall time
// the selector spent on the call, for latency reporting.
type Reporter interface {
	EnsembleCreated(ensemble []string, regions []string, elapsed time.Duration)
	BookieReplaced(oldAddr, newAddr string, elapsed time.Duration)
	ClusterChanged(writable, readOnly int)
	PlacementFailed(op string, err error)
}

// Core is the external interface surface the rest of the system drives:
// one Core per storage client, constructed once via NewCore, started via
// Initialize and torn down once via Uninitialize.
type Core struct {
	cfg      *config.Config
	topo     *topology.Index
	view     *membership.View
	selector *RegionSelector
	rand     RandSource
	reporter Reporter

	localAddr string

	started atomic.Bool
	closed  atomic.Bool
}

// NewCore builds a Core from cfg, a topology resolver and optional cache,
// and the local node's address (used to bias selection and read ordering
// toward the caller). rand drives tie-breaks; pass nil for NewStableRand().
func NewCore(cfg *config.Config, resolver topology.Resolver, cache topology.Cache, localAddr string, rand RandSource) (*Core, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: nil config", ErrInvalidConfiguration)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
	}
	if rand == nil {
		rand = NewStableRand()
	}

	topo := topology.NewIndex(resolver)
	if cache != nil {
		topo.SetCache(cache)
	}
	view := membership.NewView(topo)

	return &Core{
		cfg:       cfg,
		topo:      topo,
		view:      view,
		selector:  NewRegionSelector(cfg, rand),
		rand:      rand,
		localAddr: localAddr,
	}, nil
}

// SetReporter installs a telemetry sink. Safe to call before Initialize or
// at any later point; nil clears it.
func (c *Core) SetReporter(r Reporter) {
	c.reporter = r
}

// Initialize marks the Core ready to serve placement calls. It is a no-op
// beyond the started flag: all real state is built in NewCore, mirroring
// how the teacher's standalone replicator treats Start as a readiness gate
// rather than a construction step.
func (c *Core) Initialize() error {
	if c.closed.Load() {
		return fmt.Errorf("placement: core already uninitialized")
	}
	c.started.Store(true)
	log.Printf("[Placement] initialized (local=%s)", c.localAddr)
	return nil
}

// Uninitialize releases the Core. Idempotent.
func (c *Core) Uninitialize() error {
	c.closed.Store(true)
	log.Printf("[Placement] uninitialized")
	return nil
}

func (c *Core) ready() error {
	if c.closed.Load() {
		return fmt.Errorf("placement: core is uninitialized")
	}
	if !c.started.Load() {
		return fmt.Errorf("placement: core not initialized")
	}
	return nil
}

// OnClusterChanged refreshes the writable/read-only node sets and the
// topology they resolve through.
func (c *Core) OnClusterChanged(writable, readOnly []string) error {
	if err := c.ready(); err != nil {
		return err
	}
	c.view.OnClusterChanged(writable, readOnly)
	if c.reporter != nil {
		c.reporter.ClusterChanged(len(writable), len(readOnly))
	}
	log.Printf("[Placement] cluster changed: %d writable, %d read-only", len(writable), len(readOnly))
	return nil
}

// NewEnsemble builds a fresh ensemble of size e, write-quorum w, ack-quorum
// a, avoiding the addresses in excluded.
func (c *Core) NewEnsemble(e, w, a int, excluded map[string]struct{}) ([]string, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	snap := c.view.Snapshot()
	start := time.Now()
	ensemble, err := c.selector.NewEnsemble(snap, c.localAddr, e, w, a, excluded)
	elapsed := time.Since(start)
	if err != nil {
		log.Printf("[Placement] newEnsemble failed: %v", err)
		if c.reporter != nil {
			c.reporter.PlacementFailed("newEnsemble", err)
		}
		return nil, err
	}
	if c.reporter != nil {
		c.reporter.EnsembleCreated(ensemble, regionsOf(snap, ensemble), elapsed)
	}
	return ensemble, nil
}

// ReplaceBookie finds a substitute for bookieToReplace within
// currentEnsemble, honoring the same e/w/a constraints the ensemble was
// built with.
func (c *Core) ReplaceBookie(currentEnsemble []string, bookieToReplace string, e, w, a int, excluded map[string]struct{}) (string, error) {
	if err := c.ready(); err != nil {
		return "", err
	}
	snap := c.view.Snapshot()
	start := time.Now()
	replacement, err := c.selector.ReplaceBookie(snap, e, w, a, currentEnsemble, bookieToReplace, excluded)
	elapsed := time.Since(start)
	if err != nil {
		log.Printf("[Placement] replaceBookie(%s) failed: %v", bookieToReplace, err)
		if c.reporter != nil {
			c.reporter.PlacementFailed("replaceBookie", err)
		}
		return "", err
	}
	if c.reporter != nil {
		c.reporter.BookieReplaced(bookieToReplace, replacement, elapsed)
	}
	return replacement, nil
}

// ReorderReadSequence orders writeSet (indices into ensemble) for a data
// read, biasing toward the local node and known-live members.
func (c *Core) ReorderReadSequence(ensemble []string, writeSet []int) ([]int, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	snap := c.view.Snapshot()
	return ReorderReadSequence(ensemble, writeSet, c.localAddr, c.cfg.RemoteNodeReorderThreshold, snap), nil
}

// ReorderReadLACSequence orders writeSet for a read-last-add-confirmed
// probe.
func (c *Core) ReorderReadLACSequence(ensemble []string, writeSet []int) ([]int, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	snap := c.view.Snapshot()
	return ReorderReadLACSequence(ensemble, writeSet, c.localAddr, c.cfg.RemoteNodeReorderThreshold, snap), nil
}

// RegionOf reports the region addr last resolved to. It returns
// ErrUnknownNode if addr has never been observed by the Topology Index
// (spec.md section 7) — selection paths never return this error, since
// they tolerate unknown addresses by falling back to the default region;
// it is surfaced only by this inspection helper.
func (c *Core) RegionOf(addr string) (string, error) {
	if err := c.ready(); err != nil {
		return "", err
	}
	region, ok := c.view.Snapshot().Topology().RegionOf(addr)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownNode, addr)
	}
	return region, nil
}

func regionsOf(snap *membership.Snapshot, ensemble []string) []string {
	seen := make(map[string]struct{}, len(ensemble))
	for _, addr := range ensemble {
		region, _ := snap.Topology().RegionOf(addr)
		seen[region] = struct{}{}
	}
	return sortedAddrs(seen)
}

package placement

import "errors"

// ErrNotEnoughNodes is returned by the Rack-Aware Selector when fewer than
// the requested count of distinct, non-excluded candidates remain.
var ErrNotEnoughNodes = errors.New("placement: not enough nodes to satisfy the request")

// ErrNotEnoughBookies is returned by the Region-Aware Selector and the
// Replacement Planner when the size, diversity, or exclusion constraints
// cannot be satisfied, including a durability-coverage validation failure.
var ErrNotEnoughBookies = errors.New("placement: not enough bookies to satisfy ensemble constraints")

// ErrInvalidConfiguration is returned when the caller-supplied parameters
// are internally inconsistent (W > E, A > W, non-positive sizes, a
// replacement ensemble whose length is not E, or a Config that fails
// Validate in NewCore). An empty region list is not reported with it: when
// no region is known, NewEnsemble returns ErrNotEnoughBookies.
var ErrInvalidConfiguration = errors.New("placement: invalid configuration")

// ErrUnknownNode is returned only by inspection helpers when an address has
// never been observed by the Topology Index. Selection paths never return
// it: they tolerate unknown addresses by mapping them to the default
// region.
var ErrUnknownNode = errors.New("placement: unknown node")

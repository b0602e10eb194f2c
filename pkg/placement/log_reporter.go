package placement

import (
	"log"
	"strings"
	"time"
)

// LogReporter is the default Reporter: it logs every placement event via
// the standard log package using the same bracketed "[Placement] ..."
// tag convention Core itself logs with (SPEC_FULL.md section 2.1). It
// carries no state and is safe to share across Cores.
type LogReporter struct{}

// NewLogReporter returns a LogReporter.
func NewLogReporter() *LogReporter { return &LogReporter{} }

// EnsembleCreated implements Reporter.
func (LogReporter) EnsembleCreated(ensemble []string, regions []string, elapsed time.Duration) {
	log.Printf("[Placement] ensemble created: size=%d regions=%s elapsed=%s",
		len(ensemble), strings.Join(regions, ","), elapsed)
}

// BookieReplaced implements Reporter.
func (LogReporter) BookieReplaced(oldAddr, newAddr string, elapsed time.Duration) {
	log.Printf("[Placement] bookie replaced: %s -> %s elapsed=%s", oldAddr, newAddr, elapsed)
}

// ClusterChanged implements Reporter.
func (LogReporter) ClusterChanged(writable, readOnly int) {
	log.Printf("[Placement] cluster changed: %d writable, %d read-only", writable, readOnly)
}

// PlacementFailed implements Reporter.
func (LogReporter) PlacementFailed(op string, err error) {
	log.Printf("[Placement] %s failed: %v", op, err)
}

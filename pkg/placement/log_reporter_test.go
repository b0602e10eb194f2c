package placement

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLogReporterImplementsReporterWithoutPanicking(t *testing.T) {
	var r Reporter = NewLogReporter()

	assert.NotPanics(t, func() {
		r.EnsembleCreated([]string{"a", "b"}, []string{"/region1"}, 2*time.Millisecond)
		r.BookieReplaced("a", "c", time.Millisecond)
		r.ClusterChanged(3, 1)
		r.PlacementFailed("newEnsemble", errors.New("not enough bookies"))
	})
}

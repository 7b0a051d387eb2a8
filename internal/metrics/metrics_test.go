package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCountersAreRegistered(t *testing.T) {
	before := testutil.ToFloat64(QueueItemsProcessed.WithLabelValues(OutcomeRetried))
	QueueItemsProcessed.WithLabelValues(OutcomeRetried).Inc()
	if got := testutil.ToFloat64(QueueItemsProcessed.WithLabelValues(OutcomeRetried)); got != before+1 {
		t.Fatalf("expected %v, got %v", before+1, got)
	}
}

package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordersAccumulate(t *testing.T) {
	RegisterMetrics()

	before := testutil.ToFloat64(framesSent.WithLabelValues("9"))
	RecordFrameSent("9")
	RecordFrameSent("9")
	assert.InDelta(t, before+2, testutil.ToFloat64(framesSent.WithLabelValues("9")), 1e-9)

	beforeMatched := testutil.ToFloat64(framesMatched.WithLabelValues("9"))
	RecordFrameMatched("9", 5*time.Millisecond)
	assert.InDelta(t, beforeMatched+1, testutil.ToFloat64(framesMatched.WithLabelValues("9")), 1e-9)

	beforeTimeout := testutil.ToFloat64(correlationTimeouts.WithLabelValues("9"))
	RecordCorrelationTimeout("9")
	assert.InDelta(t, beforeTimeout+1, testutil.ToFloat64(correlationTimeouts.WithLabelValues("9")), 1e-9)
}

func TestRegisterMetricsIdempotent(t *testing.T) {
	RegisterMetrics()
	RegisterMetrics()
	RecordFrameReceived("9")
}

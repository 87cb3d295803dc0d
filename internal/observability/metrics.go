package observability

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	framesSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "winch",
			Subsystem: "bus",
			Name:      "frames_sent_total",
			Help:      "Command frames written to the bus.",
		},
		[]string{"motor"},
	)
	framesReceived = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "winch",
			Subsystem: "bus",
			Name:      "frames_received_total",
			Help:      "Inbound frames drained from the bus.",
		},
		[]string{"motor"},
	)
	framesMatched = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "winch",
			Subsystem: "bus",
			Name:      "frames_matched_total",
			Help:      "Inbound frames correlated to an outstanding command.",
		},
		[]string{"motor"},
	)
	correlationTimeouts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "winch",
			Subsystem: "bus",
			Name:      "correlation_timeouts_total",
			Help:      "Commands whose response window elapsed unanswered.",
		},
		[]string{"motor"},
	)
	roundTrip = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "winch",
			Subsystem: "bus",
			Name:      "round_trip_seconds",
			Help:      "Command round-trip time on the bus.",
			Buckets:   []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"motor"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(framesSent, framesReceived, framesMatched, correlationTimeouts, roundTrip)
	})
}

func RecordFrameSent(motor string) {
	RegisterMetrics()
	framesSent.WithLabelValues(motor).Inc()
}

func RecordFrameReceived(motor string) {
	RegisterMetrics()
	framesReceived.WithLabelValues(motor).Inc()
}

func RecordFrameMatched(motor string, rtt time.Duration) {
	RegisterMetrics()
	framesMatched.WithLabelValues(motor).Inc()
	roundTrip.WithLabelValues(motor).Observe(rtt.Seconds())
}

func RecordCorrelationTimeout(motor string) {
	RegisterMetrics()
	correlationTimeouts.WithLabelValues(motor).Inc()
}

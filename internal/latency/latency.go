// Package latency accumulates round-trip timings and summarizes them for the
// stress reports: mean, spread, and interpolated percentiles.
package latency

import (
	"math"
	"sort"
	"sync"
	"time"
)

// Collector records round-trip samples in arrival order. Safe for one writer
// (the correlator ingest loop) and concurrent readers.
type Collector struct {
	mu      sync.Mutex
	samples []float64 // milliseconds
	started time.Time
}

func NewCollector() *Collector {
	return &Collector{started: time.Now()}
}

// Add records one round trip.
func (c *Collector) Add(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.samples = append(c.samples, float64(d)/float64(time.Millisecond))
}

// Count returns the number of samples recorded so far.
func (c *Collector) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.samples)
}

// Summary is one point-in-time analysis of the collected samples. All timing
// fields are milliseconds.
type Summary struct {
	Count  int
	Mean   float64
	Min    float64
	Max    float64
	StdDev float64

	P50 float64
	P90 float64
	P95 float64
	P99 float64

	// AchievedRate is responses per second over the measured interval.
	AchievedRate float64
}

// Summarize analyzes the samples collected over the given elapsed interval.
// Standard deviation is the sample form and defined as 0 below two samples.
func (c *Collector) Summarize(elapsed time.Duration) Summary {
	c.mu.Lock()
	samples := make([]float64, len(c.samples))
	copy(samples, c.samples)
	c.mu.Unlock()

	var s Summary
	s.Count = len(samples)
	if s.Count == 0 {
		return s
	}
	if elapsed > 0 {
		s.AchievedRate = float64(s.Count) / elapsed.Seconds()
	}

	var sum float64
	s.Min = samples[0]
	s.Max = samples[0]
	for _, v := range samples {
		sum += v
		if v < s.Min {
			s.Min = v
		}
		if v > s.Max {
			s.Max = v
		}
	}
	s.Mean = sum / float64(s.Count)

	if s.Count > 1 {
		var sq float64
		for _, v := range samples {
			d := v - s.Mean
			sq += d * d
		}
		s.StdDev = math.Sqrt(sq / float64(s.Count-1))
	}

	sorted := samples
	sort.Float64s(sorted)
	s.P50 = percentile(sorted, 50)
	s.P90 = percentile(sorted, 90)
	s.P95 = percentile(sorted, 95)
	s.P99 = percentile(sorted, 99)
	return s
}

// percentile interpolates linearly between order statistics, matching the
// convention of numpy.percentile. Input must be sorted ascending.
func percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}
	rank := p / 100 * float64(n-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

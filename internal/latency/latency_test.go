package latency

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func collectorWith(samples ...time.Duration) *Collector {
	c := NewCollector()
	for _, s := range samples {
		c.Add(s)
	}
	return c
}

func TestSummaryBasicStatistics(t *testing.T) {
	c := collectorWith(
		10*time.Millisecond,
		20*time.Millisecond,
		30*time.Millisecond,
		40*time.Millisecond,
		50*time.Millisecond,
	)
	s := c.Summarize(10 * time.Second)

	assert.Equal(t, 5, s.Count)
	assert.InDelta(t, 30.0, s.Mean, 1e-9)
	assert.InDelta(t, 10.0, s.Min, 1e-9)
	assert.InDelta(t, 50.0, s.Max, 1e-9)
	assert.InDelta(t, 30.0, s.P50, 1e-9)
	assert.InDelta(t, 0.5, s.AchievedRate, 1e-9)

	// Sample standard deviation of 10..50 step 10.
	assert.InDelta(t, 15.8113883, s.StdDev, 1e-6)
}

func TestPercentileInterpolation(t *testing.T) {
	c := collectorWith(
		10*time.Millisecond,
		20*time.Millisecond,
		30*time.Millisecond,
		40*time.Millisecond,
		50*time.Millisecond,
	)
	s := c.Summarize(time.Second)

	// Linear interpolation between order statistics: rank = p/100*(n-1).
	assert.InDelta(t, 46.0, s.P90, 1e-9)
	assert.InDelta(t, 48.0, s.P95, 1e-9)
	assert.InDelta(t, 49.6, s.P99, 1e-9)
}

func TestStdDevGuardBelowTwoSamples(t *testing.T) {
	empty := NewCollector()
	assert.Equal(t, 0, empty.Summarize(time.Second).Count)
	assert.Zero(t, empty.Summarize(time.Second).StdDev)

	one := collectorWith(25 * time.Millisecond)
	s := one.Summarize(time.Second)
	assert.Equal(t, 1, s.Count)
	assert.Zero(t, s.StdDev)
	assert.InDelta(t, 25.0, s.P50, 1e-9)
	assert.InDelta(t, 25.0, s.P99, 1e-9)
}

func TestCountTracksAdds(t *testing.T) {
	c := NewCollector()
	assert.Zero(t, c.Count())
	c.Add(time.Millisecond)
	c.Add(2 * time.Millisecond)
	assert.Equal(t, 2, c.Count())
}

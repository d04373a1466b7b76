package ibmame

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFirstSampleIsZero(t *testing.T) {
	for _, counter := range []uint64{0, 1, 5e9, ^uint64(0)} {
		rs := NewRateSampler()
		assert.Equal(t, 0.0, rs.Sample(counter, 123.0))
	}
}

func TestRateFromMonotonicCounter(t *testing.T) {
	rs := NewRateSampler()
	rs.Sample(1e9, 10.0)

	rate := rs.Sample(4e9, 12.5)
	assert.InDelta(t, (4e9-1e9)/(12.5-10.0)/1e9, rate, 1e-12)
}

func TestCounterRegressionRepeatsLastRate(t *testing.T) {
	rs := NewRateSampler()
	rs.Sample(0, 1.0)
	second := rs.Sample(2e9, 2.0)
	require.InDelta(t, 2.0, second, 1e-12)

	assert.Equal(t, second, rs.Sample(1e9, 3.0))
}

func TestNonPositiveIntervalIsZero(t *testing.T) {
	rs := NewRateSampler()
	rs.Sample(0, 1.0)
	rs.Sample(1e9, 2.0)

	assert.Equal(t, 0.0, rs.Sample(9e9, 2.0), "same timestamp")
	assert.Equal(t, 0.0, rs.Sample(1e9, 1.5), "timestamp went backward")
}

func TestRateScenario(t *testing.T) {
	rs := NewRateSampler()

	cases := []struct {
		counter  uint64
		time     float64
		expected float64
	}{
		{0, 0.0, 0.0},
		{5000000000, 5.0, 1.0},
		// Counter regressed, the previous rate is repeated
		{4000000000, 6.0, 1.0},
		// Measured against the regressed counter, which became the baseline
		{4500000000, 7.0, 0.5},
	}

	for i, c := range cases {
		assert.InDelta(t, c.expected, rs.Sample(c.counter, c.time), 1e-12, "sample %d", i)
	}
}

package ibmame

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDescriptorTable(t *testing.T) {
	seen := map[string]bool{}
	for i, d := range descriptors {
		assert.NotEmpty(t, d.Name, "metric %d has no name", i)
		assert.False(t, seen[d.Name], "duplicate metric %s", d.Name)
		seen[d.Name] = true

		assert.NotNil(t, handlers[i], "metric %s has no handler", d.Name)
		assert.Greater(t, d.Tmax, 0)
		assert.Greater(t, d.Size, udpHeaderSize)
		assert.Equal(t, SlopeBoth, d.Slope)

		id, ok := MetricIDByName(d.Name)
		assert.True(t, ok)
		assert.Equal(t, MetricID(i), id)
	}
}

func TestMetricIDString(t *testing.T) {
	assert.Equal(t, "ame_enabled", AMEEnabled.String())
	assert.Equal(t, "ame_cores_used", AMECoresUsed.String())
	assert.Equal(t, "unknown", MetricID(NumMetrics).String())
}

func TestDescriptorsReturnsACopy(t *testing.T) {
	ds := Descriptors()
	ds[0].Name = "changed"
	assert.Equal(t, "ame_enabled", descriptors[0].Name)

	_, ok := MetricIDByName("nope")
	assert.False(t, ok)
}

package ibmame

import (
	"testing"

	"github.com/signalfx/golib/v3/datapoint"
	"github.com/stretchr/testify/assert"
)

func TestValueFormat(t *testing.T) {
	assert.Equal(t, "yes", StringValue("yes").Format("%s"))
	assert.Equal(t, "8589934592", DoubleValue(8589934592).Format("%.0f"))
	assert.Equal(t, "1.50", FloatValue(1.5).Format("%.2f"))
	assert.Equal(t, "0.2500", FloatValue(0.25).Format("%.4f"))
	assert.Equal(t, "0", Uint32Value(0).String())
}

func TestValueDatapoint(t *testing.T) {
	assert.Equal(t, datapoint.NewStringValue("no"), StringValue("no").Datapoint())
	assert.Equal(t, datapoint.NewIntValue(7), Uint32Value(7).Datapoint())
	assert.Equal(t, datapoint.NewFloatValue(0.5), FloatValue(0.5).Datapoint())
	assert.Equal(t, datapoint.NewFloatValue(-1), DoubleValue(-1).Datapoint())
}

func TestSentinels(t *testing.T) {
	assert.Equal(t, StringValue("libperfstat returned an error"), sentinel(String))
	assert.Equal(t, FloatValue(-1), sentinel(Float))
	assert.Equal(t, DoubleValue(-1), sentinel(Double))
	assert.Equal(t, Uint32Value(^uint32(0)), sentinel(Uint32))
}

package logwriter

import (
	"testing"
	"time"

	"github.com/signalfx/golib/v3/datapoint"
	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteDatapoints(t *testing.T) {
	logger, hook := test.NewNullLogger()
	w := New(logger)

	ts := time.Unix(1350000000, 0)
	w.WriteDatapoints([]*datapoint.Datapoint{
		datapoint.New("ame_cores_used", map[string]string{"plugin": "ibmame"}, datapoint.NewFloatValue(0.25), datapoint.Gauge, ts),
		datapoint.New("ame_enabled", map[string]string{"plugin": "ibmame"}, datapoint.NewStringValue("yes"), datapoint.Gauge, time.Time{}),
	})

	entries := hook.AllEntries()
	require.Len(t, entries, 2)

	assert.Equal(t, log.InfoLevel, entries[0].Level)
	assert.Equal(t, "ame_cores_used", entries[0].Data["metric"])
	assert.Equal(t, datapoint.NewFloatValue(0.25).String(), entries[0].Data["value"])
	assert.Equal(t, ts, entries[0].Data["timestamp"])
	assert.Equal(t, map[string]string{"plugin": "ibmame"}, entries[0].Data["dimensions"])

	assert.Equal(t, "yes", entries[1].Data["value"])
	assert.NotContains(t, entries[1].Data, "timestamp")
}

func TestNewDefaultsToStandardLogger(t *testing.T) {
	assert.Equal(t, log.StandardLogger(), New(nil).logger)
}

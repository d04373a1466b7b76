package prometheus

import (
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/signalfx/golib/v3/datapoint"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dp(metric string, value datapoint.Value) *datapoint.Datapoint {
	return datapoint.New(metric, map[string]string{"plugin": "ibmame", "host": "lpar01"}, value, datapoint.Gauge, time.Time{})
}

func TestWriterExposesLatestValues(t *testing.T) {
	w := New("ibmame", func(dp *datapoint.Datapoint) string {
		if dp.Metric == "ame_cores_used" {
			return "Amount of Cores used for AME"
		}
		return ""
	}, 0)

	w.WriteDatapoints([]*datapoint.Datapoint{
		dp("ame_cores_used", datapoint.NewFloatValue(0.25)),
		dp("true_memory", datapoint.NewFloatValue(4294967296)),
	})
	w.WriteDatapoints([]*datapoint.Datapoint{
		dp("ame_cores_used", datapoint.NewFloatValue(0.5)),
	})

	expected := `
# HELP ibmame_ame_cores_used Amount of Cores used for AME
# TYPE ibmame_ame_cores_used gauge
ibmame_ame_cores_used{host="lpar01",plugin="ibmame"} 0.5
`
	require.NoError(t, testutil.CollectAndCompare(w, strings.NewReader(expected), "ibmame_ame_cores_used"))
	assert.Equal(t, 2, testutil.CollectAndCount(w))
}

func TestWriterStringValuesBecomeInfo(t *testing.T) {
	w := New("ibmame", nil, 0)
	w.WriteDatapoints([]*datapoint.Datapoint{
		dp("ame_enabled", datapoint.NewStringValue("yes")),
	})

	expected := `
# HELP ibmame_ame_enabled_info ame_enabled
# TYPE ibmame_ame_enabled_info gauge
ibmame_ame_enabled_info{host="lpar01",plugin="ibmame",value="yes"} 1
`
	require.NoError(t, testutil.CollectAndCompare(w, strings.NewReader(expected)))

	w.WriteDatapoints([]*datapoint.Datapoint{
		dp("ame_enabled", datapoint.NewStringValue("no")),
	})
	assert.Equal(t, 1, testutil.CollectAndCount(w))
}

func TestWriterStringValueReplacesPrevious(t *testing.T) {
	w := New("ibmame", nil, time.Minute)
	w.WriteDatapoints([]*datapoint.Datapoint{
		dp("ame_enabled", datapoint.NewStringValue("yes")),
	})
	w.WriteDatapoints([]*datapoint.Datapoint{
		dp("ame_enabled", datapoint.NewStringValue("libperfstat returned an error")),
	})

	expected := `
# HELP ibmame_ame_enabled_info ame_enabled
# TYPE ibmame_ame_enabled_info gauge
ibmame_ame_enabled_info{host="lpar01",plugin="ibmame",value="libperfstat returned an error"} 1
`
	require.NoError(t, testutil.CollectAndCompare(w, strings.NewReader(expected)))

	// Recovery puts the real value back as the only series
	w.WriteDatapoints([]*datapoint.Datapoint{
		dp("ame_enabled", datapoint.NewStringValue("yes")),
	})
	assert.Equal(t, 1, testutil.CollectAndCount(w))
}

func TestWriterInfoValueOverridesValueDimension(t *testing.T) {
	w := New("", nil, 0)
	w.WriteDatapoints([]*datapoint.Datapoint{
		datapoint.New("state", map[string]string{"value": "dim"}, datapoint.NewStringValue("up"), datapoint.Gauge, time.Time{}),
	})

	expected := `
# HELP state_info state
# TYPE state_info gauge
state_info{value="up"} 1
`
	require.NoError(t, testutil.CollectAndCompare(w, strings.NewReader(expected)))
}

func TestWriterSanitizesNames(t *testing.T) {
	w := New("", nil, 0)
	w.WriteDatapoints([]*datapoint.Datapoint{
		datapoint.New("memory.used", map[string]string{"host-name": "a"}, datapoint.NewIntValue(3), datapoint.Gauge, time.Time{}),
	})

	expected := `
# HELP memory_used memory.used
# TYPE memory_used gauge
memory_used{host_name="a"} 3
`
	require.NoError(t, testutil.CollectAndCompare(w, strings.NewReader(expected)))
}

func TestHandler(t *testing.T) {
	w := New("ibmame", nil, 0)
	w.WriteDatapoints([]*datapoint.Datapoint{
		dp("ame_cores_used", datapoint.NewFloatValue(1)),
	})

	server := httptest.NewServer(w.Handler(nil))
	defer server.Close()

	resp, err := http.Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := ioutil.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `ibmame_ame_cores_used{host="lpar01",plugin="ibmame"} 1`)
}

func TestWriterDropsStaleSeries(t *testing.T) {
	w := New("ibmame", nil, 50*time.Millisecond)
	w.WriteDatapoints([]*datapoint.Datapoint{
		dp("ame_cores_used", datapoint.NewFloatValue(1)),
	})
	assert.Equal(t, 1, testutil.CollectAndCount(w))

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 0, testutil.CollectAndCount(w))
}

package monitors

import (
	"time"

	"github.com/signalfx/golib/v3/datapoint"
	"github.com/signalfx/ibmame-agent/pkg/monitors/types"
	"github.com/signalfx/ibmame-agent/pkg/utils"
)

// Keys of the datapoint Meta map set by the monitor output
const (
	MonitorIDMeta   = "sf_monitorID"
	MonitorTypeMeta = "sf_monitorType"
	ConfigHashMeta  = "sf_configHash"
)

// The default implementation of Output
type monitorOutput struct {
	monitorType string
	monitorID   types.MonitorID
	configHash  uint64
	dpChan      chan<- []*datapoint.Datapoint
	extraDims   map[string]string
	now         func() time.Time
}

var _ types.Output = &monitorOutput{}

// Copy the output so that you can attach a different set of dimensions to it.
func (mo *monitorOutput) Copy() types.Output {
	o := *mo
	o.extraDims = utils.CloneStringMap(mo.extraDims)
	return &o
}

// SendDatapoints adds the monitor's extra dimensions and metadata to each
// datapoint and forwards them to the agent.
func (mo *monitorOutput) SendDatapoints(dps ...*datapoint.Datapoint) {
	if len(dps) == 0 {
		return
	}

	now := time.Now
	if mo.now != nil {
		now = mo.now
	}

	for _, dp := range dps {
		if dp.Meta == nil {
			dp.Meta = map[interface{}]interface{}{}
		}

		dp.Meta[MonitorIDMeta] = mo.monitorID
		dp.Meta[MonitorTypeMeta] = mo.monitorType
		dp.Meta[ConfigHashMeta] = mo.configHash

		dp.Dimensions = utils.MergeStringMaps(dp.Dimensions, mo.extraDims)

		if dp.Timestamp.IsZero() {
			dp.Timestamp = now()
		}
	}

	mo.dpChan <- dps
}

// AddExtraDimension will add an extra dimension to all datapoints sent
// through this output
func (mo *monitorOutput) AddExtraDimension(key, value string) {
	mo.extraDims[key] = value
}

// RemoveExtraDimension will remove any dimension added to this output, either
// from the original configuration or from the AddExtraDimension method.
func (mo *monitorOutput) RemoveExtraDimension(key string) {
	delete(mo.extraDims, key)
}

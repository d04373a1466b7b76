package core

import (
	"sync/atomic"

	"github.com/signalfx/golib/v3/datapoint"
	"github.com/signalfx/golib/v3/sfxclient"

	"github.com/signalfx/ibmame-agent/pkg/utils"
)

type internalMetricSource interface {
	InternalMetrics() []*datapoint.Datapoint
}

// InternalMetrics returns datapoints that describe the agent itself
func (a *Agent) InternalMetrics() []*datapoint.Datapoint {
	dps := []*datapoint.Datapoint{
		sfxclient.CumulativeP("sfxagent.datapoints_received", nil, &a.dpsReceived),
		sfxclient.Gauge("sfxagent.active_monitors", nil, int64(len(a.monitors.ActiveMonitorIDs()))),
		sfxclient.Gauge("sfxagent.configured_monitors_invalid", nil, int64(len(a.monitors.BadConfigs()))),
	}
	dps = append(dps, a.monitors.InternalMetrics()...)
	for _, s := range a.internalMetricSources {
		dps = append(dps, s.InternalMetrics()...)
	}
	return dps
}

// Internal metrics only go to the Prometheus endpoint so that they don't
// count themselves.
func (a *Agent) sendInternalMetrics() {
	dps := a.InternalMetrics()
	for _, dp := range dps {
		dp.Dimensions = utils.MergeStringMaps(a.hostDims, dp.Dimensions)
	}
	a.promWriter.WriteDatapoints(dps)
}

func (a *Agent) datapointsReceived() int64 {
	return atomic.LoadInt64(&a.dpsReceived)
}

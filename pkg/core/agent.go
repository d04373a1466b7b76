// Package core contains the central frame of the agent that hooks up the
// monitors to the datapoint writers.
package core

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/signalfx/golib/v3/datapoint"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/signalfx/ibmame-agent/pkg/core/config"
	"github.com/signalfx/ibmame-agent/pkg/core/hostid"
	"github.com/signalfx/ibmame-agent/pkg/core/writer/logwriter"
	"github.com/signalfx/ibmame-agent/pkg/core/writer/prometheus"
	"github.com/signalfx/ibmame-agent/pkg/core/writer/signalfx"
	"github.com/signalfx/ibmame-agent/pkg/monitors"
	"github.com/signalfx/ibmame-agent/pkg/utils"
)

// dpBufferSize is how many datapoint batches can queue up before monitors
// block on sending.
const dpBufferSize = 100

// Series not updated for this many intervals disappear from the Prometheus
// endpoint.
const staleIntervals = 3

// DatapointWriter receives every batch of datapoints that the monitors emit.
type DatapointWriter interface {
	WriteDatapoints(dps []*datapoint.Datapoint)
}

// Agent is what hooks up monitors and the datapoint writers.
type Agent struct {
	conf     *config.Config
	monitors *monitors.MonitorManager
	dpChan   chan []*datapoint.Datapoint

	writers    []DatapointWriter
	promWriter *prometheus.Writer
	hostDims   map[string]string

	internalMetricSources []internalMetricSource
	dpsReceived           int64
}

// NewAgent creates an agent for the given config.  Any extra writers get
// every datapoint along with the writers enabled in conf.
func NewAgent(conf *config.Config, extraWriters ...DatapointWriter) *Agent {
	a := &Agent{
		conf:   conf,
		dpChan: make(chan []*datapoint.Datapoint, dpBufferSize),
	}
	a.monitors = monitors.NewMonitorManager(a.dpChan)

	if conf.WriteToLog {
		a.writers = append(a.writers, logwriter.New(log.StandardLogger()))
	}
	if !conf.Prometheus.Disabled {
		staleAfter := time.Duration(staleIntervals*conf.IntervalSeconds) * time.Second
		a.promWriter = prometheus.New(conf.Prometheus.Namespace, metricHelp, staleAfter)
		a.writers = append(a.writers, a.promWriter)
	}
	a.writers = append(a.writers, extraWriters...)
	return a
}

func metricHelp(dp *datapoint.Datapoint) string {
	monitorType, _ := dp.Meta[monitors.MonitorTypeMeta].(string)
	return monitors.MetricDescription(monitorType, dp.Metric)
}

// Run starts the configured monitors and forwards their datapoints until
// ctx is cancelled or the Prometheus endpoint fails.
func (a *Agent) Run(ctx context.Context) error {
	a.hostDims = hostid.Dimensions(a.conf.Hostname, a.conf.UseFullyQualifiedHost)

	if a.conf.SignalFx.Enabled() {
		sfxWriter, err := signalfx.New(&a.conf.SignalFx)
		if err != nil {
			return errors.Wrap(err, "could not create SignalFx writer")
		}
		defer sfxWriter.Shutdown()
		a.writers = append(a.writers, sfxWriter)
		a.internalMetricSources = append(a.internalMetricSources, sfxWriter)
	}

	// A failing Prometheus endpoint cancels gctx and stops the agent.
	g, gctx := errgroup.WithContext(ctx)
	if a.promWriter != nil {
		g.Go(func() error {
			return a.promWriter.Serve(gctx, a.conf.Prometheus.ListenAddress, a.conf.Prometheus.Path, config.ZapLogger())
		})
	}

	dispatchDone := make(chan struct{})
	stopDispatch := make(chan struct{})
	go func() {
		defer close(dispatchDone)
		for {
			select {
			case dps := <-a.dpChan:
				a.write(dps)
			case <-stopDispatch:
				return
			}
		}
	}()

	// Monitors send their first datapoints from inside Configure so the
	// dispatcher has to be running first.
	a.monitors.Configure(a.conf.Monitors, a.conf.IntervalSeconds)
	if a.promWriter != nil {
		utils.RunOnInterval(gctx, a.sendInternalMetrics, time.Duration(a.conf.IntervalSeconds)*time.Second)
	}

	log.WithFields(log.Fields{
		"activeMonitors": len(a.monitors.ActiveMonitorIDs()),
		"badConfigs":     len(a.monitors.BadConfigs()),
	}).Info("Done configuring agent")

	<-gctx.Done()

	log.Info("Shutting down agent")
	a.monitors.Shutdown()
	close(stopDispatch)
	<-dispatchDone

	if err := g.Wait(); err != nil {
		return errors.Wrap(err, "prometheus endpoint failed")
	}
	return nil
}

func (a *Agent) write(dps []*datapoint.Datapoint) {
	atomic.AddInt64(&a.dpsReceived, int64(len(dps)))
	for _, dp := range dps {
		dp.Dimensions = utils.MergeStringMaps(a.hostDims, dp.Dimensions)
	}
	for _, w := range a.writers {
		w.WriteDatapoints(dps)
	}
}

// ConfigureLogging applies the logging section of the config to the global
// logrus logger.
func ConfigureLogging(conf *config.LogConfig) {
	log.SetLevel(conf.LogrusLevel())
	if f := conf.LogrusFormatter(); f != nil {
		log.SetFormatter(f)
	}
	log.Infof("Using log level %s", log.GetLevel().String())
}

// Startup loads the config at configPath and runs the agent until ctx is
// cancelled.
func Startup(ctx context.Context, configPath string) error {
	log.Info("Starting up agent")

	conf, err := config.LoadConfig(configPath)
	if err != nil {
		return errors.Wrapf(err, "failed to load config %s", configPath)
	}

	ConfigureLogging(&conf.Logging)

	return NewAgent(conf).Run(ctx)
}

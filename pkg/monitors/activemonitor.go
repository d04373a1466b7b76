package monitors

import (
	"context"
	"reflect"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"
	"github.com/signalfx/defaults"
	"github.com/sirupsen/logrus"
	"go.uber.org/atomic"

	"github.com/signalfx/ibmame-agent/pkg/core/config"
	"github.com/signalfx/ibmame-agent/pkg/monitors/types"
	"github.com/signalfx/ibmame-agent/pkg/utils"
)

// ActiveMonitor is a wrapper for an actual monitor instance that keeps some
// metadata about the monitor, such as a copy of its configuration.  It
// exposes a lot of methods to help manage the monitor as well.
type ActiveMonitor struct {
	instance   interface{}
	id         types.MonitorID
	configHash uint64
	output     types.Output
	config     config.MonitorCustomConfig
	// cancel function for the parent context if it is a Collectable instance
	cancel context.CancelFunc

	collectFailures  atomic.Uint64
	collectCalls     atomic.Uint64
	intervalExceeded atomic.Uint64
}

func renderConfig(monConfig config.MonitorCustomConfig) (config.MonitorCustomConfig, error) {
	monConfig = utils.CloneInterface(monConfig).(config.MonitorCustomConfig)
	if err := defaults.Set(monConfig); err != nil {
		return nil, errors.Wrap(err, "could not set config defaults")
	}

	// Wipe out the other config that has already been decoded since it is
	// now redundant.
	monConfig.MonitorConfigCore().OtherConfig = nil
	return monConfig, nil
}

// Does some reflection magic to pass the right type to the Configure method of
// each monitor
func (am *ActiveMonitor) configureMonitor(monConfig config.MonitorCustomConfig) error {
	monConfig, err := renderConfig(monConfig)
	if err != nil {
		return err
	}

	monConfig.MonitorConfigCore().MonitorID = am.id
	for k, v := range monConfig.MonitorConfigCore().ExtraDimensions {
		am.output.AddExtraDimension(k, v)
	}

	if err := validateConfig(monConfig); err != nil {
		return err
	}

	logger := logrus.WithFields(logrus.Fields{
		"monitorType": monConfig.MonitorConfigCore().Type,
		"monitorID":   am.id,
	})
	if logrus.IsLevelEnabled(logrus.DebugLevel) {
		logger.Debugf("Configuring monitor with config:\n%s", spew.Sdump(monConfig))
	}

	am.config = monConfig
	am.injectOutputIfNeeded()

	if err := config.CallConfigure(am.instance, monConfig); err != nil {
		return err
	}

	if mon, ok := am.instance.(Collectable); ok {
		var ctx context.Context
		ctx, am.cancel = context.WithCancel(context.Background())
		interval := time.Duration(am.config.MonitorConfigCore().IntervalSeconds) * time.Second

		utils.RunOnInterval(ctx, func() {
			start := time.Now()
			if err := mon.Collect(ctx); err != nil {
				am.collectFailures.Inc()
				logger.WithError(err).Error("Collecting data from monitor failed")
			}
			am.collectCalls.Inc()
			elapsed := time.Since(start)

			if elapsed > interval {
				am.intervalExceeded.Inc()
				logger.Warnf("Monitor took too long to run (%s) which will cause lagging datapoints", elapsed)
			}
		}, interval)
	}

	return nil
}

func (am *ActiveMonitor) injectOutputIfNeeded() bool {
	outputValue := utils.FindFieldWithEmbeddedStructs(am.instance, "Output",
		reflect.TypeOf((*types.Output)(nil)).Elem())

	if !outputValue.IsValid() {
		return false
	}

	outputValue.Set(reflect.ValueOf(am.output))

	return true
}

// Stats returns how many times the monitor was collected, how many of those
// collections failed and how many ran over the monitor's interval.
func (am *ActiveMonitor) Stats() (calls, failures, overruns uint64) {
	return am.collectCalls.Load(), am.collectFailures.Load(), am.intervalExceeded.Load()
}

// Shutdown calls Shutdown on the monitor instance if it is provided.
func (am *ActiveMonitor) Shutdown() {
	if am.cancel != nil {
		am.cancel()
	}

	if sh, ok := am.instance.(Shutdownable); ok {
		sh.Shutdown()
	}
}

// Package ibmame contains a monitor that reports AIX Active Memory Expansion
// (AME) statistics from libperfstat and the virtual memory manager.
package ibmame

import (
	"context"
	"fmt"
	"time"

	"github.com/gobwas/glob"
	"github.com/pkg/errors"
	"github.com/signalfx/golib/v3/datapoint"
	log "github.com/sirupsen/logrus"

	"github.com/signalfx/ibmame-agent/pkg/core/config"
	"github.com/signalfx/ibmame-agent/pkg/monitors"
	"github.com/signalfx/ibmame-agent/pkg/monitors/types"
)

const monitorType = "ibmame"

// MONITOR(ibmame): Reports Active Memory Expansion statistics of an AIX
// partition: whether AME is on, true and expanded memory sizes, the target
// and achieved expansion factors, compressed pool sizes, the memory deficit
// and the number of cores spent compressing memory.
//
// ```yaml
// monitors:
//  - type: ibmame
// ```

var logger = log.WithFields(log.Fields{"monitorType": monitorType})

// newPlatform is swapped out in tests
var newPlatform = NewPlatform

func init() {
	monitors.Register(&monitorMetadata, func() interface{} { return &Monitor{} }, &Config{})
}

var monitorMetadata = monitors.Metadata{
	MonitorType: monitorType,
	Doc:         "Reports AIX Active Memory Expansion statistics",
	Metrics:     metricMetadata(),
}

func metricMetadata() []monitors.MetricMetadata {
	out := make([]monitors.MetricMetadata, 0, numMetrics)
	for _, d := range descriptors {
		out = append(out, monitors.MetricMetadata{
			Name:        d.Name,
			Type:        "gauge",
			Units:       d.Units,
			Description: d.Description,
		})
	}
	return out
}

// Config for this monitor
type Config struct {
	config.MonitorConfig `singleInstance:"true" acceptsEndpoints:"false"`
	// The value of the group metadata attached to every metric, also sent
	// as the `group` dimension.
	Group string `yaml:"group" default:"ibmame"`
	// The size in bytes of the pages that libperfstat reports true and
	// expanded memory in.
	PageSize int `yaml:"pageSize" default:"4096" validate:"min=1"`
	// If set, only the metrics whose names match one of these glob
	// patterns (e.g. `*_cpool_size`) are reported.  All metrics are
	// reported by default.
	MetricsToReport []string `yaml:"metricsToReport"`
}

// Validate the patterns given in metricsToReport
func (c *Config) Validate() error {
	_, err := c.selectedMetrics()
	return err
}

// selectedMetrics returns the metrics matched by metricsToReport in
// MetricID order.  Every pattern must match at least one metric.
func (c *Config) selectedMetrics() ([]MetricID, error) {
	selected := make([]bool, numMetrics)
	if len(c.MetricsToReport) == 0 {
		for i := range selected {
			selected[i] = true
		}
	}

	for _, pattern := range c.MetricsToReport {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, errors.Wrapf(err, "metricsToReport: invalid pattern %q", pattern)
		}
		matched := false
		for id := MetricID(0); id < numMetrics; id++ {
			if g.Match(id.String()) {
				selected[id] = true
				matched = true
			}
		}
		if !matched {
			return nil, fmt.Errorf("metricsToReport: %q matches no metric", pattern)
		}
	}

	var ids []MetricID
	for id, ok := range selected {
		if ok {
			ids = append(ids, MetricID(id))
		}
	}
	return ids, nil
}

// Monitor for AME statistics
type Monitor struct {
	Output  types.Output
	module  *Module
	metrics []MetricID
	dims    map[string]string
	logger  log.FieldLogger
}

// Configure loads the AME module and selects the metrics to report.  The
// agent calls Collect on the configured interval after this.
func (m *Monitor) Configure(conf *Config) error {
	m.logger = logger.WithField("monitorID", conf.MonitorID)
	m.module = NewModule(newPlatform(),
		WithGroup(conf.Group),
		WithPageSize(conf.PageSize),
		WithLogger(m.logger))

	metrics, err := conf.selectedMetrics()
	if err != nil {
		return err
	}
	m.metrics = metrics

	if err := m.module.Init(); err != nil {
		return err
	}

	m.dims = map[string]string{"plugin": monitorType, "group": conf.Group}
	return nil
}

// Collect polls every selected metric once and sends the values as gauges.
func (m *Monitor) Collect(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	now := time.Now()
	dps := make([]*datapoint.Datapoint, 0, len(m.metrics))
	for _, id := range m.metrics {
		v := m.module.PollMetric(id)
		dims := make(map[string]string, len(m.dims))
		for k, val := range m.dims {
			dims[k] = val
		}
		dps = append(dps, datapoint.New(id.String(), dims, v.Datapoint(), datapoint.Gauge, now))
	}

	m.Output.SendDatapoints(dps...)
	return nil
}

// Shutdown unloads the AME module
func (m *Monitor) Shutdown() {
	if m.module != nil {
		m.module.Cleanup()
	}
}

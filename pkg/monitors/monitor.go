// Package monitors is the core logic for monitors.  Monitors are what collect
// metrics from the environment.  They have a simple interface that all must
// implement: the Configure method, which takes one argument of the same type
// that you pass as the configTemplate to the Register function.  Optionally,
// monitors may implement the niladic Shutdown method to do cleanup, and the
// Collect method to have the agent call them on their configured interval.
// Monitors will never be reused after the Shutdown method is called.
//
// A monitor sends datapoints through the types.Output that is injected into
// its exported `Output` field before Configure is called.
package monitors

import (
	"context"

	"github.com/signalfx/ibmame-agent/pkg/core/config"
	"github.com/signalfx/ibmame-agent/pkg/utils"
	log "github.com/sirupsen/logrus"
)

// MonitorFactory is a niladic function that creates an unconfigured instance
// of a monitor.
type MonitorFactory func() interface{}

// MetricMetadata contains a metric's metadata.
type MetricMetadata struct {
	Name        string `json:"name" yaml:"name"`
	Type        string `json:"type" yaml:"type"`
	Units       string `json:"units,omitempty" yaml:"units,omitempty"`
	Description string `json:"description" yaml:"description"`
}

// Metadata describes a monitor type and the metrics it can emit.
type Metadata struct {
	MonitorType string           `json:"monitorType" yaml:"monitorType"`
	Doc         string           `json:"doc" yaml:"doc"`
	Metrics     []MetricMetadata `json:"metrics" yaml:"metrics"`
}

// MonitorFactories holds all of the registered monitor factories
var MonitorFactories = map[string]MonitorFactory{}

// ConfigTemplates are blank (zero-value) instances of the configuration
// struct for a particular monitor type.
var ConfigTemplates = map[string]config.MonitorCustomConfig{}

// MonitorMetadatas contains a mapping of monitor type to its metadata.
var MonitorMetadatas = map[string]*Metadata{}

// Register a new monitor type with the agent.  This is intended to be called
// from the init function of the module of a specific monitor
// implementation. configTemplate should be a zero-valued struct that is of the
// same type as the parameter to the Configure method for this monitor type.
func Register(metadata *Metadata, factory MonitorFactory, configTemplate config.MonitorCustomConfig) {
	_type := metadata.MonitorType
	if _, ok := MonitorFactories[_type]; ok {
		panic("Monitor type '" + _type + "' already registered")
	}
	MonitorFactories[_type] = factory
	ConfigTemplates[_type] = configTemplate
	MonitorMetadatas[_type] = metadata
}

// DeregisterAll unregisters all monitor types.  Primarily intended for testing
// purposes.
func DeregisterAll() {
	for k := range MonitorFactories {
		delete(MonitorFactories, k)
	}

	for k := range ConfigTemplates {
		delete(ConfigTemplates, k)
	}

	for k := range MonitorMetadatas {
		delete(MonitorMetadatas, k)
	}
}

func newUninitializedMonitor(_type string) interface{} {
	if factory, ok := MonitorFactories[_type]; ok {
		return factory()
	}

	log.WithFields(log.Fields{
		"monitorType": _type,
	}).Error("Monitor type not supported")
	return nil
}

// Creates a new, unconfigured instance of a monitor of _type.  Returns nil if
// the monitor type is not registered.
func newMonitor(_type string) interface{} {
	mon := newUninitializedMonitor(_type)
	if initMon, ok := mon.(Initializable); ok {
		if err := initMon.Init(); err != nil {
			log.WithFields(log.Fields{
				"error":       err,
				"monitorType": _type,
			}).Error("Could not initialize monitor")
			return nil
		}
	}
	return mon
}

// Initializable represents a monitor that has a distinct Init method.
// This should be called once after the monitor is created and before any of
// its other methods are called.  It is useful for things that are not
// appropriate to do in the monitor factory function.
type Initializable interface {
	Init() error
}

// Shutdownable should be implemented by all monitors that need to clean up
// resources before being destroyed.
type Shutdownable interface {
	Shutdown()
}

// Collectable should be implemented by a monitor that wants the agent to
// call it once every interval instead of running its own loop.
type Collectable interface {
	Collect(ctx context.Context) error
}

// Takes a generic MonitorConfig and pulls out monitor-specific config to
// populate a clone of the config template that was registered for the monitor
// type specified in conf.
func getCustomConfigForMonitor(conf *config.MonitorConfig) (config.MonitorCustomConfig, error) {
	confTemplate, ok := ConfigTemplates[conf.Type]
	if !ok {
		return nil, errUnknownMonitorType
	}
	monConfig := utils.CloneInterface(confTemplate).(config.MonitorCustomConfig)

	if err := config.FillInConfigTemplate(monConfig, conf); err != nil {
		return nil, err
	}

	return monConfig, nil
}

func anyMarkedSolo(confs []config.MonitorConfig) bool {
	for i := range confs {
		if confs[i].Solo {
			return true
		}
	}
	return false
}

// MetricDescription returns the description a monitor type registered for a
// metric, or an empty string if there is none.
func MetricDescription(monitorType, metric string) string {
	md, ok := MonitorMetadatas[monitorType]
	if !ok {
		return ""
	}
	for _, m := range md.Metrics {
		if m.Name == metric {
			return m.Description
		}
	}
	return ""
}

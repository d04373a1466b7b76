package monitors

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/signalfx/ibmame-agent/pkg/core/config"
)

var errUnknownMonitorType = errors.New("monitor type not recognized")

// Used to validate configuration that is common to all monitors up front.
func validateConfig(monConfig config.MonitorCustomConfig) error {
	conf := monConfig.MonitorConfigCore()

	if _, ok := MonitorFactories[conf.Type]; !ok {
		return errUnknownMonitorType
	}

	if conf.IntervalSeconds <= 0 {
		return fmt.Errorf("invalid intervalSeconds provided: %d", conf.IntervalSeconds)
	}

	if err := config.ValidateStruct(monConfig); err != nil {
		return err
	}

	return config.ValidateCustomConfig(monConfig)
}

// configOnlyAllowsSingleInstance reads the `singleInstance` tag on the
// embedded MonitorConfig field of a monitor's config struct.
func configOnlyAllowsSingleInstance(monConfig config.MonitorCustomConfig) bool {
	return embeddedTagIsTrue(monConfig, "singleInstance")
}

func embeddedTagIsTrue(monConfig config.MonitorCustomConfig, tag string) bool {
	confVal := reflect.Indirect(reflect.ValueOf(monConfig))
	if confVal.Kind() != reflect.Struct {
		return false
	}
	coreConfField, ok := confVal.Type().FieldByName("MonitorConfig")
	if !ok {
		return false
	}
	return coreConfField.Tag.Get(tag) == "true"
}

package config

import (
	"reflect"

	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"
	"github.com/signalfx/ibmame-agent/pkg/utils"
	log "github.com/sirupsen/logrus"
	yaml "gopkg.in/yaml.v2"
)

// DecodeExtraConfig will pull out the OtherConfig values from a MonitorConfig
// and decode them into the monitor specific config struct `out`.  Unknown
// keys are an error when strict is set.
func DecodeExtraConfig(in *MonitorConfig, out interface{}, strict bool) error {
	otherYaml, err := yaml.Marshal(in.OtherConfig)
	if err != nil {
		return err
	}

	unmarshal := yaml.Unmarshal
	if strict {
		unmarshal = yaml.UnmarshalStrict
	}

	if err := unmarshal(otherYaml, out); err != nil {
		log.WithFields(log.Fields{
			"error":       err,
			"otherConfig": spew.Sdump(in.OtherConfig),
		}).Debug("Invalid monitor configuration")
		return errors.Wrapf(err, "invalid config for monitor type %s", in.Type)
	}
	return nil
}

// FillInConfigTemplate takes a config template value that a monitor provided
// and fills it in with the common MonitorConfig plus the monitor specific
// options held in OtherConfig.  The template must be a pointer to a struct
// that embeds MonitorConfig.
func FillInConfigTemplate(configTemplate MonitorCustomConfig, conf *MonitorConfig) error {
	templateValue := reflect.ValueOf(configTemplate)
	if templateValue.Kind() != reflect.Ptr || templateValue.Elem().Kind() != reflect.Struct {
		return errors.Errorf("config template for %s must be a pointer to a struct", conf.Type)
	}

	embeddedField := utils.FindFieldWithEmbeddedStructs(configTemplate, "MonitorConfig", reflect.TypeOf(MonitorConfig{}))
	if !embeddedField.IsValid() {
		return errors.Errorf("config template for %s does not embed MonitorConfig", conf.Type)
	}
	embeddedField.Set(reflect.ValueOf(*conf))

	return DecodeExtraConfig(conf, configTemplate, true)
}

// CallConfigure will call the Configure method on a monitor with a `conf`
// object, typed to the correct type.  This allows monitors to set the type of
// the config object to their own config and not have to worry about casting
// or converting.
func CallConfigure(instance, conf interface{}) error {
	instanceVal := reflect.ValueOf(instance)
	_type := instanceVal.Type().String()

	confVal := reflect.ValueOf(conf)

	method := instanceVal.MethodByName("Configure")
	if !method.IsValid() {
		return errors.Errorf("no Configure method found for type %s", _type)
	}

	if method.Type().NumIn() != 1 || !confVal.Type().AssignableTo(method.Type().In(0)) {
		return errors.Errorf("configure method of %s should take exactly one argument that matches "+
			"the type of the config template provided in the Register function, got %s", _type, confVal.Type())
	}

	errorType := reflect.TypeOf((*error)(nil)).Elem()
	if method.Type().NumOut() != 1 || method.Type().Out(0) != errorType {
		return errors.Errorf("configure method of %s should return an error", _type)
	}

	ret := method.Call([]reflect.Value{confVal})[0]
	if ret.IsNil() {
		return nil
	}
	return ret.Interface().(error)
}

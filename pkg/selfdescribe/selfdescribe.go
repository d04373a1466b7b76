// Package selfdescribe pulls the metadata of the agent's config and
// monitors out into a structured document that can feed docs generation.
package selfdescribe

import (
	"reflect"
	"sort"
	"strconv"

	"github.com/pkg/errors"
	yaml "gopkg.in/yaml.v2"

	"github.com/signalfx/ibmame-agent/pkg/core/config"
	"github.com/signalfx/ibmame-agent/pkg/monitors"
	"github.com/signalfx/ibmame-agent/pkg/monitors/ibmame"
)

type monitorDoc struct {
	monitors.Metadata `yaml:",inline"`
	Config            []fieldMetadata `yaml:"config"`
	SingleInstance    bool            `yaml:"singleInstance"`
}

type document struct {
	TopConfig            []fieldMetadata     `yaml:"topConfig"`
	GenericMonitorConfig []fieldMetadata     `yaml:"genericMonitorConfig"`
	Monitors             []monitorDoc        `yaml:"monitors"`
	AMEMetrics           []ibmame.Descriptor `yaml:"ameMetrics"`
}

// YAML returns the documentation of every registered monitor, the config
// structs and the AME metric descriptors, encoded as YAML.
func YAML() ([]byte, error) {
	out, err := yaml.Marshal(document{
		TopConfig:            getStructMetadata(reflect.TypeOf(config.Config{})),
		GenericMonitorConfig: getStructMetadata(reflect.TypeOf(config.MonitorConfig{})),
		Monitors:             monitorDocs(),
		AMEMetrics:           ibmame.Descriptors(),
	})
	if err != nil {
		return nil, errors.Wrap(err, "could not encode self description")
	}
	return out, nil
}

func monitorDocs() []monitorDoc {
	var docs []monitorDoc
	for monitorType, md := range monitors.MonitorMetadatas {
		template, ok := monitors.ConfigTemplates[monitorType]
		if !ok {
			continue
		}
		t := indirectType(reflect.TypeOf(template))
		mc, _ := t.FieldByName("MonitorConfig")

		docs = append(docs, monitorDoc{
			Metadata:       *md,
			Config:         getStructMetadata(t),
			SingleInstance: mc.Tag.Get("singleInstance") == strconv.FormatBool(true),
		})
	}

	sort.Slice(docs, func(i, j int) bool {
		return docs[i].MonitorType < docs[j].MonitorType
	})
	return docs
}

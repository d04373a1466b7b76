// Package config contains configuration structures and related helper logic for all
// agent components.
package config

import (
	"io/ioutil"
	"os"
	"regexp"

	"github.com/pkg/errors"
	"github.com/signalfx/defaults"
	"github.com/signalfx/ibmame-agent/pkg/utils"
	log "github.com/sirupsen/logrus"
	yaml "gopkg.in/yaml.v2"
)

// Config is the top level config struct for configurations that are common
// to all platforms
type Config struct {
	// The hostname that will be reported as the `host` dimension. If blank,
	// the OS hostname is used.
	Hostname string `yaml:"hostname"`
	// If true and `hostname` is blank, the fully qualified domain name of
	// the partition is used for the `host` dimension instead of the plain
	// hostname.
	UseFullyQualifiedHost *bool `yaml:"useFullyQualifiedHost" noDefault:"true"`
	// The default reporting interval for monitors, in seconds.  The shortest
	// advisory interval of the AME metrics is 15 seconds.
	IntervalSeconds int `yaml:"intervalSeconds" default:"15" validate:"min=1"`
	// Log every datapoint that the agent emits, useful for debugging
	WriteToLog bool `yaml:"writeToLog"`
	// Log configuration
	Logging LogConfig `yaml:"logging"`
	// Configuration of the Prometheus exposition endpoint
	Prometheus PrometheusConfig `yaml:"prometheus"`
	// Configuration for sending datapoints to SignalFx ingest
	SignalFx SignalFxConfig `yaml:"signalFx"`
	// A list of monitor configurations
	Monitors []MonitorConfig `yaml:"monitors" default:"[]" validate:"dive"`
}

// PrometheusConfig configures the HTTP endpoint that exposes the latest
// value of every datapoint in the Prometheus text format.
type PrometheusConfig struct {
	// Set to true to not serve metrics over HTTP
	Disabled bool `yaml:"disabled"`
	// The host:port to listen on
	ListenAddress string `yaml:"listenAddress" default:"127.0.0.1:9650"`
	// The path to serve metrics on
	Path string `yaml:"path" default:"/metrics" validate:"startswith=/"`
	// Prefixed to every exposed metric name
	Namespace string `yaml:"namespace" default:"ibmame"`
}

// SignalFxConfig configures sending datapoints to SignalFx.  Nothing is
// sent unless accessToken is set.
type SignalFxConfig struct {
	// The access token for the org that should receive the metrics
	AccessToken string `yaml:"accessToken" neverLog:"true"`
	// The base URL of SignalFx ingest.  Datapoints are posted to
	// `v2/datapoint` relative to it.
	IngestURL string `yaml:"ingestUrl" default:"https://ingest.signalfx.com" validate:"url"`
	// The maximum number of concurrent requests to ingest
	MaxRequests int `yaml:"maxRequests" default:"10" validate:"min=1"`
	// The most datapoints sent in a single request
	MaxBatchSize int `yaml:"maxBatchSize" default:"1000" validate:"min=1"`
}

// Enabled reports whether datapoints should be sent to SignalFx
func (c *SignalFxConfig) Enabled() bool {
	return c.AccessToken != ""
}

// LoadConfig reads the agent config file at configPath, renders environment
// variables into it, applies defaults and validates it.
func LoadConfig(configPath string) (*Config, error) {
	content, err := ioutil.ReadFile(configPath)
	if err != nil {
		return nil, errors.Wrapf(err, "could not read config file %s", configPath)
	}
	return LoadYAML(content)
}

// LoadYAML is LoadConfig for config that is already in memory.
func LoadYAML(content []byte) (*Config, error) {
	conf := &Config{}

	preprocessed := preprocessConfig(content)

	if err := yaml.UnmarshalStrict(preprocessed, conf); err != nil {
		if line := utils.ParseLineNumberFromYAMLError(err.Error()); line > 0 {
			return nil, errors.Wrapf(err, "invalid config near line %d", line)
		}
		return nil, errors.Wrap(err, "invalid config")
	}

	for _, target := range []interface{}{conf, &conf.Logging, &conf.Prometheus, &conf.SignalFx} {
		if err := defaults.Set(target); err != nil {
			return nil, errors.Wrap(err, "config defaults are wrong types")
		}
	}

	if err := ValidateStruct(conf); err != nil {
		return nil, err
	}

	conf.propagateValuesDown()
	return conf, nil
}

// Send values from the top of the config down to nested configs that might
// need them
func (c *Config) propagateValuesDown() {
	for i := range c.Monitors {
		c.Monitors[i].IntervalSeconds = utils.FirstNonZero(c.Monitors[i].IntervalSeconds, c.IntervalSeconds)
	}
}

var envVarRE = regexp.MustCompile(`\${\s*([\w-]+?)\s*}`)

// Replaces envvar syntax with the actual envvars
func preprocessConfig(content []byte) []byte {
	return envVarRE.ReplaceAllFunc(content, func(bs []byte) []byte {
		parts := envVarRE.FindSubmatch(bs)
		envvar := string(parts[1])

		val, ok := os.LookupEnv(envvar)
		if !ok {
			log.WithFields(log.Fields{
				"envvar": envvar,
			}).Warn("Config references an unset envvar")
		}
		return []byte(val)
	})
}

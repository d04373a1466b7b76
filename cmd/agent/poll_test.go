package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/signalfx/ibmame-agent/pkg/monitors/ibmame"
)

type stubPlatform struct{}

func (stubPlatform) PartitionTotal() (*ibmame.PartitionTotal, error) {
	return &ibmame.PartitionTotal{
		AMEEnabled:     true,
		AMEVersion:     2,
		TrueMemory:     1048576,
		ExpandedMemory: 2097152,
	}, nil
}

func (stubPlatform) VMInfo() (*ibmame.VMInfo, error) {
	return &ibmame.VMInfo{AMEFactorTarget: 200, AMEFactorActual: 150}, nil
}

func TestPollTable(t *testing.T) {
	module := ibmame.NewModule(stubPlatform{})
	assert.NoError(t, module.Init())

	var buf bytes.Buffer
	pollTable(&buf, module)
	out := buf.String()

	assert.Contains(t, out, "METRIC")
	assert.Contains(t, out, "ame_enabled")
	assert.Contains(t, out, "yes")
	assert.Contains(t, out, "4294967296")
	assert.Contains(t, out, "1.50")
	assert.Contains(t, out, "0.0000")
}

func TestGetFlags(t *testing.T) {
	f := getFlags([]string{"agent", "-config", "/tmp/a.yaml", "-debug", "-service", "install"})
	assert.Equal(t, "/tmp/a.yaml", f.configPath)
	assert.True(t, f.debug)
	assert.False(t, f.version)
	assert.Equal(t, "install", f.service)

	f = getFlags([]string{"agent"})
	assert.Equal(t, defaultConfigPath, f.configPath)
}

package types

import (
	"github.com/signalfx/golib/v3/datapoint"
)

// MonitorID is a unique identifier for a specific instance of a monitor
type MonitorID string

// Output is the interface that monitors should use to send data to the agent
// core.  It handles adding the proper dimensions and metadata to datapoints so
// that monitors don't have to worry about it themselves.
type Output interface {
	Copy() Output
	SendDatapoints(...*datapoint.Datapoint)
	AddExtraDimension(key, value string)
	RemoveExtraDimension(key string)
}

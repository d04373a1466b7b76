// Package logwriter writes datapoints to the agent log, which is mostly
// useful when testing a configuration.
package logwriter

import (
	"github.com/signalfx/golib/v3/datapoint"
	log "github.com/sirupsen/logrus"
)

// Writer logs every datapoint at info level
type Writer struct {
	logger log.FieldLogger
}

// New makes a log writer.  If logger is nil the standard logrus logger is
// used.
func New(logger log.FieldLogger) *Writer {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Writer{logger: logger}
}

// WriteDatapoints logs dps, one line per datapoint.
func (w *Writer) WriteDatapoints(dps []*datapoint.Datapoint) {
	for _, dp := range dps {
		fields := log.Fields{
			"metric":     dp.Metric,
			"value":      dp.Value.String(),
			"metricType": dp.MetricType.String(),
			"dimensions": dp.Dimensions,
		}
		if !dp.Timestamp.IsZero() {
			fields["timestamp"] = dp.Timestamp
		}
		w.logger.WithFields(fields).Info("Datapoint")
	}
}

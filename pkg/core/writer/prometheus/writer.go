// Package prometheus exposes the latest value of every datapoint the agent
// emits in the Prometheus text format.
package prometheus

import (
	"context"
	"net/http"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/signalfx/golib/v3/datapoint"
	log "github.com/sirupsen/logrus"
	"go.uber.org/zap"
)

// infoValueLabel carries the value of string datapoints, which are exposed
// as an `_info` gauge fixed at 1.
const infoValueLabel = "value"

var invalidNameChars = regexp.MustCompile(`[^a-zA-Z0-9_]`)

type sample struct {
	key         string
	name        string
	help        string
	labelNames  []string
	labelValues []string
	value       float64
}

// Writer keeps the most recent value of each metric/dimension combination
// and serves it as a prometheus.Collector.  Series that are not updated for
// staleAfter are dropped.
type Writer struct {
	namespace string
	help      func(dp *datapoint.Datapoint) string
	latest    *cache.Cache
}

var _ prometheus.Collector = &Writer{}

// New makes a writer that prefixes every metric name with namespace.  help
// returns the help text of a datapoint's metric and may be nil.  A
// non-positive staleAfter keeps series forever.
func New(namespace string, help func(dp *datapoint.Datapoint) string, staleAfter time.Duration) *Writer {
	expiration, cleanup := staleAfter, staleAfter
	if staleAfter <= 0 {
		expiration, cleanup = cache.NoExpiration, 0
	}
	return &Writer{
		namespace: namespace,
		help:      help,
		latest:    cache.New(expiration, cleanup),
	}
}

// WriteDatapoints records the values of dps, replacing older values of the
// same series.
func (w *Writer) WriteDatapoints(dps []*datapoint.Datapoint) {
	for _, dp := range dps {
		s := w.toSample(dp)
		w.latest.SetDefault(s.key, s)
	}
}

func (w *Writer) toSample(dp *datapoint.Datapoint) *sample {
	labels := make(map[string]string, len(dp.Dimensions)+1)
	for k, v := range dp.Dimensions {
		labels[sanitize(k)] = v
	}

	name := prometheus.BuildFQName(w.namespace, "", sanitize(dp.Metric))

	var value float64
	var info bool
	switch v := dp.Value.(type) {
	case datapoint.IntValue:
		value = float64(v.Int())
	case datapoint.FloatValue:
		value = v.Float()
	default:
		name += "_info"
		delete(labels, infoValueLabel)
		info = true
		value = 1
	}

	s := &sample{
		name:  name,
		value: value,
		help:  dp.Metric,
	}
	if w.help != nil {
		if h := w.help(dp); h != "" {
			s.help = h
		}
	}

	for k := range labels {
		s.labelNames = append(s.labelNames, k)
	}
	sort.Strings(s.labelNames)
	for _, k := range s.labelNames {
		s.labelValues = append(s.labelValues, labels[k])
	}

	// The key leaves out the value label of info series so that a new
	// string value replaces the old one.
	s.key = seriesKey(s.name, s.labelNames, s.labelValues)
	if info {
		s.labelNames = append(s.labelNames, infoValueLabel)
		s.labelValues = append(s.labelValues, dp.Value.String())
	}
	return s
}

func seriesKey(name string, labelNames, labelValues []string) string {
	var sb strings.Builder
	sb.WriteString(name)
	for i := range labelNames {
		sb.WriteByte('|')
		sb.WriteString(labelNames[i])
		sb.WriteByte('=')
		sb.WriteString(labelValues[i])
	}
	return sb.String()
}

func sanitize(name string) string {
	return invalidNameChars.ReplaceAllString(name, "_")
}

// Describe sends nothing, which makes this an unchecked collector since the
// set of series depends on what the monitors emit.
func (w *Writer) Describe(chan<- *prometheus.Desc) {}

// Collect sends the latest value of every series that is not stale.
func (w *Writer) Collect(ch chan<- prometheus.Metric) {
	for _, item := range w.latest.Items() {
		s := item.Object.(*sample)
		desc := prometheus.NewDesc(s.name, s.help, s.labelNames, nil)
		m, err := prometheus.NewConstMetric(desc, prometheus.GaugeValue, s.value, s.labelValues...)
		if err != nil {
			ch <- prometheus.NewInvalidMetric(desc, err)
			continue
		}
		ch <- m
	}
}

// Handler returns an http.Handler serving this writer's metrics.
func (w *Writer) Handler(errorLog promhttp.Logger) http.Handler {
	registry := prometheus.NewRegistry()
	registry.MustRegister(w)
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{
		ErrorLog:      errorLog,
		ErrorHandling: promhttp.ContinueOnError,
	})
}

// Serve exposes the metrics on listenAddress at path until ctx is
// cancelled.
func (w *Writer) Serve(ctx context.Context, listenAddress, path string, zapLogger *zap.Logger) error {
	errorLog := zap.NewStdLog(zapLogger)

	mux := http.NewServeMux()
	mux.Handle(path, w.Handler(errorLog))

	server := &http.Server{
		Addr:     listenAddress,
		Handler:  mux,
		ErrorLog: errorLog,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("Could not shut down Prometheus endpoint cleanly")
		}
	}()

	log.WithFields(log.Fields{
		"listenAddress": listenAddress,
		"path":          path,
	}).Info("Serving metrics in Prometheus format")

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return errors.Wrapf(err, "could not serve metrics on %s", listenAddress)
	}
	return nil
}

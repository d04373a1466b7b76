// Package signalfx contains the writer that sends datapoints to SignalFx
// ingest.  Monitors hand batches to the writer, which regroups them and
// sends them on a bounded number of concurrent requests.
package signalfx

import (
	"context"
	"net"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/signalfx/golib/v3/datapoint"
	"github.com/signalfx/golib/v3/sfxclient"
	log "github.com/sirupsen/logrus"

	"github.com/signalfx/ibmame-agent/pkg/core/config"
)

// dpBufferCapacity is how many batches may wait for a request slot before
// new batches are dropped.
const dpBufferCapacity = 1000

// Writer sends datapoints to SignalFx ingest
type Writer struct {
	client       *sfxclient.HTTPSink
	dpChan       chan []*datapoint.Datapoint
	maxBatchSize int
	dpSema       chan struct{}

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	dpRequestsActive int64
	dpsInFlight      int64
	dpsSent          int64
	dpsFailed        int64
	dpsDropped       int64
}

// New creates a writer and starts sending the datapoints given to
// WriteDatapoints.  Call Shutdown to stop it.
func New(conf *config.SignalFxConfig) (*Writer, error) {
	ingestURL, err := url.Parse(conf.IngestURL)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid ingest URL %s", conf.IngestURL)
	}

	dpEndpointURL, err := ingestURL.Parse("v2/datapoint")
	if err != nil {
		return nil, errors.Wrapf(err, "could not construct datapoint ingest URL from %s", conf.IngestURL)
	}

	w := &Writer{
		client:       sfxclient.NewHTTPSink(),
		dpChan:       make(chan []*datapoint.Datapoint, dpBufferCapacity),
		maxBatchSize: conf.MaxBatchSize,
		dpSema:       make(chan struct{}, conf.MaxRequests),
	}
	w.ctx, w.cancel = context.WithCancel(context.Background())

	w.client.AuthToken = conf.AccessToken
	w.client.DatapointEndpoint = dpEndpointURL.String()
	w.client.Client.Transport = &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   3 * time.Second,
			KeepAlive: 90 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: conf.MaxRequests,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	w.wg.Add(1)
	go w.listenForDatapoints()

	log.WithField("endpoint", w.client.DatapointEndpoint).Info("Sending datapoints to SignalFx")
	return w, nil
}

// WriteDatapoints queues dps for sending.  It never blocks; if too many
// batches are already waiting, dps are dropped.
func (w *Writer) WriteDatapoints(dps []*datapoint.Datapoint) {
	select {
	case w.dpChan <- dps:
	default:
		atomic.AddInt64(&w.dpsDropped, int64(len(dps)))
		log.WithField("count", len(dps)).Error("Dropping datapoints due to overfull buffer")
	}
}

func (w *Writer) listenForDatapoints() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return

		case dps := <-w.dpChan:
			buf := w.drainDpChan(append([]*datapoint.Datapoint(nil), dps...))
			atomic.AddInt64(&w.dpsInFlight, int64(len(buf)))

			// Wait if there are more than the max outstanding requests
			select {
			case w.dpSema <- struct{}{}:
			case <-w.ctx.Done():
				return
			}

			w.wg.Add(1)
			go func() {
				defer w.wg.Done()
				atomic.AddInt64(&w.dpRequestsActive, 1)
				w.sendDatapoints(buf)
				<-w.dpSema
				atomic.AddInt64(&w.dpRequestsActive, -1)
				atomic.AddInt64(&w.dpsInFlight, -int64(len(buf)))
			}()
		}
	}
}

func (w *Writer) drainDpChan(buf []*datapoint.Datapoint) []*datapoint.Datapoint {
	for len(buf) < w.maxBatchSize {
		select {
		case dps := <-w.dpChan:
			buf = append(buf, dps...)
		default:
			return buf
		}
	}
	return buf
}

func (w *Writer) sendDatapoints(dps []*datapoint.Datapoint) {
	// This sends synchonously
	if err := w.client.AddDatapoints(w.ctx, dps); err != nil {
		atomic.AddInt64(&w.dpsFailed, int64(len(dps)))
		log.WithError(err).Error("Error shipping datapoints to SignalFx")
		return
	}
	atomic.AddInt64(&w.dpsSent, int64(len(dps)))
	log.Debugf("Sent %d datapoints to SignalFx", len(dps))
}

// InternalMetrics returns datapoints that describe the state of the writer
func (w *Writer) InternalMetrics() []*datapoint.Datapoint {
	return []*datapoint.Datapoint{
		sfxclient.CumulativeP("sfxagent.datapoints_sent", nil, &w.dpsSent),
		sfxclient.CumulativeP("sfxagent.datapoints_failed", nil, &w.dpsFailed),
		sfxclient.CumulativeP("sfxagent.datapoints_dropped", nil, &w.dpsDropped),
		sfxclient.Gauge("sfxagent.datapoints_in_flight", nil, atomic.LoadInt64(&w.dpsInFlight)),
		sfxclient.Gauge("sfxagent.datapoint_requests_active", nil, atomic.LoadInt64(&w.dpRequestsActive)),
	}
}

// Shutdown the writer and stop sending datapoints.  Requests in flight are
// cancelled.
func (w *Writer) Shutdown() {
	w.cancel()
	w.wg.Wait()
	log.Debug("Stopped SignalFx datapoint writer")
}

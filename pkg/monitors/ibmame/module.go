package ibmame

import (
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultPageSize is the size of the pages libperfstat counts true and
// expanded memory in.
const DefaultPageSize = 4096

// DefaultGroup is the group every metric is tagged with unless overridden.
const DefaultGroup = "ibmame"

// handlers is indexed by MetricID, the same as descriptors.
var handlers = [numMetrics]func(*Module) Value{
	AMEEnabled:          (*Module).ameEnabled,
	AMEVersion:          (*Module).ameVersion,
	TrueMemory:          (*Module).trueMemory,
	ExpandedMemory:      (*Module).expandedMemory,
	TargetMemExpFactor:  (*Module).targetMemExpFactor,
	CurrentMemExpFactor: (*Module).currentMemExpFactor,
	TargetCPoolSize:     (*Module).targetCPoolSize,
	MaxCPoolSize:        (*Module).maxCPoolSize,
	MinUCPoolSize:       (*Module).minUCPoolSize,
	AMEDeficitSize:      (*Module).ameDeficitSize,
	AMECoresUsed:        (*Module).ameCoresUsed,
}

// Module answers polls for the AME metrics.  It owns the rate sampler for
// ame_cores_used, which lives as long as the Module does.
type Module struct {
	platform Platform
	sampler  *RateSampler
	logger   logrus.FieldLogger

	group    string
	pageSize float64
	now      func() time.Time

	lock        sync.Mutex
	descriptors [numMetrics]Descriptor
	origin      time.Time
	originSet   bool
}

// Option customizes a Module
type Option func(*Module)

// WithClock replaces the wall clock used to time ame_cores_used samples.
func WithClock(now func() time.Time) Option {
	return func(m *Module) {
		m.now = now
	}
}

// WithGroup sets the group metadata attached to every metric.
func WithGroup(group string) Option {
	return func(m *Module) {
		m.group = group
	}
}

// WithPageSize sets the page size used to convert page counts to bytes.
func WithPageSize(size int) Option {
	return func(m *Module) {
		m.pageSize = float64(size)
	}
}

// WithLogger sets the logger
func WithLogger(logger logrus.FieldLogger) Option {
	return func(m *Module) {
		m.logger = logger
	}
}

// NewModule creates an uninitialized module over the given platform.
func NewModule(platform Platform, opts ...Option) *Module {
	m := &Module{
		platform:    platform,
		sampler:     NewRateSampler(),
		logger:      logger,
		group:       DefaultGroup,
		pageSize:    DefaultPageSize,
		now:         time.Now,
		descriptors: descriptors,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Init tags every metric with its group, fixes the time origin for
// ame_cores_used unless a poll already did, and takes a first sample so
// that the first real poll has a baseline.  A failing platform query is not
// an init failure.
func (m *Module) Init() error {
	m.lock.Lock()
	for i := range m.descriptors {
		d := m.descriptors[i].copy()
		if d.Metadata == nil {
			d.Metadata = map[string]string{}
		}
		d.Metadata[GroupMetadataKey] = m.group
		m.descriptors[i] = d
	}
	m.lock.Unlock()

	if v := m.ameCoresUsed(); v.F32 < 0 {
		m.logger.Warn("Could not take the initial ame_cores_used sample, the first poll will report 0")
	}
	return nil
}

// Cleanup is called once when the host unloads the module.  There is
// nothing to release.
func (m *Module) Cleanup() {
	m.logger.Debug("AME module cleaned up")
}

// Descriptor returns the descriptor of a metric, including any metadata
// attached by Init.
func (m *Module) Descriptor(id MetricID) Descriptor {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.descriptors[id].copy()
}

// Poll returns the current value of the metric at index, which is a
// MetricID.  Unknown indexes read as a uint32 zero.
func (m *Module) Poll(index int) Value {
	id := MetricID(index)
	if !id.Valid() {
		m.logger.WithField("metricIndex", index).Warn("Poll for unknown metric index")
		return Uint32Value(0)
	}
	return handlers[id](m)
}

// PollMetric is Poll with a typed identifier.
func (m *Module) PollMetric(id MetricID) Value {
	return m.Poll(int(id))
}

// elapsed returns the seconds since the time origin on the monotonic clock.
// The origin is fixed by the first call.
func (m *Module) elapsed() float64 {
	now := m.now()
	m.lock.Lock()
	if !m.originSet {
		m.origin = now
		m.originSet = true
	}
	origin := m.origin
	m.lock.Unlock()
	return now.Sub(origin).Seconds()
}

func (m *Module) partitionTotal(id MetricID) (*PartitionTotal, bool) {
	p, err := m.platform.PartitionTotal()
	if err != nil {
		m.logger.WithError(err).WithField("metric", id.String()).Debug("Platform query failed")
		return nil, false
	}
	return p, true
}

func (m *Module) vmInfo(id MetricID) (*VMInfo, bool) {
	vmi, err := m.platform.VMInfo()
	if err != nil {
		m.logger.WithError(err).WithField("metric", id.String()).Debug("Platform query failed")
		return nil, false
	}
	return vmi, true
}

func (m *Module) ameEnabled() Value {
	p, ok := m.partitionTotal(AMEEnabled)
	if !ok {
		return sentinel(String)
	}
	if p.AMEEnabled {
		return StringValue("yes")
	}
	return StringValue("no")
}

func (m *Module) ameVersion() Value {
	p, ok := m.partitionTotal(AMEVersion)
	if !ok {
		return sentinel(String)
	}
	return StringValue(strconv.Itoa(p.AMEVersion))
}

func (m *Module) trueMemory() Value {
	p, ok := m.partitionTotal(TrueMemory)
	if !ok {
		return sentinel(Double)
	}
	return DoubleValue(float64(p.TrueMemory) * m.pageSize)
}

func (m *Module) expandedMemory() Value {
	p, ok := m.partitionTotal(ExpandedMemory)
	if !ok {
		return sentinel(Double)
	}
	return DoubleValue(float64(p.ExpandedMemory) * m.pageSize)
}

// The expansion factors come from the VMM rather than libperfstat, whose
// copies of them are unreliable on some AIX levels.
func (m *Module) targetMemExpFactor() Value {
	vmi, ok := m.vmInfo(TargetMemExpFactor)
	if !ok {
		return sentinel(Float)
	}
	return FloatValue(float32(vmi.AMEFactorTarget) / 100)
}

func (m *Module) currentMemExpFactor() Value {
	vmi, ok := m.vmInfo(CurrentMemExpFactor)
	if !ok {
		return sentinel(Float)
	}
	return FloatValue(float32(vmi.AMEFactorActual) / 100)
}

func (m *Module) targetCPoolSize() Value {
	p, ok := m.partitionTotal(TargetCPoolSize)
	if !ok {
		return sentinel(Double)
	}
	return DoubleValue(float64(p.TargetCPoolSize))
}

func (m *Module) maxCPoolSize() Value {
	p, ok := m.partitionTotal(MaxCPoolSize)
	if !ok {
		return sentinel(Double)
	}
	return DoubleValue(float64(p.MaxCPoolSize))
}

func (m *Module) minUCPoolSize() Value {
	p, ok := m.partitionTotal(MinUCPoolSize)
	if !ok {
		return sentinel(Double)
	}
	return DoubleValue(float64(p.MinUCPoolSize))
}

func (m *Module) ameDeficitSize() Value {
	p, ok := m.partitionTotal(AMEDeficitSize)
	if !ok {
		return sentinel(Double)
	}
	return DoubleValue(float64(p.AMEDeficitSize))
}

// A failed query leaves the sampler alone, so the next successful poll is
// measured against the last successful one.
func (m *Module) ameCoresUsed() Value {
	now := m.elapsed()
	p, ok := m.partitionTotal(AMECoresUsed)
	if !ok {
		return sentinel(Float)
	}
	return FloatValue(float32(m.sampler.Sample(p.CMCSTotalTime, now)))
}

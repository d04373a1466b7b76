package ibmame

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePartition() PartitionTotal {
	return PartitionTotal{
		AMEEnabled:      true,
		AMEVersion:      2,
		TrueMemory:      1048576,
		ExpandedMemory:  1572864,
		TargetCPoolSize: 1 << 30,
		MaxCPoolSize:    2 << 30,
		MinUCPoolSize:   512 << 20,
		AMEDeficitSize:  0,
	}
}

func newTestModule(t *testing.T, opts ...Option) (*Module, *fakePlatform, *fakeClock) {
	platform := &fakePlatform{
		partition: samplePartition(),
		vmi:       VMInfo{AMEFactorTarget: 150, AMEFactorActual: 137},
	}
	clock := newFakeClock()
	m := NewModule(platform, append([]Option{WithClock(clock.Now)}, opts...)...)
	require.NoError(t, m.Init())
	return m, platform, clock
}

func TestPollPassThroughMetrics(t *testing.T) {
	m, _, _ := newTestModule(t)

	assert.Equal(t, StringValue("yes"), m.PollMetric(AMEEnabled))
	assert.Equal(t, StringValue("2"), m.PollMetric(AMEVersion))
	assert.Equal(t, DoubleValue(1048576*4096), m.PollMetric(TrueMemory))
	assert.Equal(t, DoubleValue(1572864*4096), m.PollMetric(ExpandedMemory))
	assert.Equal(t, FloatValue(1.5), m.PollMetric(TargetMemExpFactor))
	assert.InDelta(t, 1.37, m.PollMetric(CurrentMemExpFactor).F32, 1e-6)
	assert.Equal(t, DoubleValue(1<<30), m.PollMetric(TargetCPoolSize))
	assert.Equal(t, DoubleValue(2<<30), m.PollMetric(MaxCPoolSize))
	assert.Equal(t, DoubleValue(512<<20), m.PollMetric(MinUCPoolSize))
	assert.Equal(t, DoubleValue(0), m.PollMetric(AMEDeficitSize))
}

func TestPollAMEDisabled(t *testing.T) {
	m, platform, _ := newTestModule(t)
	platform.set(func(f *fakePlatform) { f.partition.AMEEnabled = false })

	assert.Equal(t, StringValue("no"), m.PollMetric(AMEEnabled))
}

func TestPollUsesPageSize(t *testing.T) {
	m, _, _ := newTestModule(t, WithPageSize(65536))

	assert.Equal(t, DoubleValue(1048576*65536), m.PollMetric(TrueMemory))
}

func TestPollValueTypesMatchDescriptors(t *testing.T) {
	m, _, _ := newTestModule(t)

	for i := 0; i < NumMetrics; i++ {
		assert.Equal(t, descriptors[i].Type, m.Poll(i).Type, descriptors[i].Name)
	}
}

func TestPollUnknownIndex(t *testing.T) {
	m, _, _ := newTestModule(t)

	assert.Equal(t, Uint32Value(0), m.Poll(NumMetrics))
	assert.Equal(t, Uint32Value(0), m.Poll(-1))
}

func TestPollFailureSentinels(t *testing.T) {
	m, platform, _ := newTestModule(t)
	platform.set(func(f *fakePlatform) {
		f.failPartition = true
		f.failVMInfo = true
	})

	for i := 0; i < NumMetrics; i++ {
		v := m.Poll(i)
		switch descriptors[i].Type {
		case String:
			assert.Equal(t, "libperfstat returned an error", v.Str, descriptors[i].Name)
		case Float:
			assert.Equal(t, float32(-1), v.F32, descriptors[i].Name)
		case Double:
			assert.Equal(t, float64(-1), v.F64, descriptors[i].Name)
		}
	}
}

func TestVMInfoFailureOnlyAffectsFactors(t *testing.T) {
	m, platform, _ := newTestModule(t)
	platform.set(func(f *fakePlatform) { f.failVMInfo = true })

	assert.Equal(t, FloatValue(-1), m.PollMetric(TargetMemExpFactor))
	assert.Equal(t, FloatValue(-1), m.PollMetric(CurrentMemExpFactor))
	assert.Equal(t, StringValue("yes"), m.PollMetric(AMEEnabled))
}

func TestCoresUsedFirstPollAfterInit(t *testing.T) {
	m, platform, clock := newTestModule(t)

	// Init took the baseline at counter 0
	platform.set(func(f *fakePlatform) { f.partition.CMCSTotalTime = 3e9 })
	clock.Advance(15 * time.Second)

	assert.InDelta(t, 0.2, m.PollMetric(AMECoresUsed).F32, 1e-6)
}

func TestCoresUsedFailureIsolation(t *testing.T) {
	m, platform, clock := newTestModule(t)

	platform.set(func(f *fakePlatform) { f.partition.CMCSTotalTime = 10e9 })
	clock.Advance(10 * time.Second)
	require.InDelta(t, 1.0, m.PollMetric(AMECoresUsed).F32, 1e-6)

	// A failed query reports -1 and leaves the sampler alone
	platform.set(func(f *fakePlatform) {
		f.failPartition = true
		f.partition.CMCSTotalTime = 999e9
	})
	clock.Advance(10 * time.Second)
	require.Equal(t, FloatValue(-1), m.PollMetric(AMECoresUsed))

	// The next good poll is measured against the last good sample, across
	// the whole gap
	platform.set(func(f *fakePlatform) {
		f.failPartition = false
		f.partition.CMCSTotalTime = 20e9
	})
	clock.Advance(10 * time.Second)
	assert.InDelta(t, 0.5, m.PollMetric(AMECoresUsed).F32, 1e-6)
}

func TestCoresUsedNoTimeElapsed(t *testing.T) {
	m, platform, _ := newTestModule(t)
	platform.set(func(f *fakePlatform) { f.partition.CMCSTotalTime = 10e9 })

	assert.Equal(t, FloatValue(0), m.PollMetric(AMECoresUsed))
}

func TestInitAttachesGroupMetadata(t *testing.T) {
	m, _, _ := newTestModule(t, WithGroup("ame"))

	for i := MetricID(0); i < numMetrics; i++ {
		assert.Equal(t, "ame", m.Descriptor(i).Metadata[GroupMetadataKey])
	}
	// The package table is untouched
	assert.Nil(t, descriptors[AMEEnabled].Metadata)
}

func TestInitSurvivesPlatformFailure(t *testing.T) {
	platform := &fakePlatform{failPartition: true, failVMInfo: true}
	m := NewModule(platform)

	require.NoError(t, m.Init())
	assert.Equal(t, FloatValue(-1), m.PollMetric(AMECoresUsed))
	m.Cleanup()
}

func TestPollBeforeInitMeasuresFromFirstPoll(t *testing.T) {
	platform := &fakePlatform{partition: samplePartition()}
	clock := newFakeClock()
	m := NewModule(platform, WithClock(clock.Now))

	assert.Equal(t, FloatValue(0), m.PollMetric(AMECoresUsed))

	clock.Advance(5 * time.Second)
	platform.set(func(f *fakePlatform) { f.partition.CMCSTotalTime += 5e9 })
	assert.Equal(t, FloatValue(1), m.PollMetric(AMECoresUsed))

	clock.Advance(5 * time.Second)
	platform.set(func(f *fakePlatform) { f.partition.CMCSTotalTime += 5e9 })
	assert.Equal(t, FloatValue(1), m.PollMetric(AMECoresUsed))

	// A late Init keeps the origin the polls already use
	require.NoError(t, m.Init())
	clock.Advance(5 * time.Second)
	platform.set(func(f *fakePlatform) { f.partition.CMCSTotalTime += 10e9 })
	assert.Equal(t, FloatValue(2), m.PollMetric(AMECoresUsed))
}

func TestQueryErrorMatchesPlatformQuery(t *testing.T) {
	_, err := unsupportedPlatform{}.PartitionTotal()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPlatformQuery))
	assert.True(t, errors.Is(err, ErrUnsupportedPlatform))

	var qe *QueryError
	require.True(t, errors.As(err, &qe))
	assert.Equal(t, "perfstat_partition_total", qe.Call)
	assert.Equal(t, qe, errors.Cause(err))

	_, hasStack := err.(interface{ StackTrace() errors.StackTrace })
	assert.True(t, hasStack)

	_, err = unsupportedPlatform{}.VMInfo()
	assert.True(t, errors.Is(err, ErrPlatformQuery))
}

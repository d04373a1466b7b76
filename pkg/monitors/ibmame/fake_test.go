package ibmame

import (
	"errors"
	"sync"
	"time"
)

var errFakeQuery = errors.New("fake perfstat failure")

type fakePlatform struct {
	sync.Mutex
	partition     PartitionTotal
	vmi           VMInfo
	failPartition bool
	failVMInfo    bool
	calls         int
}

func (f *fakePlatform) PartitionTotal() (*PartitionTotal, error) {
	f.Lock()
	defer f.Unlock()
	f.calls++
	if f.failPartition {
		return nil, queryError("perfstat_partition_total", errFakeQuery)
	}
	p := f.partition
	return &p, nil
}

func (f *fakePlatform) VMInfo() (*VMInfo, error) {
	f.Lock()
	defer f.Unlock()
	if f.failVMInfo {
		return nil, queryError("vmgetinfo", errFakeQuery)
	}
	v := f.vmi
	return &v, nil
}

func (f *fakePlatform) set(fn func(*fakePlatform)) {
	f.Lock()
	defer f.Unlock()
	fn(f)
}

type fakeClock struct {
	sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1350000000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.Lock()
	defer c.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.Lock()
	defer c.Unlock()
	c.now = c.now.Add(d)
}

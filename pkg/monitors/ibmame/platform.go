package ibmame

import (
	"fmt"

	"github.com/pkg/errors"
)

// QueryErrorString is what string metrics read as while the platform query
// behind them is failing.
const QueryErrorString = "libperfstat returned an error"

// ErrPlatformQuery is matched (with errors.Is) by every error a Platform
// returns.
var ErrPlatformQuery = errors.New(QueryErrorString)

// ErrUnsupportedPlatform is the cause of every query on operating systems
// without libperfstat.
var ErrUnsupportedPlatform = errors.New("AME statistics are only available on AIX")

// PartitionTotal holds the partition wide memory and AME fields of
// perfstat_partition_total_t that the monitor reports.
type PartitionTotal struct {
	AMEEnabled bool
	AMEVersion int
	// Sizes in 4 KiB pages
	TrueMemory     uint64
	ExpandedMemory uint64
	// Expansion factors multiplied by 100
	TargetMemExpFactor  uint64
	CurrentMemExpFactor uint64
	// Sizes in bytes
	TargetCPoolSize uint64
	MaxCPoolSize    uint64
	MinUCPoolSize   uint64
	AMEDeficitSize  uint64
	// Cumulative nanoseconds spent compressing and decompressing memory
	CMCSTotalTime uint64
}

// VMInfo holds the expansion factors reported by the virtual memory manager
// through vmgetinfo(VMINFO), multiplied by 100.
type VMInfo struct {
	AMEFactorTarget uint64
	AMEFactorActual uint64
}

// Platform is the native statistics API.  Implementations must not block.
type Platform interface {
	PartitionTotal() (*PartitionTotal, error)
	VMInfo() (*VMInfo, error)
}

// QueryError is returned when one of the native calls fails.
type QueryError struct {
	Call string
	Err  error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Call, e.Err)
}

// Unwrap returns the underlying cause
func (e *QueryError) Unwrap() error {
	return e.Err
}

// Is makes every QueryError match ErrPlatformQuery
func (e *QueryError) Is(target error) bool {
	return target == ErrPlatformQuery
}

func queryError(call string, err error) error {
	return errors.WithStack(&QueryError{Call: call, Err: err})
}

type unsupportedPlatform struct{}

func (unsupportedPlatform) PartitionTotal() (*PartitionTotal, error) {
	return nil, queryError("perfstat_partition_total", ErrUnsupportedPlatform)
}

func (unsupportedPlatform) VMInfo() (*VMInfo, error) {
	return nil, queryError("vmgetinfo", ErrUnsupportedPlatform)
}

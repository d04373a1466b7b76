package utils

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRunOnInterval(t *testing.T) {
	var executions int64
	ctx, cancel := context.WithCancel(context.Background())

	RunOnInterval(ctx, func() {
		atomic.AddInt64(&executions, 1)
	}, 10*time.Millisecond)

	// The first run happens before RunOnInterval returns
	require.Equal(t, int64(1), atomic.LoadInt64(&executions))

	require.Eventually(t, func() bool {
		return atomic.LoadInt64(&executions) >= 3
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	time.Sleep(30 * time.Millisecond)
	stopped := atomic.LoadInt64(&executions)
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, stopped, atomic.LoadInt64(&executions))
}

package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/apimachinery/pkg/util/clock"

	"github.com/splashsched/scheduler/internal/splash"
)

func TestSourceMonitorOnlyCountsTaskScheduled(t *testing.T) {
	mon := &SourceMonitor{}
	mon.TaskAdded(splash.Task{}, 1.0)
	assert.Equal(t, uint64(0), mon.dispatchedCount())

	mon.TaskScheduled(splash.Task{}, 1.0)
	mon.TaskScheduled(splash.Task{}, 1.0)
	assert.Equal(t, uint64(2), mon.dispatchedCount())
}

// TestCollectorRefreshPopulatesSnapshot exercises Run's background refresh
// loop with an injected fake clock, following the reference codebase's habit
// (subscription_manager_test.go's testClock.Step) of driving a periodic
// refresh deterministically rather than sleeping in the test for real time
// to pass.
func TestCollectorRefreshPopulatesSnapshot(t *testing.T) {
	mon := &SourceMonitor{}
	mon.TaskScheduled(splash.Task{}, 1.0)

	depths := []int{3, 1}
	sizes := []int{7}
	fakeClock := clock.NewFakeClock(time.Now())
	c := NewCollector(len(depths), len(sizes), mon,
		func(i int) int { return depths[i] },
		func(i int) int { return sizes[i] },
	)
	c.clock = fakeClock
	c.refreshEvery = time.Second

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		c.Run(stop)
		close(done)
	}()

	// The initial refresh in Run happens synchronously before the ticker is
	// armed, so the first snapshot is visible without stepping the clock.
	require.Eventually(t, func() bool {
		s := c.snap.load()
		return len(s.queueDepths) == len(depths)
	}, time.Second, time.Millisecond)

	depths[0] = 9
	time.Sleep(10 * time.Millisecond)
	fakeClock.Step(time.Second)

	require.Eventually(t, func() bool {
		return c.snap.load().queueDepths[0] == 9
	}, time.Second, time.Millisecond)

	close(stop)
	<-done

	reg := prometheus.NewPedanticRegistry()
	require.NoError(t, reg.Register(c))
	families, err := reg.Gather()
	require.NoError(t, err)

	var sawDispatched bool
	for _, mf := range families {
		if mf.GetName() == metricsPrefix+"tasks_dispatched_total" {
			sawDispatched = true
			require.Len(t, mf.Metric, 1)
			assert.Equal(t, float64(1), mf.Metric[0].GetCounter().GetValue())
		}
	}
	assert.True(t, sawDispatched, "expected %s in gathered families", metricsPrefix+"tasks_dispatched_total")
}

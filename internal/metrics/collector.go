// Package metrics exposes the running state of a splash scheduler as
// Prometheus metrics, following the reference codebase's habit of a
// background-refreshed snapshot collected under a single prometheus.Collector
// rather than updating gauges inline from the hot path.
package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"k8s.io/apimachinery/pkg/util/clock"

	"github.com/splashsched/scheduler/internal/splash"
)

const metricsPrefix = "splash_scheduler_"

var (
	queueDepthDesc = prometheus.NewDesc(
		metricsPrefix+"queue_depth",
		"Number of vertices currently sitting in a shard, awaiting absorption into a splash.",
		[]string{"shard"}, nil)
	splashSizeDesc = prometheus.NewDesc(
		metricsPrefix+"splash_size",
		"Number of vertices not yet consumed from each worker's current splash.",
		[]string{"worker"}, nil)
	tasksDispatchedDesc = prometheus.NewDesc(
		metricsPrefix+"tasks_dispatched_total",
		"Total number of tasks emitted by GetNextTask across all workers.",
		nil, nil)
	activeWorkersDesc = prometheus.NewDesc(
		metricsPrefix+"active_workers",
		"Number of worker slots the scheduler was constructed with.",
		nil, nil)
)

// SourceMonitor is the splash.Monitor this package installs on a Scheduler
// to observe task lifecycle events without the scheduler itself depending on
// Prometheus.
type SourceMonitor struct {
	mu         sync.Mutex
	dispatched uint64
}

var _ splash.Monitor = (*SourceMonitor)(nil)

func (m *SourceMonitor) TaskAdded(splash.Task, float64) {}

func (m *SourceMonitor) TaskScheduled(splash.Task, float64) {
	m.mu.Lock()
	m.dispatched++
	m.mu.Unlock()
}

func (m *SourceMonitor) dispatchedCount() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dispatched
}

// snapshot is the immutable point-in-time view a Collect call serves.
type snapshot struct {
	queueDepths  []int
	splashSizes  []int
	dispatched   uint64
	activeWorker int
}

// Collector is a prometheus.Collector reporting on a running scheduler.
// Depths and sizes are refreshed periodically by a background goroutine
// (the reference codebase's MetricsCollector pattern) rather than sampled
// synchronously inside Collect, so a slow Prometheus scrape never contends
// with the scheduler's shard locks.
type Collector struct {
	numShards    int
	numWorkers   int
	monitor      *SourceMonitor
	shardDepth   func(shard int) int
	splashSize   func(worker int) int
	clock        clock.Clock
	refreshEvery time.Duration

	snap snapState
}

// snapState guards the current snapshot with an RWMutex; Collect holds only
// the read lock, and only while copying the snapshot out.
type snapState struct {
	mu    sync.RWMutex
	value snapshot
}

func (a *snapState) load() snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.value
}

func (a *snapState) store(s snapshot) {
	a.mu.Lock()
	a.value = s
	a.mu.Unlock()
}

// NewCollector builds a Collector. shardDepth and splashSize are callbacks
// into the running scheduler's introspection surface; monitor must already
// be installed on that scheduler via splash.WithMonitor.
func NewCollector(numShards, numWorkers int, monitor *SourceMonitor, shardDepth func(int) int, splashSize func(int) int) *Collector {
	return &Collector{
		numShards:    numShards,
		numWorkers:   numWorkers,
		monitor:      monitor,
		shardDepth:   shardDepth,
		splashSize:   splashSize,
		clock:        clock.RealClock{},
		refreshEvery: time.Second,
	}
}

// SetRefreshInterval overrides the default one-second refresh period. Call
// before Run.
func (c *Collector) SetRefreshInterval(d time.Duration) {
	if d > 0 {
		c.refreshEvery = d
	}
}

// Run refreshes the snapshot every refreshEvery until stop is closed.
// Call it in its own goroutine; Collect works from a stale/zero snapshot
// until the first refresh completes.
func (c *Collector) Run(stop <-chan struct{}) {
	c.refresh()
	ticker := c.clock.NewTicker(c.refreshEvery)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C():
			c.refresh()
		}
	}
}

func (c *Collector) refresh() {
	depths := make([]int, c.numShards)
	for i := range depths {
		depths[i] = c.shardDepth(i)
	}
	sizes := make([]int, c.numWorkers)
	for i := range sizes {
		sizes[i] = c.splashSize(i)
	}
	c.snap.store(snapshot{
		queueDepths:  depths,
		splashSizes:  sizes,
		dispatched:   c.monitor.dispatchedCount(),
		activeWorker: c.numWorkers,
	})
	log.WithField("component", "splash-metrics").Trace("refreshed metrics snapshot")
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- queueDepthDesc
	ch <- splashSizeDesc
	ch <- tasksDispatchedDesc
	ch <- activeWorkersDesc
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.snap.load()
	for shard, depth := range s.queueDepths {
		ch <- prometheus.MustNewConstMetric(queueDepthDesc, prometheus.GaugeValue, float64(depth), shardLabel(shard))
	}
	for worker, size := range s.splashSizes {
		ch <- prometheus.MustNewConstMetric(splashSizeDesc, prometheus.GaugeValue, float64(size), workerLabel(worker))
	}
	ch <- prometheus.MustNewConstMetric(tasksDispatchedDesc, prometheus.CounterValue, float64(s.dispatched))
	ch <- prometheus.MustNewConstMetric(activeWorkersDesc, prometheus.GaugeValue, float64(s.activeWorker))
}

func shardLabel(i int) string  { return strconv.Itoa(i) }
func workerLabel(i int) string { return strconv.Itoa(i) }

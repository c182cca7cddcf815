// Package splash implements the Splash Scheduler: a parallel,
// priority-driven task scheduler for iterative graph computations. See
// SPEC_FULL.md for the full design; this package is the scheduling engine
// itself — the sharded priority store, the splash-growth algorithm, the
// per-worker consumption state machine, and the termination detector. It
// does not execute updates, own graph topology, or checkpoint anything.
package splash

import (
	"math/rand"
	"sync"
	"sync/atomic"

	log "github.com/sirupsen/logrus"

	"github.com/splashsched/scheduler/internal/graph"
)

// workerState holds the per-worker fields that are touched only by that
// worker's own goroutine and therefore need no synchronisation (spec §5).
// The exception is remaining, which a metrics collector goroutine reads
// concurrently; it is published via atomic.Int64 rather than by letting a
// foreign goroutine peek at splash/splashIndex directly.
type workerState struct {
	splash      []int
	splashIndex int
	cursor      int
	rng         *rand.Rand
	remaining   atomic.Int64
}

// Scheduler is the parallel splash scheduler. Construct one with
// NewScheduler, call Start once, then have each of numWorkers goroutines
// call GetNextTask in a loop until it returns Complete.
type Scheduler struct {
	graph      graph.Graph
	numWorkers int
	splashSize int
	seed       int64

	shardPermutation []int
	shards           []*shard
	shardMap         *shardMap
	active           *ActiveSet
	detector         *terminationDetector
	monitor          Monitor

	workers []workerState

	mu       sync.Mutex
	updateFn UpdateFunction

	aborted atomic.Bool

	log *log.Entry
}

// NewScheduler constructs a scheduler over g with numWorkers worker slots.
// It performs no scheduling work until Start is called.
func NewScheduler(g graph.Graph, numWorkers int, opts ...Option) *Scheduler {
	checkInvariant(numWorkers > 0, "splash: numWorkers must be positive, got %d", numWorkers)

	s := &Scheduler{
		graph:      g,
		numWorkers: numWorkers,
		splashSize: defaultSplashSize,
		seed:       defaultSeed,
		monitor:    NopMonitor{},
		log:        log.WithField("component", "splash-scheduler"),
	}
	for _, opt := range opts {
		opt(s)
	}

	q := numWorkers * shardsPerWorker
	if s.shardPermutation != nil {
		checkInvariant(len(s.shardPermutation) == q,
			"splash: shard permutation length %d does not match shard count %d", len(s.shardPermutation), q)
	}

	s.shards = make([]*shard, q)
	for i := range s.shards {
		s.shards[i] = newShard()
	}
	s.shardMap = newShardMap(q)
	s.shardMap.perm = s.shardPermutation
	s.active = NewActiveSet(g.NumVertices())
	s.detector = newTerminationDetector(numWorkers)

	s.workers = make([]workerState, numWorkers)
	for i := range s.workers {
		s.workers[i].rng = rand.New(rand.NewSource(s.seed + int64(i)))
	}

	return s
}

// Start grows an initial splash for every worker and resets the
// termination detector. Call once, immediately before workers begin.
func (s *Scheduler) Start() {
	s.detector.reset()
	for id := range s.workers {
		s.rebuildSplash(id)
	}
}

// Abort stops task emission: once every worker has run out of tasks,
// GetNextTask reports Waiting (never Complete) until Restart is called.
// In-flight tasks are not recalled.
func (s *Scheduler) Abort() {
	s.aborted.Store(true)
}

// Restart empties all worker splashes and clears the abort flag, but
// preserves queue contents.
func (s *Scheduler) Restart() {
	s.aborted.Store(false)
	for i := range s.workers {
		s.workers[i].splash = nil
		s.workers[i].splashIndex = 0
		s.workers[i].remaining.Store(0)
	}
	s.detector.reset()
}

func (s *Scheduler) numShards() int { return len(s.shards) }

func (s *Scheduler) shardFor(v int) *shard {
	return s.shards[s.shardMap.shardFor(v)]
}

func (s *Scheduler) workerOwning(shardIdx int) int {
	return shardIdx / shardsPerWorker
}

func (s *Scheduler) edgeCount(v int) int {
	return len(s.graph.InEdgeIDs(v)) + len(s.graph.OutEdgeIDs(v))
}

// setOrCheckUpdateFunction implements the "every task carries the same
// update function" precondition from spec §3, establishing the canonical
// function on first use.
func (s *Scheduler) setOrCheckUpdateFunction(fn UpdateFunction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.updateFn.isZero() {
		s.updateFn = fn
		return
	}
	checkInvariant(s.updateFn.Equal(fn), "splash: task submitted with a different update function than previously established")
}

func (s *Scheduler) currentUpdateFunction() UpdateFunction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateFn
}

// AddTask enqueues or reprioritises task.Vertex. See spec §4.1 for the
// exact active-bit/queue-membership semantics.
func (s *Scheduler) AddTask(task Task, priority float64) {
	checkInvariant(task.Vertex >= 0 && task.Vertex < s.graph.NumVertices(),
		"splash: vertex %d out of range [0, %d)", task.Vertex, s.graph.NumVertices())
	s.setOrCheckUpdateFunction(task.Update)

	shardIdx := s.shardMap.shardFor(task.Vertex)
	inserted := s.shards[shardIdx].insertOrRaiseIfActive(task.Vertex, priority, s.active)

	s.detector.newJob(s.workerOwning(shardIdx))
	if inserted {
		s.monitor.TaskAdded(task, priority)
	}
}

// AddTaskToAll sets the canonical update function and calls AddTask for
// every vertex in [0, N).
func (s *Scheduler) AddTaskToAll(fn UpdateFunc, priority float64) {
	uf := UpdateFunction{Func: fn}
	for v := 0; v < s.graph.NumVertices(); v++ {
		s.AddTask(Task{Vertex: v, Update: uf}, priority)
	}
}

// AddTasks calls AddTask for each vertex in vertices.
func (s *Scheduler) AddTasks(vertices []int, fn UpdateFunc, priority float64) {
	uf := UpdateFunction{Func: fn}
	for _, v := range vertices {
		s.AddTask(Task{Vertex: v, Update: uf}, priority)
	}
}

// GetNextTask is the main consumption entry point. It blocks (via the
// termination detector) until a task is available or global completion is
// declared; while aborted, completion is reported as Waiting instead.
func (s *Scheduler) GetNextTask(workerID int) Result {
	checkInvariant(workerID >= 0 && workerID < s.numWorkers,
		"splash: worker id %d out of range [0, %d)", workerID, s.numWorkers)

	for {
		if r := s.nextFromSplash(workerID); r.Status != Waiting {
			return r
		}
		s.detector.beginSleepCriticalSection(workerID)
		if r := s.nextFromSplash(workerID); r.Status != Waiting {
			s.detector.cancelSleepCriticalSection(workerID)
			return r
		}
		if s.detector.endSleepCriticalSection(workerID) {
			if s.aborted.Load() {
				return Result{Status: Waiting}
			}
			return Result{Status: Complete}
		}
	}
}

// NumShards returns the total number of shards (numWorkers*shardsPerWorker),
// for introspection by a metrics collector.
func (s *Scheduler) NumShards() int { return s.numShards() }

// NumWorkers returns the worker count the scheduler was constructed with.
func (s *Scheduler) NumWorkers() int { return s.numWorkers }

// ShardDepth reports how many vertices are currently queued in shard i,
// for introspection by a metrics collector.
func (s *Scheduler) ShardDepth(i int) int {
	sh := s.shards[i]
	sh.mu.Lock()
	defer sh.mu.Unlock()
	return len(sh.heap)
}

// CurrentSplashLen reports how many vertices remain unconsumed in
// workerID's current splash, for introspection by a metrics collector. It
// reads workerState.remaining, an atomic counter the owning worker
// publishes on every splash rebuild/consume, since splash/splashIndex
// themselves are documented as single-goroutine-owned and unsafe to read
// from this collector goroutine.
func (s *Scheduler) CurrentSplashLen(workerID int) int {
	return int(s.workers[workerID].remaining.Load())
}

// CallbackFor returns the callback surface a running update function for
// workerID should use to request reprioritisations.
func (s *Scheduler) CallbackFor(workerID int) Callback {
	return Callback{scheduler: s, workerID: workerID}
}

// The following are lifecycle no-ops accepted so engines can notify any
// scheduler implementation uniformly; they have no effect here.

func (s *Scheduler) CompletedTask(Task)              {}
func (s *Scheduler) UpdateState(interface{})         {}
func (s *Scheduler) ScopedModifications(func() error) {}

package splash

// Callback is the per-worker surface exposed to running update functions so
// they can request reprioritisations. It holds only a back-reference to the
// scheduler — never the reverse — so the engine can own scheduler and
// callbacks without a reference cycle (spec §9).
type Callback struct {
	scheduler *Scheduler
	workerID  int
}

// WorkerID returns the worker this callback was scoped to.
func (c Callback) WorkerID() int { return c.workerID }

// AddTask requests that vertex be (re)scheduled at priority, on behalf of
// the update currently running on this callback's worker.
func (c Callback) AddTask(vertex int, priority float64) {
	c.scheduler.AddTask(Task{
		Vertex: vertex,
		Update: c.scheduler.currentUpdateFunction(),
	}, priority)
}

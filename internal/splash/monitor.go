package splash

// Monitor receives notifications when tasks enter or leave the scheduler.
// Its implementation is out of scope for the scheduler itself; NopMonitor
// is installed by default.
type Monitor interface {
	// TaskAdded is called when AddTask (or a call it fans out from, such
	// as AddTaskToAll) inserts a task into a shard or applies
	// insert-or-raise to a task already queued there.
	TaskAdded(task Task, priority float64)
	// TaskScheduled is called when a task is emitted by GetNextTask.
	TaskScheduled(task Task, priority float64)
}

// NopMonitor is the default no-op Monitor.
type NopMonitor struct{}

func (NopMonitor) TaskAdded(Task, float64)     {}
func (NopMonitor) TaskScheduled(Task, float64) {}

package splash

import "sync"

// terminationDetector is the cooperative sleep/wake coordinator described in
// spec §4.6. A worker "announces" it found no work by entering the sleep
// critical section; once every worker is simultaneously inside it, global
// completion is declared and every blocked EndSleepCriticalSection call
// returns true. A NewJob call for a worker currently inside the critical
// section evicts it (and wakes it) before a termination decision can be
// made, which is what keeps a concurrent reprioritisation from racing a
// false-positive COMPLETE.
type terminationDetector struct {
	mu         sync.Mutex
	cond       *sync.Cond
	numWorkers int
	inCS       map[int]bool
	terminated bool
}

func newTerminationDetector(numWorkers int) *terminationDetector {
	d := &terminationDetector{
		numWorkers: numWorkers,
		inCS:       make(map[int]bool, numWorkers),
	}
	d.cond = sync.NewCond(&d.mu)
	return d
}

// reset clears sleeping state and the abort-independent termination flag.
// It does not touch queue contents; callers are responsible for that.
func (d *terminationDetector) reset() {
	d.mu.Lock()
	d.inCS = make(map[int]bool, d.numWorkers)
	d.terminated = false
	d.mu.Unlock()
	d.cond.Broadcast()
}

// newJob announces that workerID's shard group has received new work. If
// workerID was inside the sleep critical section, it is evicted and its
// blocked EndSleepCriticalSection call (if any) returns false.
func (d *terminationDetector) newJob(workerID int) {
	d.mu.Lock()
	delete(d.inCS, workerID)
	d.mu.Unlock()
	d.cond.Broadcast()
}

// beginSleepCriticalSection announces that workerID currently sees no work.
// If this makes every worker simultaneously announced, termination is
// declared immediately.
func (d *terminationDetector) beginSleepCriticalSection(workerID int) {
	d.mu.Lock()
	d.inCS[workerID] = true
	if len(d.inCS) == d.numWorkers {
		d.terminated = true
	}
	d.mu.Unlock()
	d.cond.Broadcast()
}

// cancelSleepCriticalSection withdraws the sleep announcement without
// blocking, used when a retry of the fast path found work after all.
func (d *terminationDetector) cancelSleepCriticalSection(workerID int) {
	d.mu.Lock()
	delete(d.inCS, workerID)
	d.mu.Unlock()
}

// endSleepCriticalSection blocks until either global termination is
// declared (returns true) or some NewJob call evicts workerID from the
// critical section (returns false, meaning the caller must retry).
func (d *terminationDetector) endSleepCriticalSection(workerID int) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	for {
		if d.terminated {
			return true
		}
		if !d.inCS[workerID] {
			return false
		}
		d.cond.Wait()
	}
}

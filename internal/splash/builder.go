package splash

// rebuildSplash grows a new splash for workerID, per spec §4.4. Precondition:
// the worker's current splash is fully consumed (or empty, as at Start).
func (s *Scheduler) rebuildSplash(workerID int) {
	w := &s.workers[workerID]

	root, rootPriority, ok := s.acquireRoot(workerID)
	if !ok {
		w.splash = nil
		w.splashIndex = 0
		w.remaining.Store(0)
		return
	}

	grown := s.growTree(root, rootPriority, w.rng)
	w.splash = symmetricReversal(grown)
	w.splashIndex = 0
	w.remaining.Store(int64(len(w.splash)))
}

// acquireRoot scans workerID's shardsPerWorker owned shards round-robin
// starting from that worker's rotating cursor, popping the maximum element
// of the first non-empty shard it finds.
func (s *Scheduler) acquireRoot(workerID int) (vertex int, priority float64, ok bool) {
	w := &s.workers[workerID]
	base := workerID * shardsPerWorker
	for i := 0; i < shardsPerWorker; i++ {
		slot := (w.cursor + i) % shardsPerWorker
		sh := s.shards[base+slot]
		if v, p, popped := sh.peekPop(); popped {
			w.cursor = (slot + 1) % shardsPerWorker
			return v, p, true
		}
	}
	return 0, 0, false
}

// growTree runs the bounded BFS-through-in-neighbours splash growth
// described in spec §4.4 step 2-3, returning the root-first sequence of
// vertices absorbed into the splash (pre-reversal).
func (s *Scheduler) growTree(root int, rootPriority float64, rng randSource) []int {
	grown := []int{root}
	visited := map[int]bool{root: true}

	work := s.edgeCount(root)

	var frontier []int
	if rootPriority > 1 {
		// High-residual vertices should not drag along their
		// neighbourhood: force the tree to degenerate to just the root.
		work = s.splashSize
	} else {
		frontier = s.shuffledInNeighbours(root, rng)
		for _, u := range frontier {
			visited[u] = true
		}
	}

	for len(frontier) > 0 && work < s.splashSize {
		v := frontier[0]
		frontier = frontier[1:]

		wv := s.edgeCount(v)
		if work+wv > s.splashSize {
			continue
		}
		if !s.shardFor(v).remove(v) {
			continue
		}
		grown = append(grown, v)
		work += wv

		for _, u := range s.shuffledInNeighbours(v, rng) {
			if !visited[u] {
				visited[u] = true
				frontier = append(frontier, u)
			}
		}
	}

	return grown
}

// randSource is the subset of *math/rand.Rand the builder needs, so tests
// can stub it if ever required.
type randSource interface {
	Shuffle(n int, swap func(i, j int))
}

func (s *Scheduler) shuffledInNeighbours(v int, rng randSource) []int {
	inEdges := s.graph.InEdgeIDs(v)
	neighbours := make([]int, len(inEdges))
	for i, e := range inEdges {
		neighbours[i] = s.graph.Source(e)
	}
	rng.Shuffle(len(neighbours), func(i, j int) { neighbours[i], neighbours[j] = neighbours[j], neighbours[i] })
	return neighbours
}

// symmetricReversal implements spec §4.4 step 4 / testable property 6: for
// a grown sequence of length k, the emitted splash has length 2k-1 and is a
// palindrome (position i equals position 2k-2-i). k==1 (a single-vertex
// splash, whether from the p_root>1 override or a root with no absorbable
// in-neighbours) is returned unchanged.
func symmetricReversal(grown []int) []int {
	k := len(grown)
	if k <= 1 {
		return grown
	}
	rev := make([]int, k)
	for i, v := range grown {
		rev[k-1-i] = v
	}
	full := make([]int, 2*k-1)
	copy(full, rev)
	for i := k; i < 2*k-1; i++ {
		full[i] = rev[2*k-2-i]
	}
	return full
}

// nextFromSplash implements spec §4.5.
func (s *Scheduler) nextFromSplash(workerID int) Result {
	if s.aborted.Load() {
		return Result{Status: Waiting}
	}

	w := &s.workers[workerID]
	for {
		if w.splashIndex >= len(w.splash) {
			s.rebuildSplash(workerID)
			if w.splashIndex >= len(w.splash) {
				return Result{Status: Waiting}
			}
		}

		v := w.splash[w.splashIndex]
		w.splashIndex++
		w.remaining.Store(int64(len(w.splash) - w.splashIndex))

		// Defensive cleanup: a concurrent AddTask may have re-inserted v.
		s.shardFor(v).remove(v)

		if s.active.ClearBit(v) {
			task := Task{Vertex: v, Update: s.currentUpdateFunction()}
			s.monitor.TaskScheduled(task, 1.0)
			return Result{Status: NewTask, Task: task}
		}
		// Bit was already clear: v was consumed by a previous emission
		// and never re-added. Skip to the next index.
	}
}

// Package engine drives a splash.Scheduler to completion: it owns the graph,
// the update function, and the pool of worker goroutines that pull tasks and
// run them, following the reference codebase's habit of a thin driver over a
// scheduling primitive rather than folding worker management into the
// scheduler itself.
package engine

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	log "github.com/sirupsen/logrus"

	commoncontext "github.com/splashsched/scheduler/internal/common/context"
	"github.com/splashsched/scheduler/internal/common/logging"
	"github.com/splashsched/scheduler/internal/graph"
	"github.com/splashsched/scheduler/internal/splash"
)

// Engine runs a splash-scheduled computation to completion across a fixed
// pool of worker goroutines.
type Engine struct {
	graph      graph.Graph
	scheduler  *splash.Scheduler
	numWorkers int
	log        *log.Entry
}

// New constructs an Engine over g, scheduled by sched. numWorkers must match
// the worker count sched was constructed with.
func New(g graph.Graph, sched *splash.Scheduler, numWorkers int) *Engine {
	runID := uuid.New()
	return &Engine{
		graph:      g,
		scheduler:  sched,
		numWorkers: numWorkers,
		log:        log.WithFields(log.Fields{"component": "engine", "run": runID.String()}),
	}
}

// Run starts the scheduler and blocks until every worker's GetNextTask loop
// observes Complete, ctx is cancelled, or a worker's update function returns
// an error. On cancellation it calls Scheduler.Abort so the remaining
// workers unwind promptly instead of running until natural completion.
//
// Errors from multiple concurrently failing workers are collected rather
// than discarding all but the first, since a partial-graph failure often
// implicates more than one vertex.
func (e *Engine) Run(ctx context.Context) error {
	e.scheduler.Start()
	e.log.WithField("workers", e.numWorkers).Info("starting splash engine")

	group, gctx := commoncontext.ErrGroup(commoncontext.New(ctx, e.log))
	var mu sync.Mutex
	var errs *multierror.Error

	for id := 0; id < e.numWorkers; id++ {
		workerID := id
		group.Go(func() error {
			if err := e.runWorker(gctx, workerID); err != nil {
				mu.Lock()
				errs = multierror.Append(errs, err)
				mu.Unlock()
				return err
			}
			return nil
		})
	}

	go func() {
		<-gctx.Done()
		e.scheduler.Abort()
	}()

	group.Wait()

	if errs == nil {
		e.log.Info("splash engine completed")
		return nil
	}
	return errs.ErrorOrNil()
}

func (e *Engine) runWorker(ctx *commoncontext.Context, workerID int) error {
	workerLog := ctx.Log.WithField("worker", workerID)
	cb := e.scheduler.CallbackFor(workerID)

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		result := e.scheduler.GetNextTask(workerID)
		switch result.Status {
		case splash.Complete:
			workerLog.Debug("worker observed completion")
			return nil
		case splash.Waiting:
			// GetNextTask only returns Waiting once Abort has been called;
			// otherwise it blocks internally until NewTask or Complete.
			return nil
		case splash.NewTask:
			task := result.Task
			if err := e.dispatch(workerLog, cb, task); err != nil {
				return err
			}
			e.scheduler.CompletedTask(task)
		}
	}
}

// dispatch runs task's update function and recovers a panic raised at this
// boundary — most commonly a checkInvariant precondition violation
// triggered from inside the update (e.g. Callback.AddTask with an
// out-of-range vertex) — translating it into a stack-trace-carrying fatal
// log line instead of letting it unwind out of the worker goroutine and
// crash the process without one.
func (e *Engine) dispatch(workerLog *log.Entry, cb splash.Callback, task splash.Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			taskLog := workerLog.WithField("vertex", task.Vertex)
			if panicErr, ok := r.(error); ok {
				logging.WithStacktrace(taskLog, panicErr).Fatal("update function panicked on a precondition violation")
			} else {
				taskLog.Fatalf("update function panicked: %v", r)
			}
		}
	}()

	if updateErr := task.Update.Func(task.Vertex, cb); updateErr != nil {
		workerLog.WithError(updateErr).WithField("vertex", task.Vertex).Error("update function failed")
		return updateErr
	}
	return nil
}

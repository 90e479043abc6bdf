package scheduler

import (
	"time"

	"go.uber.org/zap"
)

// ConditionalTask is a task that only becomes runnable once some external
// condition is satisfied (spec.md §4.4 "Conditional task"). The scheduler
// polls Check() on a dedicated watcher goroutine and runs Run() the first
// time it returns true; tasks whose Check() is still false are re-queued.
type ConditionalTask interface {
	// Check reports whether the task is ready to run. Must be cheap and
	// non-blocking: it is polled on the single shared watcher goroutine
	// alongside every other pending conditional task.
	Check() bool
	// Run executes the task body. Called exactly once, after Check()
	// first returns true.
	Run()
}

// conditionalWorker is the single goroutine that owns the scheduler's shared
// conditional-task queue (spec.md §4.4). Unlike the per-worker queues, only
// one goroutine ever touches a conditional task's Check/Run pair, so no
// locking beyond the queue itself is required.
type conditionalWorker struct {
	sched *Scheduler
	done  chan struct{}
}

func newConditionalWorker(s *Scheduler) *conditionalWorker {
	return &conditionalWorker{sched: s, done: make(chan struct{})}
}

// run polls the conditional queue until it is deactivated by Stop(). Each
// pass drains the queue once: ready tasks execute immediately, not-yet-ready
// tasks are pushed back for the next pass. When a pass finds nothing ready,
// the worker suspends for watcher_interval before trying again. A task
// whose Check never returns true is re-polled on every pass for as long as
// the queue is active; watcher_interval is the only throttle on that.
func (cw *conditionalWorker) run() {
	defer close(cw.done)
	q := cw.sched.condQueue

	for q.isActive() {
		pending := q.drain()
		if len(pending) == 0 {
			time.Sleep(cw.sched.cfg.WatcherInterval)
			continue
		}

		progressed := false
		var requeue []ConditionalTask
		for _, t := range pending {
			if t.Check() {
				cw.runTask(t)
				progressed = true
				continue
			}
			requeue = append(requeue, t)
		}
		q.refill(requeue)

		if !progressed {
			time.Sleep(cw.sched.cfg.WatcherInterval)
		}
	}
}

func (cw *conditionalWorker) runTask(t ConditionalTask) {
	defer func() {
		if r := recover(); r != nil && cw.sched.log != nil {
			cw.sched.log.Error("conditional task panicked", zap.Any("recover", r))
		}
	}()
	t.Run()
}

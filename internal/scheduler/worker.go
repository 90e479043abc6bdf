package scheduler

import (
	"runtime"
	"time"

	"go.uber.org/zap"
)

// worker drives one OS-backed goroutine's task-processing loop (spec.md §4.3
// "Worker"). It owns no state beyond its index: the local queue, sticky
// queue, context, and stat block it operates on all live on the Scheduler,
// indexed by this worker's position, so stealing peers can reach them.
type worker struct {
	sched *Scheduler
	index int
}

// init drains any tasks queued for this worker before the scheduler started
// (via ScheduleAt called pre-Start) into the sticky queue (sticky tasks)
// or the local queue (all others), then runs the
// caller-supplied initializer, if any. Mirrors worker::init() reconstructing
// its queues on its NUMA node before touching them.
func (w *worker) init() {
	w.sched.local[w.index].reconstruct()
	w.sched.sticky[w.index].reconstruct()

	w.sched.mu.Lock()
	pending := w.sched.pendingInitial[w.index]
	w.sched.pendingInitial[w.index] = nil
	w.sched.mu.Unlock()

	for _, t := range pending {
		if t.Sticky() {
			w.sched.sticky[w.index].push(t)
		} else {
			w.sched.local[w.index].push(t)
		}
	}

	if w.sched.cfg.Initializer != nil {
		w.sched.cfg.Initializer(w.sched.ctxs[w.index])
	}
}

// run is the worker's main loop: process tasks until both this worker's
// local and sticky queues have been deactivated by Stop(). The conditional
// queue is served by the conditional worker, not here.
func (w *worker) run() {
	ctx := w.sched.ctxs[w.index]
	for w.sched.local[w.index].isActive() || w.sched.sticky[w.index].isActive() {
		w.processNext(ctx)
	}
}

// processNext implements worker::process_next(): try this worker's own
// queues first, retry them a bounded number of times (cheap, no stealing
// overhead), then attempt to steal from a peer, and finally idle.
func (w *worker) processNext(ctx *Context) {
	if t, ok := w.tryLocalAndSticky(ctx); ok {
		ctx.resetEmpty()
		ctx.setStolen(false)
		w.executeTask(ctx, t, false)
		return
	}

	if w.sched.cfg.StealingEnabled {
		retries := w.sched.cfg.StealingWait * len(w.sched.local)
		for i := 0; i < retries; i++ {
			if t, ok := w.tryLocalAndSticky(ctx); ok {
				ctx.resetEmpty()
				w.executeTask(ctx, t, false)
				return
			}
		}
		if t, from, ok := w.stealAndExecute(); ok {
			ctx.resetEmpty()
			ctx.setLastSteal(from)
			w.executeTask(ctx, t, true)
			return
		}
	}

	w.idle(ctx)
}

// tryLocalAndSticky polls the local and sticky queues in an order decided by
// the N/M fairness accumulator (spec.md §4.3 "ratio_check_local_first"):
// most polls check whichever queue the ratio favors first, falling back to
// the other queue if the first comes up empty.
func (w *worker) tryLocalAndSticky(ctx *Context) (Task, bool) {
	local := w.sched.local[w.index]
	sticky := w.sched.sticky[w.index]

	if ctx.localFirstAcc.advance() {
		if t, ok := local.tryPop(); ok {
			return t, true
		}
		if t, ok := sticky.tryPop(); ok {
			w.sched.stats[w.index].sticky.Add(1)
			return t, true
		}
		return nil, false
	}

	if t, ok := sticky.tryPop(); ok {
		w.sched.stats[w.index].sticky.Add(1)
		return t, true
	}
	if t, ok := local.tryPop(); ok {
		return t, true
	}
	return nil, false
}

// stealAndExecute walks the worker ring starting just past the peer last
// stolen from, popping the first non-empty local queue it finds. Sticky
// queues are never targeted: sticky tasks are pinned to the worker they
// were scheduled on.
func (w *worker) stealAndExecute() (Task, int, bool) {
	n := len(w.sched.local)
	ctx := w.sched.ctxs[w.index]
	start := ctx.lastSteal()
	for i := 1; i <= n; i++ {
		peer := (start + i) % n
		if peer == w.index {
			continue
		}
		if t, ok := w.sched.local[peer].tryPop(); ok {
			return t, peer, true
		}
	}
	return nil, 0, false
}

// executeTask runs t, recovering from a panic so one faulty task cannot take
// down the worker, and bumps the relevant stat counters. busy_working is
// left untouched here: spec.md §4.3 only ever clears it in
// suspend_if_needed, so it stays true across every successful poll and a
// "wakeup run" is counted only for the first task executed after an actual
// suspension, not after every task.
func (w *worker) executeTask(ctx *Context, t Task, stolen bool) {
	stat := &w.sched.stats[w.index]
	wasIdle := !ctx.isBusyWorking()

	ctx.setStolen(stolen)
	ctx.setBusyWorking(true)
	if stolen {
		stat.steal.Add(1)
	}
	if wasIdle {
		stat.wakeupRun.Add(1)
	}

	func() {
		defer func() {
			if r := recover(); r != nil && w.sched.log != nil {
				w.sched.log.Error("scheduler task panicked",
					zap.Int("worker", w.index),
					zap.Any("recover", r),
				)
			}
		}()
		t.Run(ctx)
	}()

	stat.count.Add(1)
}

// idle runs when both queues and stealing came up empty: it yields or sleeps
// for task_polling_wait, and once empty_count exceeds worker_try_count (and
// busy_worker is disabled) suspends the underlying thread until reactivated
// or woken by its timeout.
func (w *worker) idle(ctx *Context) {
	count := ctx.bumpEmpty()

	if !w.sched.cfg.BusyWorker && count > w.sched.cfg.WorkerTryCount {
		w.sched.stats[w.index].suspend.Add(1)
		ctx.setBusyWorking(false)
		ctx.Thread().suspend(w.sched.cfg.WorkerSuspendTimeout)
		ctx.resetEmpty()
		return
	}

	switch {
	case w.sched.cfg.TaskPollingWait <= 0:
		return
	case w.sched.cfg.TaskPollingWait == 1:
		runtime.Gosched()
	default:
		time.Sleep(time.Duration(w.sched.cfg.TaskPollingWait-2) * time.Microsecond)
	}
}

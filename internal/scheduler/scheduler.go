package scheduler

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// WorkerAffinity identifies a specific worker a task prefers to run on
// (spec.md §4.1 "preferred worker for current thread"). The zero value
// means "no preference" — the scheduler falls back to round robin.
type WorkerAffinity struct {
	index int
	bound bool
}

// Scheduler is ridge's work-stealing task scheduler (spec.md §4, C1-C5): a
// fixed pool of worker goroutines, each with a local and sticky queue, plus
// a shared conditional-task queue serviced by a single watcher goroutine.
// Grounded on the teacher's internal/infra/scheduler/scheduler.go for the
// overall shape (Config, atomic stat counters, Start/Stop lifecycle) and on
// tateyama's task_scheduler/scheduler.h for exact method semantics.
type Scheduler struct {
	cfg Config
	log *zap.Logger

	local  []*taskQueue[Task]
	sticky []*taskQueue[Task]
	ctxs   []*Context
	stats  []workerStat

	threads []*ThreadControl

	condQueue  *taskQueue[ConditionalTask]
	condWorker *conditionalWorker
	watcher    *ThreadControl

	mu             sync.Mutex
	pendingInitial [][]Task
	rrNext         atomic.Uint64
	started        bool
	startedAt      time.Time
}

// New constructs a Scheduler from cfg but does not start any goroutines;
// call Start to do that. log may be nil, in which case task panics and
// scheduler errors are silently swallowed rather than logged.
func New(cfg Config, log *zap.Logger) (*Scheduler, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	n := cfg.ThreadCount
	s := &Scheduler{
		cfg:            cfg,
		log:            log,
		local:          make([]*taskQueue[Task], n),
		sticky:         make([]*taskQueue[Task], n),
		ctxs:           make([]*Context, n),
		stats:          make([]workerStat, n),
		threads:        make([]*ThreadControl, n),
		condQueue:      newTaskQueue[ConditionalTask](),
		pendingInitial: make([][]Task, n),
	}

	for i := 0; i < n; i++ {
		s.local[i] = newTaskQueue[Task]()
		s.sticky[i] = newTaskQueue[Task]()
		s.ctxs[i] = &Context{
			index:         i,
			lastStealFrom: i,
			localFirstAcc: newRatioAccumulator(cfg.RatioCheckLocalFirstNum, cfg.RatioCheckLocalFirstDen),
		}
	}

	return s, nil
}

// Bind reserves worker idx for the current call site's preferential
// scheduling (tateyama's preferred_worker_for_current_thread /
// initialize_preferred_worker_for_current_thread). The returned token can
// be passed to ScheduleAt. idx must be in [0, ThreadCount).
func (s *Scheduler) Bind(idx int) WorkerAffinity {
	if idx < 0 || idx >= len(s.local) {
		return WorkerAffinity{}
	}
	return WorkerAffinity{index: idx, bound: true}
}

// Schedule submits t for execution on whichever worker the scheduler
// chooses — round robin among workers, unless t.Sticky() is true, in which
// case it is queued on the sticky queue of the round-robin target so it
// never moves again.
func (s *Scheduler) Schedule(t Task) {
	idx := int(s.rrNext.Add(1)-1) % len(s.local)
	s.scheduleOn(idx, t)
}

// ScheduleAt submits t to run on the worker identified by aff, bypassing
// round robin. Used for tasks that must run on a specific session's owning
// worker.
func (s *Scheduler) ScheduleAt(t Task, aff WorkerAffinity) {
	idx := aff.index
	if !aff.bound {
		idx = int(s.rrNext.Add(1)-1) % len(s.local)
	}
	s.scheduleOn(idx, t)
}

func (s *Scheduler) scheduleOn(idx int, t Task) {
	s.mu.Lock()
	if !s.started {
		s.pendingInitial[idx] = append(s.pendingInitial[idx], t)
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	if t.Sticky() {
		s.sticky[idx].push(t)
	} else {
		s.local[idx].push(t)
	}
	if !s.cfg.BusyWorker && s.threads[idx] != nil {
		s.threads[idx].activate()
	}
}

// ScheduleConditional submits t to the shared conditional-task queue; its
// Check() is polled by the watcher goroutine until it returns true.
func (s *Scheduler) ScheduleConditional(t ConditionalTask) {
	s.condQueue.push(t)
}

// Start spins up ThreadCount worker goroutines plus one watcher goroutine
// for the conditional queue, waits for every worker to finish its init
// step, then activates them all. Start is not idempotent: calling it twice
// returns an error.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return errAlreadyStarted
	}
	s.mu.Unlock()

	for i := range s.local {
		idx := i
		w := &worker{sched: s, index: idx}
		tc := newThreadControl(idx, s.cfg.Affinity, w.init, w.run)
		s.threads[idx] = tc
		s.ctxs[idx].setThread(tc)
	}

	s.condWorker = newConditionalWorker(s)
	s.watcher = newThreadControl(len(s.local), AffinityConfig{ForceNUMANode: -1}, nil, s.condWorker.run)

	for _, tc := range s.threads {
		tc.waitInitialization()
	}
	s.watcher.waitInitialization()

	for _, tc := range s.threads {
		tc.activate()
	}
	s.watcher.activate()

	s.mu.Lock()
	s.started = true
	s.startedAt = time.Now()
	s.mu.Unlock()

	return nil
}

// Stop deactivates every queue (so worker loops exit once drained),
// activates suspended workers so they notice the deactivation, and waits
// for all worker and watcher goroutines to exit.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return errNotStarted
	}
	s.mu.Unlock()

	for i := range s.local {
		s.local[i].deactivate()
		s.sticky[i].deactivate()
	}
	s.condQueue.deactivate()

	for _, tc := range s.threads {
		tc.activate()
	}
	s.watcher.activate()

	for _, tc := range s.threads {
		tc.join()
	}
	s.watcher.join()

	s.mu.Lock()
	s.started = false
	s.mu.Unlock()

	return nil
}

// Stats returns a point-in-time snapshot of every worker's counters
// (tateyama's worker_stat, exposed for the status/metrics service).
func (s *Scheduler) Stats() []WorkerStat {
	out := make([]WorkerStat, len(s.stats))
	for i := range s.stats {
		out[i] = s.stats[i].snapshot(i)
	}
	return out
}

// WorkerDiagnostics is the itemized dump of one worker's queues, named the
// way tateyama's print_diagnostic labels each queued task.
type WorkerDiagnostics struct {
	Local  []string
	Sticky []string
}

// Diagnostics returns, per worker, a label for every task currently sitting
// in its local and sticky queues (spec.md §4.5 "print_diagnostic ... an
// itemized dump of queued tasks"). Each queue is drained into a backup
// slice, labeled, and immediately refilled in the same order, so callers
// must tolerate a task being processed (and so vanishing from the dump)
// between the drain and the refill.
func (s *Scheduler) Diagnostics() map[int]WorkerDiagnostics {
	out := make(map[int]WorkerDiagnostics, len(s.local))
	for i := range s.local {
		local := s.local[i].drain()
		s.local[i].refill(local)
		sticky := s.sticky[i].drain()
		s.sticky[i].refill(sticky)

		out[i] = WorkerDiagnostics{
			Local:  labelTasks(local),
			Sticky: labelTasks(sticky),
		}
	}
	return out
}

// labelTasks renders each task's diagnostic label: its String() if it
// implements fmt.Stringer, else its dynamic type name.
func labelTasks(ts []Task) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		if sr, ok := t.(fmt.Stringer); ok {
			out[i] = sr.String()
			continue
		}
		out[i] = fmt.Sprintf("%T", t)
	}
	return out
}

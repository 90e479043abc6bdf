package scheduler

import "sync/atomic"

// workerStat tracks the per-worker counters spec.md §7 requires Stats() to
// expose: tasks executed, tasks stolen from a peer, tasks popped off the
// sticky queue, wakeups from a suspended state that then ran a task, and
// suspend events. Grounded on the atomic counter style of the teacher's
// scheduler stats (internal/infra/scheduler/scheduler.go).
type workerStat struct {
	count     atomic.Uint64
	steal     atomic.Uint64
	sticky    atomic.Uint64
	wakeupRun atomic.Uint64
	suspend   atomic.Uint64
}

// WorkerStat is the immutable snapshot returned by Scheduler.Stats().
type WorkerStat struct {
	Index     int    `json:"index"`
	Count     uint64 `json:"count"`
	Steal     uint64 `json:"steal"`
	Sticky    uint64 `json:"sticky"`
	WakeupRun uint64 `json:"wakeup_run"`
	Suspend   uint64 `json:"suspend"`
}

func (s *workerStat) snapshot(index int) WorkerStat {
	return WorkerStat{
		Index:     index,
		Count:     s.count.Load(),
		Steal:     s.steal.Load(),
		Sticky:    s.sticky.Load(),
		WakeupRun: s.wakeupRun.Load(),
		Suspend:   s.suspend.Load(),
	}
}

package scheduler

import "time"

// Config holds every scheduler setting; all are immutable once the
// scheduler is constructed (spec.md §3 "Scheduler configuration").
type Config struct {
	ThreadCount int

	Affinity AffinityConfig

	StealingEnabled bool
	StealingWait    int // worker retries its own queues StealingWait*ThreadCount times before stealing

	// RatioCheckLocalFirstNum/Den express the N/M fairness ratio in [0,1)
	// governing how often, out of M polls, the local queue is checked
	// before the sticky queue.
	RatioCheckLocalFirstNum int
	RatioCheckLocalFirstDen int

	// TaskPollingWait is microseconds to yield/sleep after an unsuccessful
	// poll: 0 = none, 1 = cooperative yield, >1 = sleep (value-2) us.
	TaskPollingWait int

	BusyWorker           bool
	WorkerTryCount       int
	WorkerSuspendTimeout time.Duration

	WatcherInterval time.Duration

	// Initializer, if set, runs once per worker on that worker's own
	// goroutine after affinity binding and before the worker accepts its
	// first task.
	Initializer func(*Context)
}

// DefaultConfig returns sane defaults: four workers, stealing on, even
// local/sticky fairness, busy workers off, and a 25us watcher cadence.
func DefaultConfig() Config {
	return Config{
		ThreadCount:             4,
		Affinity:                AffinityConfig{ForceNUMANode: -1},
		StealingEnabled:         true,
		StealingWait:            1,
		RatioCheckLocalFirstNum: 1,
		RatioCheckLocalFirstDen: 2,
		TaskPollingWait:         2,
		BusyWorker:              false,
		WorkerTryCount:          1024,
		WorkerSuspendTimeout:    10 * time.Millisecond,
		WatcherInterval:         25 * time.Microsecond,
	}
}

// validate enforces the invariants from spec.md §4.5.
func (c Config) validate() error {
	if c.ThreadCount <= 0 {
		return errInvalidThreadCount
	}
	if c.RatioCheckLocalFirstDen <= 0 ||
		c.RatioCheckLocalFirstNum < 0 ||
		c.RatioCheckLocalFirstNum >= c.RatioCheckLocalFirstDen {
		return errInvalidRatio
	}
	return nil
}

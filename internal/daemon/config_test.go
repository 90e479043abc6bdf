package daemon

import (
	"testing"
	"time"
)

func TestToSchedulerConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Scheduler.ThreadCount = 8
	cfg.Scheduler.WorkerSuspendTimeoutMS = 20
	cfg.Scheduler.WatcherIntervalUS = 50

	sc := toSchedulerConfig(cfg.Scheduler)

	if sc.ThreadCount != 8 {
		t.Errorf("ThreadCount = %d, want 8", sc.ThreadCount)
	}
	if sc.WorkerSuspendTimeout != 20*time.Millisecond {
		t.Errorf("WorkerSuspendTimeout = %v, want 20ms", sc.WorkerSuspendTimeout)
	}
	if sc.WatcherInterval != 50*time.Microsecond {
		t.Errorf("WatcherInterval = %v, want 50us", sc.WatcherInterval)
	}
}

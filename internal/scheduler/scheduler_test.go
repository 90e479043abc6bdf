package scheduler

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type countingTask struct {
	sticky bool
	fn     func(*Context)
}

func (t *countingTask) Run(ctx *Context) { t.fn(ctx) }
func (t *countingTask) Sticky() bool     { return t.sticky }

func newTestScheduler(t *testing.T, threads int) *Scheduler {
	t.Helper()
	cfg := DefaultConfig()
	cfg.ThreadCount = threads
	cfg.WorkerSuspendTimeout = 5 * time.Millisecond
	cfg.WorkerTryCount = 4
	s, err := New(cfg, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { _ = s.Stop() })
	return s
}

func TestScheduleRunsAllTasks(t *testing.T) {
	s := newTestScheduler(t, 4)

	const n = 200
	var wg sync.WaitGroup
	var ran atomic.Int64
	wg.Add(n)
	for i := 0; i < n; i++ {
		s.Schedule(&countingTask{fn: func(*Context) {
			ran.Add(1)
			wg.Done()
		}})
	}

	waitOrTimeout(t, &wg, 2*time.Second)
	if got := ran.Load(); got != n {
		t.Fatalf("ran = %d, want %d", got, n)
	}
}

func TestScheduleAtPinsToWorker(t *testing.T) {
	s := newTestScheduler(t, 4)

	aff := s.Bind(2)
	var wg sync.WaitGroup
	var gotIndex int
	wg.Add(1)
	s.ScheduleAt(&countingTask{fn: func(ctx *Context) {
		gotIndex = ctx.Index()
		wg.Done()
	}}, aff)

	waitOrTimeout(t, &wg, time.Second)
	if gotIndex != 2 {
		t.Fatalf("task ran on worker %d, want 2", gotIndex)
	}
}

func TestStickyTaskStaysOnItsWorker(t *testing.T) {
	s := newTestScheduler(t, 4)

	aff := s.Bind(1)
	var wg sync.WaitGroup
	wg.Add(10)
	for i := 0; i < 10; i++ {
		s.ScheduleAt(&countingTask{sticky: true, fn: func(ctx *Context) {
			if ctx.Index() != 1 {
				t.Errorf("sticky task ran on worker %d, want 1", ctx.Index())
			}
			wg.Done()
		}}, aff)
	}

	waitOrTimeout(t, &wg, 2*time.Second)
}

func TestConditionalTaskRunsOnceReady(t *testing.T) {
	s := newTestScheduler(t, 2)

	ready := make(chan struct{})
	ran := make(chan struct{}, 1)
	s.ScheduleConditional(&fakeConditional{
		check: func() bool {
			select {
			case <-ready:
				return true
			default:
				return false
			}
		},
		run: func() { ran <- struct{}{} },
	})

	select {
	case <-ran:
		t.Fatal("conditional task ran before becoming ready")
	case <-time.After(50 * time.Millisecond):
	}

	close(ready)
	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("conditional task never ran after becoming ready")
	}
}

func TestStatsCountExecutedTasks(t *testing.T) {
	s := newTestScheduler(t, 3)

	var wg sync.WaitGroup
	wg.Add(30)
	for i := 0; i < 30; i++ {
		s.Schedule(&countingTask{fn: func(*Context) { wg.Done() }})
	}
	waitOrTimeout(t, &wg, 2*time.Second)

	var total uint64
	for _, st := range s.Stats() {
		total += st.Count
	}
	if total != 30 {
		t.Fatalf("total executed = %d, want 30", total)
	}
}

func TestDiagnosticsDumpsQueuedTasks(t *testing.T) {
	s := newTestScheduler(t, 1)
	aff := s.Bind(0)

	blocking := make(chan struct{})
	started := make(chan struct{})
	s.ScheduleAt(&countingTask{fn: func(*Context) {
		close(started)
		<-blocking
	}}, aff)
	<-started // worker 0 is now busy and won't drain what follows

	var wg sync.WaitGroup
	wg.Add(1)
	s.ScheduleAt(&countingTask{sticky: true, fn: func(*Context) { wg.Done() }}, aff)

	// Poll briefly: the sticky task must sit queued while the worker is busy.
	deadline := time.Now().Add(time.Second)
	var diag map[int]WorkerDiagnostics
	for time.Now().Before(deadline) {
		diag = s.Diagnostics()
		if len(diag[0].Sticky) == 1 {
			break
		}
		time.Sleep(time.Millisecond)
	}
	if len(diag[0].Sticky) != 1 {
		t.Fatalf("Diagnostics()[0].Sticky = %v, want one queued task", diag[0].Sticky)
	}

	close(blocking)
	waitOrTimeout(t, &wg, 2*time.Second)
}

type fakeConditional struct {
	check func() bool
	run   func()
}

func (f *fakeConditional) Check() bool { return f.check() }
func (f *fakeConditional) Run()        { f.run() }

func waitOrTimeout(t *testing.T, wg *sync.WaitGroup, d time.Duration) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(d):
		t.Fatal("timed out waiting for tasks")
	}
}

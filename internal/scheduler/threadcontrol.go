package scheduler

import (
	"sync"
	"time"
)

const defaultSuspendTimeout = 24 * time.Hour

// ThreadControl owns one OS-level worker goroutine (spec.md §4.2 "Thread
// control"). It carries two condition variables — one guarding
// activation/suspension, one guarding the init barrier — an active flag, and
// a completed flag. ThreadControl is not copyable: share it by pointer.
type ThreadControl struct {
	id int

	mu           sync.Mutex
	activateCond *sync.Cond
	initCond     *sync.Cond

	activated   bool // set by activate(), cleared on suspend
	initialized bool
	completed   bool

	done chan struct{}
}

// newThreadControl spawns a new goroutine that runs the full C2 lifecycle:
// apply affinity, run init (if provided), signal the init barrier, wait for
// activate(), run body, mark completed.
func newThreadControl(id int, affinity AffinityConfig, init func(), body func()) *ThreadControl {
	tc := &ThreadControl{id: id, done: make(chan struct{})}
	tc.activateCond = sync.NewCond(&tc.mu)
	tc.initCond = sync.NewCond(&tc.mu)

	go func() {
		defer close(tc.done)

		affinity.bind(id)

		if init != nil {
			init()
		}

		tc.mu.Lock()
		tc.initialized = true
		tc.initCond.Broadcast()
		for !tc.activated {
			tc.activateCond.Wait()
		}
		tc.mu.Unlock()

		body()

		tc.mu.Lock()
		tc.completed = true
		tc.activated = false
		tc.mu.Unlock()
	}()

	return tc
}

// waitInitialization blocks until the thread has finished its init step.
func (tc *ThreadControl) waitInitialization() {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	for !tc.initialized {
		tc.initCond.Wait()
	}
}

// activate is idempotent: it wakes the thread if suspended, and does nothing
// if the thread has already completed.
func (tc *ThreadControl) activate() {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	if tc.completed {
		return
	}
	tc.activated = true
	tc.activateCond.Broadcast()
}

// suspend is called from inside the thread body: it clears the active flag
// and waits on the activation condition for up to timeout (or until
// activate() is called, whichever comes first). A zero timeout means the
// default 24h.
func (tc *ThreadControl) suspend(timeout time.Duration) {
	if timeout <= 0 {
		timeout = defaultSuspendTimeout
	}

	tc.mu.Lock()
	tc.activated = false
	woken := make(chan struct{})
	go func() {
		select {
		case <-time.After(timeout):
			tc.mu.Lock()
			tc.activated = true
			tc.activateCond.Broadcast()
			tc.mu.Unlock()
		case <-woken:
		}
	}()
	for !tc.activated {
		tc.activateCond.Wait()
	}
	close(woken)
	tc.mu.Unlock()
}

// join blocks until the thread has exited.
func (tc *ThreadControl) join() {
	<-tc.done
}

// active reports whether the thread is currently activated (not suspended,
// not completed).
func (tc *ThreadControl) active() bool {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	return tc.activated && !tc.completed
}

// completedState reads the exit flag.
func (tc *ThreadControl) completedState() bool {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	return tc.completed
}

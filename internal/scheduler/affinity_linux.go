//go:build linux

package scheduler

import (
	"runtime"

	"golang.org/x/sys/unix"
)

// bindCPU locks the calling goroutine to its OS thread and pins that thread
// to a single CPU core. Must be called from the goroutine that is to be
// pinned.
func bindCPU(core int) {
	if core < 0 {
		return
	}
	runtime.LockOSThread()
	var set unix.CPUSet
	set.Zero()
	set.Set(core)
	// Best-effort: affinity is a soft optimization, never a hard failure.
	_ = unix.SchedSetaffinity(0, &set)
}

// bindNUMANode is a best-effort approximation: without libnuma bindings,
// ridge pins the thread to CPU index node mod runtime.NumCPU(); the
// machine's actual NUMA topology is not consulted. Production
// deployments that need precise NUMA placement should run one OS process
// per node instead of relying on this knob.
func bindNUMANode(node int) {
	if node < 0 {
		return
	}
	cpusPerNode := runtime.NumCPU()
	if cpusPerNode == 0 {
		return
	}
	bindCPU(node % cpusPerNode)
}

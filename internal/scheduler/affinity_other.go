//go:build !linux

package scheduler

// bindCPU is a no-op on platforms without a NUMA/core-affinity syscall path
// (spec.md §9: "an implementation without NUMA-style APIs should still
// expose the config knob and quietly no-op, not fail").
func bindCPU(core int) {}

// bindNUMANode is a no-op on platforms without a NUMA-aware syscall path.
func bindNUMANode(node int) {}

package scheduler

// AffinityConfig controls how worker N binds to a CPU core or NUMA node.
// NUMA/core binding is a soft optimization (spec.md §9): platforms without a
// NUMA-aware syscall path quietly no-op rather than failing.
type AffinityConfig struct {
	CoreAffinity               bool
	InitialCore                int
	AssignNUMANodesUniformly   bool
	ForceNUMANode              int // -1 means "unset"
	NUMANodeCount              int // used only when AssignNUMANodesUniformly is set
}

// bind applies the affinity policy for worker threadID, per spec.md §4.2:
//  1. ForceNUMANode set -> bind to that node.
//  2. else AssignNUMANodesUniformly -> bind worker N to node N mod NUMANodeCount.
//  3. else CoreAffinity -> bind to CPU InitialCore+threadID.
//  4. else do nothing.
func (a AffinityConfig) bind(threadID int) {
	switch {
	case a.ForceNUMANode >= 0:
		bindNUMANode(a.ForceNUMANode)
	case a.AssignNUMANodesUniformly && a.NUMANodeCount > 0:
		bindNUMANode(threadID % a.NUMANodeCount)
	case a.CoreAffinity:
		bindCPU(a.InitialCore + threadID)
	}
}

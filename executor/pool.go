package executor

import (
	"sync"

	"github.com/magnetcad/pipeline/taxonomy"
)

// ResourcePool is the shared cpu/ram budget the executor gates validator
// starts against (spec.md §4.4, §5: "a validator only starts once its
// declared resources fit within the pool's remaining capacity").
type ResourcePool struct {
	mu           sync.Mutex
	cpuTotal     float64
	ramTotal     float64
	cpuAvailable float64
	ramAvailable float64
}

// NewResourcePool returns a pool with the given total capacity.
func NewResourcePool(cpuCores, ramGB float64) *ResourcePool {
	return &ResourcePool{
		cpuTotal:     cpuCores,
		ramTotal:     ramGB,
		cpuAvailable: cpuCores,
		ramAvailable: ramGB,
	}
}

// TryAcquire reserves req's resources if they fit in the pool's current
// availability, returning false without reserving anything otherwise. A
// validator requesting more than the pool's total capacity always fails
// (spec.md §5 edge case: "a validator whose resource requirement exceeds
// the pool's total capacity can never run — this is a definition error,
// not a transient resource contention").
func (p *ResourcePool) TryAcquire(req taxonomy.ResourceRequirements) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if req.CPUCores > p.cpuAvailable || req.RAMGB > p.ramAvailable {
		return false
	}
	p.cpuAvailable -= req.CPUCores
	p.ramAvailable -= req.RAMGB
	return true
}

// Release returns req's resources to the pool.
func (p *ResourcePool) Release(req taxonomy.ResourceRequirements) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cpuAvailable += req.CPUCores
	p.ramAvailable += req.RAMGB
	if p.cpuAvailable > p.cpuTotal {
		p.cpuAvailable = p.cpuTotal
	}
	if p.ramAvailable > p.ramTotal {
		p.ramAvailable = p.ramTotal
	}
}

// Fits reports whether req could ever be satisfied by this pool's total
// capacity, regardless of current availability — used to fail fast on a
// definition error rather than retry forever.
func (p *ResourcePool) Fits(req taxonomy.ResourceRequirements) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return req.CPUCores <= p.cpuTotal && req.RAMGB <= p.ramTotal
}

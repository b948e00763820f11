// Package queue implements the Queue Load Balancer (component E of
// spec.md §4): fair dispatch of N hardware queues sharing one queue
// family, so concurrently executing taskflow tasks never race on the
// same VkQueue handle (submitting to one is not thread-safe).
//
// Grounded on the teacher's core/track/allocator.go TrackerIndexAllocator
// (a mutex-guarded free-list/counter allocator), generalized from index
// allocation to queue leasing: instead of handing out a free index, a
// Lease hands out the least-used queue (fewest total leases) under a
// held lock.
package queue

import (
	"fmt"
	"sync"

	"github.com/gogpu/rendergraph/hal"
)

type entry struct {
	slot     uint32
	mu       sync.Mutex
	useCount uint64
}

// LoadBalancer fairly distributes submissions across the queues of a
// single queue family. Callers obtain a Lease, submit through it, and
// release it; the next Lease call always picks the queue with the
// fewest total leases so no single queue starves under concurrent load.
//
// Each queue is identified by a dispatch-level "slot": the uint32 id
// hal.Dispatch.QueueSubmit2/QueuePresentKHR expects, letting a real
// backend map slots to distinct VkQueue handles however it wants
// (contiguous per-family indices, or a global flat numbering).
type LoadBalancer struct {
	familyIndex uint32
	stageMask   hal.PipelineStage

	mu      sync.Mutex
	entries []*entry
}

// NewLoadBalancer creates a balancer over the given dispatch-level queue
// slots, all belonging to familyIndex and supporting stageMask (spec.md
// §4.E: a balancer is scoped to one family, and a family's supported
// pipeline stages gate which taskflow nodes may be assigned to it).
func NewLoadBalancer(familyIndex uint32, queueSlots []uint32, stageMask hal.PipelineStage) (*LoadBalancer, error) {
	if len(queueSlots) == 0 {
		return nil, fmt.Errorf("queue: load balancer for family %d needs at least one queue slot", familyIndex)
	}
	lb := &LoadBalancer{
		familyIndex: familyIndex,
		stageMask:   stageMask,
		entries:     make([]*entry, len(queueSlots)),
	}
	for i, slot := range queueSlots {
		lb.entries[i] = &entry{slot: slot}
	}
	return lb, nil
}

// FamilyIndex returns the queue family this balancer leases from.
func (lb *LoadBalancer) FamilyIndex() uint32 {
	return lb.familyIndex
}

// SupportsStage reports whether this family's queues can execute work at
// the given pipeline stage.
func (lb *LoadBalancer) SupportsStage(stage hal.PipelineStage) bool {
	return lb.stageMask&stage != 0
}

// Lease is a held claim on one queue. Submit while holding it; Release
// when done. A Lease must not be used from more than one goroutine at a
// time, and must not outlive its Release.
type Lease struct {
	slot uint32
	e    *entry
}

// Acquire blocks until it can claim the least-used queue, then locks that
// queue's own mutex so no other Lease can submit to it concurrently.
func (lb *LoadBalancer) Acquire() *Lease {
	lb.mu.Lock()
	best := 0
	for i, e := range lb.entries {
		if e.useCount < lb.entries[best].useCount {
			best = i
		}
	}
	lb.entries[best].useCount++
	e := lb.entries[best]
	lb.mu.Unlock()

	e.mu.Lock()
	return &Lease{slot: e.slot, e: e}
}

// Slot returns the leased queue's dispatch-level slot id.
func (l *Lease) Slot() uint32 {
	return l.slot
}

// Submit performs a QueueSubmit2 against the leased queue.
func (l *Lease) Submit(dispatch hal.Dispatch, info hal.SubmitInfo) error {
	if err := dispatch.QueueSubmit2(l.slot, info); err != nil {
		return fmt.Errorf("queue: submit to slot %d: %w", l.slot, err)
	}
	return nil
}

// Present performs a present against the leased queue.
func (l *Lease) Present(dispatch hal.Dispatch, swapchain uintptr, imageIndex uint32, waits []hal.Semaphore) (hal.PresentResult, error) {
	result, err := dispatch.QueuePresentKHR(l.slot, swapchain, imageIndex, waits)
	if err != nil {
		return result, fmt.Errorf("queue: present on slot %d: %w", l.slot, err)
	}
	return result, nil
}

// Release frees the queue for the next Acquire. A Lease must not be used
// again after Release.
func (l *Lease) Release() {
	l.e.mu.Unlock()
}

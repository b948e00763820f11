// Package sync implements the render-graph's synchronization primitive
// layer (components B, C, D of spec.md §4): Primitives (an optional fence
// plus a named map of binary/timeline semaphores with per-timeline
// offsetting), Operations (a composable wait/signal submit-entry value),
// and Object (primitives coupled with named operation groups).
//
// Grounded on the teacher's hal/vulkan/fence.go deviceFence (timeline
// semaphore preferred, monotonic value bookkeeping) and fence_pool.go's
// per-submission value tracking idiom, generalized from one fixed
// fence/semaphore pair to a named map.
package sync

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/gogpu/rendergraph/hal"
)

// ErrTimelineOverflow is returned by StepTimeline when offset+width would
// wrap past math.MaxUint64 (§3 invariant, §7 error class 6). Fatal: the
// recommendation is to recreate the affected semaphore.
var ErrTimelineOverflow = errors.New("sync: timeline semaphore offset would overflow")

// ErrUnknownSemaphore is returned when a name is not present in a
// Primitives' semaphore map.
var ErrUnknownSemaphore = errors.New("sync: unknown semaphore name")

// ErrDuplicateSemaphore is returned when a name is already registered.
var ErrDuplicateSemaphore = errors.New("sync: semaphore name already registered")

type timelineRecord struct {
	width   uint64
	offset  uint64
	initial uint64
}

// noCopy causes `go vet` to flag accidental copies of a struct embedding
// it (the standard library idiom, e.g. sync.WaitGroup's internal noCopy).
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// Primitives owns an optional fence and a named map of semaphores, with
// per-timeline offset bookkeeping. Moving a Primitives (reassigning the
// pointer) is fine; copying the struct by value is not — it embeds
// noCopy so `go vet -copylocks` catches accidental copies.
type Primitives struct {
	_ noCopy

	mu sync.RWMutex

	dispatch hal.Dispatch

	fence    hal.Fence
	hasFence bool

	semaphores map[string]hal.Semaphore
	timelines  map[string]timelineRecord
}

// NewPrimitives creates an empty Primitives bound to dispatch. Pass
// withFence=true to also create an owned fence.
func NewPrimitives(dispatch hal.Dispatch, withFence bool) (*Primitives, error) {
	p := &Primitives{
		dispatch:   dispatch,
		semaphores: make(map[string]hal.Semaphore),
		timelines:  make(map[string]timelineRecord),
	}
	if withFence {
		f, err := dispatch.CreateFence()
		if err != nil {
			return nil, fmt.Errorf("sync: create fence: %w", err)
		}
		p.fence = f
		p.hasFence = true
	}
	return p, nil
}

// CreateBinarySemaphore creates and registers a binary semaphore under name.
func (p *Primitives) CreateBinarySemaphore(name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, exists := p.semaphores[name]; exists {
		return fmt.Errorf("sync: %q: %w", name, ErrDuplicateSemaphore)
	}
	sem, err := p.dispatch.CreateBinarySemaphore()
	if err != nil {
		return fmt.Errorf("sync: create binary semaphore %q: %w", name, err)
	}
	p.semaphores[name] = sem
	return nil
}

// CreateTimelineSemaphore creates and registers a timeline semaphore under
// name with the given initial value and per-step width. width is the
// amount StepTimeline advances the offset by each call. The caller's
// "per-frame local values" (1, 2, 3, ...) are not resolved at insertion:
// Operations.AddWaitValue/AddSignalValue store the value as given, and
// Operations.ShiftTimelineValues adds the offset later (the taskflow
// package does this when it resolves a node's operations).
func (p *Primitives) CreateTimelineSemaphore(name string, initial, width uint64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, exists := p.semaphores[name]; exists {
		return fmt.Errorf("sync: %q: %w", name, ErrDuplicateSemaphore)
	}
	sem, err := p.dispatch.CreateTimelineSemaphore(initial)
	if err != nil {
		return fmt.Errorf("sync: create timeline semaphore %q: %w", name, err)
	}
	p.semaphores[name] = sem
	p.timelines[name] = timelineRecord{width: width, offset: 0, initial: initial}
	return nil
}

// StepTimeline advances name's offset by its width, returning the width
// advanced. This is the single mechanism that converts an abstract "next
// frame's value" into an absolute timeline value (spec.md §4.B). Returns
// ErrTimelineOverflow if offset+width would wrap past math.MaxUint64.
func (p *Primitives) StepTimeline(name string) (uint64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	rec, ok := p.timelines[name]
	if !ok {
		return 0, fmt.Errorf("sync: %q: %w", name, ErrUnknownSemaphore)
	}
	if rec.offset > math.MaxUint64-rec.width {
		return 0, fmt.Errorf("sync: %q: %w", name, ErrTimelineOverflow)
	}
	rec.offset += rec.width
	p.timelines[name] = rec
	return rec.width, nil
}

// TimelineNames returns the names of every registered timeline
// semaphore, used by the taskflow builder to step every timeline a
// frame touched once execution completes.
func (p *Primitives) TimelineNames() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	names := make([]string, 0, len(p.timelines))
	for name := range p.timelines {
		names = append(names, name)
	}
	return names
}

// HasSemaphore reports whether name is registered (binary or timeline).
func (p *Primitives) HasSemaphore(name string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.semaphores[name]
	return ok
}

// GetSemaphore returns the handle registered under name.
func (p *Primitives) GetSemaphore(name string) (hal.Semaphore, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	sem, ok := p.semaphores[name]
	if !ok {
		return 0, fmt.Errorf("sync: %q: %w", name, ErrUnknownSemaphore)
	}
	return sem, nil
}

// GetTimelineOffset returns name's current accumulated offset.
func (p *Primitives) GetTimelineOffset(name string) (uint64, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	rec, ok := p.timelines[name]
	if !ok {
		return 0, fmt.Errorf("sync: %q: %w", name, ErrUnknownSemaphore)
	}
	return rec.offset, nil
}

// OptionalFence returns the owned fence and whether one was created.
func (p *Primitives) OptionalFence() (hal.Fence, bool) {
	return p.fence, p.hasFence
}

// Destroy releases every owned handle (fence and all semaphores). Must be
// called only after a waitIdle on the owning device (spec.md §3
// Lifecycles).
func (p *Primitives) Destroy() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.hasFence {
		p.dispatch.DestroyFence(p.fence)
		p.hasFence = false
	}
	for _, sem := range p.semaphores {
		p.dispatch.DestroySemaphore(sem)
	}
	p.semaphores = make(map[string]hal.Semaphore)
	p.timelines = make(map[string]timelineRecord)
}

package sync

import (
	"fmt"
	"sync"

	"github.com/gogpu/rendergraph/hal"
)

// Group names the two operation groups an Object carries. The taskflow
// builder applies a link's Internal group to the link's sink node (the
// consumer side, e.g. a wait on the producer's semaphore) and its
// External group to the link's source node (the producer side, e.g. the
// matching signal), then unions what it gathered from every incident
// link into one Operations for the node (spec.md §4.D, §4.K).
type Group string

const (
	Internal Group = "internal"
	External Group = "external"
)

// Object couples a Primitives with a set of named Operations groups. It
// is the unit a render-graph Link owns: the Primitives its entries refer
// to, plus however many operation groups were attached to it when the
// link was built.
type Object struct {
	mu sync.RWMutex

	primitives *Primitives
	groups     map[Group]*Operations
}

// NewObject creates an Object wrapping primitives with empty Internal and
// External groups.
func NewObject(primitives *Primitives) *Object {
	return &Object{
		primitives: primitives,
		groups: map[Group]*Operations{
			Internal: {},
			External: {},
		},
	}
}

// Primitives returns the underlying Primitives.
func (o *Object) Primitives() *Primitives {
	return o.primitives
}

// Group returns the named operations group, creating it if absent.
func (o *Object) Group(name Group) *Operations {
	o.mu.Lock()
	defer o.mu.Unlock()
	ops, ok := o.groups[name]
	if !ok {
		ops = &Operations{}
		o.groups[name] = ops
	}
	return ops
}

// Combined returns the union of every group currently attached, in an
// unspecified order that can differ between calls (map iteration order is
// not guaranteed, but callers only care about the union's contents, not
// entry order).
func (o *Object) Combined() *Operations {
	o.mu.RLock()
	defer o.mu.RUnlock()
	combined := &Operations{}
	for _, ops := range o.groups {
		combined = combined.Union(ops)
	}
	return combined
}

// Reset clears every group's accumulated entries without recreating the
// underlying primitives, so the same Object can be reused across frames.
func (o *Object) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	for name := range o.groups {
		o.groups[name] = &Operations{}
	}
}

// Destroy releases the underlying primitives' owned handles.
func (o *Object) Destroy() {
	o.primitives.Destroy()
}

// BuildSubmitInfo combines every group into a hal.SubmitInfo carrying
// cmdBuffers, attaching the primitives' owned fence when present and no
// group has already supplied one.
func (o *Object) BuildSubmitInfo(cmdBuffers []hal.CommandBuffer) hal.SubmitInfo {
	info := hal.SubmitInfo{CommandBuffers: cmdBuffers}
	combined := o.Combined()
	combined.FillInfo(&info)
	if !combined.HasFence() {
		if f, ok := o.primitives.OptionalFence(); ok {
			info.Fence = f
		}
	}
	return info
}

// String renders a short diagnostic summary, used by telemetry topics
// when logging submission failures.
func (o *Object) String() string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return fmt.Sprintf("sync.Object{groups=%d}", len(o.groups))
}

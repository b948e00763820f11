// Package job implements the Job & Execution Context component of
// spec.md §4.J: a closure wrapper with non-fatal panic recovery, and the
// per-in-flight-slot mutable state (current render-target index,
// draw-recorded flag, one owned sync.Object per incident graph link) that
// a Job's closure reads and writes.
package job

import (
	"sync"

	syncpkg "github.com/gogpu/rendergraph/sync"
)

// ExecutionContext holds the mutable state of one in-flight slot across a
// single render() call: the swapchain image index chosen by Image-Acquire,
// whether a draw was recorded this frame, and the sync.Object owned by
// each graph link incident to this slot, keyed by link name.
//
// The taskflow builder (component K) is responsible for populating the
// link-keyed sync objects when it materializes a slot from a frozen
// graph; ExecutionContext itself only stores and resets them.
type ExecutionContext struct {
	mu sync.RWMutex

	renderTarget    uint32
	hasRenderTarget bool
	drawRecorded    bool

	linkSync map[string]*syncpkg.Object
}

// NewExecutionContext returns an empty ExecutionContext with no render
// target selected and no recorded draw.
func NewExecutionContext() *ExecutionContext {
	return &ExecutionContext{linkSync: make(map[string]*syncpkg.Object)}
}

// SetRenderTarget records the swapchain image index chosen for this
// frame, called by the Image-Acquire task (spec.md §4.M).
func (c *ExecutionContext) SetRenderTarget(index uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.renderTarget = index
	c.hasRenderTarget = true
}

// RenderTarget returns the current render-target index and whether one
// has been set since the last reset. Safe for concurrent readers
// (spec.md §3: "Thread-safe reads of the render-target index use a
// shared lock").
func (c *ExecutionContext) RenderTarget() (uint32, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.renderTarget, c.hasRenderTarget
}

// MarkDrawRecorded flags that this slot produced GPU output this frame.
func (c *ExecutionContext) MarkDrawRecorded() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.drawRecorded = true
}

// DrawRecorded reports whether MarkDrawRecorded was called since the
// last reset.
func (c *ExecutionContext) DrawRecorded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.drawRecorded
}

// SetLinkSyncObject attaches the sync.Object a graph link has assigned
// to this slot, keyed by the link's name. Called once by the taskflow
// builder while materializing a slot.
func (c *ExecutionContext) SetLinkSyncObject(linkName string, obj *syncpkg.Object) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.linkSync[linkName] = obj
}

// LinkSyncObject returns the sync.Object owned by the named link for
// this slot, if one has been attached.
func (c *ExecutionContext) LinkSyncObject(linkName string) (*syncpkg.Object, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	obj, ok := c.linkSync[linkName]
	return obj, ok
}

// Reset clears the render-target index, but only if a draw was recorded
// this frame (spec.md §4.J: "reset() clears the render-target index
// only if a draw was recorded"). The draw-recorded flag is always
// cleared so the next frame starts from Idle.
func (c *ExecutionContext) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.drawRecorded {
		c.hasRenderTarget = false
		c.renderTarget = 0
	}
	c.drawRecorded = false
}

package sync

import "github.com/gogpu/rendergraph/hal"

// Operations is a composable vector of wait/signal entries plus an
// optional fence, the value a taskflow edge or a queue submission builds
// up incrementally before handing it to hal.Dispatch.QueueSubmit2
// (spec.md §4.C). The zero value is usable.
type Operations struct {
	waits   []hal.SemaphoreSubmitInfo
	signals []hal.SemaphoreSubmitInfo
	fence   hal.Fence
	hasFence bool
}

// AddWait appends a binary-semaphore wait (no value, stage-gated only).
func (o *Operations) AddWait(sem hal.Semaphore, stage hal.PipelineStage) {
	o.waits = append(o.waits, hal.SemaphoreSubmitInfo{Semaphore: sem, Stage: stage})
}

// AddWaitValue appends a timeline-semaphore wait for an absolute value.
func (o *Operations) AddWaitValue(sem hal.Semaphore, value uint64, stage hal.PipelineStage) {
	o.waits = append(o.waits, hal.SemaphoreSubmitInfo{Semaphore: sem, Value: value, Stage: stage})
}

// AddSignal appends a binary-semaphore signal.
func (o *Operations) AddSignal(sem hal.Semaphore, stage hal.PipelineStage) {
	o.signals = append(o.signals, hal.SemaphoreSubmitInfo{Semaphore: sem, Stage: stage})
}

// AddSignalValue appends a timeline-semaphore signal for an absolute value.
func (o *Operations) AddSignalValue(sem hal.Semaphore, value uint64, stage hal.PipelineStage) {
	o.signals = append(o.signals, hal.SemaphoreSubmitInfo{Semaphore: sem, Value: value, Stage: stage})
}

// SetFence attaches a fence to be signaled by the eventual submission.
func (o *Operations) SetFence(f hal.Fence) {
	o.fence = f
	o.hasFence = true
}

// HasFence reports whether a fence has been attached.
func (o *Operations) HasFence() bool {
	return o.hasFence
}

// Waits returns the accumulated wait entries.
func (o *Operations) Waits() []hal.SemaphoreSubmitInfo {
	return o.waits
}

// Signals returns the accumulated signal entries.
func (o *Operations) Signals() []hal.SemaphoreSubmitInfo {
	return o.signals
}

// FillInfo populates a hal.SubmitInfo's Waits, Signals and Fence fields
// from the accumulated operations, leaving CommandBuffers untouched.
func (o *Operations) FillInfo(info *hal.SubmitInfo) {
	info.Waits = o.waits
	info.Signals = o.signals
	if o.hasFence {
		info.Fence = o.fence
	}
}

// Union returns a new Operations holding the concatenation of o and
// other's wait/signal entries. If either has a fence, the result carries
// it. At most one of o and other may carry a fence; a submission can
// only be tracked by one fence, so two fenced operands unioned together
// is a programmer error (spec.md §3/§4.C), not something to resolve
// silently.
func (o *Operations) Union(other *Operations) *Operations {
	if o.hasFence && other.hasFence {
		panic("sync: Union: both operands carry a fence")
	}
	merged := &Operations{
		waits:   append(append([]hal.SemaphoreSubmitInfo{}, o.waits...), other.waits...),
		signals: append(append([]hal.SemaphoreSubmitInfo{}, o.signals...), other.signals...),
	}
	if o.hasFence {
		merged.fence, merged.hasFence = o.fence, true
	}
	if other.hasFence {
		merged.fence, merged.hasFence = other.fence, true
	}
	return merged
}

// ShiftTimelineValues returns a copy of o with delta added to every wait
// and signal entry whose Value is non-zero, used to resolve a link's
// per-frame-relative timeline value ("wait for this semaphore to reach
// its own value + 1") into an absolute one once the timeline's current
// offset is known (spec.md §4.C / §3 Sync Operations).
func (o *Operations) ShiftTimelineValues(delta uint64) *Operations {
	shifted := &Operations{fence: o.fence, hasFence: o.hasFence}
	for _, w := range o.waits {
		if w.Value != 0 {
			w.Value += delta
		}
		shifted.waits = append(shifted.waits, w)
	}
	for _, s := range o.signals {
		if s.Value != 0 {
			s.Value += delta
		}
		shifted.signals = append(shifted.signals, s)
	}
	return shifted
}

// Restrict returns a copy of o containing only the wait/signal entries
// whose stage mask intersects allowed, dropping the fence if
// keepFence is false. Used by the taskflow builder to project a node's
// full operation set down to what a specific queue family can express
// (spec.md §4.K step 3).
func (o *Operations) Restrict(allowed hal.PipelineStage, keepFence bool) *Operations {
	restricted := &Operations{}
	for _, w := range o.waits {
		if w.Stage&allowed != 0 {
			restricted.waits = append(restricted.waits, w)
		}
	}
	for _, s := range o.signals {
		if s.Stage&allowed != 0 {
			restricted.signals = append(restricted.signals, s)
		}
	}
	if keepFence && o.hasFence {
		restricted.fence, restricted.hasFence = o.fence, true
	}
	return restricted
}

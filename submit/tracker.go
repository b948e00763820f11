// Package submit implements the Submit Tracker (component G of spec.md
// §4): a per-context list of fences from successive submissions, with
// wait/poll/reset/clear operations so a caller can ask "has everything I
// submitted through this context finished yet?" without holding onto the
// fences itself.
//
// Grounded on the teacher's hal/vulkan/fence_pool.go fencePool (active/
// free fence lists, a maintain() pass that reclaims completed fences),
// generalized from a recycling pool to a pure completion tracker.
package submit

import (
	"fmt"
	"sync"

	"github.com/gogpu/rendergraph/command"
	"github.com/gogpu/rendergraph/hal"
)

// Tracker records fences handed to it by Track and reports on their
// collective completion. Safe for concurrent use.
type Tracker struct {
	mu     sync.Mutex
	fences []hal.Fence
}

// New creates an empty Tracker.
func New() *Tracker {
	return &Tracker{}
}

// Track appends a fence from a just-issued submission.
func (t *Tracker) Track(f hal.Fence) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.fences = append(t.fences, f)
}

// QueueSubmit creates a fresh unsignaled fence, attaches it to info, and
// forwards to ctx.QueueSubmit; on success the fence is appended to the
// tracker's internal list (spec.md §4.G). On failure the fence is
// destroyed rather than tracked, since the submission it was meant to
// guard never happened.
func (t *Tracker) QueueSubmit(dispatch hal.Dispatch, ctx command.Context, info hal.SubmitInfo) error {
	fence, err := dispatch.CreateFence()
	if err != nil {
		return fmt.Errorf("submit: create fence: %w", err)
	}
	info.Fence = fence
	if err := ctx.QueueSubmit(dispatch, info); err != nil {
		dispatch.DestroyFence(fence)
		return fmt.Errorf("submit: queue submit: %w", err)
	}
	t.Track(fence)
	return nil
}

// Wait blocks until every tracked fence is signaled, or timeoutNs
// elapses (0 means wait forever).
func (t *Tracker) Wait(dispatch hal.Dispatch, timeoutNs uint64) error {
	t.mu.Lock()
	fences := append([]hal.Fence(nil), t.fences...)
	t.mu.Unlock()
	if len(fences) == 0 {
		return nil
	}
	if err := dispatch.WaitForFences(fences, timeoutNs); err != nil {
		return fmt.Errorf("submit: wait for %d tracked fences: %w", len(fences), err)
	}
	return nil
}

// QueryNumOfSuccess polls every tracked fence without blocking and
// returns how many have signaled.
func (t *Tracker) QueryNumOfSuccess(dispatch hal.Dispatch) (int, error) {
	t.mu.Lock()
	fences := append([]hal.Fence(nil), t.fences...)
	t.mu.Unlock()

	count := 0
	for _, f := range fences {
		signaled, err := dispatch.GetFenceStatus(f)
		if err != nil {
			return count, fmt.Errorf("submit: poll fence status: %w", err)
		}
		if signaled {
			count++
		}
	}
	return count, nil
}

// IsComplete reports whether every tracked fence has signaled.
func (t *Tracker) IsComplete(dispatch hal.Dispatch) (bool, error) {
	t.mu.Lock()
	n := len(t.fences)
	t.mu.Unlock()
	if n == 0 {
		return true, nil
	}
	succeeded, err := t.QueryNumOfSuccess(dispatch)
	if err != nil {
		return false, err
	}
	return succeeded == n, nil
}

// Clear waits on every tracked fence, destroys them, and resets the
// tracker to empty (§4.G), called when a frame slot is being reused.
func (t *Tracker) Clear(dispatch hal.Dispatch) error {
	t.mu.Lock()
	fences := append([]hal.Fence(nil), t.fences...)
	t.mu.Unlock()

	if len(fences) > 0 {
		if err := dispatch.WaitForFences(fences, 0); err != nil {
			return fmt.Errorf("submit: clear: wait for fences: %w", err)
		}
		for _, f := range fences {
			dispatch.DestroyFence(f)
		}
	}

	t.mu.Lock()
	t.fences = t.fences[:0]
	t.mu.Unlock()
	return nil
}

// Len returns the number of fences currently tracked.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.fences)
}

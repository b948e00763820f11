// Package command implements the Command Context (component F of
// spec.md §4): a one-shot vs. reusable command-buffer factory bound to a
// queue family, with a queueSubmit entry point that leases a queue from
// a Queue Load Balancer.
//
// Grounded on the teacher's hal/command.go CommandEncoder interface shape
// and hal/vulkan/command.go's pool-per-frame (reusable) vs.
// pool-per-submission (single-shot) distinction.
package command

import (
	"fmt"
	"sync"

	"github.com/gogpu/rendergraph/hal"
	"github.com/gogpu/rendergraph/queue"
)

// Context is a command-buffer factory scoped to one queue family, the
// shape both Reusable and SingleShot implement (§4.F).
type Context interface {
	// CreateCommandBuffer returns a new or reused buffer, already in the
	// recording state.
	CreateCommandBuffer(dispatch hal.Dispatch) (hal.CommandBuffer, error)
	// QueueSubmit leases a queue from the balancer and submits info.
	QueueSubmit(dispatch hal.Dispatch, info hal.SubmitInfo) error
	// IsPipelineStageSupported reports whether this context's queue
	// family can execute work at the given stage (§9 Open Question #2).
	IsPipelineStageSupported(stage hal.PipelineStage) bool
	// SupportedStages returns the full mask of stages this context's
	// queue family supports, used by the taskflow builder to restrict a
	// node's resolved SyncOperations (spec.md §4.K step 1c).
	SupportedStages() hal.PipelineStage
	// QueueFamilyIndex returns the family this context is scoped to.
	QueueFamilyIndex() uint32
	// Destroy releases the context's owned command pool(s).
	Destroy(dispatch hal.Dispatch)
}

// base holds the fields common to both variants (§3 Command Context data
// model: queue family index, queue load balancer, logical device, set of
// supported pipeline stages).
type base struct {
	familyIndex uint32
	stageMask   hal.PipelineStage
	balancer    *queue.LoadBalancer
}

func (b *base) IsPipelineStageSupported(stage hal.PipelineStage) bool {
	return b.stageMask&stage != 0
}

func (b *base) QueueFamilyIndex() uint32 {
	return b.familyIndex
}

func (b *base) SupportedStages() hal.PipelineStage {
	return b.stageMask
}

func (b *base) submit(dispatch hal.Dispatch, info hal.SubmitInfo) error {
	lease := b.balancer.Acquire()
	defer lease.Release()
	if err := lease.Submit(dispatch, info); err != nil {
		return fmt.Errorf("command: queue submit on family %d: %w", b.familyIndex, err)
	}
	return nil
}

// Reusable is a long-lived command context: one command pool that
// outlives submissions, reset and re-recorded every frame. Intended for
// graphics/render nodes (§4.F).
type Reusable struct {
	base

	mu   sync.Mutex
	pool hal.CommandPool
}

// NewReusable creates a Reusable context with a pool allocated for
// familyIndex, submitting through balancer.
func NewReusable(dispatch hal.Dispatch, familyIndex uint32, balancer *queue.LoadBalancer) (*Reusable, error) {
	pool, err := dispatch.CreateCommandPool(familyIndex, hal.UsageReusable)
	if err != nil {
		return nil, fmt.Errorf("command: create reusable pool for family %d: %w", familyIndex, err)
	}
	return &Reusable{
		base: base{
			familyIndex: familyIndex,
			stageMask:   dispatch.QueueFamilyStageMask(familyIndex),
			balancer:    balancer,
		},
		pool: pool,
	}, nil
}

// Reset resets the underlying pool so buffers allocated from it can be
// re-recorded, called once per frame before the new buffer is requested.
func (r *Reusable) Reset(dispatch hal.Dispatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := dispatch.ResetCommandPool(r.pool); err != nil {
		return fmt.Errorf("command: reset reusable pool: %w", err)
	}
	return nil
}

func (r *Reusable) CreateCommandBuffer(dispatch hal.Dispatch) (hal.CommandBuffer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cb, err := dispatch.AllocateCommandBuffer(r.pool)
	if err != nil {
		return nil, fmt.Errorf("command: allocate reusable buffer: %w", err)
	}
	if err := dispatch.BeginCommandBuffer(cb); err != nil {
		return nil, fmt.Errorf("command: begin reusable buffer: %w", err)
	}
	return cb, nil
}

func (r *Reusable) QueueSubmit(dispatch hal.Dispatch, info hal.SubmitInfo) error {
	return r.submit(dispatch, info)
}

func (r *Reusable) Destroy(dispatch hal.Dispatch) {
	r.mu.Lock()
	defer r.mu.Unlock()
	dispatch.DestroyCommandPool(r.pool)
}

// SingleShot is a per-submission command context: a fresh pool allocated
// for every submission and destroyed once the submission's fence signals.
// Intended for transfer/compute nodes whose work is infrequent enough
// that pool churn does not matter (§4.F).
type SingleShot struct {
	base

	mu    sync.Mutex
	pools []hal.CommandPool
}

// NewSingleShot creates a SingleShot context scoped to familyIndex,
// submitting through balancer.
func NewSingleShot(dispatch hal.Dispatch, familyIndex uint32, balancer *queue.LoadBalancer) *SingleShot {
	return &SingleShot{
		base: base{
			familyIndex: familyIndex,
			stageMask:   dispatch.QueueFamilyStageMask(familyIndex),
			balancer:    balancer,
		},
	}
}

func (s *SingleShot) CreateCommandBuffer(dispatch hal.Dispatch) (hal.CommandBuffer, error) {
	pool, err := dispatch.CreateCommandPool(s.familyIndex, hal.UsageSingleShot)
	if err != nil {
		return nil, fmt.Errorf("command: create single-shot pool for family %d: %w", s.familyIndex, err)
	}
	cb, err := dispatch.AllocateCommandBuffer(pool)
	if err != nil {
		dispatch.DestroyCommandPool(pool)
		return nil, fmt.Errorf("command: allocate single-shot buffer: %w", err)
	}
	if err := dispatch.BeginCommandBuffer(cb); err != nil {
		dispatch.DestroyCommandPool(pool)
		return nil, fmt.Errorf("command: begin single-shot buffer: %w", err)
	}

	s.mu.Lock()
	s.pools = append(s.pools, pool)
	s.mu.Unlock()
	return cb, nil
}

func (s *SingleShot) QueueSubmit(dispatch hal.Dispatch, info hal.SubmitInfo) error {
	return s.submit(dispatch, info)
}

// ReclaimCompleted destroys every pool whose submission's fence has
// signaled, called periodically (e.g. by the submit tracker's poll) so a
// SingleShot context does not leak pools indefinitely.
func (s *SingleShot) ReclaimCompleted(dispatch hal.Dispatch, isSignaled func(hal.CommandPool) bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	remaining := s.pools[:0]
	for _, pool := range s.pools {
		if isSignaled(pool) {
			dispatch.DestroyCommandPool(pool)
		} else {
			remaining = append(remaining, pool)
		}
	}
	s.pools = remaining
}

func (s *SingleShot) Destroy(dispatch hal.Dispatch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, pool := range s.pools {
		dispatch.DestroyCommandPool(pool)
	}
	s.pools = nil
}

var (
	_ Context = (*Reusable)(nil)
	_ Context = (*SingleShot)(nil)
)

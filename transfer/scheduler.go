// Package transfer implements the Data-Transfer Scheduler (component H of
// spec.md §4): coalesces per-resource upload/download tasks into staging
// areas and executes them as a single batched submission, signaling the
// well-known "data-transfer-finish" timeline semaphore on completion.
//
// Grounded on the teacher's hal/vulkan/fence_pool.go monotonic-value
// idiom (reused here for the data-transfer-finish timeline) and
// hal/command.go's CopyBufferToBuffer/CopyBufferToTexture shapes for the
// staging copy commands, narrowed to the ResourceBackend interface below
// (the "texture/buffer layer" spec.md §6 calls a trivial adapter).
package transfer

import (
	"fmt"
	"sync"

	"github.com/gogpu/rendergraph/command"
	"github.com/gogpu/rendergraph/hal"
	"github.com/gogpu/rendergraph/submit"
	syncpkg "github.com/gogpu/rendergraph/sync"
)

// DataTransferFinishSemaphore is the well-known timeline semaphore name
// every transfer task's last sync object carries (spec.md §6).
const DataTransferFinishSemaphore = "data-transfer-finish"

// Resource identifies a buffer or texture being transferred. Callers
// typically pass a pointer or an opaque handle; it must be comparable
// since it is used as a map key.
type Resource any

// Staging is an allocated staging buffer/memory a task owns until its
// transfer completes.
type Staging interface {
	// Free releases the staging allocation.
	Free()
}

// ResourceBackend is the narrow texture/buffer layer spec.md §6 calls a
// trivial adapter: staging allocation and copy-command recording. The
// render-graph runtime never touches raw GPU memory itself.
type ResourceBackend interface {
	// CreateStagingUpload allocates a host-visible staging buffer sized
	// for data and copies data into it, returning the staging handle and
	// an opaque reference to pass to RecordUpload.
	CreateStagingUpload(data []byte) (Staging, uintptr, error)
	// CreateStagingDownload allocates a host-visible staging buffer to
	// receive a device→host copy.
	CreateStagingDownload(resource Resource) (Staging, uintptr, error)
	// RecordUpload records a host→staging→device copy into cb.
	RecordUpload(cb hal.CommandBuffer, resource Resource, staging uintptr)
	// RecordDownload records a device→staging copy into cb.
	RecordDownload(cb hal.CommandBuffer, resource Resource, staging uintptr)
}

// UploadTask is a pending upload registered against one resource.
type UploadTask struct {
	Resource   Resource
	Data       []byte
	DstContext command.Context
	SyncOps    *syncpkg.Operations
}

// DownloadTask is a pending download registered against one resource.
type DownloadTask struct {
	Resource Resource
	SyncOps  *syncpkg.Operations
}

type pending struct {
	upload   *UploadTask
	download *DownloadTask
}

// Scheduler coalesces per-resource upload/download tasks and executes
// them in one batched submission. Safe for concurrent use.
type Scheduler struct {
	mu sync.Mutex

	bufferTasks  map[Resource]*pending
	textureTasks map[Resource]*pending

	primitives *syncpkg.Primitives
}

// New creates a Scheduler backed by dispatch, creating the well-known
// "data-transfer-finish" timeline semaphore.
func New(dispatch hal.Dispatch) (*Scheduler, error) {
	prim, err := syncpkg.NewPrimitives(dispatch, false)
	if err != nil {
		return nil, fmt.Errorf("transfer: create primitives: %w", err)
	}
	if err := prim.CreateTimelineSemaphore(DataTransferFinishSemaphore, 0, 1); err != nil {
		return nil, fmt.Errorf("transfer: create data-transfer-finish semaphore: %w", err)
	}
	return &Scheduler{
		bufferTasks:  make(map[Resource]*pending),
		textureTasks: make(map[Resource]*pending),
		primitives:   prim,
	}, nil
}

// UploadBuffer registers (or coalesces with any existing) a pending
// upload for a buffer resource.
func (s *Scheduler) UploadBuffer(resource Resource, data []byte, dst command.Context, syncOps *syncpkg.Operations) {
	s.upload(s.bufferTasksLocked, resource, data, dst, syncOps)
}

// UploadTexture registers (or coalesces with any existing) a pending
// upload for a texture resource.
func (s *Scheduler) UploadTexture(resource Resource, data []byte, dst command.Context, syncOps *syncpkg.Operations) {
	s.upload(s.textureTasksLocked, resource, data, dst, syncOps)
}

func (s *Scheduler) upload(tasksFor func() map[Resource]*pending, resource Resource, data []byte, dst command.Context, syncOps *syncpkg.Operations) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tasks := tasksFor()
	p, ok := tasks[resource]
	if !ok {
		p = &pending{}
		tasks[resource] = p
	}
	p.upload = &UploadTask{Resource: resource, Data: data, DstContext: dst, SyncOps: syncOps}
}

// DownloadTexture registers (or coalesces with any existing) a pending
// download for a texture resource.
func (s *Scheduler) DownloadTexture(resource Resource, syncOps *syncpkg.Operations) {
	s.download(s.textureTasksLocked, resource, syncOps)
}

// DownloadBuffer registers (or coalesces with any existing) a pending
// download for a buffer resource.
func (s *Scheduler) DownloadBuffer(resource Resource, syncOps *syncpkg.Operations) {
	s.download(s.bufferTasksLocked, resource, syncOps)
}

func (s *Scheduler) download(tasksFor func() map[Resource]*pending, resource Resource, syncOps *syncpkg.Operations) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tasks := tasksFor()
	p, ok := tasks[resource]
	if !ok {
		p = &pending{}
		tasks[resource] = p
	}
	p.download = &DownloadTask{Resource: resource, SyncOps: syncOps}
}

func (s *Scheduler) bufferTasksLocked() map[Resource]*pending  { return s.bufferTasks }
func (s *Scheduler) textureTasksLocked() map[Resource]*pending { return s.textureTasks }

// PendingCount returns the number of resources with at least one pending
// task, across both buffer and texture staging areas. Exposed for tests.
func (s *Scheduler) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.bufferTasks) + len(s.textureTasks)
}

// ExecuteTasks drains both staging areas into a single batched
// submission through ctx, recording each task's copy commands via
// backend, then submitting with the union of the caller-supplied syncOps
// and the stepped "data-transfer-finish" signal. The submission is
// fence-tracked and ExecuteTasks blocks on that fence, then on the
// data-transfer-finish timeline reaching the value it just signaled,
// before freeing any staging allocation (spec.md §4.H: "the task retains
// its staging storage until its final timeline signal reaches value 1";
// §5: "executeTasks blocks until the caller-chosen fence signals").
// Submitting without waiting would let the GPU still be reading a
// staging buffer after Free() returns its memory.
func (s *Scheduler) ExecuteTasks(dispatch hal.Dispatch, backend ResourceBackend, ctx command.Context, syncOps *syncpkg.Operations) error {
	s.mu.Lock()
	allTasks := make([]*pending, 0, len(s.bufferTasks)+len(s.textureTasks))
	for _, p := range s.bufferTasks {
		allTasks = append(allTasks, p)
	}
	for _, p := range s.textureTasks {
		allTasks = append(allTasks, p)
	}
	s.bufferTasks = make(map[Resource]*pending)
	s.textureTasks = make(map[Resource]*pending)
	s.mu.Unlock()

	if len(allTasks) == 0 {
		return nil
	}

	cb, err := ctx.CreateCommandBuffer(dispatch)
	if err != nil {
		return fmt.Errorf("transfer: create command buffer: %w", err)
	}

	var stagings []Staging
	combined := &syncpkg.Operations{}
	if syncOps != nil {
		combined = combined.Union(syncOps)
	}

	for _, p := range allTasks {
		if p.upload != nil {
			staging, ref, err := backend.CreateStagingUpload(p.upload.Data)
			if err != nil {
				return fmt.Errorf("transfer: create staging upload: %w", err)
			}
			stagings = append(stagings, staging)
			backend.RecordUpload(cb, p.upload.Resource, ref)
			if p.upload.SyncOps != nil {
				combined = combined.Union(p.upload.SyncOps)
			}
		}
		if p.download != nil {
			staging, ref, err := backend.CreateStagingDownload(p.download.Resource)
			if err != nil {
				return fmt.Errorf("transfer: create staging download: %w", err)
			}
			stagings = append(stagings, staging)
			backend.RecordDownload(cb, p.download.Resource, ref)
			if p.download.SyncOps != nil {
				combined = combined.Union(p.download.SyncOps)
			}
		}
	}

	if _, err := s.primitives.StepTimeline(DataTransferFinishSemaphore); err != nil {
		return fmt.Errorf("transfer: step data-transfer-finish: %w", err)
	}
	sem, err := s.primitives.GetSemaphore(DataTransferFinishSemaphore)
	if err != nil {
		return fmt.Errorf("transfer: get data-transfer-finish semaphore: %w", err)
	}
	offset, err := s.primitives.GetTimelineOffset(DataTransferFinishSemaphore)
	if err != nil {
		return fmt.Errorf("transfer: get data-transfer-finish offset: %w", err)
	}
	combined.AddSignalValue(sem, offset, hal.StageTransfer)

	info := hal.SubmitInfo{CommandBuffers: []hal.CommandBuffer{cb}}
	combined.FillInfo(&info)

	tracker := submit.New()
	if err := tracker.QueueSubmit(dispatch, ctx, info); err != nil {
		for _, st := range stagings {
			st.Free()
		}
		return fmt.Errorf("transfer: execute tasks: %w", err)
	}

	if err := tracker.Wait(dispatch, 0); err != nil {
		return fmt.Errorf("transfer: wait for submission fence: %w", err)
	}
	if err := dispatch.WaitSemaphores([]hal.SemaphoreSubmitInfo{{Semaphore: sem, Value: offset}}, 0); err != nil {
		return fmt.Errorf("transfer: wait for data-transfer-finish: %w", err)
	}

	for _, st := range stagings {
		st.Free()
	}
	return nil
}

// DataTransferFinishValue returns the current absolute value the
// "data-transfer-finish" timeline must reach for the most recently
// executed batch to be considered complete.
func (s *Scheduler) DataTransferFinishValue() (uint64, error) {
	return s.primitives.GetTimelineOffset(DataTransferFinishSemaphore)
}

// DataTransferFinishSemaphoreHandle returns the timeline semaphore
// handle so a caller can wait on it directly via dispatch.WaitSemaphores.
func (s *Scheduler) DataTransferFinishSemaphoreHandle() (hal.Semaphore, error) {
	return s.primitives.GetSemaphore(DataTransferFinishSemaphore)
}

// Destroy releases the scheduler's owned primitives.
func (s *Scheduler) Destroy() {
	s.primitives.Destroy()
}

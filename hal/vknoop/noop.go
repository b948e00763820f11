// Package vknoop is an in-memory fake of hal.Dispatch, grounded on the
// teacher's hal/noop backend (referenced in hal/backends.go as "the
// testing baseline"). It performs no real GPU calls; fences and
// semaphores are plain Go state guarded by a mutex, and a submission
// "completes" synchronously when QueueSubmit2 is called — which is
// exactly the fast, deterministic behavior a scheduler unit test wants.
package vknoop

import (
	"fmt"
	"sync"

	"github.com/gogpu/rendergraph/hal"
)

// Device is an in-memory hal.Dispatch implementation for tests.
type Device struct {
	mu sync.Mutex

	nextFence     hal.Fence
	fenceSignaled map[hal.Fence]bool

	nextSem       hal.Semaphore
	semTimeline   map[hal.Semaphore]bool
	semValue      map[hal.Semaphore]uint64

	// Families maps a queue family index to the stages it supports; if
	// absent, StageAllCommands is assumed (a graphics family).
	Families map[uint32]hal.PipelineStage

	// Swapchains maps an opaque swapchain handle to a queue of image
	// indices AcquireNextImageKHR hands out round-robin, and records
	// present calls for test assertions.
	Swapchains map[uintptr]*FakeSwapchain

	// Submits records every QueueSubmit2 call for test assertions.
	Submits []hal.SubmitInfo

	nextPool   hal.CommandPool
	pools      map[hal.CommandPool]bool
	nextBuf    uint64
}

// FakeSwapchain is a minimal in-memory swapchain: a fixed image count and
// a forced outcome for the next Acquire/Present call, settable by tests
// to exercise the OUT_OF_DATE_KHR / SUBOPTIMAL_KHR recovery path (§7).
type FakeSwapchain struct {
	ImageCount   uint32
	nextImage    uint32
	ForceAcquire hal.PresentResult
	ForcePresent hal.PresentResult
	Presents     int
}

// New creates an empty fake device.
func New() *Device {
	return &Device{
		fenceSignaled: make(map[hal.Fence]bool),
		semTimeline:   make(map[hal.Semaphore]bool),
		semValue:      make(map[hal.Semaphore]uint64),
		Swapchains:    make(map[uintptr]*FakeSwapchain),
		pools:         make(map[hal.CommandPool]bool),
	}
}

// RegisterSwapchain adds a fake swapchain under handle for tests to drive.
func (d *Device) RegisterSwapchain(handle uintptr, sc *FakeSwapchain) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Swapchains[handle] = sc
}

func (d *Device) CreateFence() (hal.Fence, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextFence++
	d.fenceSignaled[d.nextFence] = false
	return d.nextFence, nil
}

func (d *Device) DestroyFence(f hal.Fence) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.fenceSignaled, f)
}

func (d *Device) WaitForFences(fences []hal.Fence, _ uint64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, f := range fences {
		d.fenceSignaled[f] = true
	}
	return nil
}

func (d *Device) GetFenceStatus(f hal.Fence) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.fenceSignaled[f], nil
}

func (d *Device) ResetFences(fences []hal.Fence) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, f := range fences {
		d.fenceSignaled[f] = false
	}
	return nil
}

func (d *Device) CreateBinarySemaphore() (hal.Semaphore, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextSem++
	d.semTimeline[d.nextSem] = false
	return d.nextSem, nil
}

func (d *Device) CreateTimelineSemaphore(initial uint64) (hal.Semaphore, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextSem++
	d.semTimeline[d.nextSem] = true
	d.semValue[d.nextSem] = initial
	return d.nextSem, nil
}

func (d *Device) DestroySemaphore(s hal.Semaphore) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.semTimeline, s)
	delete(d.semValue, s)
}

func (d *Device) WaitSemaphores(waits []hal.SemaphoreSubmitInfo, _ uint64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, w := range waits {
		if d.semValue[w.Semaphore] < w.Value {
			return fmt.Errorf("vknoop: semaphore %d has not reached value %d (at %d)", w.Semaphore, w.Value, d.semValue[w.Semaphore])
		}
	}
	return nil
}

func (d *Device) SignalSemaphore(sem hal.Semaphore, value uint64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.semValue[sem] = value
	return nil
}

func (d *Device) GetSemaphoreCounterValue(sem hal.Semaphore) (uint64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.semValue[sem], nil
}

func (d *Device) CreateShaderModule(*hal.ShaderModuleDescriptor) (uintptr, error) { return 1, nil }

func (d *Device) CreateFramebuffer(*hal.FramebufferDescriptor) (uintptr, error) { return 1, nil }

// QueueSubmit2 executes synchronously: it advances every signal entry
// (binary semaphores just get marked "signaled" via a value bump;
// timelines get set to the submitted value) and signals the fence.
func (d *Device) QueueSubmit2(_ uint32, submit hal.SubmitInfo) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Submits = append(d.Submits, submit)
	for _, sig := range submit.Signals {
		if d.semTimeline[sig.Semaphore] {
			d.semValue[sig.Semaphore] = sig.Value
		} else {
			d.semValue[sig.Semaphore]++
		}
	}
	if submit.Fence != 0 {
		d.fenceSignaled[submit.Fence] = true
	}
	return nil
}

func (d *Device) QueuePresentKHR(_ uint32, swapchain uintptr, _ uint32, _ []hal.Semaphore) (hal.PresentResult, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	sc, ok := d.Swapchains[swapchain]
	if !ok {
		return hal.PresentOK, fmt.Errorf("vknoop: unknown swapchain %d", swapchain)
	}
	sc.Presents++
	result := sc.ForcePresent
	sc.ForcePresent = hal.PresentOK
	return result, nil
}

func (d *Device) AcquireNextImageKHR(swapchain uintptr, _ uint64, signal hal.Semaphore) (uint32, hal.PresentResult, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	sc, ok := d.Swapchains[swapchain]
	if !ok {
		return 0, hal.PresentOK, fmt.Errorf("vknoop: unknown swapchain %d", swapchain)
	}
	idx := sc.nextImage
	sc.nextImage = (sc.nextImage + 1) % sc.ImageCount
	d.semValue[signal]++
	result := sc.ForceAcquire
	sc.ForceAcquire = hal.PresentOK
	return idx, result, nil
}

func (d *Device) QueueFamilyStageMask(familyIndex uint32) hal.PipelineStage {
	d.mu.Lock()
	defer d.mu.Unlock()
	if stage, ok := d.Families[familyIndex]; ok {
		return stage
	}
	return hal.StageAllCommands
}

func (d *Device) CreateCommandPool(_ uint32, _ hal.CommandPoolUsage) (hal.CommandPool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextPool++
	d.pools[d.nextPool] = true
	return d.nextPool, nil
}

func (d *Device) DestroyCommandPool(pool hal.CommandPool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.pools, pool)
}

func (d *Device) ResetCommandPool(pool hal.CommandPool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.pools[pool] {
		return fmt.Errorf("vknoop: unknown command pool %d", pool)
	}
	return nil
}

func (d *Device) AllocateCommandBuffer(pool hal.CommandPool) (hal.CommandBuffer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.pools[pool] {
		return nil, fmt.Errorf("vknoop: unknown command pool %d", pool)
	}
	d.nextBuf++
	return &FakeCommandBuffer{Handle: d.nextBuf}, nil
}

func (d *Device) BeginCommandBuffer(cb hal.CommandBuffer) error {
	buf, ok := cb.(*FakeCommandBuffer)
	if !ok {
		return fmt.Errorf("vknoop: BeginCommandBuffer: not a vknoop command buffer")
	}
	buf.Recording = true
	return nil
}

func (d *Device) EndCommandBuffer(cb hal.CommandBuffer) error {
	buf, ok := cb.(*FakeCommandBuffer)
	if !ok {
		return fmt.Errorf("vknoop: EndCommandBuffer: not a vknoop command buffer")
	}
	buf.Recording = false
	buf.Ended = true
	return nil
}

// FakeCommandBuffer is vknoop's in-memory hal.CommandBuffer, recording
// pushed constants for test assertions instead of issuing GPU work.
type FakeCommandBuffer struct {
	Handle        uint64
	Recording     bool
	Ended         bool
	PushedConsts  [][]byte
}

func (b *FakeCommandBuffer) PushConstants(_ hal.PipelineStage, _ uint32, data []byte) {
	cp := append([]byte(nil), data...)
	b.PushedConsts = append(b.PushedConsts, cp)
}

func (b *FakeCommandBuffer) VkHandle() uint64 {
	return b.Handle
}

var _ hal.Dispatch = (*Device)(nil)

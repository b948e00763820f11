package hal

// Fence is an opaque handle to a GPU fence.
type Fence uint64

// Semaphore is an opaque handle to a GPU semaphore (binary or timeline).
type Semaphore uint64

// PipelineStage is a bitmask of pipeline stages a wait/signal entry can
// target, mirroring VkPipelineStageFlags2 bit positions closely enough
// that a real backend can pass them through unchanged.
type PipelineStage uint64

// Pipeline stage bits used by the sync and command layers. Values follow
// the Vulkan core + KHR_synchronization2 bit positions so a Dispatch
// implementation can forward them verbatim.
const (
	StageTopOfPipe            PipelineStage = 1 << 0
	StageTransfer             PipelineStage = 1 << 12
	StageComputeShader        PipelineStage = 1 << 11
	StageColorAttachmentOut   PipelineStage = 1 << 10
	StageBottomOfPipe         PipelineStage = 1 << 13
	StageHost                 PipelineStage = 1 << 14
	StageAllGraphics          PipelineStage = 1 << 15
	StageAllCommands          PipelineStage = 1 << 16
)

// SemaphoreSubmitInfo describes one wait or signal entry in a submission,
// the GPU-visible projection of a sync.Operations entry.
type SemaphoreSubmitInfo struct {
	Semaphore Semaphore
	// Value is the timeline value to wait for/signal. Ignored for binary
	// semaphores.
	Value uint64
	Stage PipelineStage
}

// SubmitInfo describes one batch of command buffers plus the semaphore
// waits/signals and optional fence to submit with them (the GPU-visible
// projection of a fully composed sync.Operations, see §4.C).
type SubmitInfo struct {
	CommandBuffers []CommandBuffer
	Waits          []SemaphoreSubmitInfo
	Signals        []SemaphoreSubmitInfo
	Fence          Fence // zero means "no fence"
}

// CommandBuffer is an opaque recorded (or recordable) command buffer
// handle. Concrete Dispatch implementations type-assert it back to their
// own representation.
type CommandBuffer interface {
	// PushConstants records a push-constant update into this buffer.
	// Exercises the device dispatch's cmdPushConstants entry point (§6).
	PushConstants(stage PipelineStage, offset uint32, data []byte)
}

// CommandPool is an opaque handle to a command pool, the allocation unit
// a Reusable or SingleShot command context owns (§4.F).
type CommandPool uintptr

// CommandPoolUsage distinguishes a Reusable command context's long-lived
// pool from a SingleShot context's per-submission pool (§4.F).
type CommandPoolUsage int

const (
	// UsageReusable allocates from a pool that outlives the submission.
	UsageReusable CommandPoolUsage = iota
	// UsageSingleShot allocates from a pool destroyed after the
	// submission's fence signals.
	UsageSingleShot
)

// PresentResult reports the outcome of a present call so the Present task
// (§4.M) can decide whether to request a swapchain rebuild.
type PresentResult int

const (
	PresentOK PresentResult = iota
	PresentOutOfDate
	PresentSuboptimal
)

// FramebufferDescriptor is the minimal description needed to create a
// framebuffer for a render node (§6's createFramebuffer entry point).
type FramebufferDescriptor struct {
	Width, Height uint32
	ImageViews    []uintptr
}

// ShaderModuleDescriptor is the minimal description needed to create a
// shader module (§6's createShaderModule entry point). Shader compilation
// itself is out of scope (spec.md §1 Non-goals); this only hands SPIR-V
// bytes to the driver.
type ShaderModuleDescriptor struct {
	SPIRV []byte
}

// Dispatch is the logical-device function table the render-graph runtime
// consumes (component A). It is the "trivial adapter" spec.md §6 asks the
// reimplementer to provide over a real graphics API; hal/vkdevice supplies
// a Vulkan 1.2+ implementation and hal/vknoop a fake for tests.
//
// Dispatch implementations must be safe for concurrent use: the taskflow
// builder may call into a Dispatch from several node tasks running
// concurrently within one frame slot (§5).
type Dispatch interface {
	// CreateFence creates an unsignaled fence.
	CreateFence() (Fence, error)
	// DestroyFence destroys a fence created by CreateFence.
	DestroyFence(Fence)
	// WaitForFences blocks until all given fences are signaled or
	// timeoutNs elapses (0 means wait forever).
	WaitForFences(fences []Fence, timeoutNs uint64) error
	// GetFenceStatus polls a fence without blocking.
	GetFenceStatus(Fence) (signaled bool, err error)
	// ResetFences resets fences to the unsignaled state.
	ResetFences(fences []Fence) error

	// CreateBinarySemaphore creates a binary (non-timeline) semaphore.
	CreateBinarySemaphore() (Semaphore, error)
	// CreateTimelineSemaphore creates a timeline semaphore with the given
	// initial value.
	CreateTimelineSemaphore(initial uint64) (Semaphore, error)
	// DestroySemaphore destroys a semaphore created by either constructor.
	DestroySemaphore(Semaphore)
	// WaitSemaphores blocks until every (semaphore, value) pair's
	// timeline semaphore reaches at least value, or timeoutNs elapses.
	WaitSemaphores(waits []SemaphoreSubmitInfo, timeoutNs uint64) error
	// SignalSemaphore signals a timeline semaphore to value from the
	// host side.
	SignalSemaphore(sem Semaphore, value uint64) error
	// GetSemaphoreCounterValue reads a timeline semaphore's current value.
	GetSemaphoreCounterValue(sem Semaphore) (uint64, error)

	// CreateShaderModule creates a shader module from SPIR-V bytes.
	CreateShaderModule(*ShaderModuleDescriptor) (uintptr, error)
	// CreateFramebuffer creates a framebuffer for a render node.
	CreateFramebuffer(*FramebufferDescriptor) (uintptr, error)

	// QueueSubmit2 submits one batch via VK_KHR_synchronization2-style
	// semantics: per-entry stage masks on both waits and signals.
	QueueSubmit2(familyIndex uint32, submit SubmitInfo) error
	// QueuePresentKHR presents the given swapchain image index after
	// waiting on waits. Returns PresentOutOfDate/PresentSuboptimal
	// instead of an error for the two recoverable present outcomes
	// (§7 class 4).
	QueuePresentKHR(familyIndex uint32, swapchain uintptr, imageIndex uint32, waits []Semaphore) (PresentResult, error)
	// AcquireNextImageKHR acquires the next swapchain image, signaling
	// signal (expected to be the well-known "image-available" binary
	// semaphore) when the image is ready.
	AcquireNextImageKHR(swapchain uintptr, timeoutNs uint64, signal Semaphore) (imageIndex uint32, result PresentResult, err error)

	// QueueFamilyStageMask returns the pipeline stages supported by the
	// given queue family, used by CommandContext.IsPipelineStageSupported
	// and sync.Operations.Restrict (§4.F, §9 Open Question #2).
	QueueFamilyStageMask(familyIndex uint32) PipelineStage

	// CreateCommandPool creates a pool for familyIndex. usage distinguishes
	// a Reusable context's long-lived pool from a SingleShot context's
	// per-submission pool, letting a real backend pick
	// VK_COMMAND_POOL_CREATE_RESET_COMMAND_BUFFER_BIT vs. ..._TRANSIENT_BIT.
	CreateCommandPool(familyIndex uint32, usage CommandPoolUsage) (CommandPool, error)
	// DestroyCommandPool destroys a pool created by CreateCommandPool.
	DestroyCommandPool(CommandPool)
	// ResetCommandPool resets every buffer allocated from pool back to
	// the initial state, for a Reusable context's per-frame reuse.
	ResetCommandPool(pool CommandPool) error
	// AllocateCommandBuffer allocates one primary command buffer from pool.
	AllocateCommandBuffer(pool CommandPool) (CommandBuffer, error)
	// BeginCommandBuffer puts cb into the recording state.
	BeginCommandBuffer(cb CommandBuffer) error
	// EndCommandBuffer ends recording, making cb submittable.
	EndCommandBuffer(cb CommandBuffer) error
}

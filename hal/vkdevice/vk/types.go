// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package vk

// Handle is a raw Vulkan dispatchable or non-dispatchable handle value.
type Handle uint64

// Result mirrors VkResult. Only the subset this package's call sites
// check is enumerated; unrecognized codes are treated as opaque failures.
type Result int32

const (
	Success        Result = 0
	NotReady       Result = 1
	Timeout        Result = 2
	ErrorDeviceLost                   Result = -4
	ErrorOutOfDateKHR                 Result = -1000001004
	SuboptimalKHR                     Result = 1000001003
	ErrorExtensionNotPresent          Result = -7
)

// StructureType mirrors VkStructureType for the structs below.
type StructureType uint32

const (
	StructureTypeFenceCreateInfo          StructureType = 8
	StructureTypeSemaphoreCreateInfo      StructureType = 9
	StructureTypeSemaphoreTypeCreateInfo  StructureType = 1000207002
	StructureTypeSemaphoreWaitInfo        StructureType = 1000207003
	StructureTypeSemaphoreSignalInfo      StructureType = 1000207004
	StructureTypeSubmitInfo2              StructureType = 1000369003
	StructureTypeSemaphoreSubmitInfo      StructureType = 1000369001
	StructureTypeCommandBufferSubmitInfo  StructureType = 1000369002
	StructureTypePresentInfoKHR           StructureType = 1000001001
	StructureTypeShaderModuleCreateInfo   StructureType = 16
	StructureTypeFramebufferCreateInfo    StructureType = 37
	StructureTypeCommandPoolCreateInfo    StructureType = 39
	StructureTypeCommandBufferAllocateInfo StructureType = 40
	StructureTypeCommandBufferBeginInfo   StructureType = 42
)

// CommandPoolCreateFlags mirrors the VK_COMMAND_POOL_CREATE_* bits this
// package cares about.
type CommandPoolCreateFlags uint32

const (
	// CommandPoolCreateTransient hints that buffers from this pool are
	// short-lived, matching a SingleShot command context's per-submission
	// pool.
	CommandPoolCreateTransient CommandPoolCreateFlags = 1 << 0
	// CommandPoolCreateResetCommandBuffer allows individual buffers to be
	// reset, matching a Reusable command context's long-lived pool.
	CommandPoolCreateResetCommandBuffer CommandPoolCreateFlags = 1 << 1
)

// CommandBufferLevel mirrors VkCommandBufferLevel.
type CommandBufferLevel uint32

const (
	CommandBufferLevelPrimary CommandBufferLevel = 0
)

// SemaphoreType mirrors VkSemaphoreType.
type SemaphoreType uint32

const (
	SemaphoreTypeBinary   SemaphoreType = 0
	SemaphoreTypeTimeline SemaphoreType = 1
)

// PipelineStageFlags2 mirrors the VK_PIPELINE_STAGE_2_* bits this package
// cares about. Bit positions match hal.PipelineStage so conversion is a
// no-op at the call boundary.
type PipelineStageFlags2 uint64

const (
	PipelineStageTopOfPipe2          PipelineStageFlags2 = 1 << 0
	PipelineStageTransfer2           PipelineStageFlags2 = 1 << 12
	PipelineStageComputeShader2      PipelineStageFlags2 = 1 << 11
	PipelineStageColorAttachmentOut2 PipelineStageFlags2 = 1 << 10
	PipelineStageBottomOfPipe2       PipelineStageFlags2 = 1 << 13
	PipelineStageHost2               PipelineStageFlags2 = 1 << 14
	PipelineStageAllGraphics2        PipelineStageFlags2 = 1 << 15
	PipelineStageAllCommands2        PipelineStageFlags2 = 1 << 16
)

// FenceCreateInfo mirrors VkFenceCreateInfo.
type FenceCreateInfo struct {
	SType StructureType
	PNext uintptr
	Flags uint32
}

// SemaphoreTypeCreateInfo mirrors VkSemaphoreTypeCreateInfo, chained via
// PNext off SemaphoreCreateInfo to request a timeline semaphore.
type SemaphoreTypeCreateInfo struct {
	SType         StructureType
	PNext         uintptr
	SemaphoreType SemaphoreType
	InitialValue  uint64
}

// SemaphoreCreateInfo mirrors VkSemaphoreCreateInfo.
type SemaphoreCreateInfo struct {
	SType StructureType
	PNext uintptr
	Flags uint32
}

// SemaphoreWaitInfo mirrors VkSemaphoreWaitInfo.
type SemaphoreWaitInfo struct {
	SType          StructureType
	PNext          uintptr
	Flags          uint32
	SemaphoreCount uint32
	PSemaphores    uintptr // *Handle
	PValues        uintptr // *uint64
}

// SemaphoreSignalInfo mirrors VkSemaphoreSignalInfo.
type SemaphoreSignalInfo struct {
	SType     StructureType
	PNext     uintptr
	Semaphore Handle
	Value     uint64
}

// SemaphoreSubmitInfo mirrors VkSemaphoreSubmitInfo (sync2).
type SemaphoreSubmitInfo struct {
	SType       StructureType
	PNext       uintptr
	Semaphore   Handle
	Value       uint64
	StageMask   PipelineStageFlags2
	DeviceIndex uint32
}

// CommandBufferSubmitInfo mirrors VkCommandBufferSubmitInfo (sync2).
type CommandBufferSubmitInfo struct {
	SType         StructureType
	PNext         uintptr
	CommandBuffer Handle
	DeviceMask    uint32
}

// SubmitInfo2 mirrors VkSubmitInfo2 (sync2 batched submission).
type SubmitInfo2 struct {
	SType                    StructureType
	PNext                    uintptr
	Flags                    uint32
	WaitSemaphoreInfoCount   uint32
	PWaitSemaphoreInfos      uintptr // *SemaphoreSubmitInfo
	CommandBufferInfoCount   uint32
	PCommandBufferInfos      uintptr // *CommandBufferSubmitInfo
	SignalSemaphoreInfoCount uint32
	PSignalSemaphoreInfos    uintptr // *SemaphoreSubmitInfo
}

// CommandPoolCreateInfo mirrors VkCommandPoolCreateInfo.
type CommandPoolCreateInfo struct {
	SType            StructureType
	PNext            uintptr
	Flags            CommandPoolCreateFlags
	QueueFamilyIndex uint32
}

// CommandBufferAllocateInfo mirrors VkCommandBufferAllocateInfo.
type CommandBufferAllocateInfo struct {
	SType              StructureType
	PNext              uintptr
	CommandPool        Handle
	Level              CommandBufferLevel
	CommandBufferCount uint32
}

// CommandBufferBeginInfo mirrors VkCommandBufferBeginInfo.
type CommandBufferBeginInfo struct {
	SType StructureType
	PNext uintptr
	Flags uint32
}

// PresentInfoKHR mirrors VkPresentInfoKHR.
type PresentInfoKHR struct {
	SType              StructureType
	PNext              uintptr
	WaitSemaphoreCount uint32
	PWaitSemaphores    uintptr // *Handle
	SwapchainCount     uint32
	PSwapchains        uintptr // *Handle
	PImageIndices      uintptr // *uint32
	PResults           uintptr // *Result, optional
}

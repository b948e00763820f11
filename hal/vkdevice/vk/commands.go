// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package vk

import (
	"unsafe"

	"github.com/go-webgpu/goffi/ffi"
)

// CreateFence wraps vkCreateFence.
func (c *Commands) CreateFence(info *FenceCreateInfo) (Handle, Result) {
	var fence Handle
	infoPtr := unsafe.Pointer(info)
	fencePtr := unsafe.Pointer(&fence)
	var nilPtr unsafe.Pointer
	var res Result
	args := []unsafe.Pointer{unsafe.Pointer(&c.device), unsafe.Pointer(&infoPtr), unsafe.Pointer(&nilPtr), unsafe.Pointer(&fencePtr)}
	_ = ffi.CallFunction(&sigResultHandlePtrPtrPtr, c.createFence, unsafe.Pointer(&res), args)
	return fence, res
}

// DestroyFence wraps vkDestroyFence.
func (c *Commands) DestroyFence(fence Handle) {
	var nilPtr unsafe.Pointer
	args := []unsafe.Pointer{unsafe.Pointer(&c.device), unsafe.Pointer(&fence), unsafe.Pointer(&nilPtr)}
	_ = ffi.CallFunction(&sigVoidHandleHandlePtr, c.destroyFence, nil, args)
}

// WaitForFences wraps vkWaitForFences.
func (c *Commands) WaitForFences(fences []Handle, waitAll bool, timeoutNs uint64) Result {
	var res Result
	count := uint32(len(fences))
	var fencesPtr unsafe.Pointer
	if count > 0 {
		fencesPtr = unsafe.Pointer(&fences[0])
	}
	wait := uint32(0)
	if waitAll {
		wait = 1
	}
	args := []unsafe.Pointer{unsafe.Pointer(&c.device), unsafe.Pointer(&count), unsafe.Pointer(&fencesPtr), unsafe.Pointer(&wait), unsafe.Pointer(&timeoutNs)}
	_ = ffi.CallFunction(&sigResultHandleU32PtrU32U64, c.waitForFences, unsafe.Pointer(&res), args)
	return res
}

// GetFenceStatus wraps vkGetFenceStatus.
func (c *Commands) GetFenceStatus(fence Handle) Result {
	var res Result
	args := []unsafe.Pointer{unsafe.Pointer(&c.device), unsafe.Pointer(&fence)}
	_ = ffi.CallFunction(&sigResultHandleHandlePtr, c.getFenceStatus, unsafe.Pointer(&res), args[:2])
	return res
}

// ResetFences wraps vkResetFences.
func (c *Commands) ResetFences(fences []Handle) Result {
	var res Result
	count := uint32(len(fences))
	var fencesPtr unsafe.Pointer
	if count > 0 {
		fencesPtr = unsafe.Pointer(&fences[0])
	}
	args := []unsafe.Pointer{unsafe.Pointer(&c.device), unsafe.Pointer(&count), unsafe.Pointer(&fencesPtr)}
	_ = ffi.CallFunction(&sigResultHandleU32Ptr, c.resetFences, unsafe.Pointer(&res), args)
	return res
}

// CreateSemaphore wraps vkCreateSemaphore (binary or timeline, depending
// on whether info.PNext chains a SemaphoreTypeCreateInfo).
func (c *Commands) CreateSemaphore(info *SemaphoreCreateInfo) (Handle, Result) {
	var sem Handle
	infoPtr := unsafe.Pointer(info)
	semPtr := unsafe.Pointer(&sem)
	var nilPtr unsafe.Pointer
	var res Result
	args := []unsafe.Pointer{unsafe.Pointer(&c.device), unsafe.Pointer(&infoPtr), unsafe.Pointer(&nilPtr), unsafe.Pointer(&semPtr)}
	_ = ffi.CallFunction(&sigResultHandlePtrPtrPtr, c.createSemaphore, unsafe.Pointer(&res), args)
	return sem, res
}

// DestroySemaphore wraps vkDestroySemaphore.
func (c *Commands) DestroySemaphore(sem Handle) {
	var nilPtr unsafe.Pointer
	args := []unsafe.Pointer{unsafe.Pointer(&c.device), unsafe.Pointer(&sem), unsafe.Pointer(&nilPtr)}
	_ = ffi.CallFunction(&sigVoidHandleHandlePtr, c.destroySemaphore, nil, args)
}

// WaitSemaphores wraps vkWaitSemaphores.
func (c *Commands) WaitSemaphores(info *SemaphoreWaitInfo, timeoutNs uint64) Result {
	var res Result
	infoPtr := unsafe.Pointer(info)
	args := []unsafe.Pointer{unsafe.Pointer(&c.device), unsafe.Pointer(&infoPtr), unsafe.Pointer(&timeoutNs)}
	_ = ffi.CallFunction(&sigResultHandleU32PtrU64, c.waitSemaphores, unsafe.Pointer(&res), args)
	return res
}

// SignalSemaphore wraps vkSignalSemaphore.
func (c *Commands) SignalSemaphore(info *SemaphoreSignalInfo) Result {
	var res Result
	infoPtr := unsafe.Pointer(info)
	args := []unsafe.Pointer{unsafe.Pointer(&c.device), unsafe.Pointer(&infoPtr)}
	_ = ffi.CallFunction(&sigResultHandlePtr, c.signalSemaphore, unsafe.Pointer(&res), args)
	return res
}

// GetSemaphoreCounterValue wraps vkGetSemaphoreCounterValue.
func (c *Commands) GetSemaphoreCounterValue(sem Handle) (uint64, Result) {
	var value uint64
	var res Result
	valuePtr := unsafe.Pointer(&value)
	args := []unsafe.Pointer{unsafe.Pointer(&c.device), unsafe.Pointer(&sem), unsafe.Pointer(&valuePtr)}
	_ = ffi.CallFunction(&sigResultHandleHandlePtr, c.getSemaphoreCounterValue, unsafe.Pointer(&res), args)
	return value, res
}

// QueueSubmit2 wraps vkQueueSubmit2.
func (c *Commands) QueueSubmit2(queue Handle, submits []SubmitInfo2, fence Handle) Result {
	var res Result
	count := uint32(len(submits))
	var submitsPtr unsafe.Pointer
	if count > 0 {
		submitsPtr = unsafe.Pointer(&submits[0])
	}
	args := []unsafe.Pointer{unsafe.Pointer(&queue), unsafe.Pointer(&count), unsafe.Pointer(&submitsPtr), unsafe.Pointer(&fence)}
	_ = ffi.CallFunction(&sigResultHandleU32PtrHandle, c.queueSubmit2, unsafe.Pointer(&res), args)
	return res
}

// QueuePresentKHR wraps vkQueuePresentKHR.
func (c *Commands) QueuePresentKHR(queue Handle, info *PresentInfoKHR) Result {
	var res Result
	infoPtr := unsafe.Pointer(info)
	args := []unsafe.Pointer{unsafe.Pointer(&queue), unsafe.Pointer(&infoPtr)}
	_ = ffi.CallFunction(&sigResultHandlePtr, c.queuePresentKHR, unsafe.Pointer(&res), args)
	return res
}

// AcquireNextImageKHR wraps vkAcquireNextImageKHR.
func (c *Commands) AcquireNextImageKHR(swapchain Handle, timeoutNs uint64, semaphore, fence Handle) (uint32, Result) {
	var imageIndex uint32
	var res Result
	idxPtr := unsafe.Pointer(&imageIndex)
	args := []unsafe.Pointer{unsafe.Pointer(&c.device), unsafe.Pointer(&swapchain), unsafe.Pointer(&timeoutNs), unsafe.Pointer(&semaphore), unsafe.Pointer(&fence), unsafe.Pointer(&idxPtr)}
	_ = ffi.CallFunction(&sigResultHandleHandleU64HandleHandlePtr, c.acquireNextImageKHR, unsafe.Pointer(&res), args)
	return imageIndex, res
}

// CreateShaderModule wraps vkCreateShaderModule.
func (c *Commands) CreateShaderModule(spirv []byte) (Handle, Result) {
	type createInfo struct {
		SType    StructureType
		PNext    uintptr
		Flags    uint32
		CodeSize uintptr
		PCode    uintptr
	}
	var codePtr uintptr
	if len(spirv) > 0 {
		codePtr = uintptr(unsafe.Pointer(&spirv[0]))
	}
	info := createInfo{SType: StructureTypeShaderModuleCreateInfo, CodeSize: uintptr(len(spirv)), PCode: codePtr}
	var module Handle
	infoPtr := unsafe.Pointer(&info)
	modulePtr := unsafe.Pointer(&module)
	var nilPtr unsafe.Pointer
	var res Result
	args := []unsafe.Pointer{unsafe.Pointer(&c.device), unsafe.Pointer(&infoPtr), unsafe.Pointer(&nilPtr), unsafe.Pointer(&modulePtr)}
	_ = ffi.CallFunction(&sigResultHandlePtrPtrPtr, c.createShaderModule, unsafe.Pointer(&res), args)
	return module, res
}

// CreateFramebuffer wraps vkCreateFramebuffer.
func (c *Commands) CreateFramebuffer(info *FramebufferCreateInfo) (Handle, Result) {
	var fb Handle
	infoPtr := unsafe.Pointer(info)
	fbPtr := unsafe.Pointer(&fb)
	var nilPtr unsafe.Pointer
	var res Result
	args := []unsafe.Pointer{unsafe.Pointer(&c.device), unsafe.Pointer(&infoPtr), unsafe.Pointer(&nilPtr), unsafe.Pointer(&fbPtr)}
	_ = ffi.CallFunction(&sigResultHandlePtrPtrPtr, c.createFramebuffer, unsafe.Pointer(&res), args)
	return fb, res
}

// CreateCommandPool wraps vkCreateCommandPool.
func (c *Commands) CreateCommandPool(info *CommandPoolCreateInfo) (Handle, Result) {
	var pool Handle
	infoPtr := unsafe.Pointer(info)
	poolPtr := unsafe.Pointer(&pool)
	var nilPtr unsafe.Pointer
	var res Result
	args := []unsafe.Pointer{unsafe.Pointer(&c.device), unsafe.Pointer(&infoPtr), unsafe.Pointer(&nilPtr), unsafe.Pointer(&poolPtr)}
	_ = ffi.CallFunction(&sigResultHandlePtrPtrPtr, c.createCommandPool, unsafe.Pointer(&res), args)
	return pool, res
}

// DestroyCommandPool wraps vkDestroyCommandPool.
func (c *Commands) DestroyCommandPool(pool Handle) {
	var nilPtr unsafe.Pointer
	args := []unsafe.Pointer{unsafe.Pointer(&c.device), unsafe.Pointer(&pool), unsafe.Pointer(&nilPtr)}
	_ = ffi.CallFunction(&sigVoidHandleHandlePtr, c.destroyCommandPool, nil, args)
}

// ResetCommandPool wraps vkResetCommandPool.
func (c *Commands) ResetCommandPool(pool Handle, flags uint32) Result {
	var res Result
	args := []unsafe.Pointer{unsafe.Pointer(&c.device), unsafe.Pointer(&pool), unsafe.Pointer(&flags)}
	_ = ffi.CallFunction(&sigResultHandleHandleU32, c.resetCommandPool, unsafe.Pointer(&res), args)
	return res
}

// AllocateCommandBuffers wraps vkAllocateCommandBuffers, allocating a
// single primary command buffer from pool.
func (c *Commands) AllocateCommandBuffers(pool Handle) (Handle, Result) {
	info := CommandBufferAllocateInfo{
		SType:              StructureTypeCommandBufferAllocateInfo,
		CommandPool:        pool,
		Level:              CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	}
	var cmdBuf Handle
	infoPtr := unsafe.Pointer(&info)
	cmdBufPtr := unsafe.Pointer(&cmdBuf)
	var res Result
	args := []unsafe.Pointer{unsafe.Pointer(&c.device), unsafe.Pointer(&infoPtr), unsafe.Pointer(&cmdBufPtr)}
	_ = ffi.CallFunction(&sigResultHandlePtrPtr, c.allocateCommandBuffers, unsafe.Pointer(&res), args)
	return cmdBuf, res
}

// FreeCommandBuffers wraps vkFreeCommandBuffers.
func (c *Commands) FreeCommandBuffers(pool Handle, buffers []Handle) {
	count := uint32(len(buffers))
	var buffersPtr unsafe.Pointer
	if count > 0 {
		buffersPtr = unsafe.Pointer(&buffers[0])
	}
	args := []unsafe.Pointer{unsafe.Pointer(&c.device), unsafe.Pointer(&pool), unsafe.Pointer(&count), unsafe.Pointer(&buffersPtr)}
	_ = ffi.CallFunction(&sigVoidHandleHandleU32Ptr, c.freeCommandBuffers, nil, args)
}

// ResetCommandBuffer wraps vkResetCommandBuffer.
func (c *Commands) ResetCommandBuffer(cmdBuf Handle, flags uint32) Result {
	var res Result
	args := []unsafe.Pointer{unsafe.Pointer(&cmdBuf), unsafe.Pointer(&flags)}
	_ = ffi.CallFunction(&sigResultHandleU32, c.resetCommandBuffer, unsafe.Pointer(&res), args)
	return res
}

// BeginCommandBuffer wraps vkBeginCommandBuffer.
func (c *Commands) BeginCommandBuffer(cmdBuf Handle, info *CommandBufferBeginInfo) Result {
	var res Result
	infoPtr := unsafe.Pointer(info)
	args := []unsafe.Pointer{unsafe.Pointer(&cmdBuf), unsafe.Pointer(&infoPtr)}
	_ = ffi.CallFunction(&sigResultHandlePtr, c.beginCommandBuffer, unsafe.Pointer(&res), args)
	return res
}

// EndCommandBuffer wraps vkEndCommandBuffer.
func (c *Commands) EndCommandBuffer(cmdBuf Handle) Result {
	var res Result
	args := []unsafe.Pointer{unsafe.Pointer(&cmdBuf)}
	_ = ffi.CallFunction(&sigResultHandle, c.endCommandBuffer, unsafe.Pointer(&res), args)
	return res
}

// CmdPushConstants wraps vkCmdPushConstants. layout is a VkPipelineLayout
// handle; the render-graph runtime treats push constants as the one
// draw-adjacent command it exercises directly (§6), leaving full draw/copy
// recording out of scope (spec.md §1 Non-goals).
func (c *Commands) CmdPushConstants(cmdBuf, layout Handle, stageFlags, offset, size uint32, data []byte) {
	var dataPtr unsafe.Pointer
	if len(data) > 0 {
		dataPtr = unsafe.Pointer(&data[0])
	}
	args := []unsafe.Pointer{
		unsafe.Pointer(&cmdBuf), unsafe.Pointer(&layout), unsafe.Pointer(&stageFlags),
		unsafe.Pointer(&offset), unsafe.Pointer(&size), unsafe.Pointer(&dataPtr),
	}
	_ = ffi.CallFunction(&sigVoidHandleHandleU32U32U32Ptr, c.cmdPushConstants, nil, args)
}

// FramebufferCreateInfo mirrors VkFramebufferCreateInfo.
type FramebufferCreateInfo struct {
	SType           StructureType
	PNext           uintptr
	Flags           uint32
	RenderPass      Handle
	AttachmentCount uint32
	PAttachments    uintptr
	Width           uint32
	Height          uint32
	Layers          uint32
}

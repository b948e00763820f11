// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package vk

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/go-webgpu/goffi/ffi"
	"github.com/go-webgpu/goffi/types"
)

// Commands holds the resolved device-level function pointers and their
// prepared call interfaces. One Commands is created per logical device.
type Commands struct {
	device Handle

	createFence                 unsafe.Pointer
	destroyFence                unsafe.Pointer
	waitForFences                unsafe.Pointer
	getFenceStatus               unsafe.Pointer
	resetFences                  unsafe.Pointer
	createSemaphore               unsafe.Pointer
	destroySemaphore              unsafe.Pointer
	waitSemaphores                unsafe.Pointer
	signalSemaphore               unsafe.Pointer
	getSemaphoreCounterValue      unsafe.Pointer
	createShaderModule            unsafe.Pointer
	createFramebuffer             unsafe.Pointer
	queueSubmit2                  unsafe.Pointer
	queuePresentKHR               unsafe.Pointer
	acquireNextImageKHR           unsafe.Pointer

	createCommandPool      unsafe.Pointer
	destroyCommandPool     unsafe.Pointer
	resetCommandPool       unsafe.Pointer
	allocateCommandBuffers unsafe.Pointer
	freeCommandBuffers     unsafe.Pointer
	resetCommandBuffer     unsafe.Pointer
	beginCommandBuffer     unsafe.Pointer
	endCommandBuffer       unsafe.Pointer
	cmdPushConstants       unsafe.Pointer
}

var (
	vulkanLib             unsafe.Pointer
	vkGetInstanceProcAddr unsafe.Pointer
	vkGetDeviceProcAddr   unsafe.Pointer

	cifGetInstanceProcAddr types.CallInterface
	cifGetDeviceProcAddr   types.CallInterface

	// Reusable signature templates, grounded on the observation (teacher
	// comment in signatures.go) that Vulkan has hundreds of functions but
	// only a few dozen distinct calling shapes.
	sigResultHandlePtr        types.CallInterface // VkResult(handle, ptr)
	sigVoidHandlePtr          types.CallInterface // void(handle, ptr)
	sigResultHandleHandlePtr  types.CallInterface // VkResult(handle, handle, ptr)
	sigVoidHandleHandlePtr    types.CallInterface // void(handle, handle, ptr)
	sigResultHandlePtrPtrPtr  types.CallInterface // VkResult(handle, ptr, ptr, ptr)
	sigResultHandleU32Ptr     types.CallInterface // VkResult(handle, u32, ptr)
	sigResultHandleU32PtrU64  types.CallInterface // VkResult(handle, u32, ptr, u64) -- waitSemaphores
	sigResultHandleU32PtrU32U64 types.CallInterface // VkResult(handle, u32, ptr, u32, u64) -- waitForFences
	sigResultHandleU32PtrHandle  types.CallInterface // VkResult(handle, u32, ptr, handle) -- queueSubmit2
	sigResultHandleHandleU64HandleHandlePtr types.CallInterface // VkResult(handle, handle, u64, handle, handle, ptr) -- acquireNextImageKHR
	sigResultHandleHandleU32  types.CallInterface // VkResult(handle, handle, u32) -- resetCommandPool
	sigResultHandlePtrPtr     types.CallInterface // VkResult(handle, ptr, ptr) -- allocateCommandBuffers
	sigVoidHandleHandleU32Ptr types.CallInterface // void(handle, handle, u32, ptr) -- freeCommandBuffers
	sigResultHandleU32        types.CallInterface // VkResult(handle, u32) -- resetCommandBuffer
	sigResultHandle           types.CallInterface // VkResult(handle) -- endCommandBuffer
	sigVoidHandleHandleU32U32U32Ptr types.CallInterface // void(handle, handle, u32, u32, u32, ptr) -- cmdPushConstants

	initOnce sync.Once
	initErr  error
)

// Init loads the Vulkan loader library and prepares the small set of call
// interfaces this package needs. Safe to call repeatedly; only the first
// call does work.
func Init() error {
	initOnce.Do(func() { initErr = doInit() })
	return initErr
}

func doInit() error {
	candidates := vulkanLibraryCandidates()

	var err error
	var lastErr error
	for _, name := range candidates {
		vulkanLib, err = ffi.LoadLibrary(name)
		if err == nil {
			break
		}
		lastErr = err
	}
	if vulkanLib == nil {
		return fmt.Errorf("vk: failed to load vulkan loader (tried %v): %w", candidates, lastErr)
	}

	vkGetInstanceProcAddr, err = ffi.GetSymbol(vulkanLib, "vkGetInstanceProcAddr")
	if err != nil {
		return fmt.Errorf("vk: vkGetInstanceProcAddr not found: %w", err)
	}
	vkGetDeviceProcAddr, err = ffi.GetSymbol(vulkanLib, "vkGetDeviceProcAddr")
	if err != nil {
		return fmt.Errorf("vk: vkGetDeviceProcAddr not found: %w", err)
	}

	if err := ffi.PrepareCallInterface(&cifGetInstanceProcAddr, types.DefaultCall,
		types.PointerTypeDescriptor,
		[]*types.TypeDescriptor{types.UInt64TypeDescriptor, types.PointerTypeDescriptor}); err != nil {
		return fmt.Errorf("vk: prepare GetInstanceProcAddr: %w", err)
	}
	if err := ffi.PrepareCallInterface(&cifGetDeviceProcAddr, types.DefaultCall,
		types.PointerTypeDescriptor,
		[]*types.TypeDescriptor{types.UInt64TypeDescriptor, types.PointerTypeDescriptor}); err != nil {
		return fmt.Errorf("vk: prepare GetDeviceProcAddr: %w", err)
	}

	if err := ffi.PrepareCallInterface(&sigResultHandlePtr, types.DefaultCall,
		types.Int32TypeDescriptor,
		[]*types.TypeDescriptor{types.UInt64TypeDescriptor, types.PointerTypeDescriptor}); err != nil {
		return fmt.Errorf("vk: prepare sigResultHandlePtr: %w", err)
	}
	if err := ffi.PrepareCallInterface(&sigVoidHandlePtr, types.DefaultCall,
		types.VoidTypeDescriptor,
		[]*types.TypeDescriptor{types.UInt64TypeDescriptor, types.PointerTypeDescriptor}); err != nil {
		return fmt.Errorf("vk: prepare sigVoidHandlePtr: %w", err)
	}
	u64, u32, ptr, i32 := types.UInt64TypeDescriptor, types.UInt32TypeDescriptor, types.PointerTypeDescriptor, types.Int32TypeDescriptor
	void := types.VoidTypeDescriptor

	if err := ffi.PrepareCallInterface(&sigResultHandleHandlePtr, types.DefaultCall, i32,
		[]*types.TypeDescriptor{u64, u64, ptr}); err != nil {
		return fmt.Errorf("vk: prepare sigResultHandleHandlePtr: %w", err)
	}
	if err := ffi.PrepareCallInterface(&sigVoidHandleHandlePtr, types.DefaultCall, void,
		[]*types.TypeDescriptor{u64, u64, ptr}); err != nil {
		return fmt.Errorf("vk: prepare sigVoidHandleHandlePtr: %w", err)
	}
	if err := ffi.PrepareCallInterface(&sigResultHandlePtrPtrPtr, types.DefaultCall, i32,
		[]*types.TypeDescriptor{u64, ptr, ptr, ptr}); err != nil {
		return fmt.Errorf("vk: prepare sigResultHandlePtrPtrPtr: %w", err)
	}
	if err := ffi.PrepareCallInterface(&sigResultHandleU32Ptr, types.DefaultCall, i32,
		[]*types.TypeDescriptor{u64, u32, ptr}); err != nil {
		return fmt.Errorf("vk: prepare sigResultHandleU32Ptr: %w", err)
	}
	if err := ffi.PrepareCallInterface(&sigResultHandleU32PtrU64, types.DefaultCall, i32,
		[]*types.TypeDescriptor{u64, u32, ptr, u64}); err != nil {
		return fmt.Errorf("vk: prepare sigResultHandleU32PtrU64: %w", err)
	}
	if err := ffi.PrepareCallInterface(&sigResultHandleU32PtrU32U64, types.DefaultCall, i32,
		[]*types.TypeDescriptor{u64, u32, ptr, u32, u64}); err != nil {
		return fmt.Errorf("vk: prepare sigResultHandleU32PtrU32U64: %w", err)
	}
	if err := ffi.PrepareCallInterface(&sigResultHandleU32PtrHandle, types.DefaultCall, i32,
		[]*types.TypeDescriptor{u64, u32, ptr, u64}); err != nil {
		return fmt.Errorf("vk: prepare sigResultHandleU32PtrHandle: %w", err)
	}
	if err := ffi.PrepareCallInterface(&sigResultHandleHandleU64HandleHandlePtr, types.DefaultCall, i32,
		[]*types.TypeDescriptor{u64, u64, u64, u64, u64, ptr}); err != nil {
		return fmt.Errorf("vk: prepare sigResultHandleHandleU64HandleHandlePtr: %w", err)
	}
	if err := ffi.PrepareCallInterface(&sigResultHandleHandleU32, types.DefaultCall, i32,
		[]*types.TypeDescriptor{u64, u64, u32}); err != nil {
		return fmt.Errorf("vk: prepare sigResultHandleHandleU32: %w", err)
	}
	if err := ffi.PrepareCallInterface(&sigResultHandlePtrPtr, types.DefaultCall, i32,
		[]*types.TypeDescriptor{u64, ptr, ptr}); err != nil {
		return fmt.Errorf("vk: prepare sigResultHandlePtrPtr: %w", err)
	}
	if err := ffi.PrepareCallInterface(&sigVoidHandleHandleU32Ptr, types.DefaultCall, void,
		[]*types.TypeDescriptor{u64, u64, u32, ptr}); err != nil {
		return fmt.Errorf("vk: prepare sigVoidHandleHandleU32Ptr: %w", err)
	}
	if err := ffi.PrepareCallInterface(&sigResultHandleU32, types.DefaultCall, i32,
		[]*types.TypeDescriptor{u64, u32}); err != nil {
		return fmt.Errorf("vk: prepare sigResultHandleU32: %w", err)
	}
	if err := ffi.PrepareCallInterface(&sigResultHandle, types.DefaultCall, i32,
		[]*types.TypeDescriptor{u64}); err != nil {
		return fmt.Errorf("vk: prepare sigResultHandle: %w", err)
	}
	if err := ffi.PrepareCallInterface(&sigVoidHandleHandleU32U32U32Ptr, types.DefaultCall, void,
		[]*types.TypeDescriptor{u64, u64, u32, u32, u32, ptr}); err != nil {
		return fmt.Errorf("vk: prepare sigVoidHandleHandleU32U32U32Ptr: %w", err)
	}

	return nil
}

func getDeviceProcAddr(device Handle, name string) unsafe.Pointer {
	cName := append([]byte(name), 0)
	namePtr := unsafe.Pointer(&cName[0])
	var result unsafe.Pointer
	args := [2]unsafe.Pointer{unsafe.Pointer(&device), unsafe.Pointer(&namePtr)}
	_ = ffi.CallFunction(&cifGetDeviceProcAddr, vkGetDeviceProcAddr, unsafe.Pointer(&result), args[:])
	return result
}

// LoadDevice resolves every function pointer this package needs for the
// given device handle.
func LoadDevice(device Handle) (*Commands, error) {
	if err := Init(); err != nil {
		return nil, err
	}
	c := &Commands{device: device}
	c.createFence = getDeviceProcAddr(device, "vkCreateFence")
	c.destroyFence = getDeviceProcAddr(device, "vkDestroyFence")
	c.waitForFences = getDeviceProcAddr(device, "vkWaitForFences")
	c.getFenceStatus = getDeviceProcAddr(device, "vkGetFenceStatus")
	c.resetFences = getDeviceProcAddr(device, "vkResetFences")
	c.createSemaphore = getDeviceProcAddr(device, "vkCreateSemaphore")
	c.destroySemaphore = getDeviceProcAddr(device, "vkDestroySemaphore")
	c.waitSemaphores = getDeviceProcAddr(device, "vkWaitSemaphores")
	c.signalSemaphore = getDeviceProcAddr(device, "vkSignalSemaphore")
	c.getSemaphoreCounterValue = getDeviceProcAddr(device, "vkGetSemaphoreCounterValue")
	c.createShaderModule = getDeviceProcAddr(device, "vkCreateShaderModule")
	c.createFramebuffer = getDeviceProcAddr(device, "vkCreateFramebuffer")
	c.queueSubmit2 = getDeviceProcAddr(device, "vkQueueSubmit2")
	c.queuePresentKHR = getDeviceProcAddr(device, "vkQueuePresentKHR")
	c.acquireNextImageKHR = getDeviceProcAddr(device, "vkAcquireNextImageKHR")
	c.createCommandPool = getDeviceProcAddr(device, "vkCreateCommandPool")
	c.destroyCommandPool = getDeviceProcAddr(device, "vkDestroyCommandPool")
	c.resetCommandPool = getDeviceProcAddr(device, "vkResetCommandPool")
	c.allocateCommandBuffers = getDeviceProcAddr(device, "vkAllocateCommandBuffers")
	c.freeCommandBuffers = getDeviceProcAddr(device, "vkFreeCommandBuffers")
	c.resetCommandBuffer = getDeviceProcAddr(device, "vkResetCommandBuffer")
	c.beginCommandBuffer = getDeviceProcAddr(device, "vkBeginCommandBuffer")
	c.endCommandBuffer = getDeviceProcAddr(device, "vkEndCommandBuffer")
	c.cmdPushConstants = getDeviceProcAddr(device, "vkCmdPushConstants")

	if c.createFence == nil || c.queueSubmit2 == nil {
		return nil, fmt.Errorf("vk: device missing required entry points (need Vulkan 1.3 or KHR_synchronization2/KHR_timeline_semaphore)")
	}
	return c, nil
}

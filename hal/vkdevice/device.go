// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package vkdevice implements hal.Dispatch (component A) against a real
// Vulkan 1.2+ device using timeline semaphores, grounded on the teacher's
// hal/vulkan package (in particular fence.go's timeline-preferred
// deviceFence and queue.go's vkQueueSubmit wrapper), generalized from one
// fixed fence/semaphore pair to the full named-primitive surface the
// render-graph layer needs.
package vkdevice

import (
	"fmt"

	"github.com/gogpu/rendergraph/hal"
	"github.com/gogpu/rendergraph/hal/vkdevice/vk"
	"github.com/gogpu/rendergraph/internal/telemetry"
)

var logTopic = telemetry.NewTopic("vkdevice")

// Device implements hal.Dispatch for a single Vulkan logical device.
type Device struct {
	handle  vk.Handle
	cmds    *vk.Commands
	queues  map[uint32]vk.Handle // familyIndex -> vkQueue handle (one representative queue per family for submits routed here)
	families map[uint32]hal.PipelineStage
}

// New wraps an already-created VkDevice handle. Instance creation, physical
// device selection, and queue retrieval are the window-system glue named
// in spec.md §6 and are out of this package's scope; callers hand in the
// handles they already obtained.
func New(deviceHandle uint64, queueHandles map[uint32]uint64, familyStages map[uint32]hal.PipelineStage) (*Device, error) {
	cmds, err := vk.LoadDevice(vk.Handle(deviceHandle))
	if err != nil {
		return nil, fmt.Errorf("vkdevice: %w", err)
	}
	queues := make(map[uint32]vk.Handle, len(queueHandles))
	for family, h := range queueHandles {
		queues[family] = vk.Handle(h)
	}
	logTopic.Info("device dispatch attached", "families", len(queues))
	return &Device{handle: vk.Handle(deviceHandle), cmds: cmds, queues: queues, families: familyStages}, nil
}

func (d *Device) CreateFence() (hal.Fence, error) {
	info := &vk.FenceCreateInfo{SType: vk.StructureTypeFenceCreateInfo}
	h, res := d.cmds.CreateFence(info)
	if res != vk.Success {
		return 0, fmt.Errorf("vkdevice: vkCreateFence failed: %d", res)
	}
	return hal.Fence(h), nil
}

func (d *Device) DestroyFence(f hal.Fence) {
	d.cmds.DestroyFence(vk.Handle(f))
}

func (d *Device) WaitForFences(fences []hal.Fence, timeoutNs uint64) error {
	if len(fences) == 0 {
		return nil
	}
	vkFences := make([]vk.Handle, len(fences))
	for i, f := range fences {
		vkFences[i] = vk.Handle(f)
	}
	if timeoutNs == 0 {
		timeoutNs = ^uint64(0) // hal's "wait forever"; Vulkan treats 0 as a poll
	}
	res := d.cmds.WaitForFences(vkFences, true, timeoutNs)
	switch res {
	case vk.Success:
		return nil
	case vk.Timeout:
		return hal.ErrTimeout
	case vk.ErrorDeviceLost:
		return hal.ErrDeviceLost
	default:
		return fmt.Errorf("vkdevice: vkWaitForFences failed: %d", res)
	}
}

func (d *Device) GetFenceStatus(f hal.Fence) (bool, error) {
	res := d.cmds.GetFenceStatus(vk.Handle(f))
	switch res {
	case vk.Success:
		return true, nil
	case vk.NotReady:
		return false, nil
	default:
		return false, fmt.Errorf("vkdevice: vkGetFenceStatus failed: %d", res)
	}
}

func (d *Device) ResetFences(fences []hal.Fence) error {
	if len(fences) == 0 {
		return nil
	}
	vkFences := make([]vk.Handle, len(fences))
	for i, f := range fences {
		vkFences[i] = vk.Handle(f)
	}
	if res := d.cmds.ResetFences(vkFences); res != vk.Success {
		return fmt.Errorf("vkdevice: vkResetFences failed: %d", res)
	}
	return nil
}

func (d *Device) CreateBinarySemaphore() (hal.Semaphore, error) {
	info := &vk.SemaphoreCreateInfo{SType: vk.StructureTypeSemaphoreCreateInfo}
	h, res := d.cmds.CreateSemaphore(info)
	if res != vk.Success {
		return 0, fmt.Errorf("vkdevice: vkCreateSemaphore (binary) failed: %d", res)
	}
	return hal.Semaphore(h), nil
}

func (d *Device) CreateTimelineSemaphore(initial uint64) (hal.Semaphore, error) {
	// The timeline type-info struct must outlive the call; Go keeps it
	// alive via the PNext chain being referenced from a live local.
	typeInfo := &vk.SemaphoreTypeCreateInfo{
		SType:         vk.StructureTypeSemaphoreTypeCreateInfo,
		SemaphoreType: vk.SemaphoreTypeTimeline,
		InitialValue:  initial,
	}
	info := &vk.SemaphoreCreateInfo{SType: vk.StructureTypeSemaphoreCreateInfo}
	info.PNext = ptrOf(typeInfo)
	h, res := d.cmds.CreateSemaphore(info)
	if res != vk.Success {
		return 0, fmt.Errorf("vkdevice: vkCreateSemaphore (timeline) failed: %d", res)
	}
	return hal.Semaphore(h), nil
}

func (d *Device) DestroySemaphore(s hal.Semaphore) {
	d.cmds.DestroySemaphore(vk.Handle(s))
}

func (d *Device) WaitSemaphores(waits []hal.SemaphoreSubmitInfo, timeoutNs uint64) error {
	if len(waits) == 0 {
		return nil
	}
	sems := make([]vk.Handle, len(waits))
	values := make([]uint64, len(waits))
	for i, w := range waits {
		sems[i] = vk.Handle(w.Semaphore)
		values[i] = w.Value
	}
	info := &vk.SemaphoreWaitInfo{
		SType:          vk.StructureTypeSemaphoreWaitInfo,
		SemaphoreCount: uint32(len(sems)),
		PSemaphores:    ptrOf(&sems[0]),
		PValues:        ptrOf(&values[0]),
	}
	res := d.cmds.WaitSemaphores(info, timeoutNs)
	switch res {
	case vk.Success:
		return nil
	case vk.Timeout:
		return hal.ErrTimeout
	case vk.ErrorDeviceLost:
		return hal.ErrDeviceLost
	default:
		return fmt.Errorf("vkdevice: vkWaitSemaphores failed: %d", res)
	}
}

func (d *Device) SignalSemaphore(sem hal.Semaphore, value uint64) error {
	info := &vk.SemaphoreSignalInfo{SType: vk.StructureTypeSemaphoreSignalInfo, Semaphore: vk.Handle(sem), Value: value}
	if res := d.cmds.SignalSemaphore(info); res != vk.Success {
		return fmt.Errorf("vkdevice: vkSignalSemaphore failed: %d", res)
	}
	return nil
}

func (d *Device) GetSemaphoreCounterValue(sem hal.Semaphore) (uint64, error) {
	v, res := d.cmds.GetSemaphoreCounterValue(vk.Handle(sem))
	if res != vk.Success {
		return 0, fmt.Errorf("vkdevice: vkGetSemaphoreCounterValue failed: %d", res)
	}
	return v, nil
}

func (d *Device) CreateShaderModule(desc *hal.ShaderModuleDescriptor) (uintptr, error) {
	h, res := d.cmds.CreateShaderModule(desc.SPIRV)
	if res != vk.Success {
		return 0, fmt.Errorf("vkdevice: vkCreateShaderModule failed: %d", res)
	}
	return uintptr(h), nil
}

func (d *Device) CreateFramebuffer(desc *hal.FramebufferDescriptor) (uintptr, error) {
	views := make([]vk.Handle, len(desc.ImageViews))
	for i, v := range desc.ImageViews {
		views[i] = vk.Handle(v)
	}
	info := &vk.FramebufferCreateInfo{
		SType:           vk.StructureTypeFramebufferCreateInfo,
		AttachmentCount: uint32(len(views)),
		Width:           desc.Width,
		Height:          desc.Height,
		Layers:          1,
	}
	if len(views) > 0 {
		info.PAttachments = ptrOf(&views[0])
	}
	h, res := d.cmds.CreateFramebuffer(info)
	if res != vk.Success {
		return 0, fmt.Errorf("vkdevice: vkCreateFramebuffer failed: %d", res)
	}
	return uintptr(h), nil
}

func (d *Device) QueueSubmit2(familyIndex uint32, submit hal.SubmitInfo) error {
	queue, ok := d.queues[familyIndex]
	if !ok {
		return fmt.Errorf("vkdevice: no queue registered for family %d", familyIndex)
	}

	cmdInfos := make([]vk.CommandBufferSubmitInfo, len(submit.CommandBuffers))
	for i, cb := range submit.CommandBuffers {
		h, ok := cb.(interface{ VkHandle() uint64 })
		if !ok {
			return fmt.Errorf("vkdevice: command buffer does not expose a Vulkan handle")
		}
		cmdInfos[i] = vk.CommandBufferSubmitInfo{
			SType:         vk.StructureTypeCommandBufferSubmitInfo,
			CommandBuffer: vk.Handle(h.VkHandle()),
		}
	}
	waitInfos := toSemaphoreSubmitInfos(submit.Waits)
	signalInfos := toSemaphoreSubmitInfos(submit.Signals)

	s := vk.SubmitInfo2{SType: vk.StructureTypeSubmitInfo2}
	if len(waitInfos) > 0 {
		s.WaitSemaphoreInfoCount = uint32(len(waitInfos))
		s.PWaitSemaphoreInfos = ptrOf(&waitInfos[0])
	}
	if len(cmdInfos) > 0 {
		s.CommandBufferInfoCount = uint32(len(cmdInfos))
		s.PCommandBufferInfos = ptrOf(&cmdInfos[0])
	}
	if len(signalInfos) > 0 {
		s.SignalSemaphoreInfoCount = uint32(len(signalInfos))
		s.PSignalSemaphoreInfos = ptrOf(&signalInfos[0])
	}

	res := d.cmds.QueueSubmit2(queue, []vk.SubmitInfo2{s}, vk.Handle(submit.Fence))
	if res != vk.Success {
		return fmt.Errorf("vkdevice: vkQueueSubmit2 failed: %d", res)
	}
	return nil
}

func (d *Device) QueuePresentKHR(familyIndex uint32, swapchain uintptr, imageIndex uint32, waits []hal.Semaphore) (hal.PresentResult, error) {
	queue, ok := d.queues[familyIndex]
	if !ok {
		return hal.PresentOK, fmt.Errorf("vkdevice: no queue registered for family %d", familyIndex)
	}
	sc := vk.Handle(swapchain)
	idx := imageIndex
	sems := make([]vk.Handle, len(waits))
	for i, w := range waits {
		sems[i] = vk.Handle(w)
	}
	info := &vk.PresentInfoKHR{
		SType:          vk.StructureTypePresentInfoKHR,
		SwapchainCount: 1,
		PSwapchains:    ptrOf(&sc),
		PImageIndices:  ptrOf(&idx),
	}
	if len(sems) > 0 {
		info.WaitSemaphoreCount = uint32(len(sems))
		info.PWaitSemaphores = ptrOf(&sems[0])
	}
	res := d.cmds.QueuePresentKHR(queue, info)
	switch res {
	case vk.Success:
		return hal.PresentOK, nil
	case vk.SuboptimalKHR:
		return hal.PresentSuboptimal, nil
	case vk.ErrorOutOfDateKHR:
		return hal.PresentOutOfDate, nil
	default:
		return hal.PresentOK, fmt.Errorf("vkdevice: vkQueuePresentKHR failed: %d", res)
	}
}

func (d *Device) AcquireNextImageKHR(swapchain uintptr, timeoutNs uint64, signal hal.Semaphore) (uint32, hal.PresentResult, error) {
	idx, res := d.cmds.AcquireNextImageKHR(vk.Handle(swapchain), timeoutNs, vk.Handle(signal), 0)
	switch res {
	case vk.Success:
		return idx, hal.PresentOK, nil
	case vk.SuboptimalKHR:
		return idx, hal.PresentSuboptimal, nil
	case vk.ErrorOutOfDateKHR:
		return idx, hal.PresentOutOfDate, nil
	default:
		return 0, hal.PresentOK, fmt.Errorf("vkdevice: vkAcquireNextImageKHR failed: %d", res)
	}
}

func (d *Device) QueueFamilyStageMask(familyIndex uint32) hal.PipelineStage {
	return d.families[familyIndex]
}

func (d *Device) CreateCommandPool(familyIndex uint32, usage hal.CommandPoolUsage) (hal.CommandPool, error) {
	flags := vk.CommandPoolCreateResetCommandBuffer
	if usage == hal.UsageSingleShot {
		flags = vk.CommandPoolCreateTransient
	}
	info := &vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		Flags:            flags,
		QueueFamilyIndex: familyIndex,
	}
	h, res := d.cmds.CreateCommandPool(info)
	if res != vk.Success {
		return 0, fmt.Errorf("vkdevice: vkCreateCommandPool failed: %d", res)
	}
	return hal.CommandPool(h), nil
}

func (d *Device) DestroyCommandPool(pool hal.CommandPool) {
	d.cmds.DestroyCommandPool(vk.Handle(pool))
}

func (d *Device) ResetCommandPool(pool hal.CommandPool) error {
	if res := d.cmds.ResetCommandPool(vk.Handle(pool), 0); res != vk.Success {
		return fmt.Errorf("vkdevice: vkResetCommandPool failed: %d", res)
	}
	return nil
}

func (d *Device) AllocateCommandBuffer(pool hal.CommandPool) (hal.CommandBuffer, error) {
	h, res := d.cmds.AllocateCommandBuffers(vk.Handle(pool))
	if res != vk.Success {
		return nil, fmt.Errorf("vkdevice: vkAllocateCommandBuffers failed: %d", res)
	}
	return &commandBuffer{cmds: d.cmds, handle: h}, nil
}

func (d *Device) BeginCommandBuffer(cb hal.CommandBuffer) error {
	buf, ok := cb.(*commandBuffer)
	if !ok {
		return fmt.Errorf("vkdevice: BeginCommandBuffer: not a vkdevice command buffer")
	}
	info := &vk.CommandBufferBeginInfo{SType: vk.StructureTypeCommandBufferBeginInfo}
	if res := d.cmds.BeginCommandBuffer(buf.handle, info); res != vk.Success {
		return fmt.Errorf("vkdevice: vkBeginCommandBuffer failed: %d", res)
	}
	return nil
}

func (d *Device) EndCommandBuffer(cb hal.CommandBuffer) error {
	buf, ok := cb.(*commandBuffer)
	if !ok {
		return fmt.Errorf("vkdevice: EndCommandBuffer: not a vkdevice command buffer")
	}
	if res := d.cmds.EndCommandBuffer(buf.handle); res != vk.Success {
		return fmt.Errorf("vkdevice: vkEndCommandBuffer failed: %d", res)
	}
	return nil
}

// commandBuffer is vkdevice's concrete hal.CommandBuffer. layout is left
// zero: the render-graph runtime only ever pushes constants through a
// caller-established pipeline layout it does not itself own (pipeline
// creation is out of scope, spec.md §1 Non-goals), so callers that need a
// specific layout wrap this type or pass it through a job's closure.
type commandBuffer struct {
	cmds   *vk.Commands
	handle vk.Handle
	layout vk.Handle
}

func (c *commandBuffer) PushConstants(stage hal.PipelineStage, offset uint32, data []byte) {
	c.cmds.CmdPushConstants(c.handle, c.layout, uint32(stage), offset, uint32(len(data)), data)
}

// VkHandle exposes the raw VkCommandBuffer handle for QueueSubmit2.
func (c *commandBuffer) VkHandle() uint64 {
	return uint64(c.handle)
}

func toSemaphoreSubmitInfos(entries []hal.SemaphoreSubmitInfo) []vk.SemaphoreSubmitInfo {
	out := make([]vk.SemaphoreSubmitInfo, len(entries))
	for i, e := range entries {
		out[i] = vk.SemaphoreSubmitInfo{
			SType:     vk.StructureTypeSemaphoreSubmitInfo,
			Semaphore: vk.Handle(e.Semaphore),
			Value:     e.Value,
			StageMask: vk.PipelineStageFlags2(e.Stage),
		}
	}
	return out
}

var _ hal.Dispatch = (*Device)(nil)

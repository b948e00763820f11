// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package vkdevice implements hal.Dispatch against a real Vulkan device,
// restricted to the timeline-semaphore path (Vulkan 1.2+ or
// VK_KHR_timeline_semaphore + VK_KHR_synchronization2). It does not manage
// instance/physical-device/queue creation or swapchain/surface setup —
// those remain the window-system glue spec.md §6 calls out as external.
package vkdevice

// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package vk provides the minimal Pure Go Vulkan bindings the render-graph
// runtime's device dispatch needs: fences, binary/timeline semaphores,
// vkQueueSubmit2, vkQueuePresentKHR, vkAcquireNextImageKHR, and the handful
// of object-creation entry points named in spec.md §6. It is deliberately
// not a general-purpose Vulkan binding — see hal/vkdevice/device.go for the
// hal.Dispatch adapter built on top of it.
//
// Calls go through goffi (github.com/go-webgpu/goffi), which loads the
// Vulkan loader library and resolves function pointers dynamically so the
// module builds without cgo on every platform goffi supports.
package vk

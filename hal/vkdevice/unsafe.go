// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package vkdevice

import "unsafe"

// ptrOf returns v's address as a uintptr for embedding in a Vulkan struct's
// PNext/P* fields. Mirrors the teacher's ptrFromUintptr double-indirection
// pattern (hal/vulkan/unsafe.go) used to keep go vet happy about
// unsafe.Pointer<->uintptr conversions at FFI boundaries.
func ptrOf[T any](v *T) uintptr {
	return uintptr(unsafe.Pointer(v))
}

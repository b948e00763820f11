// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package vk

import "golang.org/x/sys/windows"

// vulkanLibraryCandidates returns the loader's search order for the
// Vulkan runtime DLL on Windows: the system directory path first (the
// loader Windows itself resolves "vulkan-1.dll" from when it ships in
// the driver package), falling back to the bare name for the default
// DLL search path.
func vulkanLibraryCandidates() []string {
	candidates := make([]string, 0, 2)
	if sysDir, err := windows.GetSystemDirectory(); err == nil {
		candidates = append(candidates, sysDir+`\vulkan-1.dll`)
	}
	candidates = append(candidates, "vulkan-1.dll")
	return candidates
}

// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

//go:build !windows

package vk

import (
	"runtime"

	"golang.org/x/sys/unix"
)

// vulkanLibraryCandidates returns the loader's search order for the
// Vulkan loader library on POSIX platforms: every well-known install
// path that unix.Access reports as present, in search-path order,
// followed by the bare soname/dylib name for the dynamic linker's own
// default search path.
func vulkanLibraryCandidates() []string {
	var known []string
	var bare string
	switch runtime.GOOS {
	case "darwin":
		bare = "libvulkan.dylib"
		known = []string{
			"/usr/local/lib/libvulkan.dylib",
			"/opt/homebrew/lib/libvulkan.dylib",
		}
	default:
		bare = "libvulkan.so.1"
		known = []string{
			"/usr/lib/x86_64-linux-gnu/libvulkan.so.1",
			"/usr/lib/libvulkan.so.1",
			"/usr/lib64/libvulkan.so.1",
		}
	}

	candidates := make([]string, 0, len(known)+1)
	for _, path := range known {
		if unix.Access(path, unix.R_OK) == nil {
			candidates = append(candidates, path)
		}
	}
	candidates = append(candidates, bare)
	return candidates
}

// Package hal declares the narrow logical-device dispatch contract the
// render-graph runtime consumes (component A, §6 of the design). It does
// not implement a graphics API itself: concrete dispatch tables live in
// sibling packages such as hal/vkdevice (a real Vulkan 1.2+ timeline-
// semaphore backed implementation) and hal/vknoop (an in-memory fake used
// by unit tests).
//
// # Design Principles
//
// Dispatch is intentionally tiny: it covers only the entry points the
// render-graph scheduler needs to turn a Link into GPU-visible
// synchronization and to submit/present work. Resource creation, shader
// compilation, and texture/buffer management are out of scope (see
// spec.md §1 Non-goals) and are reached through the narrow interfaces the
// Data-Transfer Scheduler and Command Context declare for themselves.
//
// # Thread Safety
//
// Dispatch implementations must be safe for concurrent use from multiple
// goroutines: the taskflow builder may invoke Dispatch methods from
// several node tasks running in parallel within one frame slot.
package hal

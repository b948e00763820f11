// Package engine implements the Parallel Render Engine (component L of
// spec.md §4) and the Image-Acquire/Present CPU tasks that bracket every
// swapchain frame (component M).
package engine

import (
	"fmt"

	"github.com/gogpu/rendergraph/graph"
	"github.com/gogpu/rendergraph/hal"
	"github.com/gogpu/rendergraph/internal/telemetry"
	"github.com/gogpu/rendergraph/job"
	"github.com/gogpu/rendergraph/submit"
	syncpkg "github.com/gogpu/rendergraph/sync"
)

var topic = telemetry.NewTopic("engine")

// Well-known semaphore names (spec.md §6): image-available is signaled by
// Image-Acquire and waited on by the render node it feeds; render-finished
// is signaled by the terminal render node and waited on by Present.
const (
	SemaphoreImageAvailable = "image-available"
	SemaphoreRenderFinished = "render-finished"
)

// SwapchainRebuilder is the window-system hook Present calls when a
// present reports OUT_OF_DATE_KHR or SUBOPTIMAL_KHR (spec.md §4.M, §6:
// "a window system hook delivering resize events to trigger swapchain
// rebuild").
type SwapchainRebuilder interface {
	RebuildSwapchain(swapchain uintptr) error
}

// NewImageAcquireJob builds the job.Fn for a graph's Image-Acquire node
// (spec.md §4.M step 1): it acquires the next image from swapchain,
// signaling primitives' registered image-available semaphore, and writes
// the chosen index into the slot's ExecutionContext. dispatch is captured
// at construction time rather than threaded through job.Fn, since the
// dispatch table is a stable, engine-wide value (spec.md §9: replace
// back-pointers with explicit values passed at construction, not
// singletons reached for at call time).
func NewImageAcquireJob(dispatch hal.Dispatch, primitives *syncpkg.Primitives, swapchain uintptr) job.Fn {
	return func(ctx *job.ExecutionContext, _ *syncpkg.Operations, _ *submit.Tracker) error {
		sem, err := primitives.GetSemaphore(SemaphoreImageAvailable)
		if err != nil {
			return fmt.Errorf("engine: image-acquire: %w", err)
		}
		imageIndex, result, err := dispatch.AcquireNextImageKHR(swapchain, 0, sem)
		if err != nil {
			return fmt.Errorf("engine: image-acquire: %w", err)
		}
		if result == hal.PresentOutOfDate || result == hal.PresentSuboptimal {
			topic.Warn("swapchain reported stale on acquire", "swapchain", swapchain, "result", result)
		}
		ctx.SetRenderTarget(imageIndex)
		return nil
	}
}

// NewPresentJob builds the job.Fn for a graph's Present node (spec.md
// §4.M step 2): it reads the render-target index chosen by Image-Acquire,
// presents it waiting on ops' resolved semaphores (the consumer side of
// every incoming CpuAsync link), and on a recoverable present error
// requests a swapchain rebuild and skips the frame rather than failing it.
func NewPresentJob(dispatch hal.Dispatch, familyIndex uint32, swapchain uintptr, rebuilder SwapchainRebuilder) job.Fn {
	return func(ctx *job.ExecutionContext, ops *syncpkg.Operations, _ *submit.Tracker) error {
		imageIndex, ok := ctx.RenderTarget()
		if !ok {
			return fmt.Errorf("engine: present: no render target selected this frame")
		}

		waits := make([]hal.Semaphore, 0, len(ops.Waits()))
		for _, w := range ops.Waits() {
			waits = append(waits, w.Semaphore)
		}

		result, err := dispatch.QueuePresentKHR(familyIndex, swapchain, imageIndex, waits)
		if err != nil {
			return fmt.Errorf("engine: present: %w", err)
		}

		switch result {
		case hal.PresentOutOfDate, hal.PresentSuboptimal:
			topic.Warn("present reported stale swapchain, requesting rebuild", "swapchain", swapchain, "result", result)
			if rebuilder != nil {
				if rebErr := rebuilder.RebuildSwapchain(swapchain); rebErr != nil {
					topic.Error("swapchain rebuild failed", "swapchain", swapchain, "error", rebErr)
				}
			}
			return nil
		}

		ctx.MarkDrawRecorded()
		return nil
	}
}

// BuildSwapchainGraph wires the minimal present-loop skeleton spec.md §8
// scenario S1 describes: acquireName (Cpu) -CpuSync-> renderName (Render,
// renderTask) -CpuAsync-> presentName (Present), plus a CpuSync link
// acquireName -> presentName that carries no sync operations and only
// orders present after acquire within a frame. primitives must already
// be bound to the device whose dispatch table dispatch implements; it is
// used to register the well-known image-available/render-finished binary
// semaphores and is shared by every in-flight slot built from the
// returned graph (the same simplification taskflow.Build already makes
// for a link's owned sync.Object, see DESIGN.md).
func BuildSwapchainGraph(
	dispatch hal.Dispatch,
	primitives *syncpkg.Primitives,
	swapchain uintptr,
	renderFamily uint32,
	acquireName, renderName, presentName string,
	renderTask job.Fn,
	trackRender bool,
	rebuilder SwapchainRebuilder,
) (*graph.Graph, error) {
	if !primitives.HasSemaphore(SemaphoreImageAvailable) {
		if err := primitives.CreateBinarySemaphore(SemaphoreImageAvailable); err != nil {
			return nil, fmt.Errorf("engine: build swapchain graph: %w", err)
		}
	}
	if !primitives.HasSemaphore(SemaphoreRenderFinished) {
		if err := primitives.CreateBinarySemaphore(SemaphoreRenderFinished); err != nil {
			return nil, fmt.Errorf("engine: build swapchain graph: %w", err)
		}
	}
	imageAvailable, err := primitives.GetSemaphore(SemaphoreImageAvailable)
	if err != nil {
		return nil, fmt.Errorf("engine: build swapchain graph: %w", err)
	}
	renderFinished, err := primitives.GetSemaphore(SemaphoreRenderFinished)
	if err != nil {
		return nil, fmt.Errorf("engine: build swapchain graph: %w", err)
	}

	g := graph.New("swapchain-frame")

	if err := g.AddCpuNode(acquireName, NewImageAcquireJob(dispatch, primitives, swapchain)); err != nil {
		return nil, fmt.Errorf("engine: build swapchain graph: %w", err)
	}
	if err := g.AddRenderNode(renderName, nil, renderTask, trackRender); err != nil {
		return nil, fmt.Errorf("engine: build swapchain graph: %w", err)
	}
	if err := g.AddPresentNode(presentName, nil, swapchain, NewPresentJob(dispatch, renderFamily, swapchain, rebuilder)); err != nil {
		return nil, fmt.Errorf("engine: build swapchain graph: %w", err)
	}

	acquireToRender, err := g.AddCpuSyncLink(acquireName, renderName, primitives)
	if err != nil {
		return nil, fmt.Errorf("engine: build swapchain graph: %w", err)
	}
	acquireToRender.Sync().Group(syncpkg.Internal).AddWait(imageAvailable, hal.StageColorAttachmentOut)

	renderToPresent, err := g.AddCpuAsyncLink(renderName, presentName, primitives)
	if err != nil {
		return nil, fmt.Errorf("engine: build swapchain graph: %w", err)
	}
	renderToPresent.Sync().Group(syncpkg.External).AddSignal(renderFinished, hal.StageColorAttachmentOut)
	renderToPresent.Sync().Group(syncpkg.Internal).AddWait(renderFinished, hal.StageBottomOfPipe)

	// Present reads the render-target index acquire writes this frame, and
	// the CpuAsync link above gives no CPU ordering; this link does.
	if _, err := g.AddCpuSyncLink(acquireName, presentName, primitives); err != nil {
		return nil, fmt.Errorf("engine: build swapchain graph: %w", err)
	}

	if err := g.ApplyChanges(); err != nil {
		return nil, fmt.Errorf("engine: build swapchain graph: %w", err)
	}
	return g, nil
}

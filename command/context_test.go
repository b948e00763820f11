package command

import (
	"testing"

	"github.com/gogpu/rendergraph/hal"
	"github.com/gogpu/rendergraph/hal/vknoop"
	"github.com/gogpu/rendergraph/queue"
)

func TestReusableCreateAndSubmit(t *testing.T) {
	dev := vknoop.New()
	dev.Families = map[uint32]hal.PipelineStage{0: hal.StageAllGraphics}

	balancer, err := queue.NewLoadBalancer(0, []uint32{0}, hal.StageAllGraphics)
	if err != nil {
		t.Fatalf("NewLoadBalancer: %v", err)
	}
	ctx, err := NewReusable(dev, 0, balancer)
	if err != nil {
		t.Fatalf("NewReusable: %v", err)
	}
	defer ctx.Destroy(dev)

	if !ctx.IsPipelineStageSupported(hal.StageAllGraphics) {
		t.Fatalf("expected StageAllGraphics supported")
	}
	if ctx.QueueFamilyIndex() != 0 {
		t.Fatalf("expected family 0")
	}

	cb, err := ctx.CreateCommandBuffer(dev)
	if err != nil {
		t.Fatalf("CreateCommandBuffer: %v", err)
	}

	if err := ctx.QueueSubmit(dev, hal.SubmitInfo{CommandBuffers: []hal.CommandBuffer{cb}}); err != nil {
		t.Fatalf("QueueSubmit: %v", err)
	}
	if len(dev.Submits) != 1 {
		t.Fatalf("expected 1 submission, got %d", len(dev.Submits))
	}

	if err := ctx.Reset(dev); err != nil {
		t.Fatalf("Reset: %v", err)
	}
}

func TestSingleShotLifecycle(t *testing.T) {
	dev := vknoop.New()
	dev.Families = map[uint32]hal.PipelineStage{1: hal.StageTransfer}

	balancer, _ := queue.NewLoadBalancer(1, []uint32{0}, hal.StageTransfer)
	ctx := NewSingleShot(dev, 1, balancer)
	defer ctx.Destroy(dev)

	cb, err := ctx.CreateCommandBuffer(dev)
	if err != nil {
		t.Fatalf("CreateCommandBuffer: %v", err)
	}
	if err := ctx.QueueSubmit(dev, hal.SubmitInfo{CommandBuffers: []hal.CommandBuffer{cb}}); err != nil {
		t.Fatalf("QueueSubmit: %v", err)
	}

	reclaimed := false
	ctx.ReclaimCompleted(dev, func(hal.CommandPool) bool {
		reclaimed = true
		return true
	})
	if !reclaimed {
		t.Fatalf("expected ReclaimCompleted to inspect a pool")
	}
	if len(ctx.pools) != 0 {
		t.Fatalf("expected all pools reclaimed, got %d remaining", len(ctx.pools))
	}
}

func TestIsPipelineStageSupportedFalseForUnsupportedStage(t *testing.T) {
	dev := vknoop.New()
	dev.Families = map[uint32]hal.PipelineStage{2: hal.StageTransfer}

	balancer, _ := queue.NewLoadBalancer(2, []uint32{0}, hal.StageTransfer)
	ctx := NewSingleShot(dev, 2, balancer)
	if ctx.IsPipelineStageSupported(hal.StageColorAttachmentOut) {
		t.Fatalf("a transfer-only family should not support color attachment output")
	}
}

package submit

import (
	"testing"

	"github.com/gogpu/rendergraph/command"
	"github.com/gogpu/rendergraph/hal"
	"github.com/gogpu/rendergraph/hal/vknoop"
	"github.com/gogpu/rendergraph/queue"
)

func TestTrackerEmptyIsComplete(t *testing.T) {
	dev := vknoop.New()
	tr := New()

	complete, err := tr.IsComplete(dev)
	if err != nil {
		t.Fatalf("IsComplete: %v", err)
	}
	if !complete {
		t.Fatalf("expected an empty tracker to report complete")
	}
}

func TestTrackerWaitAndQuery(t *testing.T) {
	dev := vknoop.New()
	tr := New()

	f1, _ := dev.CreateFence()
	f2, _ := dev.CreateFence()
	tr.Track(f1)
	tr.Track(f2)

	if tr.Len() != 2 {
		t.Fatalf("expected 2 tracked fences, got %d", tr.Len())
	}

	n, err := tr.QueryNumOfSuccess(dev)
	if err != nil {
		t.Fatalf("QueryNumOfSuccess: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected 0 signaled before wait, got %d", n)
	}

	if err := tr.Wait(dev, 0); err != nil {
		t.Fatalf("Wait: %v", err)
	}

	complete, err := tr.IsComplete(dev)
	if err != nil {
		t.Fatalf("IsComplete: %v", err)
	}
	if !complete {
		t.Fatalf("expected complete after vknoop Wait (which signals synchronously)")
	}
}

func TestTrackerClear(t *testing.T) {
	dev := vknoop.New()
	tr := New()
	f, _ := dev.CreateFence()
	tr.Track(f)

	if err := tr.Clear(dev); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if tr.Len() != 0 {
		t.Fatalf("expected 0 fences after Clear, got %d", tr.Len())
	}
}

func TestTrackerQueueSubmitTracksFence(t *testing.T) {
	dev := vknoop.New()
	dev.Families = map[uint32]hal.PipelineStage{0: hal.StageAllGraphics}

	balancer, _ := queue.NewLoadBalancer(0, []uint32{0}, hal.StageAllGraphics)
	ctx, err := command.NewReusable(dev, 0, balancer)
	if err != nil {
		t.Fatalf("NewReusable: %v", err)
	}
	defer ctx.Destroy(dev)

	tr := New()
	if err := tr.QueueSubmit(dev, ctx, hal.SubmitInfo{}); err != nil {
		t.Fatalf("QueueSubmit: %v", err)
	}
	if tr.Len() != 1 {
		t.Fatalf("expected 1 tracked fence, got %d", tr.Len())
	}
	complete, err := tr.IsComplete(dev)
	if err != nil {
		t.Fatalf("IsComplete: %v", err)
	}
	if !complete {
		t.Fatalf("expected the fence signaled by vknoop's synchronous submit to be complete")
	}
}

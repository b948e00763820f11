package taskflow

import (
	"sync"
	"testing"

	"github.com/gogpu/rendergraph/feedback"
	"github.com/gogpu/rendergraph/graph"
	"github.com/gogpu/rendergraph/hal/vknoop"
	"github.com/gogpu/rendergraph/job"
	"github.com/gogpu/rendergraph/submit"
	syncpkg "github.com/gogpu/rendergraph/sync"
)

func noopTask(*job.ExecutionContext, *syncpkg.Operations, *submit.Tracker) error { return nil }

func TestBuildRejectsNonCpuRoot(t *testing.T) {
	g := graph.New("frame")
	if err := g.AddEmptyNode("root"); err != nil {
		t.Fatalf("AddEmptyNode: %v", err)
	}
	if err := g.ApplyChanges(); err != nil {
		t.Fatalf("ApplyChanges: %v", err)
	}

	if _, err := Build(g, job.NewExecutionContext(), nil, "slot-0"); err == nil {
		t.Fatalf("expected Build to reject a non-Cpu root node")
	}
}

func TestBuildRejectsNonPresentLeaf(t *testing.T) {
	g := graph.New("frame")
	if err := g.AddCpuNode("acquire", noopTask); err != nil {
		t.Fatalf("AddCpuNode: %v", err)
	}
	if err := g.ApplyChanges(); err != nil {
		t.Fatalf("ApplyChanges: %v", err)
	}

	if _, err := Build(g, job.NewExecutionContext(), nil, "slot-0"); err == nil {
		t.Fatalf("expected Build to reject a non-Present leaf node")
	}
}

func TestRunHonorsCpuSyncOrdering(t *testing.T) {
	dev := vknoop.New()

	var mu sync.Mutex
	var order []string
	record := func(name string) job.Fn {
		return func(*job.ExecutionContext, *syncpkg.Operations, *submit.Tracker) error {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
			return nil
		}
	}

	g := graph.New("frame")
	if err := g.AddCpuNode("acquire", record("acquire")); err != nil {
		t.Fatalf("AddCpuNode acquire: %v", err)
	}
	if err := g.AddCpuNode("middle", record("middle")); err != nil {
		t.Fatalf("AddCpuNode middle: %v", err)
	}
	if err := g.AddPresentNode("present", nil, 0, record("present")); err != nil {
		t.Fatalf("AddPresentNode: %v", err)
	}
	if _, err := g.AddCpuSyncLink("acquire", "middle", nil); err != nil {
		t.Fatalf("link acquire->middle: %v", err)
	}
	if _, err := g.AddCpuSyncLink("middle", "present", nil); err != nil {
		t.Fatalf("link middle->present: %v", err)
	}
	if err := g.ApplyChanges(); err != nil {
		t.Fatalf("ApplyChanges: %v", err)
	}

	tf, err := Build(g, job.NewExecutionContext(), feedback.New(), "slot-0")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if err := tf.Run(dev); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(order) != 3 || order[0] != "acquire" || order[1] != "middle" || order[2] != "present" {
		t.Fatalf("expected CpuSync order acquire, middle, present; got %v", order)
	}
}

func TestRunStepsLinkTimelineOncePerFrame(t *testing.T) {
	dev := vknoop.New()

	primitives, err := syncpkg.NewPrimitives(dev, false)
	if err != nil {
		t.Fatalf("NewPrimitives: %v", err)
	}
	if err := primitives.CreateTimelineSemaphore("render-finished", 0, 1); err != nil {
		t.Fatalf("CreateTimelineSemaphore: %v", err)
	}

	g := graph.New("frame")
	if err := g.AddCpuNode("acquire", noopTask); err != nil {
		t.Fatalf("AddCpuNode: %v", err)
	}
	if err := g.AddPresentNode("present", nil, 0, noopTask); err != nil {
		t.Fatalf("AddPresentNode: %v", err)
	}
	if _, err := g.AddCpuSyncLink("acquire", "present", primitives); err != nil {
		t.Fatalf("link: %v", err)
	}
	if err := g.ApplyChanges(); err != nil {
		t.Fatalf("ApplyChanges: %v", err)
	}

	tf, err := Build(g, job.NewExecutionContext(), nil, "slot-0")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if err := tf.Run(dev); err != nil {
		t.Fatalf("Run: %v", err)
	}
	offset, err := primitives.GetTimelineOffset("render-finished")
	if err != nil {
		t.Fatalf("GetTimelineOffset: %v", err)
	}
	if offset != 1 {
		t.Fatalf("expected the timeline stepped exactly once, offset=%d", offset)
	}
}

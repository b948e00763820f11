package graph

import (
	"testing"

	"github.com/gogpu/rendergraph/job"
	"github.com/gogpu/rendergraph/submit"
	syncpkg "github.com/gogpu/rendergraph/sync"
)

func noopTask(*job.ExecutionContext, *syncpkg.Operations, *submit.Tracker) error { return nil }

func TestAddNodeDuplicateNameRejected(t *testing.T) {
	g := New("frame")
	if err := g.AddCpuNode("acquire", noopTask); err != nil {
		t.Fatalf("AddCpuNode: %v", err)
	}
	if err := g.AddCpuNode("acquire", noopTask); err == nil {
		t.Fatalf("expected duplicate node name to be rejected before ApplyChanges")
	}
}

func TestAddEdgeUnknownEndpointRejected(t *testing.T) {
	g := New("frame")
	if err := g.AddCpuNode("acquire", noopTask); err != nil {
		t.Fatalf("AddCpuNode: %v", err)
	}
	if _, err := g.AddCpuSyncLink("acquire", "missing", nil); err == nil {
		t.Fatalf("expected edge to an unknown node to be rejected")
	}
}

func TestApplyChangesBuildsLiveGraph(t *testing.T) {
	g := New("frame")
	mustAdd(t, g.AddCpuNode("acquire", noopTask))
	mustAdd(t, g.AddCpuNode("present", noopTask))
	if _, err := g.AddCpuSyncLink("acquire", "present", nil); err != nil {
		t.Fatalf("AddCpuSyncLink: %v", err)
	}

	if _, ok := g.FindNode("acquire"); ok {
		t.Fatalf("node should not be live before ApplyChanges")
	}

	if err := g.ApplyChanges(); err != nil {
		t.Fatalf("ApplyChanges: %v", err)
	}

	if _, ok := g.FindNode("acquire"); !ok {
		t.Fatalf("expected acquire to be live after ApplyChanges")
	}
	succs, err := g.FindSuccessors("acquire", CpuSync, false)
	if err != nil {
		t.Fatalf("FindSuccessors: %v", err)
	}
	if len(succs) != 1 || succs[0].Name() != "present" {
		t.Fatalf("expected acquire->present, got %v", succs)
	}
}

func TestApplyChangesIsIdempotentWhenEmpty(t *testing.T) {
	g := New("frame")
	mustAdd(t, g.AddCpuNode("acquire", noopTask))
	if err := g.ApplyChanges(); err != nil {
		t.Fatalf("first ApplyChanges: %v", err)
	}
	if err := g.ApplyChanges(); err != nil {
		t.Fatalf("second ApplyChanges: %v", err)
	}
	if _, ok := g.FindNode("acquire"); !ok {
		t.Fatalf("expected acquire to remain live")
	}
}

func TestRemoveNodeDropsIncidentEdges(t *testing.T) {
	g := New("frame")
	mustAdd(t, g.AddCpuNode("a", noopTask))
	mustAdd(t, g.AddCpuNode("b", noopTask))
	if _, err := g.AddCpuSyncLink("a", "b", nil); err != nil {
		t.Fatalf("AddCpuSyncLink: %v", err)
	}
	if err := g.ApplyChanges(); err != nil {
		t.Fatalf("ApplyChanges: %v", err)
	}

	if err := g.RemoveNode("a"); err != nil {
		t.Fatalf("RemoveNode: %v", err)
	}
	if err := g.ApplyChanges(); err != nil {
		t.Fatalf("ApplyChanges: %v", err)
	}

	bNode, ok := g.FindNode("b")
	if !ok {
		t.Fatalf("expected b to remain live")
	}
	if len(bNode.InLinks()) != 0 {
		t.Fatalf("expected b's incoming edge to be dropped with a, got %d", len(bNode.InLinks()))
	}
}

func TestFindPredecessorsAllTransitive(t *testing.T) {
	g := New("frame")
	mustAdd(t, g.AddCpuNode("a", noopTask))
	mustAdd(t, g.AddCpuNode("b", noopTask))
	mustAdd(t, g.AddCpuNode("c", noopTask))
	if _, err := g.AddCpuSyncLink("a", "b", nil); err != nil {
		t.Fatalf("link a->b: %v", err)
	}
	if _, err := g.AddCpuSyncLink("b", "c", nil); err != nil {
		t.Fatalf("link b->c: %v", err)
	}
	if err := g.ApplyChanges(); err != nil {
		t.Fatalf("ApplyChanges: %v", err)
	}

	preds, err := g.FindPredecessorsAll("c", CpuSync, false)
	if err != nil {
		t.Fatalf("FindPredecessorsAll: %v", err)
	}
	if len(preds) != 2 {
		t.Fatalf("expected 2 transitive predecessors of c, got %d", len(preds))
	}
}

func TestResetDetachesLiveGraph(t *testing.T) {
	g := New("frame-1")
	mustAdd(t, g.AddCpuNode("acquire", noopTask))
	if err := g.ApplyChanges(); err != nil {
		t.Fatalf("ApplyChanges: %v", err)
	}

	old := g.Reset("frame-2")
	if old.Name() != "frame-1" {
		t.Fatalf("expected old graph name frame-1, got %q", old.Name())
	}
	if _, ok := old.FindNode("acquire"); !ok {
		t.Fatalf("expected old graph to retain its nodes")
	}
	if _, ok := g.FindNode("acquire"); ok {
		t.Fatalf("expected reset graph to start empty")
	}
	if g.Name() != "frame-2" {
		t.Fatalf("expected renamed graph, got %q", g.Name())
	}
}

func TestMultipleEdgesBetweenSamePairCoexist(t *testing.T) {
	g := New("frame")
	mustAdd(t, g.AddCpuNode("a", noopTask))
	mustAdd(t, g.AddCpuNode("b", noopTask))
	if _, err := g.AddCpuSyncLink("a", "b", nil); err != nil {
		t.Fatalf("link 1: %v", err)
	}
	if _, err := g.AddCpuAsyncLink("a", "b", nil); err != nil {
		t.Fatalf("link 2: %v", err)
	}
	if err := g.ApplyChanges(); err != nil {
		t.Fatalf("ApplyChanges: %v", err)
	}

	edges, err := g.FindEdgesFrom("a", CpuSync, true)
	if err != nil {
		t.Fatalf("FindEdgesFrom: %v", err)
	}
	if len(edges) != 2 {
		t.Fatalf("expected both edges to coexist, got %d", len(edges))
	}
}

func TestAcceptVisitsEveryLiveNode(t *testing.T) {
	g := New("frame")
	mustAdd(t, g.AddCpuNode("a", noopTask))
	mustAdd(t, g.AddCpuNode("b", noopTask))
	if err := g.ApplyChanges(); err != nil {
		t.Fatalf("ApplyChanges: %v", err)
	}

	seen := map[string]bool{}
	err := g.Accept(func(n *Node) error {
		seen[n.Name()] = true
		return nil
	})
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if !seen["a"] || !seen["b"] {
		t.Fatalf("expected Accept to visit both nodes, got %v", seen)
	}
}

func mustAdd(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
}

// Package taskflow implements the Taskflow Builder (component K of
// spec.md §4, "the heart"): it turns a frozen graph.Graph and a per-slot
// job.ExecutionContext into a runnable task DAG whose edges honor each
// graph link's type, and resolves each node's sync.Operations from its
// incident links before invoking the node's Job.
//
// Grounded on the teacher's internal/thread goroutine+channel dispatch
// idiom (no third-party DAG/task-graph library appears anywhere in the
// example pack) generalized from a single render thread's future/promise
// pump into a per-node dependency graph.
package taskflow

import (
	"fmt"
	"sync"

	"github.com/gogpu/rendergraph/feedback"
	"github.com/gogpu/rendergraph/graph"
	"github.com/gogpu/rendergraph/hal"
	"github.com/gogpu/rendergraph/internal/telemetry"
	"github.com/gogpu/rendergraph/job"
	syncpkg "github.com/gogpu/rendergraph/sync"
)

var topic = telemetry.NewTopic("taskflow")

type task struct {
	node *graph.Node
	deps []*task // CpuSync predecessors, same-frame happens-before edges

	done chan struct{}
	err  error
}

// Taskflow is a runnable task DAG materialized from one frozen graph.Graph
// for one in-flight slot's job.ExecutionContext. Built once by Build and
// re-run every frame by Run.
type Taskflow struct {
	g       *graph.Graph
	execCtx *job.ExecutionContext
	fb      *feedback.Service
	slotKey string

	tasks []*task
}

// Build validates the frozen graph's shape (every root is a Cpu node,
// every leaf is a Present node, per spec.md §4.K step 4) and wires a
// CpuSync dependency edge for every CpuSync link. fb and slotKey may be
// used to report per-node submission status after each Run; slotKey
// typically names the in-flight slot this Taskflow belongs to.
func Build(g *graph.Graph, execCtx *job.ExecutionContext, fb *feedback.Service, slotKey string) (*Taskflow, error) {
	tasksByIndex := make(map[graph.NodeIndex]*task)

	err := g.Accept(func(n *graph.Node) error {
		if len(n.InLinks()) == 0 && n.Kind() != graph.Cpu {
			return fmt.Errorf("taskflow: root node %q must be a Cpu node (image-acquire), got %s", n.Name(), n.Kind())
		}
		if len(n.OutLinks()) == 0 && n.Kind() != graph.Present {
			return fmt.Errorf("taskflow: leaf node %q must be a Present node, got %s", n.Name(), n.Kind())
		}
		tasksByIndex[n.Index()] = &task{node: n}
		return nil
	})
	if err != nil {
		return nil, err
	}

	tf := &Taskflow{g: g, execCtx: execCtx, fb: fb, slotKey: slotKey}
	for _, t := range tasksByIndex {
		tf.tasks = append(tf.tasks, t)
	}

	for _, t := range tf.tasks {
		edges, err := g.FindEdgesTo(t.node.Name(), graph.CpuSync, false)
		if err != nil {
			return nil, err
		}
		for _, e := range edges {
			from, ok := tasksByIndex[e.From()]
			if !ok {
				return nil, fmt.Errorf("taskflow: edge %q references an unbuilt node", e.Name())
			}
			t.deps = append(t.deps, from)
		}
	}

	// Populate the slot's ExecutionContext with one sync.Object per
	// graph link, constructed from that link's own SyncObject (spec.md
	// §4.J: "ExecutionContext holds one sync object per graph link").
	for _, l := range g.Links() {
		execCtx.SetLinkSyncObject(l.Name(), l.Sync())
	}

	return tf, nil
}

// resolveOps gathers n's incoming sync operations (the Internal group of
// every incoming link's sync.Object) and outgoing sync operations (the
// External group of every outgoing link's sync.Object), unions them, and
// restricts the result to n's context's supported stages if it has one
// (spec.md §4.K step 1). Per-link timeline values are resolved from
// relative (1, 2, ...) to absolute by shifting with that link's
// Primitives' current offset before the union, since different incident
// links may be driven by different Primitives.
func resolveOps(g *graph.Graph, n *graph.Node) (*syncpkg.Operations, error) {
	combined := &syncpkg.Operations{}

	in, err := g.FindEdgesTo(n.Name(), graph.CpuSync, true)
	if err != nil {
		return nil, err
	}
	for _, l := range in {
		group := l.Sync().Group(syncpkg.Internal)
		combined = combined.Union(shiftByLinkOffset(l, group))
	}

	out, err := g.FindEdgesFrom(n.Name(), graph.CpuSync, true)
	if err != nil {
		return nil, err
	}
	for _, l := range out {
		group := l.Sync().Group(syncpkg.External)
		combined = combined.Union(shiftByLinkOffset(l, group))
	}

	if ctx, ok := n.Context(); ok {
		combined = combined.Restrict(ctx.SupportedStages(), true)
	}
	return combined, nil
}

// shiftByLinkOffset resolves ops's relative timeline values against the
// current offset of the first timeline semaphore registered on the
// link's own Primitives, if any. A link's SyncObject is scoped to one
// Primitives instance, so this is unambiguous for the common case of one
// timeline per link.
func shiftByLinkOffset(l *graph.Link, ops *syncpkg.Operations) *syncpkg.Operations {
	prim := l.Sync().Primitives()
	if prim == nil {
		return ops
	}
	names := prim.TimelineNames()
	if len(names) == 0 {
		return ops
	}
	offset, err := prim.GetTimelineOffset(names[0])
	if err != nil {
		return ops
	}
	return ops.ShiftTimelineValues(offset)
}

// Run executes every task once, honoring CpuSync dependency edges within
// the frame; CpuAsync links impose no CPU ordering and are resolved
// purely through the GPU-visible semaphore operations each carries. Run
// does not wait for another slot's Run: with one in-flight slot the
// previous frame has completed before this Run starts, but with several
// slots the previous frame's producer may still be running.
// After every task completes, every distinct Primitives touched by a
// live link is stepped once, advancing relative timeline values for the
// next frame (spec.md §4.K edge cases).
func (tf *Taskflow) Run(dispatch hal.Dispatch) error {
	for _, t := range tf.tasks {
		t.done = make(chan struct{})
	}

	var wg sync.WaitGroup
	for _, t := range tf.tasks {
		wg.Add(1)
		go func(t *task) {
			defer wg.Done()
			defer close(t.done)
			for _, dep := range t.deps {
				<-dep.done
			}

			ops, err := resolveOps(tf.g, t.node)
			if err != nil {
				t.err = err
				topic.Warn("failed to resolve sync operations", "node", t.node.Name(), "error", err)
				return
			}

			if err := t.node.Job().Execute(dispatch, tf.execCtx, ops); err != nil {
				t.err = err
				topic.Warn("node job reported an error", "node", t.node.Name(), "error", err)
			}

			if tf.fb != nil {
				if tracker := t.node.Job().Tracker(); tracker != nil {
					if err := tf.fb.Report(dispatch, tf.slotKey, t.node.Name(), tracker); err != nil {
						topic.Warn("failed to report feedback status", "node", t.node.Name(), "error", err)
					}
				}
			}
		}(t)
	}
	wg.Wait()

	tf.stepTimelines()
	return nil
}

func (tf *Taskflow) stepTimelines() {
	stepped := make(map[*syncpkg.Primitives]bool)
	for _, l := range tf.g.Links() {
		prim := l.Sync().Primitives()
		if prim == nil || stepped[prim] {
			continue
		}
		stepped[prim] = true
		for _, name := range prim.TimelineNames() {
			if _, err := prim.StepTimeline(name); err != nil {
				topic.Warn("failed to step timeline", "semaphore", name, "error", err)
			}
		}
	}
}

// Errors returns the error recorded by each task that reported one after
// the most recent Run, keyed by node name. Job errors are non-fatal to
// the overall frame (spec.md §7 class 3); this is for diagnostics only.
func (tf *Taskflow) Errors() map[string]error {
	out := make(map[string]error)
	for _, t := range tf.tasks {
		if t.err != nil {
			out[t.node.Name()] = t.err
		}
	}
	return out
}

package engine

import (
	"fmt"
	"sync"

	"github.com/gogpu/rendergraph/config"
	"github.com/gogpu/rendergraph/feedback"
	"github.com/gogpu/rendergraph/graph"
	"github.com/gogpu/rendergraph/hal"
	"github.com/gogpu/rendergraph/internal/thread"
	"github.com/gogpu/rendergraph/job"
	"github.com/gogpu/rendergraph/taskflow"
)

// RenderingProcess is one in-flight slot (spec.md §4.L): an
// ExecutionContext, a taskflow built against it, a dedicated render loop
// the slot's frames run on (grounded on the teacher's
// internal/thread.RenderLoop, generalized from one UI/render-thread split
// to one render thread per in-flight slot), and the pending future of its
// most recently dispatched frame.
type RenderingProcess struct {
	key     string
	execCtx *job.ExecutionContext
	tf      *taskflow.Taskflow
	loop    *thread.RenderLoop

	mu      sync.Mutex
	pending chan error
}

// dispatch waits for this slot's previously dispatched frame to finish,
// if one is still outstanding, resets its ExecutionContext, and launches
// a fresh taskflow run asynchronously on the slot's render loop, storing
// the new future (spec.md §4.L render() algorithm, steps 2-4).
func (p *RenderingProcess) dispatch(d hal.Dispatch) {
	p.mu.Lock()
	prior := p.pending
	p.mu.Unlock()

	if prior != nil {
		if err := <-prior; err != nil {
			topic.Warn("prior frame for slot reported an error", "slot", p.key, "error", err)
		}
	}

	p.execCtx.Reset()

	done := make(chan error, 1)
	p.mu.Lock()
	p.pending = done
	p.mu.Unlock()

	p.loop.RunOnRenderThreadAsync(func() {
		done <- p.tf.Run(d)
	})
}

// wait blocks until this slot's most recently dispatched frame completes,
// if one is outstanding, and forgets it (so a second call is a no-op).
func (p *RenderingProcess) wait() error {
	p.mu.Lock()
	pending := p.pending
	p.pending = nil
	p.mu.Unlock()
	if pending == nil {
		return nil
	}
	return <-pending
}

// ParallelEngine holds K in-flight RenderingProcess slots built from one
// frozen render graph (spec.md §4.L). Render() is the only steady-state
// entry point; it never blocks on anything but the oldest in-flight slot.
type ParallelEngine struct {
	mu sync.Mutex

	dispatch hal.Dispatch
	fb       *feedback.Service
	cfg      config.EngineConfig

	graphSet  bool
	slots     []*RenderingProcess
	callCount uint64
}

// New creates an engine bound to dispatch, reporting per-node submission
// status through fb (may be nil to skip feedback reporting entirely).
func New(dispatch hal.Dispatch, fb *feedback.Service, cfg config.EngineConfig) *ParallelEngine {
	return &ParallelEngine{dispatch: dispatch, fb: fb, cfg: cfg}
}

// SetRenderGraph freezes g and builds K taskflow slots from it, one per
// in-flight frame, each with its own disjoint ExecutionContext (spec.md
// §4.L: "K disjoint ExecutionContexts so sync objects do not alias
// between slots"). May be called exactly once; subsequent calls fail.
func (e *ParallelEngine) SetRenderGraph(g *graph.Graph) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.graphSet {
		return fmt.Errorf("engine: setRenderGraph already called")
	}

	k := e.cfg.EffectiveInFlightFrames()
	if k <= 0 {
		return fmt.Errorf("engine: in_flight_frames must be positive, got %d", k)
	}

	slots := make([]*RenderingProcess, k)
	for i := 0; i < k; i++ {
		execCtx := job.NewExecutionContext()
		slotKey := fmt.Sprintf("slot-%d", i)
		tf, err := taskflow.Build(g, execCtx, e.fb, slotKey)
		if err != nil {
			for _, s := range slots[:i] {
				s.loop.Stop()
			}
			return fmt.Errorf("engine: build taskflow for %s: %w", slotKey, err)
		}
		slots[i] = &RenderingProcess{key: slotKey, execCtx: execCtx, tf: tf, loop: thread.NewRenderLoop()}
	}

	e.slots = slots
	e.graphSet = true
	topic.Debug("render graph set", "graph", g.Name(), "slots", k)
	return nil
}

// Render runs one frame (spec.md §4.L render()): selects slot i =
// call_count mod K, waits on its prior future if still outstanding,
// resets its ExecutionContext, dispatches its taskflow asynchronously,
// stores the new future, and advances call_count. At most K frames of
// GPU work are outstanding at any time.
func (e *ParallelEngine) Render() error {
	e.mu.Lock()
	if !e.graphSet {
		e.mu.Unlock()
		return fmt.Errorf("engine: render called before setRenderGraph")
	}
	slot := e.slots[e.callCount%uint64(len(e.slots))]
	e.callCount++
	e.mu.Unlock()

	slot.dispatch(e.dispatch)
	return nil
}

// Close waits for every slot's outstanding frame to finish (no silent
// cancellation, spec.md §5), stops its dedicated thread, and releases
// every fence the feedback service has accumulated across every node
// this engine ever reported through. Close is not safe to call
// concurrently with Render.
func (e *ParallelEngine) Close() error {
	e.mu.Lock()
	slots := e.slots
	e.mu.Unlock()

	var firstErr error
	for _, s := range slots {
		if err := s.wait(); err != nil && firstErr == nil {
			firstErr = err
		}
		s.loop.Stop()
	}
	if e.fb != nil {
		if err := e.fb.ClearFences(e.dispatch); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

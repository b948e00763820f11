package job

import (
	"fmt"

	"github.com/gogpu/rendergraph/hal"
	"github.com/gogpu/rendergraph/internal/telemetry"
	"github.com/gogpu/rendergraph/submit"
	syncpkg "github.com/gogpu/rendergraph/sync"
)

var topic = telemetry.NewTopic("job")

// Fn is the body a Job wraps: it reads and writes the slot's
// ExecutionContext, receives the wait/signal SyncOperations the
// taskflow builder resolved for this node this frame (spec.md §4.K
// step 1d: "invokes the node's job with the resulting SyncOperations"),
// and may report submissions through the supplied tracker (nil if the
// Job was not created with one). Returning an error reports a submit
// failure; it is never treated as fatal by Execute (spec.md §7 class 3).
type Fn func(ctx *ExecutionContext, ops *syncpkg.Operations, tracker *submit.Tracker) error

// Job wraps a node's closure together with an optional per-node submit
// tracker. Execute never lets a panic inside the closure escape, and it
// returns the closure's error for diagnostics rather than treating it as
// fatal: a single faulty node must not wedge the rest of the graph
// (spec.md §4.J, §9: "use a result type locally and log on the error
// path; never propagate out of the scheduler thread").
type Job struct {
	name    string
	tracker *submit.Tracker
	fn      Fn
}

// New creates an untracked Job.
func New(name string, fn Fn) *Job {
	return &Job{name: name, fn: fn}
}

// NewTracked creates a Job that owns its own submit.Tracker, cleared at
// the start of every Execute call.
func NewTracked(name string, fn Fn) *Job {
	return &Job{name: name, tracker: submit.New(), fn: fn}
}

// Name returns the node name this Job was built for, used only for
// diagnostics.
func (j *Job) Name() string {
	return j.name
}

// Tracker returns the Job's owned submit.Tracker, or nil if none was
// attached.
func (j *Job) Tracker() *submit.Tracker {
	return j.tracker
}

// Execute clears the owned tracker (if any), then invokes the wrapped
// closure. A panic inside the closure is recovered and logged rather
// than propagated; a returned error is logged and also returned to the
// caller for observability, but callers must not treat it as fatal to
// the overall render (spec.md §7 class 3: "the submit tracker will
// observe no fence signal and downstream waits will time out
// logically").
func (j *Job) Execute(dispatch hal.Dispatch, ctx *ExecutionContext, ops *syncpkg.Operations) (err error) {
	if j.tracker != nil {
		if clearErr := j.tracker.Clear(dispatch); clearErr != nil {
			topic.Warn("submit tracker clear failed", "job", j.name, "error", clearErr)
		}
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job: %s: recovered panic: %v", j.name, r)
			topic.Error("job panicked", "job", j.name, "panic", r)
		}
	}()

	if execErr := j.fn(ctx, ops, j.tracker); execErr != nil {
		err = fmt.Errorf("job: %s: %w", j.name, execErr)
		topic.Warn("job closure returned error", "job", j.name, "error", execErr)
	}
	return err
}

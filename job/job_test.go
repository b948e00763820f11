package job

import (
	"errors"
	"testing"

	"github.com/gogpu/rendergraph/hal/vknoop"
	"github.com/gogpu/rendergraph/submit"
	syncpkg "github.com/gogpu/rendergraph/sync"
)

func TestJobExecuteRunsClosure(t *testing.T) {
	dev := vknoop.New()
	ran := false
	j := New("render", func(ctx *ExecutionContext, ops *syncpkg.Operations, tracker *submit.Tracker) error {
		ran = true
		ctx.MarkDrawRecorded()
		return nil
	})

	if err := j.Execute(dev, NewExecutionContext(), &syncpkg.Operations{}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !ran {
		t.Fatalf("expected closure to run")
	}
}

func TestJobExecuteRecoversPanic(t *testing.T) {
	dev := vknoop.New()
	j := New("flaky", func(ctx *ExecutionContext, ops *syncpkg.Operations, tracker *submit.Tracker) error {
		panic("submit failed unexpectedly")
	})

	err := j.Execute(dev, NewExecutionContext(), &syncpkg.Operations{})
	if err == nil {
		t.Fatalf("expected Execute to report the recovered panic as an error")
	}
}

func TestJobExecuteReportsClosureError(t *testing.T) {
	dev := vknoop.New()
	wantErr := errors.New("queue submit failed")
	j := New("render", func(ctx *ExecutionContext, ops *syncpkg.Operations, tracker *submit.Tracker) error {
		return wantErr
	})

	err := j.Execute(dev, NewExecutionContext(), &syncpkg.Operations{})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected wrapped wantErr, got %v", err)
	}
}

func TestJobTrackedClearsTrackerBeforeExecute(t *testing.T) {
	dev := vknoop.New()
	f, _ := dev.CreateFence()

	j := NewTracked("transfer", func(ctx *ExecutionContext, ops *syncpkg.Operations, tracker *submit.Tracker) error {
		if tracker.Len() != 0 {
			t.Fatalf("expected tracker cleared before closure runs, got %d fences", tracker.Len())
		}
		return nil
	})
	j.Tracker().Track(f)

	if err := j.Execute(dev, NewExecutionContext(), &syncpkg.Operations{}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
}

func TestExecutionContextResetOnlyClearsAfterDraw(t *testing.T) {
	ctx := NewExecutionContext()
	ctx.SetRenderTarget(2)

	ctx.Reset()
	index, ok := ctx.RenderTarget()
	if !ok || index != 2 {
		t.Fatalf("expected render target to survive reset without a recorded draw, got (%d, %v)", index, ok)
	}

	ctx.MarkDrawRecorded()
	ctx.Reset()
	if _, ok := ctx.RenderTarget(); ok {
		t.Fatalf("expected render target cleared after a reset following a recorded draw")
	}
	if ctx.DrawRecorded() {
		t.Fatalf("expected drawRecorded cleared by Reset")
	}
}

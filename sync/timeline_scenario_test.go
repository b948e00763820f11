package sync

import (
	"testing"

	"github.com/gogpu/rendergraph/hal/vknoop"
)

// TestTimelineOffsetCorrectness mirrors the literal S5 scenario: a
// timeline of width 4 and initial value 0. Three frames each record a
// wait on relative value 2 (resolved against the timeline's offset
// before that frame's step), then the timeline is stepped once the
// frame's work is submitted. Expected absolute values: 2, 6, 10.
func TestTimelineOffsetCorrectness(t *testing.T) {
	dev := vknoop.New()
	p, err := NewPrimitives(dev, false)
	if err != nil {
		t.Fatalf("NewPrimitives: %v", err)
	}
	defer p.Destroy()

	if err := p.CreateTimelineSemaphore("render-finish", 0, 4); err != nil {
		t.Fatalf("CreateTimelineSemaphore: %v", err)
	}

	expected := []uint64{2, 6, 10}
	for i, want := range expected {
		offset, err := p.GetTimelineOffset("render-finish")
		if err != nil {
			t.Fatalf("frame %d: GetTimelineOffset: %v", i, err)
		}

		var ops Operations
		ops.AddWaitValue(1, 2, 0) // "wait on value 2" relative to this frame
		resolved := ops.ShiftTimelineValues(offset)

		got := resolved.Waits()[0].Value
		if got != want {
			t.Fatalf("frame %d: expected absolute value %d, got %d", i, want, got)
		}

		if _, err := p.StepTimeline("render-finish"); err != nil {
			t.Fatalf("frame %d: StepTimeline: %v", i, err)
		}
	}
}

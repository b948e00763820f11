package sync

import (
	"testing"

	"github.com/gogpu/rendergraph/hal"
)

func TestOperationsAddAndFillInfo(t *testing.T) {
	var ops Operations
	ops.AddWaitValue(1, 5, hal.StageTransfer)
	ops.AddSignalValue(2, 6, hal.StageColorAttachmentOut)
	ops.SetFence(9)

	if !ops.HasFence() {
		t.Fatalf("expected fence set")
	}

	var info hal.SubmitInfo
	ops.FillInfo(&info)

	if len(info.Waits) != 1 || info.Waits[0].Semaphore != 1 || info.Waits[0].Value != 5 {
		t.Fatalf("unexpected waits: %+v", info.Waits)
	}
	if len(info.Signals) != 1 || info.Signals[0].Semaphore != 2 || info.Signals[0].Value != 6 {
		t.Fatalf("unexpected signals: %+v", info.Signals)
	}
	if info.Fence != 9 {
		t.Fatalf("expected fence 9, got %d", info.Fence)
	}
}

func TestOperationsUnion(t *testing.T) {
	var a, b Operations
	a.AddWait(1, hal.StageTopOfPipe)
	b.AddSignal(2, hal.StageBottomOfPipe)
	b.SetFence(7)

	merged := a.Union(&b)
	if len(merged.Waits()) != 1 || len(merged.Signals()) != 1 {
		t.Fatalf("expected 1 wait and 1 signal, got %+v", merged)
	}
	if !merged.HasFence() {
		t.Fatalf("expected merged fence from b")
	}
}

func TestOperationsUnionTwoFencesPanics(t *testing.T) {
	var a, b Operations
	a.SetFence(1)
	b.SetFence(2)

	defer func() {
		if recover() == nil {
			t.Fatalf("expected Union to panic when both operands carry a fence")
		}
	}()
	a.Union(&b)
}

func TestOperationsShiftTimelineValues(t *testing.T) {
	var ops Operations
	ops.AddWaitValue(1, 3, hal.StageTransfer)
	ops.AddWait(2, hal.StageTransfer) // binary, value 0, must stay untouched
	ops.AddSignalValue(3, 4, hal.StageTransfer)

	shifted := ops.ShiftTimelineValues(10)

	if shifted.Waits()[0].Value != 13 {
		t.Fatalf("expected shifted wait value 13, got %d", shifted.Waits()[0].Value)
	}
	if shifted.Waits()[1].Value != 0 {
		t.Fatalf("expected binary wait value to remain 0, got %d", shifted.Waits()[1].Value)
	}
	if shifted.Signals()[0].Value != 14 {
		t.Fatalf("expected shifted signal value 14, got %d", shifted.Signals()[0].Value)
	}
	// original must be untouched
	if ops.Waits()[0].Value != 3 {
		t.Fatalf("ShiftTimelineValues must not mutate the receiver")
	}
}

func TestOperationsRestrict(t *testing.T) {
	var ops Operations
	ops.AddWait(1, hal.StageTransfer)
	ops.AddWait(2, hal.StageComputeShader)
	ops.AddSignal(3, hal.StageColorAttachmentOut)
	ops.SetFence(5)

	restricted := ops.Restrict(hal.StageTransfer, false)
	if len(restricted.Waits()) != 1 || restricted.Waits()[0].Semaphore != 1 {
		t.Fatalf("expected only the transfer-stage wait, got %+v", restricted.Waits())
	}
	if len(restricted.Signals()) != 0 {
		t.Fatalf("expected no signals survive restriction to StageTransfer")
	}
	if restricted.HasFence() {
		t.Fatalf("expected fence dropped when keepFence=false")
	}

	restrictedKeep := ops.Restrict(hal.StageColorAttachmentOut, true)
	if !restrictedKeep.HasFence() {
		t.Fatalf("expected fence kept when keepFence=true")
	}
}

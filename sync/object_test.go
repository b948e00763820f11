package sync

import (
	"testing"

	"github.com/gogpu/rendergraph/hal"
	"github.com/gogpu/rendergraph/hal/vknoop"
)

func TestObjectGroupsCombine(t *testing.T) {
	dev := vknoop.New()
	prim, err := NewPrimitives(dev, true)
	if err != nil {
		t.Fatalf("NewPrimitives: %v", err)
	}
	defer prim.Destroy()

	obj := NewObject(prim)
	obj.Group(Internal).AddWait(1, hal.StageTransfer)
	obj.Group(External).AddSignal(2, hal.StageBottomOfPipe)

	combined := obj.Combined()
	if len(combined.Waits()) != 1 || len(combined.Signals()) != 1 {
		t.Fatalf("expected combined 1 wait + 1 signal, got %+v", combined)
	}
}

func TestObjectBuildSubmitInfoUsesOwnedFence(t *testing.T) {
	dev := vknoop.New()
	prim, _ := NewPrimitives(dev, true)
	defer prim.Destroy()

	obj := NewObject(prim)
	obj.Group(Internal).AddSignal(3, hal.StageBottomOfPipe)

	info := obj.BuildSubmitInfo(nil)

	f, _ := prim.OptionalFence()
	if info.Fence != f {
		t.Fatalf("expected owned fence %d to be used, got %d", f, info.Fence)
	}
	if len(info.Signals) != 1 {
		t.Fatalf("expected 1 signal in submit info, got %d", len(info.Signals))
	}
}

func TestObjectResetClearsGroups(t *testing.T) {
	dev := vknoop.New()
	prim, _ := NewPrimitives(dev, false)
	defer prim.Destroy()

	obj := NewObject(prim)
	obj.Group(Internal).AddWait(1, hal.StageTransfer)
	obj.Reset()

	combined := obj.Combined()
	if len(combined.Waits()) != 0 {
		t.Fatalf("expected no waits after Reset, got %+v", combined.Waits())
	}
}

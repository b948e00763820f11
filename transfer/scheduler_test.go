package transfer

import (
	"bytes"
	"testing"

	"github.com/gogpu/rendergraph/command"
	"github.com/gogpu/rendergraph/hal"
	"github.com/gogpu/rendergraph/hal/vknoop"
	"github.com/gogpu/rendergraph/queue"
)

type fakeBackend struct {
	uploads           map[Resource][]byte
	downloads         []Resource
	nextRef           uintptr
	pendingUploadData []byte
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{uploads: make(map[Resource][]byte)}
}

func (b *fakeBackend) CreateStagingUpload(data []byte) (Staging, uintptr, error) {
	b.nextRef++
	b.pendingUploadData = append([]byte(nil), data...)
	return &fakeStaging{}, b.nextRef, nil
}

func (b *fakeBackend) CreateStagingDownload(resource Resource) (Staging, uintptr, error) {
	b.nextRef++
	b.downloads = append(b.downloads, resource)
	return &fakeStaging{}, b.nextRef, nil
}

func (b *fakeBackend) RecordUpload(_ hal.CommandBuffer, resource Resource, _ uintptr) {
	b.uploads[resource] = b.pendingUploadData
}

func (b *fakeBackend) RecordDownload(_ hal.CommandBuffer, _ Resource, _ uintptr) {}

type fakeStaging struct{ freed bool }

func (s *fakeStaging) Free() { s.freed = true }

func TestSchedulerCoalescesUploads(t *testing.T) {
	dev := vknoop.New()
	dev.Families = map[uint32]hal.PipelineStage{0: hal.StageTransfer}

	sched, err := New(dev)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer sched.Destroy()

	backend := newFakeBackend()
	balancer, _ := queue.NewLoadBalancer(0, []uint32{0}, hal.StageTransfer)
	ctx := command.NewSingleShot(dev, 0, balancer)

	bufferA := "bufferA"
	sched.UploadBuffer(bufferA, bytes.Repeat([]byte{0x00}, 64), ctx, nil)
	sched.UploadBuffer(bufferA, bytes.Repeat([]byte{0xFF}, 64), ctx, nil)

	if sched.PendingCount() != 1 {
		t.Fatalf("expected 1 pending resource after coalescing, got %d", sched.PendingCount())
	}

	if err := sched.ExecuteTasks(dev, backend, ctx, nil); err != nil {
		t.Fatalf("ExecuteTasks: %v", err)
	}

	if len(dev.Submits) != 1 {
		t.Fatalf("expected exactly one submission, got %d", len(dev.Submits))
	}
	if !bytes.Equal(backend.uploads[bufferA], bytes.Repeat([]byte{0xFF}, 64)) {
		t.Fatalf("expected coalesced staging content to be the last-scheduled upload")
	}

	value, err := sched.DataTransferFinishValue()
	if err != nil {
		t.Fatalf("DataTransferFinishValue: %v", err)
	}
	if value != 1 {
		t.Fatalf("expected data-transfer-finish offset 1, got %d", value)
	}

	sem, err := sched.DataTransferFinishSemaphoreHandle()
	if err != nil {
		t.Fatalf("DataTransferFinishSemaphoreHandle: %v", err)
	}
	got, err := dev.GetSemaphoreCounterValue(sem)
	if err != nil {
		t.Fatalf("GetSemaphoreCounterValue: %v", err)
	}
	if got != 1 {
		t.Fatalf("expected data-transfer-finish to have reached value 1, got %d", got)
	}

	if sched.PendingCount() != 0 {
		t.Fatalf("expected staging areas drained after ExecuteTasks")
	}
}

func TestSchedulerExecuteTasksNoopWhenEmpty(t *testing.T) {
	dev := vknoop.New()
	dev.Families = map[uint32]hal.PipelineStage{0: hal.StageTransfer}

	sched, err := New(dev)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer sched.Destroy()

	balancer, _ := queue.NewLoadBalancer(0, []uint32{0}, hal.StageTransfer)
	ctx := command.NewSingleShot(dev, 0, balancer)
	if err := sched.ExecuteTasks(dev, newFakeBackend(), ctx, nil); err != nil {
		t.Fatalf("ExecuteTasks: %v", err)
	}
	if len(dev.Submits) != 0 {
		t.Fatalf("expected no submission for an empty scheduler")
	}
}

func TestSchedulerDownload(t *testing.T) {
	dev := vknoop.New()
	dev.Families = map[uint32]hal.PipelineStage{0: hal.StageTransfer}

	sched, err := New(dev)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer sched.Destroy()

	backend := newFakeBackend()
	balancer, _ := queue.NewLoadBalancer(0, []uint32{0}, hal.StageTransfer)
	ctx := command.NewSingleShot(dev, 0, balancer)

	textureA := "textureA"
	sched.DownloadTexture(textureA, nil)
	if err := sched.ExecuteTasks(dev, backend, ctx, nil); err != nil {
		t.Fatalf("ExecuteTasks: %v", err)
	}
	if len(backend.downloads) != 1 || backend.downloads[0] != textureA {
		t.Fatalf("expected 1 download recorded for textureA, got %+v", backend.downloads)
	}
}

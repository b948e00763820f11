package queue

import (
	"sync"
	"testing"

	"github.com/gogpu/rendergraph/hal"
	"github.com/gogpu/rendergraph/hal/vknoop"
)

func TestNewLoadBalancerRejectsEmptySlots(t *testing.T) {
	if _, err := NewLoadBalancer(0, nil, hal.StageAllCommands); err == nil {
		t.Fatalf("expected error for empty queue slot set")
	}
}

func TestLoadBalancerFairDispatch(t *testing.T) {
	lb, err := NewLoadBalancer(0, []uint32{10, 11, 12}, hal.StageAllGraphics)
	if err != nil {
		t.Fatalf("NewLoadBalancer: %v", err)
	}

	seen := make(map[uint32]int)
	for i := 0; i < 9; i++ {
		lease := lb.Acquire()
		seen[lease.Slot()]++
		lease.Release()
	}

	for slot, count := range seen {
		if count != 3 {
			t.Fatalf("expected each of 3 queues leased exactly 3 times, slot %d got %d (seen=%v)", slot, count, seen)
		}
	}
}

func TestLoadBalancerMutualExclusionPerQueue(t *testing.T) {
	lb, _ := NewLoadBalancer(0, []uint32{0}, hal.StageAllGraphics)

	l1 := lb.Acquire()

	acquired := make(chan struct{})
	go func() {
		l2 := lb.Acquire()
		close(acquired)
		l2.Release()
	}()

	select {
	case <-acquired:
		t.Fatalf("second Acquire on the only queue should block until Release")
	default:
	}

	l1.Release()
	<-acquired
}

func TestLeaseSubmitAndPresent(t *testing.T) {
	dev := vknoop.New()
	dev.RegisterSwapchain(1, &vknoop.FakeSwapchain{ImageCount: 2})

	lb, _ := NewLoadBalancer(0, []uint32{0, 1}, hal.StageAllGraphics)
	lease := lb.Acquire()
	defer lease.Release()

	if err := lease.Submit(dev, hal.SubmitInfo{}); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if _, err := lease.Present(dev, 1, 0, nil); err != nil {
		t.Fatalf("Present: %v", err)
	}
}

func TestLoadBalancerConcurrentAcquireRelease(t *testing.T) {
	lb, _ := NewLoadBalancer(0, []uint32{0, 1, 2, 3}, hal.StageAllGraphics)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			lease := lb.Acquire()
			lease.Release()
		}()
	}
	wg.Wait()
}

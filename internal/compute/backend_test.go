package compute

import (
	"errors"
	"sync/atomic"
	"testing"
)

func TestDispatchCoversEveryItemOnce(t *testing.T) {
	backends := []Backend{
		NewSerialBackend(),
		NewCPUBackendWithWorkers(1),
		NewCPUBackendWithWorkers(3),
		NewCPUBackendWithWorkers(16),
	}
	sizes := []int{0, 1, 127, 128, 129, 1000, 4096}

	for _, b := range backends {
		for _, n := range sizes {
			hits := make([]int32, n)
			b.Dispatch(n, func(start, end int) {
				for i := start; i < end; i++ {
					atomic.AddInt32(&hits[i], 1)
				}
			})
			for i, h := range hits {
				if h != 1 {
					t.Fatalf("%s n=%d: item %d visited %d times", b.Name(), n, i, h)
				}
			}
		}
	}
}

func TestDispatchChunksAlignToGroups(t *testing.T) {
	b := NewCPUBackendWithWorkers(4)
	var misaligned int32
	b.Dispatch(10*GroupSize+5, func(start, end int) {
		if start%GroupSize != 0 {
			atomic.AddInt32(&misaligned, 1)
		}
	})
	if misaligned != 0 {
		t.Errorf("expected group aligned chunks, got %d misaligned", misaligned)
	}
}

func TestNew(t *testing.T) {
	for _, name := range Names() {
		b, err := New(name)
		if err != nil {
			t.Fatalf("new %s: %v", name, err)
		}
		if b.Name() != name {
			t.Errorf("expected %s, got %s", name, b.Name())
		}
	}
	if _, err := New("cuda"); !errors.Is(err, ErrUnknownBackend) {
		t.Errorf("expected ErrUnknownBackend, got %v", err)
	}
	if b := AutoSelectBackend(); !b.Available() {
		t.Errorf("auto selected backend unavailable")
	}
}

func TestGroups(t *testing.T) {
	tests := []struct{ n, want int }{{0, 0}, {1, 1}, {128, 1}, {129, 2}, {256, 2}}
	for _, tt := range tests {
		if got := Groups(tt.n); got != tt.want {
			t.Errorf("Groups(%d): expected %d, got %d", tt.n, tt.want, got)
		}
	}
}

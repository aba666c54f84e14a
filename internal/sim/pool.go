package sim

import (
	"sync"

	"github.com/san-kum/cellgrav/internal/grid"
)

// FramePool recycles front-buffer snapshots handed to readers that outlive
// a tick, such as viewers and exporters.
type FramePool struct {
	pool sync.Pool
	size int
}

func NewFramePool(cells int) *FramePool {
	return &FramePool{
		size: cells,
		pool: sync.Pool{
			New: func() interface{} {
				return make([]grid.Cell, cells)
			},
		},
	}
}

func (p *FramePool) Get() []grid.Cell {
	return p.pool.Get().([]grid.Cell)
}

func (p *FramePool) Put(frame []grid.Cell) {
	if len(frame) == p.size {
		p.pool.Put(frame)
	}
}

// Snapshot copies the simulator's front buffer into a pooled frame.
func (p *FramePool) Snapshot(s *Simulator) []grid.Cell {
	frame := p.Get()
	copy(frame, s.Front())
	return frame
}

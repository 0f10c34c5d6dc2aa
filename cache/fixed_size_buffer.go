package cache

import "sync/atomic"

// FixedSizeBufferPool hands out n equally sized buffers carved from one arena.
// Get blocks until a buffer is returned when all are in use.
type FixedSizeBufferPool struct {
	buffers [][]byte
	free    chan uint16

	arena   []byte
	bufSize int

	stats PoolStats
}

type PoolStats struct {
	Gets  atomic.Int64
	Waits atomic.Int64
}

func NewFixedSizeBufferPool(n int, bufSize int) *FixedSizeBufferPool {
	arena := make([]byte, n*bufSize)

	buffers := make([][]byte, n)
	for i := 0; i < n; i++ {
		start := i * bufSize
		end := start + bufSize
		buffers[i] = arena[start:end:end] // full slice expression
	}

	free := make(chan uint16, n)
	for i := 0; i < n; i++ {
		free <- uint16(i)
	}

	return &FixedSizeBufferPool{
		arena:   arena,
		buffers: buffers,
		free:    free,
		bufSize: bufSize,
	}
}

func (p *FixedSizeBufferPool) Get() ([]byte, uint16) {
	p.stats.Gets.Add(1)

	select {
	case id := <-p.free:
		return p.buffers[id], id
	default:
	}

	p.stats.Waits.Add(1)
	id := <-p.free
	return p.buffers[id], id
}

func (p *FixedSizeBufferPool) Return(id uint16) {
	p.free <- id
}

func (p *FixedSizeBufferPool) BufSize() int {
	return p.bufSize
}

func (p *FixedSizeBufferPool) Stats() *PoolStats {
	return &p.stats
}

package system

import (
	"image"
	"sync"
)

// FramePool recycles RGBA frame buffers so the frame loop does not allocate a
// full-resolution image per frame. Buffers come back dirty: callers must paint
// every pixel before reading.
type FramePool struct {
	mu    sync.RWMutex
	pools map[image.Rectangle]*sync.Pool
}

// NewFramePool returns an empty pool.
func NewFramePool() *FramePool {
	return &FramePool{pools: make(map[image.Rectangle]*sync.Pool)}
}

// Get returns a buffer with bounds rect.
func (p *FramePool) Get(rect image.Rectangle) *image.RGBA {
	p.mu.RLock()
	pool, ok := p.pools[rect]
	p.mu.RUnlock()

	if !ok {
		p.mu.Lock()
		pool, ok = p.pools[rect]
		if !ok {
			pool = &sync.Pool{
				New: func() any {
					return image.NewRGBA(rect)
				},
			}
			p.pools[rect] = pool
		}
		p.mu.Unlock()
	}

	return pool.Get().(*image.RGBA)
}

// Put hands img back. Buffers of a size the pool never issued are dropped.
func (p *FramePool) Put(img *image.RGBA) {
	if img == nil {
		return
	}
	p.mu.RLock()
	pool, ok := p.pools[img.Rect]
	p.mu.RUnlock()

	if ok {
		pool.Put(img)
	}
}

package wirebuf

// Pool is a free list of reusable values for a single owner. It has no
// locking; use sync.Pool when values cross goroutines.
type Pool[T any] struct {
	free  []T
	ctor  func() T
	reset func(T)
}

// NewPool creates a pool that builds values with ctor and keeps up to
// capacity released values before growing.
func NewPool[T any](ctor func() T, capacity int) *Pool[T] {
	return &Pool[T]{free: make([]T, 0, capacity), ctor: ctor}
}

// NewBufferPool pools buffers built from opts. Released buffers are reset.
func NewBufferPool(opts Options, capacity int) *Pool[*Buffer] {
	p := NewPool(func() *Buffer { return NewBuffer(opts) }, capacity)
	p.reset = (*Buffer).Reset
	return p
}

// Acquire returns a released value or a new one.
func (p *Pool[T]) Acquire() T {
	if n := len(p.free); n > 0 {
		v := p.free[n-1]
		var zero T
		p.free[n-1] = zero
		p.free = p.free[:n-1]
		return v
	}
	return p.ctor()
}

// Release hands v back for reuse.
func (p *Pool[T]) Release(v T) {
	if p.reset != nil {
		p.reset(v)
	}
	p.free = append(p.free, v)
}

// Idle is the number of values waiting to be reused.
func (p *Pool[T]) Idle() int { return len(p.free) }

package collections

import "sync"

// SlicePool recycles slices between builds.
type SlicePool[T any] struct {
	pool       sync.Pool
	initialCap int
}

// NewSlicePool creates a new slice pool with the given initial capacity.
func NewSlicePool[T any](initialCap int) *SlicePool[T] {
	if initialCap <= 0 {
		initialCap = 256
	}
	return &SlicePool[T]{
		initialCap: initialCap,
		pool: sync.Pool{
			New: func() interface{} {
				s := make([]T, 0, initialCap)
				return &s
			},
		},
	}
}

// Get returns a slice of length n. Its elements are zero values.
func (p *SlicePool[T]) Get(n int) *[]T {
	s := p.pool.Get().(*[]T)
	if cap(*s) < n {
		*s = make([]T, n)
	} else {
		*s = (*s)[:n]
	}
	return s
}

// Put returns a slice to the pool. Elements are zeroed so the pool does not
// keep records alive.
func (p *SlicePool[T]) Put(s *[]T) {
	if s == nil {
		return
	}
	clear(*s)
	*s = (*s)[:0]
	p.pool.Put(s)
}

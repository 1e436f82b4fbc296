package collections

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBitset(t *testing.T) {
	b := NewBitset(130)
	assert.Equal(t, 130, b.Size())

	b.Set(0)
	b.Set(64)
	b.Set(129)
	b.Set(130) // out of range
	b.Set(-1)

	assert.True(t, b.Test(0))
	assert.True(t, b.Test(64))
	assert.True(t, b.Test(129))
	assert.False(t, b.Test(1))
	assert.False(t, b.Test(130))
	assert.Equal(t, 3, b.Count())

	b.Clear(64)
	assert.False(t, b.Test(64))
	assert.Equal(t, 2, b.Count())
}

func TestBitset_Empty(t *testing.T) {
	b := NewBitset(0)
	b.Set(0)
	assert.False(t, b.Test(0))
	assert.Equal(t, 0, b.Count())
	assert.Equal(t, 0, NewBitset(-5).Size())
}

func TestStack(t *testing.T) {
	s := NewStack[int](2)
	assert.True(t, s.IsEmpty())

	_, ok := s.Pop()
	assert.False(t, ok)
	_, ok = s.Peek()
	assert.False(t, ok)

	s.Push(1)
	s.Push(2)
	s.Push(3)
	assert.Equal(t, 3, s.Len())

	top, ok := s.Peek()
	assert.True(t, ok)
	assert.Equal(t, 3, top)

	for _, want := range []int{3, 2, 1} {
		got, ok := s.Pop()
		assert.True(t, ok)
		assert.Equal(t, want, got)
	}
	assert.True(t, s.IsEmpty())
}

func TestSlicePool(t *testing.T) {
	p := NewSlicePool[any](0)

	s := p.Get(3)
	assert.Len(t, *s, 3)
	(*s)[0] = "kept"
	p.Put(s)
	assert.Empty(t, *s)

	again := p.Get(2)
	assert.Len(t, *again, 2)
	for _, v := range *again {
		assert.Nil(t, v)
	}

	large := p.Get(1000)
	assert.Len(t, *large, 1000)
	p.Put(large)
	p.Put(nil)
}

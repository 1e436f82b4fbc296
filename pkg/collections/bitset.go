// Package collections provides small generic data structures used while
// linking and walking record forests.
package collections

import "math/bits"

// Bitset is a fixed-size boolean set backed by 64-bit words.
type Bitset struct {
	words []uint64
	size  int
}

// NewBitset creates a bitset able to hold indices [0, size).
func NewBitset(size int) *Bitset {
	if size < 0 {
		size = 0
	}
	return &Bitset{
		words: make([]uint64, (size+63)/64),
		size:  size,
	}
}

// Set sets the bit at index i. Out of range indices are ignored.
func (b *Bitset) Set(i int) {
	if i < 0 || i >= b.size {
		return
	}
	b.words[i/64] |= 1 << (uint(i) % 64)
}

// Clear clears the bit at index i.
func (b *Bitset) Clear(i int) {
	if i < 0 || i >= b.size {
		return
	}
	b.words[i/64] &^= 1 << (uint(i) % 64)
}

// Test reports whether the bit at index i is set.
func (b *Bitset) Test(i int) bool {
	if i < 0 || i >= b.size {
		return false
	}
	return b.words[i/64]&(1<<(uint(i)%64)) != 0
}

// Count returns the number of set bits.
func (b *Bitset) Count() int {
	n := 0
	for _, w := range b.words {
		n += bits.OnesCount64(w)
	}
	return n
}

// Size returns the number of addressable bits.
func (b *Bitset) Size() int {
	return b.size
}

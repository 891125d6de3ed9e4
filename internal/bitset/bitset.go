package bitset

import "math/bits"

// BitSet is a fixed-size set of bits indexed from 0.
// It is not safe for concurrent use.
type BitSet struct {
	words []uint64
	size  int
}

// New creates a BitSet holding size bits, all clear.
func New(size int) *BitSet {
	return &BitSet{
		words: make([]uint64, (size+63)/64),
		size:  size,
	}
}

// Len returns the number of bits.
func (b *BitSet) Len() int { return b.size }

// Set sets bit i. Out of range indexes are ignored.
func (b *BitSet) Set(i int) {
	if i < 0 || i >= b.size {
		return
	}
	b.words[i>>6] |= 1 << (uint(i) & 63)
}

// Unset clears bit i.
func (b *BitSet) Unset(i int) {
	if i < 0 || i >= b.size {
		return
	}
	b.words[i>>6] &^= 1 << (uint(i) & 63)
}

// Test reports whether bit i is set.
func (b *BitSet) Test(i int) bool {
	if i < 0 || i >= b.size {
		return false
	}
	return b.words[i>>6]&(1<<(uint(i)&63)) != 0
}

// TestAndSet sets bit i and reports whether it was already set.
func (b *BitSet) TestAndSet(i int) bool {
	if b.Test(i) {
		return true
	}
	b.Set(i)
	return false
}

// Count returns the number of set bits.
func (b *BitSet) Count() int {
	n := 0
	for _, w := range b.words {
		n += bits.OnesCount64(w)
	}
	return n
}

// ClearAll clears every bit.
func (b *BitSet) ClearAll() {
	clear(b.words)
}

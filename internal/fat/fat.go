// Package fat implements the block allocator: a File-Allocation-Table of
// int32 slots, one per data block, stored little-endian in a byte sub-region.
//
// A slot holds Free, EndOfChain, or the index of the next block of the chain.
// Every operation that searches for free blocks is a linear scan over the
// table, O(len) in the worst case.
package fat

import (
	"encoding/binary"
	"errors"
)

const (
	// Free marks an unallocated block. It doubles as the "no block" value
	// for chain starts and cursors.
	Free int32 = -1
	// EndOfChain marks the last block of a chain.
	EndOfChain int32 = -2
)

// ErrNoSpace is returned when every block is allocated.
var ErrNoSpace = errors.New("fat: no free block")

// Table is a view over an allocation table.
// It is not safe for concurrent use.
type Table struct {
	buf []byte
	n   int
}

// New returns a table over buf. len(buf) must be a multiple of 4.
func New(buf []byte) *Table {
	return &Table{buf: buf, n: len(buf) / 4}
}

// Len returns the number of slots (data blocks).
func (t *Table) Len() int { return t.n }

// Get returns the raw slot value of block b.
func (t *Table) Get(b int32) int32 {
	return int32(binary.LittleEndian.Uint32(t.buf[int(b)*4:])) //nolint:gosec // round-trips int32
}

func (t *Table) set(b, v int32) {
	binary.LittleEndian.PutUint32(t.buf[int(b)*4:], uint32(v)) //nolint:gosec // round-trips int32
}

// Valid reports whether b addresses a block of the table.
func (t *Table) Valid(b int32) bool {
	return b >= 0 && int(b) < t.n
}

// Format marks every slot Free.
func (t *Table) Format() {
	for i := range t.n {
		t.set(int32(i), Free) //nolint:gosec // n fits int32 by layout
	}
}

// Allocate claims the first free block, marks it EndOfChain and returns it.
// The block is not linked into any chain.
func (t *Table) Allocate() (int32, error) {
	for i := range t.n {
		b := int32(i) //nolint:gosec // n fits int32 by layout
		if t.Get(b) == Free {
			t.set(b, EndOfChain)
			return b, nil
		}
	}
	return Free, ErrNoSpace
}

// Append links next behind tail.
func (t *Table) Append(tail, next int32) {
	t.set(tail, next)
}

// Next returns the block following b, or Free if b ends its chain.
func (t *Table) Next(b int32) int32 {
	next := t.Get(b)
	if next == EndOfChain {
		return Free
	}
	return next
}

// Release frees every block of the chain starting at start and returns the
// number of blocks released. Releasing Free is a no-op.
func (t *Table) Release(start int32) int {
	released := 0
	for b := start; t.Valid(b); {
		next := t.Get(b)
		if next == Free {
			break
		}
		t.set(b, Free)
		released++
		if next == EndOfChain {
			break
		}
		b = next
	}
	return released
}

// BlockAt walks logical links from start and returns the block backing the
// logical block index, or Free if the chain is shorter.
func (t *Table) BlockAt(start int32, logical int) int32 {
	b := start
	for i := 0; i < logical && b != Free; i++ {
		b = t.Next(b)
	}
	return b
}

// Tail returns the last block of the chain starting at start, or Free for
// an empty chain.
func (t *Table) Tail(start int32) int32 {
	if start == Free {
		return Free
	}
	b := start
	for {
		next := t.Next(b)
		if next == Free {
			return b
		}
		b = next
	}
}

// ChainLen returns the number of blocks in the chain starting at start.
func (t *Table) ChainLen(start int32) int {
	n := 0
	for b := start; b != Free; b = t.Next(b) {
		n++
	}
	return n
}

// Used returns the number of slots that are not Free.
func (t *Table) Used() int {
	used := 0
	for i := range t.n {
		if t.Get(int32(i)) != Free { //nolint:gosec // n fits int32 by layout
			used++
		}
	}
	return used
}

// Package region acquires the byte regions a file store lives in: plain
// heap memory, anonymous mappings outside the Go heap and shared file
// mappings whose contents outlive the process.
//
//	r, err := region.MapFile("arena.img", 4<<20)
//	if err != nil { ... }
//	defer r.Close()
//
//	fs, err := fatfs.Attach(r.Bytes())
//	if err != nil {
//	    fs, err = fatfs.New(r.Bytes())
//	}
package region

import (
	"errors"
	"fmt"

	"github.com/hupe1980/fatfs/internal/mem"
	"github.com/hupe1980/fatfs/internal/mmap"
	"github.com/hupe1980/fatfs/internal/resource"
)

// ErrBudgetExceeded is returned when a region would exceed its Budget.
var ErrBudgetExceeded = errors.New("region: memory budget exceeded")

// ErrInvalidSize is returned for a non-positive size.
var ErrInvalidSize = errors.New("region: invalid size")

// Budget caps the total size of the regions charged to it. A Budget may be
// shared by goroutines.
type Budget struct {
	b *resource.Budget
}

// NewBudget returns a budget of limit bytes. A limit of 0 only tracks usage.
func NewBudget(limit int64) *Budget {
	return &Budget{b: resource.NewBudget(limit)}
}

// Used returns the bytes currently charged.
func (b *Budget) Used() int64 { return b.b.Used() }

// Limit returns the configured limit, 0 if unlimited.
func (b *Budget) Limit() int64 { return b.b.Limit() }

// Peak returns the largest total charged at any one time.
func (b *Budget) Peak() int64 { return b.b.Peak() }

type options struct {
	budget *Budget
}

// Option configures region acquisition.
type Option func(*options)

// WithBudget charges the region to b until Close.
func WithBudget(b *Budget) Option {
	return func(o *options) {
		o.budget = b
	}
}

// Region is an acquired byte region. Close releases it; the bytes must not
// be used afterwards.
type Region struct {
	data    []byte
	mapping *mmap.Mapping // nil for heap regions
	budget  *Budget
}

// Bytes returns the region.
func (r *Region) Bytes() []byte { return r.data }

// Len returns the region size in bytes.
func (r *Region) Len() int { return len(r.data) }

// Sync flushes a file-backed region to its file. It is a no-op otherwise.
func (r *Region) Sync() error {
	if r.mapping == nil {
		return nil
	}
	return r.mapping.Sync()
}

// Close releases the region and its budget charge. It is idempotent.
func (r *Region) Close() error {
	if r.data == nil {
		return nil
	}
	size := int64(len(r.data))
	r.data = nil

	var err error
	if r.mapping != nil {
		err = r.mapping.Close()
	}
	if r.budget != nil {
		r.budget.b.Release(size)
	}
	return err
}

func acquire(size int, optFns []Option, alloc func() ([]byte, *mmap.Mapping, error)) (*Region, error) {
	if size <= 0 {
		return nil, ErrInvalidSize
	}
	var o options
	for _, fn := range optFns {
		fn(&o)
	}

	if o.budget != nil {
		if err := o.budget.b.Reserve(int64(size)); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrBudgetExceeded, err)
		}
	}

	data, m, err := alloc()
	if err != nil {
		if o.budget != nil {
			o.budget.b.Release(int64(size))
		}
		return nil, err
	}
	return &Region{data: data, mapping: m, budget: o.budget}, nil
}

// Heap allocates a page-aligned region on the Go heap.
func Heap(size int, opts ...Option) (*Region, error) {
	return acquire(size, opts, func() ([]byte, *mmap.Mapping, error) {
		return mem.AllocAligned(size, mem.PageSize), nil, nil
	})
}

// Anonymous maps a private zeroed region outside the Go heap.
func Anonymous(size int, opts ...Option) (*Region, error) {
	return acquire(size, opts, func() ([]byte, *mmap.Mapping, error) {
		m, err := mmap.MapAnon(size)
		if err != nil {
			return nil, nil, fmt.Errorf("region: anonymous mapping: %w", err)
		}
		_ = m.AdviseRandom()
		return m.Bytes(), m, nil
	})
}

// MapFile maps the file at path shared and read-write, creating it or
// growing it to size bytes as needed. Changes reach the file; call Sync to
// flush them.
func MapFile(path string, size int, opts ...Option) (*Region, error) {
	return acquire(size, opts, func() ([]byte, *mmap.Mapping, error) {
		m, err := mmap.MapFile(path, size)
		if err != nil {
			return nil, nil, fmt.Errorf("region: map %s: %w", path, err)
		}
		_ = m.AdviseRandom()
		return m.Bytes(), m, nil
	})
}

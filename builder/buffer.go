// Package builder encodes logical values into the buffers of Arrow C data
// interface arrays. Builders are write-once: values are appended in order,
// Release publishes the result into an (array, schema) pair exactly once, and
// the builder holds no memory afterwards.
package builder

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/hugr-lab/geoarrow-go/abi"
)

const (
	defaultCapacity = 1024
	growthFactor    = 2
)

// ErrReleased is returned by any operation on a builder that was already
// released.
var ErrReleased = errors.New("builder already released")

// BufferBuilder is a growable contiguous buffer of fixed-width elements
// backed by allocator memory.
type BufferBuilder[T arrow.FixedWidthType] struct {
	mem      memory.Allocator
	data     []byte
	capacity int64
	size     int64
	released bool
}

// NewBufferBuilder allocates room for capacity elements. A zero capacity
// allocates nothing until the first write.
func NewBufferBuilder[T arrow.FixedWidthType](mem memory.Allocator, capacity int64) (*BufferBuilder[T], error) {
	b := &BufferBuilder[T]{mem: mem}
	if err := b.Reallocate(capacity); err != nil {
		return nil, err
	}
	return b, nil
}

func elementSize[T arrow.FixedWidthType]() int64 {
	var zero T
	return int64(unsafe.Sizeof(zero))
}

// Size returns the number of elements written.
func (b *BufferBuilder[T]) Size() int64 { return b.size }

// Capacity returns the number of elements that fit without reallocating.
func (b *BufferBuilder[T]) Capacity() int64 { return b.capacity }

// RemainingCapacity returns Capacity() - Size().
func (b *BufferBuilder[T]) RemainingCapacity() int64 { return b.capacity - b.size }

// Data returns the written elements. The slice aliases the builder memory
// and is invalidated by the next write or by Release.
func (b *BufferBuilder[T]) Data() []T {
	return arrow.GetData[T](b.data)[:b.size]
}

// DataAtCursor returns the unwritten capacity for in-place writes; commit
// them with Advance.
func (b *BufferBuilder[T]) DataAtCursor() []T {
	return arrow.GetData[T](b.data)[b.size:b.capacity]
}

// Advance moves the cursor past n elements written through DataAtCursor.
func (b *BufferBuilder[T]) Advance(n int64) {
	b.size += n
}

// Reserve guarantees room for n more elements. When growing, the capacity
// becomes max(capacity*2+1, size+n).
func (b *BufferBuilder[T]) Reserve(n int64) error {
	if b.released {
		return ErrReleased
	}
	if b.size+n <= b.capacity {
		return nil
	}
	return b.Reallocate(max(b.capacity*growthFactor+1, b.size+n))
}

// Reallocate resizes the backing memory to exactly capacity elements.
func (b *BufferBuilder[T]) Reallocate(capacity int64) error {
	if b.released {
		return ErrReleased
	}
	if capacity == b.capacity {
		return nil
	}
	if capacity < b.size {
		return fmt.Errorf("%w: capacity %d below size %d", abi.ErrValidation, capacity, b.size)
	}

	data, err := abi.Reallocate(b.mem, int(capacity*elementSize[T]()), b.data)
	if err != nil {
		return fmt.Errorf("buffer builder capacity %d: %w", capacity, err)
	}
	b.data = data
	b.capacity = capacity
	return nil
}

// WriteElement appends one element.
func (b *BufferBuilder[T]) WriteElement(v T) error {
	if err := b.Reserve(1); err != nil {
		return err
	}
	arrow.GetData[T](b.data)[b.size] = v
	b.size++
	return nil
}

// WriteBuffer appends every element of values.
func (b *BufferBuilder[T]) WriteBuffer(values []T) error {
	if err := b.Reserve(int64(len(values))); err != nil {
		return err
	}
	copy(arrow.GetData[T](b.data)[b.size:], values)
	b.size += int64(len(values))
	return nil
}

// Release hands the written bytes to the caller, who becomes responsible for
// returning them to the allocator. The buffer is shrunk to Size() elements
// first; an empty builder releases nil.
func (b *BufferBuilder[T]) Release() ([]byte, error) {
	if b.released {
		return nil, ErrReleased
	}

	out, err := abi.Reallocate(b.mem, int(b.size*elementSize[T]()), b.data)
	if err != nil {
		return nil, fmt.Errorf("buffer builder release: %w", err)
	}

	b.data = nil
	b.capacity = 0
	b.size = 0
	b.released = true
	return out, nil
}

// Discard frees the backing memory without publishing it.
func (b *BufferBuilder[T]) Discard() {
	abi.Free(b.mem, b.data)
	b.data = nil
	b.capacity = 0
	b.size = 0
	b.released = true
}

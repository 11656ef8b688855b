package builder

import (
	"math"

	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/hugr-lab/geoarrow-go/abi"
)

// Float64ArrayBuilder builds a "g" array: validity and values buffers.
type Float64ArrayBuilder struct {
	base
	values *BufferBuilder[float64]
}

// NewFloat64ArrayBuilder allocates room for capacity values. A nil mem uses
// memory.DefaultAllocator.
func NewFloat64ArrayBuilder(mem memory.Allocator, capacity int64) (*Float64ArrayBuilder, error) {
	b := &Float64ArrayBuilder{base: newBase(mem, capacity)}
	values, err := NewBufferBuilder[float64](b.mem, capacity)
	if err != nil {
		return nil, err
	}
	b.values = values
	return b, nil
}

// Reserve makes room for n more values.
func (b *Float64ArrayBuilder) Reserve(n int64) error {
	if err := b.checkLive(); err != nil {
		return err
	}
	if err := b.validity.Reserve(n); err != nil {
		return err
	}
	return b.values.Reserve(n)
}

// WriteElement appends a valid value.
func (b *Float64ArrayBuilder) WriteElement(v float64) error {
	if err := b.checkLive(); err != nil {
		return err
	}
	if err := b.values.WriteElement(v); err != nil {
		return err
	}
	b.size++
	return b.validity.WriteElement(true)
}

// WriteNull appends a null slot. Its value bytes are unspecified.
func (b *Float64ArrayBuilder) WriteNull() error {
	if err := b.checkLive(); err != nil {
		return err
	}
	if err := b.values.WriteElement(math.NaN()); err != nil {
		return err
	}
	b.size++
	return b.validity.WriteElement(false)
}

// WriteBuffer appends valid values.
func (b *Float64ArrayBuilder) WriteBuffer(values []float64) error {
	if err := b.checkLive(); err != nil {
		return err
	}
	if err := b.values.WriteBuffer(values); err != nil {
		return err
	}
	b.size += int64(len(values))
	return b.validity.WriteValid(int64(len(values)))
}

// Release publishes the array into arrayOut/schemaOut.
func (b *Float64ArrayBuilder) Release(arrayOut *abi.ArrowArray, schemaOut *abi.ArrowSchema) error {
	if err := b.checkLive(); err != nil {
		return err
	}
	b.released = true

	f := abi.NewFinalizer(b.mem)
	defer f.Close()
	defer b.Discard()

	f.Allocate(2, 0)
	f.Schema.Format = abi.FormatFloat64
	f.Array.Length = b.size
	f.Array.NullCount = b.validity.NullCount()

	var err error
	if f.Array.Buffers[0], err = b.validity.Release(); err != nil {
		return err
	}
	if f.Array.Buffers[1], err = b.values.Release(); err != nil {
		return err
	}

	return f.Release(arrayOut, schemaOut)
}

// Discard frees any memory the builder still owns.
func (b *Float64ArrayBuilder) Discard() {
	b.released = true
	b.validity.Discard()
	b.values.Discard()
}

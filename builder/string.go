package builder

import (
	"math"

	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/hugr-lab/geoarrow-go/abi"
)

// StringArrayBuilder builds a "u" array (validity, int32 offsets, data) and
// switches to "U" with int64 offsets once the data would no longer be
// addressable by an int32 offset. The switch is irreversible.
type StringArrayBuilder struct {
	base
	isLarge     bool
	itemSize    int64
	offsetLimit int64

	offsets      *BufferBuilder[int32]
	largeOffsets *BufferBuilder[int64]
	data         *BufferBuilder[uint8]
}

// NewStringArrayBuilder allocates room for capacity items and dataSizeGuess
// bytes of data. A nil mem uses memory.DefaultAllocator.
func NewStringArrayBuilder(mem memory.Allocator, capacity, dataSizeGuess int64) (*StringArrayBuilder, error) {
	b := &StringArrayBuilder{
		base:        newBase(mem, capacity),
		offsetLimit: math.MaxInt32,
	}

	var err error
	if b.offsets, err = NewBufferBuilder[int32](b.mem, capacity+1); err != nil {
		return nil, err
	}
	if b.data, err = NewBufferBuilder[uint8](b.mem, dataSizeGuess); err != nil {
		b.offsets.Discard()
		return nil, err
	}
	if err = b.offsets.WriteElement(0); err != nil {
		b.Discard()
		return nil, err
	}
	return b, nil
}

// IsLarge reports whether the builder has switched to 64-bit offsets.
func (b *StringArrayBuilder) IsLarge() bool { return b.isLarge }

// Reserve makes room for n more items.
func (b *StringArrayBuilder) Reserve(n int64) error {
	if err := b.checkLive(); err != nil {
		return err
	}
	if err := b.validity.Reserve(n); err != nil {
		return err
	}
	if b.isLarge {
		return b.largeOffsets.Reserve(n)
	}
	if b.needsMakeLarge(n) {
		if err := b.makeLarge(); err != nil {
			return err
		}
		return b.largeOffsets.Reserve(n)
	}
	return b.offsets.Reserve(n)
}

// ReserveData makes room for n more data bytes, switching to large offsets
// first when needed.
func (b *StringArrayBuilder) ReserveData(n int64) error {
	if err := b.checkLive(); err != nil {
		return err
	}
	if b.needsMakeLarge(n) {
		if err := b.makeLarge(); err != nil {
			return err
		}
	}
	return b.data.Reserve(n)
}

// RemainingDataCapacity returns the number of data bytes that fit without
// reallocating.
func (b *StringArrayBuilder) RemainingDataCapacity() int64 {
	return b.data.RemainingCapacity()
}

// DataAtCursor exposes the reserved data bytes for in-place writes. Commit
// them with AdvanceData.
func (b *StringArrayBuilder) DataAtCursor() []byte {
	return b.data.DataAtCursor()
}

// AdvanceData commits n bytes written through DataAtCursor to the current
// item.
func (b *StringArrayBuilder) AdvanceData(n int64) {
	b.data.Advance(n)
	b.itemSize += n
}

// WriteBuffer appends bytes to the current item.
func (b *StringArrayBuilder) WriteBuffer(p []byte) error {
	if err := b.checkLive(); err != nil {
		return err
	}
	if b.needsMakeLarge(int64(len(p))) {
		if err := b.makeLarge(); err != nil {
			return err
		}
	}
	if err := b.data.WriteBuffer(p); err != nil {
		return err
	}
	b.itemSize += int64(len(p))
	return nil
}

// FinishElement closes the current item, recording its end offset and
// validity.
func (b *StringArrayBuilder) FinishElement(notNull bool) error {
	if err := b.checkLive(); err != nil {
		return err
	}

	var err error
	if b.isLarge {
		err = b.largeOffsets.WriteElement(b.data.Size())
	} else {
		err = b.offsets.WriteElement(int32(b.data.Size()))
	}
	if err != nil {
		return err
	}

	b.itemSize = 0
	b.size++
	return b.validity.WriteElement(notNull)
}

// WriteElement appends s as one valid item.
func (b *StringArrayBuilder) WriteElement(s string) error {
	if err := b.WriteBuffer([]byte(s)); err != nil {
		return err
	}
	return b.FinishElement(true)
}

// WriteNull appends a null item.
func (b *StringArrayBuilder) WriteNull() error {
	return b.FinishElement(false)
}

// Release publishes the array into arrayOut/schemaOut.
func (b *StringArrayBuilder) Release(arrayOut *abi.ArrowArray, schemaOut *abi.ArrowSchema) error {
	if err := b.checkLive(); err != nil {
		return err
	}
	b.released = true

	f := abi.NewFinalizer(b.mem)
	defer f.Close()
	defer b.Discard()

	f.Allocate(3, 0)
	f.Array.Length = b.size
	f.Array.NullCount = b.validity.NullCount()

	var err error
	if f.Array.Buffers[0], err = b.validity.Release(); err != nil {
		return err
	}
	if f.Array.Buffers[2], err = b.data.Release(); err != nil {
		return err
	}
	if b.isLarge {
		f.Schema.Format = abi.FormatLargeString
		f.Array.Buffers[1], err = b.largeOffsets.Release()
	} else {
		f.Schema.Format = abi.FormatString
		f.Array.Buffers[1], err = b.offsets.Release()
	}
	if err != nil {
		return err
	}

	return f.Release(arrayOut, schemaOut)
}

// Discard frees any memory the builder still owns.
func (b *StringArrayBuilder) Discard() {
	b.released = true
	b.validity.Discard()
	b.offsets.Discard()
	if b.largeOffsets != nil {
		b.largeOffsets.Discard()
	}
	b.data.Discard()
}

func (b *StringArrayBuilder) needsMakeLarge(n int64) bool {
	return !b.isLarge && b.data.Size()+n > b.offsetLimit
}

// makeLarge copies every int32 offset into a fresh int64 buffer and drops
// the int32 one.
func (b *StringArrayBuilder) makeLarge() error {
	large, err := NewBufferBuilder[int64](b.mem, b.offsets.Capacity())
	if err != nil {
		return err
	}
	for _, o := range b.offsets.Data() {
		// capacity covers every existing offset
		_ = large.WriteElement(int64(o))
	}

	b.offsets.Discard()
	b.largeOffsets = large
	b.isLarge = true
	return nil
}

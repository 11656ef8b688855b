package builder

import (
	"github.com/apache/arrow-go/v18/arrow/bitutil"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// BitmapBuilder packs validity bits eight per byte, least significant bit
// first. While every element written is valid no memory is allocated at
// all; the first invalid element materializes a bitmap whose earlier bits
// are all set.
type BitmapBuilder struct {
	mem      memory.Allocator
	capacity int64

	// nil while the bitmap is implicitly all-valid
	bytes *BufferBuilder[uint8]

	current       uint8
	bitsInCurrent int
	size          int64
	nullCount     int64
	released      bool
}

// NewBitmapBuilder returns an implicitly all-valid bitmap. capacity is a hint
// in bits used once the bitmap materializes. A non-zero nullCountGuess
// materializes it immediately.
func NewBitmapBuilder(mem memory.Allocator, capacity, nullCountGuess int64) (*BitmapBuilder, error) {
	b := &BitmapBuilder{mem: mem, capacity: capacity}
	if nullCountGuess != 0 {
		if err := b.materialize(); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// Size returns the number of bits written.
func (b *BitmapBuilder) Size() int64 { return b.size }

// NullCount returns the number of invalid bits written.
func (b *BitmapBuilder) NullCount() int64 { return b.nullCount }

// Materialized reports whether a backing buffer exists.
func (b *BitmapBuilder) Materialized() bool { return b.bytes != nil }

// Capacity returns the number of bits that fit without reallocating.
func (b *BitmapBuilder) Capacity() int64 {
	if b.bytes == nil {
		return 0
	}
	return b.bytes.Capacity() * 8
}

// Reserve makes room for n more bits. It does nothing while the bitmap is
// implicitly all-valid.
func (b *BitmapBuilder) Reserve(n int64) error {
	if b.released {
		return ErrReleased
	}
	if b.bytes == nil {
		return nil
	}
	return b.bytes.Reserve(bitutil.BytesForBits(b.size+n) - b.bytes.Size())
}

// WriteElement appends one validity bit.
func (b *BitmapBuilder) WriteElement(valid bool) error {
	if b.released {
		return ErrReleased
	}
	if !valid && b.bytes == nil {
		if err := b.materialize(); err != nil {
			return err
		}
	}

	if valid {
		b.current |= 1 << b.bitsInCurrent
	} else {
		b.nullCount++
	}
	b.bitsInCurrent++
	b.size++

	if b.bitsInCurrent == 8 {
		return b.flush()
	}
	return nil
}

// WriteValid appends n valid bits.
func (b *BitmapBuilder) WriteValid(n int64) error {
	if b.released {
		return ErrReleased
	}
	if b.bytes == nil {
		b.size += n
		b.bitsInCurrent = int(b.size % 8)
		b.current = uint8(1)<<b.bitsInCurrent - 1
		return nil
	}

	for ; n > 0 && b.bitsInCurrent != 0; n-- {
		if err := b.WriteElement(true); err != nil {
			return err
		}
	}
	if full := n / 8; full > 0 {
		if err := b.fillValid(full); err != nil {
			return err
		}
		b.size += full * 8
		n -= full * 8
	}
	for ; n > 0; n-- {
		if err := b.WriteElement(true); err != nil {
			return err
		}
	}
	return nil
}

// Release returns the packed bitmap, or nil if no invalid bit was ever
// written. The trailing partial byte is padded with valid bits.
func (b *BitmapBuilder) Release() ([]byte, error) {
	if b.released {
		return nil, ErrReleased
	}
	if b.bytes == nil {
		b.released = true
		return nil, nil
	}

	if b.bitsInCurrent > 0 {
		b.current |= ^(uint8(1)<<b.bitsInCurrent - 1)
		if err := b.bytes.WriteElement(b.current); err != nil {
			return nil, err
		}
		b.current = 0
		b.bitsInCurrent = 0
	}

	out, err := b.bytes.Release()
	if err != nil {
		return nil, err
	}
	b.bytes = nil
	b.released = true
	return out, nil
}

// Discard frees the bitmap without publishing it.
func (b *BitmapBuilder) Discard() {
	if b.bytes != nil {
		b.bytes.Discard()
		b.bytes = nil
	}
	b.released = true
}

func (b *BitmapBuilder) flush() error {
	if b.bytes != nil {
		if err := b.bytes.WriteElement(b.current); err != nil {
			return err
		}
	}
	b.current = 0
	b.bitsInCurrent = 0
	return nil
}

// materialize switches to an explicit bitmap, backfilling a set bit for every
// element accepted so far. The pending partial byte already holds them.
func (b *BitmapBuilder) materialize() error {
	bytes, err := NewBufferBuilder[uint8](b.mem, max(bitutil.BytesForBits(b.capacity), b.size/8+1))
	if err != nil {
		return err
	}
	b.bytes = bytes
	return b.fillValid(b.size / 8)
}

func (b *BitmapBuilder) fillValid(nbytes int64) error {
	if err := b.bytes.Reserve(nbytes); err != nil {
		return err
	}
	cursor := b.bytes.DataAtCursor()[:nbytes]
	for i := range cursor {
		cursor[i] = 0xff
	}
	b.bytes.Advance(nbytes)
	return nil
}

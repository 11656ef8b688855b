package builder

import (
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/hugr-lab/geoarrow-go/abi"
)

// ArrayBuilder is implemented by every typed array builder.
//
// Release is the only way to publish a builder's contents: it moves every
// owned buffer into arrayOut/schemaOut, which must both be released nodes.
// Releasing a builder twice returns ErrReleased. Discard frees whatever the
// builder still owns and is safe to call after Release.
type ArrayBuilder interface {
	Size() int64
	Reserve(n int64) error
	Release(arrayOut *abi.ArrowArray, schemaOut *abi.ArrowSchema) error
	Discard()
}

// base holds the row count and validity bitmap shared by all builders.
type base struct {
	mem      memory.Allocator
	size     int64
	validity *BitmapBuilder
	released bool
}

func newBase(mem memory.Allocator, capacity int64) base {
	if mem == nil {
		mem = memory.DefaultAllocator
	}
	// allocates nothing with a zero null count guess
	validity, _ := NewBitmapBuilder(mem, capacity, 0)
	return base{mem: mem, validity: validity}
}

func (b *base) Size() int64 { return b.size }

// NullCount returns the number of null rows written so far.
func (b *base) NullCount() int64 { return b.validity.NullCount() }

func (b *base) checkLive() error {
	if b.released {
		return ErrReleased
	}
	return nil
}

package builder

import (
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// failingAllocator panics once more than budget bytes would be outstanding.
type failingAllocator struct {
	memory.Allocator
	budget int
	used   int
}

func newFailingAllocator(budget int) *failingAllocator {
	return &failingAllocator{
		Allocator: memory.NewCheckedAllocator(memory.NewGoAllocator()),
		budget:    budget,
	}
}

func (a *failingAllocator) Allocate(size int) []byte {
	if a.used+size > a.budget {
		panic("out of memory")
	}
	a.used += size
	return a.Allocator.Allocate(size)
}

func (a *failingAllocator) Reallocate(size int, b []byte) []byte {
	if a.used+size-len(b) > a.budget {
		panic("out of memory")
	}
	a.used += size - len(b)
	return a.Allocator.Reallocate(size, b)
}

func (a *failingAllocator) Free(b []byte) {
	a.used -= len(b)
	a.Allocator.Free(b)
}

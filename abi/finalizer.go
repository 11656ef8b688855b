package abi

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow/memory"
)

// Finalizer owns one (array, schema) pair while it is being populated.
// Anything attached to Array or Schema before Release is freed by Close, so
// the intended pattern is:
//
//	f := abi.NewFinalizer(mem)
//	defer f.Close()
//	f.Allocate(2, 0)
//	... populate f.Array and f.Schema ...
//	return f.Release(arrayOut, schemaOut)
type Finalizer struct {
	Array  ArrowArray
	Schema ArrowSchema

	mem memory.Allocator
}

// NewFinalizer returns a guard whose nodes allocate from mem.
func NewFinalizer(mem memory.Allocator) *Finalizer {
	return &Finalizer{mem: mem}
}

// Allocator returns the allocator the guarded nodes free through.
func (f *Finalizer) Allocator() memory.Allocator { return f.mem }

// Allocate initializes both nodes with nBuffers buffer slots and nChildren
// child slots.
func (f *Finalizer) Allocate(nBuffers, nChildren int) {
	AllocateArray(f.mem, &f.Array, nBuffers, nChildren)
	AllocateSchema(f.mem, &f.Schema, nChildren)
}

// Release moves the guarded pair into arrayOut and schemaOut. Both outputs
// must be non-nil and released, otherwise their contents would leak.
func (f *Finalizer) Release(arrayOut *ArrowArray, schemaOut *ArrowSchema) error {
	switch {
	case arrayOut == nil:
		return fmt.Errorf("%w: output array is nil", ErrValidation)
	case schemaOut == nil:
		return fmt.Errorf("%w: output schema is nil", ErrValidation)
	case !arrayOut.IsReleased():
		return fmt.Errorf("%w: output array is not released", ErrValidation)
	case !schemaOut.IsReleased():
		return fmt.Errorf("%w: output schema is not released", ErrValidation)
	}

	*arrayOut = f.Array
	f.Array = ArrowArray{}

	*schemaOut = f.Schema
	f.Schema = ArrowSchema{}

	return nil
}

// Close releases whatever the guard still owns. It is a no-op after a
// successful Release.
func (f *Finalizer) Close() {
	f.Array.Release()
	f.Schema.Release()
}

package abi

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow/memory"
)

// Allocate returns n zeroed bytes from mem. An allocator panic is reported
// as ErrAllocation.
func Allocate(mem memory.Allocator, n int) (b []byte, err error) {
	if n == 0 {
		return nil, nil
	}
	defer func() {
		if r := recover(); r != nil {
			b = nil
			err = fmt.Errorf("%w: %d bytes: %v", ErrAllocation, n, r)
		}
	}()
	b = mem.Allocate(n)
	if len(b) != n {
		return nil, fmt.Errorf("%w: %d bytes: allocator returned %d", ErrAllocation, n, len(b))
	}
	return b, nil
}

// Reallocate resizes b (previously returned by Allocate or Reallocate on the
// same allocator) to n bytes. On failure b is left untouched and still owned
// by the caller.
func Reallocate(mem memory.Allocator, n int, b []byte) (out []byte, err error) {
	switch {
	case len(b) == 0:
		return Allocate(mem, n)
	case n == 0:
		Free(mem, b)
		return nil, nil
	}
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = fmt.Errorf("%w: resize %d to %d bytes: %v", ErrAllocation, len(b), n, r)
		}
	}()
	out = mem.Reallocate(n, b)
	return out, nil
}

// Free returns b to mem. Free on an empty slice is a no-op.
func Free(mem memory.Allocator, b []byte) {
	if len(b) == 0 {
		return
	}
	mem.Free(b)
}

// AllocateSchema populates schema as an empty, nullable node whose release
// callback frees its metadata through mem and releases every child and the
// dictionary. Each of the n children starts in the released state.
func AllocateSchema(mem memory.Allocator, schema *ArrowSchema, nChildren int) {
	*schema = ArrowSchema{
		Flags:       FlagNullable,
		ReleaseFunc: schemaReleaser(mem),
	}
	if nChildren > 0 {
		schema.Children = make([]*ArrowSchema, nChildren)
		for i := range schema.Children {
			schema.Children[i] = &ArrowSchema{}
		}
	}
	// the dictionary stays nil for non-dictionary-encoded arrays
}

// AllocateArray populates array as an empty node with nBuffers zeroed buffer
// slots and nChildren released child nodes. NullCount starts unknown.
func AllocateArray(mem memory.Allocator, array *ArrowArray, nBuffers, nChildren int) {
	*array = ArrowArray{
		NullCount:   UnknownNullCount,
		ReleaseFunc: arrayReleaser(mem),
	}
	if nBuffers > 0 {
		array.Buffers = make([][]byte, nBuffers)
	}
	if nChildren > 0 {
		array.Children = make([]*ArrowArray, nChildren)
		for i := range array.Children {
			array.Children[i] = &ArrowArray{}
		}
	}
}

// SetMetadata replaces the metadata bytes of a schema allocated with
// AllocateSchema.
func SetMetadata(mem memory.Allocator, schema *ArrowSchema, md []byte) error {
	encoded, err := Allocate(mem, len(md))
	if err != nil {
		return fmt.Errorf("schema metadata: %w", err)
	}
	copy(encoded, md)
	Free(mem, schema.Metadata)
	schema.Metadata = encoded
	return nil
}

func schemaReleaser(mem memory.Allocator) func(*ArrowSchema) {
	return func(schema *ArrowSchema) {
		if schema == nil || schema.ReleaseFunc == nil {
			return
		}

		Free(mem, schema.Metadata)
		schema.Metadata = nil

		// children may have been produced elsewhere and carry their own
		// release callback
		for i, child := range schema.Children {
			if child != nil {
				child.Release()
				schema.Children[i] = nil
			}
		}
		schema.Children = nil

		if schema.Dictionary != nil {
			schema.Dictionary.Release()
			schema.Dictionary = nil
		}

		schema.PrivateData = nil
		schema.ReleaseFunc = nil
	}
}

func arrayReleaser(mem memory.Allocator) func(*ArrowArray) {
	return func(array *ArrowArray) {
		if array == nil || array.ReleaseFunc == nil {
			return
		}

		for i, buf := range array.Buffers {
			Free(mem, buf)
			array.Buffers[i] = nil
		}
		array.Buffers = nil

		for i, child := range array.Children {
			if child != nil {
				child.Release()
				array.Children[i] = nil
			}
		}
		array.Children = nil

		if array.Dictionary != nil {
			array.Dictionary.Release()
			array.Dictionary = nil
		}

		array.PrivateData = nil
		array.ReleaseFunc = nil
	}
}

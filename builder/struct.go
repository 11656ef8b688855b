package builder

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/hugr-lab/geoarrow-go/abi"
)

// StructArrayBuilder builds a "+s" array from named child builders that all
// hold the same number of rows.
type StructArrayBuilder struct {
	base
	names    []string
	children []ArrayBuilder
}

// NewStructArrayBuilder returns an empty struct builder. A nil mem uses
// memory.DefaultAllocator.
func NewStructArrayBuilder(mem memory.Allocator) *StructArrayBuilder {
	return &StructArrayBuilder{base: newBase(mem, 0)}
}

// NumChildren returns the number of bound children.
func (b *StructArrayBuilder) NumChildren() int { return len(b.children) }

// AddChild binds child under name. Every child must report the same Size();
// on mismatch nothing is bound and the caller keeps ownership of child.
func (b *StructArrayBuilder) AddChild(child ArrayBuilder, name string) error {
	if err := b.checkLive(); err != nil {
		return err
	}
	if err := b.setSize(child.Size()); err != nil {
		return err
	}
	b.names = append(b.names, name)
	b.children = append(b.children, child)
	return nil
}

// WriteValidity appends one row-level validity bit. Rows are valid unless
// written otherwise.
func (b *StructArrayBuilder) WriteValidity(valid bool) error {
	if err := b.checkLive(); err != nil {
		return err
	}
	return b.validity.WriteElement(valid)
}

// Reserve is a no-op: rows are reserved through the children.
func (b *StructArrayBuilder) Reserve(int64) error {
	return b.checkLive()
}

// Release publishes the struct and all of its children, in the order they
// were added.
func (b *StructArrayBuilder) Release(arrayOut *abi.ArrowArray, schemaOut *abi.ArrowSchema) error {
	if err := b.checkLive(); err != nil {
		return err
	}
	if n := b.validity.Size(); n != 0 && n != b.size {
		return fmt.Errorf("%w: struct validity has %d rows, children have %d",
			abi.ErrValidation, n, b.size)
	}
	b.released = true

	f := abi.NewFinalizer(b.mem)
	defer f.Close()
	defer b.Discard()

	f.Allocate(1, len(b.children))
	f.Schema.Format = abi.FormatStruct
	f.Array.Length = b.size
	f.Array.NullCount = b.validity.NullCount()

	var err error
	if f.Array.Buffers[0], err = b.validity.Release(); err != nil {
		return err
	}

	for i, child := range b.children {
		if err := child.Release(f.Array.Children[i], f.Schema.Children[i]); err != nil {
			return fmt.Errorf("release child %q: %w", b.names[i], err)
		}
		f.Schema.Children[i].Name = b.names[i]
	}

	return f.Release(arrayOut, schemaOut)
}

// Discard frees the validity bitmap and every child still owned.
func (b *StructArrayBuilder) Discard() {
	b.released = true
	b.validity.Discard()
	for _, child := range b.children {
		child.Discard()
	}
}

func (b *StructArrayBuilder) setSize(size int64) error {
	if len(b.children) > 0 && size != b.size {
		return fmt.Errorf("%w: attempt to resize a struct builder from %d to %d rows",
			abi.ErrValidation, b.size, size)
	}
	b.size = size
	return nil
}

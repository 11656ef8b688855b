package abi

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// ToArrow wraps a live node pair as an arrow-go array without copying any
// buffer. The returned array borrows the node's memory: it must be released
// before the node is, and must not outlive it.
//
// Extension types registered with arrow.RegisterExtensionType are rebuilt
// from the ARROW:extension:* metadata keys.
func ToArrow(arr *ArrowArray, schema *ArrowSchema) (arrow.Field, arrow.Array, error) {
	if arr.IsReleased() {
		return arrow.Field{}, nil, fmt.Errorf("%w: array is released", ErrValidation)
	}
	if schema.IsReleased() {
		return arrow.Field{}, nil, fmt.Errorf("%w: schema is released", ErrValidation)
	}

	field, err := importField(schema)
	if err != nil {
		return arrow.Field{}, nil, err
	}

	data, err := importData(arr, field.Type)
	if err != nil {
		return arrow.Field{}, nil, err
	}
	defer data.Release()

	return field, array.MakeFromData(data), nil
}

// FromArrow publishes an arrow-go array into arrayOut/schemaOut. The array
// node is foreign-owned: it references arr's buffers and its release callback
// drops the reference taken here. The schema node is allocated from mem.
func FromArrow(mem memory.Allocator, field arrow.Field, arr arrow.Array, arrayOut *ArrowArray, schemaOut *ArrowSchema) error {
	if arr == nil {
		return fmt.Errorf("%w: array is nil", ErrValidation)
	}

	f := NewFinalizer(mem)
	defer f.Close()

	if err := exportField(mem, field, &f.Schema); err != nil {
		return fmt.Errorf("export field %q: %w", field.Name, err)
	}
	borrowData(arr.Data(), &f.Array)

	return f.Release(arrayOut, schemaOut)
}

func importField(schema *ArrowSchema) (arrow.Field, error) {
	if schema.Dictionary != nil {
		return arrow.Field{}, fmt.Errorf("%w: dictionary-encoded field %q is not supported",
			ErrValidation, schema.Name)
	}

	children := make([]arrow.Field, len(schema.Children))
	for i, child := range schema.Children {
		if child == nil {
			return arrow.Field{}, fmt.Errorf("%w: field %q child %d is nil", ErrValidation, schema.Name, i)
		}
		f, err := importField(child)
		if err != nil {
			return arrow.Field{}, err
		}
		children[i] = f
	}

	md, err := DecodeMetadata(schema.Metadata)
	if err != nil {
		return arrow.Field{}, fmt.Errorf("field %q: %w", schema.Name, err)
	}

	dt, err := typeOf(schema.Format, children)
	if err != nil {
		return arrow.Field{}, fmt.Errorf("field %q: %w", schema.Name, err)
	}

	if name, ok := md.GetValue(ExtensionNameKey); ok {
		if ext := arrow.GetExtensionType(name); ext != nil {
			serialized, _ := md.GetValue(ExtensionMetadataKey)
			extType, err := ext.Deserialize(dt, serialized)
			if err != nil {
				return arrow.Field{}, fmt.Errorf("%w: field %q: %v", ErrValidation, schema.Name, err)
			}
			dt = extType
			md = withoutKeys(md, ExtensionNameKey, ExtensionMetadataKey)
		}
	}

	return arrow.Field{
		Name:     schema.Name,
		Type:     dt,
		Nullable: schema.Nullable(),
		Metadata: md,
	}, nil
}

func importData(arr *ArrowArray, dt arrow.DataType) (arrow.ArrayData, error) {
	storage := dt
	if ext, ok := dt.(arrow.ExtensionType); ok {
		storage = ext.StorageType()
	}

	var childTypes []arrow.DataType
	switch t := storage.(type) {
	case *arrow.ListType:
		childTypes = []arrow.DataType{t.Elem()}
	case *arrow.LargeListType:
		childTypes = []arrow.DataType{t.Elem()}
	case *arrow.FixedSizeListType:
		childTypes = []arrow.DataType{t.Elem()}
	case *arrow.StructType:
		for _, f := range t.Fields() {
			childTypes = append(childTypes, f.Type)
		}
	}
	if len(childTypes) != len(arr.Children) {
		return nil, fmt.Errorf("%w: %s expects %d children, array has %d",
			ErrValidation, dt, len(childTypes), len(arr.Children))
	}

	children := make([]arrow.ArrayData, 0, len(childTypes))
	defer func() {
		for _, c := range children {
			c.Release()
		}
	}()
	for i, child := range arr.Children {
		if child.IsReleased() {
			return nil, fmt.Errorf("%w: child %d is released", ErrValidation, i)
		}
		c, err := importData(child, childTypes[i])
		if err != nil {
			return nil, err
		}
		children = append(children, c)
	}

	buffers := make([]*memory.Buffer, len(arr.Buffers))
	for i, b := range arr.Buffers {
		if b != nil {
			buffers[i] = memory.NewBufferBytes(b)
		}
	}

	return array.NewData(dt, int(arr.Length), buffers, children,
		int(arr.NullCount), int(arr.Offset)), nil
}

func exportField(mem memory.Allocator, field arrow.Field, schema *ArrowSchema) error {
	dt := field.Type
	md := field.Metadata
	if ext, ok := dt.(arrow.ExtensionType); ok {
		md = withExtension(md, ext)
		dt = ext.StorageType()
	}
	if dt.ID() == arrow.DICTIONARY {
		return fmt.Errorf("%w: dictionary-encoded field %q is not supported", ErrValidation, field.Name)
	}

	format, children, err := formatOf(dt)
	if err != nil {
		return err
	}

	AllocateSchema(mem, schema, len(children))
	schema.Format = format
	schema.Name = field.Name
	if !field.Nullable {
		schema.Flags &^= FlagNullable
	}

	encoded, err := EncodeMetadata(mem, md)
	if err != nil {
		return err
	}
	schema.Metadata = encoded

	for i, child := range children {
		if err := exportField(mem, child, schema.Children[i]); err != nil {
			return fmt.Errorf("child %q: %w", child.Name, err)
		}
	}
	return nil
}

// borrowData points out at data's buffers and takes a reference that the
// node's release callback gives back.
func borrowData(data arrow.ArrayData, out *ArrowArray) {
	data.Retain()

	*out = ArrowArray{
		Length:    int64(data.Len()),
		NullCount: int64(data.NullN()),
		Offset:    int64(data.Offset()),
		Buffers:   make([][]byte, len(data.Buffers())),
	}
	for i, b := range data.Buffers() {
		if b != nil {
			out.Buffers[i] = b.Bytes()
		}
	}

	if children := data.Children(); len(children) > 0 {
		out.Children = make([]*ArrowArray, len(children))
		for i, c := range children {
			out.Children[i] = &ArrowArray{}
			borrowData(c, out.Children[i])
		}
	}
	// Dictionary returns a typed nil when there is none.
	if dict, ok := data.Dictionary().(*array.Data); ok && dict != nil {
		out.Dictionary = &ArrowArray{}
		borrowData(dict, out.Dictionary)
	}

	out.PrivateData = data
	out.ReleaseFunc = func(a *ArrowArray) {
		for _, c := range a.Children {
			c.Release()
		}
		a.Dictionary.Release()
		if d, ok := a.PrivateData.(arrow.ArrayData); ok {
			d.Release()
		}
		*a = ArrowArray{}
	}
}

func withExtension(md arrow.Metadata, ext arrow.ExtensionType) arrow.Metadata {
	keys := []string{ExtensionNameKey, ExtensionMetadataKey}
	vals := []string{ext.ExtensionName(), ext.Serialize()}
	rest := withoutKeys(md, keys...)
	return arrow.NewMetadata(append(keys, rest.Keys()...), append(vals, rest.Values()...))
}

func withoutKeys(md arrow.Metadata, drop ...string) arrow.Metadata {
	keys := make([]string, 0, md.Len())
	vals := make([]string, 0, md.Len())
outer:
	for i, k := range md.Keys() {
		for _, d := range drop {
			if k == d {
				continue outer
			}
		}
		keys = append(keys, k)
		vals = append(vals, md.Values()[i])
	}
	return arrow.NewMetadata(keys, vals)
}

package view

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/hugr-lab/geoarrow-go/abi"
	"github.com/hugr-lab/geoarrow-go/handler"
	"github.com/hugr-lab/geoarrow-go/meta"
)

// layout locates the bytes of one value in a binary-like array.
type layout struct {
	check func(array *abi.ArrowArray) error
	value func(array *abi.ArrowArray, i int64) []byte
}

func binaryLayout[O int32 | int64]() layout {
	var zero O
	size := int64(arrow.Int32SizeBytes)
	if any(zero) == any(int64(0)) {
		size = int64(arrow.Int64SizeBytes)
	}

	return layout{
		check: func(array *abi.ArrowArray) error {
			if err := checkNode(array, 3, 0); err != nil {
				return err
			}
			if array.Length == 0 {
				return nil
			}
			if err := checkBuffer(array, 1, (array.Offset+array.Length+1)*size); err != nil {
				return err
			}
			offsets := arrow.GetData[O](array.Buffers[1])
			return checkOffsets(offsets[array.Offset:array.Offset+array.Length+1], int64(len(array.Buffers[2])))
		},
		value: func(array *abi.ArrowArray, i int64) []byte {
			offsets := arrow.GetData[O](array.Buffers[1])
			j := array.Offset + i
			return array.Buffers[2][offsets[j]:offsets[j+1]]
		},
	}
}

func fixedWidthLayout(width int) layout {
	w := int64(width)
	return layout{
		check: func(array *abi.ArrowArray) error {
			if err := checkNode(array, 2, 0); err != nil {
				return err
			}
			if array.Length == 0 {
				return nil
			}
			return checkBuffer(array, 1, (array.Offset+array.Length)*w)
		},
		value: func(array *abi.ArrowArray, i int64) []byte {
			from := (array.Offset + i) * w
			return array.Buffers[1][from : from+w]
		},
	}
}

// decoder emits the events of one serialized geometry, including its
// NewGeometryType and NewDimensions.
type decoder func(data []byte, h handler.Handler) (handler.Result, error)

type serializedView struct {
	base
	layout layout
	decode decoder
}

func newSerializedView(schema *abi.ArrowSchema, m meta.Meta, l layout, decode decoder) serializedView {
	return serializedView{base: base{schema: schema, meta: m}, layout: l, decode: decode}
}

// Dimensions is unknown for serialized encodings. Each feature reports its
// own through NewDimensions.
func (v *serializedView) Dimensions() meta.Dimensions { return meta.DimensionsUnknown }

// Read decodes every non-null value and emits its events.
func (v *serializedView) Read(array *abi.ArrowArray, h handler.Handler) error {
	if err := v.layout.check(array); err != nil {
		return fmt.Errorf("%s array: %w", v.meta.Extension, err)
	}
	return readArray(v, array, h, false, func(array *abi.ArrowArray, i int64) (handler.Result, error) {
		return v.decode(v.layout.value(array, i), h)
	})
}

// WKBArrayView reads well-known binary from a "z" array.
type WKBArrayView struct{ serializedView }

// LargeWKBArrayView reads well-known binary from a "Z" array.
type LargeWKBArrayView struct{ serializedView }

// FixedWidthWKBArrayView reads well-known binary from a "w:N" array.
type FixedWidthWKBArrayView struct{ serializedView }

// WKTArrayView reads well-known text from a "u" or "z" array.
type WKTArrayView struct{ serializedView }

// LargeWKTArrayView reads well-known text from a "U" or "Z" array.
type LargeWKTArrayView struct{ serializedView }

//go:build cgo
// +build cgo

package abi

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow/cdata"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// ExportC hands a node pair to a C consumer through the real struct
// ArrowArray/ArrowSchema. The exported structs reference the node's buffers,
// so the node must stay live until the consumer calls their release.
//
// Only the node's data type is exported: registered extension types keep
// their ARROW:extension:* keys and nested fields keep their names, but the
// top-level name, nullable flag and other field metadata are dropped.
func ExportC(arr *ArrowArray, schema *ArrowSchema, out *cdata.CArrowArray, outSchema *cdata.CArrowSchema) error {
	_, a, err := ToArrow(arr, schema)
	if err != nil {
		return err
	}
	defer a.Release()

	cdata.ExportArrowArray(a, out, outSchema)
	return nil
}

// ImportC moves a C struct pair into Go nodes. The C structs are released
// once the returned nodes are released.
func ImportC(mem memory.Allocator, in *cdata.CArrowArray, inSchema *cdata.CArrowSchema, arrayOut *ArrowArray, schemaOut *ArrowSchema) error {
	field, a, err := cdata.ImportCArray(in, inSchema)
	if err != nil {
		cdata.ReleaseCArrowArray(in)
		return fmt.Errorf("%w: import C array: %v", ErrValidation, err)
	}
	defer a.Release()

	return FromArrow(mem, field, a, arrayOut, schemaOut)
}

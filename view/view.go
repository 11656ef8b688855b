// Package view reads geometry arrays. CreateView validates a schema tree
// against the supported encodings and returns the reader for its shape;
// Read then drives a handler.Handler over an array with that schema.
package view

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow/bitutil"

	"github.com/hugr-lab/geoarrow-go/abi"
	"github.com/hugr-lab/geoarrow-go/handler"
	"github.com/hugr-lab/geoarrow-go/meta"
)

// ArrayView is a read-only binding to a validated schema tree. The set of
// implementations is closed: PointArrayView, LinestringArrayView,
// PolygonArrayView, CollectionArrayView, WKBArrayView, LargeWKBArrayView,
// FixedWidthWKBArrayView, WKTArrayView and LargeWKTArrayView.
//
// A view borrows its schema and must not outlive it. Read borrows the
// array for the duration of the call.
type ArrayView interface {
	Schema() *abi.ArrowSchema
	Meta() meta.Meta
	Dimensions() meta.Dimensions
	Read(array *abi.ArrowArray, h handler.Handler) error

	arrayView()
}

type base struct {
	schema *abi.ArrowSchema
	meta   meta.Meta
}

func (b *base) Schema() *abi.ArrowSchema { return b.schema }
func (b *base) Meta() meta.Meta          { return b.meta }
func (b *base) arrayView()               {}

// featureReader emits the events of the feature at logical index i.
type featureReader func(array *abi.ArrowArray, i int64) (handler.Result, error)

// readArray runs the per-array part of the event protocol. native views
// report the geometry type and dimensions once; serialized views report
// them from inside feature.
func readArray(v ArrayView, array *abi.ArrowArray, h handler.Handler, native bool, feature featureReader) error {
	var validity []byte
	if array.NBuffers() > 0 {
		validity = array.Buffers[0]
	}
	if validity != nil {
		if err := checkBuffer(array, 0, bitutil.BytesForBits(array.Offset+array.Length)); err != nil {
			return err
		}
	}

	if h.NewSchema(v.Schema()) == handler.Abort {
		return nil
	}
	if native {
		h.NewGeometryType(v.Meta().GeometryType)
		h.NewDimensions(v.Dimensions())
	}
	if h.ArrayStart(array) == handler.Abort {
		return nil
	}

	for i := int64(0); i < array.Length; i++ {
		switch h.FeatStart() {
		case handler.Abort:
			return nil
		case handler.AbortFeature:
			continue
		}

		var res handler.Result
		if validity != nil && !bitutil.BitIsSet(validity, int(array.Offset+i)) {
			res = h.NullFeat()
		} else {
			var err error
			if res, err = feature(array, i); err != nil {
				return fmt.Errorf("feature %d: %w", i, err)
			}
		}

		switch res {
		case handler.Abort:
			return nil
		case handler.AbortFeature:
			continue
		}
		if h.FeatEnd() == handler.Abort {
			return nil
		}
	}

	h.ArrayEnd()
	return nil
}

// checkNode verifies the buffer and child counts of an array node.
func checkNode(array *abi.ArrowArray, nBuffers, nChildren int64) error {
	switch {
	case array.IsReleased():
		return fmt.Errorf("%w: array is released", abi.ErrValidation)
	case array.NBuffers() != nBuffers:
		return fmt.Errorf("%w: expected %d buffers, got %d", abi.ErrValidation, nBuffers, array.NBuffers())
	case array.NChildren() != nChildren:
		return fmt.Errorf("%w: expected %d children, got %d", abi.ErrValidation, nChildren, array.NChildren())
	case array.Offset < 0 || array.Length < 0:
		return fmt.Errorf("%w: negative offset or length", abi.ErrValidation)
	}
	return nil
}

// checkBuffer verifies that buffer i holds at least n bytes.
func checkBuffer(array *abi.ArrowArray, i int, n int64) error {
	if int64(len(array.Buffers[i])) < n {
		return fmt.Errorf("%w: buffer %d holds %d bytes, need %d",
			abi.ErrValidation, i, len(array.Buffers[i]), n)
	}
	return nil
}

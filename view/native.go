package view

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/hugr-lab/geoarrow-go/abi"
	"github.com/hugr-lab/geoarrow-go/handler"
	"github.com/hugr-lab/geoarrow-go/meta"
)

// geometryReader is a native view that can also serve as the element of a
// collection.
type geometryReader interface {
	ArrayView
	validate(array *abi.ArrowArray) error
	readGeometry(array *abi.ArrowArray, i int64, h handler.Handler) handler.Result
}

func readNative(v geometryReader, array *abi.ArrowArray, h handler.Handler) error {
	if err := v.validate(array); err != nil {
		return err
	}
	return readArray(v, array, h, true, func(array *abi.ArrowArray, i int64) (handler.Result, error) {
		return v.readGeometry(array, i, h), nil
	})
}

// PointArrayView reads a fixed-size list of float64 ordinates.
type PointArrayView struct {
	base
	dims  meta.Dimensions
	width int64
}

func newPointArrayView(schema *abi.ArrowSchema, m meta.Meta) (*PointArrayView, error) {
	if m.Storage != meta.StorageFixedSizeList {
		return nil, meta.NewValidationError(m, "unsupported storage type for point")
	}
	if f := schema.Children[0].Format; f != abi.FormatFloat64 {
		return nil, meta.NewValidationError(m, "point ordinates must be float64, got format %q", f)
	}
	if m.Dimensions == meta.DimensionsUnknown {
		return nil, meta.NewValidationError(m, "unsupported point width %d", m.FixedWidth)
	}
	return &PointArrayView{
		base:  base{schema: schema, meta: m},
		dims:  m.Dimensions,
		width: int64(m.FixedWidth),
	}, nil
}

// Dimensions returns the coordinate dimensions of the points.
func (v *PointArrayView) Dimensions() meta.Dimensions { return v.dims }

// Read emits one point per feature.
func (v *PointArrayView) Read(array *abi.ArrowArray, h handler.Handler) error {
	return readNative(v, array, h)
}

func (v *PointArrayView) validate(array *abi.ArrowArray) error {
	if err := checkNode(array, 1, 1); err != nil {
		return fmt.Errorf("point array: %w", err)
	}
	coords := array.Children[0]
	if err := checkNode(coords, 2, 0); err != nil {
		return fmt.Errorf("point ordinates: %w", err)
	}
	n := coords.Offset + (array.Offset+array.Length)*v.width
	if array.Length == 0 {
		return nil
	}
	return checkBuffer(coords, 1, n*int64(arrow.Float64SizeBytes))
}

// coords returns the ordinates of n points starting at logical index start.
func (v *PointArrayView) coords(array *abi.ArrowArray, start, n int64) []float64 {
	child := array.Children[0]
	values := arrow.GetData[float64](child.Buffers[1])
	from := child.Offset + (array.Offset+start)*v.width
	return values[from : from+n*v.width]
}

func (v *PointArrayView) readGeometry(array *abi.ArrowArray, i int64, h handler.Handler) handler.Result {
	if res := h.GeomStart(meta.Point, 1); res != handler.Continue {
		return res
	}
	if res := h.Coords(v.coords(array, i, 1), 1, int32(v.width)); res != handler.Continue {
		return res
	}
	return h.GeomEnd()
}

// LinestringArrayView reads a list of points.
type LinestringArrayView struct {
	base
	points *PointArrayView
}

func newLinestringArrayView(schema *abi.ArrowSchema, m meta.Meta) (*LinestringArrayView, error) {
	if m.Storage != meta.StorageList {
		return nil, meta.NewValidationError(m, "unsupported storage type for linestring")
	}
	points, err := childPoints(schema.Children[0])
	if err != nil {
		return nil, err
	}
	return &LinestringArrayView{base: base{schema: schema, meta: m}, points: points}, nil
}

// Dimensions returns the coordinate dimensions of the vertices.
func (v *LinestringArrayView) Dimensions() meta.Dimensions { return v.points.dims }

// Read emits one linestring per feature.
func (v *LinestringArrayView) Read(array *abi.ArrowArray, h handler.Handler) error {
	return readNative(v, array, h)
}

func (v *LinestringArrayView) validate(array *abi.ArrowArray) error {
	if err := checkList(array); err != nil {
		return fmt.Errorf("linestring array: %w", err)
	}
	return v.points.validate(array.Children[0])
}

func (v *LinestringArrayView) readGeometry(array *abi.ArrowArray, i int64, h handler.Handler) handler.Result {
	start, end := listSpan(array, i)
	n := end - start
	if res := h.GeomStart(meta.Linestring, int32(n)); res != handler.Continue {
		return res
	}
	if n > 0 {
		coords := v.points.coords(array.Children[0], start, n)
		if res := h.Coords(coords, n, int32(v.points.width)); res != handler.Continue {
			return res
		}
	}
	return h.GeomEnd()
}

// PolygonArrayView reads a list of rings, each a list of points.
type PolygonArrayView struct {
	base
	points *PointArrayView
}

func newPolygonArrayView(schema *abi.ArrowSchema, m meta.Meta) (*PolygonArrayView, error) {
	if m.Storage != meta.StorageList {
		return nil, meta.NewValidationError(m, "unsupported storage type for polygon")
	}
	rings := schema.Children[0]
	rm, err := meta.Parse(rings)
	if err != nil {
		return nil, err
	}
	if rm.Storage != meta.StorageList {
		return nil, meta.NewValidationError(rm, "unsupported storage type for polygon ring")
	}
	points, err := childPoints(rings.Children[0])
	if err != nil {
		return nil, err
	}
	return &PolygonArrayView{base: base{schema: schema, meta: m}, points: points}, nil
}

// Dimensions returns the coordinate dimensions of the vertices.
func (v *PolygonArrayView) Dimensions() meta.Dimensions { return v.points.dims }

// Read emits one polygon per feature.
func (v *PolygonArrayView) Read(array *abi.ArrowArray, h handler.Handler) error {
	return readNative(v, array, h)
}

func (v *PolygonArrayView) validate(array *abi.ArrowArray) error {
	if err := checkList(array); err != nil {
		return fmt.Errorf("polygon array: %w", err)
	}
	if err := checkList(array.Children[0]); err != nil {
		return fmt.Errorf("polygon rings: %w", err)
	}
	return v.points.validate(array.Children[0].Children[0])
}

func (v *PolygonArrayView) readGeometry(array *abi.ArrowArray, i int64, h handler.Handler) handler.Result {
	rings := array.Children[0]
	start, end := listSpan(array, i)
	if res := h.GeomStart(meta.Polygon, int32(end-start)); res != handler.Continue {
		return res
	}
	for r := start; r < end; r++ {
		from, to := listSpan(rings, r)
		n := to - from
		if res := h.RingStart(int32(n)); res != handler.Continue {
			return res
		}
		if n > 0 {
			coords := v.points.coords(rings.Children[0], from, n)
			if res := h.Coords(coords, n, int32(v.points.width)); res != handler.Continue {
				return res
			}
		}
		if res := h.RingEnd(); res != handler.Continue {
			return res
		}
	}
	return h.GeomEnd()
}

// CollectionArrayView reads a list of T geometries: multipoint,
// multilinestring, multipolygon or a geometry collection of one of those.
type CollectionArrayView[T geometryReader] struct {
	base
	child T
}

// Dimensions returns the coordinate dimensions of the members.
func (v *CollectionArrayView[T]) Dimensions() meta.Dimensions { return v.child.Dimensions() }

// Child returns the view of the collection members.
func (v *CollectionArrayView[T]) Child() T { return v.child }

// Read emits one collection per feature, with one nested geometry per
// member.
func (v *CollectionArrayView[T]) Read(array *abi.ArrowArray, h handler.Handler) error {
	return readNative(v, array, h)
}

func (v *CollectionArrayView[T]) validate(array *abi.ArrowArray) error {
	if err := checkList(array); err != nil {
		return fmt.Errorf("%s array: %w", v.meta.Extension, err)
	}
	return v.child.validate(array.Children[0])
}

func (v *CollectionArrayView[T]) readGeometry(array *abi.ArrowArray, i int64, h handler.Handler) handler.Result {
	start, end := listSpan(array, i)
	if res := h.GeomStart(v.meta.GeometryType, int32(end-start)); res != handler.Continue {
		return res
	}
	for j := start; j < end; j++ {
		if res := v.child.readGeometry(array.Children[0], j, h); res != handler.Continue {
			return res
		}
	}
	return h.GeomEnd()
}

func childPoints(schema *abi.ArrowSchema) (*PointArrayView, error) {
	m, err := meta.Parse(schema)
	if err != nil {
		return nil, err
	}
	return newPointArrayView(schema, m)
}

// checkList verifies a "+l" node: validity and int32 offsets buffers, one
// child, and offsets that stay inside the child.
func checkList(array *abi.ArrowArray) error {
	if err := checkNode(array, 2, 1); err != nil {
		return err
	}
	if array.Length == 0 {
		return nil
	}
	if err := checkBuffer(array, 1, (array.Offset+array.Length+1)*int64(arrow.Int32SizeBytes)); err != nil {
		return err
	}
	offsets := arrow.GetData[int32](array.Buffers[1])
	return checkOffsets(offsets[array.Offset:array.Offset+array.Length+1], array.Children[0].Length)
}

// checkOffsets verifies that offsets never decrease and stay within
// [0, limit].
func checkOffsets[O int32 | int64](offsets []O, limit int64) error {
	if offsets[0] < 0 {
		return fmt.Errorf("%w: negative offset %d", abi.ErrValidation, offsets[0])
	}
	for i := 1; i < len(offsets); i++ {
		if offsets[i] < offsets[i-1] {
			return fmt.Errorf("%w: offset %d decreases from %d to %d",
				abi.ErrValidation, i, offsets[i-1], offsets[i])
		}
	}
	if last := int64(offsets[len(offsets)-1]); last > limit {
		return fmt.Errorf("%w: offset %d past end %d", abi.ErrValidation, last, limit)
	}
	return nil
}

// listSpan returns the child range of the list element at logical index i.
func listSpan(array *abi.ArrowArray, i int64) (int64, int64) {
	offsets := arrow.GetData[int32](array.Buffers[1])
	j := array.Offset + i
	return int64(offsets[j]), int64(offsets[j+1])
}

package compute

import (
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/hugr-lab/geoarrow-go/abi"
	"github.com/hugr-lab/geoarrow-go/builder"
	"github.com/hugr-lab/geoarrow-go/handler"
	"github.com/hugr-lab/geoarrow-go/meta"
)

type typeKey struct {
	geomType meta.GeometryType
	dims     meta.Dimensions
}

// TypeCollector records the distinct (geometry type, dimensions) pairs of
// the features it sees. It never looks at coordinates: GeomStart returns
// handler.AbortFeature.
type TypeCollector struct {
	handler.Base

	mem      memory.Allocator
	geomType meta.GeometryType
	dims     meta.Dimensions
	seen     map[typeKey]struct{}
	order    []typeKey
	released bool
}

var _ Builder = (*TypeCollector)(nil)

// NewTypeCollector returns an empty collector.
func NewTypeCollector(mem memory.Allocator) *TypeCollector {
	return &TypeCollector{mem: mem, seen: make(map[typeKey]struct{})}
}

func (c *TypeCollector) NewGeometryType(t meta.GeometryType) { c.geomType = t }

func (c *TypeCollector) NewDimensions(d meta.Dimensions) { c.dims = d }

// GeomStart records the current type and dimensions. The type argument is
// ignored in favour of the one reported by NewGeometryType.
func (c *TypeCollector) GeomStart(meta.GeometryType, int32) handler.Result {
	key := typeKey{geomType: c.geomType, dims: c.dims}
	if _, ok := c.seen[key]; !ok {
		c.seen[key] = struct{}{}
		c.order = append(c.order, key)
	}
	return handler.AbortFeature
}

// Labels returns one label per distinct pair seen so far, in first-seen
// order.
func (c *TypeCollector) Labels() []string {
	out := make([]string, len(c.order))
	for i, key := range c.order {
		out[i] = TypeLabel(key.geomType, key.dims)
	}
	return out
}

// Release writes the labels into a string array.
func (c *TypeCollector) Release(arrayOut *abi.ArrowArray, schemaOut *abi.ArrowSchema) error {
	if c.released {
		return builder.ErrReleased
	}
	c.released = true

	b, err := builder.NewStringArrayBuilder(c.mem, int64(len(c.order)), 0)
	if err != nil {
		return err
	}
	defer b.Discard()

	for _, label := range c.Labels() {
		if err := b.WriteElement(label); err != nil {
			return err
		}
	}
	return b.Release(arrayOut, schemaOut)
}

// Discard drops the collected pairs.
func (c *TypeCollector) Discard() {
	c.released = true
	c.seen = nil
	c.order = nil
}

// TypeLabel formats a GeoParquet geometry type such as "Polygon Z". An
// unknown geometry type or dimensions yields "".
func TypeLabel(t meta.GeometryType, d meta.Dimensions) string {
	var name string
	switch t {
	case meta.Point:
		name = "Point"
	case meta.Linestring:
		name = "Linestring"
	case meta.Polygon:
		name = "Polygon"
	case meta.MultiPoint:
		name = "MultiPoint"
	case meta.MultiLinestring:
		name = "MultiLinestring"
	case meta.MultiPolygon:
		name = "MultiPolygon"
	case meta.GeometryCollection:
		name = "GeometryCollection"
	default:
		return ""
	}

	switch d {
	case meta.XY:
		return name
	case meta.XYZ:
		return name + " Z"
	case meta.XYM:
		return name + " M"
	case meta.XYZM:
		return name + " ZM"
	default:
		return ""
	}
}

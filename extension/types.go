// Package extension registers the geoarrow.* Arrow extension types with
// arrow-go, so that arrays crossing into arrow-go (IPC, cdata, compute)
// keep their geometry encoding.
package extension

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
)

// Extension names.
const (
	Point              = "geoarrow.point"
	Linestring         = "geoarrow.linestring"
	Polygon            = "geoarrow.polygon"
	MultiPoint         = "geoarrow.multipoint"
	MultiLinestring    = "geoarrow.multilinestring"
	MultiPolygon       = "geoarrow.multipolygon"
	GeometryCollection = "geoarrow.geometrycollection"
	WKB                = "geoarrow.wkb"
	WKT                = "geoarrow.wkt"
)

// Names lists every registered extension name.
var Names = []string{
	Point, Linestring, Polygon,
	MultiPoint, MultiLinestring, MultiPolygon, GeometryCollection,
	WKB, WKT,
}

// Metadata is the JSON carried in ARROW:extension:metadata. The CRS is
// kept verbatim.
type Metadata struct {
	CRS   json.RawMessage `json:"crs,omitempty"`
	Edges string          `json:"edges,omitempty"`
}

// GeometryType is the Arrow extension type for one geoarrow encoding.
type GeometryType struct {
	arrow.ExtensionBase
	name     string
	metadata Metadata
}

// GeometryArray is the array type arrow-go builds for a GeometryType.
type GeometryArray struct {
	array.ExtensionArrayBase
}

// New returns the extension type name over storage, after checking that
// storage is a valid layout for name.
func New(name string, storage arrow.DataType, md Metadata) (*GeometryType, error) {
	if err := checkStorage(name, storage); err != nil {
		return nil, err
	}
	return &GeometryType{
		ExtensionBase: arrow.ExtensionBase{Storage: storage},
		name:          name,
		metadata:      md,
	}, nil
}

func must(t *GeometryType, err error) *GeometryType {
	if err != nil {
		panic(err)
	}
	return t
}

// NewPointType returns geoarrow.point with a fixed-size list of float64
// storage whose child is named dims ("xy", "xyz", "xym" or "xyzm").
func NewPointType(dims string) *GeometryType {
	return must(New(Point, PointStorage(dims), Metadata{}))
}

// PointStorage returns the fixed-size list storage of a point.
func PointStorage(dims string) *arrow.FixedSizeListType {
	return arrow.FixedSizeListOfField(int32(len(dims)),
		arrow.Field{Name: dims, Type: arrow.PrimitiveTypes.Float64})
}

// NewLinestringType returns geoarrow.linestring: a list of points.
func NewLinestringType(dims string) *GeometryType {
	return must(New(Linestring, linestringStorage(dims), Metadata{}))
}

// NewPolygonType returns geoarrow.polygon: a list of rings.
func NewPolygonType(dims string) *GeometryType {
	return must(New(Polygon, polygonStorage(dims), Metadata{}))
}

// NewMultiPointType returns geoarrow.multipoint over geoarrow.point members.
func NewMultiPointType(dims string) *GeometryType {
	return must(New(MultiPoint, arrow.ListOfField(
		arrow.Field{Name: "points", Type: NewPointType(dims)}), Metadata{}))
}

// NewMultiLinestringType returns geoarrow.multilinestring over
// geoarrow.linestring members.
func NewMultiLinestringType(dims string) *GeometryType {
	return must(New(MultiLinestring, arrow.ListOfField(
		arrow.Field{Name: "linestrings", Type: NewLinestringType(dims)}), Metadata{}))
}

// NewMultiPolygonType returns geoarrow.multipolygon over geoarrow.polygon
// members.
func NewMultiPolygonType(dims string) *GeometryType {
	return must(New(MultiPolygon, arrow.ListOfField(
		arrow.Field{Name: "polygons", Type: NewPolygonType(dims)}), Metadata{}))
}

// NewWKBType returns geoarrow.wkb over binary storage.
func NewWKBType() *GeometryType {
	return must(New(WKB, arrow.BinaryTypes.Binary, Metadata{}))
}

// NewWKTType returns geoarrow.wkt over string storage.
func NewWKTType() *GeometryType {
	return must(New(WKT, arrow.BinaryTypes.String, Metadata{}))
}

func linestringStorage(dims string) *arrow.ListType {
	return arrow.ListOfField(arrow.Field{Name: "vertices", Type: PointStorage(dims)})
}

func polygonStorage(dims string) *arrow.ListType {
	return arrow.ListOfField(arrow.Field{Name: "rings", Type: linestringStorage(dims)})
}

// ArrayType returns the Go type of arrays of this extension.
func (t *GeometryType) ArrayType() reflect.Type {
	return reflect.TypeOf(GeometryArray{})
}

// ExtensionName returns the geoarrow.* identifier.
func (t *GeometryType) ExtensionName() string { return t.name }

func (t *GeometryType) String() string {
	return fmt.Sprintf("extension<%s[%s]>", t.name, t.Storage)
}

// Metadata returns the parsed extension metadata.
func (t *GeometryType) Metadata() Metadata { return t.metadata }

// Serialize returns the extension metadata JSON, or "" when there is none.
func (t *GeometryType) Serialize() string {
	if len(t.metadata.CRS) == 0 && t.metadata.Edges == "" {
		return ""
	}
	data, _ := json.Marshal(t.metadata)
	return string(data)
}

// Deserialize validates storageType and parses data.
func (t *GeometryType) Deserialize(storageType arrow.DataType, data string) (arrow.ExtensionType, error) {
	var md Metadata
	if data != "" {
		if err := json.Unmarshal([]byte(data), &md); err != nil {
			return nil, fmt.Errorf("%s metadata: %w", t.name, err)
		}
	}
	ext, err := New(t.name, storageType, md)
	if err != nil {
		return nil, err
	}
	return ext, nil
}

// ExtensionEquals reports whether other is the same encoding over the same
// storage.
func (t *GeometryType) ExtensionEquals(other arrow.ExtensionType) bool {
	o, ok := other.(*GeometryType)
	if !ok {
		return false
	}
	return t.name == o.name &&
		arrow.TypeEqual(t.Storage, o.Storage) &&
		t.Serialize() == o.Serialize()
}

// checkStorage reports whether storage is a valid layout for name.
func checkStorage(name string, storage arrow.DataType) error {
	var ok bool
	switch name {
	case Point:
		ok = isPoint(storage)
	case Linestring:
		ok = isListOf(storage, isPoint)
	case Polygon:
		ok = isListOf(storage, func(dt arrow.DataType) bool { return isListOf(dt, isPoint) })
	case MultiPoint:
		ok = isListOf(storage, isExtension(Point))
	case MultiLinestring:
		ok = isListOf(storage, isExtension(Linestring))
	case MultiPolygon:
		ok = isListOf(storage, isExtension(Polygon))
	case GeometryCollection:
		ok = isListOf(storage, isExtension(Point, Linestring, Polygon))
	case WKB:
		switch storage.ID() {
		case arrow.BINARY, arrow.LARGE_BINARY, arrow.FIXED_SIZE_BINARY:
			ok = true
		}
	case WKT:
		switch storage.ID() {
		case arrow.STRING, arrow.LARGE_STRING, arrow.BINARY, arrow.LARGE_BINARY:
			ok = true
		}
	default:
		return fmt.Errorf("unknown geoarrow extension %q", name)
	}
	if !ok {
		return fmt.Errorf("invalid storage type for %s: %s", name, storage)
	}
	return nil
}

// storageOf looks through extension types.
func storageOf(dt arrow.DataType) arrow.DataType {
	if ext, ok := dt.(arrow.ExtensionType); ok {
		return ext.StorageType()
	}
	return dt
}

func isPoint(dt arrow.DataType) bool {
	fsl, ok := storageOf(dt).(*arrow.FixedSizeListType)
	if !ok || fsl.Len() < 2 || fsl.Len() > 4 {
		return false
	}
	return fsl.Elem().ID() == arrow.FLOAT64
}

// isExtension matches a *GeometryType with one of names. Its storage was
// checked when it was built.
func isExtension(names ...string) func(arrow.DataType) bool {
	return func(dt arrow.DataType) bool {
		ext, ok := dt.(*GeometryType)
		if !ok {
			return false
		}
		for _, name := range names {
			if ext.name == name {
				return true
			}
		}
		return false
	}
}

func isListOf(dt arrow.DataType, elem func(arrow.DataType) bool) bool {
	list, ok := storageOf(dt).(*arrow.ListType)
	return ok && elem(list.Elem())
}

// Register registers every geoarrow extension type with arrow-go. Names
// that are already registered are left alone.
func Register() {
	prototypes := []*GeometryType{
		NewPointType("xy"),
		NewLinestringType("xy"),
		NewPolygonType("xy"),
		NewMultiPointType("xy"),
		NewMultiLinestringType("xy"),
		NewMultiPolygonType("xy"),
		must(New(GeometryCollection, arrow.ListOfField(
			arrow.Field{Name: "geometries", Type: NewPointType("xy")}), Metadata{})),
		NewWKBType(),
		NewWKTType(),
	}
	for _, t := range prototypes {
		if arrow.GetExtensionType(t.name) == nil {
			_ = arrow.RegisterExtensionType(t)
		}
	}
}

func init() {
	Register()
}

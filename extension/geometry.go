package extension

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
	"github.com/paulmach/orb/encoding/wkt"

	"github.com/hugr-lab/geoarrow-go/meta"
)

// crsID is the PROJJSON id object.
type crsID struct {
	Authority string `json:"authority"`
	Code      int    `json:"code"`
}

// EPSG returns metadata whose CRS is the PROJJSON id of an EPSG code. A
// srid of 0 yields empty metadata.
func EPSG(srid int) Metadata {
	if srid == 0 {
		return Metadata{}
	}
	crs, _ := json.Marshal(struct {
		ID crsID `json:"id"`
	}{ID: crsID{Authority: "EPSG", Code: srid}})
	return Metadata{CRS: crs}
}

// NewGeometryField returns a field of extension type t. The srid also
// lands in the plain "srid" field metadata key.
func NewGeometryField(name string, t *GeometryType, nullable bool, srid int) (arrow.Field, error) {
	if srid != 0 {
		var err error
		t, err = New(t.name, t.Storage, EPSG(srid))
		if err != nil {
			return arrow.Field{}, err
		}
	}

	var md arrow.Metadata
	if srid != 0 {
		md = arrow.NewMetadata([]string{"srid"}, []string{strconv.Itoa(srid)})
	}
	return arrow.Field{
		Name:     name,
		Type:     t,
		Nullable: nullable,
		Metadata: md,
	}, nil
}

// EncodeWKB converts an orb.Geometry to WKB bytes.
func EncodeWKB(geom orb.Geometry) ([]byte, error) {
	if geom == nil {
		return nil, fmt.Errorf("cannot encode nil geometry")
	}
	return wkb.Marshal(geom)
}

// DecodeWKB converts WKB bytes to an orb.Geometry.
func DecodeWKB(data []byte) (orb.Geometry, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("cannot decode empty WKB data")
	}
	return wkb.Unmarshal(data)
}

// EncodeWKT converts an orb.Geometry to WKT text.
func EncodeWKT(geom orb.Geometry) (string, error) {
	if geom == nil {
		return "", fmt.Errorf("cannot encode nil geometry")
	}
	return string(wkt.Marshal(geom)), nil
}

// DecodeWKT converts WKT text to an orb.Geometry.
func DecodeWKT(text string) (orb.Geometry, error) {
	if text == "" {
		return nil, fmt.Errorf("cannot decode empty WKT text")
	}
	return wkt.Unmarshal(text)
}

// NewWKBArray builds a geoarrow.wkb array. Nil geometries become nulls.
func NewWKBArray(mem memory.Allocator, geoms []orb.Geometry) (arrow.Array, error) {
	b := array.NewBinaryBuilder(mem, arrow.BinaryTypes.Binary)
	defer b.Release()

	for i, g := range geoms {
		if g == nil {
			b.AppendNull()
			continue
		}
		if err := ValidateGeometry(g); err != nil {
			return nil, fmt.Errorf("geometry %d: %w", i, err)
		}
		data, err := wkb.Marshal(g)
		if err != nil {
			return nil, fmt.Errorf("geometry %d: %w", i, err)
		}
		b.Append(data)
	}

	storage := b.NewArray()
	defer storage.Release()
	return array.NewExtensionArrayWithStorage(NewWKBType(), storage), nil
}

// NewWKTArray builds a geoarrow.wkt array. Nil geometries become nulls.
func NewWKTArray(mem memory.Allocator, geoms []orb.Geometry) (arrow.Array, error) {
	b := array.NewStringBuilder(mem)
	defer b.Release()

	for i, g := range geoms {
		if g == nil {
			b.AppendNull()
			continue
		}
		if err := ValidateGeometry(g); err != nil {
			return nil, fmt.Errorf("geometry %d: %w", i, err)
		}
		b.Append(string(wkt.Marshal(g)))
	}

	storage := b.NewArray()
	defer storage.Release()
	return array.NewExtensionArrayWithStorage(NewWKTType(), storage), nil
}

// ValidateGeometry checks that a geometry can be stored.
func ValidateGeometry(geom orb.Geometry) error {
	if geom == nil {
		return fmt.Errorf("geometry is nil")
	}

	switch g := geom.(type) {
	case orb.Point:
		return nil

	case orb.MultiPoint:
		if len(g) == 0 {
			return fmt.Errorf("multipoint is empty")
		}
		return nil

	case orb.LineString:
		if len(g) < 2 {
			return fmt.Errorf("linestring must have at least 2 points, has %d", len(g))
		}
		return nil

	case orb.MultiLineString:
		if len(g) == 0 {
			return fmt.Errorf("multilinestring is empty")
		}
		for i, ls := range g {
			if len(ls) < 2 {
				return fmt.Errorf("multilinestring[%d] must have at least 2 points, has %d", i, len(ls))
			}
		}
		return nil

	case orb.Polygon:
		if len(g) == 0 {
			return fmt.Errorf("polygon has no rings")
		}
		for i, ring := range g {
			if len(ring) < 4 {
				return fmt.Errorf("polygon ring[%d] must have at least 4 points, has %d", i, len(ring))
			}
			if !ring[0].Equal(ring[len(ring)-1]) {
				return fmt.Errorf("polygon ring[%d] is not closed", i)
			}
		}
		return nil

	case orb.MultiPolygon:
		if len(g) == 0 {
			return fmt.Errorf("multipolygon is empty")
		}
		for i, poly := range g {
			if err := ValidateGeometry(poly); err != nil {
				return fmt.Errorf("multipolygon[%d]: %w", i, err)
			}
		}
		return nil

	case orb.Collection:
		if len(g) == 0 {
			return fmt.Errorf("geometry collection is empty")
		}
		for i, member := range g {
			if err := ValidateGeometry(member); err != nil {
				return fmt.Errorf("collection[%d]: %w", i, err)
			}
		}
		return nil

	case orb.Bound:
		return fmt.Errorf("bounds cannot be stored directly (convert to polygon)")

	default:
		return fmt.Errorf("unknown geometry type: %T", geom)
	}
}

// GeometryTypeOf maps an orb geometry to its geometry type.
func GeometryTypeOf(geom orb.Geometry) meta.GeometryType {
	switch geom.(type) {
	case orb.Point:
		return meta.Point
	case orb.MultiPoint:
		return meta.MultiPoint
	case orb.LineString:
		return meta.Linestring
	case orb.MultiLineString:
		return meta.MultiLinestring
	case orb.Polygon, orb.Ring, orb.Bound:
		return meta.Polygon
	case orb.MultiPolygon:
		return meta.MultiPolygon
	case orb.Collection:
		return meta.GeometryCollection
	default:
		return meta.GeometryTypeUnknown
	}
}

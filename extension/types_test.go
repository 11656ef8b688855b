package extension

import (
	"encoding/json"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
)

func TestGeometryType(t *testing.T) {
	tests := []struct {
		name    string
		typ     *GeometryType
		storage arrow.DataType
	}{
		{"point", NewPointType("xyz"), PointStorage("xyz")},
		{"linestring", NewLinestringType("xy"), linestringStorage("xy")},
		{"polygon", NewPolygonType("xym"), polygonStorage("xym")},
		{"wkb", NewWKBType(), arrow.BinaryTypes.Binary},
		{"wkt", NewWKTType(), arrow.BinaryTypes.String},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.typ.ExtensionName() != "geoarrow."+tt.name {
				t.Errorf("expected extension name 'geoarrow.%s', got '%s'", tt.name, tt.typ.ExtensionName())
			}
			if !arrow.TypeEqual(tt.typ.StorageType(), tt.storage) {
				t.Errorf("expected storage %s, got %s", tt.storage, tt.typ.StorageType())
			}
			if tt.typ.Serialize() != "" {
				t.Errorf("expected empty metadata, got %q", tt.typ.Serialize())
			}
		})
	}

	mp := NewMultiPointType("xy")
	elem := mp.StorageType().(*arrow.ListType).Elem()
	if ext, ok := elem.(*GeometryType); !ok || ext.ExtensionName() != Point {
		t.Errorf("expected geoarrow.point members, got %s", elem)
	}
}

func TestGeometryType_Deserialize(t *testing.T) {
	tests := []struct {
		name        string
		ext         string
		storageType arrow.DataType
		data        string
		wantErr     bool
	}{
		{"wkb binary", WKB, arrow.BinaryTypes.Binary, "", false},
		{"wkb large binary", WKB, arrow.BinaryTypes.LargeBinary, "", false},
		{"wkb fixed width", WKB, &arrow.FixedSizeBinaryType{ByteWidth: 21}, "", false},
		{"wkb int64", WKB, arrow.PrimitiveTypes.Int64, "", true},
		{"wkt large string", WKT, arrow.BinaryTypes.LargeString, "", false},
		{"wkt float", WKT, arrow.PrimitiveTypes.Float64, "", true},
		{"point xyzm", Point, PointStorage("xyzm"), "", false},
		{"point of int", Point, arrow.FixedSizeListOf(2, arrow.PrimitiveTypes.Int32), "", true},
		{"point width 5", Point, arrow.FixedSizeListOf(5, arrow.PrimitiveTypes.Float64), "", true},
		{"linestring", Linestring, linestringStorage("xy"), "", false},
		{"linestring of lists", Linestring, polygonStorage("xy"), "", true},
		{"multipolygon", MultiPolygon, arrow.ListOf(NewPolygonType("xy")), "", false},
		{"multipolygon of untagged members", MultiPolygon, arrow.ListOf(polygonStorage("xy")), "", true},
		{"multipoint of linestrings", MultiPoint, arrow.ListOf(NewLinestringType("xy")), "", true},
		{"collection of polygons", GeometryCollection, arrow.ListOf(NewPolygonType("xy")), "", false},
		{"collection of multipoints", GeometryCollection, arrow.ListOf(NewMultiPointType("xy")), "", true},
		{"crs metadata", WKB, arrow.BinaryTypes.Binary, `{"crs":"OGC:CRS84","edges":"spherical"}`, false},
		{"bad metadata", WKB, arrow.BinaryTypes.Binary, `{"crs":`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			proto := arrow.GetExtensionType(tt.ext)
			if proto == nil {
				t.Fatalf("%s is not registered", tt.ext)
			}
			result, err := proto.Deserialize(tt.storageType, tt.data)
			if (err != nil) != tt.wantErr {
				t.Errorf("Deserialize() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && result == nil {
				t.Error("Deserialize() returned nil result without error")
			}
		})
	}
}

func TestGeometryMetadataRoundTrip(t *testing.T) {
	typ, err := New(WKB, arrow.BinaryTypes.Binary, EPSG(4326))
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	serialized := typ.Serialize()
	var decoded struct {
		CRS struct {
			ID crsID `json:"id"`
		} `json:"crs"`
	}
	if err := json.Unmarshal([]byte(serialized), &decoded); err != nil {
		t.Fatalf("failed to parse extension metadata %q: %v", serialized, err)
	}
	if decoded.CRS.ID.Authority != "EPSG" || decoded.CRS.ID.Code != 4326 {
		t.Errorf("unexpected CRS id %+v", decoded.CRS.ID)
	}

	again, err := typ.Deserialize(arrow.BinaryTypes.Binary, serialized)
	if err != nil {
		t.Fatalf("Deserialize() failed: %v", err)
	}
	if !typ.ExtensionEquals(again) {
		t.Errorf("expected %s to equal %s", again, typ)
	}
	if typ.ExtensionEquals(NewWKBType()) {
		t.Error("types with different CRS compared equal")
	}
}

func TestRegister(t *testing.T) {
	// idempotent
	Register()
	for _, name := range Names {
		if arrow.GetExtensionType(name) == nil {
			t.Errorf("%s is not registered", name)
		}
	}
}

package extension

import (
	"strings"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paulmach/orb"

	"github.com/hugr-lab/geoarrow-go/abi"
	"github.com/hugr-lab/geoarrow-go/internal/geotest"
	"github.com/hugr-lab/geoarrow-go/meta"
	"github.com/hugr-lab/geoarrow-go/view"
)

func TestNewGeometryField(t *testing.T) {
	field, err := NewGeometryField("location", NewWKBType(), true, 4326)
	if err != nil {
		t.Fatalf("NewGeometryField() failed: %v", err)
	}
	if field.Name != "location" {
		t.Errorf("expected field name 'location', got '%s'", field.Name)
	}
	if !field.Nullable {
		t.Error("expected field to be nullable")
	}
	if field.Type.ID() != arrow.EXTENSION {
		t.Errorf("expected EXTENSION type, got %s", field.Type.ID())
	}
	srid, _ := field.Metadata.GetValue("srid")
	if srid != "4326" {
		t.Errorf("expected SRID '4326', got '%s'", srid)
	}
	ext := field.Type.(*GeometryType)
	if !strings.Contains(ext.Serialize(), `"code":4326`) {
		t.Errorf("expected EPSG:4326 in metadata, got %s", ext.Serialize())
	}

	plain, err := NewGeometryField("geom", NewPointType("xy"), false, 0)
	if err != nil {
		t.Fatalf("NewGeometryField() failed: %v", err)
	}
	if plain.Metadata.Len() != 0 || plain.Type.(*GeometryType).Serialize() != "" {
		t.Errorf("expected no metadata without srid, got %v", plain.Metadata)
	}
}

func TestEncodeDecodeWKB(t *testing.T) {
	geoms := []orb.Geometry{
		orb.Point{-122.4194, 37.7749},
		orb.LineString{{0, 0}, {1, 1}, {2, 0}},
		orb.Polygon{{{0, 0}, {1, 0}, {1, 1}, {0, 0}}},
	}
	for _, g := range geoms {
		data, err := EncodeWKB(g)
		if err != nil {
			t.Fatalf("EncodeWKB(%T) failed: %v", g, err)
		}
		decoded, err := DecodeWKB(data)
		if err != nil {
			t.Fatalf("DecodeWKB() failed: %v", err)
		}
		if !orb.Equal(g, decoded) {
			t.Errorf("expected %v, got %v", g, decoded)
		}
	}

	if _, err := EncodeWKB(nil); err == nil {
		t.Error("expected error for nil geometry")
	}
	if _, err := DecodeWKB(nil); err == nil {
		t.Error("expected error for empty WKB")
	}
	if _, err := DecodeWKB([]byte{1, 2, 3}); err == nil {
		t.Error("expected error for truncated WKB")
	}
}

func TestEncodeDecodeWKT(t *testing.T) {
	text, err := EncodeWKT(orb.Point{1, 2})
	if err != nil {
		t.Fatalf("EncodeWKT() failed: %v", err)
	}
	if text != "POINT(1 2)" {
		t.Errorf("expected 'POINT(1 2)', got '%s'", text)
	}
	g, err := DecodeWKT(text)
	if err != nil {
		t.Fatalf("DecodeWKT() failed: %v", err)
	}
	if !orb.Equal(g, orb.Point{1, 2}) {
		t.Errorf("expected POINT(1 2), got %v", g)
	}
	if _, err := DecodeWKT(""); err == nil {
		t.Error("expected error for empty WKT")
	}
}

func TestValidateGeometry(t *testing.T) {
	tests := []struct {
		name    string
		geom    orb.Geometry
		wantErr bool
	}{
		{"point", orb.Point{1, 2}, false},
		{"nil", nil, true},
		{"empty multipoint", orb.MultiPoint{}, true},
		{"short linestring", orb.LineString{{0, 0}}, true},
		{"short multilinestring member", orb.MultiLineString{{{0, 0}, {1, 1}}, {{0, 0}}}, true},
		{"closed polygon", orb.Polygon{{{0, 0}, {1, 0}, {1, 1}, {0, 0}}}, false},
		{"open polygon", orb.Polygon{{{0, 0}, {1, 0}, {1, 1}, {0, 1}}}, true},
		{"open hole", orb.Polygon{
			{{0, 0}, {4, 0}, {4, 4}, {0, 0}},
			{{1, 1}, {2, 1}, {2, 2}, {1, 2}},
		}, true},
		{"empty multipolygon", orb.MultiPolygon{}, true},
		{"collection", orb.Collection{orb.Point{1, 2}, orb.LineString{{0, 0}, {1, 1}}}, false},
		{"collection with bad member", orb.Collection{orb.LineString{{0, 0}}}, true},
		{"bound", orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{1, 1}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateGeometry(tt.geom)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateGeometry() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestGeometryTypeOf(t *testing.T) {
	tests := []struct {
		geom orb.Geometry
		want meta.GeometryType
	}{
		{orb.Point{}, meta.Point},
		{orb.MultiPoint{}, meta.MultiPoint},
		{orb.LineString{}, meta.Linestring},
		{orb.MultiLineString{}, meta.MultiLinestring},
		{orb.Polygon{}, meta.Polygon},
		{orb.MultiPolygon{}, meta.MultiPolygon},
		{orb.Collection{}, meta.GeometryCollection},
	}
	for _, tt := range tests {
		if got := GeometryTypeOf(tt.geom); got != tt.want {
			t.Errorf("GeometryTypeOf(%T) = %s, expected %s", tt.geom, got, tt.want)
		}
	}
}

// TestWKBArrayThroughView exports an arrow-go array as a node pair and reads
// it back through a view.
func TestWKBArrayThroughView(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	arr, err := NewWKBArray(mem, []orb.Geometry{
		orb.Point{1, 2},
		nil,
		orb.LineString{{0, 0}, {1, 1}},
	})
	if err != nil {
		t.Fatalf("NewWKBArray() failed: %v", err)
	}
	defer arr.Release()
	if arr.NullN() != 1 {
		t.Errorf("expected 1 null, got %d", arr.NullN())
	}

	field, err := NewGeometryField("geometry", NewWKBType(), true, 4326)
	if err != nil {
		t.Fatalf("NewGeometryField() failed: %v", err)
	}

	var out abi.ArrowArray
	var schema abi.ArrowSchema
	if err := abi.FromArrow(mem, field, arr, &out, &schema); err != nil {
		t.Fatalf("FromArrow() failed: %v", err)
	}
	defer schema.Release()
	defer out.Release()

	v, err := view.CreateView(&schema)
	if err != nil {
		t.Fatalf("CreateView() failed: %v", err)
	}
	if v.Meta().Extension != meta.ExtensionWKB {
		t.Errorf("expected wkb extension, got %s", v.Meta().Extension)
	}
	if !strings.Contains(v.Meta().ExtensionMetadata, "4326") {
		t.Errorf("expected CRS metadata, got %q", v.Meta().ExtensionMetadata)
	}

	rec := &geotest.Recorder{}
	if err := v.Read(&out, rec); err != nil {
		t.Fatalf("Read() failed: %v", err)
	}
	want := strings.Join([]string{
		"schema", "array_start",
		"feat_start", "type point", "dims xy", "geom_start point 1", "coords 1/2 [1 2]", "geom_end", "feat_end",
		"feat_start", "null", "feat_end",
		"feat_start", "type linestring", "dims xy", "geom_start linestring 2", "coords 2/2 [0 0 1 1]", "geom_end", "feat_end",
		"array_end",
	}, "\n")
	if rec.String() != want {
		t.Errorf("unexpected events\ngot:\n%s\n\nwant:\n%s", rec, want)
	}
}

func TestPointNodeToArrow(t *testing.T) {
	schema := geotest.Point("xyz")
	defer schema.Release()
	node := geotest.Points(3, 1, 2, 3, 4, 5, 6)
	defer node.Release()

	field, arr, err := abi.ToArrow(node, schema)
	if err != nil {
		t.Fatalf("ToArrow() failed: %v", err)
	}
	defer arr.Release()

	ext, ok := field.Type.(*GeometryType)
	if !ok || ext.ExtensionName() != Point {
		t.Fatalf("expected geoarrow.point, got %s", field.Type)
	}
	geoms, ok := arr.(*GeometryArray)
	if !ok {
		t.Fatalf("expected *GeometryArray, got %T", arr)
	}
	coords := geoms.Storage().(*array.FixedSizeList).ListValues().(*array.Float64)
	if geoms.Len() != 2 || coords.Len() != 6 || coords.Value(5) != 6 {
		t.Errorf("unexpected storage %v", geoms.Storage())
	}
}

func TestNewWKTArray(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	arr, err := NewWKTArray(mem, []orb.Geometry{orb.Point{1, 2}, nil})
	if err != nil {
		t.Fatalf("NewWKTArray() failed: %v", err)
	}
	defer arr.Release()

	storage := arr.(array.ExtensionArray).Storage().(*array.String)
	if storage.Value(0) != "POINT(1 2)" || !storage.IsNull(1) {
		t.Errorf("unexpected storage %v", storage)
	}

	if _, err := NewWKTArray(mem, []orb.Geometry{orb.LineString{{0, 0}}}); err == nil {
		t.Error("expected validation error")
	}
}

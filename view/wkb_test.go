package view

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"

	"github.com/hugr-lab/geoarrow-go/abi"
	"github.com/hugr-lab/geoarrow-go/handler"
	"github.com/hugr-lab/geoarrow-go/internal/geotest"
)

func mustWKB(t *testing.T, g orb.Geometry) []byte {
	t.Helper()
	b, err := wkb.Marshal(g)
	if err != nil {
		t.Fatalf("wkb.Marshal() failed: %v", err)
	}
	return b
}

// rawWKB writes a little endian geometry with the given type code.
func rawWKB(code uint32, body ...any) []byte {
	var buf bytes.Buffer
	buf.WriteByte(1)
	_ = binary.Write(&buf, binary.LittleEndian, code)
	for _, v := range body {
		_ = binary.Write(&buf, binary.LittleEndian, v)
	}
	return buf.Bytes()
}

func TestReadWKB(t *testing.T) {
	tests := []struct {
		name  string
		value func(t *testing.T) []byte
		want  []string
	}{
		{
			name:  "point",
			value: func(t *testing.T) []byte { return mustWKB(t, orb.Point{1, 2}) },
			want:  []string{"type point", "dims xy", "geom_start point 1", "coords 1/2 [1 2]", "geom_end"},
		},
		{
			name: "polygon",
			value: func(t *testing.T) []byte {
				return mustWKB(t, orb.Polygon{{{0, 0}, {1, 0}, {1, 1}, {0, 0}}})
			},
			want: []string{
				"type polygon", "dims xy", "geom_start polygon 1",
				"ring_start 4", "coords 4/2 [0 0 1 0 1 1 0 0]", "ring_end",
				"geom_end",
			},
		},
		{
			name:  "multipoint",
			value: func(t *testing.T) []byte { return mustWKB(t, orb.MultiPoint{{1, 2}, {3, 4}}) },
			want: []string{
				"type multipoint", "dims xy", "geom_start multipoint 2",
				"geom_start point 1", "coords 1/2 [1 2]", "geom_end",
				"geom_start point 1", "coords 1/2 [3 4]", "geom_end",
				"geom_end",
			},
		},
		{
			name: "collection",
			value: func(t *testing.T) []byte {
				return mustWKB(t, orb.Collection{orb.Point{1, 2}, orb.LineString{{0, 0}, {1, 1}}})
			},
			want: []string{
				"type geometrycollection", "dims xy", "geom_start geometrycollection 2",
				"geom_start point 1", "coords 1/2 [1 2]", "geom_end",
				"geom_start linestring 2", "coords 2/2 [0 0 1 1]", "geom_end",
				"geom_end",
			},
		},
		{
			name:  "iso point z",
			value: func(*testing.T) []byte { return rawWKB(1001, []float64{1, 2, 3}) },
			want:  []string{"type point", "dims xyz", "geom_start point 1", "coords 1/3 [1 2 3]", "geom_end"},
		},
		{
			name:  "iso linestring zm",
			value: func(*testing.T) []byte { return rawWKB(3002, uint32(1), []float64{1, 2, 3, 4}) },
			want:  []string{"type linestring", "dims xyzm", "geom_start linestring 1", "coords 1/4 [1 2 3 4]", "geom_end"},
		},
		{
			name: "ewkb linestring z with srid",
			value: func(*testing.T) []byte {
				return rawWKB(2|ewkbZ|ewkbSRID, uint32(4326), uint32(2), []float64{0, 0, 1, 1, 1, 2})
			},
			want: []string{"type linestring", "dims xyz", "geom_start linestring 2", "coords 2/3 [0 0 1 1 1 2]", "geom_end"},
		},
		{
			name:  "ewkb point m",
			value: func(*testing.T) []byte { return rawWKB(1|ewkbM, []float64{1, 2, 9}) },
			want:  []string{"type point", "dims xym", "geom_start point 1", "coords 1/3 [1 2 9]", "geom_end"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			schema := geotest.Node("z", "geometry", "geoarrow.wkb")
			defer schema.Release()
			array := geotest.Binary(tt.value(t))
			defer array.Release()

			rec := &geotest.Recorder{}
			if err := mustView(t, schema).Read(array, rec); err != nil {
				t.Fatalf("Read() failed: %v", err)
			}

			want := append([]string{"schema", "array_start", "feat_start"}, tt.want...)
			checkEvents(t, rec, append(want, "feat_end", "array_end")...)
		})
	}
}

func TestReadWKBLayouts(t *testing.T) {
	a, b := mustWKB(t, orb.Point{1, 2}), mustWKB(t, orb.Point{3, 4})
	want := []string{
		"schema", "array_start",
		"feat_start", "type point", "dims xy", "geom_start point 1", "coords 1/2 [1 2]", "geom_end", "feat_end",
		"feat_start", "null", "feat_end",
		"feat_start", "type point", "dims xy", "geom_start point 1", "coords 1/2 [3 4]", "geom_end", "feat_end",
		"array_end",
	}

	tests := []struct {
		name   string
		format string
		array  *abi.ArrowArray
	}{
		{name: "binary", format: "z", array: geotest.Binary(a, nil, b)},
		{name: "large binary", format: "Z", array: geotest.LargeBinary(a, nil, b)},
		{
			name:   "fixed width",
			format: "w:21",
			array:  geotest.WithNulls(geotest.FixedWidth(a, make([]byte, 21), b), true, false, true),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			schema := geotest.Node(tt.format, "geometry", "geoarrow.wkb")
			defer schema.Release()
			defer tt.array.Release()

			rec := &geotest.Recorder{}
			if err := mustView(t, schema).Read(tt.array, rec); err != nil {
				t.Fatalf("Read() failed: %v", err)
			}
			checkEvents(t, rec, want...)
		})
	}
}

func TestReadWKBHeaderOnly(t *testing.T) {
	// the header promises two vertices that are not there
	truncated := rawWKB(2, uint32(2))

	schema := geotest.Node("z", "geometry", "geoarrow.wkb")
	defer schema.Release()
	array := geotest.Binary(truncated)
	defer array.Release()
	v := mustView(t, schema)

	rec := &geotest.Recorder{Results: map[string]handler.Result{"geom_start": handler.AbortFeature}}
	if err := v.Read(array, rec); err != nil {
		t.Fatalf("Read() with an aborted feature failed: %v", err)
	}
	checkEvents(t, rec, "schema", "array_start", "feat_start", "type linestring", "dims xy", "geom_start linestring 2", "array_end")

	if err := v.Read(array, &geotest.Recorder{}); !errors.Is(err, abi.ErrValidation) {
		t.Errorf("expected ErrValidation for truncated WKB, got %v", err)
	}
}

func TestReadWKBInvalid(t *testing.T) {
	tests := []struct {
		name  string
		value []byte
	}{
		{name: "empty", value: []byte{}},
		{name: "byte order", value: []byte{7, 1, 0, 0, 0}},
		{name: "type", value: rawWKB(17)},
		{name: "truncated point", value: rawWKB(1, 1.0)},
		{name: "ring size", value: []byte{1, 3, 0, 0, 0, 1, 0, 0, 0, 0xff, 0xff, 0xff, 0xff}},
		{name: "nesting depth", value: nestedCollections(maxWKBDepth + 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			schema := geotest.Node("z", "geometry", "geoarrow.wkb")
			defer schema.Release()
			array := geotest.Binary(tt.value)
			defer array.Release()

			err := mustView(t, schema).Read(array, &geotest.Recorder{})
			if !errors.Is(err, abi.ErrValidation) {
				t.Errorf("expected ErrValidation, got %v", err)
			}
		})
	}
}

// nestedCollections returns depth geometry collections, each holding the
// next, around a point.
func nestedCollections(depth int) []byte {
	var out []byte
	for i := 0; i < depth; i++ {
		out = append(out, 1, 7, 0, 0, 0, 1, 0, 0, 0)
	}
	return append(out, rawWKB(1, 0.0, 0.0)...)
}

func TestReadWKBNestingLimit(t *testing.T) {
	schema := geotest.Node("z", "geometry", "geoarrow.wkb")
	defer schema.Release()
	array := geotest.Binary(nestedCollections(maxWKBDepth))
	defer array.Release()

	if err := mustView(t, schema).Read(array, &geotest.Recorder{}); err != nil {
		t.Errorf("expected nesting at the limit to be accepted, got %v", err)
	}
}

package view

import (
	"fmt"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"

	"github.com/hugr-lab/geoarrow-go/abi"
	"github.com/hugr-lab/geoarrow-go/handler"
	"github.com/hugr-lab/geoarrow-go/meta"
)

var wktKeywords = map[string]meta.GeometryType{
	"POINT":              meta.Point,
	"LINESTRING":         meta.Linestring,
	"POLYGON":            meta.Polygon,
	"MULTIPOINT":         meta.MultiPoint,
	"MULTILINESTRING":    meta.MultiLinestring,
	"MULTIPOLYGON":       meta.MultiPolygon,
	"GEOMETRYCOLLECTION": meta.GeometryCollection,
}

type wktHeader struct {
	geomType meta.GeometryType
	dims     meta.Dimensions
	empty    bool
}

// readWKT reports the tagged type and dimensions before decoding. The
// element count of a WKT geometry is not known up front, so GeomStart
// receives handler.SizeUnknown.
func readWKT(data []byte, h handler.Handler) (handler.Result, error) {
	hdr, body, err := parseWKTHeader(string(data))
	if err != nil {
		return handler.Abort, err
	}
	h.NewGeometryType(hdr.geomType)
	h.NewDimensions(hdr.dims)

	if res := h.GeomStart(hdr.geomType, handler.SizeUnknown); res != handler.Continue {
		return res, nil
	}
	if hdr.empty {
		return h.GeomEnd(), nil
	}
	if hdr.dims != meta.XY {
		return handler.Abort, fmt.Errorf("%w: decoding %s WKT coordinates is not supported", abi.ErrValidation, hdr.dims)
	}

	g, err := wkt.Unmarshal(body)
	if err != nil {
		return handler.Abort, fmt.Errorf("%w: %v", abi.ErrValidation, err)
	}
	if res := orbBody(g, h); res != handler.Continue {
		return res, nil
	}
	return h.GeomEnd(), nil
}

// parseWKTHeader reads the geometry keyword, the optional Z/M/ZM tag and
// EMPTY. body is the text without an EWKT "SRID=n;" prefix.
func parseWKTHeader(text string) (hdr wktHeader, body string, err error) {
	body = strings.TrimSpace(text)
	if len(body) >= 5 && strings.EqualFold(body[:5], "SRID=") {
		i := strings.IndexByte(body, ';')
		if i < 0 {
			return hdr, "", fmt.Errorf("%w: malformed EWKT SRID prefix", abi.ErrValidation)
		}
		body = strings.TrimSpace(body[i+1:])
	}

	rest := strings.ToUpper(body)
	keyword := leadingLetters(rest)
	rest = strings.TrimSpace(rest[len(keyword):])

	hdr.dims = meta.XY
	geomType, ok := wktKeywords[keyword]
	if !ok {
		// tolerate a tag glued to the keyword, as in POINTZ
		for _, tag := range []string{"ZM", "Z", "M"} {
			if t, found := wktKeywords[strings.TrimSuffix(keyword, tag)]; found && strings.HasSuffix(keyword, tag) {
				geomType, ok = t, true
				rest = tag + " " + rest
				break
			}
		}
	}
	if !ok {
		return hdr, "", fmt.Errorf("%w: unsupported WKT geometry %q", abi.ErrValidation, keyword)
	}
	hdr.geomType = geomType

	switch tok := leadingLetters(rest); tok {
	case "Z", "M", "ZM":
		hdr.dims = map[string]meta.Dimensions{"Z": meta.XYZ, "M": meta.XYM, "ZM": meta.XYZM}[tok]
		rest = strings.TrimSpace(rest[len(tok):])
	}

	switch {
	case leadingLetters(rest) == "EMPTY":
		hdr.empty = true
	case !strings.HasPrefix(rest, "("):
		return hdr, "", fmt.Errorf("%w: malformed WKT after %s", abi.ErrValidation, keyword)
	}
	return hdr, body, nil
}

func leadingLetters(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] < 'A' || s[i] > 'Z' {
			return s[:i]
		}
	}
	return s
}

// orbGeometry emits a complete nested geometry.
func orbGeometry(g orb.Geometry, h handler.Handler) handler.Result {
	t, size := orbType(g)
	if res := h.GeomStart(t, size); res != handler.Continue {
		return res
	}
	if res := orbBody(g, h); res != handler.Continue {
		return res
	}
	return h.GeomEnd()
}

// orbBody emits the contents of g without its GeomStart and GeomEnd.
func orbBody(g orb.Geometry, h handler.Handler) handler.Result {
	switch g := g.(type) {
	case orb.Point:
		return h.Coords(g[:], 1, 2)
	case orb.LineString:
		return orbCoords(g, h)
	case orb.Polygon:
		for _, ring := range g {
			if res := h.RingStart(int32(len(ring))); res != handler.Continue {
				return res
			}
			if res := orbCoords(ring, h); res != handler.Continue {
				return res
			}
			if res := h.RingEnd(); res != handler.Continue {
				return res
			}
		}
	case orb.MultiPoint:
		for _, p := range g {
			if res := orbGeometry(p, h); res != handler.Continue {
				return res
			}
		}
	case orb.MultiLineString:
		for _, ls := range g {
			if res := orbGeometry(ls, h); res != handler.Continue {
				return res
			}
		}
	case orb.MultiPolygon:
		for _, p := range g {
			if res := orbGeometry(p, h); res != handler.Continue {
				return res
			}
		}
	case orb.Collection:
		for _, member := range g {
			if res := orbGeometry(member, h); res != handler.Continue {
				return res
			}
		}
	}
	return handler.Continue
}

func orbCoords(points []orb.Point, h handler.Handler) handler.Result {
	if len(points) == 0 {
		return handler.Continue
	}
	coords := make([]float64, 0, 2*len(points))
	for _, p := range points {
		coords = append(coords, p[0], p[1])
	}
	return h.Coords(coords, int64(len(points)), 2)
}

func orbType(g orb.Geometry) (meta.GeometryType, int32) {
	switch g := g.(type) {
	case orb.Point:
		return meta.Point, 1
	case orb.LineString:
		return meta.Linestring, int32(len(g))
	case orb.Polygon:
		return meta.Polygon, int32(len(g))
	case orb.MultiPoint:
		return meta.MultiPoint, int32(len(g))
	case orb.MultiLineString:
		return meta.MultiLinestring, int32(len(g))
	case orb.MultiPolygon:
		return meta.MultiPolygon, int32(len(g))
	case orb.Collection:
		return meta.GeometryCollection, int32(len(g))
	default:
		return meta.GeometryTypeUnknown, handler.SizeUnknown
	}
}

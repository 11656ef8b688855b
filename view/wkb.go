package view

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/hugr-lab/geoarrow-go/abi"
	"github.com/hugr-lab/geoarrow-go/handler"
	"github.com/hugr-lab/geoarrow-go/meta"
)

// EWKB flag bits of the geometry type word.
const (
	ewkbZ    = 0x80000000
	ewkbM    = 0x40000000
	ewkbSRID = 0x20000000
)

// maxWKBDepth bounds the nesting of multi geometries and collections.
const maxWKBDepth = 128

var errTruncatedWKB = fmt.Errorf("%w: truncated WKB", abi.ErrValidation)

type wkbHeader struct {
	geomType meta.GeometryType
	dims     meta.Dimensions
	size     int32
}

// wkbReader walks one WKB value. Every geometry header is decoded before
// its body so that a handler aborting from GeomStart skips the coordinates.
type wkbReader struct {
	data    []byte
	pos     int
	order   binary.ByteOrder
	depth   int
	scratch []float64
}

func readWKB(data []byte, h handler.Handler) (handler.Result, error) {
	r := wkbReader{data: data}
	hdr, err := r.header()
	if err != nil {
		return handler.Abort, err
	}
	h.NewGeometryType(hdr.geomType)
	h.NewDimensions(hdr.dims)
	return r.geometry(hdr, h)
}

func (r *wkbReader) header() (wkbHeader, error) {
	if len(r.data)-r.pos < 5 {
		return wkbHeader{}, errTruncatedWKB
	}
	switch r.data[r.pos] {
	case 0:
		r.order = binary.BigEndian
	case 1:
		r.order = binary.LittleEndian
	default:
		return wkbHeader{}, fmt.Errorf("%w: invalid WKB byte order %d", abi.ErrValidation, r.data[r.pos])
	}
	r.pos++

	code, err := r.uint32()
	if err != nil {
		return wkbHeader{}, err
	}
	hasZ, hasM := code&ewkbZ != 0, code&ewkbM != 0
	if code&ewkbSRID != 0 {
		if _, err := r.uint32(); err != nil {
			return wkbHeader{}, err
		}
	}
	code &^= ewkbZ | ewkbM | ewkbSRID

	// ISO encodes dimensions in the thousands
	switch code / 1000 {
	case 1:
		hasZ = true
	case 2:
		hasM = true
	case 3:
		hasZ, hasM = true, true
	}
	code %= 1000
	if code < uint32(meta.Point) || code > uint32(meta.GeometryCollection) {
		return wkbHeader{}, fmt.Errorf("%w: unsupported WKB geometry type %d", abi.ErrValidation, code)
	}

	hdr := wkbHeader{geomType: meta.GeometryType(code), dims: meta.XY, size: 1}
	switch {
	case hasZ && hasM:
		hdr.dims = meta.XYZM
	case hasZ:
		hdr.dims = meta.XYZ
	case hasM:
		hdr.dims = meta.XYM
	}

	if hdr.geomType != meta.Point {
		n, err := r.uint32()
		if err != nil {
			return wkbHeader{}, err
		}
		if n > math.MaxInt32 {
			return wkbHeader{}, fmt.Errorf("%w: WKB element count %d", abi.ErrValidation, n)
		}
		hdr.size = int32(n)
	}
	return hdr, nil
}

func (r *wkbReader) geometry(hdr wkbHeader, h handler.Handler) (handler.Result, error) {
	if res := h.GeomStart(hdr.geomType, hdr.size); res != handler.Continue {
		return res, nil
	}

	coordSize := hdr.dims.CoordSize()
	switch hdr.geomType {
	case meta.Point, meta.Linestring:
		if res, err := r.coords(int64(hdr.size), coordSize, h); res != handler.Continue || err != nil {
			return res, err
		}

	case meta.Polygon:
		for i := int32(0); i < hdr.size; i++ {
			n, err := r.uint32()
			if err != nil {
				return handler.Abort, err
			}
			if n > math.MaxInt32 {
				return handler.Abort, fmt.Errorf("%w: WKB ring size %d", abi.ErrValidation, n)
			}
			if res := h.RingStart(int32(n)); res != handler.Continue {
				return res, nil
			}
			if res, err := r.coords(int64(n), coordSize, h); res != handler.Continue || err != nil {
				return res, err
			}
			if res := h.RingEnd(); res != handler.Continue {
				return res, nil
			}
		}

	default:
		if r.depth >= maxWKBDepth {
			return handler.Abort, fmt.Errorf("%w: WKB nested deeper than %d", abi.ErrValidation, maxWKBDepth)
		}
		r.depth++
		for i := int32(0); i < hdr.size; i++ {
			child, err := r.header()
			if err != nil {
				return handler.Abort, err
			}
			if res, err := r.geometry(child, h); res != handler.Continue || err != nil {
				return res, err
			}
		}
		r.depth--
	}

	return h.GeomEnd(), nil
}

// coords decodes n coordinates and passes them to h in one call.
func (r *wkbReader) coords(n int64, coordSize int, h handler.Handler) (handler.Result, error) {
	if n == 0 {
		return handler.Continue, nil
	}
	count := n * int64(coordSize)
	if count*8 > int64(len(r.data)-r.pos) {
		return handler.Abort, errTruncatedWKB
	}

	if int64(cap(r.scratch)) < count {
		r.scratch = make([]float64, count)
	}
	out := r.scratch[:count]
	for i := range out {
		out[i] = math.Float64frombits(r.order.Uint64(r.data[r.pos:]))
		r.pos += 8
	}
	return h.Coords(out, n, int32(coordSize)), nil
}

func (r *wkbReader) uint32() (uint32, error) {
	if len(r.data)-r.pos < 4 {
		return 0, errTruncatedWKB
	}
	v := r.order.Uint32(r.data[r.pos:])
	r.pos += 4
	return v, nil
}

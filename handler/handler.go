// Package handler defines the streaming event contract between a geometry
// source (an array view) and a consumer.
//
// A source drives a Handler through, per array:
//
//	NewSchema
//	NewGeometryType, NewDimensions  (once for native encodings)
//	ArrayStart
//	for each feature:
//		FeatStart
//		NewGeometryType, NewDimensions  (per feature for WKB and WKT)
//		NullFeat | GeomStart ... GeomEnd
//		FeatEnd
//	ArrayEnd
//
// Inside a geometry, RingStart/RingEnd bracket polygon rings and Coords
// delivers interleaved ordinates. Nested geometries of a collection produce
// nested GeomStart/GeomEnd pairs.
package handler

import (
	"github.com/hugr-lab/geoarrow-go/abi"
	"github.com/hugr-lab/geoarrow-go/meta"
)

// Result tells the source how to proceed after an event.
type Result int

const (
	// Continue with the next event.
	Continue Result = iota
	// Abort stops reading the array. No further events are delivered.
	Abort
	// AbortFeature skips the rest of the current feature, including its
	// FeatEnd.
	AbortFeature
)

func (r Result) String() string {
	switch r {
	case Continue:
		return "continue"
	case Abort:
		return "abort"
	case AbortFeature:
		return "abort_feature"
	default:
		return "unknown"
	}
}

// SizeUnknown is passed as the size of a geometry or ring whose element
// count is not known up front.
const SizeUnknown int32 = -1

// Handler consumes geometry events.
type Handler interface {
	NewSchema(schema *abi.ArrowSchema) Result
	NewGeometryType(t meta.GeometryType)
	NewDimensions(d meta.Dimensions)

	ArrayStart(array *abi.ArrowArray) Result
	FeatStart() Result
	NullFeat() Result
	GeomStart(t meta.GeometryType, size int32) Result
	RingStart(size int32) Result
	// Coords delivers n coordinates of coordSize interleaved ordinates.
	// The slice is only valid for the duration of the call.
	Coords(coords []float64, n int64, coordSize int32) Result
	RingEnd() Result
	GeomEnd() Result
	FeatEnd() Result
	ArrayEnd() Result
}

// Base implements Handler by continuing on every event. Embed it to
// implement only the events of interest.
type Base struct{}

var _ Handler = Base{}

func (Base) NewSchema(*abi.ArrowSchema) Result { return Continue }
func (Base) NewGeometryType(meta.GeometryType) {}
func (Base) NewDimensions(meta.Dimensions) {}
func (Base) ArrayStart(*abi.ArrowArray) Result { return Continue }
func (Base) FeatStart() Result { return Continue }
func (Base) NullFeat() Result { return Continue }
func (Base) GeomStart(meta.GeometryType, int32) Result { return Continue }
func (Base) RingStart(int32) Result { return Continue }
func (Base) Coords([]float64, int64, int32) Result { return Continue }
func (Base) RingEnd() Result { return Continue }
func (Base) GeomEnd() Result { return Continue }
func (Base) FeatEnd() Result { return Continue }
func (Base) ArrayEnd() Result { return Continue }

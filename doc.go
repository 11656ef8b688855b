// Package geoarrow builds and reads GeoArrow geometry arrays laid out as the
// Arrow C data interface struct pair.
//
// The write path lives in the builder and abi packages: typed buffer
// builders, a lazily materialized validity bitmap and array builders that
// publish a finished (array, schema) node pair through abi.Finalizer. The
// read path lives in meta and view: view.CreateView validates a schema tree
// against the GeoArrow encodings and returns a reader that drives a
// handler.Handler over arrays of that shape.
//
// # Quick Start
//
// Collect the GeoParquet geometry types of a WKB column:
//
//	package main
//
//	import (
//	    "log"
//
//	    "github.com/hugr-lab/geoarrow-go"
//	    "github.com/hugr-lab/geoarrow-go/abi"
//	    "github.com/hugr-lab/geoarrow-go/compute"
//	)
//
//	func main() {
//	    engine, err := geoarrow.NewEngine(geoarrow.Config{})
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    var array abi.ArrowArray
//	    var schema abi.ArrowSchema
//	    // ... fill array and schema, e.g. with abi.FromArrow
//
//	    var out abi.ArrowArray
//	    var outSchema abi.ArrowSchema
//	    if err := engine.Compute(compute.OpGeoParquetTypes, &array, &schema, &out, &outSchema); err != nil {
//	        log.Fatal(err)
//	    }
//	    defer geoarrow.FinalizeArray(&out)
//	    defer geoarrow.FinalizeSchema(&outSchema)
//	}
//
// # Supported Encodings
//
// Native: geoarrow.point (fixed-size list of doubles), geoarrow.linestring,
// geoarrow.polygon, geoarrow.multipoint, geoarrow.multilinestring,
// geoarrow.multipolygon and geoarrow.geometrycollection (lists of the above).
// Serialized: geoarrow.wkb over binary, large binary or fixed-width binary,
// and geoarrow.wkt over string, large string, binary or large binary.
//
// The extension package registers all of them as arrow-go extension types.
//
// # Errors
//
// Failures wrap one of ErrAllocation, ErrValidation, ErrReleased,
// ErrUnknownOperation or ErrPanic; test with errors.Is. Layout rejects are
// *meta.ValidationError values naming the extension and storage involved.
//
// # Logging
//
// Engines log through Config.Logger, or a text logger on stderr at
// Config.LogLevel. Views and builders do not log.
//
// # Memory Management
//
// Every published node pair owns its memory and must be released exactly
// once, either through its Release methods or FinalizeArray/FinalizeSchema.
// Views borrow their schema; use Engine.OpenView for a view that owns it and
// free it with DisposeView. Builders that are never released must be
// discarded (DisposeBuilder).
//
// The package is single-threaded: builders and views are not safe for
// concurrent use.
package geoarrow

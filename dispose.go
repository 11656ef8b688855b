package geoarrow

import (
	"log/slog"

	"github.com/hugr-lab/geoarrow-go/abi"
	"github.com/hugr-lab/geoarrow-go/internal/recovery"
	"github.com/hugr-lab/geoarrow-go/view"
)

// View is a view that owns its schema. It is the handle a host keeps for a
// view; DisposeView frees it.
type View struct {
	view.ArrayView
	schema *abi.ArrowSchema
}

// OpenView moves schema into a new View. On success schema is left in the
// released state; on error it is untouched.
func (e *Engine) OpenView(schema *abi.ArrowSchema) (*View, error) {
	if schema.IsReleased() {
		_, err := e.CreateView(schema)
		return nil, err
	}
	owned := &abi.ArrowSchema{}
	*owned = *schema
	*schema = abi.ArrowSchema{}

	v, err := e.CreateView(owned)
	if err != nil {
		*schema = *owned
		return nil, err
	}
	return &View{ArrayView: v, schema: owned}, nil
}

// Disposer is implemented by every builder.
type Disposer interface {
	Discard()
}

// FinalizeArray releases a host-held array node. It is safe on nil and on
// released nodes.
func FinalizeArray(array *abi.ArrowArray) {
	recovery.Recover(slog.Default(), "FinalizeArray", array.Release)
}

// FinalizeSchema releases a host-held schema node. It is safe on nil and on
// released nodes.
func FinalizeSchema(schema *abi.ArrowSchema) {
	recovery.Recover(slog.Default(), "FinalizeSchema", schema.Release)
}

// DisposeBuilder discards a builder that was never released. It is safe on
// nil and after Release.
func DisposeBuilder(b Disposer) {
	if b == nil {
		return
	}
	recovery.Recover(slog.Default(), "DisposeBuilder", b.Discard)
}

// DisposeView releases the schema owned by v. It is safe on nil and when
// called twice.
func DisposeView(v *View) {
	if v == nil {
		return
	}
	recovery.Recover(slog.Default(), "DisposeView", v.schema.Release)
}

package geotest

import (
	"fmt"
	"strings"

	"github.com/hugr-lab/geoarrow-go/abi"
	"github.com/hugr-lab/geoarrow-go/handler"
	"github.com/hugr-lab/geoarrow-go/meta"
)

// Recorder logs every event as a short string. Results maps an event name
// (for example "geom_start") to the result returned for it; unlisted events
// continue.
type Recorder struct {
	Events  []string
	Results map[string]handler.Result
}

var _ handler.Handler = (*Recorder)(nil)

func (r *Recorder) record(name string, format string, args ...any) handler.Result {
	event := name
	if format != "" {
		event += " " + fmt.Sprintf(format, args...)
	}
	r.Events = append(r.Events, event)
	return r.Results[name]
}

// String joins the events with newlines.
func (r *Recorder) String() string { return strings.Join(r.Events, "\n") }

func (r *Recorder) NewSchema(*abi.ArrowSchema) handler.Result { return r.record("schema", "") }

func (r *Recorder) NewGeometryType(t meta.GeometryType) { r.record("type", "%s", t) }

func (r *Recorder) NewDimensions(d meta.Dimensions) { r.record("dims", "%s", d) }

func (r *Recorder) ArrayStart(*abi.ArrowArray) handler.Result { return r.record("array_start", "") }

func (r *Recorder) FeatStart() handler.Result { return r.record("feat_start", "") }

func (r *Recorder) NullFeat() handler.Result { return r.record("null", "") }

func (r *Recorder) GeomStart(t meta.GeometryType, size int32) handler.Result {
	return r.record("geom_start", "%s %d", t, size)
}

func (r *Recorder) RingStart(size int32) handler.Result { return r.record("ring_start", "%d", size) }

func (r *Recorder) Coords(coords []float64, n int64, coordSize int32) handler.Result {
	return r.record("coords", "%d/%d %v", n, coordSize, coords)
}

func (r *Recorder) RingEnd() handler.Result { return r.record("ring_end", "") }

func (r *Recorder) GeomEnd() handler.Result { return r.record("geom_end", "") }

func (r *Recorder) FeatEnd() handler.Result { return r.record("feat_end", "") }

func (r *Recorder) ArrayEnd() handler.Result { return r.record("array_end", "") }

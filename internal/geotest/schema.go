// Package geotest builds schema trees for tests of the read path.
package geotest

import (
	"strconv"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/hugr-lab/geoarrow-go/abi"
)

// Node returns a live schema node. An empty extension leaves the metadata
// empty. Children are attached and released with the node.
func Node(format, name, extension string, children ...*abi.ArrowSchema) *abi.ArrowSchema {
	mem := memory.DefaultAllocator

	s := &abi.ArrowSchema{}
	abi.AllocateSchema(mem, s, len(children))
	s.Format = format
	s.Name = name
	copy(s.Children, children)

	if extension != "" {
		md, err := abi.EncodeMetadata(mem, arrow.NewMetadata(
			[]string{abi.ExtensionNameKey}, []string{extension}))
		if err != nil {
			panic(err)
		}
		s.Metadata = md
	}
	return s
}

// Point returns a "+w:N" geoarrow.point node whose coordinate child is
// named dims.
func Point(dims string) *abi.ArrowSchema {
	return Node("+w:"+strconv.Itoa(len(dims)), "geometry", "geoarrow.point", Node("g", dims, ""))
}

// Linestring returns a "+l" geoarrow.linestring node of points.
func Linestring(dims string) *abi.ArrowSchema {
	return Node("+l", "geometry", "geoarrow.linestring", Point(dims))
}

// Polygon returns a "+l" geoarrow.polygon node of rings.
func Polygon(dims string) *abi.ArrowSchema {
	return Node("+l", "geometry", "geoarrow.polygon", Node("+l", "rings", "", Point(dims)))
}

// Collection wraps child in a "+l" node tagged extension.
func Collection(extension string, child *abi.ArrowSchema) *abi.ArrowSchema {
	return Node("+l", "geometry", extension, child)
}

// Package compute holds consumers that turn handler events into a result
// array.
package compute

import (
	"errors"
	"fmt"
	"sort"

	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/hugr-lab/geoarrow-go/abi"
	"github.com/hugr-lab/geoarrow-go/handler"
)

// ErrUnknownOperation is returned by New for an unregistered operation.
var ErrUnknownOperation = errors.New("unknown compute operation")

// Builder is a handler that publishes its result as an array. Release may
// be called once; Discard frees any state and is safe after Release.
type Builder interface {
	handler.Handler
	Release(arrayOut *abi.ArrowArray, schemaOut *abi.ArrowSchema) error
	Discard()
}

// OpGeoParquetTypes collects the distinct GeoParquet geometry type labels
// of an array.
const OpGeoParquetTypes = "geoparquet_types"

var operations = map[string]func(mem memory.Allocator) Builder{
	OpGeoParquetTypes: func(mem memory.Allocator) Builder { return NewTypeCollector(mem) },
}

// New returns the builder registered for op. A nil mem uses
// memory.DefaultAllocator.
func New(op string, mem memory.Allocator) (Builder, error) {
	newBuilder, ok := operations[op]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownOperation, op)
	}
	if mem == nil {
		mem = memory.DefaultAllocator
	}
	return newBuilder(mem), nil
}

// Operations lists the registered operation names in sorted order.
func Operations() []string {
	ops := make([]string, 0, len(operations))
	for op := range operations {
		ops = append(ops, op)
	}
	sort.Strings(ops)
	return ops
}

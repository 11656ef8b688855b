package geoarrow

import (
	"fmt"
	"log/slog"

	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/hugr-lab/geoarrow-go/abi"
	"github.com/hugr-lab/geoarrow-go/compute"
	"github.com/hugr-lab/geoarrow-go/handler"
	"github.com/hugr-lab/geoarrow-go/internal/msgpack"
	"github.com/hugr-lab/geoarrow-go/internal/recovery"
	"github.com/hugr-lab/geoarrow-go/internal/serialize"
	"github.com/hugr-lab/geoarrow-go/view"

	// registers the geoarrow.* extension types used by snapshots
	_ "github.com/hugr-lab/geoarrow-go/extension"
)

// Engine is the host-facing entry point. It holds the allocator and logger
// shared by the views, builders and snapshots it creates, and keeps no other
// state: an Engine may be used from several goroutines as long as the
// objects it returns are not shared.
type Engine struct {
	mem    memory.Allocator
	logger *slog.Logger
}

// NewEngine validates config and returns an Engine.
//
// Example:
//
//	level := slog.LevelDebug
//	engine, err := geoarrow.NewEngine(geoarrow.Config{LogLevel: &level})
//	if err != nil {
//	    log.Fatal(err)
//	}
func NewEngine(config Config) (*Engine, error) {
	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	mem := config.Allocator
	if mem == nil {
		mem = memory.DefaultAllocator
	}
	return &Engine{mem: mem, logger: newLogger(config)}, nil
}

// Allocator returns the engine's allocator.
func (e *Engine) Allocator() memory.Allocator { return e.mem }

// Logger returns the engine's logger.
func (e *Engine) Logger() *slog.Logger { return e.logger }

// CreateView validates schema and returns a view borrowing it.
func (e *Engine) CreateView(schema *abi.ArrowSchema) (view.ArrayView, error) {
	v, err := recovery.RecoverToValue(e.logger, "CreateView", func() (view.ArrayView, error) {
		return view.CreateView(schema)
	})
	if err != nil {
		e.logger.Debug("View rejected", "error", err)
		return nil, err
	}
	e.logger.Debug("View created",
		"name", v.Meta().Name,
		"extension", v.Meta().Extension,
		"storage", v.Meta().Storage,
		"dimensions", v.Dimensions(),
	)
	return v, nil
}

// Read drives h over array through v. A panic raised by h is returned as an
// error wrapping ErrPanic.
func (e *Engine) Read(v view.ArrayView, array *abi.ArrowArray, h handler.Handler) error {
	return recovery.RecoverToError(e.logger, "Read", func() error {
		return v.Read(array, h)
	})
}

// NewComputeBuilder returns the builder registered for op, allocating from
// the engine's allocator.
func (e *Engine) NewComputeBuilder(op string) (compute.Builder, error) {
	return compute.New(op, e.mem)
}

// Compute reads array (described by schema) into the builder for op and
// publishes its result into arrayOut/schemaOut.
func (e *Engine) Compute(op string, array *abi.ArrowArray, schema *abi.ArrowSchema, arrayOut *abi.ArrowArray, schemaOut *abi.ArrowSchema) error {
	v, err := e.CreateView(schema)
	if err != nil {
		return err
	}
	b, err := e.NewComputeBuilder(op)
	if err != nil {
		return err
	}
	defer b.Discard()

	if err := e.Read(v, array, b); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := b.Release(arrayOut, schemaOut); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	e.logger.Debug("Compute finished", "op", op, "length", array.Length, "result_length", arrayOut.Length)
	return nil
}

// ComputeRequest decodes a MessagePack request built by EncodeComputeRequest,
// restores its input and runs Compute on it.
func (e *Engine) ComputeRequest(data []byte, arrayOut *abi.ArrowArray, schemaOut *abi.ArrowSchema) error {
	req, err := msgpack.DecodeComputeRequest(data)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	var input abi.ArrowArray
	var inputSchema abi.ArrowSchema
	if err := e.Restore(req.Input, &input, &inputSchema); err != nil {
		return err
	}
	defer inputSchema.Release()
	defer input.Release()

	return e.Compute(req.Op, &input, &inputSchema, arrayOut, schemaOut)
}

// EncodeComputeRequest builds the request ComputeRequest accepts. input is a
// snapshot produced by Engine.Snapshot.
func EncodeComputeRequest(op string, input []byte) ([]byte, error) {
	return msgpack.Encode(msgpack.ComputeRequest{Op: op, Input: input})
}

// Snapshot serializes a node pair as a zstd-compressed Arrow IPC stream.
// The nodes are only borrowed.
func (e *Engine) Snapshot(array *abi.ArrowArray, schema *abi.ArrowSchema) ([]byte, error) {
	field, arr, err := abi.ToArrow(array, schema)
	if err != nil {
		return nil, err
	}
	defer arr.Release()

	data, err := serialize.WriteSnapshot(e.mem, field, arr)
	if err != nil {
		return nil, fmt.Errorf("snapshot %q: %w", schema.Name, err)
	}
	e.logger.Debug("Snapshot written", "name", schema.Name, "length", array.Length, "bytes", len(data))
	return data, nil
}

// Restore decodes a snapshot into arrayOut/schemaOut.
func (e *Engine) Restore(data []byte, arrayOut *abi.ArrowArray, schemaOut *abi.ArrowSchema) error {
	field, arr, err := serialize.ReadSnapshot(e.mem, data)
	if err != nil {
		return fmt.Errorf("%w: restore: %v", ErrValidation, err)
	}
	defer arr.Release()

	return abi.FromArrow(e.mem, field, arr, arrayOut, schemaOut)
}

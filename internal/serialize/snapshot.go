// Package serialize writes single-column snapshots: an Arrow IPC stream
// holding one record batch, compressed with zstd.
package serialize

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// ErrEmptySnapshot is returned when a stream holds no record batch.
var ErrEmptySnapshot = errors.New("snapshot has no record batch")

// WriteSnapshot serializes arr as the only column of a record batch named
// after field.
func WriteSnapshot(mem memory.Allocator, field arrow.Field, arr arrow.Array) ([]byte, error) {
	schema := arrow.NewSchema([]arrow.Field{field}, nil)
	record := array.NewRecord(schema, []arrow.Array{arr}, int64(arr.Len()))
	defer record.Release()

	var buf bytes.Buffer
	writer := ipc.NewWriter(&buf, ipc.WithSchema(schema), ipc.WithAllocator(mem))
	defer writer.Close()

	if err := writer.Write(record); err != nil {
		return nil, fmt.Errorf("failed to write IPC record: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close IPC writer: %w", err)
	}

	compressor, err := NewCompressor()
	if err != nil {
		return nil, err
	}
	defer compressor.Close()

	return compressor.Compress(buf.Bytes()), nil
}

// ReadSnapshot decodes a snapshot written by WriteSnapshot. The caller
// releases the returned array.
func ReadSnapshot(mem memory.Allocator, data []byte) (arrow.Field, arrow.Array, error) {
	decompressor, err := NewDecompressor()
	if err != nil {
		return arrow.Field{}, nil, err
	}
	defer decompressor.Close()

	raw, err := decompressor.Decompress(data)
	if err != nil {
		return arrow.Field{}, nil, err
	}

	reader, err := ipc.NewReader(bytes.NewReader(raw), ipc.WithAllocator(mem))
	if err != nil {
		return arrow.Field{}, nil, fmt.Errorf("failed to open IPC stream: %w", err)
	}
	defer reader.Release()

	if !reader.Next() {
		if err := reader.Err(); err != nil {
			return arrow.Field{}, nil, fmt.Errorf("failed to read IPC record: %w", err)
		}
		return arrow.Field{}, nil, ErrEmptySnapshot
	}

	record := reader.Record()
	if record.NumCols() != 1 {
		return arrow.Field{}, nil, fmt.Errorf("snapshot has %d columns, expected 1", record.NumCols())
	}
	col := record.Column(0)
	col.Retain()
	return record.Schema().Field(0), col, nil
}

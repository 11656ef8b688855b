package builder

import (
	"errors"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/bitutil"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/hugr-lab/geoarrow-go/abi"
)

func TestFloat64ArrayBuilder(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	b, err := NewFloat64ArrayBuilder(mem, 0)
	if err != nil {
		t.Fatalf("NewFloat64ArrayBuilder() failed: %v", err)
	}
	if err := b.WriteElement(1); err != nil {
		t.Fatalf("WriteElement() failed: %v", err)
	}
	if err := b.WriteNull(); err != nil {
		t.Fatalf("WriteNull() failed: %v", err)
	}
	if err := b.WriteElement(3); err != nil {
		t.Fatalf("WriteElement() failed: %v", err)
	}

	var arr abi.ArrowArray
	var schema abi.ArrowSchema
	if err := b.Release(&arr, &schema); err != nil {
		t.Fatalf("Release() failed: %v", err)
	}
	defer arr.Release()
	defer schema.Release()

	if schema.Format != "g" {
		t.Errorf("expected format g, got %q", schema.Format)
	}
	if arr.Length != 3 || arr.NullCount != 1 || arr.NBuffers() != 2 {
		t.Fatalf("unexpected array: length=%d null_count=%d buffers=%d", arr.Length, arr.NullCount, arr.NBuffers())
	}

	validity := arr.Buffers[0]
	for i, want := range []bool{true, false, true} {
		if bitutil.BitIsSet(validity, i) != want {
			t.Errorf("validity bit %d: expected %v", i, want)
		}
	}
	values := arrow.GetData[float64](arr.Buffers[1])
	if len(values) != 3 || values[0] != 1 || values[2] != 3 {
		t.Errorf("unexpected values %v", values)
	}

	if err := b.Release(&abi.ArrowArray{}, &abi.ArrowSchema{}); !errors.Is(err, ErrReleased) {
		t.Errorf("expected ErrReleased, got %v", err)
	}
}

func TestFloat64ArrayBuilderNoNulls(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	b, err := NewFloat64ArrayBuilder(mem, 4)
	if err != nil {
		t.Fatalf("NewFloat64ArrayBuilder() failed: %v", err)
	}
	if err := b.WriteBuffer([]float64{0.5, 1.5, 2.5, 3.5, 4.5}); err != nil {
		t.Fatalf("WriteBuffer() failed: %v", err)
	}

	var arr abi.ArrowArray
	var schema abi.ArrowSchema
	if err := b.Release(&arr, &schema); err != nil {
		t.Fatalf("Release() failed: %v", err)
	}
	defer arr.Release()
	defer schema.Release()

	if arr.Buffers[0] != nil {
		t.Error("all-valid array should not carry a validity buffer")
	}
	if arr.NullCount != 0 || arr.Length != 5 {
		t.Errorf("unexpected array: length=%d null_count=%d", arr.Length, arr.NullCount)
	}
}

func TestFloat64ArrayBuilderRejectsLiveOutput(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	b, err := NewFloat64ArrayBuilder(mem, 0)
	if err != nil {
		t.Fatalf("NewFloat64ArrayBuilder() failed: %v", err)
	}
	if err := b.WriteNull(); err != nil {
		t.Fatalf("WriteNull() failed: %v", err)
	}

	var live abi.ArrowArray
	abi.AllocateArray(mem, &live, 0, 0)
	defer live.Release()

	err = b.Release(&live, &abi.ArrowSchema{})
	if !errors.Is(err, abi.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestFloat64ArrayBuilderAllocationFailure(t *testing.T) {
	mem := newFailingAllocator(256)

	b, err := NewFloat64ArrayBuilder(mem, 8)
	if err != nil {
		t.Fatalf("NewFloat64ArrayBuilder() failed: %v", err)
	}
	defer b.Discard()

	if err := b.WriteNull(); err != nil {
		t.Fatalf("WriteNull() failed: %v", err)
	}
	err = b.WriteBuffer(make([]float64, 64))
	if !errors.Is(err, abi.ErrAllocation) {
		t.Fatalf("expected ErrAllocation, got %v", err)
	}

	b.Discard()
	if mem.used != 0 {
		t.Errorf("expected no outstanding bytes, got %d", mem.used)
	}
}

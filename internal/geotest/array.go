package geotest

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/bitutil"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/hugr-lab/geoarrow-go/abi"
)

// Array returns a live array node over Go-managed buffers. Releasing it
// through memory.DefaultAllocator leaves the buffers to the garbage
// collector.
func Array(length int64, buffers [][]byte, children ...*abi.ArrowArray) *abi.ArrowArray {
	a := &abi.ArrowArray{}
	abi.AllocateArray(memory.DefaultAllocator, a, len(buffers), len(children))
	a.Length = length
	a.NullCount = 0
	copy(a.Buffers, buffers)
	copy(a.Children, children)
	return a
}

// WithNulls sets the validity bitmap of a from valid and returns a.
func WithNulls(a *abi.ArrowArray, valid ...bool) *abi.ArrowArray {
	bitmap := make([]byte, bitutil.BytesForBits(int64(len(valid))))
	a.NullCount = 0
	for i, v := range valid {
		if v {
			bitutil.SetBit(bitmap, i)
		} else {
			a.NullCount++
		}
	}
	a.Buffers[0] = bitmap
	return a
}

// Points returns a fixed-size list array of width ordinates per point.
func Points(width int, ordinates ...float64) *abi.ArrowArray {
	coords := Array(int64(len(ordinates)), [][]byte{nil, arrow.GetBytes(ordinates)})
	return Array(int64(len(ordinates)/width), [][]byte{nil}, coords)
}

// List returns a list array of len(offsets)-1 elements over child.
func List(offsets []int32, child *abi.ArrowArray) *abi.ArrowArray {
	return Array(int64(len(offsets)-1), [][]byte{nil, arrow.GetBytes(offsets)}, child)
}

// Binary returns a "z" or "u" array. A nil value is null.
func Binary(values ...[]byte) *abi.ArrowArray {
	offsets := make([]int32, 1, len(values)+1)
	var data []byte
	valid := make([]bool, len(values))
	for i, v := range values {
		data = append(data, v...)
		offsets = append(offsets, int32(len(data)))
		valid[i] = v != nil
	}
	return WithNulls(Array(int64(len(values)), [][]byte{nil, arrow.GetBytes(offsets), data}), valid...)
}

// LargeBinary is Binary with 64-bit offsets.
func LargeBinary(values ...[]byte) *abi.ArrowArray {
	offsets := make([]int64, 1, len(values)+1)
	var data []byte
	valid := make([]bool, len(values))
	for i, v := range values {
		data = append(data, v...)
		offsets = append(offsets, int64(len(data)))
		valid[i] = v != nil
	}
	return WithNulls(Array(int64(len(values)), [][]byte{nil, arrow.GetBytes(offsets), data}), valid...)
}

// FixedWidth returns a "w:N" array whose values all have the same length.
func FixedWidth(values ...[]byte) *abi.ArrowArray {
	var data []byte
	for _, v := range values {
		data = append(data, v...)
	}
	return Array(int64(len(values)), [][]byte{nil, data})
}

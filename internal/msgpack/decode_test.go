package msgpack

import (
	"bytes"
	"testing"
)

func TestComputeRequestRoundTrip(t *testing.T) {
	data, err := Encode(ComputeRequest{Op: "geoparquet_types", Input: []byte{1, 2, 3}})
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}

	req, err := DecodeComputeRequest(data)
	if err != nil {
		t.Fatalf("DecodeComputeRequest() failed: %v", err)
	}
	if req.Op != "geoparquet_types" || !bytes.Equal(req.Input, []byte{1, 2, 3}) {
		t.Errorf("unexpected request %+v", req)
	}
}

func TestDecodeComputeRequestErrors(t *testing.T) {
	noInput, _ := Encode(ComputeRequest{Op: "geoparquet_types"})
	noOp, _ := Encode(map[string]any{"input": []byte{1}})

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"garbage", []byte{0xc1}},
		{"no input", noInput},
		{"no op", noOp},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeComputeRequest(tt.data); err == nil {
				t.Error("expected error")
			}
		})
	}
}

// Package msgpack is the MessagePack codec for compute requests sent by a
// host across the library boundary.
package msgpack

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// ComputeRequest names an operation and carries its input as a snapshot
// (see internal/serialize).
type ComputeRequest struct {
	Op    string `msgpack:"op"`
	Input []byte `msgpack:"input"`
}

// Decode deserializes MessagePack data into a Go value.
// The v parameter should be a pointer to the target structure.
func Decode(data []byte, v any) error {
	if len(data) == 0 {
		return fmt.Errorf("empty MessagePack data")
	}
	if err := msgpack.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode MessagePack: %w", err)
	}
	return nil
}

// Encode serializes a Go value into MessagePack format.
func Encode(v any) ([]byte, error) {
	data, err := msgpack.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode MessagePack: %w", err)
	}
	return data, nil
}

// DecodeComputeRequest decodes and checks a request.
func DecodeComputeRequest(data []byte) (ComputeRequest, error) {
	var req ComputeRequest
	if err := Decode(data, &req); err != nil {
		return ComputeRequest{}, err
	}
	if req.Op == "" {
		return ComputeRequest{}, fmt.Errorf("compute request has no op")
	}
	if len(req.Input) == 0 {
		return ComputeRequest{}, fmt.Errorf("compute request %q has no input", req.Op)
	}
	return req, nil
}

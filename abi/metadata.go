package abi

import (
	"encoding/binary"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// Well-known metadata keys for extension types.
const (
	ExtensionNameKey     = "ARROW:extension:name"
	ExtensionMetadataKey = "ARROW:extension:metadata"
)

// EncodeMetadata serializes md with the C data interface layout
//
//	[int32] number of pairs
//	for each pair
//		[int32] key length, [n bytes] key
//		[int32] value length, [n bytes] value
//
// into a buffer allocated from mem. Empty metadata encodes to nil.
func EncodeMetadata(mem memory.Allocator, md arrow.Metadata) ([]byte, error) {
	if md.Len() == 0 {
		return nil, nil
	}

	size := arrow.Int32SizeBytes
	for i := 0; i < md.Len(); i++ {
		size += 2*arrow.Int32SizeBytes + len(md.Keys()[i]) + len(md.Values()[i])
	}

	out, err := Allocate(mem, size)
	if err != nil {
		return nil, fmt.Errorf("encode metadata: %w", err)
	}

	buf := out
	putString := func(s string) {
		binary.NativeEndian.PutUint32(buf, uint32(len(s)))
		buf = buf[arrow.Int32SizeBytes:]
		buf = buf[copy(buf, s):]
	}

	binary.NativeEndian.PutUint32(buf, uint32(md.Len()))
	buf = buf[arrow.Int32SizeBytes:]
	for i := 0; i < md.Len(); i++ {
		putString(md.Keys()[i])
		putString(md.Values()[i])
	}

	return out, nil
}

// DecodeMetadata parses bytes produced by EncodeMetadata (or any C producer).
// Nil input decodes to empty metadata.
func DecodeMetadata(data []byte) (arrow.Metadata, error) {
	if len(data) == 0 {
		return arrow.Metadata{}, nil
	}

	readInt32 := func() (int, error) {
		if len(data) < arrow.Int32SizeBytes {
			return 0, fmt.Errorf("%w: truncated metadata", ErrValidation)
		}
		v := int32(binary.NativeEndian.Uint32(data))
		data = data[arrow.Int32SizeBytes:]
		if v < 0 {
			return 0, fmt.Errorf("%w: negative metadata length %d", ErrValidation, v)
		}
		return int(v), nil
	}

	readString := func() (string, error) {
		n, err := readInt32()
		if err != nil {
			return "", err
		}
		if len(data) < n {
			return "", fmt.Errorf("%w: truncated metadata string", ErrValidation)
		}
		s := string(data[:n])
		data = data[n:]
		return s, nil
	}

	npairs, err := readInt32()
	if err != nil {
		return arrow.Metadata{}, err
	}
	if npairs == 0 {
		return arrow.Metadata{}, nil
	}
	if npairs > len(data)/(2*arrow.Int32SizeBytes) {
		return arrow.Metadata{}, fmt.Errorf("%w: metadata claims %d pairs", ErrValidation, npairs)
	}

	keys := make([]string, npairs)
	vals := make([]string, npairs)
	for i := 0; i < npairs; i++ {
		if keys[i], err = readString(); err != nil {
			return arrow.Metadata{}, err
		}
		if vals[i], err = readString(); err != nil {
			return arrow.Metadata{}, err
		}
	}

	return arrow.NewMetadata(keys, vals), nil
}

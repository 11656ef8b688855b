package serialize

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// Compressor wraps a reusable zstd encoder. Compress is safe for
// concurrent use.
type Compressor struct {
	encoder *zstd.Encoder
}

// NewCompressor returns a compressor at zstd.SpeedDefault. Close releases it.
func NewCompressor() (*Compressor, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	return &Compressor{encoder: encoder}, nil
}

// Compress returns data compressed as a single zstd frame.
func (c *Compressor) Compress(data []byte) []byte {
	if len(data) == 0 {
		return []byte{}
	}
	return c.encoder.EncodeAll(data, make([]byte, 0, len(data)/2))
}

func (c *Compressor) Close() error {
	if c.encoder != nil {
		return c.encoder.Close()
	}
	return nil
}

// Decompressor wraps a reusable zstd decoder. Decompress is safe for
// concurrent use.
type Decompressor struct {
	decoder *zstd.Decoder
}

// NewDecompressor returns a decompressor. Close releases it.
func NewDecompressor() (*Decompressor, error) {
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	return &Decompressor{decoder: decoder}, nil
}

// Decompress inflates one or more zstd frames.
func (d *Decompressor) Decompress(compressed []byte) ([]byte, error) {
	if len(compressed) == 0 {
		return []byte{}, nil
	}
	out, err := d.decoder.DecodeAll(compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress: %w", err)
	}
	return out, nil
}

func (d *Decompressor) Close() {
	if d.decoder != nil {
		d.decoder.Close()
	}
}

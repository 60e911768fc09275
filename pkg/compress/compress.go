// Package compress handles compressed scan-report uploads.
//
// Scanner reports are frequently shipped gzip- or zstd-wrapped. The package
// detects the wrapper from magic bytes, so a mislabeled upload still
// decompresses, and exposes a Compressor for producing wrapped payloads.
//
// Supported algorithms:
//   - ZSTD (Zstandard): best balance of speed and compression ratio
//   - Gzip: maximum compatibility with existing tooling
package compress

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// Algorithm represents a compression algorithm.
type Algorithm string

const (
	// AlgorithmZSTD is the Zstandard compression algorithm.
	AlgorithmZSTD Algorithm = "zstd"

	// AlgorithmGzip is the gzip compression algorithm.
	AlgorithmGzip Algorithm = "gzip"

	// AlgorithmNone indicates an uncompressed payload.
	AlgorithmNone Algorithm = "none"
)

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// DetectAlgorithm identifies the compression wrapper from magic bytes.
// Returns AlgorithmNone for anything that is not gzip or zstd.
func DetectAlgorithm(data []byte) Algorithm {
	switch {
	case bytes.HasPrefix(data, gzipMagic):
		return AlgorithmGzip
	case bytes.HasPrefix(data, zstdMagic):
		return AlgorithmZSTD
	default:
		return AlgorithmNone
	}
}

// IsCompressed reports whether the payload carries a known wrapper.
func IsCompressed(data []byte) bool {
	return DetectAlgorithm(data) != AlgorithmNone
}

// Decompress unwraps a payload, detecting the algorithm from magic bytes.
// Uncompressed payloads pass through unchanged.
func Decompress(data []byte) ([]byte, error) {
	switch DetectAlgorithm(data) {
	case AlgorithmGzip:
		return decompressGzip(data)
	case AlgorithmZSTD:
		return defaultZSTD.decompress(data)
	default:
		return data, nil
	}
}

func decompressGzip(data []byte) ([]byte, error) {
	reader, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("gzip reader error: %w", err)
	}
	defer reader.Close()

	result, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("gzip decompress error: %w", err)
	}
	return result, nil
}

// zstdCodec pools zstd encoders and decoders for reuse across uploads.
type zstdCodec struct {
	encoderPool sync.Pool
	decoderPool sync.Pool
}

var defaultZSTD = &zstdCodec{
	encoderPool: sync.Pool{
		New: func() any {
			enc, _ := zstd.NewWriter(nil)
			return enc
		},
	},
	decoderPool: sync.Pool{
		New: func() any {
			dec, _ := zstd.NewReader(nil)
			return dec
		},
	},
}

func (c *zstdCodec) compress(data []byte) ([]byte, error) {
	enc := c.encoderPool.Get().(*zstd.Encoder)
	defer c.encoderPool.Put(enc)

	var buf bytes.Buffer
	enc.Reset(&buf)

	if _, err := enc.Write(data); err != nil {
		return nil, fmt.Errorf("zstd write error: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("zstd close error: %w", err)
	}
	return buf.Bytes(), nil
}

func (c *zstdCodec) decompress(data []byte) ([]byte, error) {
	dec := c.decoderPool.Get().(*zstd.Decoder)
	defer c.decoderPool.Put(dec)

	if err := dec.Reset(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("zstd reset error: %w", err)
	}

	result, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("zstd decompress error: %w", err)
	}
	return result, nil
}

// Compress wraps a payload with the given algorithm.
func Compress(data []byte, algorithm Algorithm) ([]byte, error) {
	switch algorithm {
	case AlgorithmZSTD:
		return defaultZSTD.compress(data)
	case AlgorithmGzip:
		var buf bytes.Buffer
		writer := gzip.NewWriter(&buf)
		if _, err := writer.Write(data); err != nil {
			return nil, fmt.Errorf("gzip write error: %w", err)
		}
		if err := writer.Close(); err != nil {
			return nil, fmt.Errorf("gzip close error: %w", err)
		}
		return buf.Bytes(), nil
	case AlgorithmNone:
		return data, nil
	default:
		return nil, fmt.Errorf("unsupported compression algorithm: %s", algorithm)
	}
}

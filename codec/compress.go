package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression identifies a block compression algorithm.
type Compression uint8

const (
	// CompressionNone stores blocks as-is.
	CompressionNone Compression = 0
	// CompressionLZ4 is fast; used for the in-memory cache.
	CompressionLZ4 Compression = 1
	// CompressionZstd has a better ratio; used for the blob store tier.
	CompressionZstd Compression = 2
)

// String returns the stable name of the compression.
func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("compression(%d)", uint8(c))
	}
}

// ParseCompression parses a compression name.
func ParseCompression(s string) (Compression, error) {
	switch s {
	case "", "none":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZstd, nil
	default:
		return 0, fmt.Errorf("unknown compression %q", s)
	}
}

// ErrCorruptBlock is returned when a block cannot be decoded.
var ErrCorruptBlock = errors.New("codec: corrupt block")

// Block format: [algo uint8][uncompressed size uint32][payload].
// A block whose payload did not shrink is stored with CompressionNone.
const blockHeaderSize = 5

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

// Compress wraps data into a self-describing block.
func Compress(data []byte, c Compression) ([]byte, error) {
	var payload []byte

	switch c {
	case CompressionNone:
	case CompressionLZ4:
		buf := make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := lz4.CompressBlock(data, buf, nil)
		if err != nil {
			return nil, err
		}
		payload = buf[:n]
	case CompressionZstd:
		enc := getZstdEncoder()
		payload = enc.EncodeAll(data, nil)
		zstdEncoderPool.Put(enc)
	default:
		return nil, fmt.Errorf("codec: unsupported compression %s", c)
	}

	// Incompressible (lz4 reports n == 0) or no gain.
	if len(payload) == 0 || len(payload) >= len(data) {
		c = CompressionNone
		payload = data
	}

	out := make([]byte, blockHeaderSize+len(payload))
	out[0] = byte(c)
	binary.LittleEndian.PutUint32(out[1:], uint32(len(data)))
	copy(out[blockHeaderSize:], payload)
	return out, nil
}

// Decompress decodes a block produced by Compress.
func Decompress(block []byte) ([]byte, error) {
	if len(block) < blockHeaderSize {
		return nil, ErrCorruptBlock
	}

	c := Compression(block[0])
	size := binary.LittleEndian.Uint32(block[1:])
	payload := block[blockHeaderSize:]

	switch c {
	case CompressionNone:
		if uint32(len(payload)) != size {
			return nil, ErrCorruptBlock
		}
		return payload, nil
	case CompressionLZ4:
		out := make([]byte, size)
		n, err := lz4.UncompressBlock(payload, out)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptBlock, err)
		}
		if uint32(n) != size {
			return nil, ErrCorruptBlock
		}
		return out, nil
	case CompressionZstd:
		dec := getZstdDecoder()
		defer zstdDecoderPool.Put(dec)

		out, err := dec.DecodeAll(payload, make([]byte, 0, size))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptBlock, err)
		}
		if uint32(len(out)) != size {
			return nil, ErrCorruptBlock
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: unknown compression %d", ErrCorruptBlock, block[0])
	}
}

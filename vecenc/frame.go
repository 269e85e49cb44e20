package vecenc

import (
	"encoding/binary"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression identifies the block compression applied to a snapshot
// body. The value is stored as the frame's first byte; these are
// protocol constants and changing them breaks the snapshot format.
type Compression uint8

const (
	// CompressionNone indicates an uncompressed body. Chosen when
	// compression would not shrink the payload.
	CompressionNone Compression = 0

	// CompressionLZ4 indicates LZ4 block compression. Fast default
	// for binary element data with modest redundancy.
	CompressionLZ4 Compression = 1

	// CompressionZstd indicates zstd at its default level. Better
	// ratios for text-like element data.
	CompressionZstd Compression = 2
)

// String returns the human-readable name of a compression setting.
func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(c))
	}
}

// ParseCompression parses a compression setting from its string
// representation.
func ParseCompression(name string) (Compression, error) {
	switch name {
	case "none":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZstd, nil
	default:
		return 0, fmt.Errorf("unknown compression: %q", name)
	}
}

// maxBodySize caps the declared body length of an incoming frame.
// It guards the decompression pre-allocation against a corrupt or
// hostile header.
const maxBodySize = 1 << 30

// A frame is one tag byte, the uvarint length of the body before
// compression, and the payload.

// sealFrame compresses body according to cfg and prepends the frame
// header. When the chosen algorithm cannot shrink the body, the frame
// falls back to CompressionNone.
func sealFrame(body []byte, cfg codecConfig) ([]byte, error) {
	tag := cfg.compression
	if !cfg.forced {
		tag = selectCompression(body)
	}

	payload, err := compress(body, tag)
	if err != nil {
		if !IsIncompressible(err) {
			return nil, err
		}
		tag, payload = CompressionNone, body
	}

	frame := make([]byte, 0, 1+binary.MaxVarintLen64+len(payload))
	frame = append(frame, byte(tag))
	frame = binary.AppendUvarint(frame, uint64(len(body)))
	frame = append(frame, payload...)
	return frame, nil
}

// openFrame parses a frame and returns the decompressed body. The
// body length declared in the header must match the decompressed
// output exactly.
func openFrame(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty snapshot frame")
	}
	tag := Compression(data[0])

	bodyLen, n := binary.Uvarint(data[1:])
	if n <= 0 {
		return nil, fmt.Errorf("truncated snapshot frame header")
	}
	if bodyLen > maxBodySize {
		return nil, fmt.Errorf("snapshot frame declares %d byte body, limit %d", bodyLen, maxBodySize)
	}
	payload := data[1+n:]

	switch tag {
	case CompressionNone:
		if len(payload) != int(bodyLen) {
			return nil, fmt.Errorf("uncompressed body: size %d does not match declared %d",
				len(payload), bodyLen)
		}
		return payload, nil

	case CompressionLZ4:
		return decompressLZ4(payload, int(bodyLen))

	case CompressionZstd:
		return decompressZstd(payload, int(bodyLen))

	default:
		return nil, fmt.Errorf("unsupported compression tag: %d", uint8(tag))
	}
}

// compress applies the named algorithm to body. For CompressionNone
// it returns the input unchanged (no copy).
func compress(body []byte, tag Compression) ([]byte, error) {
	switch tag {
	case CompressionNone:
		return body, nil

	case CompressionLZ4:
		return compressLZ4(body)

	case CompressionZstd:
		return compressZstd(body)

	default:
		return nil, fmt.Errorf("unsupported compression tag: %d", uint8(tag))
	}
}

// LZ4 compression: block-mode LZ4.

func compressLZ4(body []byte) ([]byte, error) {
	// CompressBlockBound returns the maximum compressed size.
	bound := lz4.CompressBlockBound(len(body))
	destination := make([]byte, bound)

	written, err := lz4.CompressBlock(body, destination, nil)
	if err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}

	// CompressBlock returns 0 when it determines the data is
	// incompressible. The output must also be strictly smaller than
	// the input for compression to be worthwhile.
	if written == 0 || written >= len(body) {
		return nil, errIncompressible
	}

	return destination[:written], nil
}

func decompressLZ4(payload []byte, bodyLen int) ([]byte, error) {
	destination := make([]byte, bodyLen)
	read, err := lz4.UncompressBlock(payload, destination)
	if err != nil {
		return nil, fmt.Errorf("lz4 decompress: %w", err)
	}
	if read != bodyLen {
		return nil, fmt.Errorf("lz4 decompress: got %d bytes, expected %d", read, bodyLen)
	}
	return destination, nil
}

// Zstd compression at the default level.

// zstdEncoder and zstdDecoder are reused across calls. Both are safe
// for concurrent use.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedDefault),
	)
	if err != nil {
		panic("vecenc: zstd encoder initialization failed: " + err.Error())
	}

	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("vecenc: zstd decoder initialization failed: " + err.Error())
	}
}

func compressZstd(body []byte) ([]byte, error) {
	compressed := zstdEncoder.EncodeAll(body, nil)
	if len(compressed) >= len(body) {
		return nil, errIncompressible
	}
	return compressed, nil
}

func decompressZstd(payload []byte, bodyLen int) ([]byte, error) {
	destination := make([]byte, 0, bodyLen)
	result, err := zstdDecoder.DecodeAll(payload, destination)
	if err != nil {
		return nil, fmt.Errorf("zstd decompress: %w", err)
	}
	if len(result) != bodyLen {
		return nil, fmt.Errorf("zstd decompress: got %d bytes, expected %d", len(result), bodyLen)
	}
	return result, nil
}

// errIncompressible is returned by compression functions when the
// compressed output would not be smaller than the input. The caller
// falls back to CompressionNone.
var errIncompressible = fmt.Errorf("body is incompressible")

// IsIncompressible reports whether the error indicates that data
// could not be compressed smaller than its original size.
func IsIncompressible(err error) bool {
	return err == errIncompressible
}

// selectCompression probes body to pick an algorithm. It compresses
// with zstd once: a ratio of at least 1.5x selects zstd, at least
// 1.1x selects LZ4 (faster with an acceptable ratio), and anything
// below that is treated as incompressible.
func selectCompression(body []byte) Compression {
	if len(body) == 0 {
		return CompressionNone
	}

	compressed := zstdEncoder.EncodeAll(body, nil)
	ratio := float64(len(body)) / float64(len(compressed))

	switch {
	case ratio >= 1.5:
		return CompressionZstd
	case ratio >= 1.1:
		return CompressionLZ4
	default:
		return CompressionNone
	}
}

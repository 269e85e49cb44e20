package vecenc

import (
	"fmt"
	"io"

	"github.com/dshills/pvec"
)

// snapshotVersion is the current body format version. Decoders reject
// bodies from a newer version rather than guess at their layout.
const snapshotVersion = 1

// snapshotBody is the canonical CBOR payload. Only logical contents
// are recorded; the tree shape of the source vector never leaks into
// the encoding.
type snapshotBody[T any] struct {
	Version  uint8 `cbor:"version"`
	Length   int   `cbor:"length"`
	Elements []T   `cbor:"elements"`
}

// Option configures snapshot encoding.
type Option func(*codecConfig)

type codecConfig struct {
	compression Compression
	forced      bool
}

// WithCompression selects the frame compression instead of probing
// the body for the best fit. The setting is a preference: when the
// chosen algorithm cannot shrink the body, the frame still falls back
// to CompressionNone.
func WithCompression(c Compression) Option {
	return func(cfg *codecConfig) {
		cfg.compression = c
		cfg.forced = true
	}
}

// Marshal encodes a snapshot of v. The output depends only on the
// elements of v and the chosen compression, never on how v was built.
func Marshal[T any](v pvec.Vector[T], opts ...Option) ([]byte, error) {
	var cfg codecConfig
	for _, o := range opts {
		o(&cfg)
	}
	body, err := encodeBody(v)
	if err != nil {
		return nil, err
	}
	return sealFrame(body, cfg)
}

// Unmarshal decodes a snapshot produced by Marshal. The vector is
// rebuilt through a Builder, so opts configure the memory policy of
// the result just as they would for pvec.FromSlice.
func Unmarshal[T any](data []byte, opts ...pvec.Option) (pvec.Vector[T], error) {
	var zero pvec.Vector[T]

	body, err := openFrame(data)
	if err != nil {
		return zero, err
	}

	var snap snapshotBody[T]
	if err := cborUnmarshal(body, &snap); err != nil {
		return zero, fmt.Errorf("decoding snapshot body: %w", err)
	}
	if snap.Version != snapshotVersion {
		return zero, fmt.Errorf("unsupported snapshot version %d", snap.Version)
	}
	if snap.Length != len(snap.Elements) {
		return zero, fmt.Errorf("snapshot declares %d elements, body has %d",
			snap.Length, len(snap.Elements))
	}

	b := pvec.NewBuilder[T](opts...)
	b.AppendSlice(snap.Elements)
	return b.Vector(), nil
}

// Encode writes a snapshot of v to w.
func Encode[T any](w io.Writer, v pvec.Vector[T], opts ...Option) error {
	data, err := Marshal(v, opts...)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	return nil
}

// Decode reads one snapshot from r. It consumes r to EOF.
func Decode[T any](r io.Reader, opts ...pvec.Option) (pvec.Vector[T], error) {
	data, err := io.ReadAll(r)
	if err != nil {
		var zero pvec.Vector[T]
		return zero, fmt.Errorf("reading snapshot: %w", err)
	}
	return Unmarshal[T](data, opts...)
}

// SnapshotDigest computes the digest of v's snapshot without encoding
// a frame. Equal vectors always produce equal digests.
func SnapshotDigest[T any](v pvec.Vector[T]) (Digest, error) {
	body, err := encodeBody(v)
	if err != nil {
		return Digest{}, err
	}
	return digestBytes(body), nil
}

// MarshaledDigest recomputes the digest of an encoded snapshot. The
// digest is taken over the decompressed body, so it matches
// SnapshotDigest of the source vector regardless of the compression
// the frame carries.
func MarshaledDigest(data []byte) (Digest, error) {
	body, err := openFrame(data)
	if err != nil {
		return Digest{}, err
	}
	return digestBytes(body), nil
}

// encodeBody produces the canonical CBOR body for v, gathering
// elements chunk by chunk.
func encodeBody[T any](v pvec.Vector[T]) ([]byte, error) {
	elements := make([]T, 0, v.Len())
	it := v.Chunks()
	for it.Next() {
		elements = append(elements, it.Chunk()...)
	}

	body, err := cborMarshal(snapshotBody[T]{
		Version:  snapshotVersion,
		Length:   v.Len(),
		Elements: elements,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding snapshot body: %w", err)
	}
	return body, nil
}

// Package vecenc encodes vector snapshots into a deterministic,
// content-addressable byte format for golden files, fixtures, and
// cross-process comparison.
//
// A snapshot records the logical contents of a vector, never its tree
// shape: two vectors that compare equal encode to identical bytes no
// matter how they were built. The body is CBOR with Core Deterministic
// Encoding, wrapped in a small frame that names the block compression
// applied to it (none, lz4, or zstd). Digests are keyed BLAKE3 over
// the canonical body, so a snapshot's digest does not change when it
// is re-encoded with a different compression setting.
//
//	data, err := vecenc.Marshal(v)
//	...
//	restored, err := vecenc.Unmarshal[int](data)
//
// The element type must be encodable by fxamacker/cbor; exported
// struct fields, maps, slices, and types implementing
// encoding.TextMarshaler all work.
package vecenc

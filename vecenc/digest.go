package vecenc

import (
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"
)

// Digest is a 32-byte keyed BLAKE3 hash of a snapshot's canonical
// body. It is computed on the uncompressed CBOR bytes, so the digest
// of a snapshot is stable across compression settings.
type Digest [32]byte

// domainKey is a 32-byte key for BLAKE3 keyed hashing. Domain
// separation keeps snapshot digests from colliding with hashes of the
// same bytes computed in other contexts.
type domainKey [32]byte

// snapshotDomainKey is a fixed protocol constant; changing it
// invalidates every recorded digest. The byte values are the ASCII
// encoding of the domain name, zero-padded to 32 bytes, so the key is
// readable in hex dumps while remaining an opaque 32-byte value to
// BLAKE3.
var snapshotDomainKey = domainKey{
	'p', 'v', 'e', 'c', '.', 's', 'n', 'a', 'p', 's', 'h', 'o', 't', '.', 'v', '1',
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// digestBytes computes the snapshot-domain BLAKE3 keyed hash of body.
func digestBytes(body []byte) Digest {
	// NewKeyed requires exactly 32 bytes, which domainKey guarantees.
	hasher, err := blake3.NewKeyed(snapshotDomainKey[:])
	if err != nil {
		panic("vecenc: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	hasher.Write(body)
	var d Digest
	copy(d[:], hasher.Sum(nil))
	return d
}

// FormatDigest returns the hex-encoded string representation of a
// digest. This is the canonical form for golden files and logs.
func FormatDigest(d Digest) string {
	return hex.EncodeToString(d[:])
}

// ParseDigest parses a 64-character hex string into a Digest.
func ParseDigest(hexString string) (Digest, error) {
	var d Digest
	decoded, err := hex.DecodeString(hexString)
	if err != nil {
		return d, fmt.Errorf("parsing snapshot digest: %w", err)
	}
	if len(decoded) != 32 {
		return d, fmt.Errorf("snapshot digest is %d bytes, want 32", len(decoded))
	}
	copy(d[:], decoded)
	return d, nil
}

// Package hash provides the digest primitive used throughout the forestry
// packages to compute node and proof hashes.
package hash

import (
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// Size is the length in bytes of a digest produced by Sum256.
const Size = 32

// Digest is a 32-byte blake2b-256 digest.
type Digest [Size]byte

// Zero is the all-zero digest, used to represent the empty trie and as
// padding inside sparse Merkle computations.
var Zero Digest

// IsZero reports whether d is the all-zero digest.
func (d Digest) IsZero() bool {
	return d == Zero
}

// Bytes returns a copy of d as a byte slice.
func (d Digest) Bytes() []byte {
	b := make([]byte, Size)
	copy(b, d[:])
	return b
}

// String returns the lowercase hex encoding of d.
func (d Digest) String() string {
	const hextable = "0123456789abcdef"
	buf := make([]byte, Size*2)
	for i, v := range d {
		buf[i*2] = hextable[v>>4]
		buf[i*2+1] = hextable[v&0x0f]
	}
	return string(buf)
}

// FromBytes copies b into a Digest. It panics if b is not exactly Size
// bytes long; callers are expected to have already validated lengths
// coming from untrusted input (see forestry.ErrInvalidDigest).
func FromBytes(b []byte) Digest {
	if len(b) != Size {
		panic("hash: digest must be 32 bytes")
	}
	var d Digest
	copy(d[:], b)
	return d
}

// FromHexString parses the lowercase or uppercase hex encoding produced by
// String back into a Digest, for CLI flags and JSON/CBOR wire decoding.
func FromHexString(s string) (Digest, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return Zero, fmt.Errorf("hash: %w", err)
	}
	if len(b) != Size {
		return Zero, fmt.Errorf("hash: digest must be %d bytes, got %d", Size, len(b))
	}
	return FromBytes(b), nil
}

// Sum256 returns the blake2b-256 digest of data.
func Sum256(data []byte) Digest {
	return Digest(blake2b.Sum256(data))
}

// Sum256Concat returns the blake2b-256 digest of the concatenation of parts.
// A nil part is treated as Zero, matching the h(x,y) convention used by the
// sparse Merkle-16 reconstruction formulas.
func Sum256Concat(parts ...[]byte) Digest {
	h, err := blake2b.New256(nil)
	if err != nil {
		panic(err)
	}
	for _, p := range parts {
		if p == nil {
			_, _ = h.Write(Zero[:])
			continue
		}
		_, _ = h.Write(p)
	}
	var d Digest
	copy(d[:], h.Sum(nil))
	return d
}

package forestry

import "github.com/go-forestry/mpf/pkg/crypto/hash"

// hashDigestSize is the length in bytes of a node digest (blake2b-256).
const hashDigestSize = hash.Size

// NullHash is the all-zero digest: the hash of the empty trie, and the
// padding value used inside sparse Merkle-16 computations for empty slots.
var NullHash = hash.Zero

func digest(b []byte) hash.Digest {
	return hash.Sum256(b)
}

func combine(a, b hash.Digest) hash.Digest {
	return hash.Sum256Concat(a[:], b[:])
}

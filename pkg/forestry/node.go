package forestry

import "github.com/go-forestry/mpf/pkg/crypto/hash"

// Node is the common interface of the two trie node variants, Leaf and
// Branch, plus the internal hashRef placeholder used for subtrees that
// have been collapsed to their digest and not yet resolved from a Store.
// A node is never mutated into a different variant in place: a Leaf
// that needs to become a Branch is replaced wholesale in its parent's
// child slot (or returned as the new root).
type Node interface {
	// Hash returns this node's 32-byte digest, computed (and cached)
	// from its prefix and contents.
	Hash() hash.Digest
	// Size returns the number of key/value pairs stored in this node's
	// subtree: always 1 for a Leaf, the running count for a Branch.
	Size() int
}

// Leaf is a terminal trie node holding a single key/value pair. Prefix is
// the unconsumed suffix of the key's path at the point descent reached
// this leaf: digest(key) in hex always ends with Prefix.
type Leaf struct {
	prefix []byte
	key    []byte
	value  []byte

	hash      hash.Digest
	hashValid bool
}

var _ Node = (*Leaf)(nil)

// NewLeaf returns a new Leaf with the given prefix, original key and value.
func NewLeaf(prefix, key, value []byte) *Leaf {
	return &Leaf{prefix: prefix, key: key, value: value}
}

// Hash implements Node.
func (l *Leaf) Hash() hash.Digest {
	if !l.hashValid {
		l.hash = leafHash(l.prefix, digest(l.value))
		l.hashValid = true
	}
	return l.hash
}

// Size implements Node.
func (l *Leaf) Size() int { return 1 }

func (l *Leaf) invalidate() { l.hashValid = false }

// Prefix returns the leaf's unconsumed path suffix.
func (l *Leaf) Prefix() []byte { return l.prefix }

// Key returns the leaf's original key.
func (l *Leaf) Key() []byte { return l.key }

// Value returns the leaf's stored value.
func (l *Leaf) Value() []byte { return l.value }

// Branch is an internal trie node with exactly 16 child slots, aggregated
// into one digest via sparse Merkle-16. A nil slot means empty; a live
// Branch always has at least two non-nil slots.
type Branch struct {
	prefix   []byte
	children [childrenCount]Node
	size     int

	hash      hash.Digest
	hashValid bool
}

var _ Node = (*Branch)(nil)

// NewBranch returns a new, empty Branch with the given prefix.
func NewBranch(prefix []byte) *Branch {
	return &Branch{prefix: prefix}
}

// Hash implements Node.
func (b *Branch) Hash() hash.Digest {
	if !b.hashValid {
		b.hash = branchHash(b.prefix, merkle16Root(b.childDigests()))
		b.hashValid = true
	}
	return b.hash
}

// childDigests returns the digest of each of b's 16 slots, NullHash for
// an empty one.
func (b *Branch) childDigests() [childrenCount]hash.Digest {
	var out [childrenCount]hash.Digest
	for i, c := range b.children {
		if c != nil {
			out[i] = c.Hash()
		} else {
			out[i] = NullHash
		}
	}
	return out
}

// merkleRoot returns b's sparse Merkle-16 root over its 16 children,
// without the final branchHash wrapping that folds in b's own prefix.
// It is the "root" half of the (prefix, root) pair a Fork proof step
// records for a sibling branch.
func (b *Branch) merkleRoot() hash.Digest {
	return merkle16Root(b.childDigests())
}

// Size implements Node.
func (b *Branch) Size() int { return b.size }

func (b *Branch) invalidate() { b.hashValid = false }

// Prefix returns the branch's own nibble prefix.
func (b *Branch) Prefix() []byte { return b.prefix }

// ChildAt returns the node in slot i (0..15), or nil if the slot is empty.
// The returned Node may be an unresolved hashRef if the Branch has not
// been fully loaded from a Store.
func (b *Branch) ChildAt(i int) Node { return b.children[i] }

// nonEmptyChildren returns the indices of b's non-nil children. A live
// Branch always has at least two.
func (b *Branch) nonEmptyChildren() []int {
	idx := make([]int, 0, childrenCount)
	for i, c := range b.children {
		if c != nil {
			idx = append(idx, i)
		}
	}
	return idx
}

// hashRef is a lazily-resolved reference to a subtree known only by its
// digest and leaf count, standing in for a Node until something needs to
// descend into it, at which point the Trie replaces it in its parent's
// slot with the concrete Node fetched from Store. It is produced when a
// Trie is opened from a bare root hash, when Collapse bounds the
// in-memory tree, and for each child of a Branch decoded by DecodeNode.
type hashRef struct {
	digest hash.Digest
	size   int
}

var _ Node = (*hashRef)(nil)

func (h *hashRef) Hash() hash.Digest { return h.digest }
func (h *hashRef) Size() int         { return h.size }

// leafHash computes a Leaf's digest: digest(pack(prefix) || digest(value)).
func leafHash(prefix []byte, valueHash hash.Digest) hash.Digest {
	return hash.Sum256Concat(packNibbles(prefix), valueHash[:])
}

// branchHash computes a Branch's digest: digest(pack(prefix) || merkleRoot).
func branchHash(prefix []byte, merkleRoot hash.Digest) hash.Digest {
	return hash.Sum256Concat(packNibbles(prefix), merkleRoot[:])
}

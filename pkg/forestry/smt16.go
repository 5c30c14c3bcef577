package forestry

import "github.com/go-forestry/mpf/pkg/crypto/hash"

// childrenCount is the fixed fan-out of a Branch: one slot per nibble.
const childrenCount = 16

// BranchNeighbors holds the four sibling digests of a sparse Merkle-16
// proof for a single slot, ordered outermost-to-innermost: Lvl1 is the
// topmost (farthest from the leaf) sibling, Lvl4 the bottommost
// (nearest).
type BranchNeighbors struct {
	Lvl1, Lvl2, Lvl3, Lvl4 hash.Digest
}

// Bytes concatenates the four sibling digests in Lvl1..Lvl4 order,
// producing the 128-byte neighbor blob used by the wire proof format.
func (n BranchNeighbors) Bytes() []byte {
	out := make([]byte, 0, hash.Size*4)
	out = append(out, n.Lvl1[:]...)
	out = append(out, n.Lvl2[:]...)
	out = append(out, n.Lvl3[:]...)
	out = append(out, n.Lvl4[:]...)
	return out
}

// BranchNeighborsFromBytes is the inverse of Bytes, parsing the 128-byte
// neighbor blob back into its four sibling digests. It is used when
// decoding a Branch step from the wire proof format.
func BranchNeighborsFromBytes(b []byte) BranchNeighbors {
	var n BranchNeighbors
	copy(n.Lvl1[:], b[0:hash.Size])
	copy(n.Lvl2[:], b[hash.Size:2*hash.Size])
	copy(n.Lvl3[:], b[2*hash.Size:3*hash.Size])
	copy(n.Lvl4[:], b[3*hash.Size:4*hash.Size])
	return n
}

// merkle16Root folds 16 child digests into a single root using a balanced
// binary Merkle tree of depth 4. Empty slots must already be NullHash.
func merkle16Root(children [childrenCount]hash.Digest) hash.Digest {
	level := children[:]
	for len(level) > 1 {
		next := make([]hash.Digest, len(level)/2)
		for i := range next {
			next[i] = combine(level[2*i], level[2*i+1])
		}
		level = next
	}
	return level[0]
}

// merkle16RootAndProof folds 16 child digests into a root exactly like
// merkle16Root, additionally collecting the sibling proof for slot i.
func merkle16RootAndProof(children [childrenCount]hash.Digest, i int) (hash.Digest, BranchNeighbors) {
	var neighbors BranchNeighbors
	level := children[:]
	idx := i
	for k := 0; k < 4; k++ {
		sibling := level[idx^1]
		switch k {
		case 0:
			neighbors.Lvl4 = sibling
		case 1:
			neighbors.Lvl3 = sibling
		case 2:
			neighbors.Lvl2 = sibling
		case 3:
			neighbors.Lvl1 = sibling
		}
		next := make([]hash.Digest, len(level)/2)
		for j := range next {
			next[j] = combine(level[2*j], level[2*j+1])
		}
		level = next
		idx /= 2
	}
	return level[0], neighbors
}

// sparseMerkle16TwoSlots computes the sparse Merkle-16 root of a branch
// with exactly two non-empty children, at nibbles a and b. It is the
// reconstruction primitive behind Fork-step and Leaf-step verification.
func sparseMerkle16TwoSlots(a int, va hash.Digest, b int, vb hash.Digest) hash.Digest {
	var children [childrenCount]hash.Digest
	children[a] = va
	children[b] = vb
	return merkle16Root(children)
}

// reconstructBranchRoot recomputes a branch's sparse Merkle-16 root given
// the value "me" sitting at nibble i and the four sibling digests gathered
// during proof construction. The sixteen cases are written out literally,
// one per possible branching nibble, rather than a generic bit-indexed
// loop: this is verifying a cryptographic commitment, and each case
// should read directly against the combine order it checks.
func reconstructBranchRoot(i int, me hash.Digest, n BranchNeighbors) hash.Digest {
	h := combine
	m, l1, l2, l3, l4 := me, n.Lvl1, n.Lvl2, n.Lvl3, n.Lvl4
	switch i {
	case 0:
		return h(h(h(h(m, l4), l3), l2), l1)
	case 1:
		return h(h(h(h(l4, m), l3), l2), l1)
	case 2:
		return h(h(h(l3, h(m, l4)), l2), l1)
	case 3:
		return h(h(h(l3, h(l4, m)), l2), l1)
	case 4:
		return h(h(l2, h(h(m, l4), l3)), l1)
	case 5:
		return h(h(l2, h(h(l4, m), l3)), l1)
	case 6:
		return h(h(l2, h(l3, h(m, l4))), l1)
	case 7:
		return h(h(l2, h(l3, h(l4, m))), l1)
	case 8:
		return h(l1, h(h(h(m, l4), l3), l2))
	case 9:
		return h(l1, h(h(h(l4, m), l3), l2))
	case 10:
		return h(l1, h(h(l3, h(m, l4)), l2))
	case 11:
		return h(l1, h(h(l3, h(l4, m)), l2))
	case 12:
		return h(l1, h(l2, h(h(m, l4), l3)))
	case 13:
		return h(l1, h(l2, h(h(l4, m), l3)))
	case 14:
		return h(l1, h(l2, h(l3, h(m, l4))))
	case 15:
		return h(l1, h(l2, h(l3, h(l4, m))))
	default:
		panic("forestry: nibble out of range")
	}
}

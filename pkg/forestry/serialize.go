package forestry

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/go-forestry/mpf/pkg/crypto/hash"
)

// nodeTag identifies which of the two persisted node variants a Store
// entry holds. hashRef placeholders are never themselves persisted: by
// the time a node is written to a Store it has been fully resolved.
type nodeTag byte

const (
	tagLeaf   nodeTag = 0
	tagBranch nodeTag = 1
)

type encodedLeaf struct {
	Prefix []byte `cbor:"1,keyasint"`
	Key    []byte `cbor:"2,keyasint"`
	Value  []byte `cbor:"3,keyasint"`
}

type encodedBranch struct {
	Prefix      []byte   `cbor:"1,keyasint"`
	ChildHashes [][]byte `cbor:"2,keyasint"`
	ChildSizes  []int64  `cbor:"3,keyasint"`
	Size        int64    `cbor:"4,keyasint"`
}

// EncodeNode serializes a concrete Leaf or Branch into the opaque form a
// Store persists under the node's hash: a tagged CBOR record so that
// store dumps and debugging tools can inspect entries without linking
// against package forestry's internal types.
func EncodeNode(n Node) ([]byte, error) {
	switch v := n.(type) {
	case *Leaf:
		payload, err := cbor.Marshal(encodedLeaf{Prefix: v.prefix, Key: v.key, Value: v.value})
		if err != nil {
			return nil, err
		}
		return append([]byte{byte(tagLeaf)}, payload...), nil
	case *Branch:
		hashes := make([][]byte, childrenCount)
		sizes := make([]int64, childrenCount)
		for i, c := range v.children {
			if c == nil {
				continue
			}
			h := c.Hash()
			hashes[i] = h.Bytes()
			sizes[i] = int64(c.Size())
		}
		payload, err := cbor.Marshal(encodedBranch{
			Prefix:      v.prefix,
			ChildHashes: hashes,
			ChildSizes:  sizes,
			Size:        int64(v.size),
		})
		if err != nil {
			return nil, err
		}
		return append([]byte{byte(tagBranch)}, payload...), nil
	default:
		return nil, fmt.Errorf("forestry: cannot encode node of type %T", n)
	}
}

// DecodeNode reverses EncodeNode. A decoded Branch's children are
// hashRef placeholders sized from the persisted sizes array; they are
// resolved against a Store lazily, on descent.
func DecodeNode(data []byte) (Node, error) {
	if len(data) < 1 {
		return nil, fmt.Errorf("%w: empty node record", ErrInvalidDigest)
	}
	switch nodeTag(data[0]) {
	case tagLeaf:
		var dec encodedLeaf
		if err := cbor.Unmarshal(data[1:], &dec); err != nil {
			return nil, err
		}
		return NewLeaf(dec.Prefix, dec.Key, dec.Value), nil
	case tagBranch:
		var dec encodedBranch
		if err := cbor.Unmarshal(data[1:], &dec); err != nil {
			return nil, err
		}
		if len(dec.ChildHashes) != childrenCount || len(dec.ChildSizes) != childrenCount {
			return nil, fmt.Errorf("%w: branch record has %d children, want %d", ErrStructuralInvariant, len(dec.ChildHashes), childrenCount)
		}
		b := NewBranch(dec.Prefix)
		b.size = int(dec.Size)
		for i := 0; i < childrenCount; i++ {
			if dec.ChildHashes[i] == nil {
				continue
			}
			if len(dec.ChildHashes[i]) != hash.Size {
				return nil, ErrInvalidDigest
			}
			b.children[i] = &hashRef{digest: hash.FromBytes(dec.ChildHashes[i]), size: int(dec.ChildSizes[i])}
		}
		return b, nil
	default:
		return nil, fmt.Errorf("forestry: unknown node tag %d", data[0])
	}
}

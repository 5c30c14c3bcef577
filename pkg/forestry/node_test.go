package forestry

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLeafHashDeterministic(t *testing.T) {
	l1 := NewLeaf([]byte{1, 2, 3}, []byte("k"), []byte("v"))
	l2 := NewLeaf([]byte{1, 2, 3}, []byte("k"), []byte("v"))
	require.Equal(t, l1.Hash(), l2.Hash())
}

func TestLeafHashChangesWithValue(t *testing.T) {
	l1 := NewLeaf([]byte{1, 2, 3}, []byte("k"), []byte("v1"))
	l2 := NewLeaf([]byte{1, 2, 3}, []byte("k"), []byte("v2"))
	require.NotEqual(t, l1.Hash(), l2.Hash())
}

func TestLeafHashCaching(t *testing.T) {
	l := NewLeaf([]byte{1, 2}, []byte("k"), []byte("v"))
	h1 := l.Hash()
	require.True(t, l.hashValid)
	h2 := l.Hash()
	require.Equal(t, h1, h2)
}

func TestLeafInvalidateRecomputes(t *testing.T) {
	l := NewLeaf([]byte{1, 2}, []byte("k"), []byte("v"))
	h1 := l.Hash()
	l.value = []byte("w")
	l.invalidate()
	require.NotEqual(t, h1, l.Hash())
}

func TestBranchHashAggregatesChildren(t *testing.T) {
	b := NewBranch([]byte{5})
	b.children[0] = NewLeaf([]byte{0xa}, []byte("k0"), []byte("v0"))
	b.children[1] = NewLeaf([]byte{0xb}, []byte("k1"), []byte("v1"))
	b.size = 2
	h1 := b.Hash()

	b2 := NewBranch([]byte{5})
	b2.children[0] = NewLeaf([]byte{0xa}, []byte("k0"), []byte("v0"))
	b2.children[1] = NewLeaf([]byte{0xb}, []byte("k1"), []byte("v1"))
	require.Equal(t, h1, b2.Hash())
}

func TestBranchHashSensitiveToSlot(t *testing.T) {
	b1 := NewBranch(nil)
	b1.children[0] = NewLeaf(nil, []byte("k"), []byte("v"))
	b2 := NewBranch(nil)
	b2.children[1] = NewLeaf(nil, []byte("k"), []byte("v"))
	require.NotEqual(t, b1.Hash(), b2.Hash())
}

func TestNonEmptyChildren(t *testing.T) {
	b := NewBranch(nil)
	b.children[2] = NewLeaf(nil, nil, nil)
	b.children[9] = NewLeaf(nil, nil, nil)
	require.Equal(t, []int{2, 9}, b.nonEmptyChildren())
}

func TestHashRefReturnsStoredDigestAndSize(t *testing.T) {
	d := digest([]byte("x"))
	ref := &hashRef{digest: d, size: 7}
	require.Equal(t, d, ref.Hash())
	require.Equal(t, 7, ref.Size())
}

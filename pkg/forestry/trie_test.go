package forestry

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEmptyTrie(t *testing.T) {
	tr := New(nil)
	require.True(t, tr.IsEmpty())
	require.Equal(t, NullHash, tr.Hash())
	require.Equal(t, 0, tr.Size())
}

func TestInsertSingleLeaf(t *testing.T) {
	tr := New(nil)
	require.NoError(t, tr.Insert([]byte("apple"), []byte("A")))

	path := PathFor([]byte("apple"))
	want := leafHash(path, digest([]byte("A")))
	require.Equal(t, want, tr.Hash())
	require.Equal(t, 1, tr.Size())

	proof, err := tr.Prove([]byte("apple"))
	require.NoError(t, err)
	got, err := proof.Verify(true)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestInsertTwoLeaves(t *testing.T) {
	tr := New(nil)
	require.NoError(t, tr.Insert([]byte("apple"), []byte("A")))
	require.NoError(t, tr.Insert([]byte("apricot"), []byte("B")))

	a := PathFor([]byte("apple"))
	b := PathFor([]byte("apricot"))
	l := commonPrefixLen(a, b)
	require.Less(t, l, PathLength, "test fixture needs divergent paths")

	branch, ok := tr.root.(*Branch)
	require.True(t, ok)
	require.Equal(t, []byte(a[:l]), branch.prefix)
	require.NotEqual(t, a[l], b[l])

	pa, err := tr.Prove([]byte("apple"))
	require.NoError(t, err)
	ra, err := pa.Verify(true)
	require.NoError(t, err)
	require.Equal(t, tr.Hash(), ra)

	pb, err := tr.Prove([]byte("apricot"))
	require.NoError(t, err)
	rb, err := pb.Verify(true)
	require.NoError(t, err)
	require.Equal(t, tr.Hash(), rb)
}

func TestInsertDuplicateRejected(t *testing.T) {
	tr := New(nil)
	require.NoError(t, tr.Insert([]byte("apple"), []byte("A")))
	before := tr.Hash()

	err := tr.Insert([]byte("apple"), []byte("A2"))
	require.ErrorIs(t, err, ErrAlreadyPresent)
	require.Equal(t, before, tr.Hash())
}

func TestFromListMatchesSequentialInsert(t *testing.T) {
	pairs := []KV{
		{Key: []byte("apple"), Value: []byte("A")},
		{Key: []byte("apricot"), Value: []byte("B")},
		{Key: []byte("banana"), Value: []byte("C")},
		{Key: []byte("cherry"), Value: []byte("D")},
	}

	batch, err := FromList(nil, pairs)
	require.NoError(t, err)

	seq := New(nil)
	// Insert in reverse order to show construction is order-independent.
	for i := len(pairs) - 1; i >= 0; i-- {
		require.NoError(t, seq.Insert(pairs[i].Key, pairs[i].Value))
	}

	require.Equal(t, seq.Hash(), batch.Hash())
	require.Equal(t, seq.Size(), batch.Size())
}

func TestDeleteReversesInsert(t *testing.T) {
	tr := New(nil)
	require.NoError(t, tr.Insert([]byte("apple"), []byte("A")))
	require.NoError(t, tr.Insert([]byte("apricot"), []byte("B")))
	require.NoError(t, tr.Insert([]byte("banana"), []byte("C")))

	tr2 := New(nil)
	require.NoError(t, tr2.Insert([]byte("apple"), []byte("A")))
	require.NoError(t, tr2.Insert([]byte("apricot"), []byte("B")))
	want := tr2.Hash()

	require.NoError(t, tr.Delete([]byte("banana")))
	require.Equal(t, want, tr.Hash())
	require.Equal(t, 2, tr.Size())
}

func TestDeleteNotPresent(t *testing.T) {
	tr := New(nil)
	require.NoError(t, tr.Insert([]byte("apple"), []byte("A")))
	err := tr.Delete([]byte("missing"))
	require.ErrorIs(t, err, ErrNotPresent)
}

func TestDeleteToEmpty(t *testing.T) {
	tr := New(nil)
	require.NoError(t, tr.Insert([]byte("apple"), []byte("A")))
	require.NoError(t, tr.Delete([]byte("apple")))
	require.True(t, tr.IsEmpty())
	require.Equal(t, NullHash, tr.Hash())
}

func TestBranchMinimality(t *testing.T) {
	tr := New(nil)
	keys := [][]byte{[]byte("apple"), []byte("apricot"), []byte("banana"), []byte("cherry"), []byte("date")}
	for _, k := range keys {
		require.NoError(t, tr.Insert(k, []byte("v")))
	}
	for _, k := range keys[:len(keys)-1] {
		require.NoError(t, tr.Delete(k))
	}
	// A single key remains: the root must be a Leaf, never a 1-child Branch.
	_, isLeaf := tr.root.(*Leaf)
	require.True(t, isLeaf)
}

func TestProveMissingKey(t *testing.T) {
	tr := New(nil)
	require.NoError(t, tr.Insert([]byte("apple"), []byte("A")))
	_, err := tr.Prove([]byte("missing"))
	require.ErrorIs(t, err, ErrNotPresent)
}

func TestChildAtRoot(t *testing.T) {
	tr := New(nil)
	require.NoError(t, tr.Insert([]byte("apple"), []byte("A")))
	sub, err := tr.ChildAt(nil)
	require.NoError(t, err)
	require.Equal(t, tr.Hash(), sub.Hash())
}

package forestry

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProveAppleAfterApricotYieldsLeafStep(t *testing.T) {
	tr := New(nil)
	require.NoError(t, tr.Insert([]byte("apple"), []byte("A")))
	require.NoError(t, tr.Insert([]byte("apricot"), []byte("B")))

	a := PathFor([]byte("apple"))
	b := PathFor([]byte("apricot"))
	l := commonPrefixLen(a, b)

	proof, err := tr.Prove([]byte("apple"))
	require.NoError(t, err)
	require.Len(t, proof.Steps, 1)

	step := proof.Steps[0]
	require.Equal(t, StepLeaf, step.Kind)
	require.Equal(t, l, step.Skip)
	require.Equal(t, digest([]byte("apricot")), step.Leaf.KeyHash)
	require.Equal(t, digest([]byte("B")), step.Leaf.ValueHash)
}

func TestInclusionAndExclusionRoundTrip(t *testing.T) {
	tr := New(nil)
	require.NoError(t, tr.Insert([]byte("apple"), []byte("A")))
	rootAfter := tr.Hash()

	proof, err := tr.Prove([]byte("apple"))
	require.NoError(t, err)

	excluded, err := proof.Verify(false)
	require.NoError(t, err)
	require.Equal(t, NullHash, excluded)

	included, err := proof.Verify(true)
	require.NoError(t, err)
	require.Equal(t, rootAfter, included)
}

func TestDeepTrieBranchStep(t *testing.T) {
	// Find three keys whose paths diverge at nibble 0, forcing a Branch
	// step (>=2 non-empty siblings besides the one being proved) at the
	// root for at least one of them.
	keys := make([][]byte, 0, 32)
	seen := map[byte]bool{}
	for i := 0; len(keys) < 3 && i < 10000; i++ {
		k := []byte{byte(i), byte(i >> 8)}
		p := PathFor(k)
		if !seen[p[0]] {
			seen[p[0]] = true
			keys = append(keys, k)
		}
	}
	require.Len(t, keys, 3, "need three keys with distinct first nibbles")

	tr := New(nil)
	for _, k := range keys {
		require.NoError(t, tr.Insert(k, []byte("v")))
	}

	proof, err := tr.Prove(keys[0])
	require.NoError(t, err)
	require.NotEmpty(t, proof.Steps)
	last := proof.Steps[len(proof.Steps)-1]
	require.Equal(t, StepBranch, last.Kind)
	require.Len(t, last.Branch.Bytes(), 128)

	got, err := proof.Verify(true)
	require.NoError(t, err)
	require.Equal(t, tr.Hash(), got)
}

func TestExclusionRoundTripAcrossManyKeys(t *testing.T) {
	keys := [][]byte{[]byte("apple"), []byte("apricot"), []byte("banana"), []byte("cherry"), []byte("date"), []byte("fig")}
	values := [][]byte{[]byte("A"), []byte("B"), []byte("C"), []byte("D"), []byte("E"), []byte("F")}

	for target := range keys {
		tr := New(nil)
		for i := range keys {
			require.NoError(t, tr.Insert(keys[i], values[i]))
		}
		proof, err := tr.Prove(keys[target])
		require.NoError(t, err)

		without := New(nil)
		for i := range keys {
			if i == target {
				continue
			}
			require.NoError(t, without.Insert(keys[i], values[i]))
		}

		got, err := proof.Verify(false)
		require.NoError(t, err)
		require.Equal(t, without.Hash(), got, "excluding key %q", keys[target])

		got, err = proof.Verify(true)
		require.NoError(t, err)
		require.Equal(t, tr.Hash(), got)
	}
}

func TestInsertionPreservesPreviousRoot(t *testing.T) {
	base := New(nil)
	require.NoError(t, base.Insert([]byte("apple"), []byte("A")))
	require.NoError(t, base.Insert([]byte("banana"), []byte("C")))
	r0 := base.Hash()

	require.NoError(t, base.Insert([]byte("cherry"), []byte("D")))
	r1 := base.Hash()

	proof, err := base.Prove([]byte("cherry"))
	require.NoError(t, err)

	without, err := proof.Verify(false)
	require.NoError(t, err)
	require.Equal(t, r0, without)

	with, err := proof.Verify(true)
	require.NoError(t, err)
	require.Equal(t, r1, with)
}

func TestEmptyProofVerifiesToNullHash(t *testing.T) {
	p := &Proof{Path: PathFor([]byte("apple"))}
	got, err := p.Verify(false)
	require.NoError(t, err)
	require.Equal(t, NullHash, got)
}

func TestVerifyRejectsShortPath(t *testing.T) {
	p := &Proof{Path: Path{1, 2, 3}}
	_, err := p.Verify(false)
	require.ErrorIs(t, err, ErrInvalidProof)
}

func TestVerifyInclusionRequiresValue(t *testing.T) {
	p := &Proof{Path: PathFor([]byte("apple"))}
	_, err := p.Verify(true)
	require.ErrorIs(t, err, ErrInvalidProof)
}

func TestHashMatchesRebuildFromList(t *testing.T) {
	tr := New(nil)
	keys := [][]byte{[]byte("apple"), []byte("apricot"), []byte("banana"), []byte("cherry")}
	for _, k := range keys {
		require.NoError(t, tr.Insert(k, []byte("v")))
	}
	root := tr.Hash()

	rebuilt, err := FromList(nil, []KV{
		{Key: []byte("apple"), Value: []byte("v")},
		{Key: []byte("apricot"), Value: []byte("v")},
		{Key: []byte("banana"), Value: []byte("v")},
		{Key: []byte("cherry"), Value: []byte("v")},
	})
	require.NoError(t, err)
	require.Equal(t, root, rebuilt.Hash())
}

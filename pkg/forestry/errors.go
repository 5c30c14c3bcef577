package forestry

import "errors"

// Sentinel errors returned by Trie and Proof operations. Callers should
// compare with errors.Is, since some are wrapped with extra context.
var (
	// ErrAlreadyPresent is returned by Insert when the key's path already
	// terminates at an existing leaf.
	ErrAlreadyPresent = errors.New("forestry: key already present")
	// ErrNotPresent is returned by Prove and Delete when the key's path
	// does not resolve to a leaf in the trie.
	ErrNotPresent = errors.New("forestry: key not present")
	// ErrInvalidProof is returned by Proof.Verify when a structural
	// expectation about the proof is violated:
	// a mismatched prefix, a colliding neighbor nibble, or a length
	// mismatch between a path and its claimed steps.
	ErrInvalidProof = errors.New("forestry: invalid proof")
	// ErrInvalidDigest is returned when a caller-supplied hash is not
	// exactly hash.Size bytes long.
	ErrInvalidDigest = errors.New("forestry: digest must be 32 bytes")
	// ErrStructuralInvariant is returned when a node fails a structural
	// invariant: a branch with fewer than two non-empty children, or a
	// children array whose length is not 16.
	ErrStructuralInvariant = errors.New("forestry: structural invariant violated")
)

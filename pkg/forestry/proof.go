package forestry

import (
	"bytes"
	"fmt"

	"github.com/go-forestry/mpf/pkg/crypto/hash"
)

// StepKind identifies which of the three proof-step shapes a Step carries.
type StepKind int

const (
	// StepBranch carries a full sparse Merkle-16 sibling set: two or
	// more non-empty children besides the one being proved.
	StepBranch StepKind = iota
	// StepFork carries a single Branch sibling, described compactly as
	// (nibble, prefix, merkle root) rather than four digests.
	StepFork
	// StepLeaf carries a single Leaf sibling, described as (key hash,
	// value hash).
	StepLeaf
)

func (k StepKind) String() string {
	switch k {
	case StepBranch:
		return "branch"
	case StepFork:
		return "fork"
	case StepLeaf:
		return "leaf"
	default:
		return "unknown"
	}
}

// ForkNeighbor describes the lone Branch sibling recorded by a Fork step.
// Prefix is the sibling's own nibble prefix, Root its sparse Merkle-16
// root (the pre-branchHash aggregate of its 16 children).
type ForkNeighbor struct {
	Nibble int
	Prefix []byte
	Root   hash.Digest
}

// LeafNeighbor describes the lone Leaf sibling recorded by a Leaf step.
// KeyHash is digest(key) for the sibling's original key (not the key
// itself): hex-expanding it reproduces the sibling's full 64-nibble path.
type LeafNeighbor struct {
	KeyHash   hash.Digest
	ValueHash hash.Digest
}

// Step is one level of a Proof, ordered outermost (nearest the root)
// first. Skip is the number of nibbles the Branch at this level consumed
// as its own prefix before branching; exactly one of Branch, Fork or Leaf
// is non-nil, matching Kind.
type Step struct {
	Kind   StepKind
	Skip   int
	Branch *BranchNeighbors
	Fork   *ForkNeighbor
	Leaf   *LeafNeighbor
}

// Proof is the evidence produced by Trie.Prove for one key: enough to
// recompute the trie's root both with the key's value present (inclusion)
// and with it absent (exclusion).
type Proof struct {
	Path  Path
	Value []byte
	Steps []Step
}

// Prove walks down to key's leaf, recording one Step per Branch crossed,
// outermost first, and returns a Proof for it. It returns ErrNotPresent
// if key's path does not resolve to a leaf.
func (t *Trie) Prove(key []byte) (*Proof, error) {
	path := PathFor(key)
	newRoot, steps, value, err := t.walk(t.root, path)
	if err != nil {
		return nil, err
	}
	t.root = newRoot
	return &Proof{Path: path, Value: value, Steps: steps}, nil
}

// walk descends to path's leaf, resolving and caching hashRef placeholders
// it passes through: the parent's slot is updated with whatever concrete
// node was fetched. It returns the possibly-replaced node for curr's
// slot, the proof steps gathered on the way back up (outermost first),
// and the leaf's value.
func (t *Trie) walk(curr Node, path []byte) (Node, []Step, []byte, error) {
	switch n := curr.(type) {
	case nil:
		return nil, nil, nil, ErrNotPresent
	case *hashRef:
		resolved, err := t.loadNode(n.digest)
		if err != nil {
			return curr, nil, nil, err
		}
		return t.walk(resolved, path)
	case *Leaf:
		if !bytes.Equal(n.prefix, path) {
			return n, nil, nil, ErrNotPresent
		}
		return n, nil, n.value, nil
	case *Branch:
		p := commonPrefixLen(n.prefix, path)
		if p != len(n.prefix) || len(path) == p {
			return n, nil, nil, ErrNotPresent
		}
		nib := path[p]
		newChild, childSteps, value, err := t.walk(n.children[nib], path[p+1:])
		n.children[nib] = newChild
		if err != nil {
			return n, nil, nil, err
		}
		step, err := t.proofStep(n, int(nib))
		if err != nil {
			return n, nil, nil, err
		}
		return n, append([]Step{step}, childSteps...), value, nil
	default:
		panic("forestry: unknown node type")
	}
}

// proofStep builds the Step describing Branch n's sparse Merkle-16 data
// for the slot at nib, choosing the Branch/Fork/Leaf shape based on how
// many other slots are non-empty, to keep the proof as small as possible.
func (t *Trie) proofStep(n *Branch, nib int) (Step, error) {
	skip := len(n.prefix)
	var others []int
	for i, c := range n.children {
		if i != nib && c != nil {
			others = append(others, i)
		}
	}
	switch len(others) {
	case 0:
		return Step{}, ErrStructuralInvariant
	case 1:
		idx := others[0]
		resolved, err := t.resolve(n.children[idx])
		if err != nil {
			return Step{}, err
		}
		n.children[idx] = resolved
		switch s := resolved.(type) {
		case *Leaf:
			return Step{
				Kind: StepLeaf, Skip: skip,
				Leaf: &LeafNeighbor{KeyHash: digest(s.key), ValueHash: digest(s.value)},
			}, nil
		case *Branch:
			return Step{
				Kind: StepFork, Skip: skip,
				Fork: &ForkNeighbor{Nibble: idx, Prefix: append([]byte{}, s.prefix...), Root: s.merkleRoot()},
			}, nil
		default:
			return Step{}, ErrStructuralInvariant
		}
	default:
		_, neighbors := merkle16RootAndProof(n.childDigests(), nib)
		return Step{Kind: StepBranch, Skip: skip, Branch: &neighbors}, nil
	}
}

// Verify recomputes the root implied by p, either with the proved key's
// value present (withElement=true, an inclusion check) or absent
// (withElement=false, an exclusion check). A zero-step proof verifies to
// NullHash in exclusion mode, and to leafHash(p.Path, p.Value) in
// inclusion mode.
func (p *Proof) Verify(withElement bool) (hash.Digest, error) {
	n := len(p.Steps)
	if len(p.Path) != PathLength {
		return hash.Zero, fmt.Errorf("%w: path has %d nibbles, want %d", ErrInvalidProof, len(p.Path), PathLength)
	}
	if n == 0 {
		if !withElement {
			return NullHash, nil
		}
		if p.Value == nil {
			return hash.Zero, ErrInvalidProof
		}
		return leafHash(p.Path, digest(p.Value)), nil
	}

	starts := make([]int, n)
	cursor := 0
	for k := 0; k < n; k++ {
		starts[k] = cursor
		cursor += 1 + p.Steps[k].Skip
		if cursor > PathLength {
			return hash.Zero, fmt.Errorf("%w: step %d overruns path", ErrInvalidProof, k)
		}
	}
	endLast := cursor

	var me hash.Digest
	if withElement {
		if p.Value == nil {
			return hash.Zero, ErrInvalidProof
		}
		me = leafHash(p.Path[endLast:], digest(p.Value))
	}

	for k := n - 1; k >= 0; k-- {
		step := p.Steps[k]
		isLast := k == n-1
		nextCursor := starts[k] + 1 + step.Skip
		thisNibble := int(p.Path[nextCursor-1])
		prefix := p.Path[starts[k] : nextCursor-1]

		if isLast && !withElement {
			switch step.Kind {
			case StepFork:
				// The branch collapses into its one surviving child,
				// merging this branch's own prefix with the neighbor's
				// nibble and prefix ahead of its root.
				fn := step.Fork
				collapsed := append(append([]byte{}, prefix...), byte(fn.Nibble))
				collapsed = append(collapsed, fn.Prefix...)
				me = branchHash(collapsed, fn.Root)
				continue
			case StepLeaf:
				ln := step.Leaf
				neighborPath := toNibbles(ln.KeyHash[:])
				if len(neighborPath) < starts[k] || !bytes.Equal(neighborPath[:starts[k]], p.Path[:starts[k]]) {
					return hash.Zero, fmt.Errorf("%w: leaf neighbor path diverges before branch", ErrInvalidProof)
				}
				me = leafHash(neighborPath[starts[k]:], ln.ValueHash)
				continue
			case StepBranch:
				me = NullHash
				// fall through to the generic branch combination below.
			}
		}

		switch step.Kind {
		case StepBranch:
			root := reconstructBranchRoot(thisNibble, me, *step.Branch)
			me = branchHash(prefix, root)
		case StepFork:
			fn := step.Fork
			if fn.Nibble == thisNibble {
				return hash.Zero, fmt.Errorf("%w: fork neighbor shares this branch's nibble", ErrInvalidProof)
			}
			nbValue := branchHash(fn.Prefix, fn.Root)
			root := sparseMerkle16TwoSlots(thisNibble, me, fn.Nibble, nbValue)
			me = branchHash(prefix, root)
		case StepLeaf:
			ln := step.Leaf
			neighborPath := toNibbles(ln.KeyHash[:])
			if !bytes.Equal(neighborPath[:starts[k]], p.Path[:starts[k]]) {
				return hash.Zero, fmt.Errorf("%w: leaf neighbor path diverges before branch", ErrInvalidProof)
			}
			nbNibble := int(neighborPath[nextCursor-1])
			if nbNibble == thisNibble {
				return hash.Zero, fmt.Errorf("%w: leaf neighbor shares this branch's nibble", ErrInvalidProof)
			}
			nbValue := leafHash(neighborPath[nextCursor:], ln.ValueHash)
			root := sparseMerkle16TwoSlots(thisNibble, me, nbNibble, nbValue)
			me = branchHash(prefix, root)
		}
	}
	return me, nil
}

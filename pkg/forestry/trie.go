package forestry

import (
	"bytes"

	"github.com/go-forestry/mpf/pkg/crypto/hash"
)

// Trie is an authenticated radix-16 Patricia trie over blake2b-256 key
// paths, with sparse Merkle-16 aggregation at every Branch. The zero
// value is not usable; construct one with New, Open or FromList.
type Trie struct {
	store Store
	root  Node
}

// New returns an empty Trie backed by store. store may be nil, in which
// case the Trie is purely in-memory and never calls out to a Store.
func New(store Store) *Trie {
	return &Trie{store: store}
}

// Open returns a Trie rooted at a previously computed digest, with size
// leaf count known in advance (the hash alone does not reveal it). The
// root is left unresolved until something descends into it. A NullHash
// root yields the empty trie regardless of size.
func Open(store Store, root hash.Digest, size int) *Trie {
	if root.IsZero() {
		return &Trie{store: store}
	}
	return &Trie{store: store, root: &hashRef{digest: root, size: size}}
}

// KV is one key/value pair, the input to FromList.
type KV struct {
	Key   []byte
	Value []byte
}

// FromList builds a Trie from pairs in one pass: keys are bucketed by
// their path's common prefix and nibble at each level, recursing until a
// bucket holds exactly one pair (a Leaf) or the bucket is empty. The
// result does not depend on the input order. Duplicate paths are
// rejected with ErrAlreadyPresent.
func FromList(store Store, pairs []KV) (*Trie, error) {
	t := New(store)
	type item struct {
		path Path
		kv   KV
	}
	items := make([]item, len(pairs))
	for i, kv := range pairs {
		items[i] = item{path: PathFor(kv.Key), kv: kv}
	}
	var build func(items []item, depth int) (Node, error)
	build = func(items []item, depth int) (Node, error) {
		if len(items) == 0 {
			return nil, nil
		}
		if len(items) == 1 {
			it := items[0]
			leaf := NewLeaf(append([]byte{}, it.path[depth:]...), it.kv.Key, it.kv.Value)
			if err := t.persistNew(leaf); err != nil {
				return nil, err
			}
			return leaf, nil
		}
		prefixEnd := depth
		for {
			if prefixEnd >= PathLength {
				return nil, ErrAlreadyPresent
			}
			nib := items[0].path[prefixEnd]
			allSame := true
			for _, it := range items[1:] {
				if it.path[prefixEnd] != nib {
					allSame = false
					break
				}
			}
			if !allSame {
				break
			}
			prefixEnd++
		}
		branch := NewBranch(append([]byte{}, items[0].path[depth:prefixEnd]...))
		var buckets [childrenCount][]item
		for _, it := range items {
			n := it.path[prefixEnd]
			buckets[n] = append(buckets[n], it)
		}
		branch.size = len(items)
		for n, bucket := range buckets {
			child, err := build(bucket, prefixEnd+1)
			if err != nil {
				return nil, err
			}
			branch.children[n] = child
		}
		if err := t.persistNew(branch); err != nil {
			return nil, err
		}
		return branch, nil
	}
	root, err := build(items, 0)
	if err != nil {
		return nil, err
	}
	t.root = root
	return t, nil
}

// Hash returns the trie's root digest, NullHash if empty.
func (t *Trie) Hash() hash.Digest {
	if t.root == nil {
		return NullHash
	}
	return t.root.Hash()
}

// Size returns the number of key/value pairs in the trie.
func (t *Trie) Size() int {
	if t.root == nil {
		return 0
	}
	return t.root.Size()
}

// IsEmpty reports whether the trie holds no pairs.
func (t *Trie) IsEmpty() bool { return t.root == nil }

// Root returns the trie's root Node, nil if empty. It may be an
// unresolved hashRef if the Trie was opened from a bare digest and
// nothing has descended into it yet.
func (t *Trie) Root() Node { return t.root }

// Insert adds key/value to the trie. It returns ErrAlreadyPresent if
// key's path already terminates at a leaf.
func (t *Trie) Insert(key, value []byte) error {
	path := PathFor(key)
	newRoot, err := t.insertNode(t.root, path, key, value)
	if err != nil {
		return err
	}
	t.root = newRoot
	return nil
}

func (t *Trie) insertNode(curr Node, path []byte, key, value []byte) (Node, error) {
	switch n := curr.(type) {
	case nil:
		leaf := NewLeaf(append([]byte{}, path...), key, value)
		if err := t.persistNew(leaf); err != nil {
			return nil, err
		}
		return leaf, nil
	case *hashRef:
		resolved, err := t.loadNode(n.digest)
		if err != nil {
			return nil, err
		}
		return t.insertNode(resolved, path, key, value)
	case *Leaf:
		return t.insertIntoLeaf(n, path, key, value)
	case *Branch:
		return t.insertIntoBranch(n, path, key, value)
	default:
		panic("forestry: unknown node type")
	}
}

func (t *Trie) insertIntoLeaf(curr *Leaf, path, key, value []byte) (Node, error) {
	p := commonPrefixLen(curr.prefix, path)
	if p == len(curr.prefix) {
		// Equal-length prefixes that matched in full: the same path.
		return nil, ErrAlreadyPresent
	}
	oldHash := curr.Hash()
	branch := NewBranch(append([]byte{}, curr.prefix[:p]...))
	oldNibble, newNibble := curr.prefix[p], path[p]

	curr.prefix = append([]byte{}, curr.prefix[p+1:]...)
	curr.invalidate()
	newLeaf := NewLeaf(append([]byte{}, path[p+1:]...), key, value)

	branch.children[oldNibble] = curr
	branch.children[newNibble] = newLeaf
	branch.size = 2

	if err := t.persistNew(newLeaf); err != nil {
		return nil, err
	}
	if err := t.persist(oldHash, true, curr); err != nil {
		return nil, err
	}
	if err := t.persistNew(branch); err != nil {
		return nil, err
	}
	return branch, nil
}

func (t *Trie) insertIntoBranch(curr *Branch, path, key, value []byte) (Node, error) {
	p := commonPrefixLen(curr.prefix, path)
	if p < len(curr.prefix) {
		oldHash := curr.Hash()
		parent := NewBranch(append([]byte{}, curr.prefix[:p]...))
		oldNibble, newNibble := curr.prefix[p], path[p]

		curr.prefix = append([]byte{}, curr.prefix[p+1:]...)
		curr.invalidate()
		newLeaf := NewLeaf(append([]byte{}, path[p+1:]...), key, value)

		parent.children[oldNibble] = curr
		parent.children[newNibble] = newLeaf
		parent.size = curr.size + 1

		if err := t.persistNew(newLeaf); err != nil {
			return nil, err
		}
		if err := t.persist(oldHash, true, curr); err != nil {
			return nil, err
		}
		if err := t.persistNew(parent); err != nil {
			return nil, err
		}
		return parent, nil
	}

	oldHash := curr.Hash()
	rest := path[p:]
	nib := rest[0]
	newChild, err := t.insertNode(curr.children[nib], rest[1:], key, value)
	if err != nil {
		return nil, err
	}
	curr.children[nib] = newChild
	curr.size++
	curr.invalidate()
	if err := t.persist(oldHash, true, curr); err != nil {
		return nil, err
	}
	return curr, nil
}

// Delete removes key from the trie, mirroring Insert's descent. Branches
// left with a single child are collapsed into it, merging prefixes. It
// returns ErrNotPresent if key's path does not resolve to a leaf.
func (t *Trie) Delete(key []byte) error {
	path := PathFor(key)
	newRoot, err := t.deleteNode(t.root, path)
	if err != nil {
		return err
	}
	t.root = newRoot
	return nil
}

func (t *Trie) deleteNode(curr Node, path []byte) (Node, error) {
	switch n := curr.(type) {
	case nil:
		return nil, ErrNotPresent
	case *hashRef:
		resolved, err := t.loadNode(n.digest)
		if err != nil {
			return nil, err
		}
		return t.deleteNode(resolved, path)
	case *Leaf:
		if !bytes.Equal(n.prefix, path) {
			return nil, ErrNotPresent
		}
		if err := t.deleteStored(n.Hash()); err != nil {
			return nil, err
		}
		return nil, nil
	case *Branch:
		return t.deleteFromBranch(n, path)
	default:
		panic("forestry: unknown node type")
	}
}

func (t *Trie) deleteFromBranch(curr *Branch, path []byte) (Node, error) {
	p := commonPrefixLen(curr.prefix, path)
	if p < len(curr.prefix) {
		return nil, ErrNotPresent
	}
	rest := path[p:]
	if len(rest) == 0 {
		return nil, ErrStructuralInvariant
	}
	nib := rest[0]
	child := curr.children[nib]
	if child == nil {
		return nil, ErrNotPresent
	}

	oldBranchHash := curr.Hash()
	newChild, err := t.deleteNode(child, rest[1:])
	if err != nil {
		return nil, err
	}
	curr.children[nib] = newChild
	curr.size--
	curr.invalidate()

	survivors := curr.nonEmptyChildren()
	if len(survivors) == 1 {
		idx := survivors[0]
		only := curr.children[idx]
		oldOnlyHash := only.Hash()
		resolvedOnly, err := t.resolve(only)
		if err != nil {
			return nil, err
		}
		if err := t.deleteStored(oldBranchHash); err != nil {
			return nil, err
		}
		if err := t.deleteStored(oldOnlyHash); err != nil {
			return nil, err
		}
		mergedPrefix := append(append(append([]byte{}, curr.prefix...), byte(idx)), nodePrefix(resolvedOnly)...)
		switch m := resolvedOnly.(type) {
		case *Leaf:
			m.prefix = mergedPrefix
			m.invalidate()
			if err := t.persistNew(m); err != nil {
				return nil, err
			}
			return m, nil
		case *Branch:
			m.prefix = mergedPrefix
			m.invalidate()
			if err := t.persistNew(m); err != nil {
				return nil, err
			}
			return m, nil
		default:
			return nil, ErrStructuralInvariant
		}
	}

	if err := t.persist(oldBranchHash, true, curr); err != nil {
		return nil, err
	}
	return curr, nil
}

func nodePrefix(n Node) []byte {
	switch v := n.(type) {
	case *Leaf:
		return v.prefix
	case *Branch:
		return v.prefix
	default:
		return nil
	}
}

// ChildAt descends pathNibbles from the root, resolving any hashRef
// placeholders it passes through, and returns the Trie rooted at that
// point, or nil if pathNibbles does not address a live node.
func (t *Trie) ChildAt(pathNibbles []byte) (*Trie, error) {
	n, err := t.childAt(t.root, pathNibbles)
	if err != nil || n == nil {
		return nil, err
	}
	return &Trie{store: t.store, root: n}, nil
}

func (t *Trie) childAt(curr Node, rest []byte) (Node, error) {
	if curr == nil {
		return nil, nil
	}
	resolved, err := t.resolve(curr)
	if err != nil {
		return nil, err
	}
	if len(rest) == 0 {
		return resolved, nil
	}
	switch n := resolved.(type) {
	case *Leaf:
		if bytes.HasPrefix(n.prefix, rest) {
			return n, nil
		}
		return nil, nil
	case *Branch:
		p := commonPrefixLen(n.prefix, rest)
		if p < len(n.prefix) {
			return nil, nil
		}
		if p == len(rest) {
			return n, nil
		}
		return t.childAt(n.children[rest[p]], rest[p+1:])
	default:
		return nil, ErrStructuralInvariant
	}
}

// Collapse replaces every Node depth or more levels below the root
// with a hashRef placeholder, bounding the Trie's in-memory footprint
// without losing the ability to recompute its hash or to descend again
// later (the placeholder resolves against the backing Store on demand).
// depth==0 collapses the root itself, leaving just its digest and size.
func (t *Trie) Collapse(depth int) {
	t.root = collapseNode(t.root, depth)
}

func collapseNode(n Node, depth int) Node {
	if n == nil {
		return nil
	}
	if depth <= 0 {
		return &hashRef{digest: n.Hash(), size: n.Size()}
	}
	b, ok := n.(*Branch)
	if !ok {
		return n
	}
	for i, c := range b.children {
		if c != nil {
			b.children[i] = collapseNode(c, depth-1)
		}
	}
	return b
}

package forestry

import "github.com/go-forestry/mpf/pkg/crypto/hash"

// Store is the persistence boundary a Trie writes its nodes through: a
// flat, content-addressed map from a node's digest to its serialized form.
// The backing implementation is left to package store, which provides
// in-memory, LevelDB and BoltDB implementations. A Trie built with a nil
// Store keeps everything in memory and never calls out to it, which is
// sufficient for short-lived or test tries.
//
// Implementations need not be safe for concurrent use unless documented
// otherwise; a Trie does not serialize its own access to a Store.
type Store interface {
	// Get returns the serialized node stored under h, or ok==false if
	// h is not present.
	Get(h hash.Digest) (data []byte, ok bool, err error)
	// Set stores data under h, overwriting any previous value.
	Set(h hash.Digest, data []byte) error
	// Delete removes h's entry. Deleting an absent key is not an error.
	Delete(h hash.Digest) error
}

// loadNode resolves digest d against t.store and decodes the result. It
// returns ErrNotPresent if the Store holds nothing under d, which signals
// a corrupt or mismatched Store rather than a missing key.
func (t *Trie) loadNode(d hash.Digest) (Node, error) {
	if t.store == nil {
		return nil, ErrNotPresent
	}
	data, ok, err := t.store.Get(d)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotPresent
	}
	return DecodeNode(data)
}

// resolve returns n itself, or the Node it refers to if n is a hashRef.
// It does not mutate the caller's slot; callers that want to cache the
// resolution assign the result back themselves.
func (t *Trie) resolve(n Node) (Node, error) {
	ref, ok := n.(*hashRef)
	if !ok {
		return n, nil
	}
	return t.loadNode(ref.digest)
}

// persist writes n's current (post-mutation) serialized form under its
// new hash, first deleting the entry at oldHash if hadOld and the hash
// actually changed. It is a no-op when the Trie has no backing Store.
func (t *Trie) persist(oldHash hash.Digest, hadOld bool, n Node) error {
	if t.store == nil {
		return nil
	}
	newHash := n.Hash()
	if hadOld && oldHash != newHash {
		if err := t.store.Delete(oldHash); err != nil {
			return err
		}
	}
	data, err := EncodeNode(n)
	if err != nil {
		return err
	}
	return t.store.Set(newHash, data)
}

// persistNew stores a freshly created node that has no previous hash.
func (t *Trie) persistNew(n Node) error {
	return t.persist(hash.Zero, false, n)
}

// deleteStored removes d from the Store, a no-op without one.
func (t *Trie) deleteStored(d hash.Digest) error {
	if t.store == nil {
		return nil
	}
	return t.store.Delete(d)
}

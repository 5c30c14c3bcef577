package store

import (
	lru "github.com/hashicorp/golang-lru"

	"github.com/go-forestry/mpf/pkg/crypto/hash"
	"github.com/go-forestry/mpf/pkg/forestry"
)

// LRU wraps a persistent forestry.Store with a bounded in-memory cache of
// hot entries, sized by entry count: a Trie's ancestor chain is revisited
// on every Insert and Delete and would otherwise be re-fetched from disk
// each time.
type LRU struct {
	back  forestry.Store
	cache *lru.Cache
}

var _ forestry.Store = (*LRU)(nil)

// NewLRU wraps back with an LRU cache holding up to size entries.
func NewLRU(back forestry.Store, size int) (*LRU, error) {
	c, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &LRU{back: back, cache: c}, nil
}

// Get implements forestry.Store.
func (l *LRU) Get(h hash.Digest) ([]byte, bool, error) {
	if v, ok := l.cache.Get(h); ok {
		return v.([]byte), true, nil
	}
	data, ok, err := l.back.Get(h)
	if err != nil || !ok {
		return data, ok, err
	}
	l.cache.Add(h, data)
	return data, true, nil
}

// Set implements forestry.Store.
func (l *LRU) Set(h hash.Digest, data []byte) error {
	l.cache.Add(h, data)
	return l.back.Set(h, data)
}

// Delete implements forestry.Store.
func (l *LRU) Delete(h hash.Digest) error {
	l.cache.Remove(h)
	return l.back.Delete(h)
}

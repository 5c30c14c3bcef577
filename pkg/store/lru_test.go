package store

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/go-forestry/mpf/pkg/crypto/hash"
)

func TestLRUDelegatesAndCaches(t *testing.T) {
	back := NewMemory()
	l, err := NewLRU(back, 1)
	require.NoError(t, err)

	h := hash.Sum256([]byte("a"))
	require.NoError(t, l.Set(h, []byte("v")))

	v, ok, err := l.Get(h)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("v"), v)

	// Evict from the cache but not the backing store; Get should fall
	// through and repopulate.
	l.cache.Remove(h)
	v, ok, err = l.Get(h)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("v"), v)

	require.NoError(t, l.Delete(h))
	_, ok, err = back.Get(h)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestLRUEvictsAtSize(t *testing.T) {
	back := NewMemory()
	l, err := NewLRU(back, 1)
	require.NoError(t, err)

	h1, h2 := hash.Sum256([]byte("a")), hash.Sum256([]byte("b"))
	require.NoError(t, l.Set(h1, []byte("1")))
	require.NoError(t, l.Set(h2, []byte("2")))
	require.False(t, l.cache.Contains(h1))
	require.True(t, l.cache.Contains(h2))

	// Both writes go through to the backing store even once the cache,
	// bounded at size 1, has evicted the first entry.
	v1, ok, err := back.Get(h1)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("1"), v1)

	v2, ok, err := l.Get(h2)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("2"), v2)
}

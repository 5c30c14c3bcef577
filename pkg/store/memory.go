package store

import (
	"sync"

	"github.com/go-forestry/mpf/pkg/crypto/hash"
	"github.com/go-forestry/mpf/pkg/forestry"
)

// Memory is an in-memory Store, mainly useful for tests and short-lived
// tries; nothing it holds survives process exit.
type Memory struct {
	mu   sync.RWMutex
	data map[hash.Digest][]byte
}

var _ forestry.Store = (*Memory)(nil)

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[hash.Digest][]byte)}
}

// Get implements forestry.Store.
func (m *Memory) Get(h hash.Digest) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[h]
	return v, ok, nil
}

// Set implements forestry.Store.
func (m *Memory) Set(h hash.Digest, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[h] = data
	return nil
}

// Delete implements forestry.Store.
func (m *Memory) Delete(h hash.Digest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, h)
	return nil
}

// Len returns the number of entries currently stored.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

package store

import (
	"errors"
	"fmt"

	"github.com/go-forestry/mpf/pkg/crypto/hash"
	"github.com/go-forestry/mpf/pkg/forestry"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/opt"
)

// LevelDB is a persistent Store backed by goleveldb.
type LevelDB struct {
	db *leveldb.DB
}

var _ forestry.Store = (*LevelDB)(nil)

// NewLevelDB opens (creating if necessary) a LevelDB store at path.
func NewLevelDB(path string) (*LevelDB, error) {
	opts := &opt.Options{Filter: filter.NewBloomFilter(10)}
	db, err := leveldb.OpenFile(path, opts)
	if err != nil {
		return nil, fmt.Errorf("store: open leveldb: %w", err)
	}
	return &LevelDB{db: db}, nil
}

// Get implements forestry.Store.
func (s *LevelDB) Get(h hash.Digest) ([]byte, bool, error) {
	v, err := s.db.Get(h.Bytes(), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

// Set implements forestry.Store.
func (s *LevelDB) Set(h hash.Digest, data []byte) error {
	return s.db.Put(h.Bytes(), data, nil)
}

// Delete implements forestry.Store.
func (s *LevelDB) Delete(h hash.Digest) error {
	err := s.db.Delete(h.Bytes(), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil
	}
	return err
}

// Close releases the underlying database handle.
func (s *LevelDB) Close() error {
	return s.db.Close()
}

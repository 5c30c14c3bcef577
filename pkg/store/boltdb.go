package store

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-forestry/mpf/pkg/crypto/hash"
	"github.com/go-forestry/mpf/pkg/forestry"
	"go.etcd.io/bbolt"
)

// bucket holds every entry of a BoltDB-backed Store; a content-addressed
// node map needs no sub-buckets.
var bucket = []byte("forestry")

// BoltDB is a persistent Store backed by bbolt.
type BoltDB struct {
	db *bbolt.DB
}

var _ forestry.Store = (*BoltDB)(nil)

// NewBoltDB opens (creating if necessary) a BoltDB store at path.
func NewBoltDB(path string) (*BoltDB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("store: create dir for boltdb: %w", err)
		}
	}
	db, err := bbolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("store: open boltdb: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("store: create bucket: %w", err)
	}
	return &BoltDB{db: db}, nil
}

// Get implements forestry.Store.
func (s *BoltDB) Get(h hash.Digest) (data []byte, ok bool, err error) {
	err = s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(bucket).Get(h.Bytes())
		if v != nil {
			ok = true
			data = append([]byte{}, v...)
		}
		return nil
	})
	return data, ok, err
}

// Set implements forestry.Store.
func (s *BoltDB) Set(h hash.Digest, data []byte) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucket).Put(h.Bytes(), data)
	})
}

// Delete implements forestry.Store.
func (s *BoltDB) Delete(h hash.Digest) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucket).Delete(h.Bytes())
	})
}

// Close releases the underlying database handle.
func (s *BoltDB) Close() error {
	return s.db.Close()
}

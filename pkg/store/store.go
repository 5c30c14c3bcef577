// Package store provides persistent and in-memory backends satisfying
// forestry.Store, the flat digest-addressed map a Trie reads and writes
// its serialized nodes through: one interface, a handful of engines, and
// a single Open(cfg) constructor that dispatches on a Type string.
package store

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/go-forestry/mpf/pkg/forestry"
)

// Config selects and configures a Store backend.
type Config struct {
	// Type is one of "memory", "leveldb" or "boltdb".
	Type string `yaml:"type"`
	// Path is the on-disk location for leveldb and boltdb backends.
	// Ignored for memory.
	Path string `yaml:"path"`
	// CacheSize, if greater than zero, wraps the selected backend in an LRU
	// cache holding that many hot nodes.
	CacheSize int `yaml:"cacheSize"`
}

// LoadConfig reads and unmarshals a YAML config file at path into a
// Config.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("store: reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("store: parsing config: %w", err)
	}
	return cfg, nil
}

// Open returns the Store backend selected by cfg.Type.
func Open(cfg Config) (forestry.Store, error) {
	var (
		s   forestry.Store
		err error
	)
	switch cfg.Type {
	case "memory", "":
		s = NewMemory()
	case "leveldb":
		s, err = NewLevelDB(cfg.Path)
	case "boltdb":
		s, err = NewBoltDB(cfg.Path)
	default:
		return nil, fmt.Errorf("store: unknown backend %q", cfg.Type)
	}
	if err != nil {
		return nil, err
	}
	if cfg.CacheSize > 0 {
		return NewLRU(s, cfg.CacheSize)
	}
	return s, nil
}

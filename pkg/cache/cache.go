// Package cache provides a persistent score cache backed by Badger. Reranking
// the same query/passage pair with the same model always produces the same raw
// score, so scores can be cached aggressively and expired by TTL.
package cache

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"strconv"
	"time"

	badger "github.com/dgraph-io/badger/v4"
)

// Config holds configuration for the score cache.
type Config struct {
	// Path is the directory for the Badger database. Ignored when InMemory is
	// set.
	Path string `json:"path" mapstructure:"path"`

	// InMemory keeps the cache in memory only. Useful for tests.
	InMemory bool `json:"in_memory" mapstructure:"in_memory"`

	// TTL is the lifetime of cached scores. Zero means no expiry.
	TTL time.Duration `json:"ttl" mapstructure:"ttl"`
}

// Cache stores raw cross-encoder scores keyed by model, query and passage.
type Cache struct {
	db  *badger.DB
	ttl time.Duration
}

// New opens a score cache.
func New(config Config) (*Cache, error) {
	var opts badger.Options
	if config.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if config.Path == "" {
			return nil, fmt.Errorf("cache path is required for on-disk cache")
		}
		opts = badger.DefaultOptions(config.Path)
	}
	opts = opts.WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open score cache: %w", err)
	}

	return &Cache{db: db, ttl: config.TTL}, nil
}

// GetScore looks up the cached raw score for a model/query/passage triple. The
// second return value reports whether the score was present.
func (c *Cache) GetScore(model, query, passage string) (float64, bool, error) {
	var score float64
	found := false

	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(scoreKey(model, query, passage))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			s, err := strconv.ParseFloat(string(val), 64)
			if err != nil {
				return fmt.Errorf("corrupt cached score: %w", err)
			}
			score = s
			found = true
			return nil
		})
	})
	if err != nil {
		return 0, false, fmt.Errorf("score cache lookup failed: %w", err)
	}
	return score, found, nil
}

// SetScore stores the raw score for a model/query/passage triple.
func (c *Cache) SetScore(model, query, passage string, score float64) error {
	err := c.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(
			scoreKey(model, query, passage),
			[]byte(strconv.FormatFloat(score, 'g', -1, 64)),
		)
		if c.ttl > 0 {
			entry = entry.WithTTL(c.ttl)
		}
		return txn.SetEntry(entry)
	})
	if err != nil {
		return fmt.Errorf("score cache write failed: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// scoreKey hashes the triple into a fixed-size key. Components are length
// prefixed so ("ab","c") and ("a","bc") never collide.
func scoreKey(model, query, passage string) []byte {
	h := sha256.New()
	for _, part := range []string{model, query, passage} {
		fmt.Fprintf(h, "%d:", len(part))
		h.Write([]byte(part))
	}
	return h.Sum(nil)
}

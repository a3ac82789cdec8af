package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"propmatch/internal/repository"
	"propmatch/internal/utils"
)

// Purpose segments the cache key space so different artifacts derived
// from the same prompt never collide.
type Purpose string

// Cache purposes
const (
	PurposePreferences Purpose = "preferences"
	PurposeResult      Purpose = "result"
	PurposeChatTurn    Purpose = "chat-turn"
	PurposePrompts     Purpose = "prompts"
)

// Cache is a namespaced, TTL-bound byte cache keyed by content: the key
// is derived from the normalized input text, so semantically identical
// prompts share entries.
type Cache struct {
	kv        *repository.KVStore
	namespace string
	group     singleflight.Group
}

// New creates a cache on top of the key-value store.
func New(kv *repository.KVStore, namespace string) *Cache {
	return &Cache{kv: kv, namespace: namespace}
}

// Key derives the storage key for an input under a purpose. The input is
// normalized before hashing so whitespace and casing differences map to
// the same entry.
func (c *Cache) Key(purpose Purpose, input string) string {
	sum := sha256.Sum256([]byte(utils.NormalizePrompt(input)))
	return fmt.Sprintf("%s:%s:%s", c.namespace, purpose, hex.EncodeToString(sum[:]))
}

// Get returns the cached value for the key, with a hit flag.
func (c *Cache) Get(key string) ([]byte, bool, error) {
	return c.kv.Get(key)
}

// Set stores a value under the key with the given TTL.
func (c *Cache) Set(key string, value []byte, ttl time.Duration) error {
	return c.kv.Set(key, value, ttl)
}

// Do returns the cached value for the key, filling it via fill on a
// miss. Concurrent misses on the same key share a single fill call. The
// hit flag is false when fill ran for this caller.
func (c *Cache) Do(key string, ttl time.Duration, fill func() ([]byte, error)) ([]byte, bool, error) {
	if value, ok, err := c.kv.Get(key); err != nil {
		return nil, false, err
	} else if ok {
		return value, true, nil
	}

	value, err, _ := c.group.Do(key, func() (interface{}, error) {
		// Re-check under the flight; another goroutine may have filled it
		if value, ok, err := c.kv.Get(key); err != nil {
			return nil, err
		} else if ok {
			return value, nil
		}

		value, err := fill()
		if err != nil {
			return nil, err
		}
		if err := c.kv.Set(key, value, ttl); err != nil {
			return nil, err
		}
		return value, nil
	})
	if err != nil {
		return nil, false, err
	}
	return value.([]byte), false, nil
}

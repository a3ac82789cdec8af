package cache

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"propmatch/internal/repository"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	kv, err := repository.OpenKVStore("", true)
	require.NoError(t, err)
	t.Cleanup(func() { _ = kv.Close() })
	return New(kv, "test")
}

func TestKey_ContentAddressing(t *testing.T) {
	c := newTestCache(t)

	// Case and whitespace differences collapse to the same key
	a := c.Key(PurposeResult, "2 Bedroom Condo in Phuket")
	b := c.Key(PurposeResult, "  2 bedroom   condo in phuket ")
	assert.Equal(t, a, b)

	// Different purposes never collide
	assert.NotEqual(t, a, c.Key(PurposePreferences, "2 Bedroom Condo in Phuket"))

	// Different inputs never collide
	assert.NotEqual(t, a, c.Key(PurposeResult, "3 bedroom condo in phuket"))
}

func TestGetSet(t *testing.T) {
	c := newTestCache(t)
	key := c.Key(PurposeResult, "prompt")

	_, ok, err := c.Get(key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(key, []byte("payload"), time.Minute))

	value, ok, err := c.Get(key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("payload"), value)
}

func TestDo_FillsOnceAndCaches(t *testing.T) {
	c := newTestCache(t)
	key := c.Key(PurposeResult, "prompt")

	var fills int
	fill := func() ([]byte, error) {
		fills++
		return []byte("filled"), nil
	}

	value, hit, err := c.Do(key, time.Minute, fill)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, []byte("filled"), value)

	value, hit, err = c.Do(key, time.Minute, fill)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, []byte("filled"), value)

	assert.Equal(t, 1, fills)
}

func TestDo_FillErrorNotCached(t *testing.T) {
	c := newTestCache(t)
	key := c.Key(PurposeResult, "prompt")

	_, _, err := c.Do(key, time.Minute, func() ([]byte, error) {
		return nil, errors.New("fill failed")
	})
	require.Error(t, err)

	// The failure must not poison the key
	value, hit, err := c.Do(key, time.Minute, func() ([]byte, error) {
		return []byte("recovered"), nil
	})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, []byte("recovered"), value)
}

func TestDo_ConcurrentMissesShareOneFill(t *testing.T) {
	c := newTestCache(t)
	key := c.Key(PurposeResult, "prompt")

	var fills int32
	fill := func() ([]byte, error) {
		atomic.AddInt32(&fills, 1)
		time.Sleep(20 * time.Millisecond)
		return []byte("shared"), nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			value, _, err := c.Do(key, time.Minute, fill)
			assert.NoError(t, err)
			assert.Equal(t, []byte("shared"), value)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&fills))
}

package cache

import (
	"context"
	"encoding/hex"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultMemorySize bounds the in-memory cache entry count
const DefaultMemorySize = 1000

type memoryEntry struct {
	entry Entry
	valid bool
}

// MemoryCache is an LRU-bounded in-process cache. It implements the
// same contract as StoreCache but loses entries on restart; useful
// for tests and for deployments without a writable database.
type MemoryCache struct {
	mu  sync.Mutex
	lru *lru.Cache[string, *memoryEntry]
	ttl time.Duration
}

// NewMemoryCache creates an in-memory cache holding at most size
// entries with the given ttl. Non-positive arguments fall back to
// DefaultMemorySize and DefaultTTL.
func NewMemoryCache(size int, ttl time.Duration) (*MemoryCache, error) {
	if size <= 0 {
		size = DefaultMemorySize
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	l, err := lru.New[string, *memoryEntry](size)
	if err != nil {
		return nil, err
	}
	return &MemoryCache{lru: l, ttl: ttl}, nil
}

func memoryKey(key Key) string {
	return hex.EncodeToString(key.Fingerprint) + "|" + key.Borough
}

func (c *MemoryCache) Lookup(_ context.Context, key Key) (*Entry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	me, ok := c.lru.Get(memoryKey(key))
	if !ok || !me.valid || !time.Now().Before(me.entry.ExpiresAt) {
		return nil, ErrMiss
	}
	me.entry.HitCount++
	out := me.entry
	return &out, nil
}

func (c *MemoryCache) Store(_ context.Context, key Key, entry *Entry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	stored := *entry
	stored.Borough = key.Borough
	if stored.ExpiresAt.IsZero() {
		stored.ExpiresAt = time.Now().Add(c.ttl)
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now()
	}
	// Overwrite keeps the prior hit count, matching the persistent
	// upsert behavior.
	if prev, ok := c.lru.Get(memoryKey(key)); ok {
		stored.HitCount = prev.entry.HitCount
	}
	c.lru.Add(memoryKey(key), &memoryEntry{entry: stored, valid: true})
	return nil
}

func (c *MemoryCache) Touch(_ context.Context, key Key) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if me, ok := c.lru.Get(memoryKey(key)); ok && me.valid && time.Now().Before(me.entry.ExpiresAt) {
		me.entry.HitCount++
	}
	return nil
}

func (c *MemoryCache) Invalidate(_ context.Context, key Key) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if me, ok := c.lru.Get(memoryKey(key)); ok {
		me.valid = false
	}
	return nil
}

func (c *MemoryCache) InvalidateScope(_ context.Context, borough string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	count := 0
	for _, k := range c.lru.Keys() {
		me, ok := c.lru.Peek(k)
		if !ok || !me.valid {
			continue
		}
		if borough == "" || me.entry.Borough == borough || me.entry.Borough == "" {
			me.valid = false
			count++
		}
	}
	return count, nil
}

func (c *MemoryCache) Sweep(_ context.Context, now time.Time) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	count := 0
	for _, k := range c.lru.Keys() {
		me, ok := c.lru.Peek(k)
		if ok && me.entry.ExpiresAt.Before(now) {
			c.lru.Remove(k)
			count++
		}
	}
	return count, nil
}

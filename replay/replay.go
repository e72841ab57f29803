// Copyright 2025 The Witness Contributors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package replay remembers timestamps that were already accepted so a captured message
// cannot be submitted again while its timestamp is still fresh.
package replay

import (
	"sync"
	"time"

	"github.com/in-toto/go-freshness/timestamp"
	"github.com/jellydator/ttlcache/v3"
)

const DefaultTTL = 5 * time.Minute

// Cache records timestamp keys until they expire.
type Cache interface {
	// Add records key until expiry, or for the cache's default lifetime when expiry is zero.
	// It returns false when key is already recorded.
	Add(key string, expiry time.Time) bool
	Close()
}

type Option func(*MemoryCache)

// WithDefaultTTL sets how long keys without an expiry are remembered.
func WithDefaultTTL(ttl time.Duration) Option {
	return func(c *MemoryCache) {
		if ttl > 0 {
			c.defaultTTL = ttl
		}
	}
}

func WithClock(clock timestamp.Clock) Option {
	return func(c *MemoryCache) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithCapacity bounds the number of remembered keys. The least recently added key is
// evicted first.
func WithCapacity(capacity uint64) Option {
	return func(c *MemoryCache) {
		c.capacity = capacity
	}
}

// MemoryCache is an in-process Cache safe for concurrent use.
type MemoryCache struct {
	mu         sync.Mutex
	defaultTTL time.Duration
	capacity   uint64
	clock      timestamp.Clock
	entries    *ttlcache.Cache[string, time.Time]
}

func NewMemoryCache(opts ...Option) *MemoryCache {
	c := &MemoryCache{
		defaultTTL: DefaultTTL,
		clock:      timestamp.SystemClock{},
	}

	for _, opt := range opts {
		opt(c)
	}

	cacheOpts := []ttlcache.Option[string, time.Time]{
		ttlcache.WithTTL[string, time.Time](c.defaultTTL),
		ttlcache.WithDisableTouchOnHit[string, time.Time](),
	}

	if c.capacity > 0 {
		cacheOpts = append(cacheOpts, ttlcache.WithCapacity[string, time.Time](c.capacity))
	}

	c.entries = ttlcache.New[string, time.Time](cacheOpts...)
	go c.entries.Start()
	return c
}

func (c *MemoryCache) Add(key string, expiry time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if item := c.entries.Get(key); item != nil {
		return false
	}

	ttl := c.defaultTTL
	if !expiry.IsZero() {
		ttl = expiry.Sub(c.clock.Now())
		if ttl < time.Second {
			ttl = time.Second
		}
	}

	c.entries.Set(key, expiry, ttl)
	return true
}

// Len returns the number of keys currently remembered.
func (c *MemoryCache) Len() int {
	return c.entries.Len()
}

func (c *MemoryCache) Close() {
	c.entries.Stop()
}

// Key derives the replay key of a token from its creation instant and identifier.
func Key(tok timestamp.Token) string {
	return tok.Created.UTC().Format(time.RFC3339Nano) + "|" + tok.ID
}

// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package cache

import (
	"sync"

	lru "github.com/hashicorp/golang-lru"
)

// LRU is a fixed size least recently used cache that counts its hits and misses.
type LRU struct {
	cache *lru.Cache
	mu    sync.Mutex // serializes AddIfAbsent
	stats Stats
}

// NewLRU creates a LRU cache instance.
// maxSize should be > 0, or an error returned.
func NewLRU(maxSize int) (*LRU, error) {
	cache, err := lru.New(maxSize)
	if err != nil {
		return nil, err
	}
	return &LRU{cache: cache}, nil
}

// Get looks up key and marks it recently used.
func (l *LRU) Get(key any) (any, bool) {
	v, ok := l.cache.Get(key)
	if ok {
		l.stats.Hit()
	} else {
		l.stats.Miss()
	}
	return v, ok
}

// Peek looks up key without touching its recency or the stats.
func (l *LRU) Peek(key any) (any, bool) {
	return l.cache.Peek(key)
}

// Add adds the pair, evicting the oldest entry when full.
func (l *LRU) Add(key, value any) {
	l.cache.Add(key, value)
}

// AddIfAbsent adds the pair unless key is already cached, and reports whether it did.
func (l *LRU) AddIfAbsent(key, value any) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cache.Contains(key) {
		l.stats.Hit()
		return false
	}
	l.stats.Miss()
	l.cache.Add(key, value)
	return true
}

// Len returns the number of cached entries.
func (l *LRU) Len() int {
	return l.cache.Len()
}

// Keys returns the cached keys from oldest to newest.
func (l *LRU) Keys() []any {
	return l.cache.Keys()
}

// Stats returns the lookup counters.
func (l *LRU) Stats() *Stats {
	return &l.stats
}

// Loader defines loader to load value.
type Loader func(key any) (any, error)

// GetOrLoad first try to get from cache, do load if missed.
func (l *LRU) GetOrLoad(key any, loader Loader) (any, error) {
	if v, ok := l.Get(key); ok {
		return v, nil
	}
	v, err := loader(key)
	if err != nil {
		return nil, err
	}

	l.Add(key, v)
	return v, nil
}

package identity

import (
	"sync"
	"time"

	"github.com/andrei73/pushup-counter/internal/domain/user"
)

type cachedPrincipal struct {
	principal user.Principal
	expiresAt time.Time
}

// principalCache keys verified principals by token hash. An entry never outlives the token's own exp.
// A non-positive ttl disables caching.
type principalCache struct {
	mu      sync.Mutex
	entries map[string]cachedPrincipal
	ttl     time.Duration
	limit   int
	now     func() time.Time
}

func newPrincipalCache(ttl time.Duration, limit int) *principalCache {
	return &principalCache{
		entries: make(map[string]cachedPrincipal),
		ttl:     ttl,
		limit:   limit,
		now:     time.Now,
	}
}

func (c *principalCache) Get(key string) (user.Principal, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return user.Principal{}, false
	}
	if !c.now().Before(entry.expiresAt) {
		delete(c.entries, key)
		return user.Principal{}, false
	}
	return entry.principal, true
}

// Set keeps principal until ttl elapses or tokenExpiry passes, whichever is first.
// A zero tokenExpiry means the provider sent no exp.
func (c *principalCache) Set(key string, principal user.Principal, tokenExpiry time.Time) {
	if c.ttl <= 0 {
		return
	}
	now := c.now()
	expiresAt := now.Add(c.ttl)
	if !tokenExpiry.IsZero() && tokenExpiry.Before(expiresAt) {
		expiresAt = tokenExpiry
	}
	if !expiresAt.After(now) {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && c.limit > 0 && len(c.entries) >= c.limit {
		c.makeRoom(now)
	}
	c.entries[key] = cachedPrincipal{principal: principal, expiresAt: expiresAt}
}

func (c *principalCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// makeRoom drops expired entries. If none had expired it drops the one closest to expiry.
func (c *principalCache) makeRoom(now time.Time) {
	var (
		soonestKey string
		soonest    time.Time
	)
	for key, entry := range c.entries {
		if !now.Before(entry.expiresAt) {
			delete(c.entries, key)
			continue
		}
		if soonestKey == "" || entry.expiresAt.Before(soonest) {
			soonestKey, soonest = key, entry.expiresAt
		}
	}
	if len(c.entries) >= c.limit && soonestKey != "" {
		delete(c.entries, soonestKey)
	}
}

// Package tokencache caches a single bearer access token (for the satellite
// or a party's IdP) behind a write-biased lock: readers take the fast path
// under RLock while the token is still valid, and only a stale cache pays the
// cost of acquiring the exclusive lock to refresh.
package tokencache

import "sync"

// Cache holds one access token plus its expiry, refreshed on demand via fetch.
type Cache struct {
	mu         sync.RWMutex
	accessToken string
	expiresAt  int64 // unix seconds; -1 means never populated
}

// New returns an empty cache.
func New() *Cache {
	return &Cache{expiresAt: -1}
}

// isInvalid reports whether the cached token is absent or expires within the
// next 30 seconds.
func isInvalid(expiresAt, now int64) bool {
	return expiresAt == -1 || expiresAt-now < 30
}

// Fetcher retrieves a fresh access token and its absolute expiry (unix
// seconds) from the upstream token issuer.
type Fetcher func() (accessToken string, expiresAt int64, err error)

// Get returns a valid access token, calling fetch to refresh the cache only
// when the cached value is missing or near expiry.
func (c *Cache) Get(now int64, fetch Fetcher) (string, error) {
	c.mu.RLock()
	token, expiresAt := c.accessToken, c.expiresAt
	c.mu.RUnlock()

	if !isInvalid(expiresAt, now) {
		return token, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Another goroutine may have refreshed while we waited for the write lock.
	if !isInvalid(c.expiresAt, now) {
		return c.accessToken, nil
	}

	fresh, exp, err := fetch()
	if err != nil {
		return "", err
	}
	c.accessToken, c.expiresAt = fresh, exp
	return fresh, nil
}

// Update overwrites the cached token directly, bypassing Fetcher.
func (c *Cache) Update(accessToken string, expiresAt int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accessToken, c.expiresAt = accessToken, expiresAt
}

package secrets

import (
	"sync"
	"time"

	"github.com/edoburu/docdata-reconciler/internal/domain/ports"
)

// credentialCache is a small in-memory TTL cache shared by the remote
// credential backends, so status webhooks don't hit the secret store on
// every request.
type credentialCache struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry
	enabled bool
	ttl     time.Duration
}

type cacheEntry struct {
	credentials *ports.MerchantCredentials
	expiresAt   time.Time
}

func newCredentialCache(enabled bool, ttl time.Duration) *credentialCache {
	return &credentialCache{
		entries: make(map[string]*cacheEntry),
		enabled: enabled,
		ttl:     ttl,
	}
}

func (c *credentialCache) get(key string) *ports.MerchantCredentials {
	if !c.enabled {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil
	}
	if time.Now().After(entry.expiresAt) {
		delete(c.entries, key)
		return nil
	}
	return entry.credentials
}

func (c *credentialCache) set(key string, creds *ports.MerchantCredentials) {
	if !c.enabled {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = &cacheEntry{
		credentials: creds,
		expiresAt:   time.Now().Add(c.ttl),
	}
}

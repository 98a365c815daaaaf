package cache

import (
	"sync"

	"socialhub/domain/model"
	"socialhub/domain/repository"
)

type credentialKey struct {
	userID   string
	platform string
}

// CredentialCache is an in-memory (user, platform) -> credentials map safe for concurrent fan-outs.
type CredentialCache struct {
	mu      sync.RWMutex
	entries map[credentialKey]model.PlatformCredentials
}

func NewCredentialCache() repository.ICredentialCache {
	return &CredentialCache{entries: make(map[credentialKey]model.PlatformCredentials)}
}

func (c *CredentialCache) Get(userID, platform string) (model.PlatformCredentials, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	creds, ok := c.entries[credentialKey{userID, platform}]
	return creds, ok
}

func (c *CredentialCache) Set(userID string, creds model.PlatformCredentials) {
	if creds == nil {
		return
	}
	c.mu.Lock()
	c.entries[credentialKey{userID, creds.Platform()}] = creds
	c.mu.Unlock()
}

func (c *CredentialCache) Delete(userID, platform string) {
	c.mu.Lock()
	delete(c.entries, credentialKey{userID, platform})
	c.mu.Unlock()
}

package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"socialhub/domain/model"
	"socialhub/domain/repository"
	"socialhub/infrastructure/logger"
)

// ICredentialResolver is the cache -> store chain in front of platform credentials.
type ICredentialResolver interface {
	// Resolve returns model.ErrCredentialsMissing when the user never connected the platform.
	Resolve(ctx context.Context, userID, platform string) (model.PlatformCredentials, error)
	Persist(ctx context.Context, userID string, creds model.PlatformCredentials) error
	Remove(ctx context.Context, userID, platform string) error
	Platforms(ctx context.Context, userID string) ([]string, error)
}

type CredentialResolver struct {
	store repository.ICredentialStore
	cache repository.ICredentialCache
	group singleflight.Group

	// generations is bumped by Remove; a load only fills the cache when
	// the generation it started under is still current.
	mu          sync.Mutex
	generations map[string]uint64
}

func NewCredentialResolver(store repository.ICredentialStore, cache repository.ICredentialCache) *CredentialResolver {
	return &CredentialResolver{store: store, cache: cache, generations: make(map[string]uint64)}
}

func credentialKey(userID, platform string) string {
	return userID + "|" + platform
}

func (r *CredentialResolver) generation(key string) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.generations[key]
}

func (r *CredentialResolver) Resolve(ctx context.Context, userID, platform string) (model.PlatformCredentials, error) {
	if creds, ok := r.cache.Get(userID, platform); ok {
		return creds, nil
	}
	key := credentialKey(userID, platform)
	v, err, _ := r.group.Do(key, func() (interface{}, error) {
		gen := r.generation(key)
		creds, err := r.store.Load(ctx, userID, platform)
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		if r.generations[key] == gen {
			r.cache.Set(userID, creds)
		}
		r.mu.Unlock()
		return creds, nil
	})
	if errors.Is(err, model.ErrNotFound) {
		return nil, fmt.Errorf("%s %w, connect the account first", platform, model.ErrCredentialsMissing)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s credentials: %w", platform, err)
	}
	return v.(model.PlatformCredentials), nil
}

// Persist writes the store first; the cache is only updated once the
// credentials are durable.
func (r *CredentialResolver) Persist(ctx context.Context, userID string, creds model.PlatformCredentials) error {
	if creds == nil {
		return model.NewValidationError("credentials", "empty")
	}
	if err := r.store.Save(ctx, userID, creds); err != nil {
		return fmt.Errorf("save %s credentials: %w", creds.Platform(), err)
	}
	r.cache.Set(userID, creds)
	logger.GetLogger().WithField("user_id", userID).WithField("platform", creds.Platform()).Info("Credentials stored")
	return nil
}

// Remove invalidates any load already in flight so it cannot repopulate
// the cache with the deleted credentials.
func (r *CredentialResolver) Remove(ctx context.Context, userID, platform string) error {
	key := credentialKey(userID, platform)
	r.invalidate(key, userID, platform)
	if err := r.store.Delete(ctx, userID, platform); err != nil {
		return fmt.Errorf("delete %s credentials: %w", platform, err)
	}
	// Loads that started before the delete landed may still read the old row.
	r.invalidate(key, userID, platform)
	return nil
}

func (r *CredentialResolver) invalidate(key, userID, platform string) {
	r.mu.Lock()
	r.generations[key]++
	r.cache.Delete(userID, platform)
	r.mu.Unlock()
	r.group.Forget(key)
}

func (r *CredentialResolver) Platforms(ctx context.Context, userID string) ([]string, error) {
	return r.store.Platforms(ctx, userID)
}

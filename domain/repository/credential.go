package repository

import (
	"context"
	"time"

	"socialhub/domain/model"
)

// ICredentialStore is the durable source of truth for platform credentials.
type ICredentialStore interface {
	Save(ctx context.Context, userID string, creds model.PlatformCredentials) error
	// Load returns model.ErrNotFound when nothing is stored.
	Load(ctx context.Context, userID, platform string) (model.PlatformCredentials, error)
	Delete(ctx context.Context, userID, platform string) error
	Platforms(ctx context.Context, userID string) ([]string, error)
}

// ICredentialCache is the process-local fast path in front of ICredentialStore.
type ICredentialCache interface {
	Get(userID, platform string) (model.PlatformCredentials, bool)
	Set(userID string, creds model.PlatformCredentials)
	Delete(userID, platform string)
}

// IPendingState holds short-lived OAuth flow state such as PKCE verifiers.
type IPendingState interface {
	Put(ctx context.Context, key, value string, ttl time.Duration) error
	Peek(ctx context.Context, key string) (string, bool, error)
	// Take returns and removes the value in one step.
	Take(ctx context.Context, key string) (string, bool, error)
	Delete(ctx context.Context, key string) error
}

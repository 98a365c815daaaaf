package repository

import (
	"context"

	"socialhub/domain/model"
)

// IPlatformUploader hides one platform's upload wire protocol.
type IPlatformUploader interface {
	Platform() string
	Upload(ctx context.Context, req model.UploadRequest) (*model.UploadResult, error)
}

// IOAuthManager drives one platform's authorization flow.
type IOAuthManager interface {
	Platform() string
	AuthURL(ctx context.Context, userID string) (string, error)
	Exchange(ctx context.Context, params model.CallbackParams) (string, model.PlatformCredentials, error)
	Refresh(ctx context.Context, creds model.PlatformCredentials) (model.PlatformCredentials, error)
	// Forget drops any pending flow state kept for the user.
	Forget(ctx context.Context, userID string) error
}

// IClientSecretsRegistrar is implemented by managers that need caller-supplied app credentials.
type IClientSecretsRegistrar interface {
	RegisterClientSecrets(ctx context.Context, userID string, data []byte) error
}

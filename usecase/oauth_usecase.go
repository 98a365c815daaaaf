package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/samber/lo"

	"socialhub/domain/dto"
	"socialhub/domain/model"
	"socialhub/domain/repository"
	"socialhub/infrastructure/logger"
)

const maxRedirectMessage = 120

type IOAuthUsecase interface {
	Connect(ctx context.Context, userID, platform string) (*dto.ConnectResponse, error)
	// RegisterClientSecrets keeps a user-supplied app descriptor and starts the flow with it.
	RegisterClientSecrets(ctx context.Context, userID, platform string, data []byte) (*dto.ConnectResponse, error)
	// Callback completes a flow and returns the frontend URL to redirect to.
	Callback(ctx context.Context, platform string, params model.CallbackParams) string
	Refresh(ctx context.Context, userID, platform string) error
	Disconnect(ctx context.Context, userID, platform string) error
	Status(ctx context.Context, userID string) (*dto.PlatformStatusResponse, error)
}

// RedirectBuilder turns an encoded query into a frontend URL.
type RedirectBuilder func(query string) string

type OAuthUsecase struct {
	credentials ICredentialResolver
	managers    map[string]repository.IOAuthManager
	redirect    RedirectBuilder
}

func NewOAuthUsecase(credentials ICredentialResolver, redirect RedirectBuilder, managers ...repository.IOAuthManager) IOAuthUsecase {
	return &OAuthUsecase{
		credentials: credentials,
		managers:    lo.KeyBy(managers, func(m repository.IOAuthManager) string { return m.Platform() }),
		redirect:    redirect,
	}
}

func (u *OAuthUsecase) manager(platform string) (repository.IOAuthManager, error) {
	m, ok := u.managers[platform]
	if !ok {
		return nil, fmt.Errorf("%s: %w", platform, model.ErrUnsupportedPlatform)
	}
	return m, nil
}

func (u *OAuthUsecase) Connect(ctx context.Context, userID, platform string) (*dto.ConnectResponse, error) {
	m, err := u.manager(platform)
	if err != nil {
		return nil, err
	}
	authURL, err := m.AuthURL(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &dto.ConnectResponse{
		Status:   "success",
		Message:  fmt.Sprintf("Open auth_url to authorize %s access", platform),
		AuthURL:  authURL,
		UserID:   userID,
		Platform: platform,
	}, nil
}

func (u *OAuthUsecase) RegisterClientSecrets(ctx context.Context, userID, platform string, data []byte) (*dto.ConnectResponse, error) {
	m, err := u.manager(platform)
	if err != nil {
		return nil, err
	}
	registrar, ok := m.(repository.IClientSecretsRegistrar)
	if !ok {
		return nil, model.NewValidationError("client_secrets", platform+" does not accept client secrets")
	}
	if len(data) == 0 {
		return nil, model.NewValidationError("client_secrets", "file is empty")
	}
	if err := registrar.RegisterClientSecrets(ctx, userID, data); err != nil {
		return nil, err
	}
	return u.Connect(ctx, userID, platform)
}

func (u *OAuthUsecase) Callback(ctx context.Context, platform string, params model.CallbackParams) string {
	lg := logger.GetLogger().WithField("platform", platform).WithField("user_id", params.State)
	m, err := u.manager(platform)
	if err != nil {
		return u.failure(platform, "unsupported platform")
	}
	userID, creds, err := m.Exchange(ctx, params)
	if err != nil {
		lg.WithField("error", err).Error("OAuth callback failed")
		return u.failure(platform, redirectMessage(err))
	}
	if err := u.credentials.Persist(ctx, userID, creds); err != nil {
		lg.WithField("error", err).Error("Error while storing credentials")
		return u.failure(platform, "could not store credentials")
	}
	lg.Info("Platform connected")
	return u.redirect(url.Values{"success": {platform}}.Encode())
}

func (u *OAuthUsecase) failure(platform, message string) string {
	return u.redirect(url.Values{"error": {platform}, "message": {message}}.Encode())
}

// redirectMessage keeps raw platform responses out of the browser URL.
func redirectMessage(err error) string {
	var oerr *model.OAuthError
	var verr *model.ValidationError
	msg := "authorization failed"
	switch {
	case errors.Is(err, model.ErrSessionExpired):
		msg = model.ErrSessionExpired.Error()
	case errors.As(err, &oerr) && oerr.Message != "":
		msg = oerr.Message
	case errors.As(err, &verr):
		msg = verr.Error()
	}
	if r := []rune(msg); len(r) > maxRedirectMessage {
		msg = string(r[:maxRedirectMessage])
	}
	return msg
}

func (u *OAuthUsecase) Refresh(ctx context.Context, userID, platform string) error {
	m, err := u.manager(platform)
	if err != nil {
		return err
	}
	current, err := u.credentials.Resolve(ctx, userID, platform)
	if err != nil {
		return err
	}
	next, err := m.Refresh(ctx, current)
	if err != nil {
		return err
	}
	return u.credentials.Persist(ctx, userID, next)
}

func (u *OAuthUsecase) Disconnect(ctx context.Context, userID, platform string) error {
	m, err := u.manager(platform)
	if err != nil {
		return err
	}
	if err := u.credentials.Remove(ctx, userID, platform); err != nil {
		return err
	}
	if err := m.Forget(ctx, userID); err != nil {
		logger.GetLogger().WithField("platform", platform).WithField("error", err).Warn("Error while dropping pending oauth state")
	}
	return nil
}

func (u *OAuthUsecase) Status(ctx context.Context, userID string) (*dto.PlatformStatusResponse, error) {
	connected, err := u.credentials.Platforms(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &dto.PlatformStatusResponse{
		UserID: userID,
		Platforms: lo.Map(model.SupportedPlatforms, func(p string, _ int) model.PlatformConnection {
			return model.PlatformConnection{Platform: p, Connected: lo.Contains(connected, p)}
		}),
	}, nil
}

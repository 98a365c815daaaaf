package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"socialhub/domain/model"
	"socialhub/infrastructure/cache"
	"socialhub/usecase"
)

func frontend(query string) string { return "http://front/platforms?" + query }

type oauthFixture struct {
	store   *MockCredentialStore
	tiktok  *MockOAuthManager
	youtube *MockSecretsManager
	usecase usecase.IOAuthUsecase
}

func newOAuthFixture() *oauthFixture {
	f := &oauthFixture{
		store:   new(MockCredentialStore),
		tiktok:  &MockOAuthManager{platform: model.PlatformTikTok},
		youtube: &MockSecretsManager{MockOAuthManager{platform: model.PlatformYouTube}},
	}
	resolver := usecase.NewCredentialResolver(f.store, cache.NewCredentialCache())
	f.usecase = usecase.NewOAuthUsecase(resolver, frontend, f.tiktok, f.youtube)
	return f
}

func TestOAuthUsecase_Connect(t *testing.T) {
	f := newOAuthFixture()
	f.tiktok.On("AuthURL", mock.Anything, "u1").Return("https://www.tiktok.com/v2/auth/authorize/?state=u1", nil)

	res, err := f.usecase.Connect(context.Background(), "u1", "tiktok")
	require.NoError(t, err)
	assert.Equal(t, "success", res.Status)
	assert.Equal(t, "tiktok", res.Platform)
	assert.Equal(t, "u1", res.UserID)
	assert.Contains(t, res.AuthURL, "state=u1")

	_, err = f.usecase.Connect(context.Background(), "u1", "myspace")
	assert.ErrorIs(t, err, model.ErrUnsupportedPlatform)
}

func TestOAuthUsecase_RegisterClientSecrets(t *testing.T) {
	f := newOAuthFixture()
	ctx := context.Background()
	data := []byte(`{"web":{}}`)
	f.youtube.On("RegisterClientSecrets", mock.Anything, "u1", data).Return(nil)
	f.youtube.On("AuthURL", mock.Anything, "u1").Return("https://accounts.google.com/o/oauth2/auth?state=u1", nil)

	res, err := f.usecase.RegisterClientSecrets(ctx, "u1", "youtube", data)
	require.NoError(t, err)
	assert.Equal(t, "youtube", res.Platform)

	_, err = f.usecase.RegisterClientSecrets(ctx, "u1", "tiktok", data)
	assert.ErrorIs(t, err, model.ErrValidation)
	_, err = f.usecase.RegisterClientSecrets(ctx, "u1", "youtube", nil)
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestOAuthUsecase_Callback(t *testing.T) {
	f := newOAuthFixture()
	ctx := context.Background()
	creds := model.TikTokCredentials{AccessToken: "tt", OpenID: "o"}
	ok := model.CallbackParams{Code: "c", State: "u1"}
	f.tiktok.On("Exchange", mock.Anything, ok).Return("u1", creds, nil).Once()
	f.store.On("Save", mock.Anything, "u1", creds).Return(nil).Once()

	assert.Equal(t, "http://front/platforms?success=tiktok", f.usecase.Callback(ctx, "tiktok", ok))
	f.store.AssertExpectations(t)
}

func TestOAuthUsecase_CallbackFailures(t *testing.T) {
	f := newOAuthFixture()
	ctx := context.Background()

	expired := model.CallbackParams{Code: "c", State: "u2"}
	f.tiktok.On("Exchange", mock.Anything, expired).
		Return("u2", nil, fmt.Errorf("tiktok: %w", model.ErrSessionExpired)).Once()
	assert.Equal(t, "http://front/platforms?error=tiktok&message=session+expired%2C+restart+the+flow",
		f.usecase.Callback(ctx, "tiktok", expired))

	rejected := model.CallbackParams{Code: "bad", State: "u3"}
	f.tiktok.On("Exchange", mock.Anything, rejected).
		Return("u3", nil, &model.OAuthError{Platform: "tiktok", Step: "token", Message: "invalid_grant"}).Once()
	assert.Equal(t, "http://front/platforms?error=tiktok&message=invalid_grant",
		f.usecase.Callback(ctx, "tiktok", rejected))

	opaque := model.CallbackParams{Code: "x", State: "u4"}
	f.tiktok.On("Exchange", mock.Anything, opaque).
		Return("u4", nil, errors.New(`{"raw":"platform body"}`)).Once()
	assert.Equal(t, "http://front/platforms?error=tiktok&message=authorization+failed",
		f.usecase.Callback(ctx, "tiktok", opaque))

	stored := model.CallbackParams{Code: "y", State: "u5"}
	f.tiktok.On("Exchange", mock.Anything, stored).Return("u5", model.TikTokCredentials{AccessToken: "t"}, nil).Once()
	f.store.On("Save", mock.Anything, "u5", mock.Anything).Return(errors.New("db down")).Once()
	assert.Equal(t, "http://front/platforms?error=tiktok&message=could+not+store+credentials",
		f.usecase.Callback(ctx, "tiktok", stored))

	assert.Equal(t, "http://front/platforms?error=myspace&message=unsupported+platform",
		f.usecase.Callback(ctx, "myspace", stored))
	f.store.AssertNotCalled(t, "Save", mock.Anything, "u2", mock.Anything)
}

func TestOAuthUsecase_Refresh(t *testing.T) {
	f := newOAuthFixture()
	ctx := context.Background()
	old := model.TikTokCredentials{AccessToken: "old", RefreshToken: "r"}
	fresh := model.TikTokCredentials{AccessToken: "new", RefreshToken: "r"}
	f.store.On("Load", mock.Anything, "u1", "tiktok").Return(old, nil).Once()
	f.tiktok.On("Refresh", mock.Anything, old).Return(fresh, nil).Once()
	f.store.On("Save", mock.Anything, "u1", fresh).Return(nil).Once()

	require.NoError(t, f.usecase.Refresh(ctx, "u1", "tiktok"))

	f.store.On("Load", mock.Anything, "u9", "tiktok").Return(nil, model.ErrNotFound).Once()
	assert.ErrorIs(t, f.usecase.Refresh(ctx, "u9", "tiktok"), model.ErrCredentialsMissing)
}

func TestOAuthUsecase_DisconnectAndStatus(t *testing.T) {
	f := newOAuthFixture()
	ctx := context.Background()
	f.store.On("Delete", mock.Anything, "u1", "tiktok").Return(nil).Once()
	f.tiktok.On("Forget", mock.Anything, "u1").Return(errors.New("redis down")).Once()
	require.NoError(t, f.usecase.Disconnect(ctx, "u1", "tiktok"))
	f.tiktok.AssertExpectations(t)

	f.store.On("Platforms", mock.Anything, "u1").Return([]string{"youtube"}, nil).Once()
	status, err := f.usecase.Status(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []model.PlatformConnection{
		{Platform: "youtube", Connected: true},
		{Platform: "tiktok", Connected: false},
		{Platform: "instagram", Connected: false},
	}, status.Platforms)
}

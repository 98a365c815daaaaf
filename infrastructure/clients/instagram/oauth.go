package instagram

import (
	"context"
	"errors"
	"fmt"
	"time"

	"socialhub/domain/model"
	"socialhub/domain/repository"
	"socialhub/infrastructure/clients/host"
	"socialhub/infrastructure/logger"
)

const (
	DefaultAuthBaseURL  = "https://api.instagram.com"
	DefaultGraphBaseURL = "https://graph.instagram.com"

	scopes = "user_profile,user_media"

	shortLivedTTL = time.Hour
	longLivedTTL  = 60 * 24 * time.Hour
)

type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	AuthBaseURL  string
	GraphBaseURL string
	Timeout      time.Duration
}

// OAuthManager runs the Instagram authorization code flow. The user id
// travels in state, so no flow state is kept server side.
type OAuthManager struct {
	cfg   OAuthConfig
	auth  *host.Host
	graph *host.Host
	now   func() time.Time
}

func NewOAuthManager(cfg OAuthConfig) *OAuthManager {
	if cfg.AuthBaseURL == "" {
		cfg.AuthBaseURL = DefaultAuthBaseURL
	}
	if cfg.GraphBaseURL == "" {
		cfg.GraphBaseURL = DefaultGraphBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &OAuthManager{
		cfg:   cfg,
		auth:  host.NewHost(model.PlatformInstagram, cfg.AuthBaseURL, cfg.Timeout),
		graph: host.NewHost(model.PlatformInstagram, cfg.GraphBaseURL, cfg.Timeout),
		now:   time.Now,
	}
}

var _ repository.IOAuthManager = (*OAuthManager)(nil)

func (m *OAuthManager) Platform() string { return model.PlatformInstagram }

type authorizeParams struct {
	ClientID     string `url:"client_id"`
	RedirectURI  string `url:"redirect_uri"`
	Scope        string `url:"scope"`
	ResponseType string `url:"response_type"`
	State        string `url:"state"`
}

func (m *OAuthManager) AuthURL(_ context.Context, userID string) (string, error) {
	if m.cfg.ClientID == "" {
		return "", model.NewValidationError("instagram", "client id not configured")
	}
	qs, err := host.Encode(authorizeParams{
		ClientID:     m.cfg.ClientID,
		RedirectURI:  m.cfg.RedirectURI,
		Scope:        scopes,
		ResponseType: "code",
		State:        userID,
	})
	if err != nil {
		return "", err
	}
	return m.cfg.AuthBaseURL + "/oauth/authorize?" + qs, nil
}

type codeForm struct {
	ClientID     string `url:"client_id"`
	ClientSecret string `url:"client_secret"`
	GrantType    string `url:"grant_type"`
	RedirectURI  string `url:"redirect_uri"`
	Code         string `url:"code"`
}

type tokenQuery struct {
	GrantType    string `url:"grant_type"`
	ClientSecret string `url:"client_secret,omitempty"`
	AccessToken  string `url:"access_token"`
}

// Exchange trades the code for a short-lived token and upgrades it to a
// long-lived one. A failed upgrade keeps the short-lived token.
func (m *OAuthManager) Exchange(ctx context.Context, params model.CallbackParams) (string, model.PlatformCredentials, error) {
	userID := params.State
	if params.Error != "" {
		msg := params.ErrorDescription
		if msg == "" {
			msg = params.Error
		}
		return userID, nil, &model.OAuthError{Platform: model.PlatformInstagram, Step: "authorize", Message: msg}
	}
	if params.Code == "" || userID == "" {
		return userID, nil, model.NewValidationError("callback", "code or state missing")
	}

	resp, err := m.auth.PostForm(ctx, "token", "/oauth/access_token", codeForm{
		ClientID:     m.cfg.ClientID,
		ClientSecret: m.cfg.ClientSecret,
		GrantType:    "authorization_code",
		RedirectURI:  m.cfg.RedirectURI,
		Code:         params.Code,
	})
	if err != nil {
		return userID, nil, oauthError("token", err)
	}
	short := resp.Get("access_token").String()
	if short == "" {
		return userID, nil, &model.OAuthError{Platform: model.PlatformInstagram, Step: "token", Message: host.ErrorMessage(resp.Body)}
	}
	creds := model.InstagramCredentials{
		AccessToken: short,
		UserID:      resp.Get("user_id").String(),
		ExpiresAt:   m.now().Add(shortLivedTTL).UTC(),
	}

	long, expiresIn, err := m.longLived(ctx, short)
	if err != nil {
		logger.GetLogger().WithField("user_id", userID).WithField("error", err).
			Warn("instagram long-lived token exchange failed, keeping short-lived token")
		return userID, creds, nil
	}
	creds.AccessToken = long
	creds.LongLived = true
	creds.ExpiresAt = m.now().Add(expiresIn).UTC()
	return userID, creds, nil
}

func (m *OAuthManager) longLived(ctx context.Context, short string) (string, time.Duration, error) {
	resp, err := m.graph.GetQuery(ctx, "long_lived_token", "/access_token", tokenQuery{
		GrantType:    "ig_exchange_token",
		ClientSecret: m.cfg.ClientSecret,
		AccessToken:  short,
	})
	if err != nil {
		return "", 0, err
	}
	return tokenFrom(resp)
}

// Refresh extends a long-lived token by another 60 days.
func (m *OAuthManager) Refresh(ctx context.Context, creds model.PlatformCredentials) (model.PlatformCredentials, error) {
	current, ok := creds.(model.InstagramCredentials)
	if !ok {
		return nil, fmt.Errorf("instagram refresh: %w", model.ErrUnsupportedPlatform)
	}
	resp, err := m.graph.GetQuery(ctx, "refresh", "/refresh_access_token", tokenQuery{
		GrantType:   "ig_refresh_token",
		AccessToken: current.AccessToken,
	})
	if err != nil {
		return nil, oauthError("refresh", err)
	}
	token, expiresIn, err := tokenFrom(resp)
	if err != nil {
		return nil, oauthError("refresh", err)
	}
	current.AccessToken = token
	current.LongLived = true
	current.ExpiresAt = m.now().Add(expiresIn).UTC()
	return current, nil
}

func (m *OAuthManager) Forget(context.Context, string) error { return nil }

func tokenFrom(resp *host.Response) (string, time.Duration, error) {
	token := resp.Get("access_token").String()
	if token == "" {
		return "", 0, errors.New(host.ErrorMessage(resp.Body))
	}
	expiresIn := longLivedTTL
	if secs := resp.Get("expires_in").Int(); secs > 0 {
		expiresIn = time.Duration(secs) * time.Second
	}
	return token, expiresIn, nil
}

func oauthError(step string, err error) error {
	msg := err.Error()
	var pe *model.PlatformError
	if errors.As(err, &pe) && pe.Message != "" {
		msg = pe.Message
	}
	return &model.OAuthError{Platform: model.PlatformInstagram, Step: step, Message: msg, Err: err}
}

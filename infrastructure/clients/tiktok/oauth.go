package tiktok

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"socialhub/domain/model"
	"socialhub/domain/repository"
	"socialhub/infrastructure/clients/host"
	"socialhub/infrastructure/logger"
)

const (
	DefaultAuthBaseURL = "https://www.tiktok.com"
	DefaultAPIBaseURL  = "https://open.tiktokapis.com"

	scopes             = "user.info.basic,video.upload,video.publish"
	defaultVerifierTTL = 10 * time.Minute
)

type OAuthConfig struct {
	ClientKey    string
	ClientSecret string
	RedirectURI  string
	AuthBaseURL  string
	APIBaseURL   string
	Timeout      time.Duration
	VerifierTTL  time.Duration
}

// OAuthManager runs the PKCE authorization code flow.
type OAuthManager struct {
	cfg     OAuthConfig
	api     *host.Host
	pending repository.IPendingState
	now     func() time.Time
}

func NewOAuthManager(cfg OAuthConfig, pending repository.IPendingState) *OAuthManager {
	if cfg.AuthBaseURL == "" {
		cfg.AuthBaseURL = DefaultAuthBaseURL
	}
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = DefaultAPIBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.VerifierTTL <= 0 {
		cfg.VerifierTTL = defaultVerifierTTL
	}
	return &OAuthManager{
		cfg:     cfg,
		api:     host.NewHost(model.PlatformTikTok, cfg.APIBaseURL, cfg.Timeout),
		pending: pending,
		now:     time.Now,
	}
}

var _ repository.IOAuthManager = (*OAuthManager)(nil)

func (m *OAuthManager) Platform() string { return model.PlatformTikTok }

func pkceKey(userID string) string { return "tiktok:pkce:" + userID }

// NewCodeVerifier returns 32 random bytes as unpadded base64url.
func NewCodeVerifier() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// CodeChallenge is the S256 challenge of a verifier.
func CodeChallenge(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

type authorizeParams struct {
	ClientKey           string `url:"client_key"`
	Scope               string `url:"scope"`
	ResponseType        string `url:"response_type"`
	RedirectURI         string `url:"redirect_uri"`
	State               string `url:"state"`
	CodeChallenge       string `url:"code_challenge"`
	CodeChallengeMethod string `url:"code_challenge_method"`
}

func (m *OAuthManager) AuthURL(ctx context.Context, userID string) (string, error) {
	if m.cfg.ClientKey == "" {
		return "", model.NewValidationError("tiktok", "client key not configured")
	}
	verifier, err := NewCodeVerifier()
	if err != nil {
		return "", fmt.Errorf("generate code verifier: %w", err)
	}
	if err := m.pending.Put(ctx, pkceKey(userID), verifier, m.cfg.VerifierTTL); err != nil {
		return "", fmt.Errorf("store code verifier: %w", err)
	}
	qs, err := host.Encode(authorizeParams{
		ClientKey:           m.cfg.ClientKey,
		Scope:               scopes,
		ResponseType:        "code",
		RedirectURI:         m.cfg.RedirectURI,
		State:               userID,
		CodeChallenge:       CodeChallenge(verifier),
		CodeChallengeMethod: "S256",
	})
	if err != nil {
		return "", err
	}
	return m.cfg.AuthBaseURL + "/v2/auth/authorize/?" + qs, nil
}

type tokenForm struct {
	ClientKey    string `url:"client_key"`
	ClientSecret string `url:"client_secret"`
	GrantType    string `url:"grant_type"`
	Code         string `url:"code,omitempty"`
	RedirectURI  string `url:"redirect_uri,omitempty"`
	CodeVerifier string `url:"code_verifier,omitempty"`
	RefreshToken string `url:"refresh_token,omitempty"`
}

// Exchange completes the flow for the user named by state. Without a
// pending verifier the flow cannot finish and nothing is written.
func (m *OAuthManager) Exchange(ctx context.Context, params model.CallbackParams) (string, model.PlatformCredentials, error) {
	userID := params.State
	if params.Error != "" {
		msg := params.ErrorDescription
		if msg == "" {
			msg = params.Error
		}
		return userID, nil, &model.OAuthError{Platform: model.PlatformTikTok, Step: "authorize", Message: msg}
	}
	if params.Code == "" || userID == "" {
		return userID, nil, model.NewValidationError("callback", "code or state missing")
	}

	verifier, ok, err := m.pending.Peek(ctx, pkceKey(userID))
	if err != nil {
		return userID, nil, fmt.Errorf("load code verifier: %w", err)
	}
	if !ok {
		return userID, nil, fmt.Errorf("tiktok: %w", model.ErrSessionExpired)
	}

	creds, err := m.requestToken(ctx, "token", tokenForm{
		ClientKey:    m.cfg.ClientKey,
		ClientSecret: m.cfg.ClientSecret,
		GrantType:    "authorization_code",
		Code:         params.Code,
		RedirectURI:  m.cfg.RedirectURI,
		CodeVerifier: verifier,
	})
	if err != nil {
		return userID, nil, err
	}
	if err := m.pending.Delete(ctx, pkceKey(userID)); err != nil {
		logger.GetLogger().WithField("user_id", userID).WithField("error", err).Warn("drop code verifier failed")
	}
	return userID, *creds, nil
}

func (m *OAuthManager) Refresh(ctx context.Context, creds model.PlatformCredentials) (model.PlatformCredentials, error) {
	current, ok := creds.(model.TikTokCredentials)
	if !ok {
		return nil, fmt.Errorf("tiktok refresh: %w", model.ErrUnsupportedPlatform)
	}
	if current.RefreshToken == "" {
		return nil, model.NewValidationError("refresh_token", "no refresh token stored")
	}
	next, err := m.requestToken(ctx, "refresh", tokenForm{
		ClientKey:    m.cfg.ClientKey,
		ClientSecret: m.cfg.ClientSecret,
		GrantType:    "refresh_token",
		RefreshToken: current.RefreshToken,
	})
	if err != nil {
		return nil, err
	}
	if next.OpenID == "" {
		next.OpenID = current.OpenID
	}
	if next.RefreshToken == "" {
		next.RefreshToken = current.RefreshToken
	}
	return *next, nil
}

func (m *OAuthManager) Forget(ctx context.Context, userID string) error {
	return m.pending.Delete(ctx, pkceKey(userID))
}

func (m *OAuthManager) requestToken(ctx context.Context, step string, form tokenForm) (*model.TikTokCredentials, error) {
	resp, err := m.api.PostForm(ctx, step, "/v2/oauth/token/", form)
	if err != nil {
		return nil, &model.OAuthError{Platform: model.PlatformTikTok, Step: step, Message: shortReason(err), Err: err}
	}
	token := resp.Get("access_token").String()
	if token == "" {
		logger.GetLogger().WithField("body", logger.Preview(resp.Body)).Error("tiktok token response without access_token")
		return nil, &model.OAuthError{Platform: model.PlatformTikTok, Step: step, Message: host.ErrorMessage(resp.Body)}
	}
	creds := &model.TikTokCredentials{
		AccessToken:  token,
		RefreshToken: resp.Get("refresh_token").String(),
		OpenID:       resp.Get("open_id").String(),
		Scope:        resp.Get("scope").String(),
	}
	if secs := resp.Get("expires_in").Int(); secs > 0 {
		creds.ExpiresAt = m.now().Add(time.Duration(secs) * time.Second).UTC()
	}
	return creds, nil
}

func shortReason(err error) string {
	var pe *model.PlatformError
	if errors.As(err, &pe) && pe.Message != "" {
		return pe.Message
	}
	return err.Error()
}

package youtube

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/youtube/v3"

	"socialhub/domain/model"
	"socialhub/domain/repository"
	"socialhub/infrastructure/logger"
)

const clientSecretsTTL = 24 * time.Hour

type OAuthConfig struct {
	RedirectURI string
	Timeout     time.Duration
}

// OAuthManager runs Google's authorization code flow with the client
// secrets file each user uploads for their own Google Cloud project.
type OAuthManager struct {
	cfg     OAuthConfig
	pending repository.IPendingState
	client  *http.Client
}

func NewOAuthManager(cfg OAuthConfig, pending repository.IPendingState) *OAuthManager {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &OAuthManager{cfg: cfg, pending: pending, client: &http.Client{Timeout: cfg.Timeout}}
}

var (
	_ repository.IOAuthManager           = (*OAuthManager)(nil)
	_ repository.IClientSecretsRegistrar = (*OAuthManager)(nil)
)

func (m *OAuthManager) Platform() string { return model.PlatformYouTube }

func secretsKey(userID string) string { return "youtube:client_secrets:" + userID }

// RegisterClientSecrets validates a client_secrets.json descriptor and
// keeps it for the user until the flow completes.
func (m *OAuthManager) RegisterClientSecrets(ctx context.Context, userID string, data []byte) error {
	if !gjson.ValidBytes(data) {
		return model.NewValidationError("client_secrets", "file is not valid JSON")
	}
	if !gjson.GetBytes(data, "web").Exists() && !gjson.GetBytes(data, "installed").Exists() {
		return model.NewValidationError("client_secrets", "expected a \"web\" or \"installed\" section")
	}
	if _, err := google.ConfigFromJSON(data, youtube.YoutubeUploadScope); err != nil {
		return model.NewValidationError("client_secrets", err.Error())
	}
	return m.pending.Put(ctx, secretsKey(userID), string(data), clientSecretsTTL)
}

func (m *OAuthManager) config(ctx context.Context, userID string) (*oauth2.Config, error) {
	data, ok, err := m.pending.Peek(ctx, secretsKey(userID))
	if err != nil {
		return nil, fmt.Errorf("load client secrets: %w", err)
	}
	if !ok {
		return nil, nil
	}
	cfg, err := google.ConfigFromJSON([]byte(data), youtube.YoutubeUploadScope)
	if err != nil {
		return nil, model.NewValidationError("client_secrets", err.Error())
	}
	if m.cfg.RedirectURI != "" {
		cfg.RedirectURL = m.cfg.RedirectURI
	}
	return cfg, nil
}

func (m *OAuthManager) AuthURL(ctx context.Context, userID string) (string, error) {
	cfg, err := m.config(ctx, userID)
	if err != nil {
		return "", err
	}
	if cfg == nil {
		return "", model.NewValidationError("client_secrets", "upload your client secrets file first")
	}
	return cfg.AuthCodeURL(userID, oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent")), nil
}

// Exchange stores the app credentials inside the result so later refreshes
// do not need the uploaded file.
func (m *OAuthManager) Exchange(ctx context.Context, params model.CallbackParams) (string, model.PlatformCredentials, error) {
	userID := params.State
	if params.Error != "" {
		return userID, nil, &model.OAuthError{Platform: model.PlatformYouTube, Step: "authorize", Message: params.Error}
	}
	if params.Code == "" || userID == "" {
		return userID, nil, model.NewValidationError("callback", "code or state missing")
	}
	cfg, err := m.config(ctx, userID)
	if err != nil {
		return userID, nil, err
	}
	if cfg == nil {
		return userID, nil, fmt.Errorf("youtube client secrets: %w", model.ErrSessionExpired)
	}

	tok, err := cfg.Exchange(context.WithValue(ctx, oauth2.HTTPClient, m.client), params.Code)
	if err != nil {
		return userID, nil, &model.OAuthError{Platform: model.PlatformYouTube, Step: "token", Message: retrieveReason(err), Err: err}
	}
	if err := m.pending.Delete(ctx, secretsKey(userID)); err != nil {
		logger.GetLogger().WithField("user_id", userID).WithField("error", err).Warn("drop client secrets failed")
	}
	return userID, credentialsFrom(cfg, tok), nil
}

func (m *OAuthManager) Refresh(ctx context.Context, creds model.PlatformCredentials) (model.PlatformCredentials, error) {
	current, ok := creds.(model.YouTubeCredentials)
	if !ok {
		return nil, fmt.Errorf("youtube refresh: %w", model.ErrUnsupportedPlatform)
	}
	if current.RefreshToken == "" {
		return nil, model.NewValidationError("refresh_token", "no refresh token stored")
	}
	cfg := OAuth2Config(current)
	stale := Token(current)
	stale.Expiry = time.Now().Add(-time.Minute)

	tok, err := cfg.TokenSource(context.WithValue(ctx, oauth2.HTTPClient, m.client), stale).Token()
	if err != nil {
		return nil, &model.OAuthError{Platform: model.PlatformYouTube, Step: "refresh", Message: retrieveReason(err), Err: err}
	}
	return credentialsFrom(cfg, tok), nil
}

func (m *OAuthManager) Forget(ctx context.Context, userID string) error {
	return m.pending.Delete(ctx, secretsKey(userID))
}

// OAuth2Config rebuilds the app config embedded in stored credentials.
func OAuth2Config(c model.YouTubeCredentials) *oauth2.Config {
	tokenURL := c.TokenURI
	if tokenURL == "" {
		tokenURL = google.Endpoint.TokenURL
	}
	scopes := c.Scopes
	if len(scopes) == 0 {
		scopes = []string{youtube.YoutubeUploadScope}
	}
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		Endpoint:     oauth2.Endpoint{AuthURL: google.Endpoint.AuthURL, TokenURL: tokenURL},
		Scopes:       scopes,
	}
}

func Token(c model.YouTubeCredentials) *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  c.AccessToken,
		RefreshToken: c.RefreshToken,
		TokenType:    c.TokenType,
		Expiry:       c.Expiry,
	}
}

func credentialsFrom(cfg *oauth2.Config, tok *oauth2.Token) model.YouTubeCredentials {
	return model.YouTubeCredentials{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
		Expiry:       tok.Expiry.UTC(),
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURI:     cfg.Endpoint.TokenURL,
		Scopes:       cfg.Scopes,
	}
}

func retrieveReason(err error) string {
	if re, ok := err.(*oauth2.RetrieveError); ok {
		if re.ErrorDescription != "" {
			return re.ErrorDescription
		}
		if re.ErrorCode != "" {
			return re.ErrorCode
		}
		return fmt.Sprintf("token endpoint returned %d", re.Response.StatusCode)
	}
	return err.Error()
}

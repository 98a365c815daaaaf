package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// PlatformCredentials is an opaque secret bundle. Only the owning platform's
// OAuth manager and adapter look inside it.
type PlatformCredentials interface {
	Platform() string
}

type YouTubeCredentials struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	Expiry       time.Time `json:"expiry"`
	ClientID     string    `json:"client_id"`
	ClientSecret string    `json:"client_secret"`
	TokenURI     string    `json:"token_uri"`
	Scopes       []string  `json:"scopes"`
}

func (YouTubeCredentials) Platform() string { return PlatformYouTube }

type TikTokCredentials struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	OpenID       string    `json:"open_id"`
	Scope        string    `json:"scope"`
	ExpiresAt    time.Time `json:"expires_at"`
}

func (TikTokCredentials) Platform() string { return PlatformTikTok }

type InstagramCredentials struct {
	AccessToken string    `json:"access_token"`
	UserID      string    `json:"user_id"`
	LongLived   bool      `json:"long_lived"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func (InstagramCredentials) Platform() string { return PlatformInstagram }

type credentialEnvelope struct {
	Platform string          `json:"platform"`
	Data     json.RawMessage `json:"data"`
}

// EncodeCredentials serializes a credential variant tagged with its platform.
func EncodeCredentials(c PlatformCredentials) ([]byte, error) {
	if c == nil {
		return nil, fmt.Errorf("encode credentials: %w", ErrValidation)
	}
	data, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode %s credentials: %w", c.Platform(), err)
	}
	return json.Marshal(credentialEnvelope{Platform: c.Platform(), Data: data})
}

// DecodeCredentials is the inverse of EncodeCredentials.
func DecodeCredentials(raw []byte) (PlatformCredentials, error) {
	var env credentialEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode credentials envelope: %w", err)
	}
	var (
		out PlatformCredentials
		err error
	)
	switch env.Platform {
	case PlatformYouTube:
		var c YouTubeCredentials
		err = json.Unmarshal(env.Data, &c)
		out = c
	case PlatformTikTok:
		var c TikTokCredentials
		err = json.Unmarshal(env.Data, &c)
		out = c
	case PlatformInstagram:
		var c InstagramCredentials
		err = json.Unmarshal(env.Data, &c)
		out = c
	default:
		return nil, fmt.Errorf("decode credentials %q: %w", env.Platform, ErrUnsupportedPlatform)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s credentials: %w", env.Platform, err)
	}
	return out, nil
}

// CallbackParams are the query parameters a platform sends back to the redirect URI.
type CallbackParams struct {
	Code             string
	State            string
	Error            string
	ErrorDescription string
}

// PlatformConnection reports whether a user has usable credentials for a platform.
type PlatformConnection struct {
	Platform  string `json:"platform"`
	Connected bool   `json:"connected"`
}

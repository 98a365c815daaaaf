package utils

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/stretchr/testify/require"
	"socialhub/domain/model"
)

func TestGenerateToken(t *testing.T) {
	signed, err := GenerateToken(model.User{ID: "user_1", Email: "a@b.c"}, "secret", time.Hour)
	require.NoError(t, err)

	var claims model.UserClaims
	token, err := jwt.ParseWithClaims(signed, &claims, func(*jwt.Token) (interface{}, error) {
		return []byte("secret"), nil
	})
	require.NoError(t, err)
	require.True(t, token.Valid)
	require.Equal(t, "user_1", claims.Issuer)
	require.Equal(t, "a@b.c", claims.Email)
}

func TestRandomURLToken(t *testing.T) {
	tok, err := RandomURLToken(32)
	require.NoError(t, err)
	require.NotContains(t, tok, "=")
	raw, err := base64.RawURLEncoding.DecodeString(tok)
	require.NoError(t, err)
	require.Len(t, raw, 32)

	h, err := RandomHex(6)
	require.NoError(t, err)
	require.Len(t, h, 12)
}

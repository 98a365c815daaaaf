package model

import (
	"time"

	"github.com/golang-jwt/jwt"
)

type User struct {
	ID             string     `json:"id"`
	Email          string     `json:"email"`
	PasswordHash   string     `json:"-"`
	ResetToken     *string    `json:"-"`
	ResetExpiresAt *time.Time `json:"-"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      *time.Time `json:"updated_at,omitempty"`
}

// UserClaims is the JWT payload. Issuer carries the user id.
type UserClaims struct {
	jwt.StandardClaims
	Email string `json:"email"`
}

package repository

import (
	"context"
	"time"

	"socialhub/domain/model"
)

type IUser interface {
	GetByID(ctx context.Context, id string) (model.User, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByResetToken(ctx context.Context, token string) (model.User, error)
	CreateUser(ctx context.Context, user model.User) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	SetResetToken(ctx context.Context, id string, token *string, expiresAt *time.Time) error
}

// IMailer delivers account emails.
type IMailer interface {
	SendPasswordReset(ctx context.Context, email, token string) error
}

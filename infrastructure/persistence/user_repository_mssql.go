package persistence

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"socialhub/domain/model"
	"socialhub/domain/repository"
	"socialhub/infrastructure/logger"
)

const userColumnsMSSQL = `id, email, password_hash, reset_token, reset_expires_at, created_at, updated_at`

// UserRepositoryMSSQL is a SQL Server implementation of IUser using database/sql.
type UserRepositoryMSSQL struct{ db *sql.DB }

func NewUserRepositoryMSSQL(db *sql.DB) repository.IUser { return &UserRepositoryMSSQL{db} }

func (r *UserRepositoryMSSQL) GetByID(ctx context.Context, id string) (model.User, error) {
	return r.queryOne(ctx, `SELECT `+userColumnsMSSQL+` FROM dbo.[users] WHERE id = @p1`, id)
}

func (r *UserRepositoryMSSQL) GetByEmail(ctx context.Context, email string) (model.User, error) {
	return r.queryOne(ctx, `SELECT `+userColumnsMSSQL+` FROM dbo.[users] WHERE email = @p1`, email)
}

func (r *UserRepositoryMSSQL) GetByResetToken(ctx context.Context, token string) (model.User, error) {
	return r.queryOne(ctx, `SELECT `+userColumnsMSSQL+` FROM dbo.[users] WHERE reset_token = @p1`, token)
}

func (r *UserRepositoryMSSQL) queryOne(ctx context.Context, q string, arg any) (model.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, q, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, model.ErrNotFound
	}
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("mssql: query user failed")
	}
	return u, err
}

func (r *UserRepositoryMSSQL) CreateUser(ctx context.Context, user model.User) error {
	createdAt := user.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `INSERT INTO dbo.[users] (id, email, password_hash, created_at) VALUES (@p1, @p2, @p3, @p4)`,
		user.ID, user.Email, user.PasswordHash, createdAt)
	if err != nil {
		logger.GetLogger().WithFields(map[string]interface{}{
			"error": err,
			"email": user.Email,
		}).Error("mssql: create user failed")
	}
	return err
}

func (r *UserRepositoryMSSQL) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE dbo.[users] SET password_hash = @p2, reset_token = NULL, reset_expires_at = NULL, updated_at = SYSUTCDATETIME() WHERE id = @p1`,
		id, passwordHash)
	return affected(res, err)
}

func (r *UserRepositoryMSSQL) SetResetToken(ctx context.Context, id string, token *string, expiresAt *time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE dbo.[users] SET reset_token = @p2, reset_expires_at = @p3 WHERE id = @p1`,
		id, nullableString(token), nullableTime(expiresAt))
	return affected(res, err)
}

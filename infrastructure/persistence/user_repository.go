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

const (
	userColumns = `u.id, u.email, u.password_hash, u.reset_token, u.reset_expires_at, u.created_at, u.updated_at`

	qUserByID = `SELECT ` + userColumns + ` 
	FROM users AS u 
	WHERE u.id = $1`
	qUserByEmail = `SELECT ` + userColumns + ` 
	FROM users AS u 
	WHERE u.email = $1`
	qUserByResetToken = `SELECT ` + userColumns + ` 
	FROM users AS u 
	WHERE u.reset_token = $1`
	qUserInsert   = `INSERT INTO users (id, email, password_hash, created_at) VALUES ($1, $2, $3, $4)`
	qUserPassword = `UPDATE users SET password_hash = $2, reset_token = NULL, reset_expires_at = NULL, updated_at = $3 WHERE id = $1`
	qUserReset    = `UPDATE users SET reset_token = $2, reset_expires_at = $3 WHERE id = $1`
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) repository.IUser {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (model.User, error) {
	return r.queryOne(ctx, qUserByID, id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (model.User, error) {
	return r.queryOne(ctx, qUserByEmail, email)
}

func (r *UserRepository) GetByResetToken(ctx context.Context, token string) (model.User, error) {
	return r.queryOne(ctx, qUserByResetToken, token)
}

func (r *UserRepository) queryOne(ctx context.Context, q string, arg any) (model.User, error) {
	var u model.User
	stmt, err := r.db.PrepareContext(ctx, q)
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Error while preparing user query")
		return u, err
	}
	defer stmt.Close()

	u, err = scanUser(stmt.QueryRowContext(ctx, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, model.ErrNotFound
	}
	return u, err
}

func (r *UserRepository) CreateUser(ctx context.Context, user model.User) error {
	stmt, err := r.db.PrepareContext(ctx, qUserInsert)
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Error while preparing user insert")
		return err
	}
	defer stmt.Close()

	createdAt := user.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err = stmt.ExecContext(ctx, user.ID, user.Email, user.PasswordHash, createdAt)
	return err
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	res, err := r.db.ExecContext(ctx, qUserPassword, id, passwordHash, time.Now().UTC())
	return affected(res, err)
}

func (r *UserRepository) SetResetToken(ctx context.Context, id string, token *string, expiresAt *time.Time) error {
	res, err := r.db.ExecContext(ctx, qUserReset, id, nullableString(token), nullableTime(expiresAt))
	return affected(res, err)
}

func scanUser(row rowScanner) (model.User, error) {
	var (
		u       model.User
		token   sql.NullString
		expires sql.NullTime
		updated sql.NullTime
	)
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &token, &expires, &u.CreatedAt, &updated); err != nil {
		return model.User{}, err
	}
	if token.Valid {
		v := token.String
		u.ResetToken = &v
	}
	if expires.Valid {
		v := expires.Time
		u.ResetExpiresAt = &v
	}
	if updated.Valid {
		v := updated.Time
		u.UpdatedAt = &v
	}
	return u, nil
}

func nullableString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

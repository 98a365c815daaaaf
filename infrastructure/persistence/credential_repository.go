package persistence

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"socialhub/domain/model"
	"socialhub/domain/repository"
)

const (
	qCredUpsert = `INSERT INTO platform_credentials (user_id, platform, payload, created_at, updated_at)
		  VALUES ($1,$2,$3,$4,$4)
		  ON CONFLICT (user_id, platform) DO UPDATE SET
			payload=EXCLUDED.payload,
			updated_at=EXCLUDED.updated_at`
	qCredGet       = `SELECT payload FROM platform_credentials WHERE user_id=$1 AND platform=$2`
	qCredDelete    = `DELETE FROM platform_credentials WHERE user_id=$1 AND platform=$2`
	qCredPlatforms = `SELECT platform FROM platform_credentials WHERE user_id=$1 ORDER BY platform`
)

// CredentialRepository keeps one sealed payload per (user, platform) in PostgreSQL.
type CredentialRepository struct {
	db    *sql.DB
	codec CredentialCodec
}

func NewCredentialRepository(db *sql.DB, codec CredentialCodec) repository.ICredentialStore {
	return &CredentialRepository{db: db, codec: codec}
}

func (r *CredentialRepository) Save(ctx context.Context, userID string, creds model.PlatformCredentials) error {
	payload, err := r.codec.Encode(creds)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, qCredUpsert, userID, creds.Platform(), payload, time.Now().UTC())
	return err
}

func (r *CredentialRepository) Load(ctx context.Context, userID, platform string) (model.PlatformCredentials, error) {
	var payload []byte
	err := r.db.QueryRowContext(ctx, qCredGet, userID, platform).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return r.codec.Decode(payload)
}

func (r *CredentialRepository) Delete(ctx context.Context, userID, platform string) error {
	_, err := r.db.ExecContext(ctx, qCredDelete, userID, platform)
	return err
}

func (r *CredentialRepository) Platforms(ctx context.Context, userID string) ([]string, error) {
	return queryStrings(ctx, r.db, qCredPlatforms, userID)
}

func queryStrings(ctx context.Context, db *sql.DB, q string, args ...any) ([]string, error) {
	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []string{}
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

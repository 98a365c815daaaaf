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
	// MERGE upsert by (user_id, platform)
	qCredUpsertMSSQL = `MERGE dbo.[platform_credentials] AS target
USING (VALUES (@p1, @p2)) AS src(user_id, platform)
ON target.user_id = src.user_id AND target.platform = src.platform
WHEN MATCHED THEN UPDATE SET
    payload=@p3,
    updated_at=@p4
WHEN NOT MATCHED THEN
    INSERT (user_id, platform, payload, created_at, updated_at)
    VALUES (@p1,@p2,@p3,@p4,@p4);`
	qCredGetMSSQL       = `SELECT payload FROM dbo.[platform_credentials] WHERE user_id=@p1 AND platform=@p2`
	qCredDeleteMSSQL    = `DELETE FROM dbo.[platform_credentials] WHERE user_id=@p1 AND platform=@p2`
	qCredPlatformsMSSQL = `SELECT platform FROM dbo.[platform_credentials] WHERE user_id=@p1 ORDER BY platform`
)

type CredentialRepositoryMSSQL struct {
	db    *sql.DB
	codec CredentialCodec
}

func NewCredentialRepositoryMSSQL(db *sql.DB, codec CredentialCodec) repository.ICredentialStore {
	return &CredentialRepositoryMSSQL{db: db, codec: codec}
}

func (r *CredentialRepositoryMSSQL) Save(ctx context.Context, userID string, creds model.PlatformCredentials) error {
	payload, err := r.codec.Encode(creds)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, qCredUpsertMSSQL, userID, creds.Platform(), payload, time.Now().UTC())
	return err
}

func (r *CredentialRepositoryMSSQL) Load(ctx context.Context, userID, platform string) (model.PlatformCredentials, error) {
	var payload []byte
	err := r.db.QueryRowContext(ctx, qCredGetMSSQL, userID, platform).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return r.codec.Decode(payload)
}

func (r *CredentialRepositoryMSSQL) Delete(ctx context.Context, userID, platform string) error {
	_, err := r.db.ExecContext(ctx, qCredDeleteMSSQL, userID, platform)
	return err
}

func (r *CredentialRepositoryMSSQL) Platforms(ctx context.Context, userID string) ([]string, error) {
	return queryStrings(ctx, r.db, qCredPlatformsMSSQL, userID)
}

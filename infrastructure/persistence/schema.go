package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

var postgresSchema = []struct {
	name string
	ddl  string
}{
	{"videos", `CREATE TABLE IF NOT EXISTS videos (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		tags JSONB NOT NULL DEFAULT '[]',
		platforms JSONB NOT NULL DEFAULT '[]',
		privacy_status TEXT NOT NULL,
		status TEXT NOT NULL,
		upload_results JSONB NOT NULL DEFAULT '{}',
		errors JSONB NOT NULL DEFAULT '{}',
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NULL
	)`},
	{"videos_user_idx", `CREATE INDEX IF NOT EXISTS idx_videos_user_created ON videos (user_id, created_at DESC)`},
	{"platform_credentials", `CREATE TABLE IF NOT EXISTS platform_credentials (
		user_id TEXT NOT NULL,
		platform TEXT NOT NULL,
		payload BYTEA NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (user_id, platform)
	)`},
	{"users", `CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		reset_token TEXT NULL,
		reset_expires_at TIMESTAMPTZ NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NULL
	)`},
}

// EnsureSchema creates the PostgreSQL tables when they are missing.
// Safe to call at every startup.
func EnsureSchema(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, s := range postgresSchema {
		if _, err := db.ExecContext(ctx, s.ddl); err != nil {
			return fmt.Errorf("create %s: %w", s.name, err)
		}
	}
	return nil
}

package persistence

import (
	"database/sql"
	"fmt"
)

var mssqlSchema = []struct {
	name string
	ddl  string
}{
	{"videos", `IF NOT EXISTS (SELECT * FROM sys.objects WHERE object_id = OBJECT_ID(N'dbo.videos') AND type in (N'U'))
BEGIN
    CREATE TABLE dbo.[videos] (
        id NVARCHAR(64) NOT NULL PRIMARY KEY,
        user_id NVARCHAR(128) NOT NULL,
        title NVARCHAR(500) NOT NULL,
        description NVARCHAR(MAX) NOT NULL,
        tags NVARCHAR(MAX) NOT NULL,
        platforms NVARCHAR(MAX) NOT NULL,
        privacy_status NVARCHAR(32) NOT NULL,
        status NVARCHAR(32) NOT NULL,
        upload_results NVARCHAR(MAX) NOT NULL,
        errors NVARCHAR(MAX) NOT NULL,
        created_at DATETIME2 NOT NULL,
        updated_at DATETIME2 NULL
    );
    CREATE INDEX IX_videos_user_created ON dbo.[videos](user_id, created_at DESC);
END`},
	{"platform_credentials", `IF NOT EXISTS (SELECT * FROM sys.objects WHERE object_id = OBJECT_ID(N'dbo.platform_credentials') AND type in (N'U'))
BEGIN
    CREATE TABLE dbo.[platform_credentials] (
        user_id NVARCHAR(128) NOT NULL,
        platform NVARCHAR(32) NOT NULL,
        payload VARBINARY(MAX) NOT NULL,
        created_at DATETIME2 NOT NULL,
        updated_at DATETIME2 NOT NULL,
        CONSTRAINT PK_platform_credentials PRIMARY KEY (user_id, platform)
    );
END`},
	{"users", `IF NOT EXISTS (SELECT * FROM sys.objects WHERE object_id = OBJECT_ID(N'dbo.users') AND type in (N'U'))
BEGIN
    CREATE TABLE dbo.[users] (
        id NVARCHAR(64) NOT NULL PRIMARY KEY,
        email NVARCHAR(320) NOT NULL,
        password_hash NVARCHAR(255) NOT NULL,
        reset_token NVARCHAR(128) NULL,
        reset_expires_at DATETIME2 NULL,
        created_at DATETIME2 NOT NULL,
        updated_at DATETIME2 NULL
    );
    CREATE UNIQUE INDEX UX_users_email ON dbo.[users](email);
END`},
}

// EnsureSchemaMSSQL creates the SQL Server tables when they are missing.
func EnsureSchemaMSSQL(db *sql.DB) error {
	for _, s := range mssqlSchema {
		if _, err := db.Exec(s.ddl); err != nil {
			return fmt.Errorf("create %s (mssql): %w", s.name, err)
		}
	}
	return nil
}

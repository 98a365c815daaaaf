package persistence

import (
	"database/sql"
	"fmt"
	"net/url"
	"time"

	"socialhub/infrastructure/configuration"

	_ "github.com/microsoft/go-mssqldb"
)

// NewMSSQLDB opens Azure SQL / SQL Server through database/sql.
func NewMSSQLDB() (*sql.DB, error) {
	return openMSSQL(configuration.C.Database.Mssql)
}

func mssqlDSN(cfg configuration.Db) string {
	q := url.Values{}
	if cfg.Name != "" {
		q.Set("database", cfg.Name)
	}
	q.Set("encrypt", "true")
	q.Set("app name", "socialhub")
	// Local containers use a self-signed certificate.
	if cfg.Host == "localhost" || cfg.Host == "127.0.0.1" {
		q.Set("TrustServerCertificate", "true")
	}

	u := &url.URL{Scheme: "sqlserver", Host: fmt.Sprintf("%s:%s", cfg.Host, cfg.Port)}
	if cfg.User != "" {
		if cfg.Password != "" {
			u.User = url.UserPassword(cfg.User, cfg.Password)
		} else {
			u.User = url.User(cfg.User)
		}
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func openMSSQL(cfg configuration.Db) (*sql.DB, error) {
	db, err := sql.Open("sqlserver", mssqlDSN(cfg))
	if err != nil {
		return nil, err
	}
	return configurePool(db)
}

// configurePool applies the shared pool limits and verifies the connection.
func configurePool(db *sql.DB) (*sql.DB, error) {
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxIdleTime(time.Minute)
	db.SetConnMaxLifetime(5 * time.Minute)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

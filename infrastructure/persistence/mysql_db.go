package persistence

import (
	"fmt"
	"time"

	"socialhub/infrastructure/configuration"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// mysqlDSN enables clientFoundRows so an update that leaves a row unchanged
// still counts it as affected and gormAffected only reports missing rows.
func mysqlDSN(cfg configuration.Db) string {
	port := cfg.Port
	if port == "" {
		port = "3306"
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC&clientFoundRows=true",
		cfg.User, cfg.Password, cfg.Host, port, cfg.Name)
}

// GormConfig is shared by the MySQL connection and its tests.
func GormConfig() *gorm.Config {
	return &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
	}
}

// NewMySQLGormDB opens MySQL through gorm and migrates the gorm-backed tables.
func NewMySQLGormDB() (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(mysqlDSN(configuration.C.Database.MySql)), GormConfig())
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)
	if err := AutoMigrateGorm(db); err != nil {
		return nil, err
	}
	return db, nil
}

func AutoMigrateGorm(db *gorm.DB) error {
	return db.AutoMigrate(&videoRecord{}, &credentialRecord{}, &userRecord{})
}
